package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Baaaki/message-board/internal/apperror"
	"github.com/Baaaki/message-board/internal/models"
	"github.com/Baaaki/message-board/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// MessageService is the part of service.MessageService the HTTP layer calls
type MessageService interface {
	ListAll(ctx context.Context) ([]models.Message, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	Create(ctx context.Context, content string) (*models.Message, error)
	Update(ctx context.Context, id int64, content string) (*models.Message, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type MessageHandler struct {
	messageService MessageService
}

func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// MessageRequest accepts JSON or form bodies. A missing content field is treated as empty.
type MessageRequest struct {
	Content *string `json:"content" form:"content"`
}

// GET /api/messages
func (h *MessageHandler) List(c *gin.Context) {
	messages, err := h.messageService.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GET /api/messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message, err := h.messageService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if message == nil {
		_ = c.Error(apperror.NotFound(service.MsgNotFound))
		return
	}

	c.JSON(http.StatusOK, message)
}

// POST /api/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req MessageRequest
	if err := bindMessage(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	message, err := h.messageService.Create(c.Request.Context(), lo.FromPtr(req.Content))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// PUT /api/messages/:id
func (h *MessageHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req MessageRequest
	if err := bindMessage(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	message, err := h.messageService.Update(c.Request.Context(), id, lo.FromPtr(req.Content))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if message == nil {
		_ = c.Error(apperror.NotFound(service.MsgNotFound))
		return
	}

	c.JSON(http.StatusOK, message)
}

// DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	deleted, err := h.messageService.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(apperror.NotFound(service.MsgNotFound))
		return
	}

	c.Status(http.StatusNoContent)
}

// parseID rejects anything that is not a whole decimal number ("12abc" included)
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.Validation(service.MsgInvalidID)
	}
	return id, nil
}

// bindMessage tolerates an empty body; the service reports the missing content
func bindMessage(c *gin.Context, req *MessageRequest) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBind(req); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}
