package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	apiName        = "Message Board API"
	apiVersion     = "1.0.0"
	apiDescription = "Backend API for creating, reading, updating and deleting messages"
)

// endpoints lists the public routes, shown by / and /api/info
var endpoints = []string{
	"GET /api/hello",
	"GET /api/time",
	"GET /api/info",
	"GET /api/messages",
	"GET /api/messages/:id",
	"POST /api/messages",
	"PUT /api/messages/:id",
	"DELETE /api/messages/:id",
}

// GeneralHandler serves the health and informational endpoints
type GeneralHandler struct {
	now func() time.Time
}

func NewGeneralHandler() *GeneralHandler {
	return &GeneralHandler{now: time.Now}
}

// GET /
func (h *GeneralHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   apiName + " is running",
		"version":   apiVersion,
		"endpoints": endpoints,
	})
}

// GET /api/hello
func (h *GeneralHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Hello from " + apiName + "!",
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// GET /api/time
func (h *GeneralHandler) Time(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"time":     now.UTC().Format(time.RFC3339Nano),
		"timezone": now.Location().String(),
	})
}

// GET /api/info
func (h *GeneralHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        apiName,
		"version":     apiVersion,
		"description": apiDescription,
		"endpoints":   endpoints,
	})
}
