package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Baaaki/message-board/internal/apperror"
	"github.com/Baaaki/message-board/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternalError = "internal server error"

// StatusFor maps an error kind to its HTTP status and the client-facing message
func StatusFor(err error) (int, string) {
	var message string
	if appErr := asAppError(err); appErr != nil {
		message = appErr.Message
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest, message
	case apperror.KindNotFound:
		return http.StatusNotFound, message
	case apperror.KindUnavailable:
		return http.StatusServiceUnavailable, message
	case apperror.KindPersistence:
		return http.StatusInternalServerError, message
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Outside production, 5xx bodies also carry the error chain.
func ErrorHandler(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message := StatusFor(err)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.String("kind", apperror.KindOf(err).String()),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Log.Error("Request failed", fields...)
		} else {
			logger.Log.Debug("Request rejected", fields...)
		}

		body := gin.H{
			"error":     message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if !isProduction && status >= http.StatusInternalServerError {
			body["details"] = err.Error()
		}

		c.AbortWithStatusJSON(status, body)
	}
}

// Recovery turns a panic into a logged 500. The stack is only sent to clients outside production.
// gin's own stack dump is discarded; zap is the only sink.
func Recovery(isProduction bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		stack := string(debug.Stack())

		logger.Log.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("stack", stack),
		)

		body := gin.H{
			"error":     msgInternalError,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if !isProduction {
			body["details"] = fmt.Sprint(recovered)
			body["stack"] = stack
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

// NotFound answers unmatched routes
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "resource not found",
			"path":      c.Request.URL.RequestURI(),
			"method":    c.Request.Method,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func asAppError(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
