package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/domain"
)

// envelope is the body shape of every response.
type envelope struct {
	Success int         `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: 1, Data: data})
}

func okMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: 1, Data: data, Message: message})
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, envelope{Success: 0, Message: msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: 0, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
