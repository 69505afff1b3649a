package handler

import (
	"errors"
	"net/http"

	"propertyflow-backend/internal/service"
	"propertyflow-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail maps service sentinel errors to HTTP statuses and writes the
// standard error envelope.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrTokenExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrDuplicate), errors.Is(err, service.ErrInvalidState):
		status = http.StatusBadRequest
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// badRequest writes a 400 envelope for binding and parsing failures.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
