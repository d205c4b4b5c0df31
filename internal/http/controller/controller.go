package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greentech/marketplace/internal/repository"
	"github.com/greentech/marketplace/internal/service"
)

// Ping handles the HTTP GET request for health check endpoint.
func Ping(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// respondError maps the core error taxonomy onto HTTP statuses.
// conflictMessage names the current state's nature for status-guard
// failures; denials stay generic so they leak nothing about the record.
func respondError(c *gin.Context, err error, conflictMessage string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "material not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": conflictMessage})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
