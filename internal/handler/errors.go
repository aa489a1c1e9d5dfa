package handler

import (
	"errors"
	"net/http"

	"github.com/bugboard/api/internal/domain"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps domain errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": domain.ErrorCodeNotFound})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": domain.ErrorCodeValidation})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": domain.ErrorCodeUnauthorized})
	case errors.Is(err, domain.ErrUsernameTaken), errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": domain.ErrorCodeConflict})
	default:
		log.Errorf("handler: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": domain.ErrorCodeStorage})
	}
}
