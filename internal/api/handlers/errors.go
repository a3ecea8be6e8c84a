package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/service"
	"github.com/exousia/storefront/pkg/errors"
)

// respondError maps service errors to the API's status codes
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var notFound *errors.ErrNotFound
	var transition *errors.ErrInvalidStateTransition
	var validation *errors.ErrValidation
	var unauthorized *errors.ErrUnauthorized

	switch {
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case stderrors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{"error": transition.Error()})
	case stderrors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": validation.Error(),
		})
	case stderrors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorized.Error()})
	case stderrors.Is(err, service.ErrPaymentGateway):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, please try again"})
	default:
		logger.Error("Failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

func bindingError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "validation failed",
		"details": err.Error(),
	})
}
