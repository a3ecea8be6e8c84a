package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/api/middleware"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/service"
)

// PaymentService is implemented by *service.PaymentService
type PaymentService interface {
	InitializePayment(ctx context.Context, user *identity.User, req service.InitializePaymentRequest) (*service.InitializePaymentResult, error)
	VerifyPayment(ctx context.Context, user *identity.User, reference string) (*service.VerifyPaymentResult, error)
}

// HandleInitializePayment handles POST /v1/payment/initialize
func HandleInitializePayment(payments PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.InitializePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}

		user, _ := middleware.GetUserFromContext(c)

		result, err := payments.InitializePayment(c.Request.Context(), user, req)
		if err != nil {
			respondError(c, logger, err, "initialize payment")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleVerifyPayment handles GET /v1/payment/verify/:reference
func HandleVerifyPayment(payments PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := strings.TrimSpace(c.Param("reference"))
		if reference == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
			return
		}

		user, _ := middleware.GetUserFromContext(c)

		result, err := payments.VerifyPayment(c.Request.Context(), user, reference)
		if err != nil {
			respondError(c, logger, err, "verify payment")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
