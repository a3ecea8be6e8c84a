package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/paystack"
	"github.com/exousia/storefront/internal/service"
)

const maxWebhookBody = 1 << 20

// Reconciler is implemented by *service.ReconcileService
type Reconciler interface {
	Apply(ctx context.Context, event domain.PaymentEvent, channel string) (service.Outcome, error)
}

// HandlePaystackWebhook handles POST /v1/webhooks/paystack
func HandlePaystackWebhook(secretKey string, reconciler Reconciler, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		signature := c.GetHeader(paystack.SignatureHeader)
		if err := paystack.VerifySignature(body, signature, secretKey); err != nil {
			logger.Warn("Rejected webhook with invalid signature",
				zap.String("remote_addr", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		event, err := paystack.ParseWebhookEvent(body)
		if err != nil {
			logger.Warn("Failed to parse webhook", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		outcome, err := reconciler.Apply(c.Request.Context(), event, service.ChannelWebhook)
		if err != nil {
			// 5xx makes the gateway redeliver
			logger.Error("Failed to reconcile webhook", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
	}
}
