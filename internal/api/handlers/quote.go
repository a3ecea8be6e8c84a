package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/api/middleware"
	"github.com/exousia/storefront/internal/service"
)

// HandleQuote handles POST /v1/checkout/quote
func HandleQuote(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		for _, line := range req.Items {
			if line.UnitPrice.IsNegative() {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error":   "validation failed",
					"details": "unit_price: must not be negative",
				})
				return
			}
		}

		_, signedIn := middleware.GetUserFromContext(c)
		quote := service.QuoteLines(req.Items, signedIn)

		logger.Debug("Quote computed",
			zap.Int("lines", len(req.Items)),
			zap.Bool("signed_in", signedIn),
			zap.String("total", quote.Total.StringFixed(2)),
		)

		c.JSON(http.StatusOK, gin.H{
			"subtotal":            quote.Subtotal.StringFixed(2),
			"discount":            quote.Discount.StringFixed(2),
			"discounted_subtotal": quote.DiscountedSubtotal.StringFixed(2),
			"shipping":            quote.Shipping.StringFixed(2),
			"total":               quote.Total.StringFixed(2),
			"amount":              quote.AmountMinorUnits(),
			"discount_applied":    quote.DiscountApplied,
			"free_shipping":       quote.FreeShipping,
		})
	}
}
