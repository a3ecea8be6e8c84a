package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/repository"
	"github.com/exousia/storefront/internal/service"
)

// HandleUpdateOrderStatus handles POST /v1/admin/orders/:id/status
func HandleUpdateOrderStatus(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Parse order ID
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		// Parse request
		var req service.StatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}

		orderService := service.NewOrderService(repos, logger)
		order, err := orderService.UpdateStatus(c.Request.Context(), orderID, req.Status, req.Reason)
		if err != nil {
			respondError(c, logger, err, "update order status")
			return
		}

		logger.Info("Order status changed by operator",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(order.Status)),
		)

		c.JSON(http.StatusOK, gin.H{
			"id":             order.ID.String(),
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
		})
	}
}

// HandleListOrders handles GET /v1/admin/orders
func HandleListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Parse query parameters
		statusStr := c.Query("status")
		limitStr := c.DefaultQuery("limit", "50")
		offsetStr := c.DefaultQuery("offset", "0")

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 50
		}

		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			offset = 0
		}

		filter := repository.OrderFilter{Limit: limit, Offset: offset}
		if statusStr != "" {
			status := domain.OrderStatus(statusStr)
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			filter.Status = status
		}

		orders, err := repos.Order.List(c.Request.Context(), filter)
		if err != nil {
			logger.Error("Failed to list orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		// Build response
		orderResponses := make([]gin.H, len(orders))
		for i, order := range orders {
			orderResponses[i] = gin.H{
				"id":                order.ID.String(),
				"email":             order.Email,
				"customer_name":     order.CustomerName,
				"status":            order.Status,
				"payment_status":    order.PaymentStatus,
				"payment_reference": order.PaymentReference,
				"total":             order.Total.StringFixed(2),
				"created_at":        order.CreatedAt.Format(time.RFC3339),
				"updated_at":        order.UpdatedAt.Format(time.RFC3339),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": orderResponses,
			"limit":  limit,
			"offset": offset,
		})
	}
}
