package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/api/middleware"
	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/repository"
	"github.com/exousia/storefront/internal/service"
)

// OrderResponse represents the order response
type OrderResponse struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	Status           domain.OrderStatus     `json:"status"`
	PaymentStatus    domain.PaymentStatus   `json:"payment_status"`
	PaymentReference string                 `json:"payment_reference,omitempty"`
	CustomerName     string                 `json:"customer_name"`
	CustomerPhone    string                 `json:"customer_phone,omitempty"`
	ShippingAddress  map[string]interface{} `json:"shipping_address"`
	Subtotal         string                 `json:"subtotal"`
	Discount         string                 `json:"discount"`
	ShippingCost     string                 `json:"shipping_cost"`
	Total            string                 `json:"total"`
	Items            []OrderItemResponse    `json:"items"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

func newOrderResponse(order *domain.Order, items []*domain.OrderItem) OrderResponse {
	itemResponses := make([]OrderItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			ImageURL:  item.ImageURL,
		}
	}

	return OrderResponse{
		ID:               order.ID.String(),
		Email:            order.Email,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentReference: order.PaymentReference,
		CustomerName:     order.CustomerName,
		CustomerPhone:    order.CustomerPhone,
		ShippingAddress:  order.ShippingAddress,
		Subtotal:         order.Subtotal.StringFixed(2),
		Discount:         order.Discount.StringFixed(2),
		ShippingCost:     order.ShippingCost.StringFixed(2),
		Total:            order.Total.StringFixed(2),
		Items:            itemResponses,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        order.UpdatedAt.Format(time.RFC3339),
	}
}

// canView reports whether the caller may see order. Signed-in customers see
// their own orders; guest orders need the email they were placed with.
func canView(order *domain.Order, c *gin.Context) bool {
	if user, ok := middleware.GetUserFromContext(c); ok && order.UserID != "" {
		return user.ID == order.UserID
	}
	if order.UserID != "" {
		return false
	}
	email := strings.TrimSpace(c.Query("email"))
	return email != "" && strings.EqualFold(email, order.Email)
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Parse order ID
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewOrderService(repos, logger)
		order, items, err := orderService.GetOrderWithItems(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err, "get order")
			return
		}

		if !canView(order, c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.JSON(http.StatusOK, newOrderResponse(order, items))
	}
}
