package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/pricing"
	"github.com/exousia/storefront/internal/repository"
	"github.com/exousia/storefront/pkg/errors"
)

type orderService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, logger *zap.Logger) *orderService {
	return &orderService{
		repos:  repos,
		logger: logger,
	}
}

// CreatePendingOrder stores a pending order with its item snapshots and an
// order_created event
func (s *orderService) CreatePendingOrder(
	ctx context.Context,
	user *identity.User,
	req InitializePaymentRequest,
	quote pricing.Quote,
	reference string,
) (*domain.Order, error) {
	order := &domain.Order{
		UserID:        identity.ID(user),
		Email:         req.Email,
		CustomerName:  fmt.Sprintf("%s %s", req.Shipping.FirstName, req.Shipping.LastName),
		CustomerPhone: req.Shipping.Phone,
		ShippingAddress: map[string]interface{}{
			"address":     req.Shipping.Address,
			"city":        req.Shipping.City,
			"state":       req.Shipping.State,
			"postal_code": req.Shipping.PostalCode,
			"country":     req.Shipping.Country,
		},
		Subtotal:         quote.Subtotal,
		Discount:         quote.Discount,
		ShippingCost:     quote.Shipping,
		Total:            quote.Total,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		PaymentReference: reference,
	}

	if err := s.repos.Order.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]*domain.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, &domain.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
			ImageURL:  line.ImageURL,
		})
	}
	if err := s.repos.OrderItem.CreateBatch(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	s.recordEvent(ctx, order.ID, "order_created", map[string]interface{}{
		"reference": reference,
		"total":     quote.Total.StringFixed(2),
		"status":    order.Status,
	})

	return order, nil
}

// UpdateStatus applies a manual status change after checking the transition
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, reason string) (*domain.Order, error) {
	if !newStatus.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status %q", newStatus)}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Validate state transition
	if !order.Status.CanTransitionTo(newStatus) {
		return nil, &errors.ErrInvalidStateTransition{
			From: order.Status,
			To:   newStatus,
		}
	}

	if err := s.repos.Order.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"from": order.Status,
		"to":   newStatus,
	}
	if reason != "" {
		data["reason"] = reason
	}
	s.recordEvent(ctx, orderID, "status_change", data)

	order.Status = newStatus
	return order, nil
}

// GetOrderWithItems loads an order and its line snapshots
func (s *orderService) GetOrderWithItems(ctx context.Context, orderID uuid.UUID) (*domain.Order, []*domain.OrderItem, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repos.OrderItem.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

func (s *orderService) recordEvent(ctx context.Context, orderID uuid.UUID, eventType string, data map[string]interface{}) {
	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event",
			zap.String("order_id", orderID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
