package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/repository/memory"
	"github.com/exousia/storefront/pkg/errors"
)

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	svc := NewOrderService(repos, zap.NewNop())

	order := seedOrder(t, repos, "")
	require.NoError(t, repos.Order.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentFailed))

	updated, err := svc.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, "customer retried by phone")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, updated.Status)

	events, err := repos.OrderEvent.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "status_change", events[0].EventType)
	assert.Equal(t, "customer retried by phone", events[0].EventData["reason"])
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	svc := NewOrderService(repos, zap.NewNop())
	order := seedOrder(t, repos, "")

	_, err := svc.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered, "")
	var transition *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, domain.OrderStatusPending, transition.From)

	_, err = svc.UpdateStatus(ctx, order.ID, domain.OrderStatus("refunded"), "")
	var validation *errors.ErrValidation
	assert.ErrorAs(t, err, &validation)

	_, err = svc.UpdateStatus(ctx, uuid.New(), domain.OrderStatusCancelled, "")
	var notFound *errors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestQuoteLines(t *testing.T) {
	quote := QuoteLines([]QuoteLine{}, true)
	assert.True(t, quote.Shipping.Equal(quote.Total), "empty cart still pays the flat fee")
	assert.False(t, quote.DiscountApplied)
}
