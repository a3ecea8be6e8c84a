package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/exousia/storefront/internal/domain"
)

// OrderFilter narrows admin order listings
type OrderFilter struct {
	Status domain.OrderStatus // empty matches all
	Limit  int
	Offset int
}

// OrderRepository persists storefront orders
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	// ApplyPayment writes a reconciled payment outcome to the order owned by
	// userID. It reports false when no order matched both keys.
	ApplyPayment(ctx context.Context, id uuid.UUID, userID string, update domain.PaymentUpdate) (bool, error)
}

// OrderItemRepository persists order line snapshots
type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []*domain.OrderItem) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
}

// OrderEventRepository persists the order audit trail
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// PaymentLedgerRepository records payment references already applied
type PaymentLedgerRepository interface {
	// Get returns the outcome recorded for reference, or ErrNotFound.
	Get(ctx context.Context, reference string) (*domain.ProcessedPayment, error)
	// Record stores the reference, or upgrades a recorded failure to paid. It
	// reports false when the ledger was left unchanged.
	Record(ctx context.Context, payment *domain.ProcessedPayment) (bool, error)
}

// Repositories groups all repositories
type Repositories struct {
	Order         OrderRepository
	OrderItem     OrderItemRepository
	OrderEvent    OrderEventRepository
	PaymentLedger PaymentLedgerRepository
}
