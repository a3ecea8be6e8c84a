// Package memory provides in-process repositories for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/repository"
	"github.com/exousia/storefront/pkg/errors"
)

type database struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domain.Order
	items    map[uuid.UUID][]*domain.OrderItem
	events   map[uuid.UUID][]*domain.OrderEvent
	payments map[string]*domain.ProcessedPayment
}

// NewRepositories creates repositories sharing one in-memory database
func NewRepositories() *repository.Repositories {
	db := &database{
		orders:   make(map[uuid.UUID]*domain.Order),
		items:    make(map[uuid.UUID][]*domain.OrderItem),
		events:   make(map[uuid.UUID][]*domain.OrderEvent),
		payments: make(map[string]*domain.ProcessedPayment),
	}
	return &repository.Repositories{
		Order:         &orderRepository{db: db},
		OrderItem:     &orderItemRepository{db: db},
		OrderEvent:    &orderEventRepository{db: db},
		PaymentLedger: &paymentLedgerRepository{db: db},
	}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	if o.ShippingAddress != nil {
		cp.ShippingAddress = make(map[string]interface{}, len(o.ShippingAddress))
		for k, v := range o.ShippingAddress {
			cp.ShippingAddress[k] = v
		}
	}
	return &cp
}

type orderRepository struct {
	db *database
}

func (r *orderRepository) Create(_ context.Context, order *domain.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	r.db.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *orderRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	order, ok := r.db.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return copyOrder(order), nil
}

func (r *orderRepository) GetByReference(_ context.Context, reference string) (*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, order := range r.db.orders {
		if order.PaymentReference == reference {
			return copyOrder(order), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: reference}
}

func (r *orderRepository) List(_ context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched := make([]*domain.Order, 0, len(r.db.orders))
	for _, order := range r.db.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		matched = append(matched, copyOrder(order))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(matched) {
		return []*domain.Order{}, nil
	}
	end := filter.Offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (r *orderRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	order, ok := r.db.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

func (r *orderRepository) ApplyPayment(_ context.Context, id uuid.UUID, userID string, update domain.PaymentUpdate) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	order, ok := r.db.orders[id]
	if !ok || order.UserID != userID {
		return false, nil
	}
	order.PaymentStatus = update.PaymentStatus
	order.Status = update.Status
	if update.Reference != "" {
		order.PaymentReference = update.Reference
	}
	order.UpdatedAt = time.Now()
	return true, nil
}

type orderItemRepository struct {
	db *database
}

func (r *orderItemRepository) CreateBatch(_ context.Context, items []*domain.OrderItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		cp := *item
		r.db.items[item.OrderID] = append(r.db.items[item.OrderID], &cp)
	}
	return nil
}

func (r *orderItemRepository) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	items := make([]*domain.OrderItem, 0, len(r.db.items[orderID]))
	for _, item := range r.db.items[orderID] {
		cp := *item
		items = append(items, &cp)
	}
	return items, nil
}

type orderEventRepository struct {
	db *database
}

func (r *orderEventRepository) Create(_ context.Context, event *domain.OrderEvent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	cp := *event
	r.db.events[event.OrderID] = append(r.db.events[event.OrderID], &cp)
	return nil
}

func (r *orderEventRepository) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	events := make([]*domain.OrderEvent, 0, len(r.db.events[orderID]))
	for _, event := range r.db.events[orderID] {
		cp := *event
		events = append(events, &cp)
	}
	return events, nil
}

type paymentLedgerRepository struct {
	db *database
}

func (r *paymentLedgerRepository) Get(_ context.Context, reference string) (*domain.ProcessedPayment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	payment, ok := r.db.payments[reference]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "processed payment", ID: reference}
	}
	cp := *payment
	return &cp, nil
}

func (r *paymentLedgerRepository) Record(_ context.Context, payment *domain.ProcessedPayment) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if existing, ok := r.db.payments[payment.Reference]; ok && !existing.Supersedes(payment.Outcome) {
		return false, nil
	}
	if payment.ProcessedAt.IsZero() {
		payment.ProcessedAt = time.Now()
	}
	cp := *payment
	r.db.payments[payment.Reference] = &cp
	return true, nil
}
