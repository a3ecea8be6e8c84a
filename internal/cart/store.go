// Package cart holds the client-side shopping cart.
//
// A Store is owned by exactly one session. Every mutation is written through
// to Storage before it becomes visible; the persisted record is only read
// back by an explicit call to Rehydrate. The store is not safe for
// concurrent use.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultNamespace is the storage key of the persisted cart.
	DefaultNamespace = "exousia-cart"

	recordVersion = 1
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	ErrMissingProduct  = errors.New("cart: product id is required")
)

// Product is the catalog data captured when an item is added.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// LineItem is one (product, size, color) entry in the cart.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	ImageRef  string          `json:"image"`
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// record is the persisted envelope. Name and Version let a reader detect a
// foreign or outdated record and start over.
type record struct {
	Name    string      `json:"name"`
	Version int         `json:"version"`
	State   recordState `json:"state"`
}

type recordState struct {
	Items []LineItem `json:"items"`
}

type Store struct {
	storage   Storage
	namespace string
	logger    *zap.Logger
	newID     func(productID, size, color string) string

	items []LineItem
}

// Option configures a Store
type Option func(*Store)

// WithNamespace overrides the storage key.
func WithNamespace(namespace string) Option {
	return func(s *Store) {
		s.namespace = namespace
	}
}

// WithIDGenerator overrides how line ids are minted.
func WithIDGenerator(fn func(productID, size, color string) string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore creates an empty cart backed by storage. Call Rehydrate to load
// what a previous session persisted.
func NewStore(storage Storage, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		namespace: DefaultNamespace,
		logger:    logger,
		newID:     newLineID,
		items:     []LineItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newLineID(productID, size, color string) string {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%s-%s-%s", productID, size, color, nonce)
}

// Rehydrate replaces the in-memory cart with the persisted one. A record that
// cannot be decoded, or belongs to another namespace or version, resets the
// cart to empty instead of failing, even when the empty record cannot be
// written back.
func (s *Store) Rehydrate() error {
	data, ok, err := s.storage.Load(s.namespace)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if !ok {
		s.items = []LineItem{}
		return nil
	}

	items, err := decodeRecord(data, s.namespace)
	if err != nil {
		s.logger.Warn("Discarding unreadable cart record",
			zap.String("namespace", s.namespace),
			zap.Error(err),
		)
		s.items = []LineItem{}
		if err := s.commit(s.items); err != nil {
			s.logger.Warn("Failed to overwrite unreadable cart record",
				zap.String("namespace", s.namespace),
				zap.Error(err),
			)
		}
		return nil
	}

	s.items = items
	return nil
}

func decodeRecord(data []byte, namespace string) ([]LineItem, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Name != namespace {
		return nil, fmt.Errorf("record name %q does not match namespace", rec.Name)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("unsupported record version %d", rec.Version)
	}

	items := make([]LineItem, 0, len(rec.State.Items))
	for _, item := range rec.State.Items {
		if item.ID == "" || item.ProductID == "" || item.Quantity < 1 {
			return nil, fmt.Errorf("invalid line item %q", item.ID)
		}
		items = append(items, item)
	}
	return items, nil
}

// commit saves items and only then makes them the in-memory cart, so a failed
// write leaves memory and storage agreeing on the previous state.
func (s *Store) commit(items []LineItem) error {
	data, err := json.Marshal(record{
		Name:    s.namespace,
		Version: recordVersion,
		State:   recordState{Items: items},
	})
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.storage.Save(s.namespace, data); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	s.items = items
	return nil
}

// AddItem adds quantity of product in the given size and color. An existing
// line with the same product, size and color is incremented instead of a new
// line being created. Empty size and color are valid values. Stock is not
// checked here.
func (s *Store) AddItem(product Product, size, color string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if product.ID == "" {
		return ErrMissingProduct
	}

	items := s.Items()
	if idx := s.indexOfVariant(product.ID, size, color); idx >= 0 {
		items[idx].Quantity += quantity
		return s.commit(items)
	}

	items = append(items, LineItem{
		ID:        s.newID(product.ID, size, color),
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
		ImageRef:  product.ImageURL,
	})
	return s.commit(items)
}

// UpdateItemQuantity sets a line's quantity. Zero or less removes the line.
// An unknown id is a no-op.
func (s *Store) UpdateItemQuantity(id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(id)
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	items := s.Items()
	items[idx].Quantity = quantity
	return s.commit(items)
}

// RemoveItem deletes a line. An unknown id is a no-op.
func (s *Store) RemoveItem(id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	items := make([]LineItem, 0, len(s.items)-1)
	items = append(items, s.items[:idx]...)
	items = append(items, s.items[idx+1:]...)
	return s.commit(items)
}

// Clear empties the cart. The store never calls it on its own; checkout does
// after a confirmed payment.
func (s *Store) Clear() error {
	return s.commit([]LineItem{})
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Lookup returns the line with the given id.
func (s *Store) Lookup(id string) (LineItem, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return LineItem{}, false
	}
	return s.items[idx], true
}

// TotalItems is the sum of quantities.
func (s *Store) TotalItems() int {
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the cart subtotal.
func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// DistinctLines is the number of lines regardless of quantity.
func (s *Store) DistinctLines() int {
	return len(s.items)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfVariant(productID, size, color string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID && s.items[i].Size == size && s.items[i].Color == color {
			return i
		}
	}
	return -1
}
