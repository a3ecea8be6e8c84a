package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/cart"
	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/pricing"
)

var (
	ErrWrongStep             = errors.New("checkout: payment requires completed shipping details")
	ErrEmptyCart             = errors.New("checkout: cart is empty")
	ErrPaymentInitialization = errors.New("checkout: payment could not be started, please try again")
	ErrNoPayment             = errors.New("checkout: no payment has been started")
)

// PaymentRequest is what the storefront API needs to open a transaction
type PaymentRequest struct {
	Email     string
	Reference string
	Lines     []cart.LineItem
	Shipping  ShippingDetails
	Amount    int64 // client-side total in minor units
}

// Authorization is the gateway redirect returned by initialization
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	OrderID          string `json:"order_id"`
}

// PaymentResult is the verified outcome of a reference. Paid means the
// shopper's own order for the reference is paid; Applied means this
// verification is what marked it so.
type PaymentResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Paid      bool   `json:"paid"`
	Applied   bool   `json:"applied"`
}

type PaymentInitializer interface {
	InitializePayment(ctx context.Context, req PaymentRequest) (*Authorization, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, reference string) (*PaymentResult, error)
}

// Payments is implemented by the storefront API client
type Payments interface {
	PaymentInitializer
	PaymentVerifier
}

// Orchestrator ties the cart, the pricing rules and the checkout session
// together for one shopper.
type Orchestrator struct {
	store    *cart.Store
	session  *Session
	user     *identity.User
	payments Payments
	logger   *zap.Logger

	referencePrefix string
	now             func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

func WithReferencePrefix(prefix string) Option {
	return func(o *Orchestrator) {
		o.referencePrefix = prefix
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an orchestrator with a fresh session. user is nil
// for a guest.
func NewOrchestrator(store *cart.Store, user *identity.User, payments Payments, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:           store,
		session:         NewSession(user),
		user:            user,
		payments:        payments,
		logger:          logger,
		referencePrefix: domain.DefaultReferencePrefix,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Session() *Session {
	return o.session
}

// Quote prices the current cart for the current shopper.
func (o *Orchestrator) Quote() pricing.Quote {
	return pricing.Compute(o.store.TotalPrice(), o.user != nil, o.store.DistinctLines())
}

// PlaceOrder opens a gateway transaction for the cart. On failure the session
// is left untouched so the shopper can retry. The cart is not cleared here.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*Authorization, error) {
	if o.session.Step() != StepPayment {
		return nil, ErrWrongStep
	}
	if o.store.IsEmpty() {
		return nil, ErrEmptyCart
	}

	quote := o.Quote()
	details := o.session.Details()
	reference := domain.NewPaymentReference(o.referencePrefix, o.now())

	auth, err := o.payments.InitializePayment(ctx, PaymentRequest{
		Email:     details.Email,
		Reference: reference,
		Lines:     o.store.Items(),
		Shipping:  details,
		Amount:    quote.AmountMinorUnits(),
	})
	if err != nil {
		o.logger.Error("Failed to initialize payment",
			zap.String("reference", reference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPaymentInitialization, err)
	}

	if auth.Reference == "" {
		auth.Reference = reference
	}
	o.session.reference = auth.Reference

	o.logger.Info("Payment initialized",
		zap.String("reference", auth.Reference),
		zap.String("order_id", auth.OrderID),
	)
	return auth, nil
}

// ResumePayment makes reference the session's pending payment, for a shopper
// confirming in a later session than the one that placed the order.
func (o *Orchestrator) ResumePayment(reference string) {
	o.session.reference = reference
}

// ConfirmPayment verifies the session's reference.
func (o *Orchestrator) ConfirmPayment(ctx context.Context) (*PaymentResult, error) {
	if o.session.Reference() == "" {
		return nil, ErrNoPayment
	}
	return o.ConfirmReference(ctx, o.session.Reference())
}

// ConfirmReference verifies reference. The cart is cleared only when the
// payment is paid and it belongs to this cart: either it is the session's
// pending reference or this verification is what applied it. Re-confirming
// an older, already settled reference leaves the current cart alone.
func (o *Orchestrator) ConfirmReference(ctx context.Context, reference string) (*PaymentResult, error) {
	result, err := o.payments.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !result.Paid {
		o.logger.Info("Payment not confirmed",
			zap.String("reference", reference),
			zap.String("status", result.Status),
		)
		return result, nil
	}
	if reference != o.session.Reference() && !result.Applied {
		o.logger.Info("Paid reference is not this cart's, keeping cart",
			zap.String("reference", reference),
		)
		return result, nil
	}

	if err := o.store.Clear(); err != nil {
		return result, fmt.Errorf("failed to clear cart: %w", err)
	}
	o.session.reset()
	return result, nil
}
