package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/paystack"
	"github.com/exousia/storefront/internal/pricing"
	"github.com/exousia/storefront/internal/repository"
	apperrors "github.com/exousia/storefront/pkg/errors"
)

// ErrPaymentGateway wraps any failure talking to the payment gateway
var ErrPaymentGateway = errors.New("payment gateway request failed")

// PaymentGateway is the subset of the gateway client the service needs
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeTransactionRequest) (*paystack.InitializeTransactionResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyTransactionResponse, error)
}

// PaymentService starts and verifies gateway transactions for orders
type PaymentService struct {
	gateway         PaymentGateway
	orders          *orderService
	reconciler      *ReconcileService
	callbackURL     string
	referencePrefix string
	logger          *zap.Logger
	now             func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	cfg *config.Config,
	gateway PaymentGateway,
	repos *repository.Repositories,
	reconciler *ReconcileService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:         gateway,
		orders:          NewOrderService(repos, logger),
		reconciler:      reconciler,
		callbackURL:     cfg.AppURL + "/checkout/success",
		referencePrefix: cfg.Paystack.ReferencePrefix,
		logger:          logger,
		now:             time.Now,
	}
}

// InitializePayment prices the submitted lines, stores a pending order and
// opens a gateway transaction for it. The amount charged is the server's
// quote; the client's amount is only compared for logging.
func (s *PaymentService) InitializePayment(ctx context.Context, user *identity.User, req InitializePaymentRequest) (*InitializePaymentResult, error) {
	for _, item := range req.Items {
		if item.UnitPrice.IsNegative() {
			return nil, &apperrors.ErrValidation{Field: "unit_price", Message: "must not be negative"}
		}
	}

	lines := linesFromItems(req.Items)
	quote := pricing.Compute(pricing.Subtotal(lines), user != nil, len(lines))
	amount := quote.AmountMinorUnits()
	if amount <= 0 {
		return nil, &apperrors.ErrValidation{Field: "amount", Message: "order total must be positive"}
	}
	if req.Amount != 0 && req.Amount != amount {
		s.logger.Warn("Client amount differs from server quote",
			zap.Int64("client_amount", req.Amount),
			zap.Int64("server_amount", amount),
		)
	}

	reference := req.Reference
	if reference == "" {
		reference = domain.NewPaymentReference(s.referencePrefix, s.now())
	}

	order, err := s.orders.CreatePendingOrder(ctx, user, req, quote, reference)
	if err != nil {
		s.logger.Error("Failed to create pending order", zap.Error(err))
		return nil, err
	}

	resp, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeTransactionRequest{
		Email:       req.Email,
		Amount:      amount,
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata: paystack.Metadata{
			OrderID: order.ID.String(),
			UserID:  identity.ID(user),
		},
	})
	if err != nil {
		s.logger.Error("Failed to initialize payment",
			zap.String("order_id", order.ID.String()),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}

	s.logger.Info("Payment initialized",
		zap.String("order_id", order.ID.String()),
		zap.String("reference", reference),
		zap.Int64("amount", amount),
	)

	return &InitializePaymentResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        reference,
		OrderID:          order.ID.String(),
		Quote:            quote,
	}, nil
}

// VerifyPayment asks the gateway for the outcome of reference and reconciles
// it against the caller's own order
func (s *PaymentService) VerifyPayment(ctx context.Context, user *identity.User, reference string) (*VerifyPaymentResult, error) {
	resp, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		s.logger.Error("Failed to verify payment", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}

	event := paystack.EventFromVerification(resp, identity.ID(user))
	outcome, err := s.reconciler.Apply(ctx, event, ChannelVerify)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile payment: %w", err)
	}

	result := &VerifyPaymentResult{
		Reference:     resp.Data.Reference,
		Status:        resp.Data.Status,
		PaymentStatus: domain.PaymentStatusPending,
		Amount:        pricing.FromMinorUnits(resp.Data.Amount),
		Currency:      resp.Data.Currency,
		PaidAt:        resp.Data.PaidAt,
		OrderID:       resp.Data.ParseMetadata().OrderID,
		Outcome:       outcome,
	}
	if result.Reference == "" {
		result.Reference = reference
	}
	result.PaymentStatus, err = s.callerPaymentStatus(ctx, user, result.OrderID, result.Reference)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// callerPaymentStatus reports the payment status of the order behind
// reference as stored after reconciliation. Callers who do not own that order
// only ever see pending, whatever the gateway said.
func (s *PaymentService) callerPaymentStatus(ctx context.Context, user *identity.User, rawOrderID, reference string) (domain.PaymentStatus, error) {
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return domain.PaymentStatusPending, nil
	}

	order, err := s.orders.repos.Order.GetByID(ctx, orderID)
	var notFound *apperrors.ErrNotFound
	if errors.As(err, &notFound) {
		return domain.PaymentStatusPending, nil
	}
	if err != nil {
		s.logger.Error("Failed to load order for payment status",
			zap.String("order_id", rawOrderID),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to load order: %w", err)
	}

	if order.UserID != identity.ID(user) || order.PaymentReference != reference {
		return domain.PaymentStatusPending, nil
	}
	return order.PaymentStatus, nil
}
