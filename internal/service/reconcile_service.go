package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/repository"
	apperrors "github.com/exousia/storefront/pkg/errors"
)

// Outcome describes what reconciliation did with a payment event
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeIgnored   Outcome = "ignored"
)

// Channels a payment outcome can arrive through
const (
	ChannelWebhook = "webhook"
	ChannelVerify  = "verify"
)

// ReconcileService writes gateway payment outcomes to orders. Each outcome of
// a reference is applied at most once and replays from either channel are
// no-ops. A success may follow a recorded failure (the shopper retried on the
// same checkout); a failure never overrides a success.
type ReconcileService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(repos *repository.Repositories, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		repos:  repos,
		logger: logger,
	}
}

// Apply reconciles one payment event. Errors are storage failures only;
// anything that cannot be applied is reported through the Outcome.
func (s *ReconcileService) Apply(ctx context.Context, event domain.PaymentEvent, channel string) (Outcome, error) {
	switch ev := event.(type) {
	case domain.PaymentSucceeded:
		return s.apply(ctx, ev.OrderID, ev.UserID, ev.Reference, channel, domain.PaymentUpdate{
			PaymentStatus: domain.PaymentStatusPaid,
			Status:        domain.OrderStatusProcessing,
			Reference:     ev.Reference,
		})
	case domain.PaymentFailed:
		return s.apply(ctx, ev.OrderID, ev.UserID, ev.Reference, channel, domain.PaymentUpdate{
			PaymentStatus: domain.PaymentStatusFailed,
			Status:        domain.OrderStatusPaymentFailed,
			Reference:     ev.Reference,
		})
	case domain.UnhandledPaymentEvent:
		s.logger.Info("Ignoring payment event",
			zap.String("type", ev.Type),
			zap.String("channel", channel),
		)
		return OutcomeIgnored, nil
	default:
		s.logger.Warn("Unknown payment event variant", zap.String("channel", channel))
		return OutcomeIgnored, nil
	}
}

func (s *ReconcileService) apply(
	ctx context.Context,
	rawOrderID, userID, reference, channel string,
	update domain.PaymentUpdate,
) (Outcome, error) {
	logger := s.logger.With(
		zap.String("reference", reference),
		zap.String("order_id", rawOrderID),
		zap.String("channel", channel),
	)

	if reference == "" {
		logger.Warn("Payment event without reference")
		return OutcomeSkipped, nil
	}

	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		logger.Warn("Payment event without a valid order id in metadata")
		return OutcomeSkipped, nil
	}

	prior, err := s.repos.PaymentLedger.Get(ctx, reference)
	var notFound *apperrors.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		prior = nil
	case err != nil:
		return "", err
	}
	if prior != nil && !prior.Supersedes(update.PaymentStatus) {
		logger.Info("Payment reference already processed",
			zap.String("recorded_outcome", string(prior.Outcome)),
		)
		return OutcomeDuplicate, nil
	}

	matched, err := s.repos.Order.ApplyPayment(ctx, orderID, userID, update)
	if err != nil {
		logger.Error("Failed to apply payment outcome", zap.Error(err))
		return "", err
	}
	if !matched {
		logger.Warn("No order matched payment owner, skipping",
			zap.String("user_id", userID),
		)
		return OutcomeSkipped, nil
	}

	if _, err := s.repos.PaymentLedger.Record(ctx, &domain.ProcessedPayment{
		Reference: reference,
		OrderID:   orderID,
		Outcome:   update.PaymentStatus,
		Channel:   channel,
	}); err != nil {
		logger.Error("Failed to record processed payment", zap.Error(err))
		return "", err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "payment_reconciled",
		EventData: map[string]interface{}{
			"reference":      reference,
			"channel":        channel,
			"payment_status": update.PaymentStatus,
			"status":         update.Status,
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		logger.Warn("Failed to record payment event", zap.Error(err))
	}

	logger.Info("Payment reconciled",
		zap.String("payment_status", string(update.PaymentStatus)),
		zap.String("status", string(update.Status)),
	)
	return OutcomeApplied, nil
}
