package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/pkg/errors"
)

type paymentLedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentLedgerRepository creates a new processed-payment ledger
func NewPaymentLedgerRepository(db *sql.DB, logger *zap.Logger) *paymentLedgerRepository {
	return &paymentLedgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentLedgerRepository) Get(ctx context.Context, reference string) (*domain.ProcessedPayment, error) {
	query := `
		SELECT reference, order_id, outcome, channel, processed_at
		FROM processed_payments
		WHERE reference = $1
	`

	var payment domain.ProcessedPayment
	err := r.db.QueryRowContext(ctx, query, reference).Scan(
		&payment.Reference,
		&payment.OrderID,
		&payment.Outcome,
		&payment.Channel,
		&payment.ProcessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "processed payment", ID: reference}
	}
	if err != nil {
		r.logger.Error("Failed to get processed payment", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}
	return &payment, nil
}

func (r *paymentLedgerRepository) Record(ctx context.Context, payment *domain.ProcessedPayment) (bool, error) {
	query := `
		INSERT INTO processed_payments (reference, order_id, outcome, channel, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reference) DO UPDATE
		SET outcome = EXCLUDED.outcome,
			channel = EXCLUDED.channel,
			processed_at = EXCLUDED.processed_at
		WHERE processed_payments.outcome = 'failed' AND EXCLUDED.outcome = 'paid'
	`

	if payment.ProcessedAt.IsZero() {
		payment.ProcessedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, query,
		payment.Reference,
		payment.OrderID,
		payment.Outcome,
		payment.Channel,
		payment.ProcessedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record processed payment", zap.String("reference", payment.Reference), zap.Error(err))
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
