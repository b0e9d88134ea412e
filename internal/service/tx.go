package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const maxTxRetries = 3

// inTx runs fn in a transaction, retrying a bounded number of times when the
// database reports a lost race (serialization failure or deadlock). Retries
// exhausting surfaces as ErrServiceUnavailable, never as partial state.
func (s *bookingService) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(fn)
		if !isRetryableTxError(err) {
			return err
		}
		log.Printf("[BookingService] transaction lost a race (attempt %d/%d): %v", attempt, maxTxRetries, err)
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
