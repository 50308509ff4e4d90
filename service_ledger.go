package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// INVENTORY LEDGER
// ============================================================================
//
// The ledger is the only writer of books.available_copies. Both mutations
// are single conditional UPDATE statements, so a read-check-write race
// between concurrent callers cannot over-allocate the last copy or push
// the count past total_copies.

// AvailableCopies returns the number of copies of a book not currently
// on an active loan.
func (s *Service) AvailableCopies(ctx context.Context, bookID string) (int, error) {
	var available int
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model((*Book)(nil)).
			Column("available_copies").
			Where("id = ?", bookID).
			Scan(ctx, &available),
		"AvailableCopies").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return 0, NewError(ErrNotFound, "book not found").WithBook(bookID)
		}
		return 0, err
	}
	return available, nil
}

// reserveCopy decrements available_copies by one, only while the count
// is positive. Fails with Unavailable when no copies are left and with
// NotFound when the book does not exist.
func (s *Service) reserveCopy(ctx context.Context, bookID string) error {
	result, err := s.db.NewUpdate().
		Model((*Book)(nil)).
		Set("available_copies = available_copies - 1").
		Set("updated_at = current_timestamp").
		Where("id = ? AND available_copies > 0", bookID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "ReserveCopy").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to reserve copy").WithBook(bookID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		exists, err := s.bookExists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return NewError(ErrNotFound, "book not found").WithBook(bookID)
		}
		return NewError(ErrUnavailable, "no copies available").WithBook(bookID)
	}
	return nil
}

// releaseCopy increments available_copies by one, bounded above by
// total_copies. A release with no matching prior reservation is a caller
// bug and fails with InvariantViolation.
func (s *Service) releaseCopy(ctx context.Context, bookID string) error {
	result, err := s.db.NewUpdate().
		Model((*Book)(nil)).
		Set("available_copies = available_copies + 1").
		Set("updated_at = current_timestamp").
		Where("id = ? AND available_copies < total_copies", bookID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "ReleaseCopy").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to release copy").WithBook(bookID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		exists, err := s.bookExists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return NewError(ErrNotFound, "book not found").WithBook(bookID)
		}
		return NewError(ErrInvariantViolation, "release without matching reservation").WithBook(bookID)
	}
	return nil
}
