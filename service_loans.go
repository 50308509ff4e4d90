package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// LOAN LIFECYCLE
// ============================================================================

// Checkout reserves a copy of a book and opens a loan for the user, as
// one transaction. The due date is the borrow date plus the configured
// loan period.
//
// Fails with Conflict when the pair already holds an active loan (or,
// under the CheckoutBlockedWhileWaiting policy, a waiting order),
// Unavailable when no copies are left and NotFound when the book or the
// borrower does not exist. Admin or librarian only.
//
// Example:
//
//	loan, err := service.Checkout(ctx, memberID, bookID)
func (s *Service) Checkout(ctx context.Context, userID, bookID string) (*Loan, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}

	var loan *Loan
	err := s.Transaction(ctx, func(tx *Service) error {
		var err error
		loan, err = tx.checkout(ctx, userID, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.logEvent(ctx, EventLoanCheckout, userID, bookID, map[string]any{
		"loan_id":  loan.ID,
		"due_date": loan.DueDate,
	})

	return loan, nil
}

// checkout runs inside a transaction.
func (s *Service) checkout(ctx context.Context, userID, bookID string) (*Loan, error) {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
	}

	existing, err := s.activeLoan(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewError(ErrConflict, "active loan exists").
			WithBook(bookID).
			WithUser(userID).
			WithLoan(existing.ID)
	}

	if s.cfg.CheckoutBlockedWhileWaiting {
		order, err := s.waitingOrder(ctx, userID, bookID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return nil, NewError(ErrConflict, "waiting order exists").
				WithBook(bookID).
				WithUser(userID).
				WithOrder(order.ID)
		}
	}

	if err := s.reserveCopy(ctx, bookID); err != nil {
		return nil, err
	}

	borrowDate := s.now()
	loan := &Loan{
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.Add(s.cfg.LoanPeriod),
	}

	result, err := s.db.NewInsert().Model(loan).Returning("*").Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateLoan").Err(); err != nil {
		// The partial unique index backstops the pre-check under races;
		// the rollback also undoes the reservation.
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "active loan exists").
				WithBook(bookID).
				WithUser(userID)
		}
		return nil, NewError(ErrDatabaseError, "failed to create loan").
			WithBook(bookID).
			WithUser(userID)
	}

	if s.cfg.OrderFulfillmentOnCheckout {
		if err := s.fulfilOwnOrder(ctx, userID, bookID); err != nil {
			return nil, err
		}
	}

	return loan, nil
}

// Return closes a loan and releases its copy back to the ledger, as one
// transaction. Fails with NotFound when the loan does not exist and
// Conflict when it was already returned. Admin or librarian only.
func (s *Service) Return(ctx context.Context, loanID string) (*Loan, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}

	var loan *Loan
	err := s.Transaction(ctx, func(tx *Service) error {
		var err error
		loan, err = tx.returnLoan(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.logEvent(ctx, EventLoanReturn, loan.UserID, loan.BookID, map[string]any{
		"loan_id":     loan.ID,
		"return_date": loan.ReturnDate,
	})

	return loan, nil
}

// returnLoan runs inside a transaction.
func (s *Service) returnLoan(ctx context.Context, loanID string) (*Loan, error) {
	loan := new(Loan)
	returnDate := s.now()

	// Conditional close: zero rows means the loan is either missing or
	// already returned, distinguished below.
	result, err := s.db.NewUpdate().
		Model(loan).
		Set("return_date = ?", returnDate).
		Where("id = ? AND return_date IS NULL", loanID).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "CloseLoan").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to close loan").WithLoan(loanID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		err := dbkit.WithErr1(
			s.db.NewSelect().Model(loan).Where("id = ?", loanID).Scan(ctx),
			"GetLoan").Err()
		if err != nil {
			if dbkit.IsNotFound(err) {
				return nil, NewError(ErrNotFound, "loan not found").WithLoan(loanID)
			}
			return nil, err
		}
		return nil, NewError(ErrConflict, "already returned").
			WithLoan(loanID).
			WithBook(loan.BookID).
			WithUser(loan.UserID)
	}

	if err := s.releaseCopy(ctx, loan.BookID); err != nil {
		return nil, err
	}

	return loan, nil
}

// ActiveLoan returns the open loan for a (user, book) pair, or nil when
// the pair has none. Read-only. Admin or librarian only.
func (s *Service) ActiveLoan(ctx context.Context, userID, bookID string) (*Loan, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}
	return s.activeLoan(ctx, userID, bookID)
}

// ListLoans returns loans matching the filter, ordered by id ascending.
// Admin or librarian only.
//
// Example:
//
//	loans, err := service.ListLoans(ctx, loankit.NewLoanFilter().
//	    WithBook(bookID).
//	    WithActiveOnly())
func (s *Service) ListLoans(ctx context.Context, filter LoanFilter) ([]Loan, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}

	var loans []Loan
	q := s.db.NewSelect().Model(&loans)
	if filter.BookID != "" {
		q = q.Where("book_id = ?", filter.BookID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ActiveOnly {
		q = q.Where("return_date IS NULL")
	}
	if !filter.BorrowedSince.IsZero() {
		q = q.Where("borrow_date >= ?", filter.BorrowedSince)
	}
	if !filter.BorrowedUntil.IsZero() {
		q = q.Where("borrow_date <= ?", filter.BorrowedUntil)
	}
	if !filter.DueSince.IsZero() {
		q = q.Where("due_date >= ?", filter.DueSince)
	}
	if !filter.DueUntil.IsZero() {
		q = q.Where("due_date <= ?", filter.DueUntil)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	q = q.Limit(limit)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("id ASC")
	if err := dbkit.WithErr1(q.Scan(ctx), "ListLoans").Err(); err != nil {
		return nil, err
	}
	return loans, nil
}

// fulfilOwnOrder promotes the borrower's own waiting order for a book to
// fulfilled as part of their checkout.
func (s *Service) fulfilOwnOrder(ctx context.Context, userID, bookID string) error {
	result, err := s.db.NewUpdate().
		Model((*BookOrder)(nil)).
		Set("status = ?", OrderFulfilled).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, OrderWaiting).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "FulfilOrder").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to fulfil order").
			WithBook(bookID).
			WithUser(userID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		_ = s.logEvent(ctx, EventOrderFulfilled, userID, bookID, nil)
	}
	return nil
}

