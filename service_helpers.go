package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func (s *Service) bookExists(ctx context.Context, bookID string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*Book)(nil)).
		Where("id = ?", bookID).
		Count(ctx)
	if err = dbkit.WithErr1(err, "BookExists").Err(); err != nil {
		return false, err
	}
	return count > 0, nil
}

// activeLoan returns the open loan for a (user, book) pair, or nil.
func (s *Service) activeLoan(ctx context.Context, userID, bookID string) (*Loan, error) {
	var loan Loan
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model(&loan).
			Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
			Limit(1).
			Scan(ctx),
		"GetActiveLoan").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &loan, nil
}

// waitingOrder returns the user's waiting order for a book, or nil.
func (s *Service) waitingOrder(ctx context.Context, userID, bookID string) (*BookOrder, error) {
	var order BookOrder
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model(&order).
			Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, OrderWaiting).
			Limit(1).
			Scan(ctx),
		"GetWaitingOrder").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// findBookByTitle resolves a title to the first catalog match,
// case-insensitively.
func (s *Service) findBookByTitle(ctx context.Context, title string) (*Book, error) {
	var book Book
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model(&book).
			Where("title ILIKE ?", "%"+title+"%").
			Order("title ASC").
			Limit(1).
			Scan(ctx),
		"FindBookByTitle").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "no book matches title")
		}
		return nil, err
	}
	return &book, nil
}

// logEvent appends to the event log. Failures are reported to the caller
// but mutating operations ignore them: a missing event never fails the
// workflow it records.
func (s *Service) logEvent(ctx context.Context, eventType, userID, bookID string, metadata map[string]any) error {
	audit := GetAuditContext(ctx)
	event := &Event{
		EventType: eventType,
		ActorID:   audit.ActorID,
		UserID:    userID,
		BookID:    bookID,
		IPAddress: audit.IPAddress,
		UserAgent: audit.UserAgent,
		RequestID: audit.RequestID,
		Metadata:  metadata,
	}
	_, err := s.db.NewInsert().Model(event).Exec(ctx)
	return dbkit.WithErr1(err, "LogEvent").Err()
}
