package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// CATALOG
// ============================================================================

// CreateBook adds a catalog entry. A new book starts with all of its
// copies available. Admin or librarian only.
func (s *Service) CreateBook(ctx context.Context, book *Book) (*Book, error) {
	p, err := requireRole(ctx, RoleAdmin, RoleLibrarian)
	if err != nil {
		return nil, err
	}

	if book.Title == "" {
		return nil, NewError(ErrInvariantViolation, "title required")
	}
	if book.TotalCopies < 1 {
		book.TotalCopies = 1
	}
	book.AvailableCopies = book.TotalCopies

	result, err := s.db.NewInsert().Model(book).Returning("*").Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateBook").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to create book")
	}

	_ = s.logEvent(ctx, EventBookCreated, p.UserID, book.ID, map[string]any{
		"title":        book.Title,
		"total_copies": book.TotalCopies,
	})

	return book, nil
}

// GetBook returns a catalog entry by id.
func (s *Service) GetBook(ctx context.Context, bookID string) (*Book, error) {
	var book Book
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&book).Where("id = ?", bookID).Scan(ctx),
		"GetBook").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "book not found").WithBook(bookID)
		}
		return nil, err
	}
	return &book, nil
}

// FindBookByTitle returns the first catalog entry whose title contains
// the given text, case-insensitively.
func (s *Service) FindBookByTitle(ctx context.Context, title string) (*Book, error) {
	return s.findBookByTitle(ctx, title)
}

// ListBooks returns catalog entries matching the filter, ordered by
// title.
func (s *Service) ListBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	var books []Book
	q := s.db.NewSelect().Model(&books)
	if filter.Title != "" {
		q = q.Where("title ILIKE ?", "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		q = q.Where("author ILIKE ?", "%"+filter.Author+"%")
	}
	if filter.Genre != "" {
		q = q.Where("genre = ?", filter.Genre)
	}
	if filter.AvailableOnly {
		q = q.Where("available_copies > 0")
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	q = q.Limit(limit)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("title ASC")
	if err := dbkit.WithErr1(q.Scan(ctx), "ListBooks").Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// SetTotalCopies changes a book's copy count, carrying the delta over to
// available_copies in the same statement so the ledger invariant holds.
// Shrinking below the number of copies currently on loan fails with
// InvariantViolation. Admin or librarian only.
func (s *Service) SetTotalCopies(ctx context.Context, bookID string, totalCopies int) (*Book, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}
	if totalCopies < 1 {
		return nil, NewError(ErrInvariantViolation, "a book needs at least one copy").WithBook(bookID)
	}

	book := new(Book)
	result, err := s.db.NewUpdate().
		Model(book).
		Set("available_copies = available_copies + (? - total_copies)", totalCopies).
		Set("total_copies = ?", totalCopies).
		Set("updated_at = current_timestamp").
		Where("id = ? AND available_copies + (? - total_copies) >= 0", bookID, totalCopies).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "SetTotalCopies").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to update copy count").WithBook(bookID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		exists, err := s.bookExists(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, NewError(ErrNotFound, "book not found").WithBook(bookID)
		}
		return nil, NewError(ErrInvariantViolation, "copies on loan exceed new total").WithBook(bookID)
	}

	return book, nil
}

// UpdateBook changes a book's descriptive fields (title, author, year,
// genre). Copy counts are owned by the ledger and SetTotalCopies.
// Admin or librarian only.
func (s *Service) UpdateBook(ctx context.Context, book *Book) (*Book, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}
	if book.ID == "" {
		return nil, NewError(ErrNotFound, "book id required")
	}

	result, err := s.db.NewUpdate().
		Model(book).
		Column("title", "author", "published_year", "genre").
		Set("updated_at = current_timestamp").
		Where("id = ?", book.ID).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateBook").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to update book").WithBook(book.ID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, NewError(ErrNotFound, "book not found").WithBook(book.ID)
	}

	return book, nil
}

// RemoveBook deletes a catalog entry together with its loans and orders,
// as one transaction: the book aggregate owns both. Admin only.
func (s *Service) RemoveBook(ctx context.Context, bookID string) error {
	p, err := requireRole(ctx, RoleAdmin)
	if err != nil {
		return err
	}

	err = s.Transaction(ctx, func(tx *Service) error {
		if _, err := tx.db.NewDelete().
			Model((*BookOrder)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx); err != nil {
			return dbkit.WithErr1(err, "RemoveBookOrders").Err()
		}
		if _, err := tx.db.NewDelete().
			Model((*Loan)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx); err != nil {
			return dbkit.WithErr1(err, "RemoveBookLoans").Err()
		}

		result, err := tx.db.NewDelete().
			Model((*Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		if err = dbkit.WithErr(result, err, "RemoveBook").Err(); err != nil {
			return NewError(ErrDatabaseError, "failed to remove book").WithBook(bookID)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return NewError(ErrNotFound, "book not found").WithBook(bookID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.logEvent(ctx, EventBookRemoved, p.UserID, bookID, nil)

	return nil
}
