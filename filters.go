package loankit

import "time"

// LoanFilter provides options for filtering loan queries.
type LoanFilter struct {
	// Filter by book
	BookID string

	// Filter by borrower
	UserID string

	// Only loans with no return date
	ActiveOnly bool

	// Filter by borrow date range
	BorrowedSince time.Time
	BorrowedUntil time.Time

	// Filter by due date range
	DueSince time.Time
	DueUntil time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewLoanFilter creates a new LoanFilter with default values.
func NewLoanFilter() LoanFilter {
	return LoanFilter{
		Limit: 100,
	}
}

// WithBook sets the book filter.
func (f LoanFilter) WithBook(bookID string) LoanFilter {
	f.BookID = bookID
	return f
}

// WithUser sets the borrower filter.
func (f LoanFilter) WithUser(userID string) LoanFilter {
	f.UserID = userID
	return f
}

// WithActiveOnly restricts results to loans with no return date.
func (f LoanFilter) WithActiveOnly() LoanFilter {
	f.ActiveOnly = true
	return f
}

// WithBorrowedRange sets the borrow date range filter.
func (f LoanFilter) WithBorrowedRange(since, until time.Time) LoanFilter {
	f.BorrowedSince = since
	f.BorrowedUntil = until
	return f
}

// WithDueRange sets the due date range filter.
func (f LoanFilter) WithDueRange(since, until time.Time) LoanFilter {
	f.DueSince = since
	f.DueUntil = until
	return f
}

// WithPagination sets both limit and offset.
func (f LoanFilter) WithPagination(limit, offset int) LoanFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// EventFilter provides options for filtering event log queries.
type EventFilter struct {
	// Filter by actor who performed the action
	ActorID string

	// Filter by affected user
	UserID string

	// Filter by affected book
	BookID string

	// Filter by event type ("loan.checkout", "order.placed", ...)
	EventType string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewEventFilter creates a new EventFilter with default values.
func NewEventFilter() EventFilter {
	return EventFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f EventFilter) WithActor(actorID string) EventFilter {
	f.ActorID = actorID
	return f
}

// WithUser sets the affected-user filter.
func (f EventFilter) WithUser(userID string) EventFilter {
	f.UserID = userID
	return f
}

// WithBook sets the affected-book filter.
func (f EventFilter) WithBook(bookID string) EventFilter {
	f.BookID = bookID
	return f
}

// WithType sets the event type filter.
func (f EventFilter) WithType(eventType string) EventFilter {
	f.EventType = eventType
	return f
}

// WithTimeRange sets the time range filter.
func (f EventFilter) WithTimeRange(since, until time.Time) EventFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f EventFilter) WithPagination(limit, offset int) EventFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// BookFilter provides options for filtering catalog queries.
type BookFilter struct {
	// Case-insensitive substring match on the title
	Title string

	// Case-insensitive substring match on the author
	Author string

	// Filter by genre (exact)
	Genre string

	// Only books with at least one available copy
	AvailableOnly bool

	// Pagination
	Limit  int
	Offset int
}

// NewBookFilter creates a new BookFilter with default values.
func NewBookFilter() BookFilter {
	return BookFilter{
		Limit: 100,
	}
}

// WithTitle sets the title filter.
func (f BookFilter) WithTitle(title string) BookFilter {
	f.Title = title
	return f
}

// WithAuthor sets the author filter.
func (f BookFilter) WithAuthor(author string) BookFilter {
	f.Author = author
	return f
}

// WithGenre sets the genre filter.
func (f BookFilter) WithGenre(genre string) BookFilter {
	f.Genre = genre
	return f
}

// WithAvailableOnly restricts results to books with available copies.
func (f BookFilter) WithAvailableOnly() BookFilter {
	f.AvailableOnly = true
	return f
}

// WithPagination sets both limit and offset.
func (f BookFilter) WithPagination(limit, offset int) BookFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
