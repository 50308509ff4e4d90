package loankit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// DefaultLoanPeriod is how long a checkout lasts unless configured
// otherwise. The period is always a configuration value; workflow code
// never hardcodes it.
const DefaultLoanPeriod = 30 * 24 * time.Hour

// Config holds the policy knobs of the loan workflow.
type Config struct {
	// LoanPeriod is added to the borrow date to produce the due date.
	LoanPeriod time.Duration

	// CheckoutBlockedWhileWaiting rejects a checkout with Conflict when
	// the borrower already holds a waiting order for the same book.
	CheckoutBlockedWhileWaiting bool

	// OrderFulfillmentOnCheckout marks the borrower's own waiting order
	// for a book as fulfilled when they check that book out. Automatic
	// promotion of other users' orders is intentionally not performed.
	OrderFulfillmentOnCheckout bool
}

// Option configures the Service.
type Option func(*Config)

// WithLoanPeriod sets the loan period used to compute due dates.
func WithLoanPeriod(period time.Duration) Option {
	return func(c *Config) {
		if period > 0 {
			c.LoanPeriod = period
		}
	}
}

// WithCheckoutBlockedWhileWaiting makes a borrower's waiting order for a
// book block their checkout of that same book.
func WithCheckoutBlockedWhileWaiting(block bool) Option {
	return func(c *Config) {
		c.CheckoutBlockedWhileWaiting = block
	}
}

// WithOrderFulfillmentOnCheckout makes a successful checkout fulfil the
// borrower's own waiting order for the book, in the same transaction.
func WithOrderFulfillmentOnCheckout(fulfil bool) Option {
	return func(c *Config) {
		c.OrderFulfillmentOnCheckout = fulfil
	}
}

// Service provides the loan and inventory workflow on top of a dbkit
// database connection.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping; failures
// surface as one of the package's sentinel kinds, with entity context
// reachable through errors.As and *Error.
//
// Example:
//
//	loan, err := service.Checkout(ctx, userID, bookID)
//	if err != nil {
//	    switch {
//	    case loankit.IsConflict(err):
//	        // the pair already holds an active loan
//	    case loankit.IsUnavailable(err):
//	        // no copies left, suggest placing an order
//	    }
//	}
type Service struct {
	db        dbkit.IDB
	cfg       Config
	txMonitor *transactionMonitor

	// now is the clock, swappable in tests.
	now func() time.Time
}

// NewService creates a new LoanKit service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := loankit.NewService(db, loankit.WithLoanPeriod(14*24*time.Hour))
func NewService(db dbkit.IDB, opts ...Option) *Service {
	cfg := Config{LoanPeriod: DefaultLoanPeriod}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{
		db:        db,
		cfg:       cfg,
		txMonitor: newTransactionMonitor(),
		now:       time.Now,
	}
}

// Config returns the effective service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// withDB returns a Service bound to the given handle, sharing the
// configuration and monitor. Used to run operations on a transaction.
func (s *Service) withDB(db dbkit.IDB) *Service {
	return &Service{
		db:        db,
		cfg:       s.cfg,
		txMonitor: s.txMonitor,
		now:       s.now,
	}
}

// ============================================================================
// EVENT LOG
// ============================================================================

// GetEvents retrieves event log entries with optional filters.
// Admin only.
func (s *Service) GetEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	if _, err := requireRole(ctx, RoleAdmin); err != nil {
		return nil, err
	}

	var events []Event
	q := s.db.NewSelect().Model(&events)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.BookID != "" {
		q = q.Where("book_id = ?", filter.BookID)
	}
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetEvents").Err()
	if err != nil {
		return nil, err
	}

	return events, nil
}
