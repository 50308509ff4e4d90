package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// Identity is the external collaborator that resolves credentials to a
// principal. Token formats, hashing and refresh are its concern, not
// this package's; LoanKit only consumes the resulting Principal.
type Identity interface {
	Authenticate(ctx context.Context, credential string) (Principal, error)
}

// InventoryLedger is the availability bookkeeping surface. The Service
// is its only implementation; the interface exists for consumers that
// want to depend on the read side alone.
type InventoryLedger interface {
	AvailableCopies(ctx context.Context, bookID string) (int, error)
}

// LoanManager drives the checkout/return lifecycle.
type LoanManager interface {
	Checkout(ctx context.Context, userID, bookID string) (*Loan, error)
	Return(ctx context.Context, loanID string) (*Loan, error)
	ActiveLoan(ctx context.Context, userID, bookID string) (*Loan, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]Loan, error)
}

// WaitingListCoordinator manages orders for unavailable books.
type WaitingListCoordinator interface {
	PlaceOrder(ctx context.Context, userID, bookTitle string) (*BookOrder, error)
	CancelOrder(ctx context.Context, orderID, userID string) (*BookOrder, error)
	WaitingList(ctx context.Context, bookID string) ([]BookOrder, error)
	UserOrders(ctx context.Context, userID string) ([]BookOrder, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(tx *Service) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
}
