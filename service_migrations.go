package loankit

import (
	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an extension to Service
type MigrationService struct {
	*Service
}

// NewMigrationService creates a new migration service extension
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// Migrations returns all database migrations required for LoanKit.
// Use dbkit.Migrate(ctx, service.Migrations()) to run migrations.
//
// The partial unique indexes are load-bearing: they enforce the
// one-active-loan-per-(book, user) and one-waiting-order-per-(user, book)
// invariants at the transaction boundary, backstopping the in-code
// pre-checks under concurrent writers.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "loankit-001",
			Description: "Create books table",
			SQL: `
                CREATE TABLE IF NOT EXISTS books (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    title TEXT NOT NULL,
                    author TEXT NOT NULL,
                    published_year INTEGER,
                    genre TEXT,
                    total_copies INTEGER NOT NULL DEFAULT 1 CHECK (total_copies >= 1),
                    available_copies INTEGER NOT NULL DEFAULT 1
                        CHECK (available_copies >= 0 AND available_copies <= total_copies),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "loankit-002",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    email TEXT NOT NULL UNIQUE,
                    full_name TEXT NOT NULL,
                    role TEXT NOT NULL DEFAULT 'member',
                    active BOOLEAN NOT NULL DEFAULT TRUE,
                    joined_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "loankit-003",
			Description: "Create loans table with active-loan uniqueness",
			SQL: `
                CREATE TABLE IF NOT EXISTS loans (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    book_id UUID NOT NULL REFERENCES books (id) ON DELETE CASCADE,
                    user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
                    borrow_date TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    due_date TIMESTAMPTZ NOT NULL,
                    return_date TIMESTAMPTZ
                );
                CREATE UNIQUE INDEX IF NOT EXISTS loans_one_active_per_pair
                    ON loans (book_id, user_id) WHERE return_date IS NULL;
                CREATE INDEX IF NOT EXISTS loans_book_idx ON loans (book_id);
                CREATE INDEX IF NOT EXISTS loans_user_idx ON loans (user_id)`,
		},
		{
			ID:          "loankit-004",
			Description: "Create book_orders table with waiting-order uniqueness",
			SQL: `
                CREATE TABLE IF NOT EXISTS book_orders (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
                    book_id UUID NOT NULL REFERENCES books (id) ON DELETE CASCADE,
                    order_date TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    priority INTEGER NOT NULL DEFAULT 1,
                    status TEXT NOT NULL DEFAULT 'waiting',
                    notify_when_available TEXT DEFAULT 'email'
                );
                CREATE UNIQUE INDEX IF NOT EXISTS book_orders_one_waiting_per_pair
                    ON book_orders (user_id, book_id) WHERE status = 'waiting';
                CREATE INDEX IF NOT EXISTS book_orders_book_idx ON book_orders (book_id)`,
		},
		{
			ID:          "loankit-005",
			Description: "Create events table",
			SQL: `
                CREATE TABLE IF NOT EXISTS events (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    event_type TEXT NOT NULL,
                    actor_id TEXT,
                    user_id TEXT,
                    book_id TEXT,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                );
                CREATE INDEX IF NOT EXISTS events_type_idx ON events (event_type)`,
		},
	}
}
