package loankit

import (
	"time"

	"github.com/uptrace/bun"
)

// Book is a catalog entry. available_copies is owned exclusively by the
// inventory ledger and always equals total_copies minus the number of
// active loans on the book.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Title           string    `bun:"title,notnull"`
	Author          string    `bun:"author,notnull"`
	PublishedYear   int       `bun:"published_year"`
	Genre           string    `bun:"genre"`
	TotalCopies     int       `bun:"total_copies,notnull,default:1"`
	AvailableCopies int       `bun:"available_copies,notnull,default:1"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Loan records which user borrowed which book and when.
type Loan struct {
	bun.BaseModel `bun:"table:loans,alias:l"`

	ID         string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	BookID     string     `bun:"book_id,notnull,type:uuid"`
	UserID     string     `bun:"user_id,notnull,type:uuid"`
	BorrowDate time.Time  `bun:"borrow_date,notnull"`
	DueDate    time.Time  `bun:"due_date,notnull"`
	ReturnDate *time.Time `bun:"return_date"`
}

// Active reports whether the loan is still open (no return date).
func (l *Loan) Active() bool {
	return l.ReturnDate == nil
}

// Overdue reports whether the loan is open and past its due date.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Active() && now.After(l.DueDate)
}

// OrderStatus is the lifecycle state of a waiting-list entry.
type OrderStatus string

const (
	OrderWaiting   OrderStatus = "waiting"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the defined values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderWaiting, OrderFulfilled, OrderCancelled:
		return true
	}
	return false
}

// BookOrder is a waiting-list entry for an unavailable book. A user
// holds at most one waiting order per book.
type BookOrder struct {
	bun.BaseModel `bun:"table:book_orders,alias:bo"`

	ID        string      `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    string      `bun:"user_id,notnull,type:uuid"`
	BookID    string      `bun:"book_id,notnull,type:uuid"`
	OrderDate time.Time   `bun:"order_date,notnull,default:current_timestamp"`
	Priority  int         `bun:"priority,notnull,default:1"`
	Status    OrderStatus `bun:"status,notnull,default:'waiting'"`

	// Channel to notify on when a copy frees up; fulfilment itself is a
	// policy decision outside this package.
	NotifyWhenAvailable string `bun:"notify_when_available,default:'email'"`
}

// Waiting reports whether the order is still in the waiting list.
func (o *BookOrder) Waiting() bool {
	return o.Status == OrderWaiting
}

// User is a library account. Credentials, hashing and token issuance
// live outside this package; only identity and role are kept here.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email     string    `bun:"email,notnull,unique"`
	FullName  string    `bun:"full_name,notnull"`
	Role      Role      `bun:"role,notnull,default:'member'"`
	Active    bool      `bun:"active,notnull,default:true"`
	JoinedAt  time.Time `bun:"joined_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Event is an append-only record of a state change: who did what, to
// which entity, with request metadata for forensics.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// What happened, e.g. "loan.checkout", "order.cancelled".
	EventType string `bun:"event_type,notnull"`

	// Who performed the action.
	ActorID string `bun:"actor_id"`

	// Primary entities involved.
	UserID string `bun:"user_id"`
	BookID string `bun:"book_id"`

	// Request metadata for forensics.
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	// Additional context (JSON).
	Metadata map[string]any `bun:"metadata,type:jsonb"`
}

// Event types recorded by the service.
const (
	EventLoanCheckout   = "loan.checkout"
	EventLoanReturn     = "loan.return"
	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
	EventOrderFulfilled = "order.fulfilled"
	EventBookCreated    = "book.created"
	EventBookRemoved    = "book.removed"
	EventUserRegistered = "user.registered"
	EventUserUpdated    = "user.updated"
)

// LibraryOverview is the management dashboard aggregate.
type LibraryOverview struct {
	TotalBooks      int `json:"total_books"`      // distinct catalog entries
	TotalCopies     int `json:"total_copies"`     // sum of total_copies
	AvailableCopies int `json:"available_copies"` // sum of available_copies
	ActiveUsers     int `json:"active_users"`
	ActiveLoans     int `json:"active_loans"`
	OverdueLoans    int `json:"overdue_loans"`
	WaitingOrders   int `json:"waiting_orders"`
}
