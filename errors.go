package loankit

import (
	"errors"
	"fmt"
)

// Sentinel errors for LoanKit operations.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("loankit: not found")

	// ErrConflict is returned when a state-machine precondition is violated,
	// such as a duplicate active loan, a duplicate waiting order, or a
	// return of an already-returned loan.
	ErrConflict = errors.New("loankit: conflict")

	// ErrUnavailable is returned when a book has no copies left to reserve.
	ErrUnavailable = errors.New("loankit: no copies available")

	// ErrInvariantViolation is returned when an operation would break a data
	// invariant, e.g. releasing a copy beyond total_copies or ordering a
	// book that is available for checkout.
	ErrInvariantViolation = errors.New("loankit: invariant violation")

	// ErrForbidden is returned when the principal's role does not admit the
	// operation.
	ErrForbidden = errors.New("loankit: forbidden")

	// ErrNoPrincipal is returned when no principal is found in the context.
	ErrNoPrincipal = errors.New("loankit: no principal in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("loankit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error  // Underlying sentinel error
	Message string // Additional context
	BookID  string // Book involved (if applicable)
	LoanID  string // Loan involved (if applicable)
	OrderID string // Order involved (if applicable)
	UserID  string // User involved (if applicable)
	ActorID string // Principal who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithBook adds book information to the error.
func (e *Error) WithBook(bookID string) *Error {
	e.BookID = bookID
	return e
}

// WithLoan adds loan information to the error.
func (e *Error) WithLoan(loanID string) *Error {
	e.LoanID = loanID
	return e
}

// WithOrder adds order information to the error.
func (e *Error) WithOrder(orderID string) *Error {
	e.OrderID = orderID
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsNotFound checks if an error reports a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error reports a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnavailable checks if an error reports an exhausted copy count.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsInvariantViolation checks if an error reports a broken data invariant.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsForbidden checks if an error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
