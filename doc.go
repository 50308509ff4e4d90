// Package loankit implements the loan and inventory core of a library
// management backend: copy accounting per book, the checkout/return
// lifecycle, waiting-list orders for unavailable books, and the
// role-based authorization gate every mutating operation passes through.
//
// # Core Concepts
//
// Book: a catalog entry carrying total_copies and available_copies.
// available_copies is owned exclusively by the inventory ledger and is
// always total_copies minus the number of loans with no return date.
//
// Loan: which user borrowed which book and when. A (book, user) pair
// holds at most one active loan (return date unset) at any time.
//
// BookOrder: a waiting-list entry for a book with no available copies.
// Orders are served by priority (higher first) and then by order date.
//
// Principal: an authenticated identity plus its role (admin, librarian
// or member), resolved by the caller and carried in the context.
//
// # Key Features
//
//   - Atomic copy accounting: reservations and releases are single
//     conditional statements, so two concurrent checkouts can never
//     over-allocate the last copy
//   - Transactional workflows: a reservation and its loan record commit
//     together or not at all
//   - Constraint-backed invariants: active-loan and waiting-order
//     uniqueness are enforced by partial unique indexes, not just
//     read-then-write checks
//   - Closed role set: authorization is set membership over a typed
//     role, never string comparison
//   - Detailed event log: every checkout, return, order and user change
//     is recorded with actor and request metadata
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	// 1. Connect and migrate (at application startup)
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := loankit.NewService(db,
//	    loankit.WithLoanPeriod(21*24*time.Hour),
//	)
//	db.Migrate(ctx, service.Migrations())
//
//	// 2. Carry the principal in the context
//	ctx = loankit.WithPrincipal(ctx, loankit.Principal{
//	    UserID: librarianID,
//	    Role:   loankit.RoleLibrarian,
//	})
//
//	// 3. Drive the loan workflow
//	loan, err := service.Checkout(ctx, memberID, bookID)
//	if loankit.IsUnavailable(err) {
//	    // no copies left, the member can place an order instead
//	}
//
//	order, err := service.PlaceOrder(memberCtx, memberID, "The Go Programming Language")
//
//	returned, err := service.Return(ctx, loan.ID)
//
// # Middleware Usage
//
//	mw := loankit.NewMiddleware(service)
//
//	router.With(mw.RequireRole(loankit.RoleAdmin, loankit.RoleLibrarian)).
//	    Post("/loans", checkoutHandler)
//
//	router.With(mw.RequirePrincipal()).
//	    Post("/orders", placeOrderHandler)
//
// # Error Handling
//
// Every failure is one of a small set of sentinel kinds: ErrNotFound,
// ErrConflict (a state-machine precondition such as a duplicate active
// loan), ErrUnavailable (no copies to reserve), ErrInvariantViolation
// (the operation would break a data invariant), ErrForbidden. Use the
// IsX helpers or errors.Is to classify, and errors.As with *Error to
// reach the book/user/loan context attached to the failure. Nothing is
// retried internally; a conflicting concurrent writer fails its
// transaction and the caller decides what to do.
package loankit
