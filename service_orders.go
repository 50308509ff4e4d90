package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// WAITING LIST
// ============================================================================
//
// The waiting list never mutates the inventory ledger; it only reads the
// availability count to gate order placement. Promotion of a waiting
// order when a copy frees up is a policy decision left to the caller
// (see WithOrderFulfillmentOnCheckout for the one built-in policy).

// PlaceOrder records a waiting-list entry for an unavailable book,
// resolved by title. Members may only order for themselves; admins and
// librarians may order on behalf of any user.
//
// Fails with NotFound when no book matches the title,
// InvariantViolation when the book still has available copies, and
// Conflict when the user already holds a waiting order for it.
//
// Example:
//
//	order, err := service.PlaceOrder(ctx, memberID, "The Left Hand of Darkness")
func (s *Service) PlaceOrder(ctx context.Context, userID, bookTitle string) (*BookOrder, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role == RoleMember && p.UserID != userID {
		return nil, NewError(ErrForbidden, "members may only order for themselves").
			WithUser(userID).
			WithActor(p.UserID)
	}

	var order *BookOrder
	err = s.Transaction(ctx, func(tx *Service) error {
		var err error
		order, err = tx.placeOrder(ctx, userID, bookTitle)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.logEvent(ctx, EventOrderPlaced, userID, order.BookID, map[string]any{
		"order_id": order.ID,
		"priority": order.Priority,
	})

	return order, nil
}

// placeOrder runs inside a transaction.
func (s *Service) placeOrder(ctx context.Context, userID, bookTitle string) (*BookOrder, error) {
	book, err := s.findBookByTitle(ctx, bookTitle)
	if err != nil {
		return nil, err
	}

	// Ordering is only for unavailable books.
	if book.AvailableCopies > 0 {
		return nil, NewError(ErrInvariantViolation, "book available").
			WithBook(book.ID).
			WithUser(userID)
	}

	existing, err := s.waitingOrder(ctx, userID, book.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewError(ErrConflict, "duplicate order").
			WithBook(book.ID).
			WithUser(userID).
			WithOrder(existing.ID)
	}

	order := &BookOrder{
		UserID:   userID,
		BookID:   book.ID,
		Priority: 1,
		Status:   OrderWaiting,
	}

	result, err := s.db.NewInsert().Model(order).Returning("*").Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateOrder").Err(); err != nil {
		// Partial unique index backstops the pre-check under races.
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "duplicate order").
				WithBook(book.ID).
				WithUser(userID)
		}
		return nil, NewError(ErrDatabaseError, "failed to create order").
			WithBook(book.ID).
			WithUser(userID)
	}

	return order, nil
}

// CancelOrder transitions a user's waiting order to cancelled. Fails
// with NotFound when no waiting order with that id belongs to that
// user. Members may only cancel their own orders.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID string) (*BookOrder, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role == RoleMember && p.UserID != userID {
		return nil, NewError(ErrForbidden, "members may only cancel their own orders").
			WithOrder(orderID).
			WithActor(p.UserID)
	}

	order := new(BookOrder)
	result, err := s.db.NewUpdate().
		Model(order).
		Set("status = ?", OrderCancelled).
		Where("id = ? AND user_id = ? AND status = ?", orderID, userID, OrderWaiting).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "CancelOrder").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to cancel order").
			WithOrder(orderID).
			WithUser(userID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, NewError(ErrNotFound, "order not found").
			WithOrder(orderID).
			WithUser(userID)
	}

	_ = s.logEvent(ctx, EventOrderCancelled, userID, order.BookID, map[string]any{
		"order_id": order.ID,
	})

	return order, nil
}

// PromoteOrder changes the priority of a waiting order. Higher
// priorities are served first. Fails with NotFound when the order does
// not exist or is no longer waiting. Admin or librarian only.
func (s *Service) PromoteOrder(ctx context.Context, orderID string, priority int) (*BookOrder, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}
	if priority < 1 {
		return nil, NewError(ErrInvariantViolation, "priority must be positive").WithOrder(orderID)
	}

	order := new(BookOrder)
	result, err := s.db.NewUpdate().
		Model(order).
		Set("priority = ?", priority).
		Where("id = ? AND status = ?", orderID, OrderWaiting).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "PromoteOrder").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to promote order").WithOrder(orderID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, NewError(ErrNotFound, "order not found").WithOrder(orderID)
	}

	return order, nil
}

// WaitingList returns all waiting orders for a book sorted by priority
// descending, then order date ascending (earlier orders win ties). The
// 1-indexed waiting position of an order is its slice index plus one.
// Admin or librarian only.
func (s *Service) WaitingList(ctx context.Context, bookID string) ([]BookOrder, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}

	var orders []BookOrder
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model(&orders).
			Where("book_id = ? AND status = ?", bookID, OrderWaiting).
			Order("priority DESC", "order_date ASC").
			Scan(ctx),
		"WaitingList").Err()
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// WaitingPosition returns the 1-indexed position of a waiting order in
// its book's waiting list. Fails with NotFound when the order does not
// exist or is no longer waiting. Admin or librarian only.
func (s *Service) WaitingPosition(ctx context.Context, orderID string) (int, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return 0, err
	}

	var order BookOrder
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model(&order).
			Where("id = ? AND status = ?", orderID, OrderWaiting).
			Scan(ctx),
		"GetOrder").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return 0, NewError(ErrNotFound, "order not found").WithOrder(orderID)
		}
		return 0, err
	}

	ahead, err := s.db.NewSelect().
		Model((*BookOrder)(nil)).
		Where("book_id = ? AND status = ?", order.BookID, OrderWaiting).
		Where("(priority > ?) OR (priority = ? AND order_date < ?)",
			order.Priority, order.Priority, order.OrderDate).
		Count(ctx)
	if err = dbkit.WithErr1(err, "WaitingPosition").Err(); err != nil {
		return 0, err
	}

	return ahead + 1, nil
}

// UserOrders returns all orders (any status) owned by a user, newest
// first. Members may only list their own orders.
func (s *Service) UserOrders(ctx context.Context, userID string) ([]BookOrder, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role == RoleMember && p.UserID != userID {
		return nil, NewError(ErrForbidden, "members may only list their own orders").
			WithUser(userID).
			WithActor(p.UserID)
	}

	var orders []BookOrder
	err = dbkit.WithErr1(
		s.db.NewSelect().
			Model(&orders).
			Where("user_id = ?", userID).
			Order("order_date DESC").
			Scan(ctx),
		"UserOrders").Err()
	if err != nil {
		return nil, err
	}
	return orders, nil
}
