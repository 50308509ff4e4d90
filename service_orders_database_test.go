package loankit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exhaustBook checks out every copy of a book so that orders can be placed.
func exhaustBook(t *testing.T, helper *TestDataHelper, book *Book) {
	t.Helper()

	ctx := helper.LibrarianContext("orders-librarian")
	for i := 0; i < book.TotalCopies; i++ {
		borrower := helper.CreateTestUser("orders-borrower")
		_, err := helper.GetService().Checkout(ctx, borrower.ID, book.ID)
		require.NoError(t, err)
	}
	helper.AssertAvailable(book.ID, 0)
}

// TestPlaceOrder tests ordering an unavailable book by title
func TestPlaceOrder(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("place-order", 1)
	exhaustBook(t, helper, book)
	user := helper.CreateTestUser("place-order-user")

	order, err := service.PlaceOrder(helper.MemberContext(user.ID), user.ID, book.Title)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, book.ID, order.BookID)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, OrderWaiting, order.Status)
	assert.Equal(t, 1, order.Priority)
	assert.False(t, order.OrderDate.IsZero())
}

// TestPlaceOrderBookAvailable tests that available books cannot be ordered
func TestPlaceOrderBookAvailable(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("order-available", 2)
	user := helper.CreateTestUser("order-available-user")

	_, err := service.PlaceOrder(helper.MemberContext(user.ID), user.ID, book.Title)
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
}

// TestPlaceOrderBookNotFound tests ordering a title that matches nothing
func TestPlaceOrderBookNotFound(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	user := helper.CreateTestUser("order-nobook-user")

	_, err := helper.GetService().PlaceOrder(helper.MemberContext(user.ID),
		user.ID, "no such title anywhere")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// TestPlaceOrderDuplicate tests the one-waiting-order-per-pair rule
func TestPlaceOrderDuplicate(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("order-dup", 1)
	exhaustBook(t, helper, book)
	user := helper.CreateTestUser("order-dup-user")
	ctx := helper.MemberContext(user.ID)

	_, err := service.PlaceOrder(ctx, user.ID, book.Title)
	require.NoError(t, err)

	_, err = service.PlaceOrder(ctx, user.ID, book.Title)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

// TestPlaceOrderForOtherUser tests the self-only rule for members and
// the on-behalf-of path for staff
func TestPlaceOrderForOtherUser(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("order-behalf", 1)
	exhaustBook(t, helper, book)
	owner := helper.CreateTestUser("order-owner")
	other := helper.CreateTestUser("order-other")

	_, err := service.PlaceOrder(helper.MemberContext(other.ID), owner.ID, book.Title)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))

	order, err := service.PlaceOrder(helper.LibrarianContext("orders-librarian"),
		owner.ID, book.Title)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, order.UserID)
}

// TestCancelOrder tests the waiting to cancelled transition
func TestCancelOrder(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("cancel-order", 1)
	exhaustBook(t, helper, book)
	user := helper.CreateTestUser("cancel-order-user")
	ctx := helper.MemberContext(user.ID)

	order, err := service.PlaceOrder(ctx, user.ID, book.Title)
	require.NoError(t, err)

	cancelled, err := service.CancelOrder(ctx, order.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderCancelled, cancelled.Status)

	// Cancelling again finds no waiting order.
	_, err = service.CancelOrder(ctx, order.ID, user.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	// A cancelled order frees the pair for a new one.
	_, err = service.PlaceOrder(ctx, user.ID, book.Title)
	require.NoError(t, err)
}

// TestCancelOrderOwnership tests that a member cannot cancel another
// user's order
func TestCancelOrderOwnership(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("cancel-owner", 1)
	exhaustBook(t, helper, book)
	owner := helper.CreateTestUser("cancel-owner-user")
	intruder := helper.CreateTestUser("cancel-intruder")

	order, err := service.PlaceOrder(helper.MemberContext(owner.ID), owner.ID, book.Title)
	require.NoError(t, err)

	// Acting as another member is rejected outright.
	_, err = service.CancelOrder(helper.MemberContext(intruder.ID), order.ID, owner.ID)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))

	// Claiming someone else's order as your own finds nothing.
	_, err = service.CancelOrder(helper.MemberContext(intruder.ID), order.ID, intruder.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	// The order is untouched.
	orders, err := service.UserOrders(helper.MemberContext(owner.ID), owner.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, OrderWaiting, orders[0].Status)
}

// TestWaitingListOrdering tests priority-then-time ordering: priorities
// are served high to low, equal priorities first come first served
func TestWaitingListOrdering(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	staffCtx := helper.LibrarianContext("orders-librarian")

	book := helper.CreateTestBook("waiting-ordering", 1)
	exhaustBook(t, helper, book)

	alice := helper.CreateTestUser("waiting-alice")
	bob := helper.CreateTestUser("waiting-bob")
	carol := helper.CreateTestUser("waiting-carol")

	aliceOrder, err := service.PlaceOrder(staffCtx, alice.ID, book.Title)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	bobOrder, err := service.PlaceOrder(staffCtx, bob.ID, book.Title)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	carolOrder, err := service.PlaceOrder(staffCtx, carol.ID, book.Title)
	require.NoError(t, err)

	// All at priority 1: earliest order first.
	list, err := service.WaitingList(staffCtx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, aliceOrder.ID, list[0].ID)
	assert.Equal(t, bobOrder.ID, list[1].ID)
	assert.Equal(t, carolOrder.ID, list[2].ID)

	// Promote bob and carol: higher priority jumps the queue, and among
	// the promoted the earlier order still wins.
	_, err = service.PromoteOrder(staffCtx, bobOrder.ID, 5)
	require.NoError(t, err)
	_, err = service.PromoteOrder(staffCtx, carolOrder.ID, 5)
	require.NoError(t, err)

	list, err = service.WaitingList(staffCtx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, bobOrder.ID, list[0].ID)
	assert.Equal(t, carolOrder.ID, list[1].ID)
	assert.Equal(t, aliceOrder.ID, list[2].ID)

	// Positions agree with the list.
	pos, err := service.WaitingPosition(staffCtx, bobOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	pos, err = service.WaitingPosition(staffCtx, carolOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	pos, err = service.WaitingPosition(staffCtx, aliceOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

// TestWaitingListExcludesClosedOrders tests that cancelled and fulfilled
// orders leave the queue
func TestWaitingListExcludesClosedOrders(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	staffCtx := helper.LibrarianContext("orders-librarian")

	book := helper.CreateTestBook("waiting-closed", 1)
	exhaustBook(t, helper, book)

	alice := helper.CreateTestUser("closed-alice")
	bob := helper.CreateTestUser("closed-bob")

	aliceOrder, err := service.PlaceOrder(staffCtx, alice.ID, book.Title)
	require.NoError(t, err)
	bobOrder, err := service.PlaceOrder(staffCtx, bob.ID, book.Title)
	require.NoError(t, err)

	_, err = service.CancelOrder(staffCtx, aliceOrder.ID, alice.ID)
	require.NoError(t, err)

	list, err := service.WaitingList(staffCtx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bobOrder.ID, list[0].ID)

	_, err = service.WaitingPosition(staffCtx, aliceOrder.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// TestPromoteOrderValidation tests priority bounds and the staff gate
func TestPromoteOrderValidation(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	staffCtx := helper.LibrarianContext("orders-librarian")

	book := helper.CreateTestBook("promote", 1)
	exhaustBook(t, helper, book)
	user := helper.CreateTestUser("promote-user")

	order, err := service.PlaceOrder(staffCtx, user.ID, book.Title)
	require.NoError(t, err)

	_, err = service.PromoteOrder(staffCtx, order.ID, 0)
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))

	_, err = service.PromoteOrder(helper.MemberContext(user.ID), order.ID, 5)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))

	promoted, err := service.PromoteOrder(staffCtx, order.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, promoted.Priority)
}

// TestUserOrders tests the per-user order listing and its self-only rule
func TestUserOrders(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	staffCtx := helper.LibrarianContext("orders-librarian")

	first := helper.CreateTestBook("user-orders-a", 1)
	second := helper.CreateTestBook("user-orders-b", 1)
	exhaustBook(t, helper, first)
	exhaustBook(t, helper, second)

	user := helper.CreateTestUser("user-orders-user")
	other := helper.CreateTestUser("user-orders-other")

	_, err := service.PlaceOrder(staffCtx, user.ID, first.Title)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	latest, err := service.PlaceOrder(staffCtx, user.ID, second.Title)
	require.NoError(t, err)

	orders, err := service.UserOrders(helper.MemberContext(user.ID), user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, latest.ID, orders[0].ID) // newest first

	_, err = service.UserOrders(helper.MemberContext(other.ID), user.ID)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
}

// TestOrderFulfillmentOnCheckout tests the opt-in policy that a checkout
// fulfils the borrower's own waiting order
func TestOrderFulfillmentOnCheckout(t *testing.T) {
	helper := NewTestDataHelper(t, WithOrderFulfillmentOnCheckout(true))
	if helper == nil {
		return
	}

	service := helper.GetService()
	staffCtx := helper.LibrarianContext("orders-librarian")

	book := helper.CreateTestBook("fulfil-on-checkout", 1)
	user := helper.CreateTestUser("fulfil-user")

	blocker, err := service.Checkout(staffCtx, helper.CreateTestUser("fulfil-blocker").ID, book.ID)
	require.NoError(t, err)

	order, err := service.PlaceOrder(staffCtx, user.ID, book.Title)
	require.NoError(t, err)

	_, err = service.Return(staffCtx, blocker.ID)
	require.NoError(t, err)

	_, err = service.Checkout(staffCtx, user.ID, book.ID)
	require.NoError(t, err)

	orders, err := service.UserOrders(staffCtx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, OrderFulfilled, orders[0].Status)
}

// TestCheckoutBlockedWhileWaiting tests the opt-in policy that a waiting
// order blocks the same pair's checkout
func TestCheckoutBlockedWhileWaiting(t *testing.T) {
	helper := NewTestDataHelper(t, WithCheckoutBlockedWhileWaiting(true))
	if helper == nil {
		return
	}

	service := helper.GetService()
	staffCtx := helper.LibrarianContext("orders-librarian")

	book := helper.CreateTestBook("blocked-waiting", 1)
	user := helper.CreateTestUser("blocked-user")

	blocker, err := service.Checkout(staffCtx, helper.CreateTestUser("blocked-blocker").ID, book.ID)
	require.NoError(t, err)

	order, err := service.PlaceOrder(staffCtx, user.ID, book.Title)
	require.NoError(t, err)

	_, err = service.Return(staffCtx, blocker.ID)
	require.NoError(t, err)

	_, err = service.Checkout(staffCtx, user.ID, book.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// Cancelling the order unblocks the checkout.
	_, err = service.CancelOrder(staffCtx, order.ID, user.ID)
	require.NoError(t, err)

	_, err = service.Checkout(staffCtx, user.ID, book.ID)
	require.NoError(t, err)
}
