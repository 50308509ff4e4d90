package loankit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateBook tests catalog creation
func TestCreateBook(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	ctx := helper.LibrarianContext("books-librarian")

	book, err := service.CreateBook(ctx, &Book{
		Title:         fmt.Sprintf("create-book-%d", time.Now().UnixNano()),
		Author:        "Ursula K. Le Guin",
		PublishedYear: 1969,
		Genre:         "science fiction",
		TotalCopies:   4,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies) // all copies start available
	assert.False(t, book.CreatedAt.IsZero())
}

// TestCreateBookValidation tests title and copy-count handling
func TestCreateBookValidation(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	ctx := helper.AdminContext("books-admin")

	_, err := service.CreateBook(ctx, &Book{Author: "No Title"})
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))

	// Zero or negative copy counts fall back to one.
	book, err := service.CreateBook(ctx, &Book{
		Title:  fmt.Sprintf("create-zero-%d", time.Now().UnixNano()),
		Author: "Anonymous",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, book.TotalCopies)
	assert.Equal(t, 1, book.AvailableCopies)

	// Members may not touch the catalog.
	_, err = service.CreateBook(helper.MemberContext("books-member"), &Book{
		Title:  "forbidden",
		Author: "Member",
	})
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
}

// TestFindBookByTitle tests the case-insensitive title lookup
func TestFindBookByTitle(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()

	book := helper.CreateTestBook("Find-Title", 1)

	found, err := service.FindBookByTitle(helper.GetContext(), book.Title)
	require.NoError(t, err)
	assert.Equal(t, book.ID, found.ID)

	// Case-insensitive substring match.
	found, err = service.FindBookByTitle(helper.GetContext(), strings.ToLower(book.Title))
	require.NoError(t, err)
	assert.Equal(t, book.ID, found.ID)

	_, err = service.FindBookByTitle(helper.GetContext(), "title that matches nothing at all")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// TestListBooks tests the catalog filters
func TestListBooks(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	ctx := helper.AdminContext("books-admin")

	marker := fmt.Sprintf("list-books-%d", time.Now().UnixNano())
	genre := fmt.Sprintf("genre-%d", time.Now().UnixNano())

	first, err := service.CreateBook(ctx, &Book{
		Title: marker + "-alpha", Author: "Author One", Genre: genre, TotalCopies: 1,
	})
	require.NoError(t, err)
	_, err = service.CreateBook(ctx, &Book{
		Title: marker + "-beta", Author: "Author Two", Genre: genre, TotalCopies: 1,
	})
	require.NoError(t, err)

	byTitle, err := service.ListBooks(helper.GetContext(), NewBookFilter().WithTitle(marker))
	require.NoError(t, err)
	require.Len(t, byTitle, 2)
	assert.Equal(t, first.ID, byTitle[0].ID) // title ASC

	byGenre, err := service.ListBooks(helper.GetContext(), NewBookFilter().WithGenre(genre))
	require.NoError(t, err)
	assert.Len(t, byGenre, 2)

	// Exhaust the first book and filter on availability.
	exhaustBook(t, helper, first)
	available, err := service.ListBooks(helper.GetContext(),
		NewBookFilter().WithTitle(marker).WithAvailableOnly())
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, marker+"-beta", available[0].Title)
}

// TestUpdateBook tests descriptive updates leaving the ledger untouched
func TestUpdateBook(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	ctx := helper.LibrarianContext("books-librarian")

	book := helper.CreateTestBook("update-book", 3)
	user := helper.CreateTestUser("update-book-user")

	_, err := service.Checkout(ctx, user.ID, book.ID)
	require.NoError(t, err)

	updated, err := service.UpdateBook(ctx, &Book{
		ID:            book.ID,
		Title:         book.Title + " (2nd ed.)",
		Author:        book.Author,
		PublishedYear: 2020,
		Genre:         "reference",
	})
	require.NoError(t, err)
	assert.Equal(t, book.Title+" (2nd ed.)", updated.Title)
	assert.Equal(t, 2020, updated.PublishedYear)

	// Copy counts are not UpdateBook's to change.
	assert.Equal(t, 3, updated.TotalCopies)
	assert.Equal(t, 2, updated.AvailableCopies)

	_, err = service.UpdateBook(ctx, &Book{
		ID:     "00000000-0000-0000-0000-000000000000",
		Title:  "ghost",
		Author: "nobody",
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// TestRemoveBook tests the admin-only cascading delete
func TestRemoveBook(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}

	service := helper.GetService()
	adminCtx := helper.AdminContext("books-admin")

	book := helper.CreateTestBook("remove-book", 1)
	user := helper.CreateTestUser("remove-book-user")
	orderer := helper.CreateTestUser("remove-book-orderer")

	_, err := service.Checkout(adminCtx, user.ID, book.ID)
	require.NoError(t, err)
	_, err = service.PlaceOrder(adminCtx, orderer.ID, book.Title)
	require.NoError(t, err)

	err = service.RemoveBook(helper.LibrarianContext("books-librarian"), book.ID)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))

	err = service.RemoveBook(adminCtx, book.ID)
	require.NoError(t, err)

	_, err = service.GetBook(helper.GetContext(), book.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	// Loans and orders go with the book.
	loans, err := service.ListLoans(adminCtx, NewLoanFilter().WithBook(book.ID))
	require.NoError(t, err)
	assert.Empty(t, loans)

	orders, err := service.UserOrders(adminCtx, orderer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	err = service.RemoveBook(adminCtx, book.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
