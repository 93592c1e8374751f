package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(NewInMemoryRepository(), opts...)
}

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func Test_RegisterBook(t *testing.T) {
	svc := newTestService(t)

	book, err := svc.RegisterBook("Clean Code", "R.Martin", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, book.Quantity)

	// Duplicate titles are rejected case-insensitively.
	_, err = svc.RegisterBook("clean code", "Someone Else", 1)
	assert.ErrorIs(t, err, ErrDuplicateBook)

	// Constructor failures propagate unchanged.
	_, err = svc.RegisterBook("", "Author", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.RegisterBook("Zero Copies", "Author", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func Test_ListBooks_RegistrationOrderAndIdempotence(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Book A", "A", 1)
	require.NoError(t, err)
	_, err = svc.RegisterBook("Book B", "B", 2)
	require.NoError(t, err)

	first, err := svc.ListBooks()
	require.NoError(t, err)
	second, err := svc.ListBooks()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "Book A", first[0].Title)
	assert.Equal(t, "Book B", first[1].Title)
}

func Test_RemoveBook(t *testing.T) {
	svc := newTestService(t)

	assert.ErrorIs(t, svc.RemoveBook("Missing"), ErrBookNotFound)

	_, err := svc.RegisterBook("Clean Code", "R.Martin", 5)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	_, err = svc.RegisterUser("u2", "Paulo")
	require.NoError(t, err)

	// Two of five copies outstanding: removal is blocked, book untouched.
	_, err = svc.BorrowBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)
	_, err = svc.BorrowBook("u2", "Clean Code", time.Time{})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveBook("Clean Code"), ErrBookInUse)

	book, err := svc.repo.FindBook("Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 3, book.Quantity)
	assert.Equal(t, 5, book.OriginalQuantity)

	// All copies back: removal succeeds.
	_, err = svc.ReturnBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)
	_, err = svc.ReturnBook("u2", "Clean Code", time.Time{})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveBook("Clean Code"))
	assert.ErrorIs(t, svc.RemoveBook("Clean Code"), ErrBookNotFound)
}

func Test_RegisterUser(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	assert.Equal(t, "Maria", user.Name)

	_, err = svc.RegisterUser("u1", "Another Maria")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.RegisterUser("", "Nameless")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func Test_RemoveUser(t *testing.T) {
	svc := newTestService(t)

	assert.ErrorIs(t, svc.RemoveUser("ghost"), ErrUserNotFound)

	_, err := svc.RegisterBook("Clean Code", "R.Martin", 3)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	_, err = svc.BorrowBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveUser("u1"), ErrUserHasActiveLoans)

	_, err = svc.ReturnBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveUser("u1"))
	assert.ErrorIs(t, svc.RemoveUser("u1"), ErrUserNotFound)
}

func Test_BorrowBook_CheckOrdering(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Stocked", "A", 2)
	require.NoError(t, err)
	_, err = svc.RegisterBook("Empty", "A", 1)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	_, err = svc.RegisterUser("u2", "Paulo")
	require.NoError(t, err)

	// Missing user surfaces before missing book.
	_, err = svc.BorrowBook("ghost", "No Such Book", time.Time{})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.BorrowBook("u1", "No Such Book", time.Time{})
	assert.ErrorIs(t, err, ErrBookNotFound)

	// Drain Empty's stock via another user.
	_, err = svc.BorrowBook("u2", "Empty", time.Time{})
	require.NoError(t, err)

	// Fill u1 to the limit.
	for _, title := range []string{"Book 1", "Book 2", "Book 3"} {
		_, err = svc.RegisterBook(title, "A", 1)
		require.NoError(t, err)
		_, err = svc.BorrowBook("u1", title, time.Time{})
		require.NoError(t, err)
	}

	// Stock is checked before the borrow limit.
	_, err = svc.BorrowBook("u1", "Empty", time.Time{})
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)

	// The borrow limit is checked before the duplicate hold.
	_, err = svc.BorrowBook("u1", "Book 1", time.Time{})
	assert.ErrorIs(t, err, ErrBorrowLimitReached)
}

func Test_BorrowBook_NoCopiesNeverDecrements(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Solo", "A", 1)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	_, err = svc.RegisterUser("u2", "Paulo")
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "Solo", time.Time{})
	require.NoError(t, err)

	_, err = svc.BorrowBook("u2", "Solo", time.Time{})
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)

	book, err := svc.repo.FindBook("Solo")
	require.NoError(t, err)
	assert.Equal(t, 0, book.Quantity)
	assert.False(t, book.Quantity < 0)
	// The failed borrower gained no loan.
	assert.Empty(t, mustUser(t, svc, "u2").ActiveTitles())
}

func Test_BorrowBook_LimitReached(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	for _, title := range []string{"Book 1", "Book 2", "Book 3", "Book 4"} {
		_, err = svc.RegisterBook(title, "A", 1)
		require.NoError(t, err)
	}

	for _, title := range []string{"Book 1", "Book 2", "Book 3"} {
		_, err = svc.BorrowBook("u1", title, time.Time{})
		require.NoError(t, err)
	}

	// The fourth simultaneous borrow fails.
	_, err = svc.BorrowBook("u1", "Book 4", time.Time{})
	assert.ErrorIs(t, err, ErrBorrowLimitReached)
	assert.Equal(t, 3, mustUser(t, svc, "u1").LoanCount())

	// Returning one frees a slot.
	_, err = svc.ReturnBook("u1", "Book 2", time.Time{})
	require.NoError(t, err)
	_, err = svc.BorrowBook("u1", "Book 4", time.Time{})
	assert.NoError(t, err)
}

func Test_BorrowBook_DuplicateHold(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Clean Code", "R.Martin", 3)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "clean CODE", time.Time{})
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)

	book, err := svc.repo.FindBook("Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 2, book.Quantity)
}

func Test_ReturnBook_NotBorrowed(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Clean Code", "R.Martin", 3)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.ReturnBook("ghost", "Clean Code", time.Time{})
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.ReturnBook("u1", "No Such Book", time.Time{})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.ReturnBook("u1", "Clean Code", time.Time{})
	assert.ErrorIs(t, err, ErrNotBorrowed)

	book, err := svc.repo.FindBook("Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 3, book.Quantity)
}

func Test_ReturnBook_StockOverflow(t *testing.T) {
	// OriginalQuantity above the ceiling: the first return already collides
	// with it. Literal historical behavior, kept on purpose.
	svc := newTestService(t)
	_, err := svc.RegisterBook("Big Edition", "A", 6)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "Big Edition", time.Time{})
	require.NoError(t, err)

	_, err = svc.ReturnBook("u1", "Big Edition", time.Time{})
	assert.ErrorIs(t, err, ErrStockOverflow)

	// Nothing changed: the loan is still open and stock untouched.
	assert.True(t, mustUser(t, svc, "u1").HasBorrowed("Big Edition"))
	book, err := svc.repo.FindBook("Big Edition")
	require.NoError(t, err)
	assert.Equal(t, 5, book.Quantity)
}

func Test_ReturnBook_InvalidDateOrderLeavesLoanOpen(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Clean Code", "R.Martin", 3)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "Clean Code", date(2025, 10, 10))
	require.NoError(t, err)

	_, err = svc.ReturnBook("u1", "Clean Code", date(2025, 10, 5))
	assert.ErrorIs(t, err, ErrInvalidDateOrder)

	assert.True(t, mustUser(t, svc, "u1").HasBorrowed("Clean Code"))
	book, err := svc.repo.FindBook("Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 2, book.Quantity)
}

func Test_LoanDurationAndRoundTrip(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, fixedClock(now))

	_, err := svc.RegisterBook("Clean Code", "R.Martin", 3)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.LoanDuration("ghost", "Clean Code")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.LoanDuration("u1", "Clean Code")
	assert.ErrorIs(t, err, ErrLoanNotFound)

	borrowed := date(2025, 10, 1)
	_, err = svc.BorrowBook("u1", "Clean Code", borrowed)
	require.NoError(t, err)

	book, err := svc.repo.FindBook("Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 2, book.Quantity)

	// Open loan measured against the injected clock.
	dur, err := svc.LoanDuration("u1", "Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 14, dur.Days)
	assert.True(t, dur.Active)
	assert.Nil(t, dur.ReturnedAt)

	returned := date(2025, 10, 15)
	rec, err := svc.ReturnBook("u1", "Clean Code", returned)
	require.NoError(t, err)
	assert.Equal(t, borrowed, rec.BorrowedAt)
	require.NotNil(t, rec.ReturnedAt)
	assert.Equal(t, returned, *rec.ReturnedAt)

	book, err = svc.repo.FindBook("Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 3, book.Quantity)

	dur, err = svc.LoanDuration("u1", "Clean Code")
	require.NoError(t, err)
	assert.Equal(t, 14, dur.Days)
	assert.False(t, dur.Active)

	// No open loans left: removal succeeds.
	assert.NoError(t, svc.RemoveUser("u1"))
}

func Test_ZeroDatesUseInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	svc := newTestService(t, fixedClock(now))

	_, err := svc.RegisterBook("Clean Code", "R.Martin", 1)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	rec, err := svc.BorrowBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, now, rec.BorrowedAt)

	rec, err = svc.ReturnBook("u1", "Clean Code", time.Time{})
	require.NoError(t, err)
	require.NotNil(t, rec.ReturnedAt)
	assert.Equal(t, now, *rec.ReturnedAt)
}

func Test_ListLoans_IncludesHistory(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ListLoans("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RegisterBook("Book A", "A", 1)
	require.NoError(t, err)
	_, err = svc.RegisterBook("Book B", "B", 1)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "Book A", date(2025, 1, 1))
	require.NoError(t, err)
	_, err = svc.BorrowBook("u1", "Book B", date(2025, 1, 2))
	require.NoError(t, err)
	_, err = svc.ReturnBook("u1", "Book A", date(2025, 1, 9))
	require.NoError(t, err)

	loans, err := svc.ListLoans("u1")
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "Book A", loans[0].Title)
	assert.False(t, loans[0].Active)
	require.NotNil(t, loans[0].ReturnedAt)
	assert.Equal(t, "Book B", loans[1].Title)
	assert.True(t, loans[1].Active)
}

func Test_AvailabilityReport(t *testing.T) {
	svc := newTestService(t)

	// Empty catalog yields all zeros.
	report, err := svc.AvailabilityReport()
	require.NoError(t, err)
	assert.Equal(t, &AvailabilityReport{}, report)

	_, err = svc.RegisterBook("Book A", "A", 3)
	require.NoError(t, err)
	_, err = svc.RegisterBook("Book B", "B", 2)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)
	_, err = svc.BorrowBook("u1", "Book A", time.Time{})
	require.NoError(t, err)
	_, err = svc.BorrowBook("u1", "Book B", time.Time{})
	require.NoError(t, err)

	report, err = svc.AvailabilityReport()
	require.NoError(t, err)
	assert.Equal(t, 2, report.BookCount)
	assert.Equal(t, 5, report.TotalBooks)
	assert.Equal(t, 2, report.TotalBorrowed)
	assert.Equal(t, 3, report.TotalAvailable)
	assert.Equal(t, report.TotalBooks, report.TotalBorrowed+report.TotalAvailable)
}

func Test_QuantityInvariantHoldsAcrossSequences(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RegisterBook("Busy Book", "A", 3)
	require.NoError(t, err)
	for _, id := range []string{"u1", "u2", "u3"} {
		_, err = svc.RegisterUser(id, "User "+id)
		require.NoError(t, err)
	}

	steps := []struct {
		user   string
		action string
	}{
		{"u1", "borrow"}, {"u2", "borrow"}, {"u1", "return"},
		{"u3", "borrow"}, {"u1", "borrow"}, {"u2", "return"},
		{"u3", "return"}, {"u1", "return"},
	}
	for _, step := range steps {
		if step.action == "borrow" {
			_, err = svc.BorrowBook(step.user, "Busy Book", time.Time{})
		} else {
			_, err = svc.ReturnBook(step.user, "Busy Book", time.Time{})
		}
		require.NoError(t, err)

		book, err := svc.repo.FindBook("Busy Book")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, book.Quantity, 0)
		assert.LessOrEqual(t, book.Quantity, book.OriginalQuantity)
	}
}

func Test_PolicyOverrides(t *testing.T) {
	svc := newTestService(t, WithPolicy(Policy{BorrowLimit: 1, ReturnCeiling: 10}))

	_, err := svc.RegisterBook("Book A", "A", 6)
	require.NoError(t, err)
	_, err = svc.RegisterBook("Book B", "B", 1)
	require.NoError(t, err)
	_, err = svc.RegisterUser("u1", "Maria")
	require.NoError(t, err)

	_, err = svc.BorrowBook("u1", "Book A", time.Time{})
	require.NoError(t, err)
	_, err = svc.BorrowBook("u1", "Book B", time.Time{})
	assert.ErrorIs(t, err, ErrBorrowLimitReached)

	// A higher ceiling lets the large edition come back.
	_, err = svc.ReturnBook("u1", "Book A", time.Time{})
	assert.NoError(t, err)
}

func mustUser(t *testing.T, svc *Service, id string) *User {
	t.Helper()
	user, err := svc.repo.FindUser(id)
	require.NoError(t, err)
	return user
}
