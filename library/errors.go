package library

import "errors"

var (
	// ErrInvalidArgument is returned when entity construction input is unusable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateBook is returned when registering a title that already exists.
	ErrDuplicateBook = errors.New("book already registered")

	// ErrDuplicateUser is returned when registering an id that already exists.
	ErrDuplicateUser = errors.New("user already registered")

	// ErrBookNotFound is returned when no book matches the given title.
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound is returned when no user matches the given id.
	ErrUserNotFound = errors.New("user not found")

	// ErrLoanNotFound is returned when a user has no loan record for a title.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrBookInUse blocks removal of a book with copies outstanding.
	ErrBookInUse = errors.New("book has copies on loan")

	// ErrUserHasActiveLoans blocks removal of a user with open loans.
	ErrUserHasActiveLoans = errors.New("user has active loans")

	// ErrNoCopiesAvailable is returned when borrowing a title with no stock left.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrBorrowLimitReached is returned when a user is at the active-loan cap.
	ErrBorrowLimitReached = errors.New("borrow limit reached")

	// ErrAlreadyBorrowed is returned when a user already holds the title.
	ErrAlreadyBorrowed = errors.New("book already borrowed by user")

	// ErrNotBorrowed is returned when returning a title the user does not hold.
	ErrNotBorrowed = errors.New("book not borrowed by user")

	// ErrStockOverflow is returned when a return would push stock past the ceiling.
	ErrStockOverflow = errors.New("maximum stock reached")

	// ErrInvalidDateOrder is returned when a return date precedes the borrow date.
	ErrInvalidDateOrder = errors.New("return date before borrow date")
)
