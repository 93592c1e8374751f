package library

import (
	"errors"
	"fmt"
	"time"
)

// Policy holds the lending limits the service enforces.
type Policy struct {
	// BorrowLimit caps the number of simultaneously open loans per user.
	BorrowLimit int

	// ReturnCeiling caps shelf stock on return, independently of a book's
	// OriginalQuantity. A ceiling below OriginalQuantity can reject
	// legitimate returns of a large edition; kept as-is pending product
	// clarification.
	ReturnCeiling int
}

// DefaultPolicy mirrors the historical hard-coded limits.
var DefaultPolicy = Policy{BorrowLimit: 3, ReturnCeiling: 5}

// Option configures a Service.
type Option func(*Service)

// WithPolicy overrides the default lending policy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock overrides the wall clock used when callers pass zero dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service owns every state transition of the lending ledger. All checks run
// before any mutation, so a failed operation leaves no partial state behind.
type Service struct {
	repo   Repository
	policy Policy
	now    func() time.Time
}

// NewService builds a service over repo with the default policy and clock.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		policy: DefaultPolicy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the lending limits in force.
func (s *Service) Policy() Policy { return s.policy }

// RegisterBook adds a new title to the catalog. The title must not already
// exist (matched case-insensitively) and quantity must be positive.
func (s *Service) RegisterBook(title, author string, quantity int) (*Book, error) {
	if _, err := s.repo.FindBook(title); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateBook, title)
	} else if !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}
	book, err := NewBook(title, author, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddBook(book); err != nil {
		return nil, err
	}
	return book, nil
}

// ListBooks returns the catalog in registration order.
func (s *Service) ListBooks() ([]*Book, error) {
	return s.repo.ListBooks()
}

// RemoveBook deletes a title, but only when every copy is back on the shelf.
func (s *Service) RemoveBook(title string) error {
	book, err := s.repo.FindBook(title)
	if err != nil {
		return err
	}
	if book.Quantity != book.OriginalQuantity {
		return fmt.Errorf("%w: %q", ErrBookInUse, book.Title)
	}
	if _, err := s.repo.RemoveBook(title); err != nil {
		return err
	}
	return nil
}

// RegisterUser adds a new borrower. The id must not already exist.
func (s *Service) RegisterUser(id, name string) (*User, error) {
	if _, err := s.repo.FindUser(id); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateUser, id)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	user, err := NewUser(id, name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns borrowers in registration order.
func (s *Service) ListUsers() ([]*User, error) {
	return s.repo.ListUsers()
}

// RemoveUser deletes a borrower, but only when they hold no open loans.
func (s *Service) RemoveUser(id string) error {
	user, err := s.repo.FindUser(id)
	if err != nil {
		return err
	}
	if user.LoanCount() > 0 {
		return fmt.Errorf("%w: %q", ErrUserHasActiveLoans, id)
	}
	if _, err := s.repo.RemoveUser(id); err != nil {
		return err
	}
	return nil
}

// BorrowBook lends one copy of title to the user. A zero borrowedAt means
// now. Checks run in a fixed order so the first violated rule is the one
// reported: user existence, book existence, stock, borrow limit, then
// duplicate hold.
func (s *Service) BorrowBook(userID, title string, borrowedAt time.Time) (*LoanRecord, error) {
	user, err := s.repo.FindUser(userID)
	if err != nil {
		return nil, err
	}
	book, err := s.repo.FindBook(title)
	if err != nil {
		return nil, err
	}
	if book.Quantity <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoCopiesAvailable, book.Title)
	}
	if user.LoanCount() >= s.policy.BorrowLimit {
		return nil, fmt.Errorf("%w (%d)", ErrBorrowLimitReached, s.policy.BorrowLimit)
	}
	if user.HasBorrowed(book.Title) {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyBorrowed, book.Title)
	}

	if borrowedAt.IsZero() {
		borrowedAt = s.now()
	}
	book.Quantity--
	rec := user.Borrow(book.Title, borrowedAt)
	if err := s.repo.UpdateBook(book); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	return rec, nil
}

// ReturnBook puts one copy of title back on the shelf and closes the user's
// loan. A zero returnedAt means now. The stock ceiling is checked before any
// state changes.
func (s *Service) ReturnBook(userID, title string, returnedAt time.Time) (*LoanRecord, error) {
	user, err := s.repo.FindUser(userID)
	if err != nil {
		return nil, err
	}
	book, err := s.repo.FindBook(title)
	if err != nil {
		return nil, err
	}
	if !user.HasBorrowed(book.Title) {
		return nil, fmt.Errorf("%w: %q", ErrNotBorrowed, book.Title)
	}
	if book.Quantity+1 > s.policy.ReturnCeiling {
		return nil, fmt.Errorf("%w (%d)", ErrStockOverflow, s.policy.ReturnCeiling)
	}

	if returnedAt.IsZero() {
		returnedAt = s.now()
	}
	rec, err := user.Return(book.Title, returnedAt)
	if err != nil {
		return nil, err
	}
	book.Quantity++
	if err := s.repo.UpdateBook(book); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	return rec, nil
}

// LoanDuration reports the whole-day duration of the user's loan of title.
func (s *Service) LoanDuration(userID, title string) (*LoanDuration, error) {
	user, err := s.repo.FindUser(userID)
	if err != nil {
		return nil, err
	}
	return user.LoanDuration(title, s.now())
}

// ListLoans returns the user's loan history, returned loans included.
func (s *Service) ListLoans(userID string) ([]LoanView, error) {
	user, err := s.repo.FindUser(userID)
	if err != nil {
		return nil, err
	}
	return user.Loans(), nil
}

// AvailabilityReport aggregates copy counts over the whole catalog. An empty
// catalog yields all zeros.
func (s *Service) AvailabilityReport() (*AvailabilityReport, error) {
	books, err := s.repo.ListBooks()
	if err != nil {
		return nil, err
	}
	report := &AvailabilityReport{BookCount: len(books)}
	for _, b := range books {
		report.TotalBooks += b.OriginalQuantity
		report.TotalAvailable += b.Quantity
	}
	report.TotalBorrowed = report.TotalBooks - report.TotalAvailable
	return report, nil
}
