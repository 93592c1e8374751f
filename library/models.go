package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Book is a title's catalog record together with its live copy counts.
// Quantity is the number of copies currently on the shelf; OriginalQuantity is
// the number registered and never changes. 0 <= Quantity <= OriginalQuantity
// holds after every borrow/return.
type Book struct {
	Title            string `json:"title" db:"title"`
	Author           string `json:"author" db:"author"`
	Quantity         int    `json:"quantity" db:"quantity"`
	OriginalQuantity int    `json:"original_quantity" db:"original_quantity"`
}

// NewBook validates and builds a catalog record. An empty author becomes
// "Unknown", matching the registration form's optional field.
func NewBook(title, author string, quantity int) (*Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidArgument)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if author == "" {
		author = "Unknown"
	}
	return &Book{
		Title:            title,
		Author:           author,
		Quantity:         quantity,
		OriginalQuantity: quantity,
	}, nil
}

// LoanRecord is a single borrow event, owned by its User. ReturnedAt is nil
// while the loan is open and set exactly once on return.
type LoanRecord struct {
	ID         string     `json:"id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at"`
}

// Active reports whether the loan is still open.
func (r *LoanRecord) Active() bool { return r.ReturnedAt == nil }

// LoanView is one row of a user's loan history.
type LoanView struct {
	Title      string     `json:"title"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at"`
	Active     bool       `json:"active"`
}

// LoanDuration reports how long a loan has been (or was) held, in whole days.
type LoanDuration struct {
	Days       int        `json:"days"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at"`
	Active     bool       `json:"active"`
}

// AvailabilityReport aggregates copy counts across the whole catalog.
type AvailabilityReport struct {
	BookCount      int `json:"book_count"`
	TotalBooks     int `json:"total_books"`
	TotalBorrowed  int `json:"total_borrowed"`
	TotalAvailable int `json:"total_available"`
}

// User is a registered borrower. Loans are keyed by title: re-borrowing a
// title replaces its record, so at most one record per title is retained.
// titleOrder preserves first-borrow order, which Go maps do not.
type User struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	loans      map[string]*LoanRecord
	titleOrder []string
}

// NewUser validates and builds a borrower record.
func NewUser(id, name string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: user id must not be empty", ErrInvalidArgument)
	}
	return &User{
		ID:    id,
		Name:  name,
		loans: make(map[string]*LoanRecord),
	}, nil
}

// Borrow records a new open loan for title. Any prior record for that exact
// title is overwritten; a previously seen title keeps its place in the order.
func (u *User) Borrow(title string, at time.Time) *LoanRecord {
	if u.loans == nil {
		u.loans = make(map[string]*LoanRecord)
	}
	if _, seen := u.loans[title]; !seen {
		u.titleOrder = append(u.titleOrder, title)
	}
	rec := &LoanRecord{
		ID:         uuid.NewString(),
		BorrowedAt: at,
	}
	u.loans[title] = rec
	return rec
}

// HasBorrowed reports whether the user currently holds an open loan of title.
func (u *User) HasBorrowed(title string) bool {
	rec, ok := u.loans[title]
	return ok && rec.Active()
}

// Return closes the loan record for title. The record must exist and the
// return date must not precede the borrow date.
func (u *User) Return(title string, at time.Time) (*LoanRecord, error) {
	rec, ok := u.loans[title]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLoanNotFound, title)
	}
	if at.Before(rec.BorrowedAt) {
		return nil, ErrInvalidDateOrder
	}
	returned := at
	rec.ReturnedAt = &returned
	return rec, nil
}

// LoanCount counts open loans only.
func (u *User) LoanCount() int {
	count := 0
	for _, rec := range u.loans {
		if rec.Active() {
			count++
		}
	}
	return count
}

// ActiveTitles lists the titles of open loans in first-borrow order.
func (u *User) ActiveTitles() []string {
	titles := make([]string, 0, len(u.titleOrder))
	for _, title := range u.titleOrder {
		if rec := u.loans[title]; rec != nil && rec.Active() {
			titles = append(titles, title)
		}
	}
	return titles
}

// Loans returns the full loan history, returned loans included, in
// first-borrow order.
func (u *User) Loans() []LoanView {
	views := make([]LoanView, 0, len(u.titleOrder))
	for _, title := range u.titleOrder {
		rec := u.loans[title]
		if rec == nil {
			continue
		}
		views = append(views, LoanView{
			Title:      title,
			BorrowedAt: rec.BorrowedAt,
			ReturnedAt: rec.ReturnedAt,
			Active:     rec.Active(),
		})
	}
	return views
}

// LoanInfo returns the raw record for title, or nil if none exists.
func (u *User) LoanInfo(title string) *LoanRecord {
	return u.loans[title]
}

// LoanDuration reports the whole-day duration of the loan for title. Open
// loans are measured against now; closed loans against their return date.
func (u *User) LoanDuration(title string, now time.Time) (*LoanDuration, error) {
	rec, ok := u.loans[title]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLoanNotFound, title)
	}
	end := now
	if rec.ReturnedAt != nil {
		end = *rec.ReturnedAt
	}
	days := int(end.Sub(rec.BorrowedAt) / (24 * time.Hour))
	return &LoanDuration{
		Days:       days,
		BorrowedAt: rec.BorrowedAt,
		ReturnedAt: rec.ReturnedAt,
		Active:     rec.Active(),
	}, nil
}

// restoreLoan reattaches a stored record during repository loads, bypassing
// the fresh-ID minting that Borrow performs.
func (u *User) restoreLoan(title string, rec *LoanRecord) {
	if u.loans == nil {
		u.loans = make(map[string]*LoanRecord)
	}
	if _, seen := u.loans[title]; !seen {
		u.titleOrder = append(u.titleOrder, title)
	}
	u.loans[title] = rec
}
