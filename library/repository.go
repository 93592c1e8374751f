package library

import "strings"

// Repository is the keyed store the service runs against. Title lookups are
// case-insensitive, user lookups exact. List order is registration order.
// UpdateBook/UpdateUser persist in-place entity mutations; an in-memory
// backend that hands out shared pointers may treat them as no-ops.
type Repository interface {
	AddBook(book *Book) error
	FindBook(title string) (*Book, error)
	RemoveBook(title string) (bool, error)
	ListBooks() ([]*Book, error)
	UpdateBook(book *Book) error

	AddUser(user *User) error
	FindUser(id string) (*User, error)
	RemoveUser(id string) (bool, error)
	ListUsers() ([]*User, error)
	UpdateUser(user *User) error
}

// InMemoryRepository keeps books and users in registration order for the
// lifetime of the process.
type InMemoryRepository struct {
	books []*Book
	users []*User
}

// NewInMemoryRepository returns an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) AddBook(book *Book) error {
	r.books = append(r.books, book)
	return nil
}

func (r *InMemoryRepository) FindBook(title string) (*Book, error) {
	for _, b := range r.books {
		if strings.EqualFold(b.Title, title) {
			return b, nil
		}
	}
	return nil, ErrBookNotFound
}

func (r *InMemoryRepository) RemoveBook(title string) (bool, error) {
	for i, b := range r.books {
		if strings.EqualFold(b.Title, title) {
			r.books = append(r.books[:i], r.books[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) ListBooks() ([]*Book, error) {
	books := make([]*Book, len(r.books))
	copy(books, r.books)
	return books, nil
}

// UpdateBook is a no-op: callers mutate the shared *Book directly.
func (r *InMemoryRepository) UpdateBook(*Book) error { return nil }

func (r *InMemoryRepository) AddUser(user *User) error {
	r.users = append(r.users, user)
	return nil
}

func (r *InMemoryRepository) FindUser(id string) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryRepository) RemoveUser(id string) (bool, error) {
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) ListUsers() ([]*User, error) {
	users := make([]*User, len(r.users))
	copy(users, r.users)
	return users, nil
}

// UpdateUser is a no-op: callers mutate the shared *User directly.
func (r *InMemoryRepository) UpdateUser(*User) error { return nil }
