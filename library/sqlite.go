package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository is a durable Repository backed by SQLite. The service
// itself never requires durability; this backend exists so the CLI can keep a
// ledger across runs when pointed at a file.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath and applies
// schema migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL COLLATE NOCASE UNIQUE,
            author TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            original_quantity INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            registered INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            loan_id TEXT NOT NULL,
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL COLLATE NOCASE,
            borrowed_at DATETIME NOT NULL,
            returned_at DATETIME,
            UNIQUE(user_id, title)
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// loanRow mirrors one loans-table row.
type loanRow struct {
	LoanID     string     `db:"loan_id"`
	UserID     string     `db:"user_id"`
	Title      string     `db:"title"`
	BorrowedAt time.Time  `db:"borrowed_at"`
	ReturnedAt *time.Time `db:"returned_at"`
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (r *SQLiteRepository) AddBook(book *Book) error {
	_, err := r.db.Exec(
		`INSERT INTO books(title,author,quantity,original_quantity) VALUES(?,?,?,?)`,
		book.Title, book.Author, book.Quantity, book.OriginalQuantity)
	return err
}

func (r *SQLiteRepository) FindBook(title string) (*Book, error) {
	var book Book
	err := r.db.Get(&book,
		`SELECT title,author,quantity,original_quantity FROM books WHERE title=?`, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *SQLiteRepository) RemoveBook(title string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM books WHERE title=?`, title)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListBooks() ([]*Book, error) {
	var books []*Book
	err := r.db.Select(&books,
		`SELECT title,author,quantity,original_quantity FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (r *SQLiteRepository) UpdateBook(book *Book) error {
	res, err := r.db.Exec(`UPDATE books SET quantity=? WHERE title=?`, book.Quantity, book.Title)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (r *SQLiteRepository) AddUser(user *User) error {
	_, err := r.db.Exec(`INSERT INTO users(id,name,registered) VALUES(?,?,?)`,
		user.ID, user.Name, time.Now().Unix())
	if err != nil {
		return err
	}
	return r.saveLoans(user)
}

func (r *SQLiteRepository) FindUser(id string) (*User, error) {
	var user User
	err := r.db.Get(&user, `SELECT id,name FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLoans(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *SQLiteRepository) RemoveUser(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		// Loan rows cascade only when foreign keys are enforced; delete
		// explicitly so a misconfigured connection cannot orphan them.
		if _, err := r.db.Exec(`DELETE FROM loans WHERE user_id=?`, id); err != nil {
			return true, err
		}
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListUsers() ([]*User, error) {
	var users []*User
	err := r.db.Select(&users, `SELECT id,name FROM users ORDER BY registered, id`)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if err := r.loadLoans(u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *SQLiteRepository) UpdateUser(user *User) error {
	return r.saveLoans(user)
}

// saveLoans rewrites the user's loan rows from the entity's current state.
// Autoincrement ids preserve first-borrow order across reloads.
func (r *SQLiteRepository) saveLoans(user *User) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM loans WHERE user_id=?`, user.ID); err != nil {
		return err
	}
	for _, view := range user.Loans() {
		rec := user.LoanInfo(view.Title)
		_, err := tx.Exec(
			`INSERT INTO loans(loan_id,user_id,title,borrowed_at,returned_at) VALUES(?,?,?,?,?)`,
			rec.ID, user.ID, view.Title, rec.BorrowedAt, rec.ReturnedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) loadLoans(user *User) error {
	var rows []loanRow
	err := r.db.Select(&rows,
		`SELECT loan_id,user_id,title,borrowed_at,returned_at FROM loans WHERE user_id=? ORDER BY id`,
		user.ID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		user.restoreLoan(row.Title, &LoanRecord{
			ID:         row.LoanID,
			BorrowedAt: row.BorrowedAt,
			ReturnedAt: row.ReturnedAt,
		})
	}
	return nil
}
