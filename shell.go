package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"library-ledger/library"
)

// runShell drives the interactive menu loop until the user exits or input
// ends. Domain errors are printed and the loop resumes.
func runShell(in io.Reader, svc *library.Service) error {
	scanner := bufio.NewScanner(in)

	fmt.Println("Welcome to the library lending ledger!")
	for {
		printMenu()
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			handleRegisterBook(scanner, svc)
		case "2":
			handleListBooks(svc)
		case "3":
			handleRemoveBook(scanner, svc)
		case "4":
			handleRegisterUser(scanner, svc)
		case "5":
			handleListUsers(svc)
		case "6":
			handleRemoveUser(scanner, svc)
		case "7":
			handleBorrow(scanner, svc)
		case "8":
			handleReturn(scanner, svc)
		case "9":
			handleListLoans(scanner, svc)
		case "10":
			handleReport(svc)
		case "11":
			handleLoanDuration(scanner, svc)
		case "0":
			fmt.Println("Goodbye!")
			return nil
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func printMenu() {
	fmt.Println("\n=== Library Ledger ===")
	fmt.Println(" 1. Register book")
	fmt.Println(" 2. List books")
	fmt.Println(" 3. Remove book")
	fmt.Println(" 4. Register user")
	fmt.Println(" 5. List users")
	fmt.Println(" 6. Remove user")
	fmt.Println(" 7. Borrow book")
	fmt.Println(" 8. Return book")
	fmt.Println(" 9. List a user's loans")
	fmt.Println("10. Availability report")
	fmt.Println("11. Loan duration")
	fmt.Println(" 0. Exit")
}

func promptLine(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func handleRegisterBook(sc *bufio.Scanner, svc *library.Service) {
	title, ok := promptLine(sc, "Title: ")
	if !ok {
		return
	}
	author, ok := promptLine(sc, "Author: ")
	if !ok {
		return
	}
	quantityStr, ok := promptLine(sc, "Quantity: ")
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		fmt.Printf("Invalid quantity: %s\n", quantityStr)
		return
	}

	book, err := svc.RegisterBook(title, author, quantity)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Registered '%s' by %s (%d copies).\n", book.Title, book.Author, book.Quantity)
}

func handleListBooks(svc *library.Service) {
	books, err := svc.ListBooks()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		fmt.Println("No books registered.")
		return
	}

	fmt.Printf("%-35s %-25s %-10s %s\n", "Title", "Author", "Available", "Total")
	fmt.Println(strings.Repeat("-", 80))
	for _, b := range books {
		fmt.Printf("%-35s %-25s %-10d %d\n",
			truncateString(b.Title, 35), truncateString(b.Author, 25), b.Quantity, b.OriginalQuantity)
	}
}

func handleRemoveBook(sc *bufio.Scanner, svc *library.Service) {
	title, ok := promptLine(sc, "Title to remove: ")
	if !ok {
		return
	}
	if err := svc.RemoveBook(title); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Book removed.")
}

func handleRegisterUser(sc *bufio.Scanner, svc *library.Service) {
	id, ok := promptLine(sc, "User ID: ")
	if !ok {
		return
	}
	name, ok := promptLine(sc, "Name: ")
	if !ok {
		return
	}
	user, err := svc.RegisterUser(id, name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Registered user '%s' (ID %s).\n", user.Name, user.ID)
}

func handleListUsers(svc *library.Service) {
	users, err := svc.ListUsers()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(users) == 0 {
		fmt.Println("No users registered.")
		return
	}

	fmt.Printf("%-15s %-30s %s\n", "ID", "Name", "Active loans")
	fmt.Println(strings.Repeat("-", 60))
	for _, u := range users {
		fmt.Printf("%-15s %-30s %d\n", u.ID, truncateString(u.Name, 30), u.LoanCount())
	}
}

func handleRemoveUser(sc *bufio.Scanner, svc *library.Service) {
	id, ok := promptLine(sc, "User ID to remove: ")
	if !ok {
		return
	}
	if err := svc.RemoveUser(id); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("User removed.")
}

func handleBorrow(sc *bufio.Scanner, svc *library.Service) {
	id, ok := promptLine(sc, "User ID: ")
	if !ok {
		return
	}
	title, ok := promptLine(sc, "Title: ")
	if !ok {
		return
	}
	rec, err := svc.BorrowBook(id, title, time.Time{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Borrowed on %s.\n", rec.BorrowedAt.Format("2006-01-02"))
}

func handleReturn(sc *bufio.Scanner, svc *library.Service) {
	id, ok := promptLine(sc, "User ID: ")
	if !ok {
		return
	}
	title, ok := promptLine(sc, "Title: ")
	if !ok {
		return
	}
	rec, err := svc.ReturnBook(id, title, time.Time{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Returned; held since %s.\n", rec.BorrowedAt.Format("2006-01-02"))
}

func handleListLoans(sc *bufio.Scanner, svc *library.Service) {
	id, ok := promptLine(sc, "User ID: ")
	if !ok {
		return
	}
	loans, err := svc.ListLoans(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(loans) == 0 {
		fmt.Printf("No loans for %s.\n", id)
		return
	}

	fmt.Printf("%-35s %-12s %-12s %s\n", "Title", "Borrowed", "Returned", "Status")
	fmt.Println(strings.Repeat("-", 75))
	for _, loan := range loans {
		returned := "-"
		status := "active"
		if loan.ReturnedAt != nil {
			returned = loan.ReturnedAt.Format("2006-01-02")
			status = "returned"
		}
		fmt.Printf("%-35s %-12s %-12s %s\n",
			truncateString(loan.Title, 35), loan.BorrowedAt.Format("2006-01-02"), returned, status)
	}
}

func handleReport(svc *library.Service) {
	report, err := svc.AvailabilityReport()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printReport(report)
}

func handleLoanDuration(sc *bufio.Scanner, svc *library.Service) {
	id, ok := promptLine(sc, "User ID: ")
	if !ok {
		return
	}
	title, ok := promptLine(sc, "Title: ")
	if !ok {
		return
	}
	dur, err := svc.LoanDuration(id, title)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if dur.Active {
		fmt.Printf("'%s' has been out for %d day(s) since %s.\n",
			title, dur.Days, dur.BorrowedAt.Format("2006-01-02"))
	} else {
		fmt.Printf("'%s' was held for %d day(s) (%s to %s).\n",
			title, dur.Days, dur.BorrowedAt.Format("2006-01-02"), dur.ReturnedAt.Format("2006-01-02"))
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
