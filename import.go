package main

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

// catalogEntry is one book in an import file.
type catalogEntry struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Quantity int    `json:"quantity"`
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Bulk-register books from a JSON catalog",
		Long: "Reads a JSON array of {title, author, quantity} entries and registers\n" +
			"each one, reporting successes and failures.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}

			var entries []catalogEntry
			if err := jsoniter.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parse catalog: %w", err)
			}

			successCount := 0
			errorCount := 0
			for _, entry := range entries {
				fmt.Printf("Importing: %s by %s... ", entry.Title, entry.Author)
				if _, err := svc.RegisterBook(entry.Title, entry.Author, entry.Quantity); err != nil {
					fmt.Printf("ERROR - %v\n", err)
					errorCount++
					continue
				}
				fmt.Println("SUCCESS")
				successCount++
			}

			fmt.Printf("\nImport complete!\n")
			fmt.Printf("Successfully imported: %d books\n", successCount)
			fmt.Printf("Errors: %d\n", errorCount)

			if successCount > 0 {
				books, err := svc.ListBooks()
				if err != nil {
					return err
				}
				fmt.Println("\nCatalog:")
				fmt.Printf("%-40s %-30s %s\n", "Title", "Author", "Copies")
				fmt.Println(strings.Repeat("-", 80))
				for _, book := range books {
					fmt.Printf("%-40s %-30s %d\n",
						truncateString(book.Title, 40), truncateString(book.Author, 30), book.OriginalQuantity)
				}
			}
			return nil
		},
	}
}
