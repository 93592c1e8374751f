package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-ledger/library"
)

var dbPath string

func main() {
	root := &cobra.Command{
		Use:   "library-ledger",
		Short: "Track book stock, borrowers and loans from the terminal",
		Long: "library-ledger keeps a lending ledger of book copies, borrowers and\n" +
			"loans, enforcing stock limits and per-user borrow caps. Without a\n" +
			"subcommand it starts an interactive shell.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()
			return runShell(os.Stdin, svc)
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "",
		"SQLite file backing the ledger (default: in-memory, or LEDGER_DB_PATH)")
	root.AddCommand(newReportCmd(), newImportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildService wires config, store and policy into a ready service. The
// returned cleanup closes the store when one was opened.
func buildService() (*library.Service, func(), error) {
	cfg, err := library.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	var repo library.Repository
	cleanup := func() {}
	if cfg.DBPath != "" {
		store, err := library.NewSQLiteRepository(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		repo = store
		cleanup = func() { store.Close() }
	} else {
		repo = library.NewInMemoryRepository()
	}

	return library.NewService(repo, library.WithPolicy(cfg.Policy)), cleanup, nil
}
