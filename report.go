package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"library-ledger/library"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the availability report and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := svc.AvailabilityReport()
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
}

func printReport(report *library.AvailabilityReport) {
	fmt.Println("\n=== AVAILABILITY REPORT ===")
	fmt.Printf(" Distinct titles:    %d\n", report.BookCount)
	fmt.Printf(" Copies in catalog:  %d\n", report.TotalBooks)
	fmt.Printf(" Copies on loan:     %d (%s%%)\n",
		report.TotalBorrowed, percentage(report.TotalBorrowed, report.TotalBooks))
	fmt.Printf(" Copies available:   %d (%s%%)\n",
		report.TotalAvailable, percentage(report.TotalAvailable, report.TotalBooks))

	if report.TotalBooks > 0 {
		fmt.Println("\n Visualization:")
		printBar("On loan", report.TotalBorrowed, report.TotalBooks, '█')
		printBar("Available", report.TotalAvailable, report.TotalBooks, '░')
	}
	fmt.Println("===========================")
}

func percentage(value, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(value)/float64(total)*100)
}

func printBar(label string, value, total int, symbol rune) {
	const maxBars = 30
	bars := 0
	if total > 0 {
		bars = int(float64(value)/float64(total)*maxBars + 0.5)
	}
	fmt.Printf("  %-12s [%s%s] %d/%d\n", label,
		strings.Repeat(string(symbol), bars), strings.Repeat("·", maxBars-bars), value, total)
}
