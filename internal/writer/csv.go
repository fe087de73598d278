package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// CSVWriter writes processed statements to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the statement to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, stmt *models.ProcessedStatement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}

	if err := w.Write(f, stmt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes the statement rows in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.ProcessedStatement) error {
	writer := csv.NewWriter(out)

	// Metadata as comment rows ahead of the column headers
	if w.IncludeHeader {
		for _, row := range metadataRows(stmt.Metadata) {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(stmt.Headers()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range stmt.Rows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func metadataRows(meta models.StatementMetadata) [][]string {
	var rows [][]string
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, []string{label, value})
		}
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	add("# Bank", meta.BankName)
	add("# Account Holder", deref(meta.AccountHolder))
	add("# Account Number", deref(meta.AccountNumber))
	if meta.StatementPeriod != "Unknown" {
		add("# Statement Period", meta.StatementPeriod)
	}
	add("# Due Date", deref(meta.DueDate))
	add("# Balance", meta.Balance)
	return rows
}
