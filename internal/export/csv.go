package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// writeCSV renders the records as a CSV file with a header row.
func writeCSV(path string, records []statement.Record, extraFields []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headerRow(extraFields)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec, extraFields)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", rec.TransactionID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return f.Close()
}
