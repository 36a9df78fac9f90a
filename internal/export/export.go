// Package export writes the final record sequence as a tabular artifact.
// Canonical columns come first in fixed order; bank-specific extra columns
// are appended after them.
package export

import (
	"fmt"
	"strings"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// Format selects the output artifact type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a --format value or a filename extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or xlsx)", s)
	}
}

// Write renders the records to path in the given format.
func Write(path string, format Format, records []statement.Record, extraFields []string) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(path, records, extraFields)
	default:
		return writeCSV(path, records, extraFields)
	}
}

// headerRow returns the output column names in order.
func headerRow(extraFields []string) []string {
	header := []string{"transaction_id", "date", "description", "debit", "credit", "running_balance", "reference"}
	return append(header, extraFields...)
}

// recordRow renders one record. Null numerics and blank dates become empty
// cells; amounts carry two decimals.
func recordRow(rec statement.Record, extraFields []string) []string {
	row := []string{
		fmt.Sprintf("%d", rec.TransactionID),
		rec.Date,
		rec.Description,
		moneyCell(rec.Debit),
		moneyCell(rec.Credit),
		moneyCell(rec.RunningBalance),
		rec.Reference,
	}
	for _, field := range extraFields {
		row = append(row, rec.Extra[field])
	}
	return row
}

func moneyCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
