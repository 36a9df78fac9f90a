package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

func f64(v float64) *float64 { return &v }

func sampleRecords() []statement.Record {
	return []statement.Record{
		{
			TransactionID:  1,
			Date:           "2024-01-01",
			Description:    "SALARY CREDIT",
			Credit:         f64(50000),
			RunningBalance: f64(75000),
			Reference:      "SAL001",
			Extra:          map[string]string{"branch": "MAIN"},
		},
		{
			TransactionID: 2,
			Description:   "MEMO ROW",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"parquet", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Write(path, FormatCSV, sampleRecords(), []string{"branch"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 records", len(rows))
	}

	wantHeader := []string{"transaction_id", "date", "description", "debit", "credit", "running_balance", "reference", "branch"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	first := rows[1]
	if first[0] != "1" || first[4] != "50000.00" || first[7] != "MAIN" {
		t.Errorf("first row = %v", first)
	}

	// Null numerics and blank dates render as empty cells.
	second := rows[2]
	if second[1] != "" || second[3] != "" || second[4] != "" || second[5] != "" {
		t.Errorf("second row = %v, want empty cells for nulls", second)
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := Write(path, FormatXLSX, sampleRecords(), nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("workbook is empty")
	}
}
