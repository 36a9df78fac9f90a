// Package statement defines the data model shared across the extraction
// pipeline: the detected column schema, transaction records, and the
// page-to-page context threaded through sequential extraction.
package statement

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnType classifies what kind of data a statement column holds.
type ColumnType string

const (
	ColumnDate        ColumnType = "date"
	ColumnDescription ColumnType = "description"
	ColumnDebit       ColumnType = "debit"
	ColumnCredit      ColumnType = "credit"
	ColumnBalance     ColumnType = "balance"
	ColumnReference   ColumnType = "reference"
	ColumnText        ColumnType = "text"
	ColumnNumeric     ColumnType = "numeric"
)

// CanonicalFields are the standardized field names every bank maps onto.
// Columns outside this set land in Record.Extra.
var CanonicalFields = []string{"date", "description", "debit", "credit", "running_balance", "reference"}

// ColumnDescriptor maps one source table column to a standardized field.
type ColumnDescriptor struct {
	Position          int        `json:"position"` // 1-based, unique and contiguous within a schema
	HeaderName        string     `json:"header_name"`
	DataType          ColumnType `json:"data_type"`
	StandardizedField string     `json:"standardized_field"`
}

// Schema is the detected column structure for one document. It is created
// once by schema detection and read-only for the rest of the run.
type Schema struct {
	TableFound bool               `json:"table_found"`
	Columns    []ColumnDescriptor `json:"columns"`
}

// Normalize sorts columns by position and disambiguates duplicate
// standardized field names by suffixing their ordinal position. It must be
// called before Validate on model-proposed column lists.
func (s *Schema) Normalize() {
	sort.Slice(s.Columns, func(i, j int) bool {
		return s.Columns[i].Position < s.Columns[j].Position
	})

	seen := make(map[string]int, len(s.Columns))
	for i := range s.Columns {
		col := &s.Columns[i]
		col.StandardizedField = strings.TrimSpace(col.StandardizedField)
		if col.StandardizedField == "" {
			col.StandardizedField = fmt.Sprintf("column_%d", col.Position)
		}
		if _, dup := seen[col.StandardizedField]; dup {
			col.StandardizedField = fmt.Sprintf("%s_%d", col.StandardizedField, col.Position)
		}
		seen[col.StandardizedField] = i
	}
}

// Validate checks the schema invariants: positions form a contiguous 1..N
// range and standardized field names are pairwise distinct.
func (s *Schema) Validate() error {
	if !s.TableFound {
		return fmt.Errorf("schema: no table found")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema: table found but column list is empty")
	}

	positions := make(map[int]bool, len(s.Columns))
	fields := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		if positions[col.Position] {
			return fmt.Errorf("schema: duplicate column position %d", col.Position)
		}
		positions[col.Position] = true
		if fields[col.StandardizedField] {
			return fmt.Errorf("schema: duplicate standardized field %q", col.StandardizedField)
		}
		fields[col.StandardizedField] = true
	}
	for p := 1; p <= len(s.Columns); p++ {
		if !positions[p] {
			return fmt.Errorf("schema: column positions not contiguous, missing %d", p)
		}
	}
	return nil
}

// Field returns the descriptor for a standardized field name, if present.
func (s *Schema) Field(name string) (ColumnDescriptor, bool) {
	for _, col := range s.Columns {
		if col.StandardizedField == name {
			return col, true
		}
	}
	return ColumnDescriptor{}, false
}

// ExtraFields returns the standardized field names outside the canonical
// set, in column order. These become bank-specific output columns.
func (s *Schema) ExtraFields() []string {
	canonical := make(map[string]bool, len(CanonicalFields))
	for _, f := range CanonicalFields {
		canonical[f] = true
	}

	var extras []string
	for _, col := range s.Columns {
		if !canonical[col.StandardizedField] {
			extras = append(extras, col.StandardizedField)
		}
	}
	return extras
}
