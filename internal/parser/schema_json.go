package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// rowsSchemaJSON builds a JSON Schema document for an array of row objects
// matching the detected statement schema. Every standardized field must be
// present as a key (null is allowed); value types follow the column type,
// with strings admitted for monetary columns because the normalizer coerces
// them downstream.
func rowsSchemaJSON(s *statement.Schema) json.RawMessage {
	properties := make(map[string]any, len(s.Columns))
	required := make([]string, 0, len(s.Columns))

	for _, col := range s.Columns {
		properties[col.StandardizedField] = map[string]any{
			"type": fieldTypes(col.DataType),
		}
		required = append(required, col.StandardizedField)
	}

	doc := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		// Map of plain values; cannot fail.
		panic(fmt.Sprintf("marshal rows schema: %v", err))
	}
	return raw
}

func fieldTypes(t statement.ColumnType) []string {
	switch t {
	case statement.ColumnDebit, statement.ColumnCredit, statement.ColumnBalance, statement.ColumnNumeric:
		return []string{"number", "string", "null"}
	case statement.ColumnDate, statement.ColumnDescription, statement.ColumnReference, statement.ColumnText:
		return []string{"string", "null"}
	default:
		return []string{"string", "number", "null"}
	}
}

// validateRows checks decoded row objects against the JSON Schema derived
// from the statement schema.
func validateRows(rows []map[string]any, s *statement.Schema) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rows.json", bytes.NewReader(rowsSchemaJSON(s))); err != nil {
		return fmt.Errorf("failed to load rows schema: %w", err)
	}
	compiled, err := compiler.Compile("rows.json")
	if err != nil {
		return fmt.Errorf("failed to compile rows schema: %w", err)
	}

	// Round-trip through any-slices so the validator sees plain JSON values.
	doc := make([]any, len(rows))
	for i, row := range rows {
		doc[i] = row
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("rows do not match statement schema: %v", err)
	}
	return nil
}
