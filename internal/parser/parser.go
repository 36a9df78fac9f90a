// Package parser classifies raw model output into validated field maps or a
// typed failure. It is stateless and attempt-agnostic: the repair loop that
// re-drives the model lives in repair.go and is owned by callers.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

// Kind tags the outcome of one parse attempt.
type Kind int

const (
	// Ok means the text decoded and validated against the active schema.
	Ok Kind = iota
	// SchemaViolation means the text decoded but is missing or mistypes
	// fields required by the schema.
	SchemaViolation
	// Unparseable means no JSON structure could be decoded at all.
	Unparseable
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case SchemaViolation:
		return "schema_violation"
	case Unparseable:
		return "unparseable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of classifying one text blob.
type Result struct {
	Kind    Kind
	Records []statement.FieldMap // set when Kind == Ok
	Detail  string               // set when Kind == SchemaViolation
	Raw     string               // original text, kept for repair prompts
}

// OkResult wraps validated field maps.
func OkResult(records []statement.FieldMap, raw string) Result {
	return Result{Kind: Ok, Records: records, Raw: raw}
}

// Violation reports decodable-but-wrong-shaped output.
func Violation(detail, raw string) Result {
	return Result{Kind: SchemaViolation, Detail: detail, Raw: raw}
}

// Garbage reports output with no decodable JSON structure.
func Garbage(raw string) Result {
	return Result{Kind: Unparseable, Raw: raw}
}

// Parse decodes raw model text into a sequence of field maps and, when a
// schema is provided, validates each map against it. It accepts either a
// top-level JSON array of row objects or an object wrapping one under a
// "transactions" key, with lightweight recovery for markdown code fences
// and surrounding prose.
func Parse(raw string, schema *statement.Schema) Result {
	decoded, ok := decodeCandidate(raw)
	if !ok {
		return Garbage(raw)
	}

	rows, err := rowSlice(decoded)
	if err != nil {
		return Violation(err.Error(), raw)
	}

	if schema != nil {
		if err := validateRows(rows, schema); err != nil {
			return Violation(err.Error(), raw)
		}
	}

	records := make([]statement.FieldMap, 0, len(rows))
	for _, row := range rows {
		records = append(records, statement.FieldMap(row))
	}
	return OkResult(records, raw)
}

// Decode exposes the fence-tolerant JSON decode for callers with bespoke
// response shapes (schema detection).
func Decode(raw string) (any, bool) {
	return decodeCandidate(raw)
}

// decodeCandidate tries the raw text, then fence-stripped and
// bracket-extracted variants, returning the first that decodes.
func decodeCandidate(raw string) (any, bool) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil, false
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return parsed, true
		}
	}
	return nil, false
}

// rowSlice unwraps the decoded value into a slice of row objects.
func rowSlice(decoded any) ([]map[string]any, error) {
	var items []any
	switch v := decoded.(type) {
	case []any:
		items = v
	case map[string]any:
		inner, ok := v["transactions"]
		if !ok {
			return nil, fmt.Errorf("top-level object has no \"transactions\" key")
		}
		items, ok = inner.([]any)
		if !ok {
			return nil, fmt.Errorf("\"transactions\" is %T, want an array", inner)
		}
	default:
		return nil, fmt.Errorf("top-level JSON is %T, want an array of row objects", decoded)
	}

	rows := make([]map[string]any, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d is %T, want an object", i, item)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && arrayStart >= 0:
		if objectStart < arrayStart {
			start = objectStart
			closeChar = "}"
		} else {
			start = arrayStart
			closeChar = "]"
		}
	case objectStart >= 0:
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
