package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/// Document is one decoded summary payload: scalar metadata plus parallel
// arrays, one entry per historical bet, aligned by index.
type Document map[string]any

// SchemaError marks a structural precondition failure (required array missing
// or mistyped). Handlers translate it to a client error; per-row data-quality
// problems never produce one.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string { return e.msg }

func schemaErrf(format string, args ...any) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

// Row is one reconstructed bet. It serializes flat: {"idx": i, "<field>": ...}.
type Row struct {
	Idx    int
	Fields map[string]any
}

func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["idx"] = r.Idx
	return json.Marshal(out)
}

// DecodeDocument unmarshals a stored JSONB payload.
func DecodeDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode summary payload: %w", err)
	}
	return doc, nil
}

// listFields returns every key whose value is an array, preserving nothing
// about order; callers that need determinism sort the keys.
func listFields(doc Document) map[string][]any {
	out := make(map[string][]any)
	for k, v := range doc {
		if arr, ok := v.([]any); ok {
			out[k] = arr
		}
	}
	return out
}

// effectiveLen is the minimum length across all list fields. Iterating past it
// would read bets that were only partially written.
func effectiveLen(lists map[string][]any) int {
	n := -1
	for _, arr := range lists {
		if n < 0 || len(arr) < n {
			n = len(arr)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// docRows materializes one Row per index across the document's list fields.
func docRows(doc Document) []Row {
	lists := listFields(doc)
	n := effectiveLen(lists)
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		fields := make(map[string]any, len(lists))
		for k, arr := range lists {
			fields[k] = arr[i]
		}
		rows = append(rows, Row{Idx: i, Fields: fields})
	}
	return rows
}

// asFloat coerces a JSON value to a finite float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asString coerces a JSON value to a string; missing or non-string values come
// back as "" so they fail any non-empty categorical check.
func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
