package pipeline

import (
	"testing"
)

func TestDedupeFirstOccurrenceWins(t *testing.T) {
	doc := Document{
		"liquidity":   []any{3000.0, 1500.0, 2500.0},
		"payout_rate": []any{120.0, 80.0, 110.0},
		"match":       []any{"PSG - OM", "psg - om", "Nadal - Federer"},
		"date":        []any{"2025-01-10", "2025-01-10", "2025-01-10"},
		"stake":       []any{10.0, 99.0, 5.0},
	}
	out := Dedupe(doc, "date", DateParser{})
	stakes, ok := out["stake"].([]any)
	if !ok || len(stakes) != 2 {
		t.Fatalf("stake after dedupe = %v, want 2 rows", out["stake"])
	}
	if stakes[0] != 10.0 {
		t.Fatalf("kept row stake = %v, want first occurrence 10", stakes[0])
	}
	if out["total_rows"] != 2 {
		t.Fatalf("total_rows = %v, want 2", out["total_rows"])
	}
}

func TestDedupeSameMatchDifferentDayKept(t *testing.T) {
	doc := Document{
		"match": []any{"PSG - OM", "PSG - OM"},
		"date":  []any{"2025-01-10", "2025-01-11"},
	}
	out := Dedupe(doc, "date", DateParser{})
	if out["total_rows"] != 2 {
		t.Fatalf("rows on different days collapsed: total_rows = %v", out["total_rows"])
	}
}

func TestDedupeMatchFieldAliases(t *testing.T) {
	doc := Document{
		"fixture": []any{"A vs B", "A vs B"},
		"date":    []any{"2025-01-10", "2025-01-10"},
	}
	out := Dedupe(doc, "date", DateParser{})
	if out["total_rows"] != 1 {
		t.Fatalf("fixture alias not used: total_rows = %v", out["total_rows"])
	}
}

func TestDedupeNoMatchFieldIsNoop(t *testing.T) {
	doc := Document{
		"liquidity": []any{1.0, 2.0},
		"date":      []any{"2025-01-10", "2025-01-10"},
	}
	out := Dedupe(doc, "date", DateParser{})
	if _, has := out["total_rows"]; has {
		t.Fatalf("no-op dedupe should return input unchanged, got %v", out)
	}
}

func TestDedupeNoDateFieldIsNoop(t *testing.T) {
	doc := Document{
		"match": []any{"A", "A"},
	}
	out := Dedupe(doc, "date", DateParser{})
	if arr, ok := out["match"].([]any); !ok || len(arr) != 2 {
		t.Fatalf("no-op dedupe should keep both rows, got %v", out["match"])
	}
}

func TestDedupeUnparseableDatesShareKey(t *testing.T) {
	doc := Document{
		"match": []any{"A", "A", "B"},
		"date":  []any{"junk", "junk", "junk"},
	}
	out := Dedupe(doc, "date", DateParser{})
	if out["total_rows"] != 2 {
		t.Fatalf("undated duplicates should collapse per match: total_rows = %v", out["total_rows"])
	}
}
