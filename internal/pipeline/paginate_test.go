package pipeline

import (
	"testing"
)

func TestPaginateBasics(t *testing.T) {
	ps := Paginate(95, 10, 1)
	if ps.PageCount != 10 {
		t.Fatalf("page_count = %d, want 10", ps.PageCount)
	}
	if ps.Start != 0 || ps.End != 10 {
		t.Fatalf("slice = [%d,%d), want [0,10)", ps.Start, ps.End)
	}
	last := Paginate(95, 10, 10)
	if last.Start != 90 || last.End != 95 {
		t.Fatalf("last slice = [%d,%d), want [90,95)", last.Start, last.End)
	}
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	ps := Paginate(30, 10, 99)
	if ps.Page != 3 {
		t.Fatalf("page = %d, want clamp to 3", ps.Page)
	}
	if ps.End-ps.Start == 0 {
		t.Fatalf("clamped page returned empty slice [%d,%d)", ps.Start, ps.End)
	}
	ps = Paginate(30, 10, 0)
	if ps.Page != 1 {
		t.Fatalf("page = %d, want clamp to 1", ps.Page)
	}
}

func TestPaginateEmptyTotal(t *testing.T) {
	ps := Paginate(0, 10, 1)
	if ps.PageCount != 1 {
		t.Fatalf("page_count = %d, want 1 even when empty", ps.PageCount)
	}
	if ps.Start != 0 || ps.End != 0 {
		t.Fatalf("slice = [%d,%d), want empty", ps.Start, ps.End)
	}
}

func TestSortRowsDescByDate(t *testing.T) {
	rows := []Row{
		{Idx: 0, Fields: map[string]any{"date": "2025-01-10"}},
		{Idx: 1, Fields: map[string]any{"date": "2025-01-12"}},
		{Idx: 2, Fields: map[string]any{"date": "junk", "created_at": "2025-01-11T09:00:00Z"}},
		{Idx: 3, Fields: map[string]any{"date": "junk"}},
	}
	SortRowsDesc(rows, "date", DateParser{})
	want := []int{1, 2, 0, 3}
	for i, w := range want {
		if rows[i].Idx != w {
			t.Fatalf("order = %v, want %v", rowIdxs(rows), want)
		}
	}
}

func TestSortRowsDescStableOnTies(t *testing.T) {
	rows := []Row{
		{Idx: 0, Fields: map[string]any{"date": "2025-01-10"}},
		{Idx: 1, Fields: map[string]any{"date": "2025-01-10"}},
		{Idx: 2, Fields: map[string]any{"date": "2025-01-10"}},
	}
	SortRowsDesc(rows, "date", DateParser{})
	for i := range rows {
		if rows[i].Idx != i {
			t.Fatalf("tied rows reordered: %v", rowIdxs(rows))
		}
	}
}

func rowIdxs(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Idx
	}
	return out
}
