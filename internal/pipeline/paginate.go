package pipeline

import (
	"sort"
	"time"
)

// PageSlice is a resolved pagination window. Page is clamped into
// [1, PageCount]; Start/End are slice bounds over the sorted row set.
type PageSlice struct {
	Page      int `json:"page"`
	PageCount int `json:"page_count"`
	PageSize  int `json:"page_size"`
	Total     int `json:"total"`
	Start     int `json:"-"`
	End       int `json:"-"`
}

// Paginate resolves a requested page against a total row count. Out-of-range
// page numbers clamp to the nearest valid page rather than returning an empty
// slice.
func Paginate(total, pageSize, page int) PageSlice {
	if pageSize < 1 {
		pageSize = 1
	}
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	start := (page - 1) * pageSize
	end := page * pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}
	return PageSlice{Page: page, PageCount: pageCount, PageSize: pageSize, Total: total, Start: start, End: end}
}

// rowSortTime extracts the ordering timestamp for one row: the bet date when
// parseable, else the created_at field, else nothing.
func rowSortTime(r Row, dateField string, parser DateParser) *time.Time {
	if t, ok, _ := parser.Parse(r.Fields[dateField]); ok {
		return &t
	}
	if raw, ok := r.Fields["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			return &t
		}
		if t, ok, _ := parser.Parse(raw); ok {
			return &t
		}
	}
	return nil
}

// SortRowsDesc orders rows newest-first. Rows without any usable timestamp
// sink to the end in original index order.
func SortRowsDesc(rows []Row, dateField string, parser DateParser) {
	type keyed struct {
		row Row
		t   *time.Time
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		ks[i] = keyed{row: r, t: rowSortTime(r, dateField, parser)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		ti, tj := ks[i].t, ks[j].t
		switch {
		case ti != nil && tj != nil:
			return ti.After(*tj)
		case ti != nil:
			return true
		case tj != nil:
			return false
		default:
			return ks[i].row.Idx < ks[j].row.Idx
		}
	})
	for i := range ks {
		rows[i] = ks[i].row
	}
}
