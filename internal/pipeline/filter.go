package pipeline

import (
	"strings"
	"time"
)

const DefaultDateField = "date"

// Params is the immutable predicate set applied to one summary document.
// Numeric bounds are inclusive lower bounds, categorical sets match
// case-insensitively, date bounds are inclusive at day granularity.
type Params struct {
	LiquidityMin *float64
	PayoutMin    *float64
	EVMin        *float64
	Sports       []string
	Bookmakers   []string
	DateMin      string
	DateMax      string
	DateField    string
}

func (p Params) dateField() string {
	if strings.TrimSpace(p.DateField) == "" {
		return DefaultDateField
	}
	return p.DateField
}

func (p Params) hasDateWindow() bool {
	return strings.TrimSpace(p.DateMin) != "" || strings.TrimSpace(p.DateMax) != ""
}

// Filtered is the outcome of running a document through the columnar filter:
// the source document plus the surviving indices, re-serializable as either a
// reduced columnar document or a flat row list.
type Filtered struct {
	source    Document
	params    Params
	survivors []int
	dateMin   *time.Time
	dateMax   *time.Time
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Filter applies params to doc and returns the surviving row set.
// Structural preconditions (required arrays missing) fail the whole call;
// per-row anomalies only drop the row.
func Filter(doc Document, params Params, parser DateParser) (*Filtered, error) {
	lists := listFields(doc)

	liquidity, ok := lists["liquidity"]
	if !ok {
		return nil, schemaErrf("summary document is missing required array field %q", "liquidity")
	}
	payout, ok := lists["payout_rate"]
	if !ok {
		return nil, schemaErrf("summary document is missing required array field %q", "payout_rate")
	}

	var ev []any
	if params.EVMin != nil {
		if ev, ok = lists["ev"]; !ok {
			return nil, schemaErrf("ev filter requested but %q is not an array field", "ev")
		}
	}

	sportSet := toSet(params.Sports)
	var sports []any
	if sportSet != nil {
		if sports, ok = lists["sport"]; !ok {
			return nil, schemaErrf("sport filter requested but %q is not an array field", "sport")
		}
	}

	bookmakerSet := toSet(params.Bookmakers)
	var bookmakers []any
	if bookmakerSet != nil {
		if bookmakers, ok = lists["bookmaker"]; !ok {
			return nil, schemaErrf("bookmaker filter requested but %q is not an array field", "bookmaker")
		}
	}

	f := &Filtered{source: doc, params: params}

	var dates []any
	if params.hasDateWindow() {
		field := params.dateField()
		if dates, ok = lists[field]; !ok {
			return nil, schemaErrf("date filter requested but %q is not an array field", field)
		}
		if raw := strings.TrimSpace(params.DateMin); raw != "" {
			t, dok, err := parser.Parse(raw)
			if err != nil {
				return nil, err
			}
			if dok {
				f.dateMin = &t
			}
		}
		if raw := strings.TrimSpace(params.DateMax); raw != "" {
			t, dok, err := parser.Parse(raw)
			if err != nil {
				return nil, err
			}
			if dok {
				f.dateMax = &t
			}
		}
	}

	n := effectiveLen(lists)
	for i := 0; i < n; i++ {
		if liquidity[i] == nil || payout[i] == nil {
			continue
		}
		if params.LiquidityMin != nil {
			v, fok := asFloat(liquidity[i])
			if !fok || v < *params.LiquidityMin {
				continue
			}
		}
		if params.PayoutMin != nil {
			v, fok := asFloat(payout[i])
			if !fok || v < *params.PayoutMin {
				continue
			}
		}
		if params.EVMin != nil {
			v, fok := asFloat(ev[i])
			if !fok || v < *params.EVMin {
				continue
			}
		}
		if sportSet != nil {
			if _, hit := sportSet[strings.ToLower(asString(sports[i]))]; !hit {
				continue
			}
		}
		if bookmakerSet != nil {
			if _, hit := bookmakerSet[strings.ToLower(asString(bookmakers[i]))]; !hit {
				continue
			}
		}
		if f.dateMin != nil || f.dateMax != nil {
			d, dok, err := parser.Parse(dates[i])
			if err != nil {
				return nil, err
			}
			if !dok {
				continue
			}
			if f.dateMin != nil && d.Before(*f.dateMin) {
				continue
			}
			if f.dateMax != nil && d.After(*f.dateMax) {
				continue
			}
		}
		f.survivors = append(f.survivors, i)
	}

	return f, nil
}

// Survivors returns the surviving original indices in ascending order.
func (f *Filtered) Survivors() []int {
	return f.survivors
}

// Rows materializes one Row per surviving index, in original order.
func (f *Filtered) Rows() []Row {
	lists := listFields(f.source)
	rows := make([]Row, 0, len(f.survivors))
	for _, idx := range f.survivors {
		fields := make(map[string]any, len(lists))
		for k, arr := range lists {
			if idx < len(arr) {
				fields[k] = arr[idx]
			}
		}
		rows = append(rows, Row{Idx: idx, Fields: fields})
	}
	return rows
}

// Doc re-serializes the filtered result as a columnar document: scalar fields
// copied verbatim, list fields reduced to the surviving subsequence, plus
// total_rows and an applied_filters echo.
func (f *Filtered) Doc() Document {
	lists := listFields(f.source)
	out := make(Document, len(f.source)+2)
	for k, v := range f.source {
		if _, isList := lists[k]; isList {
			continue
		}
		out[k] = v
	}
	for k, arr := range lists {
		sub := make([]any, 0, len(f.survivors))
		for _, idx := range f.survivors {
			if idx < len(arr) {
				sub = append(sub, arr[idx])
			}
		}
		out[k] = sub
	}

	out["total_rows"] = len(f.survivors)
	out["applied_filters"] = f.AppliedFilters()

	// Legacy convention: documents carrying a counts sub-object keep its
	// *_count entries in sync with the reduced list fields, and total_rows
	// tracks the widest list instead of the survivor count.
	if counts, ok := f.source["counts"].(map[string]any); ok {
		refreshed := make(map[string]any, len(counts))
		for key, val := range counts {
			base, isCount := strings.CutSuffix(key, "_count")
			if !isCount {
				refreshed[key] = val
				continue
			}
			if arr, isList := out[base].([]any); isList {
				refreshed[key] = len(arr)
			} else {
				refreshed[key] = val
			}
		}
		out["counts"] = refreshed
		if _, had := f.source["total_rows"]; had {
			maxLen := 0
			for k := range lists {
				if arr, isList := out[k].([]any); isList && len(arr) > maxLen {
					maxLen = len(arr)
				}
			}
			out["total_rows"] = maxLen
		}
	}

	return out
}

// AppliedFilters echoes the literal input bounds plus ISO renderings of the
// resolved date bounds.
func (f *Filtered) AppliedFilters() map[string]any {
	echo := map[string]any{
		"date_field": f.params.dateField(),
	}
	if f.params.LiquidityMin != nil {
		echo["liquidity_min"] = *f.params.LiquidityMin
	}
	if f.params.PayoutMin != nil {
		echo["payout_min"] = *f.params.PayoutMin
	}
	if f.params.EVMin != nil {
		echo["ev_min"] = *f.params.EVMin
	}
	if len(f.params.Sports) > 0 {
		echo["sports"] = f.params.Sports
	}
	if len(f.params.Bookmakers) > 0 {
		echo["bookmakers"] = f.params.Bookmakers
	}
	if f.params.DateMin != "" {
		echo["date_min"] = f.params.DateMin
	}
	if f.params.DateMax != "" {
		echo["date_max"] = f.params.DateMax
	}
	if f.dateMin != nil {
		echo["date_min_iso"] = f.dateMin.Format("2006-01-02")
	}
	if f.dateMax != nil {
		echo["date_max_iso"] = f.dateMax.Format("2006-01-02")
	}
	return echo
}
