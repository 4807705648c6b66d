package pipeline

import (
	"strings"
)

// Candidate names for the event-identifying column, tried in order.
var matchFieldCandidates = []string{"match", "event", "fixture", "game"}

// Dedupe collapses rows describing the same real-world event (same match, same
// day) down to their first occurrence. Re-ingested summaries can carry the
// same bet twice; the earliest row wins. When no match-like field or no date
// field exists the document passes through untouched.
func Dedupe(doc Document, dateField string, parser DateParser) Document {
	lists := listFields(doc)

	var matches []any
	for _, name := range matchFieldCandidates {
		if arr, ok := lists[name]; ok {
			matches = arr
			break
		}
	}
	if matches == nil {
		return doc
	}
	if strings.TrimSpace(dateField) == "" {
		dateField = DefaultDateField
	}
	dates, ok := lists[dateField]
	if !ok {
		return doc
	}

	n := effectiveLen(lists)
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		day := "n/a"
		if d, dok, _ := parser.Parse(dates[i]); dok {
			day = d.Format("2006-01-02")
		}
		key := strings.ToLower(asString(matches[i])) + "||" + day
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	out := make(Document, len(doc))
	for k, v := range doc {
		if _, isList := lists[k]; isList {
			continue
		}
		out[k] = v
	}
	for k, arr := range lists {
		sub := make([]any, 0, len(keep))
		for _, idx := range keep {
			if idx < len(arr) {
				sub = append(sub, arr[idx])
			}
		}
		out[k] = sub
	}
	out["total_rows"] = len(keep)
	return out
}
