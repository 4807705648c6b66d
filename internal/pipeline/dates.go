package pipeline

import (
	"regexp"
	"strconv"
	"time"
)

// DateParser turns the heterogeneous date representations found in summary
// documents into day-truncated UTC dates. The two pipeline variants disagree
// on failure handling: the dashboard treats an unrecognized date as a request
// error, the history pipeline treats it as "row not datable" and moves on.
// Strict selects between the two.
type DateParser struct {
	Strict bool
}

type dateFormat struct {
	re    *regexp.Regexp
	year  int
	month int
	day   int
}

// Tried in order; first shape match that survives the round-trip check wins.
var dateFormats = []dateFormat{
	{re: regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`), year: 1, month: 2, day: 3},
	{re: regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`), year: 3, month: 2, day: 1},
	{re: regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`), year: 3, month: 2, day: 1},
	{re: regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`), year: 3, month: 1, day: 2},
}

// Parse normalizes raw to a UTC date with the time of day discarded.
// ok reports whether a date was produced. In strict mode every failure is an
// error; in lenient mode failures come back as (zero, false, nil).
func (p DateParser) Parse(raw any) (time.Time, bool, error) {
	switch v := raw.(type) {
	case time.Time:
		return truncateDay(v), true, nil
	case string:
		for _, f := range dateFormats {
			m := f.re.FindStringSubmatch(v)
			if m == nil {
				continue
			}
			year, _ := strconv.Atoi(m[f.year])
			month, _ := strconv.Atoi(m[f.month])
			day, _ := strconv.Atoi(m[f.day])
			t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			// Round-trip: time.Date wraps impossible dates (Feb 30 -> Mar 1),
			// so a changed component means the candidate format lied.
			if t.Year() != year || int(t.Month()) != month || t.Day() != day {
				continue
			}
			return t, true, nil
		}
		if p.Strict {
			return time.Time{}, false, schemaErrf("unrecognized date format: %q", v)
		}
		return time.Time{}, false, nil
	default:
		if p.Strict {
			return time.Time{}, false, schemaErrf("unsupported date value of type %T", raw)
		}
		return time.Time{}, false, nil
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
