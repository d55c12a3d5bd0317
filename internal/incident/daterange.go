package incident

import (
	"fmt"
	"strings"
)

// DateRange bounds a date field from either or both sides. Values are either
// bare dates (YYYY-MM-DD) or full datetimes (YYYY-MM-DD HH:MM:SS).
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// dateFilterClause renders a date-range predicate for the given field in the
// instance's encoded-query syntax. Bare dates expand to the start or end of
// the day so single-day filters cover the whole day. Returns "" when both
// bounds are absent.
func dateFilterClause(field string, r DateRange) string {
	switch {
	case r.From != "" && r.To != "":
		return fmt.Sprintf("%sBETWEEN%s@%s", field, dateGenerate(r.From, false), dateGenerate(r.To, true))
	case r.From != "":
		return fmt.Sprintf("%s>=%s", field, dateGenerate(r.From, false))
	case r.To != "":
		return fmt.Sprintf("%s<=%s", field, dateGenerate(r.To, true))
	default:
		return ""
	}
}

// dateGenerate wraps a normalized datetime in the instance's script-evaluated
// date literal. The date and time parts are separate arguments to the call.
func dateGenerate(value string, endOfRange bool) string {
	if len(value) == 10 { // bare YYYY-MM-DD
		if endOfRange {
			value += " 23:59:59"
		} else {
			value += " 00:00:00"
		}
	}
	return "javascript:gs.dateGenerate('" + strings.Replace(value, " ", "','", 1) + "')"
}
