package incident

import (
	"sort"
	"strings"
)

// ListFilter constrains incident list queries. Zero values mean "no
// constraint on this dimension"; present filters combine with logical AND.
type ListFilter struct {
	Limit       int
	Offset      int
	State       string
	AssignedTo  string
	Category    string
	Priority    string // numeric "1"-"5" or token P0-P4/PX
	Number      string // INC followed by 7 digits
	Query       string // free-text search over short_description and description
	DateFilters map[string]DateRange
}

// EncodedQuery assembles the filter into the instance's encoded-query
// string. Clauses appear in a fixed order and are joined with ^ (AND); an
// empty filter yields the empty string. The only error is an invalid
// priority token, which signals a defect in the calling schema layer.
func (f ListFilter) EncodedQuery() (string, error) {
	var clauses []string

	if f.State != "" {
		clauses = append(clauses, "state="+f.State)
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "assigned_to="+f.AssignedTo)
	}
	if f.Category != "" {
		clauses = append(clauses, "category="+f.Category)
	}
	if f.Priority != "" {
		numeric, err := NumericPriority(f.Priority)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "priority="+numeric)
	}
	if f.Number != "" {
		clauses = append(clauses, "number="+f.Number)
	}
	if f.Query != "" {
		term := sanitizeTerm(f.Query)
		if term != "" {
			clauses = append(clauses, "short_descriptionLIKE"+term+"^ORdescriptionLIKE"+term)
		}
	}

	// Sorted field order keeps the rendered query stable; Go randomizes map
	// iteration and all clauses are AND-ed, so order carries no semantics.
	fields := make([]string, 0, len(f.DateFilters))
	for field := range f.DateFilters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if clause := dateFilterClause(field, f.DateFilters[field]); clause != "" {
			clauses = append(clauses, clause)
		}
	}

	return strings.Join(clauses, "^"), nil
}

// sanitizeTerm strips encoded-query metacharacters from a free-text search
// term so caller input cannot splice extra clauses into the query.
func sanitizeTerm(s string) string {
	return strings.ReplaceAll(s, "^", "")
}
