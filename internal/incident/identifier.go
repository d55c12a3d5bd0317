package incident

import (
	"context"
	"fmt"
	"net/url"
)

// Kind distinguishes the two shapes a caller-supplied incident identifier
// can take.
type Kind int

const (
	// KindInternalKey is the instance's permanent primary key: exactly 32
	// lowercase hex characters (a sys_id).
	KindInternalKey Kind = iota
	// KindTicketNumber is a human-readable identifier such as INC0010001.
	// Anything that is not an internal key is treated as a ticket number.
	KindTicketNumber
)

// Identifier is a classified incident identifier.
type Identifier struct {
	Raw  string
	Kind Kind
}

// Classify decides whether the given identifier is an internal key or a
// ticket number requiring lookup. The input is never modified.
func Classify(s string) Identifier {
	if isInternalKey(s) {
		return Identifier{Raw: s, Kind: KindInternalKey}
	}
	return Identifier{Raw: s, Kind: KindTicketNumber}
}

func isInternalKey(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// NotFoundError reports that identifier resolution matched zero records.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("incident not found: %s", e.Identifier)
}

// Resolver turns a caller-supplied identifier into a sys_id. Ticket numbers
// are looked up with a single query; internal keys pass through untouched.
// Results are never cached: tickets are mutable, so every resolution hits
// the instance.
type Resolver struct {
	client Client
}

// NewResolver creates a resolver backed by the given client.
func NewResolver(c Client) *Resolver {
	return &Resolver{client: c}
}

// Resolve returns the sys_id for the given identifier. A ticket number that
// matches no record yields a *NotFoundError; transport failures are returned
// wrapped.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (string, error) {
	id := Classify(identifier)
	if id.Kind == KindInternalKey {
		return id.Raw, nil
	}

	query := url.Values{
		"sysparm_query": {"number=" + id.Raw},
		"sysparm_limit": {"1"},
	}
	var resp listEnvelope
	if err := r.client.Get(ctx, incidentTable, query, &resp); err != nil {
		return "", fmt.Errorf("resolve %s: %w", id.Raw, err)
	}
	if len(resp.Result) == 0 {
		return "", &NotFoundError{Identifier: id.Raw}
	}

	sysID, _ := resp.Result[0]["sys_id"].(string)
	if sysID == "" {
		return "", fmt.Errorf("resolve %s: record has no sys_id", id.Raw)
	}
	return sysID, nil
}
