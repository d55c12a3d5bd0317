package incident

import "fmt"

// priorityCodes maps the human priority tokens to the instance's numeric
// priority scale.
var priorityCodes = map[string]string{
	"PX": "-1",
	"P0": "1",
	"P1": "2",
	"P2": "3",
	"P3": "4",
	"P4": "5",
}

// InvalidPriorityError reports a priority token that is neither numeric nor
// a known code. Upstream schema validation restricts the field to P0-P4, PX,
// or a single digit, so hitting this indicates a defect, not bad user input.
type InvalidPriorityError struct {
	Token string
}

func (e *InvalidPriorityError) Error() string {
	return fmt.Sprintf("invalid priority token %q (expected P0-P4, PX, or a numeric priority)", e.Token)
}

// NumericPriority translates a priority token to the instance's numeric
// scale. Tokens that are already numeric pass through unchanged.
func NumericPriority(token string) (string, error) {
	if isDigits(token) {
		return token, nil
	}
	if n, ok := priorityCodes[token]; ok {
		return n, nil
	}
	return "", &InvalidPriorityError{Token: token}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
