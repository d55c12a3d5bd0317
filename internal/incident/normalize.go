package incident

// normalizeRecord collapses reference-type fields that arrive as a
// {value, display_value} pair down to their display value. Scalar fields
// pass through unchanged. assigned_to is the usual case, but any reference
// field rendered this way gets the same treatment.
func normalizeRecord(rec Record) Record {
	out := make(Record, len(rec))
	for key, value := range rec {
		if ref, ok := value.(map[string]any); ok {
			if display, ok := ref["display_value"]; ok {
				out[key] = display
				continue
			}
		}
		out[key] = value
	}
	return out
}
