package tool

// Helpers for decoding the map[string]any parameter payloads agent
// frameworks hand to Execute. JSON numbers arrive as float64.

func getString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func getBool(params map[string]any, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}

func getInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// stringProp builds a string property schema.
func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}
