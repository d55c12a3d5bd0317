package incident

// Record is an incident as returned by the instance: an open-ended field
// mapping whose reference fields have been collapsed to display values.
type Record map[string]any

// Response is the uniform envelope returned by every mutating operation.
// IncidentID and IncidentNumber are set only on success.
type Response struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	IncidentID     string `json:"incident_id,omitempty"`
	IncidentNumber string `json:"incident_number,omitempty"`
}

// ListResponse is the envelope returned by the list operation. Incidents is
// always present, and empty on failure.
type ListResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Incidents []Record `json:"incidents"`
}

// Wire shapes of the Table API: single records arrive as {"result": {...}},
// lists as {"result": [...]}.

type recordEnvelope struct {
	Result recordResult `json:"result"`
}

type recordResult struct {
	SysID  string `json:"sys_id"`
	Number string `json:"number"`
}

type listEnvelope struct {
	Result []Record `json:"result"`
}
