// Package tool exposes the incident operations as agent tools: each tool
// declares a JSON Schema for its parameters, validates and defaults incoming
// values, and returns the operation's response envelope as JSON.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/snowkit-io/snowkit/internal/incident"
)

var (
	priorityPattern = regexp.MustCompile(`^(P[0-4X]|[1-5])$`)
	numberPattern   = regexp.MustCompile(`^INC\d{7}$`)
)

const (
	minListLimit = 1
	maxListLimit = 1000
)

// RegisterIncidentTools registers all five incident tools against the given
// service.
func RegisterIncidentTools(r *Registry, svc *incident.Service) {
	r.Register(&CreateIncidentTool{Service: svc})
	r.Register(&UpdateIncidentTool{Service: svc})
	r.Register(&AddCommentTool{Service: svc})
	r.Register(&ResolveIncidentTool{Service: svc})
	r.Register(&ListIncidentsTool{Service: svc})
}

func marshalEnvelope(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal response: %w", err)
	}
	return string(data), nil
}

// --- CreateIncidentTool ---

type CreateIncidentTool struct {
	Service *incident.Service
}

func (t *CreateIncidentTool) Name() string        { return "create_incident" }
func (t *CreateIncidentTool) Description() string { return "Create a new incident in ServiceNow" }
func (t *CreateIncidentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"short_description": stringProp("Short description of the incident"),
			"description":       stringProp("Detailed description of the incident"),
			"caller_id":         stringProp("User who reported the incident"),
			"category":          stringProp("Category of the incident"),
			"subcategory":       stringProp("Subcategory of the incident"),
			"priority":          stringProp("Priority of the incident"),
			"impact":            stringProp("Impact of the incident"),
			"urgency":           stringProp("Urgency of the incident"),
			"assigned_to":       stringProp("User assigned to the incident"),
			"assignment_group":  stringProp("Group assigned to the incident"),
		},
		"required": []string{"short_description"},
	}
}

func (t *CreateIncidentTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	p := incident.CreateParams{
		ShortDescription: getString(params, "short_description"),
		Description:      getString(params, "description"),
		CallerID:         getString(params, "caller_id"),
		Category:         getString(params, "category"),
		Subcategory:      getString(params, "subcategory"),
		Priority:         getString(params, "priority"),
		Impact:           getString(params, "impact"),
		Urgency:          getString(params, "urgency"),
		AssignedTo:       getString(params, "assigned_to"),
		AssignmentGroup:  getString(params, "assignment_group"),
	}
	if p.ShortDescription == "" {
		return "", fmt.Errorf("create_incident: short_description is required")
	}
	return marshalEnvelope(t.Service.Create(ctx, p))
}

// --- UpdateIncidentTool ---

type UpdateIncidentTool struct {
	Service *incident.Service
}

func (t *UpdateIncidentTool) Name() string        { return "update_incident" }
func (t *UpdateIncidentTool) Description() string { return "Update an existing incident in ServiceNow" }
func (t *UpdateIncidentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"incident_id":       stringProp("Incident number or sys_id"),
			"short_description": stringProp("Short description of the incident"),
			"description":       stringProp("Detailed description of the incident"),
			"state":             stringProp("State of the incident"),
			"category":          stringProp("Category of the incident"),
			"subcategory":       stringProp("Subcategory of the incident"),
			"priority":          stringProp("Priority of the incident"),
			"impact":            stringProp("Impact of the incident"),
			"urgency":           stringProp("Urgency of the incident"),
			"assigned_to":       stringProp("User assigned to the incident"),
			"assignment_group":  stringProp("Group assigned to the incident"),
			"work_notes":        stringProp("Work notes to add to the incident"),
			"close_notes":       stringProp("Close notes to add to the incident"),
			"close_code":        stringProp("Close code for the incident"),
		},
		"required": []string{"incident_id"},
	}
}

func (t *UpdateIncidentTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	p := incident.UpdateParams{
		IncidentID:       getString(params, "incident_id"),
		ShortDescription: getString(params, "short_description"),
		Description:      getString(params, "description"),
		State:            getString(params, "state"),
		Category:         getString(params, "category"),
		Subcategory:      getString(params, "subcategory"),
		Priority:         getString(params, "priority"),
		Impact:           getString(params, "impact"),
		Urgency:          getString(params, "urgency"),
		AssignedTo:       getString(params, "assigned_to"),
		AssignmentGroup:  getString(params, "assignment_group"),
		WorkNotes:        getString(params, "work_notes"),
		CloseNotes:       getString(params, "close_notes"),
		CloseCode:        getString(params, "close_code"),
	}
	if p.IncidentID == "" {
		return "", fmt.Errorf("update_incident: incident_id is required")
	}
	return marshalEnvelope(t.Service.Update(ctx, p))
}

// --- AddCommentTool ---

type AddCommentTool struct {
	Service *incident.Service
}

func (t *AddCommentTool) Name() string { return "add_comment" }
func (t *AddCommentTool) Description() string {
	return "Add a comment or an internal work note to an incident"
}
func (t *AddCommentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"incident_id":  stringProp("Incident number or sys_id"),
			"comment":      stringProp("Comment to add to the incident"),
			"is_work_note": map[string]any{"type": "boolean", "description": "Whether the comment is an internal work note"},
		},
		"required": []string{"incident_id", "comment"},
	}
}

func (t *AddCommentTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	p := incident.CommentParams{
		IncidentID: getString(params, "incident_id"),
		Comment:    getString(params, "comment"),
		IsWorkNote: getBool(params, "is_work_note"),
	}
	if p.IncidentID == "" || p.Comment == "" {
		return "", fmt.Errorf("add_comment: incident_id and comment are required")
	}
	return marshalEnvelope(t.Service.AddComment(ctx, p))
}

// --- ResolveIncidentTool ---

type ResolveIncidentTool struct {
	Service *incident.Service
}

func (t *ResolveIncidentTool) Name() string        { return "resolve_incident" }
func (t *ResolveIncidentTool) Description() string { return "Resolve an incident in ServiceNow" }
func (t *ResolveIncidentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"incident_id":      stringProp("Incident number or sys_id"),
			"resolution_code":  stringProp("Resolution code for the incident"),
			"resolution_notes": stringProp("Resolution notes for the incident"),
		},
		"required": []string{"incident_id", "resolution_code", "resolution_notes"},
	}
}

func (t *ResolveIncidentTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	p := incident.ResolveParams{
		IncidentID:      getString(params, "incident_id"),
		ResolutionCode:  getString(params, "resolution_code"),
		ResolutionNotes: getString(params, "resolution_notes"),
	}
	if p.IncidentID == "" || p.ResolutionCode == "" || p.ResolutionNotes == "" {
		return "", fmt.Errorf("resolve_incident: incident_id, resolution_code and resolution_notes are required")
	}
	return marshalEnvelope(t.Service.Resolve(ctx, p))
}

// --- ListIncidentsTool ---

type ListIncidentsTool struct {
	Service *incident.Service
}

func (t *ListIncidentsTool) Name() string        { return "list_incidents" }
func (t *ListIncidentsTool) Description() string { return "List incidents from ServiceNow" }
func (t *ListIncidentsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{
				"type": "integer", "minimum": minListLimit, "maximum": maxListLimit, "default": 10,
				"description": "Maximum number of incidents to return",
			},
			"offset": map[string]any{
				"type": "integer", "minimum": 0, "default": 0,
				"description": "Offset for pagination",
			},
			"state":       stringProp("Filter by incident state"),
			"assigned_to": stringProp("Filter by assigned user"),
			"category":    stringProp("Filter by category"),
			"priority": map[string]any{
				"type": "string", "pattern": priorityPattern.String(),
				"description": "Filter by priority (1-5 or P0-P4/PX)",
			},
			"number": map[string]any{
				"type": "string", "pattern": numberPattern.String(),
				"description": "Filter by incident number",
			},
			"query": stringProp("Search query matching short_description and description"),
			"date_filters": map[string]any{
				"type":        "object",
				"description": "Dynamic date filters keyed by field name, e.g. {\"opened_at\": {\"from\": \"2024-01-01\", \"to\": \"2024-01-31\"}}",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"from": stringProp("Lower bound (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)"),
						"to":   stringProp("Upper bound (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)"),
					},
				},
			},
		},
	}
}

func (t *ListIncidentsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	f := incident.ListFilter{
		Limit:      getInt(params, "limit", 10),
		Offset:     getInt(params, "offset", 0),
		State:      getString(params, "state"),
		AssignedTo: getString(params, "assigned_to"),
		Category:   getString(params, "category"),
		Priority:   getString(params, "priority"),
		Number:     getString(params, "number"),
		Query:      getString(params, "query"),
	}

	if f.Limit < minListLimit || f.Limit > maxListLimit {
		return "", fmt.Errorf("list_incidents: limit must be between %d and %d", minListLimit, maxListLimit)
	}
	if f.Offset < 0 {
		return "", fmt.Errorf("list_incidents: offset must not be negative")
	}
	if f.Priority != "" && !priorityPattern.MatchString(f.Priority) {
		return "", fmt.Errorf("list_incidents: priority %q must match %s", f.Priority, priorityPattern)
	}
	if f.Number != "" && !numberPattern.MatchString(f.Number) {
		return "", fmt.Errorf("list_incidents: number %q must match %s", f.Number, numberPattern)
	}

	filters, err := decodeDateFilters(params)
	if err != nil {
		return "", fmt.Errorf("list_incidents: %w", err)
	}
	f.DateFilters = filters

	resp, err := t.Service.List(ctx, f)
	if err != nil {
		return "", fmt.Errorf("list_incidents: %w", err)
	}
	return marshalEnvelope(resp)
}

func decodeDateFilters(params map[string]any) (map[string]incident.DateRange, error) {
	raw, ok := params["date_filters"]
	if !ok || raw == nil {
		return nil, nil
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("date_filters must be an object")
	}

	filters := make(map[string]incident.DateRange, len(entries))
	for field, value := range entries {
		bounds, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("date_filters.%s must be an object with from/to", field)
		}
		filters[field] = incident.DateRange{
			From: getString(bounds, "from"),
			To:   getString(bounds, "to"),
		}
	}
	return filters, nil
}
