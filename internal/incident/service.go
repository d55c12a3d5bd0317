// Package incident implements the incident operations against the
// ServiceNow Table API: identifier resolution, encoded-query construction,
// the four mutations, and the normalized list query.
package incident

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

const (
	incidentTable = "/table/incident"

	// StateResolved is the lifecycle state code for a resolved incident.
	StateResolved = "6"

	defaultListLimit = 10
)

// Client is the transport surface the service needs. *snow.Client satisfies it.
type Client interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Service executes incident operations. Every public method converts remote
// failures into a failed envelope; callers never see a raised fault for a
// transport problem.
type Service struct {
	client   Client
	resolver *Resolver
	logger   *slog.Logger
}

// NewService creates a service. logger may be nil.
func NewService(client Client, resolver *Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, resolver: resolver, logger: logger}
}

// CreateParams are the fields for creating an incident. Only ShortDescription
// is required; empty optional fields are omitted from the payload entirely.
type CreateParams struct {
	ShortDescription string
	Description      string
	CallerID         string
	Category         string
	Subcategory      string
	Priority         string
	Impact           string
	Urgency          string
	AssignedTo       string
	AssignmentGroup  string
}

// UpdateParams are the fields for updating an incident. IncidentID may be a
// sys_id or a ticket number. An empty optional field is never sent: the
// instance treats an omitted field as "leave unchanged" but an empty string
// as "clear it".
type UpdateParams struct {
	IncidentID       string
	ShortDescription string
	Description      string
	State            string
	Category         string
	Subcategory      string
	Priority         string
	Impact           string
	Urgency          string
	AssignedTo       string
	AssignmentGroup  string
	WorkNotes        string
	CloseNotes       string
	CloseCode        string
}

// CommentParams are the fields for adding a comment or work note.
type CommentParams struct {
	IncidentID string
	Comment    string
	IsWorkNote bool
}

// ResolveParams are the fields for resolving an incident.
type ResolveParams struct {
	IncidentID      string
	ResolutionCode  string
	ResolutionNotes string
}

// Create creates a new incident.
func (s *Service) Create(ctx context.Context, p CreateParams) Response {
	payload := map[string]string{
		"short_description": p.ShortDescription,
	}
	setIfPresent(payload, "description", p.Description)
	setIfPresent(payload, "caller_id", p.CallerID)
	setIfPresent(payload, "category", p.Category)
	setIfPresent(payload, "subcategory", p.Subcategory)
	setIfPresent(payload, "priority", p.Priority)
	setIfPresent(payload, "impact", p.Impact)
	setIfPresent(payload, "urgency", p.Urgency)
	setIfPresent(payload, "assigned_to", p.AssignedTo)
	setIfPresent(payload, "assignment_group", p.AssignmentGroup)

	var resp recordEnvelope
	if err := s.client.Post(ctx, incidentTable, payload, &resp); err != nil {
		s.logger.Error("create incident failed", "error", err)
		return Response{Success: false, Message: fmt.Sprintf("Failed to create incident: %v", err)}
	}

	return Response{
		Success:        true,
		Message:        "Incident created successfully",
		IncidentID:     resp.Result.SysID,
		IncidentNumber: resp.Result.Number,
	}
}

// Update updates an existing incident, resolving the identifier first.
func (s *Service) Update(ctx context.Context, p UpdateParams) Response {
	sysID, failed := s.resolveTarget(ctx, p.IncidentID)
	if failed != nil {
		return *failed
	}

	payload := map[string]string{}
	setIfPresent(payload, "short_description", p.ShortDescription)
	setIfPresent(payload, "description", p.Description)
	setIfPresent(payload, "state", p.State)
	setIfPresent(payload, "category", p.Category)
	setIfPresent(payload, "subcategory", p.Subcategory)
	setIfPresent(payload, "priority", p.Priority)
	setIfPresent(payload, "impact", p.Impact)
	setIfPresent(payload, "urgency", p.Urgency)
	setIfPresent(payload, "assigned_to", p.AssignedTo)
	setIfPresent(payload, "assignment_group", p.AssignmentGroup)
	setIfPresent(payload, "work_notes", p.WorkNotes)
	setIfPresent(payload, "close_notes", p.CloseNotes)
	setIfPresent(payload, "close_code", p.CloseCode)

	var resp recordEnvelope
	if err := s.client.Put(ctx, incidentTable+"/"+sysID, payload, &resp); err != nil {
		s.logger.Error("update incident failed", "incident", p.IncidentID, "error", err)
		return Response{Success: false, Message: fmt.Sprintf("Failed to update incident: %v", err)}
	}

	return Response{
		Success:        true,
		Message:        "Incident updated successfully",
		IncidentID:     resp.Result.SysID,
		IncidentNumber: resp.Result.Number,
	}
}

// AddComment adds a customer-visible comment or an internal work note. The
// two land in different fields on the instance and are never merged.
func (s *Service) AddComment(ctx context.Context, p CommentParams) Response {
	sysID, failed := s.resolveTarget(ctx, p.IncidentID)
	if failed != nil {
		return *failed
	}

	payload := map[string]string{}
	if p.IsWorkNote {
		payload["work_notes"] = p.Comment
	} else {
		payload["comments"] = p.Comment
	}

	var resp recordEnvelope
	if err := s.client.Put(ctx, incidentTable+"/"+sysID, payload, &resp); err != nil {
		s.logger.Error("add comment failed", "incident", p.IncidentID, "error", err)
		return Response{Success: false, Message: fmt.Sprintf("Failed to add comment: %v", err)}
	}

	return Response{
		Success:        true,
		Message:        "Comment added successfully",
		IncidentID:     resp.Result.SysID,
		IncidentNumber: resp.Result.Number,
	}
}

// Resolve moves an incident to the resolved state with a close code and
// notes. The resolution timestamp is the server-side "now", not a clock read
// on this side.
func (s *Service) Resolve(ctx context.Context, p ResolveParams) Response {
	sysID, failed := s.resolveTarget(ctx, p.IncidentID)
	if failed != nil {
		return *failed
	}

	payload := map[string]string{
		"state":       StateResolved,
		"close_code":  p.ResolutionCode,
		"close_notes": p.ResolutionNotes,
		"resolved_at": "now",
	}

	var resp recordEnvelope
	if err := s.client.Put(ctx, incidentTable+"/"+sysID, payload, &resp); err != nil {
		s.logger.Error("resolve incident failed", "incident", p.IncidentID, "error", err)
		return Response{Success: false, Message: fmt.Sprintf("Failed to resolve incident: %v", err)}
	}

	return Response{
		Success:        true,
		Message:        "Incident resolved successfully",
		IncidentID:     resp.Result.SysID,
		IncidentNumber: resp.Result.Number,
	}
}

// List queries incidents matching the filter and normalizes each record.
// Remote failures are reported in the envelope; the returned error is
// non-nil only for an invalid priority token, which indicates a defect in
// the calling schema layer rather than a remote problem.
func (s *Service) List(ctx context.Context, f ListFilter) (ListResponse, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := url.Values{
		"sysparm_limit":                  {strconv.Itoa(limit)},
		"sysparm_offset":                 {strconv.Itoa(f.Offset)},
		"sysparm_display_value":          {"true"},
		"sysparm_exclude_reference_link": {"true"},
		"sysparm_query_category":         {"reporting"},
	}

	encoded, err := f.EncodedQuery()
	if err != nil {
		return ListResponse{}, err
	}
	if encoded != "" {
		query.Set("sysparm_query", encoded)
	}

	s.logger.Info("listing incidents", "query", encoded, "limit", limit, "offset", f.Offset)

	var resp listEnvelope
	if err := s.client.Get(ctx, incidentTable, query, &resp); err != nil {
		s.logger.Error("list incidents failed", "error", err)
		return ListResponse{
			Success:   false,
			Message:   fmt.Sprintf("Failed to list incidents: %v", err),
			Incidents: []Record{},
		}, nil
	}

	incidents := make([]Record, 0, len(resp.Result))
	for _, rec := range resp.Result {
		incidents = append(incidents, normalizeRecord(rec))
	}

	return ListResponse{
		Success:   true,
		Message:   fmt.Sprintf("Found %d incidents", len(incidents)),
		Incidents: incidents,
	}, nil
}

// resolveTarget resolves an identifier for a mutation, converting failures
// into the failed envelope that short-circuits the operation. No write call
// is made when resolution fails.
func (s *Service) resolveTarget(ctx context.Context, identifier string) (string, *Response) {
	sysID, err := s.resolver.Resolve(ctx, identifier)
	if err == nil {
		return sysID, nil
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		return "", &Response{Success: false, Message: fmt.Sprintf("Incident not found: %s", nf.Identifier)}
	}
	s.logger.Error("identifier resolution failed", "incident", identifier, "error", err)
	return "", &Response{Success: false, Message: fmt.Sprintf("Failed to find incident: %v", err)}
}

func setIfPresent(payload map[string]string, key, value string) {
	if value != "" {
		payload[key] = value
	}
}
