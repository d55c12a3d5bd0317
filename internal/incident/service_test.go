package incident

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

const testSysID = "7d9f0c2ab43e11ee8f1a0242ac120002"

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	client := newTestClient(t, handler)
	return NewService(client, NewResolver(client), nil)
}

func decodeBody(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func writeRecord(w http.ResponseWriter, sysID, number string) {
	json.NewEncoder(w).Encode(map[string]any{
		"result": map[string]string{"sys_id": sysID, "number": number},
	})
}

func TestCreateSendsSparsePayload(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body := decodeBody(t, r)
		if body["short_description"] != "VPN down" {
			t.Errorf("short_description = %q", body["short_description"])
		}
		if body["priority"] != "2" {
			t.Errorf("priority = %q", body["priority"])
		}
		// Unset optional fields must be omitted, not sent empty.
		for _, key := range []string{"description", "caller_id", "category", "assigned_to", "urgency"} {
			if _, present := body[key]; present {
				t.Errorf("unset field %q was sent", key)
			}
		}
		writeRecord(w, testSysID, "INC0010001")
	})

	resp := svc.Create(context.Background(), CreateParams{
		ShortDescription: "VPN down",
		Priority:         "2",
	})
	if !resp.Success {
		t.Fatalf("Create failed: %s", resp.Message)
	}
	if resp.IncidentID != testSysID || resp.IncidentNumber != "INC0010001" {
		t.Errorf("envelope = %+v", resp)
	}
	if resp.Message != "Incident created successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestCreateTransportFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	resp := svc.Create(context.Background(), CreateParams{ShortDescription: "x"})
	if resp.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(resp.Message, "Failed to create incident") {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.IncidentID != "" || resp.IncidentNumber != "" {
		t.Errorf("failed envelope must not carry identifiers: %+v", resp)
	}
}

// Scenario: updating by ticket number routes the write to the resolved
// sys_id, not the literal number.
func TestUpdateResolvesTicketNumber(t *testing.T) {
	var putPath string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"result": []map[string]any{{"sys_id": testSysID, "number": "INC0010001"}},
			})
		case http.MethodPut:
			putPath = r.URL.Path
			body := decodeBody(t, r)
			if body["state"] != "2" {
				t.Errorf("state = %q", body["state"])
			}
			writeRecord(w, testSysID, "INC0010001")
		}
	})

	resp := svc.Update(context.Background(), UpdateParams{IncidentID: "INC0010001", State: "2"})
	if !resp.Success {
		t.Fatalf("Update failed: %s", resp.Message)
	}
	if putPath != "/table/incident/"+testSysID {
		t.Errorf("write went to %q, want /table/incident/%s", putPath, testSysID)
	}
}

func TestUpdateBySysIDSkipsLookup(t *testing.T) {
	var gets int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		writeRecord(w, testSysID, "INC0010001")
	})

	resp := svc.Update(context.Background(), UpdateParams{IncidentID: testSysID, State: "3"})
	if !resp.Success {
		t.Fatalf("Update failed: %s", resp.Message)
	}
	if gets != 0 {
		t.Errorf("sys_id update issued %d lookup calls", gets)
	}
}

// Scenario: an unknown ticket number fails without issuing any write call,
// and the message names the original identifier.
func TestUpdateUnknownNumberMakesNoWrite(t *testing.T) {
	var puts int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"result": []map[string]any{}})
		case http.MethodPut:
			puts++
		}
	})

	resp := svc.Update(context.Background(), UpdateParams{IncidentID: "INC9999999", State: "2"})
	if resp.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(resp.Message, "INC9999999") {
		t.Errorf("message %q should contain the identifier", resp.Message)
	}
	if puts != 0 {
		t.Errorf("write was issued %d times after failed resolution", puts)
	}
}

func TestAddCommentRouting(t *testing.T) {
	tests := []struct {
		name       string
		isWorkNote bool
		wantField  string
		otherField string
	}{
		{"customer comment", false, "comments", "work_notes"},
		{"work note", true, "work_notes", "comments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				body := decodeBody(t, r)
				if body[tt.wantField] != "looking into it" {
					t.Errorf("%s = %q", tt.wantField, body[tt.wantField])
				}
				if _, present := body[tt.otherField]; present {
					t.Errorf("%s must not be sent", tt.otherField)
				}
				writeRecord(w, testSysID, "INC0010001")
			})

			resp := svc.AddComment(context.Background(), CommentParams{
				IncidentID: testSysID,
				Comment:    "looking into it",
				IsWorkNote: tt.isWorkNote,
			})
			if !resp.Success {
				t.Fatalf("AddComment failed: %s", resp.Message)
			}
			if resp.Message != "Comment added successfully" {
				t.Errorf("message = %q", resp.Message)
			}
		})
	}
}

// Scenario: resolve always forces the resolved state code, close fields, and
// a server-side resolution timestamp.
func TestResolvePayload(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["state"] != "6" {
			t.Errorf("state = %q, want 6", body["state"])
		}
		if body["close_code"] != "Solved" {
			t.Errorf("close_code = %q", body["close_code"])
		}
		if body["close_notes"] != "Fixed" {
			t.Errorf("close_notes = %q", body["close_notes"])
		}
		if body["resolved_at"] != "now" {
			t.Errorf("resolved_at = %q, want the server-side now", body["resolved_at"])
		}
		writeRecord(w, testSysID, "INC0010001")
	})

	resp := svc.Resolve(context.Background(), ResolveParams{
		IncidentID:      testSysID,
		ResolutionCode:  "Solved",
		ResolutionNotes: "Fixed",
	})
	if !resp.Success {
		t.Fatalf("Resolve failed: %s", resp.Message)
	}
	if resp.Message != "Incident resolved successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestListBuildsQueryParams(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sysparm_limit") != "25" || q.Get("sysparm_offset") != "50" {
			t.Errorf("pagination = limit %q offset %q", q.Get("sysparm_limit"), q.Get("sysparm_offset"))
		}
		if q.Get("sysparm_display_value") != "true" || q.Get("sysparm_exclude_reference_link") != "true" {
			t.Errorf("display params missing: %v", q)
		}
		if q.Get("sysparm_query") != "state=1" {
			t.Errorf("sysparm_query = %q", q.Get("sysparm_query"))
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []map[string]any{}})
	})

	resp, err := svc.List(context.Background(), ListFilter{Limit: 25, Offset: 50, State: "1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !resp.Success {
		t.Fatalf("List failed: %s", resp.Message)
	}
	if resp.Message != "Found 0 incidents" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestListOmitsEmptyQuery(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.URL.Query()["sysparm_query"]; present {
			t.Error("sysparm_query must not be sent for an empty filter")
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []map[string]any{}})
	})

	if _, err := svc.List(context.Background(), ListFilter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
}

// Scenario: a reference field arriving as a value/display_value pair is
// collapsed to its display value.
func TestListNormalizesReferenceFields(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{{
				"number":      "INC0010001",
				"assigned_to": map[string]any{"value": "u1", "display_value": "John Doe"},
				"priority":    "1 - Critical",
			}},
		})
	})

	resp, err := svc.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Incidents) != 1 {
		t.Fatalf("got %d incidents", len(resp.Incidents))
	}
	rec := resp.Incidents[0]
	if rec["assigned_to"] != "John Doe" {
		t.Errorf("assigned_to = %v, want John Doe", rec["assigned_to"])
	}
	if rec["priority"] != "1 - Critical" {
		t.Errorf("scalar field changed: %v", rec["priority"])
	}
	if resp.Message != "Found 1 incidents" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestListIdempotent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{{"number": "INC0010001", "state": "New"}},
		})
	})

	filter := ListFilter{State: "1", Limit: 5}
	first, err := svc.List(context.Background(), filter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	second, err := svc.List(context.Background(), filter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical queries produced different envelopes:\n%+v\n%+v", first, second)
	}
}

func TestListTransportFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	resp, err := svc.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("transport failures must be reported in the envelope, got error %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure")
	}
	if resp.Incidents == nil || len(resp.Incidents) != 0 {
		t.Errorf("failed list must return an empty incident slice, got %v", resp.Incidents)
	}
}

func TestListInvalidPriorityFailsLoudly(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no call should be made for a defective priority token")
	})

	_, err := svc.List(context.Background(), ListFilter{Priority: "urgent"})
	if err == nil {
		t.Fatal("expected error for an unmapped priority token")
	}
}
