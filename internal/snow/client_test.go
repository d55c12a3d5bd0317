package snow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/snowkit-io/snowkit/internal/auth"
	"github.com/snowkit-io/snowkit/internal/calllog"
)

func TestGetAppliesAuthAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("sysparm_limit"); got != "1" {
			t.Errorf("sysparm_limit = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	}))
	defer server.Close()

	c := New(server.URL, &auth.Token{Token: "tok"})
	var out struct {
		Result []map[string]any `json:"result"`
	}
	query := url.Values{"sysparm_limit": {"1"}}
	if err := c.Get(context.Background(), "/table/incident", query, &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["short_description"] != "printer on fire" {
			t.Errorf("short_description = %q", body["short_description"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]string{"sys_id": "abc"}})
	}))
	defer server.Close()

	c := New(server.URL, &auth.Basic{Username: "u", Password: "p"})
	var out struct {
		Result map[string]string `json:"result"`
	}
	err := c.Post(context.Background(), "/table/incident", map[string]string{"short_description": "printer on fire"}, &out)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if out.Result["sys_id"] != "abc" {
		t.Errorf("sys_id = %q", out.Result["sys_id"])
	}
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such table", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(server.URL, &auth.Token{Token: "t"})
	err := c.Get(context.Background(), "/table/nope", nil, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.Status != http.StatusNotFound {
		t.Errorf("Status = %d", se.Status)
	}
}

func TestConnectionFailure(t *testing.T) {
	// Closed server to force a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := New(server.URL, &auth.Token{Token: "t"})
	if err := c.Get(context.Background(), "/table/incident", nil, nil); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestCallLogRecording(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	calls := calllog.New(10)
	c := New(server.URL, &auth.Token{Token: "t"}, WithCallLog(calls))

	ctx := WithRequestID(context.Background(), "req-1")
	if err := c.Get(ctx, "/table/incident", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	recent := calls.Recent(0)
	if len(recent) != 1 {
		t.Fatalf("expected 1 call record, got %d", len(recent))
	}
	r := recent[0]
	if r.RequestID != "req-1" || r.Method != "GET" || r.Path != "/table/incident" || r.Status != 200 {
		t.Errorf("unexpected record: %+v", r)
	}
}
