package calllog

import (
	"fmt"
	"testing"
	"time"
)

func TestAddAndRecent(t *testing.T) {
	b := New(10)
	for i := 0; i < 3; i++ {
		b.Add(Record{Time: time.Now(), Method: "GET", Path: fmt.Sprintf("/table/incident/%d", i), Status: 200})
	}

	got := b.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent returned %d records, want 3", len(got))
	}
	// Newest first
	if got[0].Path != "/table/incident/2" {
		t.Errorf("newest record path = %q", got[0].Path)
	}
	if got[2].Path != "/table/incident/0" {
		t.Errorf("oldest record path = %q", got[2].Path)
	}
}

func TestRingEviction(t *testing.T) {
	b := New(4)
	for i := 0; i < 7; i++ {
		b.Add(Record{Path: fmt.Sprintf("/p%d", i)})
	}

	if b.Len() != 4 {
		t.Fatalf("Len = %d, want 4", b.Len())
	}
	got := b.Recent(0)
	if got[0].Path != "/p6" || got[3].Path != "/p3" {
		t.Errorf("unexpected window: newest %q oldest %q", got[0].Path, got[3].Path)
	}
}

func TestRecentLimit(t *testing.T) {
	b := New(10)
	for i := 0; i < 5; i++ {
		b.Add(Record{Path: fmt.Sprintf("/p%d", i)})
	}
	if got := b.Recent(2); len(got) != 2 {
		t.Errorf("Recent(2) returned %d records", len(got))
	}
}

func TestFailed(t *testing.T) {
	b := New(10)
	b.Add(Record{Path: "/ok", Status: 200})
	b.Add(Record{Path: "/notfound", Status: 404})
	b.Add(Record{Path: "/down", Error: "connection refused"})
	b.Add(Record{Path: "/created", Status: 201})

	got := b.Failed(0)
	if len(got) != 2 {
		t.Fatalf("Failed returned %d records, want 2", len(got))
	}
	if got[0].Path != "/down" || got[1].Path != "/notfound" {
		t.Errorf("unexpected failed records: %v", got)
	}
}
