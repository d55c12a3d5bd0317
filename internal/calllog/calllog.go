// Package calllog keeps a bounded in-memory record of outbound ServiceNow
// API calls so operators can inspect recent traffic without a log pipeline.
package calllog

import (
	"sync"
	"time"
)

// Record is one outbound API call.
type Record struct {
	Time      time.Time `json:"time"`
	RequestID string    `json:"request_id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status,omitempty"`
	Duration  int64     `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
}

// Buffer is a thread-safe fixed-size ring of call records.
type Buffer struct {
	mu      sync.Mutex
	records []Record
	size    int
	pos     int
	count   int
}

// New creates a ring buffer holding up to size records.
func New(size int) *Buffer {
	return &Buffer{
		records: make([]Record, size),
		size:    size,
	}
}

// Add appends a record, evicting the oldest when full.
func (b *Buffer) Add(r Record) {
	b.mu.Lock()
	b.records[b.pos] = r
	b.pos = (b.pos + 1) % b.size
	if b.count < b.size {
		b.count++
	}
	b.mu.Unlock()
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (b *Buffer) Recent(limit int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.count
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		// Walk backwards from the most recent slot.
		idx := (b.pos - 1 - i + b.size) % b.size
		result = append(result, b.records[idx])
	}
	return result
}

// Failed returns up to limit records that ended in an error or a non-2xx
// status, newest first.
func (b *Buffer) Failed(limit int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result []Record
	for i := 0; i < b.count; i++ {
		idx := (b.pos - 1 - i + b.size) % b.size
		r := b.records[idx]
		if r.Error == "" && r.Status >= 200 && r.Status < 300 {
			continue
		}
		result = append(result, r)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Len returns the number of stored records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
