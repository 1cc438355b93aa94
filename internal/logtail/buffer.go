package logtail

import (
	"strings"
	"sync"
	"time"
)

// correlationKeywords mark a log line as interesting for failure
// correlation. Matching is case-insensitive substring.
var correlationKeywords = []string{"error", "exception", "failed", "traceback"}

// Entry is one received log line, timestamped at arrival.
type Entry struct {
	Timestamp time.Time
	Line      string
}

// Buffer is the shared, lock-protected ordered line store. The tailer
// goroutine appends; the main flow queries. The lock is held only for the
// duration of an append or a window-filter copy, never across I/O.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
}

// Append records line with the current time as its arrival timestamp.
func (b *Buffer) Append(line string) {
	b.AppendAt(time.Now(), line)
}

// AppendAt records line with an explicit timestamp. Ordering is arrival
// order; callers are expected to append with non-decreasing timestamps.
func (b *Buffer) AppendAt(ts time.Time, line string) {
	b.mu.Lock()
	b.entries = append(b.entries, Entry{Timestamp: ts, Line: line})
	b.mu.Unlock()
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Query returns every buffered line whose arrival timestamp falls in
// [start, end] (inclusive) and whose lowercased text contains at least
// one correlation keyword. The result is a point-in-time snapshot copy.
func (b *Buffer) Query(start, end time.Time) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matches []string
	for _, e := range b.entries {
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		if containsKeyword(e.Line) {
			matches = append(matches, e.Line)
		}
	}
	return matches
}

func containsKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range correlationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
