// Package results holds the session's result matrix: one row per base
// channel name, one column per profile-run. Rows are written exactly once
// by the orchestrator and are read-only to reporting.
package results

import (
	"time"

	"github.com/backmassage/zaptime/internal/playlist"
	"github.com/backmassage/zaptime/internal/probe"
	"github.com/backmassage/zaptime/internal/tuner"
)

// Column identifies one profile-run: the profile tested plus the run's
// start timestamp. RunID is a short unique tag used for per-run artifact
// paths (thumbnail subdirectories).
type Column struct {
	Profile   string
	StartedAt time.Time
	RunID     string
}

// Key returns the stable column key. Timestamp resolution is one minute,
// matching how runs are labeled in reports.
func (c Column) Key() string {
	return c.Profile + "\n" + c.StartedAt.Format("2006-01-02 15:04")
}

// Timestamp returns the human-readable run start time.
func (c Column) Timestamp() string {
	return c.StartedAt.Format("2006-01-02 15:04")
}

// Row is the immutable result of one (channel, profile-run) test.
type Row struct {
	Outcome    tuner.Outcome
	Probe      *probe.Result // nil when probing was disabled.
	LogLines   []string      // Correlated backend log lines, arrival order.
	DebugNotes []string      // Human-readable failure markers; advisory only.
}

// Matrix accumulates rows as profile-runs complete. Channel and column
// order is first-seen order, so the baseline column stays first and rows
// follow playlist order.
type Matrix struct {
	rowOrder []string
	colOrder []string
	cells    map[string]map[string]Row // row key -> column key -> row
}

// NewMatrix returns an empty matrix.
func NewMatrix() *Matrix {
	return &Matrix{cells: make(map[string]map[string]Row)}
}

// Add stores the row for ch under col. The row key is the channel's base
// name — variant suffixes are stripped here so the same physical channel
// lands in the same row across profiles regardless of decoration.
func (m *Matrix) Add(col Column, ch playlist.Channel, row Row) {
	rowKey := ch.BaseName()
	colKey := col.Key()

	if _, seen := m.cells[rowKey]; !seen {
		m.rowOrder = append(m.rowOrder, rowKey)
		m.cells[rowKey] = make(map[string]Row)
	}
	if !m.hasColumn(colKey) {
		m.colOrder = append(m.colOrder, colKey)
	}
	m.cells[rowKey][colKey] = row
}

// Channels returns the row keys in first-seen order.
func (m *Matrix) Channels() []string {
	return append([]string(nil), m.rowOrder...)
}

// ColumnKeys returns the column keys in run order.
func (m *Matrix) ColumnKeys() []string {
	return append([]string(nil), m.colOrder...)
}

// Cell returns the row stored for (channel, column key).
func (m *Matrix) Cell(channel, colKey string) (Row, bool) {
	row, ok := m.cells[channel][colKey]
	return row, ok
}

// Average returns the mean tune time of the column's successful outcomes.
// ok is false when the column has no successes.
func (m *Matrix) Average(colKey string) (avg time.Duration, ok bool) {
	var total time.Duration
	var n int
	for _, rowKey := range m.rowOrder {
		row, found := m.cells[rowKey][colKey]
		if !found || !row.Outcome.Tuned {
			continue
		}
		total += row.Outcome.Elapsed
		n++
	}
	if n == 0 {
		return 0, false
	}
	return total / time.Duration(n), true
}

// Empty reports whether no rows were recorded at all.
func (m *Matrix) Empty() bool {
	return len(m.rowOrder) == 0
}

func (m *Matrix) hasColumn(colKey string) bool {
	for _, k := range m.colOrder {
		if k == colKey {
			return true
		}
	}
	return false
}
