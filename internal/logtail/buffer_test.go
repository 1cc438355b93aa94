package logtail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_QueryWindowInclusive(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var b Buffer
	b.AppendAt(base.Add(-time.Second), "ERROR too early")
	b.AppendAt(base, "ERROR at start")
	b.AppendAt(base.Add(time.Second), "ERROR inside")
	b.AppendAt(base.Add(2*time.Second), "ERROR at end")
	b.AppendAt(base.Add(3*time.Second), "ERROR too late")

	got := b.Query(base, base.Add(2*time.Second))

	assert.Equal(t, []string{"ERROR at start", "ERROR inside", "ERROR at end"}, got)
}

func TestBuffer_QueryKeywordFilter(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var b Buffer
	b.AppendAt(base, "INFO stream started")
	b.AppendAt(base, "worker raised an Exception in handler")
	b.AppendAt(base, "upstream request FAILED with 502")
	b.AppendAt(base, "Traceback (most recent call last):")
	b.AppendAt(base, "segment error on pid 256")
	b.AppendAt(base, "all good here")

	got := b.Query(base, base)

	assert.Equal(t, []string{
		"worker raised an Exception in handler",
		"upstream request FAILED with 502",
		"Traceback (most recent call last):",
		"segment error on pid 256",
	}, got)
}

func TestBuffer_QueryEmptyWindow(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var b Buffer
	b.AppendAt(base, "ERROR something")

	assert.Empty(t, b.Query(base.Add(time.Hour), base.Add(2*time.Hour)))
}

func TestBuffer_QueryIsSnapshot(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var b Buffer
	b.AppendAt(base, "ERROR one")

	first := b.Query(base, base)
	b.AppendAt(base, "ERROR two")
	second := b.Query(base, base)

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
}

func TestBuffer_Len(t *testing.T) {
	var b Buffer
	assert.Zero(t, b.Len())
	b.Append("any line")
	b.Append("another")
	assert.Equal(t, 2, b.Len())
}
