package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/zaptime/internal/playlist"
	"github.com/backmassage/zaptime/internal/probe"
	"github.com/backmassage/zaptime/internal/results"
	"github.com/backmassage/zaptime/internal/tuner"
)

func sampleMatrix() *results.Matrix {
	m := results.NewMatrix()
	baseline := results.Column{
		Profile:   "Baseline (direct)",
		StartedAt: time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC),
	}
	proxy := results.Column{
		Profile:   "proxy",
		StartedAt: time.Date(2026, 8, 25, 14, 35, 0, 0, time.UTC),
	}

	m.Add(baseline, playlist.Channel{Name: "NPO1"}, results.Row{
		Outcome: tuner.Outcome{Tuned: true, Elapsed: 847300 * time.Microsecond},
		Probe:   &probe.Result{Summary: "Input: MPEGTS, Video: AVC, Audio: AAC"},
	})
	m.Add(baseline, playlist.Channel{Name: "NPO2"}, results.Row{
		Outcome:    tuner.Outcome{Kind: tuner.FailStream, Detail: "connection reset"},
		Probe:      &probe.Result{Summary: probe.FailedSummary},
		DebugNotes: []string{"player: Stream Error: connection reset"},
	})
	m.Add(proxy, playlist.Channel{Name: "NPO1 ᴿᴬᵂ"}, results.Row{
		Outcome: tuner.Outcome{Tuned: true, Elapsed: 2 * time.Second},
		Probe:   &probe.Result{Summary: "Input: MPEGTS, Video: AVC, Audio: AAC", RetryOccurred: true},
	})
	m.Add(proxy, playlist.Channel{Name: "NPO2"}, results.Row{
		Outcome: tuner.Outcome{Tuned: true, Elapsed: 4 * time.Second},
	})
	return m
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, sampleMatrix())
	out := buf.String()

	assert.Contains(t, out, "Channel")
	assert.Contains(t, out, "Baseline (direct)")
	assert.Contains(t, out, "proxy")
	assert.Contains(t, out, "NPO1")
	assert.Contains(t, out, "0.8473s")
	assert.Contains(t, out, "Stream Error")
	assert.Contains(t, out, "Average")
	// Proxy average over both successes: (2s + 4s) / 2.
	assert.Contains(t, out, "3.0000s")
}

func TestPrintTable_EmptyMatrix(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, results.NewMatrix())
	assert.Contains(t, buf.String(), "No results")
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	opts := Options{Probe: true, Debug: true}

	require.NoError(t, WriteCSV(path, sampleMatrix(), opts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Header, two channels, average row.
	require.Len(t, records, 4)

	header := records[0]
	assert.Equal(t, "channel", header[0])
	assert.Contains(t, header[1], "Baseline (direct)")
	assert.Contains(t, header[2], "stream info")
	assert.Contains(t, header[3], "debug")

	npo1 := records[1]
	assert.Equal(t, "NPO1", npo1[0])
	assert.Equal(t, "0.8473", npo1[1])
	assert.Equal(t, "Input: MPEGTS, Video: AVC, Audio: AAC", npo1[2])
	assert.Equal(t, "2.0000", npo1[4])
	assert.Contains(t, npo1[5], "(after retry)")

	npo2 := records[2]
	assert.Equal(t, "NPO2", npo2[0])
	assert.Empty(t, npo2[1], "failed tune leaves the time cell empty")
	assert.Equal(t, probe.FailedSummary, npo2[2])
	assert.Contains(t, npo2[3], "Stream Error")

	avg := records[3]
	assert.Equal(t, "Average", avg[0])
	assert.Equal(t, "0.8473", avg[1])
	assert.Equal(t, "3.0000", avg[4])
}

func TestWriteCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,content\n"), 0o644))

	require.NoError(t, WriteCSV(path, sampleMatrix(), Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	opts := Options{Probe: true, Debug: true}

	require.NoError(t, WriteHTML(path, sampleMatrix(), opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<title>Tuning Report</title>")
	assert.Contains(t, html, "NPO1")
	assert.Contains(t, html, "0.8473s")
	assert.Contains(t, html, `class="failed"`)
	assert.Contains(t, html, "probe retried")
	assert.Contains(t, html, "Stream Error")
	// Baseline average (0.8473s) sorts before proxy (3.0000s).
	assert.Less(t,
		strings.Index(html, "Baseline (direct)</td>"),
		strings.Index(html, "proxy</td>"))
}

func TestSpeedClass(t *testing.T) {
	assert.Equal(t, "fast", speedClass(800*time.Millisecond))
	assert.Equal(t, "fast", speedClass(1499*time.Millisecond))
	assert.Equal(t, "medium", speedClass(1500*time.Millisecond))
	assert.Equal(t, "medium", speedClass(2999*time.Millisecond))
	assert.Equal(t, "slow", speedClass(3*time.Second))
}
