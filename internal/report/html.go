package report

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/backmassage/zaptime/internal/display"
	"github.com/backmassage/zaptime/internal/results"
)

// View model for the HTML template. Everything is pre-computed in Go so
// the template stays purely presentational.

type htmlReport struct {
	Generated  string
	Averages   []htmlAverage
	Columns    []htmlColumn
	Rows       []htmlRow
	ShowThumbs bool
	ShowProbe  bool
	ShowDebug  bool
}

type htmlColumn struct {
	Profile   string
	Timestamp string
}

type htmlAverage struct {
	Profile   string
	Timestamp string
	Value     string
	seconds   float64
}

type htmlRow struct {
	Channel string
	Cells   []htmlCell
}

type htmlCell struct {
	Present   bool
	Tuned     bool
	Class     string
	Display   string
	Thumbnail template.URL
	Info      string
	Retry     bool
	Debug     []string
}

// WriteHTML writes a standalone report to path: a profile ranking by
// average tune time followed by the full matrix. Thumbnails are inlined
// as data URIs so the file has no external dependencies.
func WriteHTML(path string, m *results.Matrix, opts Options) error {
	view := buildHTMLReport(m, opts)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := htmlTemplate.Execute(f, view); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func buildHTMLReport(m *results.Matrix, opts Options) htmlReport {
	view := htmlReport{
		Generated:  time.Now().Format("2006-01-02 15:04:05"),
		ShowThumbs: opts.Thumbnails,
		ShowProbe:  opts.Probe,
		ShowDebug:  opts.Debug,
	}

	cols := m.ColumnKeys()
	for _, key := range cols {
		profile, stamp := splitColumnKey(key)
		view.Columns = append(view.Columns, htmlColumn{Profile: profile, Timestamp: stamp})

		if avg, ok := m.Average(key); ok {
			view.Averages = append(view.Averages, htmlAverage{
				Profile:   profile,
				Timestamp: stamp,
				Value:     display.FormatSeconds(avg),
				seconds:   avg.Seconds(),
			})
		}
	}
	sort.SliceStable(view.Averages, func(i, j int) bool {
		return view.Averages[i].seconds < view.Averages[j].seconds
	})

	for _, ch := range m.Channels() {
		row := htmlRow{Channel: ch}
		for _, key := range cols {
			row.Cells = append(row.Cells, buildCell(m, ch, key, opts))
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

func buildCell(m *results.Matrix, channel, colKey string, opts Options) htmlCell {
	row, ok := m.Cell(channel, colKey)
	if !ok {
		return htmlCell{}
	}

	cell := htmlCell{Present: true, Tuned: row.Outcome.Tuned}
	if row.Outcome.Tuned {
		cell.Class = speedClass(row.Outcome.Elapsed)
		cell.Display = display.FormatSeconds(row.Outcome.Elapsed)
	} else {
		cell.Class = "failed"
		cell.Display = row.Outcome.Kind.String()
	}

	if opts.Thumbnails && row.Outcome.ThumbnailPath != "" {
		cell.Thumbnail = inlineThumbnail(row.Outcome.ThumbnailPath)
	}
	if opts.Probe && row.Probe != nil {
		cell.Info = row.Probe.Summary
		cell.Retry = row.Probe.RetryOccurred
	}
	if opts.Debug {
		cell.Debug = row.DebugNotes
	}
	return cell
}

// speedClass buckets a tune time for cell coloring.
func speedClass(d time.Duration) string {
	switch {
	case d < 1500*time.Millisecond:
		return "fast"
	case d < 3*time.Second:
		return "medium"
	default:
		return "slow"
	}
}

// inlineThumbnail reads the PNG at path and returns it as a data URI.
// Unreadable files yield an empty URI and the cell simply has no image.
func inlineThumbnail(path string) template.URL {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data))
}

func splitColumnKey(key string) (profile, stamp string) {
	parts := strings.SplitN(key, "\n", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Tuning Report</title>
<style>
  body { font-family: sans-serif; margin: 2em; background: #fafafa; color: #222; }
  h1 { margin-bottom: 0.2em; }
  .generated { color: #888; margin-bottom: 2em; }
  table { border-collapse: collapse; margin-bottom: 2em; background: #fff; }
  th, td { border: 1px solid #ccc; padding: 0.5em 0.8em; text-align: left; vertical-align: top; }
  th { background: #eee; }
  th .stamp { display: block; font-weight: normal; color: #888; font-size: 0.85em; }
  td.fast { background: #dff5e1; }
  td.medium { background: #fdf3d7; }
  td.slow { background: #fde3d7; }
  td.failed { background: #f8d7da; color: #842029; font-weight: bold; }
  td img { display: block; margin-top: 0.4em; max-width: 200px; border: 1px solid #ccc; }
  .info { display: block; margin-top: 0.3em; color: #555; font-size: 0.85em; }
  .retry { color: #b26a00; font-size: 0.85em; }
  .debug { display: block; margin-top: 0.3em; color: #842029; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Tuning Report</h1>
<p class="generated">Generated {{.Generated}}</p>

<h2>Profiles by average tune time</h2>
<table>
  <tr><th>Profile</th><th>Run</th><th>Average</th></tr>
{{- range .Averages}}
  <tr><td>{{.Profile}}</td><td>{{.Timestamp}}</td><td>{{.Value}}</td></tr>
{{- end}}
</table>

<h2>Results</h2>
<table>
  <tr>
    <th>Channel</th>
{{- range .Columns}}
    <th>{{.Profile}}<span class="stamp">{{.Timestamp}}</span></th>
{{- end}}
  </tr>
{{- range .Rows}}
  <tr>
    <td>{{.Channel}}</td>
  {{- range .Cells}}
    {{- if .Present}}
    <td class="{{.Class}}">{{.Display}}
      {{- if .Retry}} <span class="retry">(probe retried)</span>{{end}}
      {{- if .Info}}<span class="info">{{.Info}}</span>{{end}}
      {{- if .Thumbnail}}<img src="{{.Thumbnail}}" alt="thumbnail">{{end}}
      {{- range .Debug}}<span class="debug">{{.}}</span>{{end}}
    </td>
    {{- else}}
    <td></td>
    {{- end}}
  {{- end}}
  </tr>
{{- end}}
</table>
</body>
</html>
`))
