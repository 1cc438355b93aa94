package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/backmassage/zaptime/internal/results"
)

// Options selects which optional column groups the exports carry.
type Options struct {
	Thumbnails bool
	Probe      bool
	Debug      bool
}

// WriteCSV writes the matrix to path, overwriting any previous file. Each
// profile-run contributes a tune-time column plus the optional thumbnail,
// stream-info, and debug columns. Tune times are seconds with 4-decimal
// precision; failed tunes leave the cell empty. A trailing row carries the
// per-run averages.
func WriteCSV(path string, m *results.Matrix, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := m.ColumnKeys()

	header := []string{"channel"}
	for _, key := range cols {
		label := strings.ReplaceAll(key, "\n", " ")
		header = append(header, label)
		if opts.Thumbnails {
			header = append(header, label+" thumbnail")
		}
		if opts.Probe {
			header = append(header, label+" stream info")
		}
		if opts.Debug {
			header = append(header, label+" debug")
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, ch := range m.Channels() {
		record := []string{ch}
		for _, key := range cols {
			row, ok := m.Cell(ch, key)

			timeCell := ""
			if ok && row.Outcome.Tuned {
				timeCell = fmt.Sprintf("%.4f", row.Outcome.Elapsed.Seconds())
			}
			record = append(record, timeCell)

			if opts.Thumbnails {
				thumb := ""
				if ok {
					thumb = row.Outcome.ThumbnailPath
				}
				record = append(record, thumb)
			}
			if opts.Probe {
				info := ""
				if ok && row.Probe != nil {
					info = row.Probe.Summary
					if row.Probe.RetryOccurred {
						info += " (after retry)"
					}
				}
				record = append(record, info)
			}
			if opts.Debug {
				debug := ""
				if ok {
					debug = strings.Join(row.DebugNotes, "; ")
				}
				record = append(record, debug)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	record := []string{"Average"}
	for _, key := range cols {
		avgCell := ""
		if avg, ok := m.Average(key); ok {
			avgCell = fmt.Sprintf("%.4f", avg.Seconds())
		}
		record = append(record, avgCell)
		for _, enabled := range []bool{opts.Thumbnails, opts.Probe, opts.Debug} {
			if enabled {
				record = append(record, "")
			}
		}
	}
	if err := w.Write(record); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
