package display

import (
	"fmt"
	"time"
)

// FormatSeconds renders a tune time with 4-decimal precision (e.g. "0.8473s").
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.4fs", d.Seconds())
}

// FormatCell renders one matrix cell: the tune time on success, or the
// failure kind ("Timed out", "Stream Error") otherwise.
func FormatCell(tuned bool, elapsed time.Duration, failure string) string {
	if tuned {
		return FormatSeconds(elapsed)
	}
	return failure
}
