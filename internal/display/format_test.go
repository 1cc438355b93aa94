package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0.8473s", FormatSeconds(847300*time.Microsecond))
	assert.Equal(t, "0.0000s", FormatSeconds(0))
	assert.Equal(t, "12.5000s", FormatSeconds(12500*time.Millisecond))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "1.2000s", FormatCell(true, 1200*time.Millisecond, "Timed out"))
	assert.Equal(t, "Timed out", FormatCell(false, 0, "Timed out"))
	assert.Equal(t, "Stream Error", FormatCell(false, 5*time.Second, "Stream Error"))
}
