// Package probe provides ffprobe-based stream analysis with a bounded
// retry policy. Transient network hiccups and cold-start latency are
// common on first contact with a live stream, so every URL gets up to
// three attempts before the probe is declared failed. A probe failure is
// advisory context for the report and never aborts a channel test.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FailedSummary is the sentinel summary used when all attempts are
// exhausted.
const FailedSummary = "Info: Probe Failed"

// Result describes the container and codecs of one stream.
type Result struct {
	Summary       string
	RetryOccurred bool // True iff success happened on any attempt after the first.
}

// Logger is the minimal logging interface the prober needs.
type Logger interface {
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Options holds the retry policy and request parameters.
type Options struct {
	UserAgent  string
	Timeout    time.Duration // Per-attempt ffprobe timeout.
	Attempts   int           // Total attempts, including the first.
	RetryDelay time.Duration // Fixed delay between attempts (no backoff).
}

// Prober analyzes stream URLs. The exec step is injectable for tests.
type Prober struct {
	opts Options
	log  Logger
	run  func(ctx context.Context, url string) ([]byte, error)
}

// New returns a Prober that shells out to ffprobe.
func New(opts Options, log Logger) *Prober {
	p := &Prober{opts: opts, log: log}
	p.run = p.runFFprobe
	return p
}

// Analyze probes url and returns a normalized codec summary. After
// exhausting all attempts it returns the sentinel failure summary and
// surfaces the last underlying error on the failure log.
func (p *Prober) Analyze(ctx context.Context, url string) Result {
	var lastErr error

	for attempt := 1; attempt <= p.opts.Attempts; attempt++ {
		out, err := p.run(ctx, url)
		if err == nil {
			summary, perr := Summarize(out)
			if perr == nil {
				return Result{Summary: summary, RetryOccurred: attempt > 1}
			}
			err = perr
		}
		lastErr = err

		if attempt < p.opts.Attempts {
			p.log.Warn("Probe attempt %d/%d failed, retrying in %s",
				attempt, p.opts.Attempts, p.opts.RetryDelay)
			time.Sleep(p.opts.RetryDelay)
		}
	}

	p.log.Error("ffprobe: %v", lastErr)
	return Result{Summary: FailedSummary}
}

// runFFprobe runs a single ffprobe JSON call against url with the
// configured user agent and timeout.
func (p *Prober) runFFprobe(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		"-user_agent", p.opts.UserAgent,
		"-timeout", strconv.FormatInt(p.opts.Timeout.Microseconds(), 10),
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if line := lastLine(stderr.String()); line != "" {
			return nil, fmt.Errorf("ffprobe %q: %s", url, line)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", url, err)
	}
	return out, nil
}

// lastLine returns the final non-empty line of s, which for ffprobe
// stderr is the most specific error message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
}

type ffprobeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
}

// Summarize converts raw ffprobe JSON output into the fixed summary
// string "Input: <container>, Video: <video>, Audio: <audio>".
// Exported for testing without a real ffprobe binary.
func Summarize(data []byte) (string, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	input := normalizeContainer(raw.Format.FormatName)

	video, audio := "N/A", "N/A"
	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if video == "N/A" && s.CodecName != "" {
				video = normalizeVideoCodec(s.CodecName)
			}
		case "audio":
			if audio == "N/A" && s.CodecName != "" {
				audio = strings.ToUpper(s.CodecName)
			}
		}
	}

	return fmt.Sprintf("Input: %s, Video: %s, Audio: %s", input, video, audio), nil
}

// normalizeContainer uppercases the container name and flattens ffprobe's
// comma-delimited aliases ("matroska,webm" -> "MATROSKA, WEBM").
func normalizeContainer(formatName string) string {
	if formatName == "" {
		return "N/A"
	}
	parts := strings.Split(formatName, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return strings.ToUpper(strings.Join(parts, ", "))
}

// normalizeVideoCodec uppercases the codec and maps the legacy numeric
// names to their common industry abbreviations.
func normalizeVideoCodec(codec string) string {
	c := strings.ToUpper(codec)
	c = strings.ReplaceAll(c, "H264", "AVC")
	c = strings.ReplaceAll(c, "H265", "HEVC")
	return c
}
