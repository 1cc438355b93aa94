// Package tuner implements the per-channel playback measurement state
// machine. One call to [Tuner.Measure] drives exactly one tune attempt:
// load → play → block on the player's "playing" signal → wait for real
// decoded output → optional thumbnail. The player is always stopped and
// its media cleared on every exit path.
//
// The state machine is not reentrant; it shares one player handle with
// the rest of the session and must be invoked sequentially.
package tuner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/zaptime/internal/player"
	"github.com/backmassage/zaptime/internal/playlist"
)

// FailureKind classifies a failed tune attempt.
type FailureKind int

const (
	// FailTimeout: the deadline expired with no playing signal and no
	// error signal observed.
	FailTimeout FailureKind = iota
	// FailStream: an error signal was observed and the playing signal
	// never arrived before the deadline.
	FailStream
)

// String returns the human-readable cause used in reports.
func (k FailureKind) String() string {
	if k == FailStream {
		return "Stream Error"
	}
	return "Timed out"
}

// Outcome is the result of one tune attempt. Elapsed and ThumbnailPath
// are only meaningful when Tuned is true; Kind and Detail only when it
// is false.
type Outcome struct {
	Tuned         bool
	Elapsed       time.Duration
	ThumbnailPath string
	Kind          FailureKind
	Detail        string
}

// Cause returns the failure classification plus the player's reported
// error text, for debug notes.
func (o Outcome) Cause() string {
	if o.Tuned {
		return ""
	}
	if o.Detail == "" {
		return o.Kind.String()
	}
	return o.Kind.String() + ": " + o.Detail
}

// Logger is the minimal logging interface the tuner needs.
type Logger interface {
	Warn(format string, args ...interface{})
}

// Options holds the fixed measurement parameters. ThumbnailDir empty
// disables snapshot capture.
type Options struct {
	UserAgent        string
	TuneTimeout      time.Duration // Deadline for the playing signal.
	MinPlaybackMs    int64         // Position threshold for a confirmed tune.
	StabilizeTimeout time.Duration // Ceiling on the position wait.
	StabilizePoll    time.Duration // Position poll interval.
	ThumbnailDir     string
}

// Tuner measures tune times against one player handle.
type Tuner struct {
	h    player.Handle
	opts Options
	log  Logger
}

// New returns a Tuner driving h.
func New(h player.Handle, opts Options, log Logger) *Tuner {
	return &Tuner{h: h, opts: opts, log: log}
}

// Measure runs one playback attempt for ch and returns the outcome. The
// calling goroutine blocks on the playing signal up to the configured
// deadline; an error signal from the player is advisory — transient
// mid-buffering errors are common and often self-resolve — and only
// classifies the failure if the playing signal never arrives.
func (t *Tuner) Measure(ch playlist.Channel) Outcome {
	sig := newSignalSlot(func(detail string) {
		t.log.Warn("Transient stream error reported (%s), continuing to wait", detail)
	})

	detach, err := t.h.Subscribe(sig.deliver)
	if err != nil {
		return failure(FailStream, fmt.Sprintf("attach player events: %v", err))
	}
	defer detach()

	// Scoped release: whatever happens below, the player ends stopped
	// with its media cleared so the next channel starts clean.
	defer func() { _ = t.h.Stop() }()

	if err := t.h.Load(ch.URL, t.opts.UserAgent); err != nil {
		return failure(FailStream, err.Error())
	}

	start := time.Now()
	if err := t.h.Play(); err != nil {
		return failure(FailStream, err.Error())
	}

	select {
	case <-sig.playing:
		// Requested → Playing.
	case <-time.After(t.opts.TuneTimeout):
		if detail, ok := sig.errorDetail(); ok {
			return failure(FailStream, detail)
		}
		return failure(FailTimeout, fmt.Sprintf("no playing signal within %s", t.opts.TuneTimeout))
	}

	// The playing signal can fire before any frame is decoded. Wait until
	// the playback position clears the threshold so the measurement
	// covers real output, bounded independently of the outer deadline.
	t.waitForDecodedOutput()
	elapsed := time.Since(start)

	thumb := ""
	if t.opts.ThumbnailDir != "" {
		thumb = t.captureThumbnail(ch)
	}

	return Outcome{Tuned: true, Elapsed: elapsed, ThumbnailPath: thumb}
}

// waitForDecodedOutput polls the playback position until it exceeds the
// minimum threshold or the stabilization ceiling is reached.
func (t *Tuner) waitForDecodedOutput() {
	deadline := time.Now().Add(t.opts.StabilizeTimeout)
	for {
		pos, err := t.h.PositionMs()
		if err == nil && pos > t.opts.MinPlaybackMs {
			return
		}
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(t.opts.StabilizePoll)
	}
}

// captureThumbnail snapshots the current frame to a per-channel,
// per-timestamp file. Capture failures are logged and swallowed — the
// tune itself already succeeded.
func (t *Tuner) captureThumbnail(ch playlist.Channel) string {
	if err := os.MkdirAll(t.opts.ThumbnailDir, 0o755); err != nil {
		t.log.Warn("Cannot create thumbnail directory: %v", err)
		return ""
	}

	name := fmt.Sprintf("%s_%s.png", ch.SafeFileName(), time.Now().Format("20060102_150405"))
	path := filepath.Join(t.opts.ThumbnailDir, name)
	if err := t.h.Snapshot(path); err != nil {
		t.log.Warn("Thumbnail capture failed for %s: %v", ch.Name, err)
		return ""
	}
	// Give the snapshot writer a moment before the player is stopped.
	time.Sleep(200 * time.Millisecond)
	return path
}

func failure(kind FailureKind, detail string) Outcome {
	return Outcome{Kind: kind, Detail: detail}
}
