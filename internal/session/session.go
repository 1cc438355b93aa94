// Package session orchestrates the test sequence: the baseline run plus
// every selected profile run, strictly sequentially — the backend's
// active profile is global mutable state and one player handle is shared
// across all channels, so nothing here may overlap.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/zaptime/internal/config"
	"github.com/backmassage/zaptime/internal/dispatcharr"
	"github.com/backmassage/zaptime/internal/playlist"
	"github.com/backmassage/zaptime/internal/probe"
	"github.com/backmassage/zaptime/internal/results"
	"github.com/backmassage/zaptime/internal/tuner"
)

// Logger is the minimal logging interface needed by the session. Defined
// here (rather than importing the logging package) so the orchestrator is
// testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Tune(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Measurer runs one playback measurement; implemented by *tuner.Tuner.
type Measurer interface {
	Measure(ch playlist.Channel) tuner.Outcome
}

// MeasurerFactory builds the measurer for one profile-run. Each run gets
// its own thumbnail directory so artifacts never collide across runs.
type MeasurerFactory func(thumbnailDir string) Measurer

// Prober analyzes one stream URL; implemented by *probe.Prober.
type Prober interface {
	Analyze(ctx context.Context, url string) probe.Result
}

// Correlator answers time-window log queries; implemented by
// *logtail.Tailer.
type Correlator interface {
	Query(start, end time.Time) []string
}

// ProfileSwitcher activates a backend profile; implemented by
// *dispatcharr.Client.
type ProfileSwitcher interface {
	SetActiveProfile(settingsID int, profileID string) error
}

// Deps are the session's collaborators. Prober and Correlator may be nil
// to disable probing / correlation.
type Deps struct {
	Fetch       func(direct bool) ([]playlist.Channel, error)
	NewMeasurer MeasurerFactory
	Prober      Prober
	Correlator  Correlator
}

// Session runs profile-runs and folds their rows into one matrix.
type Session struct {
	cfg    *config.Config
	log    Logger
	deps   Deps
	matrix *results.Matrix
}

// New returns a Session with an empty matrix.
func New(cfg *config.Config, log Logger, deps Deps) *Session {
	return &Session{cfg: cfg, log: log, deps: deps, matrix: results.NewMatrix()}
}

// Matrix returns the accumulated result matrix.
func (s *Session) Matrix() *results.Matrix { return s.matrix }

// RunAll executes the baseline run and every selected profile run in
// order, then restores the originally active profile. Restoration happens
// exactly once, after the full sequence, on every exit path — including
// interruption and per-run skips.
func (s *Session) RunAll(
	ctx context.Context,
	cp ProfileSwitcher,
	settingsID int,
	activeProfile string,
	selected []dispatcharr.Profile,
) *results.Matrix {
	defer func() {
		if activeProfile == "" {
			return
		}
		s.log.Info("Restoring original active profile")
		if err := cp.SetActiveProfile(settingsID, activeProfile); err != nil {
			s.log.Error("Could not restore active profile: %v", err)
		}
	}()

	s.log.Info("--- Testing baseline (direct) ---")
	if channels, err := s.deps.Fetch(true); err != nil {
		s.log.Error("Baseline channel list unavailable: %v", err)
	} else {
		s.runColumn(ctx, newColumn("Baseline (direct)"), channels)
	}

	for _, p := range selected {
		if ctx.Err() != nil {
			s.log.Warn("Interrupted, skipping remaining profiles")
			break
		}

		s.log.Info("--- Testing profile: %s ---", p.Name)
		if err := cp.SetActiveProfile(settingsID, string(p.ID)); err != nil {
			s.log.Error("Cannot activate profile %s: %v; skipping run", p.Name, err)
			continue
		}
		// Give the backend a moment to apply the switch before the
		// playlist reflects it.
		time.Sleep(s.cfg.ProfileSettle)

		channels, err := s.deps.Fetch(false)
		if err != nil {
			s.log.Error("Channel list for %s unavailable: %v; skipping run", p.Name, err)
			continue
		}
		s.runColumn(ctx, newColumn(p.Name), channels)
	}

	return s.matrix
}

// runColumn tests every channel of one profile-run and folds the rows
// into the matrix under col. Per-channel failures never abort the loop.
func (s *Session) runColumn(ctx context.Context, col results.Column, channels []playlist.Channel) {
	s.log.Info("Starting test for %d channels", len(channels))

	thumbDir := ""
	if s.cfg.Thumbnails {
		thumbDir = fmt.Sprintf("%s/%s", s.cfg.ThumbnailDir, col.RunID)
	}
	measurer := s.deps.NewMeasurer(thumbDir)

	tuned := 0
	for i, ch := range channels {
		if ctx.Err() != nil {
			s.log.Warn("Interrupted, skipping remaining channels")
			break
		}

		s.log.Info("[%d/%d] Tuning %s", i+1, len(channels), ch.Name)
		s.log.Debug(s.cfg.Verbose, "  URL: %s", ch.URL)

		row := s.testChannel(ctx, measurer, ch)
		if row.Outcome.Tuned {
			tuned++
		}
		s.matrix.Add(col, ch, row)

		// Pacing between tunings is outside the measured time.
		if s.cfg.TuningDelay > 0 && i < len(channels)-1 {
			s.log.Debug(s.cfg.Verbose, "Waiting %s before next tuning", s.cfg.TuningDelay)
			time.Sleep(s.cfg.TuningDelay)
		}
	}

	s.log.Success("Run %q complete: %d/%d channels tuned", col.Profile, tuned, len(channels))
}

// testChannel runs the full per-channel sequence: tune, optional probe,
// log correlation over the test interval, debug-note assembly.
func (s *Session) testChannel(ctx context.Context, m Measurer, ch playlist.Channel) results.Row {
	testStart := time.Now()

	outcome := m.Measure(ch)

	var pr *probe.Result
	if s.deps.Prober != nil {
		// Short settle so the probe doesn't race the player teardown on
		// the same upstream connection. Probe info is useful context even
		// when the tune failed.
		time.Sleep(s.cfg.ProbeSettle)
		s.log.Info("  Analyzing stream")
		r := s.deps.Prober.Analyze(ctx, ch.URL)
		pr = &r
	}

	testEnd := time.Now()

	var notes []string
	if pr != nil && pr.Summary == probe.FailedSummary {
		notes = append(notes, "ffprobe: "+pr.Summary)
	}
	if outcome.Tuned {
		s.log.Tune("  Tuned in %.4fs", outcome.Elapsed.Seconds())
	} else {
		s.log.Error("  %s", outcome.Cause())
		notes = append(notes, "player: "+outcome.Cause())
	}

	var lines []string
	if s.deps.Correlator != nil {
		lines = s.deps.Correlator.Query(testStart, testEnd)
		if len(lines) > 0 {
			s.log.Warn("  %d backend log line(s) correlated with this test", len(lines))
			notes = append(notes, fmt.Sprintf("backend: %d correlated log line(s)", len(lines)))
		}
	}

	return results.Row{Outcome: outcome, Probe: pr, LogLines: lines, DebugNotes: notes}
}

// newColumn stamps a profile-run column with its start time and a short
// unique run ID.
func newColumn(profile string) results.Column {
	return results.Column{
		Profile:   profile,
		StartedAt: time.Now(),
		RunID:     uuid.NewString()[:8],
	}
}
