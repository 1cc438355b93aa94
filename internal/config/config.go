// Package config holds runtime configuration: defaults, environment
// loading, CLI flag parsing, and validation. Timing constants match the
// values the TiviMate client exhibits against a Dispatcharr backend and
// should not need tuning per deployment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/zaptime/internal/term"
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [LoadEnv], then mutated by [ParseFlags] before being passed (by
// pointer) to packages that need it.
type Config struct {
	// Backend (control plane + playlist source).
	ServerAddress string // host:port of the Dispatcharr instance.
	Username      string // API username (env only).
	Password      string // API password (env only).

	// Channel selection.
	TargetGroup  string // M3U group-title to test; empty means all groups.
	StartChannel string // First channel (substring match) of the test window.
	ChannelCount int    // Number of channels to test. Default: 10.

	// Feature toggles.
	ProbeEnabled bool // --probe: ffprobe stream analysis per channel.
	DebugEnabled bool // --debug: SSH log tailing + correlation column.
	Thumbnails   bool // Default: true. Cleared by --no-thumbnail.
	HTMLReport   bool // Default: true. Cleared by --no-report.

	// Profile selection ("1,3", "all", or empty for interactive prompt).
	ProfilesArg string

	// Pacing.
	TuningDelay time.Duration // Optional pause between channels. Default: 0.

	// Log tailing (env only).
	SSHHost       string // Host running the backend container.
	SSHUser       string
	SSHKeyPath    string
	ContainerName string // Docker container whose logs are tailed.

	// Output paths.
	CSVFile      string // Default: "tuning_results.csv".
	ReportFile   string // Default: "tuning_report.html".
	ThumbnailDir string // Default: "thumbnails".

	// Display and logging.
	Verbose   bool
	ColorMode term.Mode // Default: auto.
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.

	// Fixed measurement constants (not user-configurable).
	UserAgent        string        // Client signature sent on every request.
	TuneTimeout      time.Duration // Deadline for the playing signal.
	MinPlaybackMs    int64         // Position threshold for a confirmed tune.
	StabilizeTimeout time.Duration // Ceiling on the post-signal position wait.
	StabilizePoll    time.Duration // Position poll interval.
	ProbeTimeout     time.Duration // Per-attempt ffprobe timeout.
	ProbeAttempts    int
	ProbeRetryDelay  time.Duration
	ProbeSettle      time.Duration // Pause between tune and probe.
	ProfileSettle    time.Duration // Pause after switching the active profile.
	TailBacklog      int           // docker logs --tail value.
	TailHealthCheck  time.Duration // First-line deadline before giving up.
}

// DefaultConfig returns a Config with all defaults. Used as the base
// before [LoadEnv] and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		ChannelCount: 10,
		Thumbnails:   true,
		HTMLReport:   true,
		CSVFile:      "tuning_results.csv",
		ReportFile:   "tuning_report.html",
		ThumbnailDir: "thumbnails",
		ColorMode:    term.ModeAuto,

		UserAgent:        "TiviMate/4.7.0 (Linux; Android 11)",
		TuneTimeout:      15 * time.Second,
		MinPlaybackMs:    200,
		StabilizeTimeout: 2 * time.Second,
		StabilizePoll:    50 * time.Millisecond,
		ProbeTimeout:     10 * time.Second,
		ProbeAttempts:    3,
		ProbeRetryDelay:  2 * time.Second,
		ProbeSettle:      time.Second,
		ProfileSettle:    2 * time.Second,
		TailBacklog:      25,
		TailHealthCheck:  5 * time.Second,
	}
}

// BaseURL returns the backend base URL, e.g. "http://192.168.0.150:9191".
func (c *Config) BaseURL() string {
	return "http://" + c.ServerAddress
}

// PlaylistURL returns the M3U endpoint. direct=true bypasses the proxy and
// is used for the baseline run.
func (c *Config) PlaylistURL(direct bool) string {
	if direct {
		return c.BaseURL() + "/output/m3u?direct=true"
	}
	return c.BaseURL() + "/output/m3u"
}

// Validate checks that required settings are present for a test run.
// CheckOnly mode relaxes everything so diagnostics can run on a bare config.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case term.ModeAuto, term.ModeAlways, term.ModeNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.ChannelCount <= 0 {
		return errors.New("channel count must be positive")
	}
	if c.TuningDelay < 0 {
		return errors.New("tuning delay must not be negative")
	}

	if c.CheckOnly {
		return nil
	}

	if strings.TrimSpace(c.ServerAddress) == "" {
		return errors.New("server address required (--server or ZAPTIME_SERVER)")
	}
	if c.Username == "" || c.Password == "" {
		return errors.New("backend credentials required (ZAPTIME_USERNAME / ZAPTIME_PASSWORD)")
	}
	if c.DebugEnabled {
		if c.SSHHost == "" || c.SSHUser == "" || c.SSHKeyPath == "" || c.ContainerName == "" {
			return fmt.Errorf("--debug requires ZAPTIME_SSH_HOST, ZAPTIME_SSH_USER, " +
				"ZAPTIME_SSH_KEY and ZAPTIME_CONTAINER")
		}
	}
	return nil
}
