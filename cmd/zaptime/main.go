// Command zaptime is the CLI entrypoint for the IPTV tuning tester.
//
// It parses configuration, validates dependencies, and either runs system
// diagnostics (--check) or the full test session: baseline plus selected
// stream profiles, one tuning measurement per channel per profile.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/backmassage/zaptime/internal/check"
	"github.com/backmassage/zaptime/internal/config"
	"github.com/backmassage/zaptime/internal/dispatcharr"
	"github.com/backmassage/zaptime/internal/display"
	"github.com/backmassage/zaptime/internal/logging"
	"github.com/backmassage/zaptime/internal/logtail"
	"github.com/backmassage/zaptime/internal/player"
	"github.com/backmassage/zaptime/internal/playlist"
	"github.com/backmassage/zaptime/internal/probe"
	"github.com/backmassage/zaptime/internal/report"
	"github.com/backmassage/zaptime/internal/session"
	"github.com/backmassage/zaptime/internal/tuner"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	config.LoadEnv(&cfg)
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "zaptime: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "zaptime: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(cfg.ColorMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zaptime: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	display.PrintBanner()

	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	log.Info("=== zaptime v%s (%s) ===", version, commit)
	log.Info("Backend: %s", cfg.BaseURL())

	// Fail fast if ffprobe or the SSH key are unusable for the requested
	// features.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Control plane. Any failure before the first profile switch
	// is fatal — nothing has been mutated yet.
	api := dispatcharr.New(cfg.BaseURL())
	if err := api.Login(cfg.Username, cfg.Password); err != nil {
		log.Error("Backend login failed: %v", err)
		return 1
	}
	profiles, err := api.Profiles()
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if len(profiles) == 0 {
		log.Error("Backend reports no stream profiles")
		return 1
	}
	activeProfile, settingsID, err := api.ActiveProfile()
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Debug(cfg.Verbose, "Active profile before session: %s (settings row %d)",
		activeProfile, settingsID)

	selected, err := selectProfiles(cfg.ProfilesArg, profiles, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 4: Optional background log tailer. It warms up before the
	// first test so the backlog covers the session start.
	var correlator session.Correlator
	if cfg.DebugEnabled {
		tailer := logtail.New(logtail.Options{
			Host:        cfg.SSHHost,
			User:        cfg.SSHUser,
			KeyPath:     cfg.SSHKeyPath,
			Container:   cfg.ContainerName,
			Backlog:     cfg.TailBacklog,
			HealthCheck: cfg.TailHealthCheck,
		}, log)
		go tailer.Run()
		time.Sleep(2 * time.Second)
		correlator = tailer
	}

	// Phase 5: Player handle, shared across all channels and runs.
	handle, err := player.NewVLC()
	if err != nil {
		log.Error("libVLC unavailable: %v", err)
		return 1
	}
	defer handle.Release()

	var prober session.Prober
	if cfg.ProbeEnabled {
		prober = probe.New(probe.Options{
			UserAgent:  cfg.UserAgent,
			Timeout:    cfg.ProbeTimeout,
			Attempts:   cfg.ProbeAttempts,
			RetryDelay: cfg.ProbeRetryDelay,
		}, log)
	}

	sess := session.New(&cfg, log, session.Deps{
		Fetch: func(direct bool) ([]playlist.Channel, error) {
			return playlist.Fetch(cfg.PlaylistURL(direct), cfg.UserAgent,
				cfg.TargetGroup, cfg.StartChannel, cfg.ChannelCount)
		},
		NewMeasurer: func(thumbnailDir string) session.Measurer {
			return tuner.New(handle, tuner.Options{
				UserAgent:        cfg.UserAgent,
				TuneTimeout:      cfg.TuneTimeout,
				MinPlaybackMs:    cfg.MinPlaybackMs,
				StabilizeTimeout: cfg.StabilizeTimeout,
				StabilizePoll:    cfg.StabilizePoll,
				ThumbnailDir:     thumbnailDir,
			}, log)
		},
		Prober:     prober,
		Correlator: correlator,
	})

	// Phase 6: Signal handling — cancel context on SIGINT/SIGTERM so the
	// session can stop between channels and still restore the profile.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current channel…")
		cancel()
	}()

	// Phase 7: Run the session and emit reports.
	matrix := sess.RunAll(ctx, api, settingsID, activeProfile, selected)
	if matrix.Empty() {
		log.Error("No channels were tested")
		return 1
	}

	fmt.Println()
	report.PrintTable(os.Stdout, matrix)
	fmt.Println()

	opts := report.Options{
		Thumbnails: cfg.Thumbnails,
		Probe:      cfg.ProbeEnabled,
		Debug:      cfg.DebugEnabled,
	}
	if err := report.WriteCSV(cfg.CSVFile, matrix, opts); err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Success("Results written to %s", cfg.CSVFile)

	if cfg.HTMLReport {
		if err := report.WriteHTML(cfg.ReportFile, matrix, opts); err != nil {
			log.Error("%v", err)
			return 1
		}
		log.Success("Report written to %s", cfg.ReportFile)
	}
	return 0
}

// selectProfiles resolves the --profiles argument ("all", "1,3") against
// the backend's profile list, or prompts interactively when empty.
func selectProfiles(arg string, profiles []dispatcharr.Profile, log *logging.Logger) ([]dispatcharr.Profile, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return promptProfiles(profiles, log)
	}
	if strings.EqualFold(arg, "all") {
		return profiles, nil
	}
	return parseProfileNumbers(arg, profiles)
}

// promptProfiles lists the profiles with 1-based numbers and reads a
// selection from stdin.
func promptProfiles(profiles []dispatcharr.Profile, log *logging.Logger) ([]dispatcharr.Profile, error) {
	log.Info("Available stream profiles:")
	for i, p := range profiles {
		log.Info("  %d) %s", i+1, p.Name)
	}
	fmt.Print("Profiles to test (e.g. 1,3 or 'all'): ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read profile selection: %w", err)
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "all") {
		return profiles, nil
	}
	return parseProfileNumbers(line, profiles)
}

// parseProfileNumbers resolves a comma-separated list of 1-based profile
// numbers. Duplicates are kept in the order given.
func parseProfileNumbers(list string, profiles []dispatcharr.Profile) ([]dispatcharr.Profile, error) {
	var selected []dispatcharr.Profile
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(profiles) {
			return nil, fmt.Errorf("invalid profile selection %q (valid: 1-%d or 'all')",
				part, len(profiles))
		}
		selected = append(selected, profiles[n-1])
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no profiles selected")
	}
	return selected, nil
}
