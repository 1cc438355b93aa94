package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into test selection, features, output, and display.
// Negated flags (e.g. --no-report) are applied after Parse so Config
// defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/backmassage/zaptime/internal/term"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag).
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("zaptime", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	// Negated/override flags: we capture bools then apply to cfg after
	// Parse, so that defaults from DefaultConfig() hold unless the user
	// passes the flag.
	var negated negatedFlags
	var delaySeconds int

	defineSelectionFlags(fs, cfg)
	defineFeatureFlags(fs, cfg, &negated, &delaySeconds)
	defineOutputFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)
	cfg.TuningDelay = time.Duration(delaySeconds) * time.Second

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "zaptime v"+version)
		os.Exit(0)
	}
	if len(fs.Args()) != 0 {
		return fmt.Errorf("unexpected argument %q", fs.Args()[0])
	}
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse. These
// either invert a default (e.g. noReport -> HTMLReport=false) or trigger
// exit (showHelp, showVersion).
type negatedFlags struct {
	noThumbnail bool
	noReport    bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineSelectionFlags registers backend/channel selection flags.
func defineSelectionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ServerAddress, "server", cfg.ServerAddress, "Backend host:port (overrides ZAPTIME_SERVER)")
	fs.StringVar(&cfg.TargetGroup, "group", cfg.TargetGroup, "M3U group-title to test (empty: all groups)")
	fs.StringVar(&cfg.StartChannel, "start-channel", cfg.StartChannel, "First channel of the test window (substring match)")
	fs.IntVar(&cfg.ChannelCount, "count", cfg.ChannelCount, "Number of channels to test")
	fs.StringVar(&cfg.ProfilesArg, "profiles", "", "Profiles to test: comma-separated numbers or 'all' (empty: prompt)")
}

// defineFeatureFlags registers --probe, --debug, --tuning-delay and the
// opt-out flags.
func defineFeatureFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags, delaySeconds *int) {
	fs.BoolVar(&cfg.ProbeEnabled, "probe", false, "Analyze each stream with ffprobe")
	fs.BoolVar(&cfg.DebugEnabled, "debug", false, "Tail backend logs over SSH and correlate errors")
	fs.IntVar(delaySeconds, "tuning-delay", 0, "Seconds to wait between channel tunings")
	fs.BoolVar(&n.noThumbnail, "no-thumbnail", false, "Do not capture stream thumbnails")
	fs.BoolVar(&n.noReport, "no-report", false, "Do not generate the HTML report")
}

// defineOutputFlags registers result file paths.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.CSVFile, "csv", cfg.CSVFile, "CSV output path")
	fs.StringVar(&cfg.ReportFile, "html", cfg.ReportFile, "HTML report output path")
	fs.StringVar(&cfg.ThumbnailDir, "thumb-dir", cfg.ThumbnailDir, "Thumbnail directory")
}

// defineDisplayFlags registers color, verbose, log, check, version, help.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noThumbnail {
		cfg.Thumbnails = false
	}
	if n.noReport {
		cfg.HTMLReport = false
	}
	if n.noColor {
		cfg.ColorMode = term.ModeNever
	} else if n.forceColor {
		cfg.ColorMode = term.ModeAlways
	}
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "zaptime v" + version + " — IPTV channel tuning performance tester"},
		{"", ""},
		{"  zaptime [OPTIONS]", ""},
		{"", ""},
		{"Selection", ""},
		{"  --server <host:port>", "Backend host:port (or ZAPTIME_SERVER)"},
		{"  --group <name>", "M3U group-title to test"},
		{"  --start-channel <name>", "First channel of the test window"},
		{"  --count <n>", "Number of channels to test (default: 10)"},
		{"  --profiles <list|all>", "Profiles to test (default: prompt)"},
		{"", ""},
		{"Features", ""},
		{"  --probe", "Analyze each stream with ffprobe"},
		{"  --debug", "Tail backend logs over SSH, correlate errors"},
		{"  --tuning-delay <seconds>", "Pause between channel tunings"},
		{"  --no-thumbnail", "Disable stream thumbnails"},
		{"  --no-report", "Disable the HTML report"},
		{"", ""},
		{"Output", ""},
		{"  --csv <path>", "CSV output path (default: tuning_results.csv)"},
		{"  --html <path>", "HTML report path (default: tuning_report.html)"},
		{"  --thumb-dir <path>", "Thumbnail directory (default: thumbnails)"},
		{"", ""},
		{"Display", ""},
		{"  --color / --no-color", "Force / disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffprobe, libVLC, SSH, server)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment (.env honored)", ""},
		{"  ZAPTIME_SERVER", "Backend host:port"},
		{"  ZAPTIME_USERNAME / ZAPTIME_PASSWORD", "Backend API credentials"},
		{"  ZAPTIME_SSH_HOST / ZAPTIME_SSH_USER", "Log-tail SSH target (--debug)"},
		{"  ZAPTIME_SSH_KEY", "Private key path (--debug)"},
		{"  ZAPTIME_CONTAINER", "Backend container name (--debug)"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}
