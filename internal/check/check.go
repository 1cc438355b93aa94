// Package check provides system diagnostics (--check mode) and pre-session
// dependency validation (CheckDeps) for ffprobe, the SSH key, the backend
// server, and the thumbnail directory.
package check

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/backmassage/zaptime/internal/config"
	"github.com/backmassage/zaptime/internal/player"
)

// Sentinel errors returned by CheckDeps when a required tool or input is unusable.
var (
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrSSHKeyUnusable  = errors.New("SSH key missing or not a parseable private key")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints availability of
// ffprobe, libVLC, the backend server, the SSH key, and the thumbnail
// directory.
// This is informational only — it does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkFfprobe(log)
	checkLibVLC(log)
	checkServer(cfg, log)
	checkSSHKey(cfg, log)
	checkThumbnailDir(cfg, log)
}

// checkLibVLC initializes and releases a headless player to verify the
// shared library is installed and loadable.
func checkLibVLC(log Logger) {
	h, err := player.NewVLC()
	if err != nil {
		log.Error("libVLC unavailable: %v", err)
		return
	}
	h.Release()
	log.Success("libVLC OK")
}

// checkFfprobe verifies ffprobe is on PATH and logs its version string.
func checkFfprobe(log Logger) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		log.Error("ffprobe not found")
		return
	}
	cmd := exec.Command("ffprobe", "-version")
	out, err := cmd.Output()
	if err != nil {
		log.Warn("ffprobe found but -version failed: %v", err)
		return
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("ffprobe: %s", firstLine)
}

// checkServer does an unauthenticated GET against the backend base URL to
// verify it is reachable at all. Any HTTP response counts as reachable.
func checkServer(cfg *config.Config, log Logger) {
	if cfg.ServerAddress == "" {
		log.Warn("No server configured (--server)")
		return
	}
	log.Info("Checking server %s...", cfg.BaseURL())
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(cfg.BaseURL())
	if err != nil {
		log.Error("Server unreachable: %v", err)
		return
	}
	resp.Body.Close()
	log.Success("Server reachable (HTTP %d)", resp.StatusCode)
}

// checkSSHKey verifies the configured key file exists and parses as an
// unencrypted private key.
func checkSSHKey(cfg *config.Config, log Logger) {
	if cfg.SSHKeyPath == "" {
		log.Info("No SSH key configured; log correlation would be unavailable")
		return
	}
	key, err := os.ReadFile(cfg.SSHKeyPath)
	if err != nil {
		log.Error("SSH key unreadable: %v", err)
		return
	}
	if _, err := ssh.ParsePrivateKey(key); err != nil {
		log.Error("SSH key does not parse: %v", err)
		return
	}
	log.Success("SSH key OK: %s", cfg.SSHKeyPath)
}

// checkThumbnailDir verifies the thumbnail directory can be created and
// written to.
func checkThumbnailDir(cfg *config.Config, log Logger) {
	if !cfg.Thumbnails {
		log.Info("Thumbnails disabled")
		return
	}
	if err := os.MkdirAll(cfg.ThumbnailDir, 0o755); err != nil {
		log.Error("Cannot create thumbnail dir %s: %v", cfg.ThumbnailDir, err)
		return
	}
	probe := filepath.Join(cfg.ThumbnailDir, ".writetest")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		log.Error("Thumbnail dir not writable: %v", err)
		return
	}
	os.Remove(probe)
	log.Success("Thumbnail dir writable: %s", cfg.ThumbnailDir)
}

// CheckDeps is the pre-session validation: ffprobe must be on PATH when
// probing is enabled, and the SSH key must parse when log correlation is
// enabled. Returns a sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if cfg.ProbeEnabled {
		if _, err := exec.LookPath("ffprobe"); err != nil {
			return ErrFfprobeNotFound
		}
	}
	if cfg.DebugEnabled {
		key, err := os.ReadFile(cfg.SSHKeyPath)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSSHKeyUnusable, err)
		}
		if _, err := ssh.ParsePrivateKey(key); err != nil {
			return fmt.Errorf("%w: %v", ErrSSHKeyUnusable, err)
		}
	}
	return nil
}
