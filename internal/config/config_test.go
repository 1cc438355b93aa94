package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/zaptime/internal/term"
)

// validConfig returns a config that passes Validate for a normal run.
func validConfig() Config {
	cfg := DefaultConfig()
	cfg.ServerAddress = "192.168.0.150:9191"
	cfg.Username = "admin"
	cfg.Password = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing server", func(c *Config) { c.ServerAddress = " " }, true},
		{"missing credentials", func(c *Config) { c.Password = "" }, true},
		{"zero channel count", func(c *Config) { c.ChannelCount = 0 }, true},
		{"negative tuning delay", func(c *Config) { c.TuningDelay = -1 }, true},
		{"bad color mode", func(c *Config) { c.ColorMode = term.Mode("sometimes") }, true},
		{"debug without ssh settings", func(c *Config) { c.DebugEnabled = true }, true},
		{"debug with ssh settings", func(c *Config) {
			c.DebugEnabled = true
			c.SSHHost = "192.168.0.150"
			c.SSHUser = "root"
			c.SSHKeyPath = "/root/.ssh/id_ed25519"
			c.ContainerName = "dispatcharr"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_CheckOnlyRelaxesRequirements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	require.NoError(t, cfg.Validate())
}

func TestPlaylistURL(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http://192.168.0.150:9191", cfg.BaseURL())
	assert.Equal(t, "http://192.168.0.150:9191/output/m3u?direct=true", cfg.PlaylistURL(true))
	assert.Equal(t, "http://192.168.0.150:9191/output/m3u", cfg.PlaylistURL(false))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.ChannelCount)
	assert.True(t, cfg.Thumbnails)
	assert.True(t, cfg.HTMLReport)
	assert.Equal(t, term.ModeAuto, cfg.ColorMode)
	assert.Equal(t, 3, cfg.ProbeAttempts)
	assert.Contains(t, cfg.UserAgent, "TiviMate")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("ZAPTIME_SERVER", "10.0.0.5:9191")
	t.Setenv("ZAPTIME_USERNAME", "envuser")
	t.Setenv("ZAPTIME_PASSWORD", "envpass")
	t.Setenv("ZAPTIME_CONTAINER", "dispatcharr")

	cfg := DefaultConfig()
	LoadEnv(&cfg)

	assert.Equal(t, "10.0.0.5:9191", cfg.ServerAddress)
	assert.Equal(t, "envuser", cfg.Username)
	assert.Equal(t, "envpass", cfg.Password)
	assert.Equal(t, "dispatcharr", cfg.ContainerName)
}

func TestLoadEnv_MissingVarsLeaveDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerAddress = "preset:9191"
	LoadEnv(&cfg)
	assert.Equal(t, "preset:9191", cfg.ServerAddress)
}
