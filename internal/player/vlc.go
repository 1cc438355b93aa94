package player

import (
	"fmt"
	"sync"

	vlc "github.com/adrg/libvlc-go/v3"
)

// VLC is the libVLC-backed Handle used for real measurements. One instance
// per process; playback runs headless (dummy video output) because only
// timing and snapshots matter, not on-screen rendering.
type VLC struct {
	player *vlc.Player

	mu    sync.Mutex
	media *vlc.Media
}

// NewVLC initializes libVLC headless and creates the player. Call Release
// when the session is over.
func NewVLC() (*VLC, error) {
	if err := vlc.Init("--quiet", "--no-video-title-show", "--vout=dummy"); err != nil {
		return nil, fmt.Errorf("init libVLC: %w", err)
	}
	p, err := vlc.NewPlayer()
	if err != nil {
		vlc.Release()
		return nil, fmt.Errorf("create player: %w", err)
	}
	return &VLC{player: p}, nil
}

// Release frees the player and the libVLC runtime.
func (v *VLC) Release() {
	_ = v.Stop()
	if v.player != nil {
		_ = v.player.Release()
	}
	_ = vlc.Release()
}

// Load replaces the current media with url, attaching userAgent as a
// media-level HTTP option. Some upstreams reject the stock libVLC
// signature, so the user agent is not optional in practice.
func (v *VLC) Load(url, userAgent string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.media != nil {
		_ = v.media.Release()
		v.media = nil
	}

	media, err := vlc.NewMediaFromURL(url)
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	if err := media.AddOptions(":http-user-agent=" + userAgent); err != nil {
		_ = media.Release()
		return fmt.Errorf("set user agent: %w", err)
	}
	if err := v.player.SetMedia(media); err != nil {
		_ = media.Release()
		return fmt.Errorf("set media: %w", err)
	}
	v.media = media
	return nil
}

// Play starts playback of the loaded media.
func (v *VLC) Play() error {
	return v.player.Play()
}

// Stop halts playback and releases the loaded media.
func (v *VLC) Stop() error {
	err := v.player.Stop()

	v.mu.Lock()
	if v.media != nil {
		_ = v.media.Release()
		v.media = nil
	}
	v.mu.Unlock()
	return err
}

// PositionMs reports the current media time in milliseconds.
func (v *VLC) PositionMs() (int64, error) {
	t, err := v.player.MediaTime()
	if err != nil {
		return 0, err
	}
	return int64(t), nil
}

// Snapshot writes a still frame of the current video to path at native
// resolution.
func (v *VLC) Snapshot(path string) error {
	return v.player.TakeSnapshot(path, 0, 0)
}

// Subscribe attaches playing/error event callbacks to the player's event
// manager and returns a function detaching both.
func (v *VLC) Subscribe(fn func(sig Signal, detail string)) (func(), error) {
	manager, err := v.player.EventManager()
	if err != nil {
		return nil, fmt.Errorf("event manager: %w", err)
	}

	playingID, err := manager.Attach(vlc.MediaPlayerPlaying, func(event vlc.Event, userData interface{}) {
		fn(SignalPlaying, "")
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("attach playing event: %w", err)
	}

	errorID, err := manager.Attach(vlc.MediaPlayerEncounteredError, func(event vlc.Event, userData interface{}) {
		// libVLC does not expose error text through the event; the log
		// correlator is the place to look for the underlying cause.
		fn(SignalError, "player encountered a stream error")
	}, nil)
	if err != nil {
		manager.Detach(playingID)
		return nil, fmt.Errorf("attach error event: %w", err)
	}

	return func() {
		manager.Detach(playingID)
		manager.Detach(errorID)
	}, nil
}
