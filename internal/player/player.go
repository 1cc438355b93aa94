// Package player defines the controllable media-player handle the tuner
// drives, plus the libVLC-backed implementation. The interface exists so
// the tuning state machine can be exercised against a scripted fake; only
// the adapter in vlc.go touches libVLC.
package player

// Signal identifies an asynchronous player event relevant to tuning.
type Signal int

const (
	// SignalPlaying fires when the player reports real playback has begun.
	SignalPlaying Signal = iota
	// SignalError fires when the player encounters a stream error. May
	// arrive before, after, or instead of SignalPlaying.
	SignalError
)

// Handle is one controllable player session. Implementations are reused
// sequentially across channels; none of the methods are safe for
// concurrent use with each other.
type Handle interface {
	// Load replaces the current media with url, attaching userAgent as a
	// request-level option.
	Load(url, userAgent string) error

	// Play starts playback of the loaded media.
	Play() error

	// Stop halts playback and clears the loaded media. Must be safe to
	// call on every exit path, including after errors.
	Stop() error

	// PositionMs reports the current playback position in milliseconds.
	PositionMs() (int64, error)

	// Snapshot writes a still frame of the current video to path.
	Snapshot(path string) error

	// Subscribe registers fn for asynchronous player signals and returns
	// a detach function. The detail string carries the player's error
	// text for SignalError, when available.
	Subscribe(fn func(sig Signal, detail string)) (detach func(), err error)
}
