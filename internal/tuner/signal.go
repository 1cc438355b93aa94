package tuner

import (
	"sync"

	"github.com/backmassage/zaptime/internal/player"
)

// signalSlot is the single-slot synchronization primitive for one tune
// attempt. Each Measure call owns a fresh instance, so signals from a
// previous attempt can never leak into the next one.
//
// The playing channel is closed at most once; error signals are recorded
// (first detail wins) and reported through onError exactly once.
type signalSlot struct {
	playing chan struct{}
	once    sync.Once

	mu        sync.Mutex
	errSeen   bool
	errDetail string

	onError func(detail string)
}

func newSignalSlot(onError func(detail string)) *signalSlot {
	return &signalSlot{
		playing: make(chan struct{}),
		onError: onError,
	}
}

// deliver is the player event callback. Safe to call from the player's
// event thread while the measuring goroutine blocks on the playing
// channel.
func (s *signalSlot) deliver(sig player.Signal, detail string) {
	switch sig {
	case player.SignalPlaying:
		s.once.Do(func() { close(s.playing) })
	case player.SignalError:
		s.mu.Lock()
		first := !s.errSeen
		if first {
			s.errSeen = true
			s.errDetail = detail
		}
		s.mu.Unlock()
		if first && s.onError != nil {
			s.onError(detail)
		}
	}
}

// errorDetail reports whether an error signal was observed, and its text.
func (s *signalSlot) errorDetail() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errDetail, s.errSeen
}
