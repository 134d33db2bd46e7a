package clock

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SaneThreshold is the earliest instant treated as a synchronized wall clock.
var SaneThreshold = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var errNotSynced = errors.New("clock not synchronized")

// Clock abstracts the process wall clock.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// IsSane reports whether t is at or after SaneThreshold.
func IsSane(t time.Time) bool {
	return !t.Before(SaneThreshold)
}

// Syncer asks an external time service to synchronize the clock and waits a
// bounded amount of time for the clock to become sane. It does not own the
// time service; Trigger is whatever kicks it off.
type Syncer struct {
	clock   Clock
	trigger func()

	// Attempts and Interval bound the wait (20 x 500ms by default).
	Attempts int
	Interval time.Duration

	mu        sync.Mutex
	triggered bool
}

// NewSyncer creates a Syncer. trigger may be nil.
func NewSyncer(c Clock, trigger func()) *Syncer {
	return &Syncer{
		clock:    c,
		trigger:  trigger,
		Attempts: 20,
		Interval: 500 * time.Millisecond,
	}
}

// Sync returns immediately once the clock is sane. Otherwise it triggers the
// time service (once per process) and polls until the clock is sane, the
// attempts run out, or ctx is done.
func (s *Syncer) Sync(ctx context.Context) error {
	if IsSane(s.clock.Now()) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.triggered {
		s.triggered = true
		if s.trigger != nil {
			s.trigger()
		}
	}

	attempts := s.Attempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.Interval), uint64(attempts-1)),
		ctx,
	)

	err := backoff.Retry(func() error {
		if IsSane(s.clock.Now()) {
			return nil
		}
		return errNotSynced
	}, b)
	if err != nil {
		log.Printf("WARN: clock: time not synced (TLS may fail): %v", err)
		return err
	}

	log.Printf("INFO: clock: time synced")
	return nil
}
