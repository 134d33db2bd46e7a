package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/stopboard/internal/clock"
	"github.com/i474232898/stopboard/internal/metrics"
)

// Source reports the current version of one snapshot store. ok is false when
// the store was busy.
type Source struct {
	Name    string
	Version func() (uint32, bool)
}

// Scheduler runs a periodic heartbeat that logs the version of every store
// and refreshes the clock gauge. It never touches the polling loops.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sources   []Source
	clock     clock.Clock
	metrics   *metrics.Collector
	interval  time.Duration

	lastSeen map[string]uint32
}

// New creates a new Scheduler.
func New(sources []Source, interval time.Duration, c clock.Clock, m *metrics.Collector) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sources:   sources,
		clock:     c,
		metrics:   m,
		interval:  interval,
		lastSeen:  make(map[string]uint32, len(sources)),
	}
}

// Start schedules the heartbeat and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.sources) == 0 {
		log.Println("INFO: scheduler: no sources configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.Heartbeat)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Heartbeat logs one line per store. A store whose version has not moved
// since the previous heartbeat is reported as stalled.
func (s *Scheduler) Heartbeat() {
	s.metrics.SetClockSane(clock.IsSane(s.clock.Now()))

	for _, src := range s.sources {
		v, ok := src.Version()
		if !ok {
			log.Printf("WARN: scheduler: %s store busy, skipping", src.Name)
			continue
		}

		prev, seen := s.lastSeen[src.Name]
		s.lastSeen[src.Name] = v
		if seen && prev == v {
			log.Printf("WARN: scheduler: %s stalled at version=%d", src.Name, v)
			continue
		}
		log.Printf("INFO: scheduler: %s version=%d", src.Name, v)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
