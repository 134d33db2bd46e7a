package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/stopboard/internal/api/http"
	"github.com/i474232898/stopboard/internal/board"
	"github.com/i474232898/stopboard/internal/clock"
	"github.com/i474232898/stopboard/internal/common"
	"github.com/i474232898/stopboard/internal/config"
	"github.com/i474232898/stopboard/internal/fetch"
	"github.com/i474232898/stopboard/internal/link"
	"github.com/i474232898/stopboard/internal/metrics"
	"github.com/i474232898/stopboard/internal/poller"
	"github.com/i474232898/stopboard/internal/publisher"
	"github.com/i474232898/stopboard/internal/schedule"
	"github.com/i474232898/stopboard/internal/scheduler"
	"github.com/i474232898/stopboard/internal/store"
	"github.com/i474232898/stopboard/internal/transit"
	"github.com/i474232898/stopboard/internal/weather"
	"github.com/i474232898/stopboard/internal/weather/providers"
)

func main() {
	common.InitLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	collector := metrics.NewCollector()

	// Shared bounded fetcher for both domains (timeout, backoff, breaker).
	fetcher := fetch.NewClient(fetch.Config{
		Client:  &http.Client{},
		Timeout: cfg.HTTPTimeout,
		Backoff: fetch.BackoffConfig{
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		},
	})

	var uplink link.Link = link.Static(true)
	if cfg.ConnectivityProbe != "" {
		uplink = link.NewProbe(cfg.ConnectivityProbe)
	}

	sys := clock.System{}
	syncer := clock.NewSyncer(sys, func() {
		log.Printf("INFO: clock: wall clock before %s, waiting for time sync", clock.SaneThreshold.Format(time.RFC3339))
	})

	storeOpts := store.Options{
		ReadWait:   cfg.ReadWait,
		MaxHistory: cfg.StoreMaxHistory,
		Metrics:    collector,
	}
	transitStore := store.New("transit", transit.Seed(cfg.Transit.Bus.Title), storeOpts)
	weatherStore := store.New("weather", weather.Seed(), storeOpts)
	b := board.New(transitStore, weatherStore)

	var sink poller.Sink
	if cfg.NATS.URL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, collector)
		if err != nil {
			log.Printf("WARN: NATS disabled: %v", err)
		} else {
			defer pub.Close()
			sink = pub
		}
	}

	transitPipeline := transit.NewPipeline(
		transit.NewQuerier(fetcher, sys, collector),
		transit.Source{Name: "bus", Title: cfg.Transit.Bus.Title, URL: cfg.Transit.Bus.URL},
		transit.Source{Name: "rail", Title: cfg.Transit.Rail.Title, URL: cfg.Transit.Rail.URL},
		sys, syncer, collector,
	)
	transitGate := schedule.NewGate(
		schedule.Window{Start: cfg.Display.StartHour, End: cfg.Display.EndHour},
		cfg.Location, uplink, sys,
	)
	transitLoop := poller.New[transit.Snapshot](transitPipeline, transitGate, transitStore,
		poller.Config{Period: cfg.Transit.PollPeriod}, sink, collector)

	weatherPipeline := weather.NewPipeline(
		fetcher, providers.NewOpenMeteo(cfg.Weather.BaseURL), cfg.Weather.Location,
		sys, syncer, collector,
	)
	weatherGate := schedule.NewGate(schedule.AllDay, cfg.Location, uplink, sys)
	weatherLoop := poller.New[weather.Snapshot](weatherPipeline, weatherGate, weatherStore,
		poller.Config{Period: cfg.Weather.PollPeriod, IdlePeriod: cfg.Weather.IdlePeriod}, sink, collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		transitLoop.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		weatherLoop.Run(ctx)
	}()

	sched := scheduler.New([]scheduler.Source{
		{Name: "transit", Version: func() (uint32, bool) {
			s, ok := transitStore.Read()
			return s.GetVersion(), ok
		}},
		{Name: "weather", Version: func() (uint32, bool) {
			s, ok := weatherStore.Read()
			return s.GetVersion(), ok
		}},
	}, cfg.HeartbeatInterval, sys, collector)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "stopboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, b, collector.Handler())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: stopboard listening on :%s (tz=%s, display %02d-%02d)",
		cfg.Port, cfg.Location, cfg.Display.StartHour, cfg.Display.EndHour)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	wg.Wait()
	log.Printf("INFO: stopboard stopped")
}
