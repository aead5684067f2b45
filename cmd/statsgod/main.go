// Command statsgod is a statsd-compatible UDP metrics daemon: it accepts
// counter, gauge, timer and set samples over UDP, aggregates them in
// memory, periodically flushes them to a Graphite-style carbon line
// receiver, and serves a read/delete-only HTTP admin view over whatever
// is currently live.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/cc-metrics/statsgod/internal/admin"
	"github.com/cc-metrics/statsgod/internal/config"
	"github.com/cc-metrics/statsgod/internal/ingest"
	"github.com/cc-metrics/statsgod/internal/registry"
	"github.com/cc-metrics/statsgod/internal/sink"
	"github.com/cc-metrics/statsgod/internal/statsdlog"
	"github.com/cc-metrics/statsgod/internal/telemetry"
	"github.com/cc-metrics/statsgod/pkg/runtimeEnv"
)

func main() {
	var (
		debug     = flag.Bool("d", false, "run in the foreground with debug logging")
		checkOnly = flag.Bool("n", false, "validate the configuration and exit")
		confFile  = flag.String("f", config.DefaultPath, "path to the configuration file")
		_         = flag.Bool("v", false, "reserved for compatibility")
	)
	flag.Parse()

	cfg, err := config.Load(*confFile)
	if err != nil {
		statsdlog.Fatalf("main: %v", err)
	}

	if *checkOnly {
		fmt.Printf("%s: configuration OK\n", *confFile)
		return
	}

	level := cfg.Log.Level
	if *debug {
		level = "debug"
	}
	lvl, err := statsdlog.ParseLevel(level)
	if err != nil {
		statsdlog.Fatalf("main: %v", err)
	}
	statsdlog.SetLevel(lvl)

	// SIGPIPE would otherwise kill the process outright the instant a
	// carbon receiver closes its side of the connection mid-write.
	signal.Ignore(syscall.SIGPIPE)

	run(cfg)
}

func run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conns, err := ingest.Bind(cfg.Listen)
	if err != nil {
		statsdlog.Fatalf("main: %v", err)
	}

	reg := registry.New()
	ingestStats := &ingest.Stats{}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		statsdlog.Fatalf("main: scheduler: %v", err)
	}

	graphiteClient := sink.NewClient(
		"graphite", cfg.Graphite.Host, cfg.Graphite.Port, cfg.Graphite.Prefix,
		time.Duration(cfg.Graphite.ReconnectInterval)*time.Second,
	)
	flusher := &sink.Flusher{Registry: reg, Client: graphiteClient}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() { defer wg.Done(); graphiteClient.Run(ctx) }()

	if _, err := sink.Schedule(scheduler, time.Duration(cfg.Graphite.FlushInterval)*time.Second, flusher.Tick); err != nil {
		statsdlog.Fatalf("main: scheduling graphite flush: %v", err)
	}

	if cfg.Stats.Host != "" {
		statsClient := sink.NewClient(
			"stats", cfg.Stats.Host, cfg.Stats.Port, cfg.Stats.Prefix,
			time.Duration(cfg.Stats.ReconnectInterval)*time.Second,
		)
		sampler := telemetry.New(statsClient, ingestStats, flusher, reg)

		wg.Add(1)
		go func() { defer wg.Done(); statsClient.Run(ctx) }()

		interval := time.Duration(cfg.Stats.FlushInterval) * time.Second
		if _, err := sink.Schedule(scheduler, interval, func() { sampler.Tick(time.Now().Unix()) }); err != nil {
			statsdlog.Fatalf("main: scheduling stats flush: %v", err)
		}
	}

	scheduler.Start()

	for _, conn := range conns {
		l := ingest.NewListener(conn, reg, ingestStats)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Serve(ctx); err != nil {
				statsdlog.Errorf("main: ingest listener: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      admin.New(reg).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			statsdlog.Errorf("main: admin http server: %v", err)
		}
	}()

	statsdlog.Infof("main: listening on %v, admin http on %s", cfg.Listen, cfg.HTTP.Addr)
	runtimeEnv.SystemdNotify(true, "running")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-sigs

	statsdlog.Infof("main: shutting down")
	runtimeEnv.SystemdNotify(false, "stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	_ = scheduler.Shutdown()

	cancel()
	wg.Wait()
}
