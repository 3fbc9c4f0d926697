// Command fisherd runs the Fisher webhook dispatcher: it loads scripts
// from disk, starts the scheduler's worker pool, and serves the ingress
// HTTP surface until asked to shut down.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fisherhq/fisher/internal/audit"
	"github.com/fisherhq/fisher/internal/config"
	"github.com/fisherhq/fisher/internal/dedup"
	"github.com/fisherhq/fisher/internal/events"
	"github.com/fisherhq/fisher/internal/ingress"
	"github.com/fisherhq/fisher/internal/jobs"
	"github.com/fisherhq/fisher/internal/observability"
	"github.com/fisherhq/fisher/internal/scheduler"
	"github.com/fisherhq/fisher/internal/scripts"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	repo := scripts.NewRepository()
	repo.AddPath(cfg.ScriptsRoot, cfg.ScriptsRecursive)
	if err := repo.Reload(); err != nil {
		log.Fatal().Err(err).Str("root", cfg.ScriptsRoot).Msg("initial script load failed")
	}
	log.Info().Int("scripts", len(repo.All())).Msg("loaded scripts")

	ctx := context.Background()

	auditSink, err := audit.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect audit sink")
	}
	if auditSink != nil {
		defer auditSink.Close()
		log.Info().Msg("audit sink enabled")
	}

	dedupStore, err := dedup.New(cfg.RedisAddr, 10*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect dedup store")
	}
	if dedupStore != nil {
		log.Info().Msg("delivery dedup enabled")
	}

	hub := events.NewHub()
	metrics := observability.NewCollector()

	observer := multiObserver(metrics, hub, auditSink)
	observer.OnReload(true) // the initial Reload above succeeded

	schedCfg := scheduler.DefaultConfig()
	schedCfg.MaxThreads = cfg.MaxThreads
	sched := scheduler.New(repo, schedCfg, observer)
	if cfg.LockAtBoot {
		sched.Lock()
	}
	sched.Start()

	adapter := ingress.NewAdapter(repo, sched)

	var eventsHub *events.Hub
	if cfg.EventsEndpointEnabled {
		eventsHub = hub
	}

	server := ingress.NewServer(adapter, sched, eventsHub, dedupStore, cfg.HealthEndpointEnabled, cfg.TrustProxyHeaders)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: server.Handler(),
	}

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown did not complete cleanly")
	}

	sched.Stop()
	log.Info().Msg("stopped")
}

// multiObserver builds a scheduler.Observer fanning out to every
// non-nil collaborator; auditSink is typed *audit.Sink and may be nil
// when no DSN is configured, in which case its methods are all no-ops
// on a nil receiver so it is safe to include unconditionally.
func multiObserver(metrics *observability.Collector, hub *events.Hub, auditSink *audit.Sink) scheduler.Observer {
	return fanOut{metrics: metrics, hub: hub, audit: auditSink}
}

type fanOut struct {
	metrics *observability.Collector
	hub     *events.Hub
	audit   *audit.Sink
}

func (f fanOut) OnSubmit(scriptName string, priority, queued int) {
	f.metrics.OnSubmit(scriptName, priority, queued)
	f.hub.OnSubmit(scriptName, priority, queued)
}

func (f fanOut) OnDispatch(scriptName string, workerID int) {
	f.metrics.OnDispatch(scriptName, workerID)
	f.hub.OnDispatch(scriptName, workerID)
}

func (f fanOut) OnJobEnded(scriptName string, output *jobs.Output) {
	f.metrics.OnJobEnded(scriptName, output)
	f.hub.OnJobEnded(scriptName, output)
	f.audit.OnJobEnded(scriptName, output)
}

func (f fanOut) OnCascade(sourceScript, targetScript string) {
	f.metrics.OnCascade(sourceScript, targetScript)
	f.hub.OnCascade(sourceScript, targetScript)
}

func (f fanOut) OnReload(ok bool) {
	f.metrics.OnReload(ok)
	f.hub.OnReload(ok)
}
