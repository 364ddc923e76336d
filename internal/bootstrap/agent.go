package bootstrap

import (
	"context"
	stderrors "errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"naturelog-go/internal/domain/capture"
	"naturelog-go/internal/domain/geo"
	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/domain/submit"
	"naturelog-go/internal/domain/transport"
	"naturelog-go/internal/domain/uploadqueue"
	"naturelog-go/internal/domain/uploadqueue/store"
	platformerrors "naturelog-go/internal/platform/errors"
	platformstorage "naturelog-go/internal/platform/storage"
)

const (
	defaultScanInterval  = 10 * time.Second
	defaultFlushInterval = 30 * time.Second
)

// RunAgent boots the field-capture agent and blocks until shutdown. The
// agent watches a capture directory, submits new photos and replays the
// pending queue whenever connectivity returns.
func RunAgent(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, AgentInitGraph(), state); err != nil {
		return err
	}
	defer closeLogging(state)

	logger := state.logger

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	group.Go(func() error {
		runAgentLoop(groupCtx, state)
		return nil
	})

	if err := waitForShutdown(signalCtx, cancel, state, group); err != nil {
		return err
	}

	logger.Info("agent stopped cleanly")
	return nil
}

// AgentInitGraph lists the agent init steps in dependency order.
func AgentInitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "notify:init-bus",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "queue:init-store",
			Title:     "Initialise durable queue store",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindQueue,
			Execute:   initQueueStoreStep,
		},
		{
			ID:        "agent:init-pipeline",
			Title:     "Initialise capture pipeline",
			DependsOn: []string{"queue:init-store", "notify:init-bus"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAgentPipelineStep,
		},
	}
}

func initQueueStoreStep(_ context.Context, state *appState) error {
	cfg := state.config.Queue

	storeCfg := store.Config{Driver: strings.ToLower(strings.TrimSpace(cfg.Store.Type))}
	deps := store.Dependencies{}

	switch storeCfg.Driver {
	case store.DriverSQLite, "":
		storeCfg.Driver = store.DriverSQLite
		db, err := platformstorage.OpenRaw(cfg.Store.SQLite.DSN)
		if err != nil {
			return err
		}
		deps.SQLiteDB = db
	case store.DriverRedis:
		storeCfg.Redis = &store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Username: cfg.Store.Redis.Username,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		}
	case store.DriverMemory:
		state.logger.Warn("memory queue store does not survive restarts")
	}

	kv, err := store.New(storeCfg, deps)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindQueue, "queue:init-store", "failed to create queue store", err)
	}
	state.queueStore = kv
	state.logger.Info("queue store ready", "driver", storeCfg.Driver)
	return nil
}

func initAgentPipelineStep(_ context.Context, state *appState) error {
	cfg := state.config.Agent
	if cfg.ServerURL == "" {
		return platformerrors.New(platformerrors.KindConfig, "agent:init-pipeline", "agent server_url is required")
	}
	if cfg.CaptureDir == "" {
		return platformerrors.New(platformerrors.KindConfig, "agent:init-pipeline", "agent capture_dir is required")
	}

	state.transport = transport.NewHTTP(cfg.ServerURL).WithToken(cfg.Token)

	state.queue = uploadqueue.New(
		state.queueStore,
		state.config.Queue.Key,
		state.transport,
		state.bus,
		state.logger,
	).WithMaxEntries(state.config.Queue.MaxEntries)

	var provider geo.Provider = geo.NewStatic(
		cfg.Location.Granted,
		geo.Position{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude},
		cfg.Location.PlaceName,
	)
	if cfg.Location.GeocoderURL != "" {
		provider = geo.WithGeocoder(provider, geo.NewGeocoderClient(cfg.Location.GeocoderURL))
	}
	state.geo = provider

	captureProvider, err := capture.NewDirectoryProvider(cfg.CaptureDir)
	if err != nil {
		return err
	}
	state.capture = captureProvider

	state.submitter = submit.New(
		state.geo,
		state.transport,
		state.queue,
		state.bus,
		state.logger,
	).WithUserID(cfg.UserID)

	return state.bus.Subscribe(notify.EventQueueFlushed, func(data notify.FlushEventData) {
		state.logger.Info("queue flushed",
			"attempted", data.Attempted,
			"delivered", data.Delivered,
			"rejected", data.Rejected,
			"remaining", data.Remaining,
		)
	})
}

// runAgentLoop replays the queue at startup, then alternates between
// scanning for new captures and flushing pending uploads.
func runAgentLoop(ctx context.Context, state *appState) {
	logger := state.logger
	cfg := state.config.Agent

	scanInterval := cfg.ScanInterval
	if scanInterval <= 0 {
		scanInterval = defaultScanInterval
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	if pending := state.queue.Snapshot(ctx); len(pending) > 0 {
		logger.Info("replaying pending uploads from previous run", "count", len(pending))
		state.queue.Flush(ctx)
	}

	scanTicker := time.NewTicker(scanInterval)
	defer scanTicker.Stop()
	flushTicker := time.NewTicker(flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("agent loop stopping")
			if state.queueStore != nil {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				state.queueStore.Close(closeCtx)
				cancel()
			}
			return
		case <-scanTicker.C:
			scanCaptures(ctx, state)
		case <-flushTicker.C:
			if len(state.queue.Snapshot(ctx)) > 0 {
				state.queue.Flush(ctx)
			}
		}
	}
}

func scanCaptures(ctx context.Context, state *appState) {
	for {
		handle, err := state.capture.Capture(ctx)
		if err != nil {
			if !stderrors.Is(err, capture.ErrNoCapture) {
				state.logger.Warn("capture scan failed", "error", err)
			}
			return
		}

		result, err := state.submitter.Submit(ctx, handle, "")
		if err != nil {
			state.logger.Error("submission rejected", "filename", handle.Filename, "error", err)
			continue
		}
		switch result.Outcome {
		case submit.OutcomeConfirmed:
			state.logger.Info("observation confirmed", "id", result.ObservationID, "filename", handle.Filename)
		case submit.OutcomeQueued:
			state.logger.Info("observation queued for retry", "submission_id", result.SubmissionID, "filename", handle.Filename)
		}
	}
}
