package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"naturelog-go/internal/domain/auth"
	"naturelog-go/internal/domain/media"
	"naturelog-go/internal/domain/observation"
	"naturelog-go/internal/domain/user"
	platformerrors "naturelog-go/internal/platform/errors"
	platformstorage "naturelog-go/internal/platform/storage"
	httptransport "naturelog-go/internal/transport/http"
	httpobservations "naturelog-go/internal/transport/http/observations"
	httpsystem "naturelog-go/internal/transport/http/system"
	httpusers "naturelog-go/internal/transport/http/users"
	transportws "naturelog-go/internal/transport/ws"
)

// RunServer boots the observation API server and blocks until shutdown.
func RunServer(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, ServerInitGraph(), state); err != nil {
		return err
	}
	defer closeLogging(state)

	logger := state.logger

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, state, group); err != nil {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// ServerInitGraph lists the server init steps in dependency order.
func ServerInitGraph() []initStep {
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
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "notify:init-bus",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "media:init-store",
			Title:     "Initialise photo store",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindMedia,
			Execute:   initMediaStep,
		},
		{
			ID:        "auth:init-tokens",
			Title:     "Initialise token helper",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initTokensStep,
		},
		{
			ID:        "domain:init-services",
			Title:     "Initialise domain services",
			DependsOn: []string{"storage:init-database", "notify:init-bus", "media:init-store", "auth:init-tokens"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initDomainServicesStep,
		},
	}
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Server.Database.DSN)
	if err != nil {
		return err
	}
	state.db = db
	state.logger.Info("database ready", "dsn", state.config.Server.Database.DSN)
	return nil
}

func initMediaStep(_ context.Context, state *appState) error {
	photos, err := media.NewDiskStore(state.config.Media.Dir, state.config.Media.PublicPath)
	if err != nil {
		return err
	}
	state.photos = photos
	return nil
}

func initTokensStep(_ context.Context, state *appState) error {
	if state.config.Auth.Enabled && state.config.Auth.Secret == "" {
		return platformerrors.New(
			platformerrors.KindConfig,
			"auth:init-tokens",
			"auth is enabled but no secret is configured",
		)
	}
	state.tokens = auth.NewAuthToken(state.config.Auth.Secret).WithTTL(state.config.Auth.TTL)
	return nil
}

func initDomainServicesStep(_ context.Context, state *appState) error {
	validator := media.NewValidator(
		state.config.Media.MaxFileSize,
		state.config.Media.AllowedFormats,
		state.logger,
	)

	observations, err := observation.NewService(
		platformstorage.NewObservationRepository(state.db),
		validator,
		state.photos,
		state.bus,
		state.logger,
	)
	if err != nil {
		return err
	}
	state.observations = observations

	users, err := user.NewService(
		platformstorage.NewUserRepository(state.db),
		state.tokens,
		state.logger,
	)
	if err != nil {
		return err
	}
	state.users = users
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	var authMiddleware gin.HandlerFunc
	if config.Auth.Enabled {
		authMiddleware = httptransport.AuthMiddleware(state.tokens)
	}

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: authMiddleware,
		UploadsDir:     state.photos.Dir(),
		UploadsPath:    state.photos.PublicPath(),
	})
	if err != nil {
		return err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httptransport.APIResponse{
			Success: false,
			Data:    gin.H{},
			Message: "not found",
			Code:    http.StatusNotFound,
		})
	})

	observationsService, err := httpobservations.NewService(state.observations, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "observations:new-service", "failed to create observations service", err)
	}
	usersService, err := httpusers.NewService(state.users, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "users:new-service", "failed to create users service", err)
	}
	feed, err := transportws.NewFeed(state.bus, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "ws:new-feed", "failed to create live feed", err)
	}
	state.feed = feed

	observationsService.Register(groupCtx, httpRouter.API, httpRouter.Secured)

	// Unversioned alias kept for clients predating the /api prefix.
	alias := router.Group("")
	aliasSecured := alias
	if authMiddleware != nil {
		aliasSecured = alias.Group("")
		aliasSecured.Use(authMiddleware)
	}
	observationsService.Register(groupCtx, alias, aliasSecured)

	usersService.Register(groupCtx, httpRouter.API, httpRouter.Secured)
	httpsystem.NewService(logger).Register(groupCtx, httpRouter.API)
	feed.Register(httpRouter.API)

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.Info("http server listening", "addr", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			feed.Close()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("http shutdown failed", "error", err)
			} else {
				logger.Info("http server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	state *appState,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	state.logger.Info("shutdown signal received", "cause", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			state.logger.Error("shutdown finished with errors", "error", err)
			return err
		}
		state.logger.Info("all services stopped")
	case <-time.After(shutdownTimeout()):
		timeoutErr := fmt.Errorf("shutdown timed out")
		state.logger.Error("shutdown timed out, forcing exit")
		return timeoutErr
	}
	return nil
}
