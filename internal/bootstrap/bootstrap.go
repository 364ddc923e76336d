package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"naturelog-go/internal/domain/auth"
	"naturelog-go/internal/domain/capture"
	"naturelog-go/internal/domain/geo"
	"naturelog-go/internal/domain/media"
	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/domain/observation"
	"naturelog-go/internal/domain/submit"
	"naturelog-go/internal/domain/transport"
	"naturelog-go/internal/domain/uploadqueue"
	"naturelog-go/internal/domain/uploadqueue/store"
	"naturelog-go/internal/domain/user"
	platformconfig "naturelog-go/internal/platform/config"
	platformerrors "naturelog-go/internal/platform/errors"
	platformlogging "naturelog-go/internal/platform/logging"
	transportws "naturelog-go/internal/transport/ws"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

// appState accumulates everything the init steps produce. The server and
// the field agent each fill only the slice of it they need.
type appState struct {
	config     *platformconfig.Config
	configPath string

	logProvider *platformlogging.Logger
	logger      *slog.Logger

	db  *gorm.DB
	bus *notify.Bus

	tokens       *auth.AuthToken
	photos       *media.DiskStore
	observations *observation.Service
	users        *user.Service
	feed         *transportws.Feed

	transport  transport.Transport
	queueStore store.Store
	queue      *uploadqueue.Queue
	geo        geo.Provider
	capture    capture.Provider
	submitter  *submit.Submitter
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if stderrors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	if err := platformconfig.Validate(result.Config); err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logProvider, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logProvider = logProvider
	state.logger = logProvider.Slog()
	state.logger.Info("logging ready",
		"level", state.config.Log.Level,
		"config", state.configPath,
	)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	state.bus = notify.New()
	return nil
}

func closeLogging(state *appState) {
	if state.logProvider != nil {
		state.logProvider.Close()
	}
}

func shutdownTimeout() time.Duration { return 15 * time.Second }
