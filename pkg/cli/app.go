package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/secmon-lab/coachmem/pkg/cli/config"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
	"github.com/secmon-lab/coachmem/pkg/usecase"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// appConfig groups the flags every command that talks to the provider needs
type appConfig struct {
	provider   config.Provider
	rules      config.Rules
	repository config.Repository
	cacheTTL   time.Duration
}

func (a *appConfig) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "history-cache-ttl",
			Usage:       "How long a client's rebuilt history is cached",
			Value:       usecase.DefaultHistoryCacheTTL,
			Sources:     cli.EnvVars("COACHMEM_HISTORY_CACHE_TTL"),
			Destination: &a.cacheTTL,
		},
	}
	flags = append(flags, a.provider.Flags()...)
	flags = append(flags, a.rules.Flags()...)
	flags = append(flags, a.repository.Flags()...)
	return flags
}

// app is the wired object graph shared by the commands
type app struct {
	provider provider.Service
	uc       *usecase.UseCases
	close    func()
}

// build wires provider, repository and use cases. reg may be nil.
func (a *appConfig) build(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	svc, err := a.provider.Configure(reg)
	if err != nil {
		return nil, err
	}

	rules, err := a.rules.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load rules")
	}

	repo, err := a.repository.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	logging.From(ctx).Info("Configured memory integration",
		"provider", a.provider,
		"rules", a.rules,
		"repository", a.repository,
		"history_cache_ttl", a.cacheTTL,
	)

	uc := usecase.New(svc, repo,
		usecase.WithRules(rules),
		usecase.WithHistoryCacheTTL(a.cacheTTL),
	)

	return &app{
		provider: svc,
		uc:       uc,
		close: func() {
			if err := repo.Close(); err != nil {
				logging.Default().Error("failed to close repository", "error", err.Error())
			}
		},
	}, nil
}
