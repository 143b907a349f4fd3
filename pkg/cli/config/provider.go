package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
	"github.com/urfave/cli/v3"
)

const metricsNamespace = "coachmem"

// Provider holds CLI flags for the memory provider client
type Provider struct {
	apiKey     string
	domain     string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
}

func (p *Provider) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider-api-key",
			Usage:       "API key of the memory provider",
			Category:    "Memory provider",
			Sources:     cli.EnvVars("COACHMEM_PROVIDER_API_KEY"),
			Destination: &p.apiKey,
		},
		&cli.StringFlag{
			Name:        "provider-domain",
			Usage:       "Memory provider domain that isolates this deployment's records",
			Category:    "Memory provider",
			Sources:     cli.EnvVars("COACHMEM_PROVIDER_DOMAIN"),
			Destination: &p.domain,
		},
		&cli.StringFlag{
			Name:        "provider-base-url",
			Usage:       "Base URL of the memory provider API",
			Value:       provider.DefaultBaseURL,
			Category:    "Memory provider",
			Sources:     cli.EnvVars("COACHMEM_PROVIDER_BASE_URL"),
			Destination: &p.baseURL,
		},
		&cli.DurationFlag{
			Name:        "provider-timeout",
			Usage:       "Timeout of a single provider request (0 for none)",
			Value:       30 * time.Second,
			Category:    "Memory provider",
			Sources:     cli.EnvVars("COACHMEM_PROVIDER_TIMEOUT"),
			Destination: &p.timeout,
		},
		&cli.IntFlag{
			Name:        "provider-max-retries",
			Usage:       "Retries after the first attempt of a failed provider request",
			Value:       provider.DefaultMaxRetries,
			Category:    "Memory provider",
			Sources:     cli.EnvVars("COACHMEM_PROVIDER_MAX_RETRIES"),
			Destination: &p.maxRetries,
		},
		&cli.DurationFlag{
			Name:        "provider-base-delay",
			Usage:       "Delay before the first retry; doubled for every further retry",
			Value:       provider.DefaultBaseDelay,
			Category:    "Memory provider",
			Sources:     cli.EnvVars("COACHMEM_PROVIDER_BASE_DELAY"),
			Destination: &p.baseDelay,
		},
	}
}

// LogValue never prints the API key itself
func (p Provider) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("api_key.len", len(p.apiKey)),
		slog.String("domain", p.domain),
		slog.String("base_url", p.baseURL),
		slog.Duration("timeout", p.timeout),
		slog.Int("max_retries", p.maxRetries),
		slog.Duration("base_delay", p.baseDelay),
	)
}

// Configure creates the memory provider client. Metrics are registered to
// reg when it is not nil.
func (p *Provider) Configure(reg prometheus.Registerer) (provider.Service, error) {
	if p.maxRetries < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "provider-max-retries must not be negative", goerr.V("max_retries", p.maxRetries))
	}

	opts := []provider.Option{
		provider.WithBaseURL(p.baseURL),
		provider.WithHTTPClient(&http.Client{Timeout: p.timeout}),
		provider.WithMaxRetries(p.maxRetries),
		provider.WithBaseDelay(p.baseDelay),
	}
	if reg != nil {
		opts = append(opts, provider.WithMetrics(provider.NewMetrics(metricsNamespace, reg)))
	}

	svc, err := provider.New(p.apiKey, p.domain, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure memory provider")
	}
	return svc, nil
}
