package usecase

import (
	"time"

	"github.com/secmon-lab/coachmem/pkg/domain/interfaces"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
)

const (
	DefaultHistoryCacheTTL = 5 * time.Minute
	DefaultCoachLabel      = "AI Coach"
	DefaultSourceLabel     = "coachmem"
)

type UseCases struct {
	provider        provider.Service
	repo            interfaces.Repository
	rules           *model.Rules
	historyCacheTTL time.Duration
	coachLabel      string
	sourceLabel     string
	now             func() time.Time

	Uploader *MemoryUploader
	History  *HistoryService
}

type Option func(*UseCases)

// WithRules replaces the built-in vocabulary and pattern rules
func WithRules(rules *model.Rules) Option {
	return func(uc *UseCases) {
		if rules != nil {
			uc.rules = rules
		}
	}
}

func WithHistoryCacheTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.historyCacheTTL = ttl
	}
}

// WithCoachLabel sets the author written into memory records when the
// session carries no coach name
func WithCoachLabel(label string) Option {
	return func(uc *UseCases) {
		uc.coachLabel = label
	}
}

func WithSourceLabel(label string) Option {
	return func(uc *UseCases) {
		uc.sourceLabel = label
	}
}

func withClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(svc provider.Service, repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		provider:        svc,
		repo:            repo,
		rules:           model.DefaultRules(),
		historyCacheTTL: DefaultHistoryCacheTTL,
		coachLabel:      DefaultCoachLabel,
		sourceLabel:     DefaultSourceLabel,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Uploader = NewMemoryUploader(svc, repo.UploadLedger(), uc.rules, uc.coachLabel, uc.sourceLabel, uc.now)
	uc.History = NewHistoryService(svc, uc.rules, uc.historyCacheTTL, uc.now)

	return uc
}
