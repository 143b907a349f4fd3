package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/domain/model/record"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
	"github.com/secmon-lab/coachmem/pkg/utils/errutil"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

// HistoryService rebuilds a client's coaching history from the memory
// provider's conversation log and caches the result per client.
type HistoryService struct {
	provider provider.Service
	rules    *model.Rules
	cache    *historyCache
	now      func() time.Time

	fetches singleflight.Group
}

func NewHistoryService(svc provider.Service, rules *model.Rules, ttl time.Duration, now func() time.Time) *HistoryService {
	if rules == nil {
		rules = model.DefaultRules()
	}
	if now == nil {
		now = time.Now
	}
	return &HistoryService{
		provider: svc,
		rules:    rules,
		cache:    newHistoryCache(ttl, now),
		now:      now,
	}
}

// historySessionID is the provider conversation that holds a client's session summaries
func historySessionID(clientID string) string {
	return fmt.Sprintf("coaching-%s-history", clientID)
}

// GetClientHistory returns the client's history, or nil when the provider
// has none or cannot be reached. Only an empty clientID is an error.
func (s *HistoryService) GetClientHistory(ctx context.Context, clientID string) (*model.ClientHistoryContext, error) {
	if clientID == "" {
		return nil, goerr.Wrap(ErrEmptyClientID, "failed to get client history")
	}

	if history, ok := s.cache.get(clientID); ok {
		return history, nil
	}

	// Waiters share the result, so one caller's cancellation must not abort the fetch
	fetchCtx := context.WithoutCancel(ctx)
	result, _, _ := s.fetches.Do(clientID, func() (any, error) {
		if history, ok := s.cache.get(clientID); ok {
			return history, nil
		}
		return s.fetchHistory(fetchCtx, clientID), nil
	})

	history, _ := result.(*model.ClientHistoryContext)
	return history, nil
}

func (s *HistoryService) fetchHistory(ctx context.Context, clientID string) *model.ClientHistoryContext {
	logger := logging.From(ctx).With(ClientIDKey, clientID)

	messages, err := s.provider.GetConversationHistory(ctx, historySessionID(clientID), "")
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to fetch client history", goerr.V(ClientIDKey, clientID)), "client history unavailable")
		return nil
	}
	if len(messages) == 0 {
		logger.Debug("no coaching history for client")
		return nil
	}

	history := s.buildHistory(ctx, clientID, messages)
	s.cache.set(clientID, history)

	logger.Info("client history loaded",
		"messages", len(messages),
		"sessions", len(history.Sessions),
	)
	return history
}

// buildHistory parses every summary message. A message that fails to parse
// is logged and skipped.
func (s *HistoryService) buildHistory(ctx context.Context, clientID string, messages []model.ConversationMessage) *model.ClientHistoryContext {
	now := s.now()
	sessions := make([]model.SessionRecord, 0, len(messages))
	bodies := make([]string, 0, len(messages))

	for i, msg := range messages {
		bodies = append(bodies, msg.Text)
		if !record.IsSummary(msg.Text) {
			continue
		}

		rec, err := record.Parse(msg, now)
		if err != nil {
			logging.From(ctx).Warn("skip unparseable history message",
				ClientIDKey, clientID,
				"index", i,
				"error", err.Error(),
			)
			continue
		}
		sessions = append(sessions, *rec)
	}

	slices.SortStableFunc(sessions, func(a, b model.SessionRecord) int {
		return a.Date.Compare(b.Date)
	})

	history := &model.ClientHistoryContext{
		ClientID: clientID,
		Sessions: sessions,
		Patterns: model.AnalyzePatterns(strings.Join(bodies, "\n"), s.rules),
	}
	if latest := history.LatestSession(); latest != nil {
		date := latest.Date
		history.LastSessionDate = &date
	}
	return history
}

// GetClientProgressSummary returns a report of the client's progress, or ""
// when there is no history or no parsed session.
func (s *HistoryService) GetClientProgressSummary(ctx context.Context, clientID string) (string, error) {
	history, err := s.GetClientHistory(ctx, clientID)
	if err != nil {
		return "", err
	}
	return model.GenerateProgressSummary(history), nil
}

// GetRelevantContext returns a priming context for the client's next
// session, or "" when there is no history.
func (s *HistoryService) GetRelevantContext(ctx context.Context, clientID string) (string, error) {
	history, err := s.GetClientHistory(ctx, clientID)
	if err != nil {
		return "", err
	}
	return model.GenerateRelevantContext(history), nil
}

// ClearCache drops every cached history
func (s *HistoryService) ClearCache() {
	s.cache.clear()
}
