package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/interfaces"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/domain/model/record"
	"github.com/secmon-lab/coachmem/pkg/domain/types"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
	"github.com/secmon-lab/coachmem/pkg/utils/errutil"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

const (
	maxKeyInsights          = 5
	maxInsightPatterns      = 3
	maxInsightOpportunities = 2
	maxInsightRationales    = 2
	maxRecordSuggestions    = 3
	defaultSessionType      = "general"
)

// MemoryUploader publishes finished coaching sessions to the memory provider.
// Upload results are reported as booleans; failures are logged, never returned.
type MemoryUploader struct {
	provider    provider.Service
	ledger      interfaces.UploadLedgerRepository
	rules       *model.Rules
	coachLabel  string
	sourceLabel string
	now         func() time.Time

	inflight singleflight.Group
}

func NewMemoryUploader(svc provider.Service, ledger interfaces.UploadLedgerRepository, rules *model.Rules, coachLabel, sourceLabel string, now func() time.Time) *MemoryUploader {
	if rules == nil {
		rules = model.DefaultRules()
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryUploader{
		provider:    svc,
		ledger:      ledger,
		rules:       rules,
		coachLabel:  coachLabel,
		sourceLabel: sourceLabel,
		now:         now,
	}
}

// UploadCoachingSession stores the summary of a completed session. A session
// already recorded in the upload ledger returns true without a network call,
// and concurrent calls for the same session share one upload.
func (u *MemoryUploader) UploadCoachingSession(ctx context.Context, session *model.CoachingSession, transcript []model.TranscriptEntry, analysis *model.SessionAnalysis, client *model.Client) bool {
	if session == nil || session.ID == "" {
		_ = errutil.Handle(ctx, goerr.Wrap(ErrEmptySessionID, "cannot upload coaching session"), "skip session upload")
		return false
	}

	logger := logging.From(ctx).With(SessionIDKey, session.ID)

	uploaded, err := u.ledger.IsUploaded(ctx, session.ID)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to check upload ledger", goerr.V(SessionIDKey, session.ID)), "skip session upload")
		return false
	}
	if uploaded {
		logger.Debug("session already uploaded, skipping")
		return true
	}

	// Shared by every caller waiting on this session; detached from the first caller's cancellation
	uploadCtx := context.WithoutCancel(ctx)
	result, _, _ := u.inflight.Do(session.ID, func() (any, error) {
		return u.uploadSession(uploadCtx, session, transcript, analysis, client), nil
	})
	return result.(bool)
}

func (u *MemoryUploader) uploadSession(ctx context.Context, session *model.CoachingSession, transcript []model.TranscriptEntry, analysis *model.SessionAnalysis, client *model.Client) bool {
	// Another caller may have finished while this one waited on the ledger
	if uploaded, err := u.ledger.IsUploaded(ctx, session.ID); err == nil && uploaded {
		return true
	}

	date := session.StartedAt
	if date.IsZero() {
		date = u.now()
	}
	date = date.UTC()

	summary := record.Summary{
		SessionID:   session.ID,
		Date:        date,
		ClientName:  client.DisplayName(),
		CoachLabel:  u.coachLabelFor(session),
		SessionType: sessionTypeOf(session),
		KeyInsights: extractKeyInsights(transcript, analysis, u.rules),
		Transcript:  formatTranscript(transcript),
	}
	if analysis != nil {
		score := analysis.OverallScore
		summary.OverallScore = &score
		summary.Suggestions = firstN(analysis.HighPrioritySuggestions(), maxRecordSuggestions)
	}

	rec := &model.MemoryRecord{
		ID:        model.NewMemoryRecordID(),
		Text:      record.Format(summary),
		Title:     record.Title(summary.ClientName, date),
		Source:    u.sourceLabel,
		Author:    summary.CoachLabel,
		Timestamp: date,
	}

	resp, err := u.provider.UploadText(ctx, rec)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to upload coaching session",
			goerr.V(SessionIDKey, session.ID),
			goerr.V("title", rec.Title)), "coaching session upload failed")
		return false
	}
	if !resp.Success {
		logging.From(ctx).Warn("memory provider rejected coaching session",
			SessionIDKey, session.ID,
			"message", resp.Message,
		)
		return false
	}

	entry := &model.UploadedSession{
		SessionID:  session.ID,
		ClientID:   sessionClientID(session, client),
		RecordID:   rec.ID,
		UploadedAt: u.now().UTC(),
	}
	if err := u.ledger.MarkUploaded(ctx, entry); err != nil {
		// The record is stored at the provider; a lost ledger entry only risks a later duplicate
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to record uploaded session", goerr.V(SessionIDKey, session.ID)), "upload ledger write failed")
	}

	logging.From(ctx).Info("coaching session uploaded",
		SessionIDKey, session.ID,
		"record_id", rec.ID,
		"insights", len(summary.KeyInsights),
	)
	return true
}

// UploadSessionUpdate appends transcript lines, and optionally a new score,
// to an already uploaded session. It is not deduplicated.
func (u *MemoryUploader) UploadSessionUpdate(ctx context.Context, sessionID string, transcript []model.TranscriptEntry, analysis *model.SessionAnalysis) bool {
	if sessionID == "" {
		_ = errutil.Handle(ctx, goerr.Wrap(ErrEmptySessionID, "cannot upload session update"), "skip session update")
		return false
	}

	now := u.now().UTC()
	update := record.Update{
		SessionID:  sessionID,
		Date:       now,
		Transcript: formatTranscript(transcript),
	}
	if analysis != nil {
		score := analysis.OverallScore
		update.OverallScore = &score
	}

	rec := &model.MemoryRecord{
		ID:        model.NewMemoryRecordID(),
		Text:      record.FormatUpdate(update),
		Title:     record.UpdateTitle(sessionID),
		Source:    u.sourceLabel,
		Author:    u.coachLabel,
		Timestamp: now,
	}

	resp, err := u.provider.UploadText(ctx, rec)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to upload session update", goerr.V(SessionIDKey, sessionID)), "session update upload failed")
		return false
	}
	if !resp.Success {
		logging.From(ctx).Warn("memory provider rejected session update",
			SessionIDKey, sessionID,
			"message", resp.Message,
		)
		return false
	}

	return true
}

// ListUploadedSessions returns the ledger entries of a client, oldest first
func (u *MemoryUploader) ListUploadedSessions(ctx context.Context, clientID string) ([]*model.UploadedSession, error) {
	if clientID == "" {
		return nil, goerr.Wrap(ErrEmptyClientID, "cannot list uploaded sessions")
	}

	entries, err := u.ledger.ListUploaded(ctx, clientID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list uploaded sessions", goerr.V(ClientIDKey, clientID))
	}
	return entries, nil
}

func (u *MemoryUploader) coachLabelFor(session *model.CoachingSession) string {
	if session.CoachName != "" {
		return session.CoachName
	}
	return u.coachLabel
}

func sessionTypeOf(session *model.CoachingSession) string {
	if session.SessionType != "" {
		return session.SessionType
	}
	return defaultSessionType
}

func sessionClientID(session *model.CoachingSession, client *model.Client) string {
	if session.ClientID != "" {
		return session.ClientID
	}
	if client != nil {
		return client.ID
	}
	return ""
}

// formatTranscript keeps final entries only, as "speaker: text" in original order
func formatTranscript(entries []model.TranscriptEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsFinal {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", e.Speaker, e.Text))
	}
	return lines
}

// extractKeyInsights collects insights in priority order: detected patterns,
// meta opportunities, high-priority rationales, then transcript heuristics.
func extractKeyInsights(transcript []model.TranscriptEntry, analysis *model.SessionAnalysis, rules *model.Rules) []string {
	var insights []string

	if analysis != nil {
		insights = append(insights, firstN(nonEmpty(analysis.DetectedPatterns), maxInsightPatterns)...)
		insights = append(insights, firstN(nonEmpty(analysis.MetaOpportunities), maxInsightOpportunities)...)

		var rationales []string
		for _, s := range analysis.HighPrioritySuggestions() {
			if s.Rationale != "" {
				rationales = append(rationales, s.Rationale)
			}
		}
		insights = append(insights, firstN(rationales, maxInsightRationales)...)
	}

	insights = append(insights, transcriptInsights(transcript, rules)...)

	return firstN(insights, maxKeyInsights)
}

func transcriptInsights(transcript []model.TranscriptEntry, rules *model.Rules) []string {
	var clientTurns int
	var clientText []string
	for _, e := range transcript {
		if !e.IsFinal || rules.ClassifySpeaker(e.Speaker) != types.SpeakerRoleClient {
			continue
		}
		clientTurns++
		clientText = append(clientText, e.Text)
	}

	var insights []string
	if clientTurns > rules.EngagementThreshold {
		insights = append(insights, fmt.Sprintf("Client was highly engaged (%d responses)", clientTurns))
	}
	if emotions := rules.DetectEmotions(strings.Join(clientText, " ")); len(emotions) > 0 {
		insights = append(insights, "Client expressed: "+strings.Join(emotions, ", "))
	}
	return insights
}

func nonEmpty(items []string) []string {
	var result []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			result = append(result, s)
		}
	}
	return result
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
