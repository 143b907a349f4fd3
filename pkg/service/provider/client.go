package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
	"github.com/secmon-lab/coachmem/pkg/utils/safe"
)

const (
	DefaultBaseURL = "https://api.personal.ai/v1"

	apiKeyHeader    = "x-api-key"
	requestIDHeader = "X-Request-ID"

	endpointMessage      = "/message"
	endpointConversation = "/conversation"
	endpointMemory       = "/memory"
	endpointUploadText   = "/upload-text"

	maxResponseSize = 8 << 20

	healthCheckText = "ping"
)

// client implements Service interface
type client struct {
	apiKey     string
	domain     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	sleep      sleeper
	metrics    *Metrics
}

// Option is a functional option for client configuration
type Option func(*client)

// WithBaseURL overrides the provider API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets how many retries follow the first attempt
func WithMaxRetries(n int) Option {
	return func(c *client) {
		c.maxRetries = max(n, 0)
	}
}

// WithBaseDelay sets the delay before the first retry; later retries double it
func WithBaseDelay(d time.Duration) Option {
	return func(c *client) {
		c.baseDelay = d
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *Metrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

func withSleeper(s sleeper) Option {
	return func(c *client) {
		c.sleep = s
	}
}

// New creates a memory provider client. The API key and domain are required;
// their absence is a startup error, not a per-call one.
func New(apiKey, domain string, opts ...Option) (Service, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, goerr.Wrap(ErrMissingAPIKey, "failed to create memory provider client")
	}
	if strings.TrimSpace(domain) == "" {
		return nil, goerr.Wrap(ErrMissingDomain, "failed to create memory provider client")
	}

	c := &client{
		apiKey:     apiKey,
		domain:     domain,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) domainOr(domain string) string {
	if domain != "" {
		return domain
	}
	return c.domain
}

// SendMessage sends a chat message to the provider's AI
func (c *client) SendMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	body := *req
	body.DomainName = c.domainOr(req.DomainName)

	var resp MessageResponse
	err := c.withRetry(ctx, endpointMessage, func(ctx context.Context) error {
		resp = MessageResponse{}
		return c.post(ctx, endpointMessage, &body, &resp)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send message", goerr.V("session_id", req.SessionID))
	}

	return &resp, nil
}

// GetConversationHistory returns the stored conversation log of a session
func (c *client) GetConversationHistory(ctx context.Context, sessionID, domain string) ([]model.ConversationMessage, error) {
	body := &conversationRequest{
		SessionID:  sessionID,
		DomainName: c.domainOr(domain),
	}

	var raw json.RawMessage
	err := c.withRetry(ctx, endpointConversation, func(ctx context.Context) error {
		raw = nil
		return c.post(ctx, endpointConversation, body, &raw)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation history", goerr.V("session_id", sessionID))
	}

	entries, err := decodeConversation(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode conversation history", goerr.V("session_id", sessionID))
	}

	messages := make([]model.ConversationMessage, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, e.toModel(sessionID))
	}
	return messages, nil
}

// UploadMemory stores a short memory entry
func (c *client) UploadMemory(ctx context.Context, rec *model.MemoryRecord) (*UploadResponse, error) {
	body := &memoryRequest{
		Text:        rec.Text,
		DomainName:  c.domainOr(rec.Domain),
		SourceName:  rec.Source,
		CreatedTime: formatTimestamp(rec.Timestamp),
		DeviceName:  rec.Author,
		RawFeedText: rec.Text,
	}
	return c.upload(ctx, endpointMemory, body, rec)
}

// UploadText stores a long-form text document
func (c *client) UploadText(ctx context.Context, rec *model.MemoryRecord) (*UploadResponse, error) {
	body := &uploadTextRequest{
		Text:        rec.Text,
		Title:       rec.Title,
		DomainName:  c.domainOr(rec.Domain),
		SourceName:  rec.Source,
		StartTime:   formatTimestamp(rec.Timestamp),
		CreatedBy:   rec.Author,
		ReferenceID: string(rec.ID),
	}
	return c.upload(ctx, endpointUploadText, body, rec)
}

func (c *client) upload(ctx context.Context, endpoint string, body any, rec *model.MemoryRecord) (*UploadResponse, error) {
	var raw uploadResponseBody
	err := c.withRetry(ctx, endpoint, func(ctx context.Context) error {
		raw = uploadResponseBody{}
		return c.post(ctx, endpoint, body, &raw)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upload memory record",
			goerr.V("endpoint", endpoint),
			goerr.V("title", rec.Title),
			goerr.V("record_id", rec.ID))
	}

	// A 2xx without an explicit flag counts as success
	resp := &UploadResponse{Success: true, Message: raw.Message}
	if raw.Success != nil {
		resp.Success = *raw.Success
	}
	return resp, nil
}

// HealthCheck sends a trivial message and reports whether it succeeded
func (c *client) HealthCheck(ctx context.Context) bool {
	_, err := c.SendMessage(ctx, &MessageRequest{
		Text:       healthCheckText,
		SourceName: "health-check",
	})
	if err != nil {
		logging.From(ctx).Warn("memory provider health check failed", "error", err.Error())
		return false
	}
	return true
}

// post executes one HTTP request without retry and normalizes failures into *APIError
func (c *client) post(ctx context.Context, endpoint string, body, out any) (err error) {
	started := time.Now()
	defer func() { c.metrics.observeRequest(endpoint, time.Since(started), err) }()

	payload, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal request", goerr.V("endpoint", endpoint))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("endpoint", endpoint))
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(newNetworkError(err), "memory provider unreachable",
			goerr.V("endpoint", endpoint), goerr.V("request_id", requestID))
	}
	defer safe.DrainAndClose(ctx, resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return goerr.Wrap(newNetworkError(err), "failed to read memory provider response",
			goerr.V("endpoint", endpoint), goerr.V("request_id", requestID))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.Wrap(newStatusError(resp.StatusCode, data), "memory provider returned error status",
			goerr.V("endpoint", endpoint), goerr.V("request_id", requestID), goerr.V("status", resp.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		apiErr := &APIError{Kind: "invalid_response", Code: resp.StatusCode, Message: err.Error()}
		return goerr.Wrap(apiErr, "failed to decode memory provider response",
			goerr.V("endpoint", endpoint), goerr.V("request_id", requestID))
	}

	return nil
}

// decodeConversation accepts either a bare array of entries or an object
// wrapping it under one of the known keys.
func decodeConversation(raw json.RawMessage) ([]conversationEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var entries []conversationEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, goerr.Wrap(err, "invalid conversation array")
		}
		return entries, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, goerr.Wrap(err, "invalid conversation envelope")
	}
	for _, key := range []string{"messages", "Messages", "conversation", "history", "data"} {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		var entries []conversationEntry
		if err := json.Unmarshal(inner, &entries); err != nil {
			return nil, goerr.Wrap(err, "invalid conversation entries", goerr.V("key", key))
		}
		return entries, nil
	}

	return nil, nil
}

func (e conversationEntry) toModel(fallbackSessionID string) model.ConversationMessage {
	msg := model.ConversationMessage{
		Text:      firstNonEmpty(e.Text, e.Message, e.AIMessage),
		Timestamp: parseTimestamp(firstNonEmpty(e.Timestamp, e.CreatedAt, e.CreatedTime)),
		SessionID: firstNonEmpty(e.SessionID, e.SessionIDSnake, fallbackSessionID),
	}
	return msg
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp returns the zero time when value matches no known layout
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
