package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

type capturedRequest struct {
	Path    string
	Header  http.Header
	Payload map[string]any
}

func newCaptureServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		gt.NoError(t, err)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)
		captured = append(captured, capturedRequest{Path: r.URL.Path, Header: r.Header.Clone(), Payload: payload})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestNew(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		_, err := provider.New("", "domain")
		gt.Bool(t, errors.Is(err, provider.ErrMissingAPIKey)).True()
		gt.Bool(t, errors.Is(err, provider.ErrConfiguration)).True()
	})

	t.Run("missing domain", func(t *testing.T) {
		_, err := provider.New("key", "   ")
		gt.Bool(t, errors.Is(err, provider.ErrMissingDomain)).True()
	})

	t.Run("valid configuration", func(t *testing.T) {
		svc, err := provider.New("key", "domain")
		gt.NoError(t, err)
		gt.Value(t, svc).NotNil()
	})
}

func TestSendMessage(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK,
		`{"ai_message":"hello coach","ai_score":0.75,"ai_name":"Memo","SessionId":"s-1"}`)

	svc, err := provider.New("secret-key", "coach-domain", provider.WithBaseURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	resp, err := svc.SendMessage(context.Background(), &provider.MessageRequest{
		Text:      "hello",
		SessionID: "s-1",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, resp.AIMessage).Equal("hello coach")
	gt.Value(t, resp.AIScore).Equal(0.75)
	gt.Value(t, resp.SessionID).Equal("s-1")

	gt.Array(t, *captured).Length(1).Required()
	req := (*captured)[0]
	gt.Value(t, req.Path).Equal("/message")
	gt.Value(t, req.Header.Get("x-api-key")).Equal("secret-key")
	gt.Value(t, req.Header.Get("Content-Type")).Equal("application/json")
	gt.Value(t, req.Header.Get("X-Request-ID")).NotEqual("")
	gt.Value(t, req.Payload["DomainName"]).Equal("coach-domain")
	gt.Value(t, req.Payload["Text"]).Equal("hello")
	gt.Value(t, req.Payload["SessionId"]).Equal("s-1")
}

func TestSendMessageKeepsExplicitDomain(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, `{}`)
	svc, err := provider.New("key", "default-domain", provider.WithBaseURL(srv.URL))
	gt.NoError(t, err).Required()

	_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "x", DomainName: "other"})
	gt.NoError(t, err).Required()
	gt.Value(t, (*captured)[0].Payload["DomainName"]).Equal("other")
}

func TestErrorNormalization(t *testing.T) {
	t.Run("message field of error body", func(t *testing.T) {
		srv, _ := newCaptureServer(t, http.StatusForbidden, `{"message":"invalid api key"}`)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "x"})
		var apiErr *provider.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		gt.Value(t, apiErr.Code).Equal(http.StatusForbidden)
		gt.Value(t, apiErr.Kind).Equal("forbidden")
		gt.Value(t, apiErr.Message).Equal("invalid api key")
	})

	t.Run("plain text error body", func(t *testing.T) {
		srv, _ := newCaptureServer(t, http.StatusNotFound, `no such domain`)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "x"})
		var apiErr *provider.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		gt.Value(t, apiErr.Kind).Equal("not_found")
		gt.Value(t, apiErr.Message).Equal("no such domain")
	})

	t.Run("network failure has code zero", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		svc, err := provider.New("key", "d",
			provider.WithBaseURL(url),
			provider.WithSleeper(noSleep),
		)
		gt.NoError(t, err).Required()

		_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "x"})
		code, ok := provider.ErrorCode(err)
		gt.Bool(t, ok).True()
		gt.Value(t, code).Equal(provider.CodeNetwork)
		gt.Bool(t, provider.IsRetryable(err)).True()
	})
}

func TestIsRetryable(t *testing.T) {
	gt.Bool(t, provider.IsRetryable(nil)).False()
	gt.Bool(t, provider.IsRetryable(&provider.APIError{Code: 403})).False()
	gt.Bool(t, provider.IsRetryable(&provider.APIError{Code: 404})).False()
	gt.Bool(t, provider.IsRetryable(&provider.APIError{Code: 400})).True()
	gt.Bool(t, provider.IsRetryable(&provider.APIError{Code: 429})).True()
	gt.Bool(t, provider.IsRetryable(&provider.APIError{Code: 503})).True()
	gt.Bool(t, provider.IsRetryable(errors.New("unknown"))).True()
}

func TestGetConversationHistory(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		srv, captured := newCaptureServer(t, http.StatusOK, `[
			{"text":"COACHING SESSION SUMMARY\nDate: 2024-01-10","timestamp":"2024-01-10T09:00:00Z"},
			{"message":"second","created_at":"2024-01-11 10:00:00","session_id":"other"}
		]`)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		msgs, err := svc.GetConversationHistory(context.Background(), "coaching-c1-history", "")
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2).Required()

		gt.Value(t, msgs[0].SessionID).Equal("coaching-c1-history")
		gt.Value(t, msgs[0].Timestamp).Equal(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
		gt.Value(t, msgs[1].Text).Equal("second")
		gt.Value(t, msgs[1].SessionID).Equal("other")
		gt.Value(t, msgs[1].Timestamp).Equal(time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC))

		gt.Value(t, (*captured)[0].Path).Equal("/conversation")
		gt.Value(t, (*captured)[0].Payload["SessionId"]).Equal("coaching-c1-history")
		gt.Value(t, (*captured)[0].Payload["DomainName"]).Equal("d")
	})

	t.Run("wrapped in messages envelope", func(t *testing.T) {
		srv, _ := newCaptureServer(t, http.StatusOK, `{"messages":[{"Text":"hello","CreatedTime":"bogus"}]}`)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		msgs, err := svc.GetConversationHistory(context.Background(), "sid", "")
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(1).Required()
		gt.Value(t, msgs[0].Text).Equal("hello")
		gt.Bool(t, msgs[0].Timestamp.IsZero()).True()
	})

	t.Run("empty body yields empty history", func(t *testing.T) {
		srv, _ := newCaptureServer(t, http.StatusOK, ``)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		msgs, err := svc.GetConversationHistory(context.Background(), "sid", "")
		gt.NoError(t, err)
		gt.Array(t, msgs).Length(0)
	})
}

func TestUploadText(t *testing.T) {
	t.Run("missing success flag counts as success", func(t *testing.T) {
		srv, captured := newCaptureServer(t, http.StatusOK, `{"message":"stored"}`)
		svc, err := provider.New("key", "coach-domain", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		ts := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
		resp, err := svc.UploadText(context.Background(), &model.MemoryRecord{
			ID:        "rec-1",
			Text:      "COACHING SESSION SUMMARY",
			Title:     "Coaching Session - Alice - 2024-01-10",
			Source:    "coaching-app",
			Author:    "AI Coach",
			Timestamp: ts,
		})
		gt.NoError(t, err).Required()
		gt.Bool(t, resp.Success).True()
		gt.Value(t, resp.Message).Equal("stored")

		req := (*captured)[0]
		gt.Value(t, req.Path).Equal("/upload-text")
		gt.Value(t, req.Payload["Title"]).Equal("Coaching Session - Alice - 2024-01-10")
		gt.Value(t, req.Payload["DomainName"]).Equal("coach-domain")
		gt.Value(t, req.Payload["StartTime"]).Equal("2024-01-10T09:00:00Z")
		gt.Value(t, req.Payload["ReferenceId"]).Equal("rec-1")
	})

	t.Run("explicit failure flag", func(t *testing.T) {
		srv, _ := newCaptureServer(t, http.StatusOK, `{"success":false,"message":"quota"}`)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		resp, err := svc.UploadText(context.Background(), &model.MemoryRecord{Text: "x"})
		gt.NoError(t, err).Required()
		gt.Bool(t, resp.Success).False()
	})
}

func TestUploadMemory(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, `{"success":true}`)
	svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
	gt.NoError(t, err).Required()

	resp, err := svc.UploadMemory(context.Background(), &model.MemoryRecord{Text: "note", Source: "app"})
	gt.NoError(t, err).Required()
	gt.Bool(t, resp.Success).True()
	gt.Value(t, (*captured)[0].Path).Equal("/memory")
	gt.Value(t, (*captured)[0].Payload["Text"]).Equal("note")
	gt.Value(t, (*captured)[0].Payload["SourceName"]).Equal("app")
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv, captured := newCaptureServer(t, http.StatusOK, `{"ai_message":"pong"}`)
		svc, err := provider.New("key", "d", provider.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		gt.Bool(t, svc.HealthCheck(context.Background())).True()
		gt.Value(t, (*captured)[0].Payload["Text"]).Equal("ping")
	})

	t.Run("unhealthy returns false instead of error", func(t *testing.T) {
		srv, _ := newCaptureServer(t, http.StatusInternalServerError, `oops`)
		svc, err := provider.New("key", "d",
			provider.WithBaseURL(srv.URL),
			provider.WithSleeper(noSleep),
		)
		gt.NoError(t, err).Required()

		gt.Bool(t, svc.HealthCheck(context.Background())).False()
	})
}
