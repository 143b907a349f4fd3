package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/secmon-lab/coachmem/pkg/service/provider"
)

type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *delayRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *delayRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func TestBackoffDelay(t *testing.T) {
	base := time.Second
	gt.Value(t, provider.BackoffDelay(0, base)).Equal(time.Duration(0))
	gt.Value(t, provider.BackoffDelay(1, base)).Equal(1 * time.Second)
	gt.Value(t, provider.BackoffDelay(2, base)).Equal(2 * time.Second)
	gt.Value(t, provider.BackoffDelay(3, base)).Equal(4 * time.Second)
}

func TestRetry(t *testing.T) {
	t.Run("persistent 500 is attempted four times with doubling delays", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		}))
		defer srv.Close()

		rec := &delayRecorder{}
		reg := prometheus.NewRegistry()
		metrics := provider.NewMetrics("coachmem", reg)
		svc, err := provider.New("key", "coach-domain",
			provider.WithBaseURL(srv.URL),
			provider.WithSleeper(rec.sleep),
			provider.WithMetrics(metrics),
		)
		gt.NoError(t, err).Required()

		_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "hi"})
		gt.Value(t, err).NotNil()
		gt.Value(t, calls.Load()).Equal(int32(4))
		gt.Value(t, rec.recorded()).Equal([]time.Duration{time.Second, 2 * time.Second, 4 * time.Second})

		code, ok := provider.ErrorCode(err)
		gt.Bool(t, ok).True()
		gt.Value(t, code).Equal(http.StatusInternalServerError)

		gt.Value(t, testutil.ToFloat64(metrics.Retries.WithLabelValues("/message"))).Equal(3.0)
		gt.Value(t, testutil.ToFloat64(metrics.Requests.WithLabelValues("/message", "error"))).Equal(4.0)
	})

	t.Run("403 and 404 are attempted once", func(t *testing.T) {
		for _, status := range []int{http.StatusForbidden, http.StatusNotFound} {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
			}))

			rec := &delayRecorder{}
			svc, err := provider.New("key", "coach-domain",
				provider.WithBaseURL(srv.URL),
				provider.WithSleeper(rec.sleep),
			)
			gt.NoError(t, err).Required()

			_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "hi"})
			srv.Close()

			gt.Value(t, err).NotNil()
			gt.Value(t, calls.Load()).Equal(int32(1))
			gt.Array(t, rec.recorded()).Length(0)
			code, _ := provider.ErrorCode(err)
			gt.Value(t, code).Equal(status)
		}
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"ai_message":"pong","ai_score":0.9}`))
		}))
		defer srv.Close()

		rec := &delayRecorder{}
		svc, err := provider.New("key", "coach-domain",
			provider.WithBaseURL(srv.URL),
			provider.WithSleeper(rec.sleep),
		)
		gt.NoError(t, err).Required()

		resp, err := svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "ping"})
		gt.NoError(t, err).Required()
		gt.Value(t, resp.AIMessage).Equal("pong")
		gt.Value(t, calls.Load()).Equal(int32(3))
		gt.Value(t, rec.recorded()).Equal([]time.Duration{time.Second, 2 * time.Second})
	})

	t.Run("cancelled context interrupts the backoff wait", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		svc, err := provider.New("key", "coach-domain",
			provider.WithBaseURL(srv.URL),
			provider.WithBaseDelay(time.Hour),
			provider.WithSleeper(func(ctx context.Context, d time.Duration) error {
				cancel()
				<-ctx.Done()
				return ctx.Err()
			}),
		)
		gt.NoError(t, err).Required()

		_, err = svc.SendMessage(ctx, &provider.MessageRequest{Text: "hi"})
		gt.Bool(t, errors.Is(err, context.Canceled)).True()
		gt.Value(t, calls.Load()).Equal(int32(1))
	})

	t.Run("zero retries means a single attempt", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		svc, err := provider.New("key", "coach-domain",
			provider.WithBaseURL(srv.URL),
			provider.WithMaxRetries(0),
		)
		gt.NoError(t, err).Required()

		_, err = svc.SendMessage(context.Background(), &provider.MessageRequest{Text: "hi"})
		gt.Value(t, err).NotNil()
		gt.Value(t, calls.Load()).Equal(int32(1))
	})
}
