package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
)

// SessionUploader publishes coaching sessions to the memory provider
type SessionUploader interface {
	UploadCoachingSession(ctx context.Context, session *model.CoachingSession, transcript []model.TranscriptEntry, analysis *model.SessionAnalysis, client *model.Client) bool
	UploadSessionUpdate(ctx context.Context, sessionID string, transcript []model.TranscriptEntry, analysis *model.SessionAnalysis) bool
	ListUploadedSessions(ctx context.Context, clientID string) ([]*model.UploadedSession, error)
}

// HistoryReader serves client history rebuilt from the memory provider
type HistoryReader interface {
	GetClientHistory(ctx context.Context, clientID string) (*model.ClientHistoryContext, error)
	GetClientProgressSummary(ctx context.Context, clientID string) (string, error)
	GetRelevantContext(ctx context.Context, clientID string) (string, error)
	ClearCache()
}

// HealthChecker probes the memory provider
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

type Server struct {
	router         *chi.Mux
	uploader       SessionUploader
	history        HistoryReader
	health         HealthChecker
	metricsHandler http.Handler
}

type Options func(*Server)

func WithHealthChecker(hc HealthChecker) Options {
	return func(s *Server) {
		s.health = hc
	}
}

// WithMetricsHandler mounts h at /metrics
func WithMetricsHandler(h http.Handler) Options {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

func New(uploader SessionUploader, history HistoryReader, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		uploader: uploader,
		history:  history,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", uploadSessionHandler(s.uploader))
		r.Post("/sessions/{sessionID}/updates", uploadSessionUpdateHandler(s.uploader))

		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Get("/history", clientHistoryHandler(s.history))
			r.Get("/summary", clientSummaryHandler(s.history))
			r.Get("/context", clientContextHandler(s.history))
			r.Get("/uploads", clientUploadsHandler(s.uploader))
		})

		r.Delete("/cache", clearCacheHandler(s.history))
	})

	r.Get("/health", healthHandler(s.health))

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
