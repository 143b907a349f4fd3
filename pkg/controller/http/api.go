package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/utils/errutil"
)

const maxRequestBodySize = 10 << 20

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Uploaded  bool   `json:"uploaded"`
}

type textResponse struct {
	ClientID string `json:"client_id"`
	Text     string `json:"text"`
}

type uploadsResponse struct {
	ClientID string                   `json:"client_id"`
	Sessions []*model.UploadedSession `json:"sessions"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Provider bool   `json:"provider"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return false
	}
	return true
}

// upload results map to 200 on success and 503 when the provider is unavailable
func uploadStatus(uploaded bool) int {
	if uploaded {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func uploadSessionHandler(uploader SessionUploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.SessionUpload
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Session.ID == "" {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "session.id is required"})
			return
		}

		uploaded := uploader.UploadCoachingSession(r.Context(), &req.Session, req.Transcript, req.Analysis, req.Client)
		writeJSON(w, r, uploadStatus(uploaded), uploadResponse{SessionID: req.Session.ID, Uploaded: uploaded})
	}
}

func uploadSessionUpdateHandler(uploader SessionUploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		var req model.SessionUpdate
		if !decodeBody(w, r, &req) {
			return
		}

		uploaded := uploader.UploadSessionUpdate(r.Context(), sessionID, req.Transcript, req.Analysis)
		writeJSON(w, r, uploadStatus(uploaded), uploadResponse{SessionID: sessionID, Uploaded: uploaded})
	}
}

func clientHistoryHandler(history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")

		h, err := history.GetClientHistory(r.Context(), clientID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		if h == nil {
			writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "no history for client"})
			return
		}

		writeJSON(w, r, http.StatusOK, h)
	}
}

func clientSummaryHandler(history HistoryReader) http.HandlerFunc {
	return textHandler(history.GetClientProgressSummary)
}

func clientContextHandler(history HistoryReader) http.HandlerFunc {
	return textHandler(history.GetRelevantContext)
}

func textHandler(generate func(ctx context.Context, clientID string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")

		text, err := generate(r.Context(), clientID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		if text == "" {
			writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "no history for client"})
			return
		}

		writeJSON(w, r, http.StatusOK, textResponse{ClientID: clientID, Text: text})
	}
}

func clientUploadsHandler(uploader SessionUploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")

		sessions, err := uploader.ListUploadedSessions(r.Context(), clientID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []*model.UploadedSession{}
		}

		writeJSON(w, r, http.StatusOK, uploadsResponse{ClientID: clientID, Sessions: sessions})
	}
}

func clearCacheHandler(history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history.ClearCache()
		w.WriteHeader(http.StatusNoContent)
	}
}

func healthHandler(hc HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hc == nil {
			writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		if !hc.HealthCheck(r.Context()) {
			writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
		writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Provider: true})
	}
}
