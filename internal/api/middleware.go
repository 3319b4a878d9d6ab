package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type learnerKey struct{}

// requireLearner rejects requests without a learner id and stores the id in
// the request context.
func requireLearner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(LearnerHeader))
		if id == "" {
			errorResponse(w, "missing "+LearnerHeader+" header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), learnerKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func learnerID(r *http.Request) string {
	id, _ := r.Context().Value(learnerKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"learner_id", r.Header.Get(LearnerHeader))
	})
}
