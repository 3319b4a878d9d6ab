package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/service"
	"github.com/abhisek/adaptest/internal/store"
	"github.com/abhisek/adaptest/internal/studyplan"
)

// maxBodyBytes bounds request bodies; question imports are the largest.
const maxBodyBytes = 8 << 20

// Handler serves the HTTP API on top of the services.
type Handler struct {
	exams     *service.ExamService
	learners  *service.LearnerService
	questions *service.QuestionService
	logger    *slog.Logger
	started   time.Time
}

// NewHandler creates a Handler. A nil logger discards request logs.
func NewHandler(svc *service.Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		exams:     svc.Exams,
		learners:  svc.Learners,
		questions: svc.Questions,
		logger:    logger,
		started:   time.Now(),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}, http.StatusOK)
}

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

// fail maps a service error onto a status code. Unexpected errors are
// logged and their text is not sent to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		errorResponse(w, "internal error", status)
		return
	}
	errorResponse(w, err.Error(), status)
}

func statusFor(err error) int {
	var (
		qbErr   *questionbank.ValidationError
		genErr  *questiongen.ValidationError
		profErr *profile.ValidationError
		planErr *studyplan.ValidationError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, service.ErrGenerationDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNoQuestions),
		errors.Is(err, exam.ErrNotInAttempt),
		errors.As(err, &qbErr),
		errors.As(err, &genErr),
		errors.As(err, &profErr),
		errors.As(err, &planErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if !errors.Is(err, io.EOF) {
			msg = fmt.Sprintf("invalid JSON body: %v", err)
		}
		errorResponse(w, msg, http.StatusBadRequest)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, name)
	}
	return n, nil
}

// queryList splits a comma-separated query parameter, also accepting the
// parameter repeated.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
