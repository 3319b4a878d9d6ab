package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/service"
)

// CreateExam builds a new attempt: {"type": "full|section|micro", ...}.
func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req service.CreateExamRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.exams.CreateExam(r.Context(), learnerID(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, view, http.StatusCreated)
}

// ListExams returns the learner's attempts, optionally filtered by status.
func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var statuses []exam.Status
	for _, s := range queryList(r, "status") {
		statuses = append(statuses, exam.Status(s))
	}
	attempts, err := h.exams.List(r.Context(), learnerID(r), statuses, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if attempts == nil {
		attempts = []exam.Attempt{}
	}
	jsonResponse(w, attempts, http.StatusOK)
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	view, err := h.exams.Get(r.Context(), learnerID(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, view, http.StatusOK)
}

// GetExamQuestions returns the attempt's questions without answer keys until
// the attempt is completed.
func (h *Handler) GetExamQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.exams.Questions(r.Context(), learnerID(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, qs, http.StatusOK)
}

func (h *Handler) GetExamEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.exams.Events(r.Context(), learnerID(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, events, http.StatusOK)
}

type examAction func(ctx context.Context, userID, attemptID string) (*service.ExamView, error)

// transition serves a body-less state change such as start or pause.
func (h *Handler) transition(action examAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := action(r.Context(), learnerID(r), mux.Vars(r)["id"])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		jsonResponse(w, view, http.StatusOK)
	}
}

// SubmitAnswer grades one response: {"question_id", "response", "time_spent_secs"}.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.exams.SubmitAnswer(r.Context(), learnerID(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, res, http.StatusOK)
}

// ReportActivity records a proctoring signal: {"type": "tab_switch"}.
func (h *Handler) ReportActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type exam.Activity `json:"type"`
	}
	if !decode(w, r, &req) {
		return
	}
	view, err := h.exams.ReportActivity(r.Context(), learnerID(r), mux.Vars(r)["id"], req.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, view, http.StatusOK)
}
