package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/service"
)

// SearchQuestions filters the pool with ?section=&type=&difficulty=1,2&topic=
// &tag=&official=true&status=&min_quality=&limit=&offset=.
func (h *Handler) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.questions.Search(r.Context(), f, limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, res, http.StatusOK)
}

func parseFilter(r *http.Request) (questionbank.Filter, error) {
	q := r.URL.Query()
	f := questionbank.Filter{
		Section:      sections.Section(q.Get("section")),
		Type:         questionbank.Type(q.Get("type")),
		Topic:        q.Get("topic"),
		Tags:         queryList(r, "tag"),
		ReviewStatus: questionbank.ReviewStatus(q.Get("status")),
	}
	for _, d := range queryList(r, "difficulty") {
		n, err := strconv.Atoi(d)
		if err != nil {
			return f, fmt.Errorf("%w: difficulty %q is not a number", service.ErrInvalidInput, d)
		}
		f.Difficulties = append(f.Difficulties, n)
	}
	if v := q.Get("official"); v != "" {
		official, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: official must be true or false", service.ErrInvalidInput)
		}
		f.OfficialOnly = official
	}
	if v := q.Get("min_quality"); v != "" {
		mq, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("%w: min_quality must be a number", service.ErrInvalidInput)
		}
		f.MinQuality = mq
	}
	return f, nil
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, q, http.StatusOK)
}

// ImportQuestions accepts a versioned envelope and reports per-record
// failures without aborting the batch.
func (h *Handler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	var env questionbank.Envelope
	if !decode(w, r, &env) {
		return
	}
	report, err := h.questions.Import(r.Context(), env)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, report, http.StatusOK)
}

// ReviewQuestion sets {"status": "approved|rejected|pending"}.
func (h *Handler) ReviewQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status questionbank.ReviewStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.questions.Review(r.Context(), id, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, map[string]string{"id": id, "status": string(req.Status)}, http.StatusOK)
}

// GenerateQuestions asks the LLM for a batch targeted at the learner's weak
// topics in the section.
func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserID = learnerID(r)
	report, err := h.questions.Generate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if len(report.Saved) == 0 {
		status = http.StatusUnprocessableEntity
	}
	jsonResponse(w, report, status)
}
