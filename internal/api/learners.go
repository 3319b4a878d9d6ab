package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/abhisek/adaptest/internal/service"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.learners.Profile(r.Context(), learnerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

// SetGoal stores {"target_score": 450, "target_date": "2026-12-01"}. The
// date also accepts RFC 3339 timestamps.
func (h *Handler) SetGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetScore int    `json:"target_score"`
		TargetDate  string `json:"target_date"`
	}
	if !decode(w, r, &req) {
		return
	}
	date, err := parseDate(req.TargetDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.learners.SetGoal(r.Context(), learnerID(r), req.TargetScore, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: target_date %q is not a date", service.ErrInvalidInput, s)
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recs, err := h.learners.Recommendations(r.Context(), learnerID(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, recs, http.StatusOK)
}

// GetStudyPlan builds a plan from ?goal_score=&weeks=. Without goal_score
// the learner's stored goal is used.
func (h *Handler) GetStudyPlan(w http.ResponseWriter, r *http.Request) {
	goal, err := queryInt(r, "goal_score", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	weeks, err := queryInt(r, "weeks", 8)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if goal == 0 {
		p, err := h.learners.Profile(r.Context(), learnerID(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if p.Goal == nil {
			h.fail(w, r, fmt.Errorf("%w: goal_score is required when no goal is set", service.ErrInvalidInput))
			return
		}
		goal = p.Goal.TargetScore
	}
	plan, err := h.learners.StudyPlan(r.Context(), learnerID(r), goal, weeks)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, plan, http.StatusOK)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.learners.Dashboard(r.Context(), learnerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonResponse(w, snap, http.StatusOK)
}
