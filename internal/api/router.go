package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// LearnerHeader carries the opaque learner id on every learner-scoped call.
const LearnerHeader = "X-Learner-ID"

// NewRouter builds the HTTP router with all endpoints under /api/v1.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", h.Health).Methods("GET")

	// Question pool
	api.HandleFunc("/questions", h.SearchQuestions).Methods("GET")
	api.HandleFunc("/questions/import", h.ImportQuestions).Methods("POST")
	api.Handle("/questions/generate", requireLearner(http.HandlerFunc(h.GenerateQuestions))).Methods("POST")
	api.HandleFunc("/questions/{id}", h.GetQuestion).Methods("GET")
	api.HandleFunc("/questions/{id}/review", h.ReviewQuestion).Methods("PUT")

	// Everything below acts on behalf of one learner.
	learner := api.NewRoute().Subrouter()
	learner.Use(requireLearner)

	// Exams
	learner.HandleFunc("/exams", h.ListExams).Methods("GET")
	learner.HandleFunc("/exams", h.CreateExam).Methods("POST")
	learner.HandleFunc("/exams/{id}", h.GetExam).Methods("GET")
	learner.HandleFunc("/exams/{id}/questions", h.GetExamQuestions).Methods("GET")
	learner.HandleFunc("/exams/{id}/events", h.GetExamEvents).Methods("GET")
	learner.HandleFunc("/exams/{id}/start", h.transition(h.exams.Start)).Methods("POST")
	learner.HandleFunc("/exams/{id}/pause", h.transition(h.exams.Pause)).Methods("POST")
	learner.HandleFunc("/exams/{id}/resume", h.transition(h.exams.Resume)).Methods("POST")
	learner.HandleFunc("/exams/{id}/complete", h.transition(h.exams.Complete)).Methods("POST")
	learner.HandleFunc("/exams/{id}/abandon", h.transition(h.exams.Abandon)).Methods("POST")
	learner.HandleFunc("/exams/{id}/answers", h.SubmitAnswer).Methods("POST")
	learner.HandleFunc("/exams/{id}/activity", h.ReportActivity).Methods("POST")

	// Learner
	learner.HandleFunc("/profile", h.GetProfile).Methods("GET")
	learner.HandleFunc("/profile/goal", h.SetGoal).Methods("PUT")
	learner.HandleFunc("/recommendations", h.GetRecommendations).Methods("GET")
	learner.HandleFunc("/study-plan", h.GetStudyPlan).Methods("GET")
	learner.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", LearnerHeader},
	})

	return c.Handler(r)
}
