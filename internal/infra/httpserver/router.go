package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appaigen "github.com/bryanwahyu/rootcause/internal/application/aigen"
	appanalyses "github.com/bryanwahyu/rootcause/internal/application/analyses"
	appreports "github.com/bryanwahyu/rootcause/internal/application/reports"
	domai "github.com/bryanwahyu/rootcause/internal/domain/ai"
	"github.com/bryanwahyu/rootcause/internal/domain/aioutputs"
	domain "github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	"github.com/bryanwahyu/rootcause/internal/middleware"
)

type Router struct {
	analyses *appanalyses.Service
	aigen    *appaigen.Service
	reports  *appreports.Service
}

func NewRouter(analysesSvc *appanalyses.Service, aigenSvc *appaigen.Service, reportsSvc *appreports.Service, health http.HandlerFunc) http.Handler {
	r := &Router{analyses: analysesSvc, aigen: aigenSvc, reports: reportsSvc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Actor-Id", "X-Actor-Role"},
	}))

	if health != nil {
		mux.Get("/health", health)
	} else {
		mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses", r.wrap(r.handleCreate))
		rt.Post("/analyses/assigned", r.wrap(r.handleCreateAssigned))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{id}/history", r.wrap(r.handleHistory))
		rt.Get("/analyses/{id}/revisions", r.wrap(r.handleRevisions))
		rt.Put("/analyses/{id}/content", r.wrap(r.handleUpdateContent))
		rt.Post("/analyses/{id}/submit", r.wrap(r.handleSubmit))
		rt.Post("/analyses/{id}/review", r.wrap(r.handleReview))
		rt.Post("/analyses/{id}/report", r.wrap(r.handleGenerateReport))
		rt.Post("/analyses/{id}/ai/hypotheses", r.wrap(r.handleGenerateHypotheses))
		rt.Post("/analyses/{id}/ai/report-draft", r.wrap(r.handleGenerateReportDraft))
		rt.Get("/analyses/{id}/ai/outputs", r.wrap(r.handleListOutputs))
		rt.Post("/ai/outputs/{id}/status", r.wrap(r.handleOutputStatus))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps the domain failure taxonomy onto HTTP statuses.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrDenied):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, domain.ErrInvalidState):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrValidation):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, domain.ErrExternalService):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func actor(req *http.Request) (auth.Actor, error) {
	a, ok := middleware.ActorFromContext(req.Context())
	if !ok {
		return auth.Actor{}, fmt.Errorf("%w: missing actor identity", domain.ErrDenied)
	}
	return a, nil
}

func respond(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/analyses
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	var body struct {
		TaskID string              `json:"task_id"`
		Type   domain.AnalysisType `json:"analysis_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	a, err := r.analyses.Create(req.Context(), appanalyses.CreateCommand{
		Actor:  act,
		TaskID: body.TaskID,
		Type:   body.Type,
	})
	if err != nil {
		return err
	}
	return respond(w, a)
}

// POST /v1/analyses/assigned
func (r *Router) handleCreateAssigned(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	var body struct {
		Title      string              `json:"title"`
		Type       domain.AnalysisType `json:"analysis_type"`
		EmployeeID string              `json:"employee_id"`
		TeamID     string              `json:"team_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	a, err := r.analyses.CreateAssigned(req.Context(), appanalyses.CreateAssignedCommand{
		Actor:      act,
		Title:      body.Title,
		Type:       body.Type,
		EmployeeID: body.EmployeeID,
		TeamID:     body.TeamID,
	})
	if err != nil {
		return err
	}
	return respond(w, a)
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	a, err := r.analyses.Get(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, a)
}

// GET /v1/analyses/{id}/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	entries, err := r.analyses.History(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, entries)
}

// GET /v1/analyses/{id}/revisions
func (r *Router) handleRevisions(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	revs, err := r.analyses.Revisions(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, revs)
}

// PUT /v1/analyses/{id}/content
func (r *Router) handleUpdateContent(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	var body struct {
		Symptoms     []string            `json:"symptoms"`
		Signals      []string            `json:"signals"`
		Hypotheses   []domain.Hypothesis `json:"hypotheses"`
		Environment  map[string]any      `json:"environment_context"`
		Timeline     map[string]any      `json:"timeline_events"`
		Dependencies map[string]any      `json:"dependency_impact"`
		Risk         map[string]any      `json:"risk_classification"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	a, err := r.analyses.UpdateContent(req.Context(), appanalyses.UpdateContentCommand{
		Actor:      act,
		AnalysisID: domain.AnalysisID(chi.URLParam(req, "id")),
		Content: appanalyses.ContentPayload{
			Symptoms:     body.Symptoms,
			Signals:      body.Signals,
			Hypotheses:   body.Hypotheses,
			Environment:  body.Environment,
			Timeline:     body.Timeline,
			Dependencies: body.Dependencies,
			Risk:         body.Risk,
		},
	})
	if err != nil {
		return err
	}
	return respond(w, a)
}

// POST /v1/analyses/{id}/submit
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	a, err := r.analyses.Submit(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, a)
}

// POST /v1/analyses/{id}/review
// Body: {"decision": "APPROVE"|"REJECT", "feedback": "..."}
func (r *Router) handleReview(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	var body struct {
		Decision appanalyses.ReviewDecision `json:"decision"`
		Feedback string                     `json:"feedback"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	a, err := r.analyses.Review(req.Context(), appanalyses.ReviewCommand{
		Actor:      act,
		AnalysisID: domain.AnalysisID(chi.URLParam(req, "id")),
		Decision:   body.Decision,
		Feedback:   body.Feedback,
	})
	if err != nil {
		return err
	}
	return respond(w, a)
}

// POST /v1/analyses/{id}/report
func (r *Router) handleGenerateReport(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	rep, err := r.reports.Generate(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, rep)
}

// POST /v1/analyses/{id}/ai/hypotheses
func (r *Router) handleGenerateHypotheses(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	out, err := r.aigen.GenerateHypotheses(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, out)
}

// POST /v1/analyses/{id}/ai/report-draft
func (r *Router) handleGenerateReportDraft(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	out, err := r.aigen.GenerateReportDraft(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, out)
}

// GET /v1/analyses/{id}/ai/outputs
func (r *Router) handleListOutputs(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	outs, err := r.aigen.ListOutputs(req.Context(), domain.AnalysisID(chi.URLParam(req, "id")), act)
	if err != nil {
		return err
	}
	return respond(w, outs)
}

// POST /v1/ai/outputs/{id}/status
// Body: {"status": "ACCEPTED"|"REJECTED"|"EDITED", "payload": {...}}
func (r *Router) handleOutputStatus(w http.ResponseWriter, req *http.Request) error {
	act, err := actor(req)
	if err != nil {
		return err
	}
	var body struct {
		Status  aioutputs.ReviewStatus `json:"status"`
		Payload json.RawMessage        `json:"payload"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	out, err := r.aigen.UpdateOutputStatus(req.Context(), appaigen.ReviewOutputCommand{
		Actor:         act,
		OutputID:      aioutputs.OutputID(chi.URLParam(req, "id")),
		Status:        body.Status,
		EditedPayload: body.Payload,
	})
	if err != nil {
		return err
	}
	return respond(w, out)
}
