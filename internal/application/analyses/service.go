package analyses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/rootcause/internal/application"
	domain "github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/audit"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
)

// Service implements the analysis workflow use-cases. It is the only writer of
// Analysis state: every operation runs guard -> validate -> mutate -> persist
// -> audit, and authorization failures short-circuit before any persistence.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Repo  domain.Repository
	Tasks tasks.Repository
	Guard *auth.Guard
	Audit audit.Recorder
	Clock application.Clock
}

//
// ==== USE CASES ====
//

// CreateCommand: employee starts an analysis against an assigned task.
type CreateCommand struct {
	Actor  auth.Actor
	TaskID string
	Type   domain.AnalysisType
}

// CreateAssignedCommand: manager creates the backing task and the analysis
// for one of their reports in a single step.
type CreateAssignedCommand struct {
	Actor      auth.Actor
	Title      string
	Type       domain.AnalysisType
	EmployeeID string
	TeamID     string
}

// ContentPayload carries everything updateContent may change.
type ContentPayload struct {
	Symptoms     []string
	Signals      []string
	Hypotheses   []domain.Hypothesis
	Environment  map[string]any
	Timeline     map[string]any
	Dependencies map[string]any
	Risk         map[string]any
}

type UpdateContentCommand struct {
	Actor      auth.Actor
	AnalysisID domain.AnalysisID
	Content    ContentPayload
}

// ReviewDecision enum
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

type ReviewCommand struct {
	Actor      auth.Actor
	AnalysisID domain.AnalysisID
	Decision   ReviewDecision
	Feedback   string
}

// Create starts a DRAFT analysis for a task assigned to the calling employee.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Analysis, error) {
	if err := s.Guard.RequireRole(cmd.Actor, auth.OpCreateAnalysis); err != nil {
		return nil, err
	}
	if !domain.ValidType(cmd.Type) {
		return nil, fmt.Errorf("%w: unknown analysis type %q", domain.ErrValidation, cmd.Type)
	}
	if strings.TrimSpace(cmd.TaskID) == "" {
		return nil, fmt.Errorf("%w: task_id is required", domain.ErrValidation)
	}

	task, err := s.Tasks.Get(ctx, tasks.TaskID(cmd.TaskID))
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != cmd.Actor.ID {
		return nil, fmt.Errorf("%w: task %s is not assigned to %s", domain.ErrDenied, task.ID, cmd.Actor.ID)
	}

	if _, err := s.Repo.GetByTask(ctx, cmd.TaskID); err == nil {
		return nil, fmt.Errorf("%w: an analysis already exists for task %s", domain.ErrInvalidState, cmd.TaskID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.Clock.Now()
	a := &domain.Analysis{
		ID:         domain.AnalysisID(uuid.New().String()),
		TaskID:     cmd.TaskID,
		EmployeeID: cmd.Actor.ID,
		TeamID:     task.TeamID,
		Status:     domain.StatusDraft,
		Type:       cmd.Type,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	hist := s.historyEntry(a.ID, domain.StatusDraft, cmd.Actor.ID, "CREATED")

	if err := s.Repo.Create(ctx, a, hist); err != nil {
		return nil, err
	}
	s.record(ctx, string(a.ID), "create", cmd.Actor.ID, map[string]any{
		"after": map[string]any{"status": a.Status, "task_id": a.TaskID, "analysis_type": a.Type},
	})
	return a, nil
}

// CreateAssigned creates the backing task and the analysis atomically.
func (s *Service) CreateAssigned(ctx context.Context, cmd CreateAssignedCommand) (*domain.Analysis, error) {
	if err := s.Guard.RequireRole(cmd.Actor, auth.OpCreateAssigned); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if !domain.ValidType(cmd.Type) {
		return nil, fmt.Errorf("%w: unknown analysis type %q", domain.ErrValidation, cmd.Type)
	}
	if strings.TrimSpace(cmd.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: employee_id is required", domain.ErrValidation)
	}
	if err := s.Guard.RequireManagerOf(ctx, cmd.Actor, auth.OpCreateAssigned, cmd.EmployeeID); err != nil {
		return nil, err
	}
	if cmd.TeamID != "" {
		if err := s.Guard.RequireMember(ctx, cmd.TeamID, cmd.EmployeeID); err != nil {
			return nil, err
		}
	}

	now := s.Clock.Now()
	task := &tasks.Task{
		ID:         tasks.TaskID(uuid.New().String()),
		Title:      cmd.Title,
		AssigneeID: cmd.EmployeeID,
		TeamID:     cmd.TeamID,
		CreatedAt:  now,
	}
	a := &domain.Analysis{
		ID:         domain.AnalysisID(uuid.New().String()),
		TaskID:     string(task.ID),
		EmployeeID: cmd.EmployeeID,
		TeamID:     cmd.TeamID,
		Status:     domain.StatusDraft,
		Type:       cmd.Type,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	hist := s.historyEntry(a.ID, domain.StatusDraft, cmd.Actor.ID, "CREATED")

	if err := s.Repo.CreateWithTask(ctx, task, a, hist); err != nil {
		return nil, err
	}
	s.record(ctx, string(a.ID), "create_assigned", cmd.Actor.ID, map[string]any{
		"after": map[string]any{"status": a.Status, "task_id": a.TaskID, "employee_id": a.EmployeeID, "team_id": a.TeamID},
	})
	return a, nil
}

// UpdateContent replaces the analysis content, bumps the revision counter,
// recomputes readiness and snapshots a Revision, all in one commit.
func (s *Service) UpdateContent(ctx context.Context, cmd UpdateContentCommand) (*domain.Analysis, error) {
	a, err := s.Repo.Get(ctx, cmd.AnalysisID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwner(cmd.Actor, auth.OpUpdateContent, a); err != nil {
		return nil, err
	}
	if !a.Status.Editable() {
		return nil, fmt.Errorf("%w: content is not editable in status %s", domain.ErrInvalidState, a.Status)
	}
	content, err := normalizeContent(cmd.Content)
	if err != nil {
		return nil, err
	}

	before := contentSnapshot(a)
	expected := a.RevisionCount

	a.Symptoms = content.Symptoms
	a.Signals = content.Signals
	a.Hypotheses = content.Hypotheses
	a.Environment = content.Environment
	a.Timeline = content.Timeline
	a.Dependencies = content.Dependencies
	a.Risk = content.Risk
	a.RevisionCount = expected + 1
	a.ReadinessScore = domain.Readiness(a)
	a.UpdatedAt = s.Clock.Now()

	rev := &domain.Revision{
		AnalysisID:     a.ID,
		Number:         a.RevisionCount,
		Symptoms:       a.Symptoms,
		Signals:        a.Signals,
		Hypotheses:     a.Hypotheses,
		ReadinessScore: a.ReadinessScore,
		AuthorID:       cmd.Actor.ID,
		CreatedAt:      a.UpdatedAt,
	}

	if err := s.Repo.UpdateContent(ctx, a, rev, expected); err != nil {
		return nil, err
	}
	s.record(ctx, string(a.ID), "update_content", cmd.Actor.ID, map[string]any{
		"before": before,
		"after":  contentSnapshot(a),
	})
	return a, nil
}

// Submit moves DRAFT or NEEDS_CHANGES to SUBMITTED once readiness clears the
// threshold. Pending manager feedback is cleared here and only here.
func (s *Service) Submit(ctx context.Context, id domain.AnalysisID, actor auth.Actor) (*domain.Analysis, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwner(actor, auth.OpSubmit, a); err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(domain.StatusSubmitted) {
		return nil, fmt.Errorf("%w: cannot submit from status %s", domain.ErrInvalidState, a.Status)
	}

	// Recompute rather than trust the stored score.
	score := domain.Readiness(a)
	if score < domain.SubmitThreshold {
		return nil, fmt.Errorf("%w: readiness %d below threshold %d", domain.ErrInvalidState, score, domain.SubmitThreshold)
	}

	expected := a.Status
	a.Status = domain.StatusSubmitted
	a.ReadinessScore = score
	a.ManagerFeedback = ""
	a.UpdatedAt = s.Clock.Now()

	hist := s.historyEntry(a.ID, domain.StatusSubmitted, actor.ID, fmt.Sprintf("submitted with readiness %d", score))
	if err := s.Repo.UpdateStatus(ctx, a, hist, expected); err != nil {
		return nil, err
	}
	s.record(ctx, string(a.ID), "submit", actor.ID, map[string]any{
		"before": map[string]any{"status": expected},
		"after":  map[string]any{"status": a.Status, "readiness_score": score},
	})
	return a, nil
}

// Review applies a manager decision to a SUBMITTED analysis.
func (s *Service) Review(ctx context.Context, cmd ReviewCommand) (*domain.Analysis, error) {
	a, err := s.Repo.Get(ctx, cmd.AnalysisID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireManagerOf(ctx, cmd.Actor, auth.OpReview, a.EmployeeID); err != nil {
		return nil, err
	}
	if a.Status != domain.StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot review from status %s", domain.ErrInvalidState, a.Status)
	}

	var next domain.Status
	switch cmd.Decision {
	case DecisionApprove:
		next = domain.StatusApproved
	case DecisionReject:
		next = domain.StatusNeedsChanges
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", domain.ErrValidation, cmd.Decision)
	}

	expected := a.Status
	a.Status = next
	if cmd.Decision == DecisionReject {
		a.ManagerFeedback = cmd.Feedback
	}
	a.UpdatedAt = s.Clock.Now()

	details := "approved"
	if cmd.Decision == DecisionReject {
		details = cmd.Feedback
	}
	hist := s.historyEntry(a.ID, next, cmd.Actor.ID, details)
	if err := s.Repo.UpdateStatus(ctx, a, hist, expected); err != nil {
		return nil, err
	}
	s.record(ctx, string(a.ID), "review", cmd.Actor.ID, map[string]any{
		"before": map[string]any{"status": expected},
		"after":  map[string]any{"status": next, "manager_feedback": a.ManagerFeedback},
	})
	return a, nil
}

// Get returns one analysis, guarded by the shared owner-or-manager rule.
func (s *Service) Get(ctx context.Context, id domain.AnalysisID, actor auth.Actor) (*domain.Analysis, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwnerOrManager(ctx, actor, auth.OpRead, a); err != nil {
		return nil, err
	}
	return a, nil
}

// History returns the append-only transition log.
func (s *Service) History(ctx context.Context, id domain.AnalysisID, actor auth.Actor) ([]*domain.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.Repo.StatusHistory(ctx, id)
}

// Revisions returns all content snapshots, oldest first.
func (s *Service) Revisions(ctx context.Context, id domain.AnalysisID, actor auth.Actor) ([]*domain.Revision, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.Repo.Revisions(ctx, id)
}

//
// ==== helpers ====
//

func (s *Service) historyEntry(id domain.AnalysisID, status domain.Status, actorID, details string) *domain.StatusHistoryEntry {
	return &domain.StatusHistoryEntry{
		ID:         uuid.New().String(),
		AnalysisID: id,
		Status:     status,
		ChangedBy:  actorID,
		ChangedAt:  s.Clock.Now(),
		Details:    details,
	}
}

// record appends an audit entry. The mutation has already committed, so a
// failing sink is logged instead of failing the operation.
func (s *Service) record(ctx context.Context, analysisID, action, actorID string, changes map[string]any) {
	entry := &audit.Entry{
		ID:         uuid.New().String(),
		EntityType: "analysis",
		EntityID:   analysisID,
		Action:     action,
		ActorID:    actorID,
		Changes:    changes,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Audit.Record(ctx, entry); err != nil {
		slog.Error("audit record failed", "entity_id", analysisID, "action", action, "error", err)
	}
}

// normalizeContent drops blank symptom/signal lines and validates hypotheses.
func normalizeContent(c ContentPayload) (ContentPayload, error) {
	c.Symptoms = dropBlank(c.Symptoms)
	c.Signals = dropBlank(c.Signals)
	for i, h := range c.Hypotheses {
		if strings.TrimSpace(h.Text) == "" {
			return c, fmt.Errorf("%w: hypothesis %d has empty text", domain.ErrValidation, i)
		}
		if h.Confidence < 0 || h.Confidence > 100 {
			return c, fmt.Errorf("%w: hypothesis %d confidence %d out of range", domain.ErrValidation, i, h.Confidence)
		}
		c.Hypotheses[i].Evidence = dropBlank(h.Evidence)
	}
	return c, nil
}

func dropBlank(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contentSnapshot(a *domain.Analysis) map[string]any {
	return map[string]any{
		"symptoms":        a.Symptoms,
		"signals":         a.Signals,
		"hypotheses":      a.Hypotheses,
		"readiness_score": a.ReadinessScore,
		"revision_count":  a.RevisionCount,
	}
}
