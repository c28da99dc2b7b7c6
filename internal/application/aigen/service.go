package aigen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/rootcause/internal/application"
	domai "github.com/bryanwahyu/rootcause/internal/domain/ai"
	"github.com/bryanwahyu/rootcause/internal/domain/aioutputs"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/audit"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	"github.com/bryanwahyu/rootcause/internal/infra/ai/prompt"
)

// DefaultTimeout bounds the only network-bound step in the system.
const DefaultTimeout = 20 * time.Second

// Service runs the two generation flows and the output review operation.
// Generation never changes Analysis state: it reads context, calls the
// provider under a timeout, validates the response and persists an AiOutput
// with status GENERATED. A failed call or a non-conforming response leaves no
// row behind.
type Service struct {
	Client   domai.Client
	Analyses analyses.Repository
	Outputs  aioutputs.Repository
	Guard    *auth.Guard
	Audit    audit.Recorder
	Clock    application.Clock
	Timeout  time.Duration
}

// GenerateHypotheses produces a reviewable hypothesis list from the analysis
// context.
func (s *Service) GenerateHypotheses(ctx context.Context, id analyses.AnalysisID, actor auth.Actor) (*aioutputs.AiOutput, error) {
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwnerOrManager(ctx, actor, auth.OpGenerateHypotheses, a); err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompt.HypothesesSystemPrompt(), prompt.HypothesesUserPrompt(a))
	if err != nil {
		return nil, err
	}
	hyps, err := prompt.ParseHypotheses(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analyses.ErrExternalService, err)
	}
	payload, err := json.Marshal(hyps)
	if err != nil {
		return nil, fmt.Errorf("encoding hypotheses payload: %w", err)
	}
	return s.store(ctx, a, actor, aioutputs.TypeHypotheses, payload)
}

// GenerateReportDraft produces a reviewable five-section report draft,
// including the existing hypotheses in the generation context.
func (s *Service) GenerateReportDraft(ctx context.Context, id analyses.AnalysisID, actor auth.Actor) (*aioutputs.AiOutput, error) {
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwnerOrManager(ctx, actor, auth.OpGenerateReportDraft, a); err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompt.ReportDraftSystemPrompt(), prompt.ReportDraftUserPrompt(a))
	if err != nil {
		return nil, err
	}
	draft, err := prompt.ParseReportDraft(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analyses.ErrExternalService, err)
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encoding report draft payload: %w", err)
	}
	return s.store(ctx, a, actor, aioutputs.TypeReportDraft, payload)
}

// ReviewOutputCommand moves a generated artifact through its review lifecycle.
// EditedPayload is accepted only together with StatusEdited.
type ReviewOutputCommand struct {
	Actor         auth.Actor
	OutputID      aioutputs.OutputID
	Status        aioutputs.ReviewStatus
	EditedPayload json.RawMessage
}

// UpdateOutputStatus transitions an AiOutput to ACCEPTED, REJECTED or EDITED.
// This never alters the owning analysis status.
func (s *Service) UpdateOutputStatus(ctx context.Context, cmd ReviewOutputCommand) (*aioutputs.AiOutput, error) {
	if !aioutputs.ValidReviewStatus(cmd.Status) || cmd.Status == aioutputs.StatusGenerated {
		return nil, fmt.Errorf("%w: invalid review status %q", analyses.ErrValidation, cmd.Status)
	}
	if cmd.EditedPayload != nil && cmd.Status != aioutputs.StatusEdited {
		return nil, fmt.Errorf("%w: payload replacement requires status EDITED", analyses.ErrValidation)
	}
	if cmd.Status == aioutputs.StatusEdited && len(cmd.EditedPayload) > 0 && !json.Valid(cmd.EditedPayload) {
		return nil, fmt.Errorf("%w: edited payload is not valid JSON", analyses.ErrValidation)
	}

	out, err := s.Outputs.Get(ctx, cmd.OutputID)
	if err != nil {
		return nil, err
	}
	a, err := s.Analyses.Get(ctx, analyses.AnalysisID(out.AnalysisID))
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwnerOrManager(ctx, cmd.Actor, auth.OpReviewAiOutput, a); err != nil {
		return nil, err
	}

	expected := out.Status
	if err := s.Outputs.UpdateStatus(ctx, out.ID, expected, cmd.Status, cmd.EditedPayload); err != nil {
		return nil, err
	}
	out.Status = cmd.Status
	if cmd.Status == aioutputs.StatusEdited && len(cmd.EditedPayload) > 0 {
		out.Payload = cmd.EditedPayload
	}
	s.record(ctx, out.AnalysisID, "review_ai_output", cmd.Actor.ID, map[string]any{
		"output_id": out.ID,
		"before":    map[string]any{"status": expected},
		"after":     map[string]any{"status": out.Status},
	})
	return out, nil
}

// ListOutputs returns all generated artifacts for one analysis.
func (s *Service) ListOutputs(ctx context.Context, id analyses.AnalysisID, actor auth.Actor) ([]*aioutputs.AiOutput, error) {
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwnerOrManager(ctx, actor, auth.OpReviewAiOutput, a); err != nil {
		return nil, err
	}
	return s.Outputs.ListByAnalysis(ctx, string(id))
}

// generate calls the provider under the configured timeout and folds transport
// failures into the external-service taxonomy.
func (s *Service) generate(ctx context.Context, system, user string) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := s.Client.Generate(genCtx, system, user)
	if err != nil {
		if errors.Is(err, domai.ErrQuotaExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", analyses.ErrExternalService, err)
	}
	return raw, nil
}

func (s *Service) store(ctx context.Context, a *analyses.Analysis, actor auth.Actor, typ aioutputs.OutputType, payload json.RawMessage) (*aioutputs.AiOutput, error) {
	out := &aioutputs.AiOutput{
		ID:          aioutputs.OutputID(uuid.New().String()),
		AnalysisID:  string(a.ID),
		Type:        typ,
		GeneratedBy: actor.ID,
		Status:      aioutputs.StatusGenerated,
		Payload:     payload,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Outputs.Save(ctx, out); err != nil {
		return nil, err
	}
	s.record(ctx, out.AnalysisID, "generate_"+string(typ), actor.ID, map[string]any{
		"output_id": out.ID,
		"after":     map[string]any{"status": out.Status, "output_type": out.Type},
	})
	return out, nil
}

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
