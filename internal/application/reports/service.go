package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bryanwahyu/rootcause/internal/application"
	"github.com/bryanwahyu/rootcause/internal/domain/aioutputs"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/audit"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	domain "github.com/bryanwahyu/rootcause/internal/domain/reports"
)

// Service owns the only path out of APPROVED: it renders the finalized report
// document, uploads it as an artifact, and transitions the analysis to the
// terminal REPORT_GENERATED status.
type Service struct {
	Analyses  analyses.Repository
	Outputs   aioutputs.Repository
	Guard     *auth.Guard
	Audit     audit.Recorder
	Artifacts domain.ArtifactStore
	Clock     application.Clock
}

// document is the rendered artifact shape.
type document struct {
	Analysis  *analyses.Analysis             `json:"analysis"`
	AiOutputs []*aioutputs.AiOutput          `json:"ai_outputs,omitempty"`
	History   []*analyses.StatusHistoryEntry `json:"status_history"`
}

// Generate finalizes an APPROVED analysis into a report artifact.
func (s *Service) Generate(ctx context.Context, id analyses.AnalysisID, actor auth.Actor) (*domain.Report, error) {
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.RequireOwnerOrManager(ctx, actor, auth.OpGenerateReport, a); err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(analyses.StatusReportGenerated) {
		return nil, fmt.Errorf("%w: cannot generate report from status %s", analyses.ErrInvalidState, a.Status)
	}

	outputs, err := s.Outputs.ListByAnalysis(ctx, string(a.ID))
	if err != nil {
		return nil, err
	}
	// Only human-vetted artifacts make it into the final report.
	var reviewed []*aioutputs.AiOutput
	for _, o := range outputs {
		if o.Status == aioutputs.StatusAccepted || o.Status == aioutputs.StatusEdited {
			reviewed = append(reviewed, o)
		}
	}
	history, err := s.Analyses.StatusHistory(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(document{Analysis: a, AiOutputs: reviewed, History: history}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/%s.json", a.ID, uuid.New().String())
	url, err := s.Artifacts.Put(ctx, key, data, "application/json")
	if err != nil {
		return nil, fmt.Errorf("uploading report artifact: %w", err)
	}

	now := s.Clock.Now()
	expected := a.Status
	a.Status = analyses.StatusReportGenerated
	a.UpdatedAt = now
	hist := &analyses.StatusHistoryEntry{
		ID:         uuid.New().String(),
		AnalysisID: a.ID,
		Status:     analyses.StatusReportGenerated,
		ChangedBy:  actor.ID,
		ChangedAt:  now,
		Details:    url,
	}
	if err := s.Analyses.UpdateStatus(ctx, a, hist, expected); err != nil {
		return nil, err
	}

	report := &domain.Report{
		AnalysisID:  string(a.ID),
		ArtifactURL: url,
		GeneratedBy: actor.ID,
		GeneratedAt: now,
	}
	entry := &audit.Entry{
		ID:         uuid.New().String(),
		EntityType: "analysis",
		EntityID:   string(a.ID),
		Action:     "generate_report",
		ActorID:    actor.ID,
		Changes: map[string]any{
			"before": map[string]any{"status": expected},
			"after":  map[string]any{"status": a.Status, "artifact_url": url},
		},
		CreatedAt: now,
	}
	if err := s.Audit.Record(ctx, entry); err != nil {
		slog.Error("audit record failed", "entity_id", a.ID, "action", "generate_report", "error", err)
	}
	return report, nil
}
