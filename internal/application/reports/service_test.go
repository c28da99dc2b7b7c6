package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rootcause/internal/domain/aioutputs"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/audit"
	"github.com/bryanwahyu/rootcause/internal/domain/auth"
	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
)

//
// ==== fakes ====
//

type stubAnalyses struct {
	rows    map[analyses.AnalysisID]*analyses.Analysis
	history map[analyses.AnalysisID][]*analyses.StatusHistoryEntry
}

func (r *stubAnalyses) Get(_ context.Context, id analyses.AnalysisID) (*analyses.Analysis, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: analysis %s", analyses.ErrNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (r *stubAnalyses) UpdateStatus(_ context.Context, a *analyses.Analysis, hist *analyses.StatusHistoryEntry, expected analyses.Status) error {
	cur, ok := r.rows[a.ID]
	if !ok {
		return fmt.Errorf("%w: analysis %s", analyses.ErrNotFound, a.ID)
	}
	if cur.Status != expected {
		return analyses.ErrStaleState
	}
	cp := *a
	r.rows[a.ID] = &cp
	r.history[a.ID] = append(r.history[a.ID], hist)
	return nil
}

func (r *stubAnalyses) StatusHistory(_ context.Context, id analyses.AnalysisID) ([]*analyses.StatusHistoryEntry, error) {
	return r.history[id], nil
}

func (r *stubAnalyses) Create(context.Context, *analyses.Analysis, *analyses.StatusHistoryEntry) error {
	panic("unexpected Create")
}
func (r *stubAnalyses) CreateWithTask(context.Context, *tasks.Task, *analyses.Analysis, *analyses.StatusHistoryEntry) error {
	panic("unexpected CreateWithTask")
}
func (r *stubAnalyses) GetByTask(context.Context, string) (*analyses.Analysis, error) {
	panic("unexpected GetByTask")
}
func (r *stubAnalyses) UpdateContent(context.Context, *analyses.Analysis, *analyses.Revision, int) error {
	panic("unexpected UpdateContent")
}
func (r *stubAnalyses) Revisions(context.Context, analyses.AnalysisID) ([]*analyses.Revision, error) {
	panic("unexpected Revisions")
}

type stubOutputs struct {
	rows []*aioutputs.AiOutput
}

func (r *stubOutputs) ListByAnalysis(_ context.Context, analysisID string) ([]*aioutputs.AiOutput, error) {
	var out []*aioutputs.AiOutput
	for _, o := range r.rows {
		if o.AnalysisID == analysisID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *stubOutputs) Save(context.Context, *aioutputs.AiOutput) error { panic("unexpected Save") }
func (r *stubOutputs) Get(context.Context, aioutputs.OutputID) (*aioutputs.AiOutput, error) {
	panic("unexpected Get")
}
func (r *stubOutputs) UpdateStatus(context.Context, aioutputs.OutputID, aioutputs.ReviewStatus, aioutputs.ReviewStatus, json.RawMessage) error {
	panic("unexpected UpdateStatus")
}

// memArtifacts captures uploads keyed by object name.
type memArtifacts struct {
	objects map[string][]byte
	err     error
}

func (s *memArtifacts) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return "http://artifacts.local/" + key, nil
}

type fakeDirectory struct {
	managers map[string][]string
}

func (d *fakeDirectory) ManagerOf(_ context.Context, managerID, employeeID string) (bool, error) {
	for _, e := range d.managers[managerID] {
		if e == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) Member(context.Context, string, string) (bool, error) {
	return false, nil
}

type memAudit struct {
	entries []*audit.Entry
}

func (r *memAudit) Record(_ context.Context, e *audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *memAudit) ListByEntity(context.Context, string, string, int) ([]*audit.Entry, error) {
	return nil, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

//
// ==== fixture ====
//

var (
	employee = auth.Actor{ID: "emp-1", Role: auth.RoleEmployee}
	stranger = auth.Actor{ID: "emp-9", Role: auth.RoleEmployee}
	manager  = auth.Actor{ID: "mgr-1", Role: auth.RoleManager}
)

func newFixture(status analyses.Status, outputs []*aioutputs.AiOutput) (*Service, *stubAnalyses, *memArtifacts) {
	repo := &stubAnalyses{
		rows: map[analyses.AnalysisID]*analyses.Analysis{
			"a-1": {
				ID:         "a-1",
				EmployeeID: "emp-1",
				Status:     status,
				Type:       analyses.TypeLatency,
				Symptoms:   []string{"p99 latency tripled"},
			},
		},
		history: map[analyses.AnalysisID][]*analyses.StatusHistoryEntry{
			"a-1": {{ID: "h-1", AnalysisID: "a-1", Status: analyses.StatusDraft, ChangedBy: "emp-1"}},
		},
	}
	artifacts := &memArtifacts{}
	svc := &Service{
		Analyses:  repo,
		Outputs:   &stubOutputs{rows: outputs},
		Guard:     auth.NewGuard(&fakeDirectory{managers: map[string][]string{"mgr-1": {"emp-1"}}}),
		Audit:     &memAudit{},
		Artifacts: artifacts,
		Clock:     fixedClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	return svc, repo, artifacts
}

func output(id string, status aioutputs.ReviewStatus) *aioutputs.AiOutput {
	return &aioutputs.AiOutput{
		ID:         aioutputs.OutputID(id),
		AnalysisID: "a-1",
		Type:       aioutputs.TypeHypotheses,
		Status:     status,
		Payload:    json.RawMessage(`[{"text": "pool exhausted", "confidence": 90}]`),
	}
}

//
// ==== tests ====
//

func TestGenerateFinalizesApprovedAnalysis(t *testing.T) {
	svc, repo, artifacts := newFixture(analyses.StatusApproved, []*aioutputs.AiOutput{
		output("o-1", aioutputs.StatusAccepted),
		output("o-2", aioutputs.StatusRejected),
		output("o-3", aioutputs.StatusEdited),
		output("o-4", aioutputs.StatusGenerated),
	})

	rep, err := svc.Generate(context.Background(), "a-1", employee)
	require.NoError(t, err)
	assert.Equal(t, "a-1", rep.AnalysisID)
	assert.Equal(t, "emp-1", rep.GeneratedBy)
	assert.Contains(t, rep.ArtifactURL, "reports/a-1/")

	// The analysis reached its terminal status with the artifact URL on record.
	a, err := repo.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, analyses.StatusReportGenerated, a.Status)
	hist := repo.history["a-1"]
	last := hist[len(hist)-1]
	assert.Equal(t, analyses.StatusReportGenerated, last.Status)
	assert.Equal(t, rep.ArtifactURL, last.Details)

	// Only reviewed outputs made it into the rendered document.
	require.Len(t, artifacts.objects, 1)
	for _, data := range artifacts.objects {
		var doc struct {
			AiOutputs []*aioutputs.AiOutput `json:"ai_outputs"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		require.Len(t, doc.AiOutputs, 2)
		for _, o := range doc.AiOutputs {
			assert.Contains(t, []aioutputs.ReviewStatus{aioutputs.StatusAccepted, aioutputs.StatusEdited}, o.Status)
		}
	}
}

func TestGenerateManagerAllowed(t *testing.T) {
	svc, _, _ := newFixture(analyses.StatusApproved, nil)
	_, err := svc.Generate(context.Background(), "a-1", manager)
	assert.NoError(t, err)
}

func TestGenerateRequiresApproved(t *testing.T) {
	for _, status := range []analyses.Status{
		analyses.StatusDraft,
		analyses.StatusSubmitted,
		analyses.StatusNeedsChanges,
		analyses.StatusReportGenerated,
	} {
		svc, _, artifacts := newFixture(status, nil)
		_, err := svc.Generate(context.Background(), "a-1", employee)
		assert.ErrorIs(t, err, analyses.ErrInvalidState, string(status))
		assert.Empty(t, artifacts.objects, string(status))
	}
}

func TestGenerateDeniedForStranger(t *testing.T) {
	svc, repo, _ := newFixture(analyses.StatusApproved, nil)
	_, err := svc.Generate(context.Background(), "a-1", stranger)
	assert.ErrorIs(t, err, analyses.ErrDenied)

	a, _ := repo.Get(context.Background(), "a-1")
	assert.Equal(t, analyses.StatusApproved, a.Status)
}

func TestGenerateUploadFailureLeavesStatus(t *testing.T) {
	svc, repo, artifacts := newFixture(analyses.StatusApproved, nil)
	artifacts.err = fmt.Errorf("bucket unavailable")

	_, err := svc.Generate(context.Background(), "a-1", employee)
	require.Error(t, err)

	a, _ := repo.Get(context.Background(), "a-1")
	assert.Equal(t, analyses.StatusApproved, a.Status)
}

func TestGenerateNotFound(t *testing.T) {
	svc, _, _ := newFixture(analyses.StatusApproved, nil)
	_, err := svc.Generate(context.Background(), "missing", employee)
	assert.ErrorIs(t, err, analyses.ErrNotFound)
}
