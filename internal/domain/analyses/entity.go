package analyses

import (
	"time"
)

// ID tipe untuk Analysis
type AnalysisID string

// AnalysisType enum
type AnalysisType string

const (
	TypeLatency  AnalysisType = "LATENCY"
	TypeSecurity AnalysisType = "SECURITY"
	TypeOutage   AnalysisType = "OUTAGE"
	TypeCapacity AnalysisType = "CAPACITY"
)

// ValidType reports whether t is one of the known analysis types.
func ValidType(t AnalysisType) bool {
	switch t {
	case TypeLatency, TypeSecurity, TypeOutage, TypeCapacity:
		return true
	}
	return false
}

// Hypothesis value object
type Hypothesis struct {
	Text       string   `json:"text"`
	Confidence int      `json:"confidence"` // 0-100
	Evidence   []string `json:"evidence,omitempty"`
}

// Aggregate Root: Analysis
type Analysis struct {
	ID              AnalysisID     `json:"id"`
	TaskID          string         `json:"task_id"`
	EmployeeID      string         `json:"employee_id"`
	TeamID          string         `json:"team_id,omitempty"`
	Status          Status         `json:"status"`
	Type            AnalysisType   `json:"analysis_type"`
	Symptoms        []string       `json:"symptoms,omitempty"`
	Signals         []string       `json:"signals,omitempty"`
	Hypotheses      []Hypothesis   `json:"hypotheses,omitempty"`
	Environment     map[string]any `json:"environment_context,omitempty"`
	Timeline        map[string]any `json:"timeline_events,omitempty"`
	Dependencies    map[string]any `json:"dependency_impact,omitempty"`
	Risk            map[string]any `json:"risk_classification,omitempty"`
	ReadinessScore  int            `json:"readiness_score"`
	ManagerFeedback string         `json:"manager_feedback,omitempty"`
	RevisionCount   int            `json:"revision_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Revision is an immutable content snapshot, one per successful content update.
// Numbering starts at 1 and is scoped to one analysis.
type Revision struct {
	AnalysisID     AnalysisID   `json:"analysis_id"`
	Number         int          `json:"revision_number"`
	Symptoms       []string     `json:"symptoms,omitempty"`
	Signals        []string     `json:"signals,omitempty"`
	Hypotheses     []Hypothesis `json:"hypotheses,omitempty"`
	ReadinessScore int          `json:"readiness_score"`
	AuthorID       string       `json:"author_id"`
	CreatedAt      time.Time    `json:"created_at"`
}

// StatusHistoryEntry records one status transition, append-only.
type StatusHistoryEntry struct {
	ID         string     `json:"id"`
	AnalysisID AnalysisID `json:"analysis_id"`
	Status     Status     `json:"status"`
	ChangedBy  string     `json:"changed_by"`
	ChangedAt  time.Time  `json:"changed_at"`
	Details    string     `json:"details,omitempty"`
}
