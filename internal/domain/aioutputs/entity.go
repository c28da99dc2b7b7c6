package aioutputs

import (
	"encoding/json"
	"time"
)

// OutputID identifier type
type OutputID string

// OutputType enum
type OutputType string

const (
	TypeHypotheses  OutputType = "HYPOTHESES"
	TypeReportDraft OutputType = "REPORT_DRAFT"
)

// ReviewStatus enum. An output's review lifecycle is independent of the
// owning analysis status.
type ReviewStatus string

const (
	StatusGenerated ReviewStatus = "GENERATED"
	StatusAccepted  ReviewStatus = "ACCEPTED"
	StatusRejected  ReviewStatus = "REJECTED"
	StatusEdited    ReviewStatus = "EDITED"
)

// ValidReviewStatus reports whether s is a known review status.
func ValidReviewStatus(s ReviewStatus) bool {
	switch s {
	case StatusGenerated, StatusAccepted, StatusRejected, StatusEdited:
		return true
	}
	return false
}

// AiOutput represents a generated artifact stored for human review.
type AiOutput struct {
	ID          OutputID        `json:"id"`
	AnalysisID  string          `json:"analysis_id"`
	Type        OutputType      `json:"output_type"`
	GeneratedBy string          `json:"generated_by"`
	Status      ReviewStatus    `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}
