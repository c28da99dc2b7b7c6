package reports

import "time"

// Report is the finalized artifact produced from an approved analysis.
type Report struct {
	AnalysisID  string    `json:"analysis_id"`
	ArtifactURL string    `json:"artifact_url"`
	GeneratedBy string    `json:"generated_by"`
	GeneratedAt time.Time `json:"generated_at"`
}
