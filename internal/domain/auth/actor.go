package auth

// Role enum
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleOwner    Role = "OWNER"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleEmployee || r == RoleManager || r == RoleOwner
}

// Actor is the already-authenticated identity every operation receives.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Operation enum, one per engine entry point.
type Operation string

const (
	OpCreateAnalysis       Operation = "analysis.create"
	OpCreateAssigned       Operation = "analysis.create_assigned"
	OpUpdateContent        Operation = "analysis.update_content"
	OpSubmit               Operation = "analysis.submit"
	OpReview               Operation = "analysis.review"
	OpRead                 Operation = "analysis.read"
	OpGenerateHypotheses   Operation = "ai.generate_hypotheses"
	OpGenerateReportDraft  Operation = "ai.generate_report_draft"
	OpReviewAiOutput       Operation = "ai.review_output"
	OpGenerateReport       Operation = "report.generate"
)

// rolePolicy is the single static role -> allowed-operations table.
// OWNER is deliberately absent: company owners get no raw-analysis access.
var rolePolicy = map[Role]map[Operation]bool{
	RoleEmployee: {
		OpCreateAnalysis:      true,
		OpUpdateContent:       true,
		OpSubmit:              true,
		OpRead:                true,
		OpGenerateHypotheses:  true,
		OpGenerateReportDraft: true,
		OpReviewAiOutput:      true,
		OpGenerateReport:      true,
	},
	RoleManager: {
		OpCreateAssigned:      true,
		OpReview:              true,
		OpRead:                true,
		OpGenerateHypotheses:  true,
		OpGenerateReportDraft: true,
		OpReviewAiOutput:      true,
		OpGenerateReport:      true,
	},
}

// RoleAllows consults the static policy table.
func RoleAllows(r Role, op Operation) bool {
	return rolePolicy[r][op]
}
