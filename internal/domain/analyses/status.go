package analyses

// Status enum
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusSubmitted       Status = "SUBMITTED"
	StatusNeedsChanges    Status = "NEEDS_CHANGES"
	StatusApproved        Status = "APPROVED"
	StatusReportGenerated Status = "REPORT_GENERATED"
)

// transitions is the full adjacency table of the workflow state machine.
// DRAFT -> DRAFT covers content self-edits. REPORT_GENERATED has no outgoing edges.
var transitions = map[Status][]Status{
	StatusDraft:           {StatusDraft, StatusSubmitted},
	StatusSubmitted:       {StatusNeedsChanges, StatusApproved},
	StatusNeedsChanges:    {StatusSubmitted, StatusDraft},
	StatusApproved:        {StatusReportGenerated},
	StatusReportGenerated: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the edge s -> to exists in the state machine.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing edges.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Editable reports whether content updates are allowed in s.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusNeedsChanges
}
