package model

import "time"

// TermSource constants record where a session term's value came from
const (
	TermSourceRule    = "rule"
	TermSourcePersona = "persona"
	TermSourceCopilot = "copilot"
)

// SessionTerm is the durable record of one clause's accepted value across
// rounds. A pinned term is fixed input for the solver: it bypasses
// computation for that clause until unpinned.
type SessionTerm struct {
	ClauseKey  string      `json:"clause_key"`
	Value      ClauseValue `json:"value"`
	Source     string      `json:"source"` // rule, persona, copilot
	Confidence float64     `json:"confidence"`
	PinnedBy   string      `json:"pinned_by,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Pinned reports whether the term is locked against re-solving.
func (t *SessionTerm) Pinned() bool {
	return t != nil && t.PinnedBy != ""
}
