package model

import (
	"time"
)

// Proposal is one party's opening position on one clause, produced by a
// proposal skill. Ephemeral: it lives only inside the round that spawned it.
type Proposal struct {
	ClauseKey  string      `json:"clause_key"`
	Party      PartyKind   `json:"party"`
	Value      ClauseValue `json:"value"`
	SnippetIDs []string    `json:"snippet_ids,omitempty"`
	Rationale  string      `json:"rationale,omitempty"`

	// Confidence is optional; zero means "use the solver default".
	Confidence float64 `json:"confidence,omitempty"`
}

// TraceSource marks how a clause's final value was decided
const (
	TraceSourceSolver = "solver"
	TraceSourcePinned = "pinned"
)

// Trace is the per-clause audit record of how a final value was reached.
type Trace struct {
	ClauseKey     string      `json:"clause_key"`
	CompanyValue  ClauseValue `json:"company_value,omitempty"`
	InvestorValue ClauseValue `json:"investor_value,omitempty"`
	FinalValue    ClauseValue `json:"final_value"`
	Source        string      `json:"source"`
	Rationale     string      `json:"rationale,omitempty"`
	SnippetIDs    []string    `json:"snippet_ids,omitempty"`
	Confidence    float64     `json:"confidence"`
	Violations    []string    `json:"violations,omitempty"`

	// PolicyBreach is set when a violation crossed a non-negotiable
	// bound; soft violations (enum replacement, dropped fields) leave it
	// false.
	PolicyBreach bool `json:"policy_breach,omitempty"`
}

// Utilities holds each party's aggregate outcome score in [0,100].
type Utilities struct {
	Company  float64 `json:"company"`
	Investor float64 `json:"investor"`
}

// Grades summarize how defensible a round's outcome is.
type Grades struct {
	// PolicyOK is false when any clause crossed a hard bound this round.
	PolicyOK bool `json:"policy_ok"`

	// Grounding is the fraction of traces backed by at least one snippet.
	Grounding float64 `json:"grounding"`

	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// NegotiationRound is the unit of work and the unit of persistence. It is
// fully populated in one synchronous pass and never mutated afterward;
// re-running a round produces a fresh record.
type NegotiationRound struct {
	RoundNo           int                    `json:"round_no"`
	CompanyProposals  map[string]*Proposal   `json:"company_proposals"`
	InvestorProposals map[string]*Proposal   `json:"investor_proposals"`
	FinalTerms        map[string]ClauseValue `json:"final_terms"`
	Utilities         Utilities              `json:"utilities"`
	Traces            []Trace                `json:"traces"`
	Grades            Grades                 `json:"grades"`
	CreatedAt         time.Time              `json:"created_at"`
}
