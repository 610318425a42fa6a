package model

// PartyKind identifies which side of the table a persona sits on
type PartyKind string

const (
	PartyCompany  PartyKind = "company"
	PartyInvestor PartyKind = "investor"
)

// ClauseValue holds the field values of one clause, shaped per its schema,
// e.g. {"period_days": 30}
type ClauseValue map[string]any

// Persona is one party's negotiating profile: what they care about, what
// their fallback position is, and how much bargaining power they carry.
type Persona struct {
	Kind PartyKind `json:"kind" yaml:"kind"`

	// Attrs are caller-owned domain facts (revenue, fund size, competing
	// offers, ...). Immutable once a round starts.
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`

	// LeverageScore is relative bargaining power in [0,1]. The solver
	// normalizes the two scores pairwise, so they need not sum to 1.
	LeverageScore float64 `json:"leverage_score" yaml:"leverage_score"`

	// Weights map clause key to how much this party cares, in [0,1].
	// Missing entries default to a neutral weight.
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`

	// BATNA maps clause key to this party's ideal value for the clause.
	// It is the zero-distance reference for utility, not a hard demand.
	BATNA map[string]ClauseValue `json:"batna,omitempty" yaml:"batna,omitempty"`
}

// Normalize clamps leverage and weights into [0,1] in place. Out-of-range
// values from a malformed caller are clamped, not rejected, so they can
// never abort a round.
func (p *Persona) Normalize() {
	p.LeverageScore = clamp01(p.LeverageScore)
	for k, w := range p.Weights {
		p.Weights[k] = clamp01(w)
	}
}

// WeightOr returns the party's weight for a clause, or def when the party
// has not stated one.
func (p *Persona) WeightOr(clauseKey string, def float64) float64 {
	if w, ok := p.Weights[clauseKey]; ok {
		return w
	}
	return def
}

// BATNAFor returns the party's ideal value for a clause, or nil when the
// party has no stated position.
func (p *Persona) BATNAFor(clauseKey string) ClauseValue {
	return p.BATNA[clauseKey]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
