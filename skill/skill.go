// Package skill derives each party's opening proposal for a clause from
// persona BATNA, market guidance, and persona attributes. One strategy per
// clause family, with a total fallback so every catalog clause is always
// proposable.
//
// Skills never call the policy engine; clamping happens once, centrally,
// in the solver, which avoids double-clamping drift.
package skill

import (
	"math"

	"github.com/termdesk/termdesk/market"
	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/schema"
)

// Inputs carries everything a skill may consult when shaping a proposal.
// Snippets are opaque citation ids fetched by the orchestrator; skills only
// pass them through.
type Inputs struct {
	Schema   *schema.ClauseSchema
	Guidance market.Benchmark
	Snippets []string
}

// Skill is the two-operation contract every clause strategy implements.
type Skill interface {
	ProposeCompany(p *model.Persona, in Inputs) *model.Proposal
	ProposeInvestor(p *model.Persona, in Inputs) *model.Proposal
}

// anchorSkill is the numeric pattern shared by every specialized skill:
// take the party's BATNA as the anchor, bias it toward the market band
// (company toward p25, investor toward p75), never past the schema's hard
// bounds. Boolean and enum fields carry the BATNA verbatim.
type anchorSkill struct {
	clauseKey string

	// bias is the fraction of the gap between BATNA and the market band
	// that the proposal concedes up front.
	bias float64

	companyRationale  string
	investorRationale string

	// confidence, when non-zero, overrides the solver's default trace
	// confidence for this clause.
	confidence float64
}

func (s *anchorSkill) ProposeCompany(p *model.Persona, in Inputs) *model.Proposal {
	return s.propose(p, in, model.PartyCompany, s.companyRationale)
}

func (s *anchorSkill) ProposeInvestor(p *model.Persona, in Inputs) *model.Proposal {
	return s.propose(p, in, model.PartyInvestor, s.investorRationale)
}

func (s *anchorSkill) propose(p *model.Persona, in Inputs, party model.PartyKind, rationale string) *model.Proposal {
	batna := p.BATNAFor(s.clauseKey)
	value := make(model.ClauseValue, len(in.Schema.Fields))

	for i := range in.Schema.Fields {
		f := &in.Schema.Fields[i]

		switch {
		case f.Numeric():
			band, hasBand := in.Guidance[f.Name]
			anchor, hasAnchor := fieldNumber(batna, f.Name)
			if !hasAnchor {
				if hasBand {
					anchor = band.P50
				} else {
					anchor = f.DefaultNumber()
				}
			}
			target := anchor
			if hasBand {
				if party == model.PartyCompany {
					target = band.P25
				} else {
					target = band.P75
				}
			}
			v := anchor + s.bias*(target-anchor)
			v = math.Min(math.Max(v, f.Min), f.Max)
			if f.Kind == schema.FieldInteger {
				v = math.Round(v)
			}
			value[f.Name] = v

		case f.Kind == schema.FieldBoolean:
			if b, ok := fieldBool(batna, f.Name); ok {
				value[f.Name] = b
			} else if d, ok := f.Default.(bool); ok {
				value[f.Name] = d
			} else {
				value[f.Name] = false
			}

		case f.Kind == schema.FieldEnum:
			if e, ok := fieldString(batna, f.Name); ok && f.AllowedIndex(e) >= 0 {
				value[f.Name] = e
			} else {
				value[f.Name] = f.DefaultEnum()
			}
		}
	}

	return &model.Proposal{
		ClauseKey:  s.clauseKey,
		Party:      party,
		Value:      value,
		SnippetIDs: in.Snippets,
		Rationale:  rationale,
		Confidence: s.confidence,
	}
}

func fieldNumber(v model.ClauseValue, name string) (float64, bool) {
	if v == nil {
		return 0, false
	}
	raw, ok := v[name]
	if !ok {
		return 0, false
	}
	return model.NumberValue(raw)
}

func fieldBool(v model.ClauseValue, name string) (bool, bool) {
	if v == nil {
		return false, false
	}
	raw, ok := v[name]
	if !ok {
		return false, false
	}
	return model.BoolValue(raw)
}

func fieldString(v model.ClauseValue, name string) (string, bool) {
	if v == nil {
		return "", false
	}
	raw, ok := v[name]
	if !ok {
		return "", false
	}
	return model.StringValue(raw)
}
