package skill

import (
	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/schema"
)

// GenericRationale is the rationale attached by the fallback skill.
const GenericRationale = "proposed at stated BATNA (no specialized strategy for this clause)"

// genericSkill proposes the party's BATNA verbatim with no citations. It
// guarantees every clause in the catalog is proposable even before a
// specialized skill exists.
type genericSkill struct{}

func (genericSkill) ProposeCompany(p *model.Persona, in Inputs) *model.Proposal {
	return genericPropose(p, in, model.PartyCompany)
}

func (genericSkill) ProposeInvestor(p *model.Persona, in Inputs) *model.Proposal {
	return genericPropose(p, in, model.PartyInvestor)
}

func genericPropose(p *model.Persona, in Inputs, party model.PartyKind) *model.Proposal {
	batna := p.BATNAFor(in.Schema.Key)
	value := make(model.ClauseValue, len(in.Schema.Fields))

	for i := range in.Schema.Fields {
		f := &in.Schema.Fields[i]
		if batna != nil {
			if raw, ok := batna[f.Name]; ok {
				value[f.Name] = raw
				continue
			}
		}
		switch {
		case f.Numeric():
			value[f.Name] = f.DefaultNumber()
		case f.Kind == schema.FieldBoolean:
			if d, ok := f.Default.(bool); ok {
				value[f.Name] = d
			} else {
				value[f.Name] = false
			}
		case f.Kind == schema.FieldEnum:
			value[f.Name] = f.DefaultEnum()
		}
	}

	return &model.Proposal{
		ClauseKey: in.Schema.Key,
		Party:     party,
		Value:     value,
		Rationale: GenericRationale,
	}
}

// Registry maps clause keys to their proposal strategies. Lookup is total:
// an unknown-but-schema-valid key gets the generic fallback.
type Registry struct {
	skills   map[string]Skill
	fallback Skill
}

// NewRegistry builds the registry with every builtin strategy installed.
func NewRegistry() *Registry {
	r := &Registry{
		skills:   make(map[string]Skill),
		fallback: genericSkill{},
	}

	register := func(s *anchorSkill) { r.skills[s.clauseKey] = s }

	register(&anchorSkill{
		clauseKey:         "exclusivity",
		bias:              0.25,
		companyRationale:  "short no-shop keeps the company free to run a competitive process",
		investorRationale: "longer exclusivity protects diligence spend",
	})
	register(&anchorSkill{
		clauseKey:         "vesting",
		bias:              0.2,
		companyRationale:  "founders have earned credit for time already served",
		investorRationale: "standard four-year vesting with a one-year cliff aligns incentives",
	})
	register(&anchorSkill{
		clauseKey:         "valuation_cap",
		bias:              0.3,
		companyRationale:  "cap should reflect current traction and round competition",
		investorRationale: "cap anchored to comparable deals at this stage",
	})
	register(&anchorSkill{
		clauseKey:         "discount_rate",
		bias:              0.3,
		companyRationale:  "modest discount preserves the priced-round cap table",
		investorRationale: "discount compensates early risk ahead of the priced round",
	})
	register(&anchorSkill{
		clauseKey:         "liquidation_preference",
		bias:              0.15,
		companyRationale:  "1x non-participating is the market-clearing structure",
		investorRationale: "downside protection must at least return capital",
		confidence:        0.9,
	})
	register(&anchorSkill{
		clauseKey:         "option_pool",
		bias:              0.25,
		companyRationale:  "pool sized to the actual hiring plan, not a blanket top-up",
		investorRationale: "pool created pre-money to cover the next 18 months of hires",
	})
	register(&anchorSkill{
		clauseKey:         "board_seats",
		bias:              0.2,
		companyRationale:  "founder-controlled board at this stage",
		investorRationale: "a board seat is standard for a lead at this check size",
	})
	register(&anchorSkill{
		clauseKey:         "pro_rata_rights",
		bias:              0,
		companyRationale:  "pro rata limited to major investors",
		investorRationale: "pro rata preserves ownership through later rounds",
	})
	register(&anchorSkill{
		clauseKey:         "preemption_rights",
		bias:              0,
		companyRationale:  "preemption should sunset after the next financing",
		investorRationale: "ongoing preemption is standard protective coverage",
	})
	register(&anchorSkill{
		clauseKey:         "information_rights",
		bias:              0,
		companyRationale:  "quarterly reporting balances transparency and overhead",
		investorRationale: "regular reporting is required for fund-level compliance",
	})
	register(&anchorSkill{
		clauseKey:         "founder_lockup",
		bias:              0.2,
		companyRationale:  "lock-up should not outlast the vesting cliff",
		investorRationale: "lock-up keeps founders committed through the next milestone",
	})
	// transfer intentionally unregistered: served by the generic fallback.

	return r
}

// Lookup returns the strategy for a clause, falling back to the generic
// BATNA-verbatim skill. Never fails.
func (r *Registry) Lookup(clauseKey string) Skill {
	if s, ok := r.skills[clauseKey]; ok {
		return s
	}
	return r.fallback
}

// Specialized reports whether a clause has a non-fallback strategy.
func (r *Registry) Specialized(clauseKey string) bool {
	_, ok := r.skills[clauseKey]
	return ok
}
