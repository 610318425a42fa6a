// Package solver combines the two sides' clause proposals into one
// compromise term set using leverage-weighted arithmetic, tie-break rules
// for discrete fields, and respect for pinned values. The solver is
// utility-blind: it never inspects outcome scores, so utilities stay
// purely descriptive.
package solver

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/policy"
	"github.com/termdesk/termdesk/schema"
)

// DefaultConfidence is the trace confidence used when no skill overrides
// it. A fixed placeholder for a future calibrated confidence model, not a
// computed statistic.
const DefaultConfidence = 0.85

// Tie-break directions for boolean and enum fields when both parties hold
// equal leverage. Which way ties break is a product decision, so it is
// configuration rather than a hard-coded rule.
const (
	TieBreakInvestor = "investor"
	TieBreakCompany  = "company"
)

// Config tunes solver behavior.
type Config struct {
	// TieBreak names the party whose value wins boolean/enum fields on an
	// exact leverage tie. Defaults to investor, mirroring the
	// conservative-leaning default of policy-sensitive domains.
	TieBreak string

	// Confidence overrides DefaultConfidence when non-zero.
	Confidence float64
}

// Result is the outcome of solving one round's proposals.
type Result struct {
	FinalTerms map[string]model.ClauseValue
	Traces     []model.Trace

	// ValidationErrors records clauses that could not be solved (no schema
	// entry). Such clauses are excluded from FinalTerms and Traces; they
	// never abort the round.
	ValidationErrors []string
}

// Solver turns paired proposals into final terms.
type Solver struct {
	registry *schema.Registry
	policy   *policy.Engine
	cfg      Config
}

// New builds a solver over the given catalog and policy engine.
func New(registry *schema.Registry, pol *policy.Engine, cfg Config) *Solver {
	if cfg.TieBreak == "" {
		cfg.TieBreak = TieBreakInvestor
	}
	if cfg.Confidence == 0 {
		cfg.Confidence = DefaultConfidence
	}
	return &Solver{registry: registry, policy: pol, cfg: cfg}
}

// Solve computes the compromise value for every clause present in either
// proposal set. Pinned values bypass computation entirely. Clause order in
// the trace list is deterministic (sorted by key).
func (s *Solver) Solve(
	pinned map[string]model.ClauseValue,
	companyProps, investorProps map[string]*model.Proposal,
	company, investor *model.Persona,
) Result {
	res := Result{FinalTerms: make(map[string]model.ClauseValue)}

	wCompany, wInvestor := NormalizeLeverage(company.LeverageScore, investor.LeverageScore)

	for _, key := range clauseKeys(companyProps, investorProps) {
		cs, ok := s.registry.Get(key)
		if !ok {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("clause %q has no schema entry; excluded from final terms", key))
			continue
		}

		cp := companyProps[key]
		ip := investorProps[key]

		if pv, isPinned := pinned[key]; isPinned {
			res.FinalTerms[key] = pv.Clone()
			res.Traces = append(res.Traces, model.Trace{
				ClauseKey:     key,
				CompanyValue:  proposalValue(cp),
				InvestorValue: proposalValue(ip),
				FinalValue:    pv.Clone(),
				Source:        model.TraceSourcePinned,
				Rationale:     "value pinned; solving bypassed",
				SnippetIDs:    mergeSnippets(cp, ip),
				Confidence:    s.confidence(cp, ip),
			})
			continue
		}

		final := s.compromise(cs, cp, ip, wCompany, wInvestor)
		clamped, violations := s.policy.ValidateAndClamp(key, final)
		res.FinalTerms[key] = clamped

		res.Traces = append(res.Traces, model.Trace{
			ClauseKey:     key,
			CompanyValue:  proposalValue(cp),
			InvestorValue: proposalValue(ip),
			FinalValue:    clamped,
			Source:        model.TraceSourceSolver,
			Rationale:     mergeRationales(cp, ip),
			SnippetIDs:    mergeSnippets(cp, ip),
			Confidence:    s.confidence(cp, ip),
			Violations:    policy.Messages(violations),
			PolicyBreach:  policy.HasHard(violations),
		})
	}

	return res
}

// NormalizeLeverage converts the two raw leverage scores into weights that
// sum to exactly 1. Both zero falls back to an even split.
func NormalizeLeverage(company, investor float64) (float64, float64) {
	total := company + investor
	if total == 0 {
		return 0.5, 0.5
	}
	w := company / total
	return w, 1 - w
}

// compromise computes the leverage-weighted value field by field. A field
// one side did not propose takes the other side's value; a field neither
// side proposed takes the schema default.
func (s *Solver) compromise(cs *schema.ClauseSchema, cp, ip *model.Proposal, wCompany, wInvestor float64) model.ClauseValue {
	out := make(model.ClauseValue, len(cs.Fields))

	for i := range cs.Fields {
		f := &cs.Fields[i]
		cv, hasC := proposalField(cp, f.Name)
		iv, hasI := proposalField(ip, f.Name)

		switch {
		case f.Numeric():
			cn, cok := numberOr(cv, hasC)
			in, iok := numberOr(iv, hasI)
			var v float64
			switch {
			case cok && iok:
				v = wCompany*cn + wInvestor*in
			case cok:
				v = cn
			case iok:
				v = in
			default:
				v = f.DefaultNumber()
			}
			if f.Kind == schema.FieldInteger {
				v = math.Round(v)
			}
			out[f.Name] = v

		default:
			// Boolean and enum fields go to the higher-leverage party;
			// exact ties break toward the configured side.
			switch {
			case hasC && hasI:
				if s.companyWins(wCompany, wInvestor) {
					out[f.Name] = cv
				} else {
					out[f.Name] = iv
				}
			case hasC:
				out[f.Name] = cv
			case hasI:
				out[f.Name] = iv
			default:
				out[f.Name] = f.Default
			}
		}
	}

	return out
}

func (s *Solver) companyWins(wCompany, wInvestor float64) bool {
	if wCompany == wInvestor {
		return s.cfg.TieBreak == TieBreakCompany
	}
	return wCompany > wInvestor
}

// confidence takes the highest skill-declared confidence, in either
// direction from the default; the configured default applies only when
// neither proposal declares one.
func (s *Solver) confidence(cp, ip *model.Proposal) float64 {
	declared := 0.0
	if cp != nil && cp.Confidence > declared {
		declared = cp.Confidence
	}
	if ip != nil && ip.Confidence > declared {
		declared = ip.Confidence
	}
	if declared > 0 {
		return declared
	}
	return s.cfg.Confidence
}

func clauseKeys(companyProps, investorProps map[string]*model.Proposal) []string {
	seen := make(map[string]struct{}, len(companyProps)+len(investorProps))
	var keys []string
	for k := range companyProps {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range investorProps {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func proposalValue(p *model.Proposal) model.ClauseValue {
	if p == nil {
		return nil
	}
	return p.Value
}

func proposalField(p *model.Proposal, name string) (any, bool) {
	if p == nil || p.Value == nil {
		return nil, false
	}
	v, ok := p.Value[name]
	return v, ok
}

func numberOr(v any, present bool) (float64, bool) {
	if !present {
		return 0, false
	}
	return model.NumberValue(v)
}

func mergeSnippets(cp, ip *model.Proposal) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range []*model.Proposal{cp, ip} {
		if p == nil {
			continue
		}
		for _, id := range p.SnippetIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func mergeRationales(cp, ip *model.Proposal) string {
	var parts []string
	if cp != nil && cp.Rationale != "" {
		parts = append(parts, "company: "+cp.Rationale)
	}
	if ip != nil && ip.Rationale != "" {
		parts = append(parts, "investor: "+ip.Rationale)
	}
	return strings.Join(parts, "; ")
}
