package solver

import (
	"testing"

	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/policy"
	"github.com/termdesk/termdesk/schema"
)

func testSolver(cfg Config) *Solver {
	r := schema.NewRegistry(schema.DefaultCatalog())
	return New(r, policy.NewEngine(r), cfg)
}

func personas(companyLeverage, investorLeverage float64) (*model.Persona, *model.Persona) {
	return &model.Persona{Kind: model.PartyCompany, LeverageScore: companyLeverage},
		&model.Persona{Kind: model.PartyInvestor, LeverageScore: investorLeverage}
}

func proposal(key string, party model.PartyKind, value model.ClauseValue) *model.Proposal {
	return &model.Proposal{ClauseKey: key, Party: party, Value: value}
}

func TestNormalizeLeverage(t *testing.T) {
	tests := []struct {
		name              string
		company, investor float64
		wantC, wantI      float64
	}{
		{"even", 0.5, 0.5, 0.5, 0.5},
		{"skewed", 0.4, 0.6, 0.4, 0.6},
		{"unnormalized inputs", 0.2, 0.6, 0.25, 0.75},
		{"both zero falls back to even", 0, 0, 0.5, 0.5},
		{"one zero", 0, 0.8, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc, wi := NormalizeLeverage(tt.company, tt.investor)
			if wc != tt.wantC || wi != tt.wantI {
				t.Errorf("NormalizeLeverage(%v, %v) = (%v, %v), want (%v, %v)",
					tt.company, tt.investor, wc, wi, tt.wantC, tt.wantI)
			}
			if wc+wi != 1 {
				t.Errorf("Weights must sum to exactly 1, got %v", wc+wi)
			}
		})
	}
}

func TestSolveNumericCompromise(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	res := s.Solve(nil,
		map[string]*model.Proposal{
			"exclusivity": proposal("exclusivity", model.PartyCompany, model.ClauseValue{"period_days": 30.0}),
		},
		map[string]*model.Proposal{
			"exclusivity": proposal("exclusivity", model.PartyInvestor, model.ClauseValue{"period_days": 60.0}),
		},
		company, investor)

	// 0.4*30 + 0.6*60 = 48
	if got := res.FinalTerms["exclusivity"]["period_days"]; got != 48.0 {
		t.Errorf("Expected compromise 48, got %v", got)
	}
	if len(res.Traces) != 1 {
		t.Fatalf("Expected one trace, got %d", len(res.Traces))
	}
	if len(res.Traces[0].Violations) != 0 {
		t.Errorf("Expected no clamp violation, got %v", res.Traces[0].Violations)
	}
}

func TestSolveMultiFieldRounding(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	res := s.Solve(nil,
		map[string]*model.Proposal{
			"vesting": proposal("vesting", model.PartyCompany, model.ClauseValue{"vesting_months": 36.0, "cliff_months": 0.0}),
		},
		map[string]*model.Proposal{
			"vesting": proposal("vesting", model.PartyInvestor, model.ClauseValue{"vesting_months": 48.0, "cliff_months": 12.0}),
		},
		company, investor)

	final := res.FinalTerms["vesting"]
	// round(0.4*36 + 0.6*48) = round(43.2) = 43
	if final["vesting_months"] != 43.0 {
		t.Errorf("Expected vesting_months 43, got %v", final["vesting_months"])
	}
	// round(0.4*0 + 0.6*12) = round(7.2) = 7
	if final["cliff_months"] != 7.0 {
		t.Errorf("Expected cliff_months 7, got %v", final["cliff_months"])
	}
}

func TestSolveBooleanHigherLeverageWins(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	res := s.Solve(nil,
		map[string]*model.Proposal{
			"preemption_rights": proposal("preemption_rights", model.PartyCompany, model.ClauseValue{"expiry_next_round_only": true}),
		},
		map[string]*model.Proposal{
			"preemption_rights": proposal("preemption_rights", model.PartyInvestor, model.ClauseValue{"expiry_next_round_only": false}),
		},
		company, investor)

	if got := res.FinalTerms["preemption_rights"]["expiry_next_round_only"]; got != false {
		t.Errorf("Expected higher-leverage investor's value false, got %v", got)
	}
}

func TestSolveBooleanTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		tieBreak string
		want     any
	}{
		{"default favors investor", "", false},
		{"explicit investor", TieBreakInvestor, false},
		{"company", TieBreakCompany, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSolver(Config{TieBreak: tt.tieBreak})
			company, investor := personas(0.5, 0.5)

			res := s.Solve(nil,
				map[string]*model.Proposal{
					"preemption_rights": proposal("preemption_rights", model.PartyCompany, model.ClauseValue{"expiry_next_round_only": true}),
				},
				map[string]*model.Proposal{
					"preemption_rights": proposal("preemption_rights", model.PartyInvestor, model.ClauseValue{"expiry_next_round_only": false}),
				},
				company, investor)

			if got := res.FinalTerms["preemption_rights"]["expiry_next_round_only"]; got != tt.want {
				t.Errorf("Expected tie-break value %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSolvePinPrecedence(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	pinned := map[string]model.ClauseValue{
		"exclusivity": {"period_days": 21.0},
	}

	res := s.Solve(pinned,
		map[string]*model.Proposal{
			"exclusivity": proposal("exclusivity", model.PartyCompany, model.ClauseValue{"period_days": 30.0}),
		},
		map[string]*model.Proposal{
			"exclusivity": proposal("exclusivity", model.PartyInvestor, model.ClauseValue{"period_days": 60.0}),
		},
		company, investor)

	if got := res.FinalTerms["exclusivity"]["period_days"]; got != 21.0 {
		t.Errorf("Pinned value must win regardless of proposals, got %v", got)
	}
	if res.Traces[0].Source != model.TraceSourcePinned {
		t.Errorf("Expected trace source pinned, got %q", res.Traces[0].Source)
	}
}

func TestSolveUnknownClauseExcluded(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	res := s.Solve(nil,
		map[string]*model.Proposal{
			"exclusivity":  proposal("exclusivity", model.PartyCompany, model.ClauseValue{"period_days": 30.0}),
			"mystery_term": proposal("mystery_term", model.PartyCompany, model.ClauseValue{"x": 1.0}),
		},
		map[string]*model.Proposal{
			"exclusivity":  proposal("exclusivity", model.PartyInvestor, model.ClauseValue{"period_days": 60.0}),
			"mystery_term": proposal("mystery_term", model.PartyInvestor, model.ClauseValue{"x": 2.0}),
		},
		company, investor)

	if _, ok := res.FinalTerms["mystery_term"]; ok {
		t.Error("Unknown clause must be excluded from final terms")
	}
	for _, tr := range res.Traces {
		if tr.ClauseKey == "mystery_term" {
			t.Error("Unknown clause must not produce a trace")
		}
	}
	if len(res.ValidationErrors) != 1 {
		t.Errorf("Expected one validation error, got %v", res.ValidationErrors)
	}
	// The known clause still solved.
	if res.FinalTerms["exclusivity"]["period_days"] != 48.0 {
		t.Errorf("Known clause should still solve to 48, got %v", res.FinalTerms["exclusivity"]["period_days"])
	}
}

func TestSolveClampsThroughPolicy(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.9, 0.1)

	// A heavily company-weighted compromise below the non-negotiable 1x
	// floor gets clamped with a recorded violation.
	res := s.Solve(nil,
		map[string]*model.Proposal{
			"liquidation_preference": proposal("liquidation_preference", model.PartyCompany,
				model.ClauseValue{"multiple": 0.2, "participation": "non_participating"}),
		},
		map[string]*model.Proposal{
			"liquidation_preference": proposal("liquidation_preference", model.PartyInvestor,
				model.ClauseValue{"multiple": 1.0, "participation": "non_participating"}),
		},
		company, investor)

	final := res.FinalTerms["liquidation_preference"]
	if final["multiple"] != 1.0 {
		t.Errorf("Expected clamp to the 1x floor, got %v", final["multiple"])
	}
	if len(res.Traces[0].Violations) == 0 {
		t.Error("Expected a violation recorded in the trace")
	}
	if !res.Traces[0].PolicyBreach {
		t.Error("Non-negotiable clamp should mark the trace as a policy breach")
	}
}

func TestSolveSoftViolationIsNotABreach(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	// An unrecognized enum value is replaced with the schema default and
	// recorded, but it never counts as a breach.
	res := s.Solve(nil,
		map[string]*model.Proposal{
			"information_rights": proposal("information_rights", model.PartyCompany,
				model.ClauseValue{"frequency": "annual"}),
		},
		map[string]*model.Proposal{
			"information_rights": proposal("information_rights", model.PartyInvestor,
				model.ClauseValue{"frequency": "biweekly"}),
		},
		company, investor)

	final := res.FinalTerms["information_rights"]
	if final["frequency"] != "quarterly" {
		t.Errorf("Expected the schema default to replace the bad enum, got %v", final["frequency"])
	}
	if len(res.Traces[0].Violations) != 1 {
		t.Fatalf("Expected one recorded violation, got %v", res.Traces[0].Violations)
	}
	if res.Traces[0].PolicyBreach {
		t.Error("Enum replacement must not mark the trace as a policy breach")
	}
}

func TestSolveOneSidedProposal(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	res := s.Solve(nil,
		map[string]*model.Proposal{
			"exclusivity": proposal("exclusivity", model.PartyCompany, model.ClauseValue{"period_days": 30.0}),
		},
		map[string]*model.Proposal{},
		company, investor)

	if got := res.FinalTerms["exclusivity"]["period_days"]; got != 30.0 {
		t.Errorf("Missing counterparty should yield the present side's value, got %v", got)
	}
	if res.Traces[0].InvestorValue != nil {
		t.Error("Expected nil investor value in the trace")
	}
}

func TestSolveConfidence(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	cp := proposal("exclusivity", model.PartyCompany, model.ClauseValue{"period_days": 30.0})
	ip := proposal("exclusivity", model.PartyInvestor, model.ClauseValue{"period_days": 60.0})

	res := s.Solve(nil, map[string]*model.Proposal{"exclusivity": cp},
		map[string]*model.Proposal{"exclusivity": ip}, company, investor)
	if res.Traces[0].Confidence != DefaultConfidence {
		t.Errorf("Expected default confidence %v, got %v", DefaultConfidence, res.Traces[0].Confidence)
	}

	// A skill-supplied confidence overrides the default in either
	// direction.
	cp.Confidence = 0.95
	res = s.Solve(nil, map[string]*model.Proposal{"exclusivity": cp},
		map[string]*model.Proposal{"exclusivity": ip}, company, investor)
	if res.Traces[0].Confidence != 0.95 {
		t.Errorf("Expected overridden confidence 0.95, got %v", res.Traces[0].Confidence)
	}

	cp.Confidence = 0.6
	res = s.Solve(nil, map[string]*model.Proposal{"exclusivity": cp},
		map[string]*model.Proposal{"exclusivity": ip}, company, investor)
	if res.Traces[0].Confidence != 0.6 {
		t.Errorf("Expected confidence lowered to 0.6, got %v", res.Traces[0].Confidence)
	}
}

func TestSolveMergesSnippetsAndRationales(t *testing.T) {
	s := testSolver(Config{})
	company, investor := personas(0.4, 0.6)

	cp := proposal("exclusivity", model.PartyCompany, model.ClauseValue{"period_days": 30.0})
	cp.SnippetIDs = []string{"snp-1", "snp-2"}
	cp.Rationale = "short no-shop"
	ip := proposal("exclusivity", model.PartyInvestor, model.ClauseValue{"period_days": 60.0})
	ip.SnippetIDs = []string{"snp-2", "snp-3"}
	ip.Rationale = "protect diligence"

	res := s.Solve(nil, map[string]*model.Proposal{"exclusivity": cp},
		map[string]*model.Proposal{"exclusivity": ip}, company, investor)

	tr := res.Traces[0]
	if len(tr.SnippetIDs) != 3 {
		t.Errorf("Expected deduplicated union of 3 snippets, got %v", tr.SnippetIDs)
	}
	if tr.Rationale != "company: short no-shop; investor: protect diligence" {
		t.Errorf("Unexpected merged rationale %q", tr.Rationale)
	}
}
