package service

import (
	"context"
	"fmt"
	"time"

	"github.com/termdesk/termdesk/market"
	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/pkg/logger"
	"github.com/termdesk/termdesk/schema"
	"github.com/termdesk/termdesk/skill"
	"github.com/termdesk/termdesk/solver"
	"github.com/termdesk/termdesk/utility"
)

// NegotiationService drives one negotiation round end-to-end: context load,
// proposal generation, solving, scoring, grading, persistence. One linear
// pass per round, no branching back.
type NegotiationService struct {
	registry  *schema.Registry
	guidance  *market.Guidance
	skills    *skill.Registry
	solver    *solver.Solver
	utility   *utility.Engine
	citations *CitationService
	store     *SessionStore
	archiver  *RoundArchiver // nil when archiving is disabled
}

func NewNegotiationService(
	registry *schema.Registry,
	guidance *market.Guidance,
	skills *skill.Registry,
	sol *solver.Solver,
	util *utility.Engine,
	citations *CitationService,
	store *SessionStore,
	archiver *RoundArchiver,
) *NegotiationService {
	return &NegotiationService{
		registry:  registry,
		guidance:  guidance,
		skills:    skills,
		solver:    sol,
		utility:   util,
		citations: citations,
		store:     store,
		archiver:  archiver,
	}
}

// RunRoundRequest parameterizes one run_round invocation.
type RunRoundRequest struct {
	// RoundNo, when positive, re-solves that round in place instead of
	// opening the next one.
	RoundNo int

	// Overrides fix clause values for this round only. They behave exactly
	// like pins but are not persisted as pinned.
	Overrides map[string]model.ClauseValue
}

// RunRound executes the round state machine for a session. Rounds for the
// same session are serialized; rounds for different sessions run in
// parallel. Engine computation is side-effect-free; the only failures
// originate at the store boundary.
func (s *NegotiationService) RunRound(ctx context.Context, sessionID string, req RunRoundRequest) (*model.NegotiationRound, error) {
	var round *model.NegotiationRound

	err := s.store.RunExclusive(sessionID, func() error {
		snap, err := s.store.LoadContext(sessionID)
		if err != nil {
			return err
		}

		r, upserts := s.computeRound(ctx, snap, req)
		if err := s.store.PersistRound(sessionID, r, upserts); err != nil {
			return fmt.Errorf("failed to persist round: %w", err)
		}
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "round solved",
		"session_id", sessionID,
		"round_no", round.RoundNo,
		"clauses", len(round.FinalTerms),
		"policy_ok", round.Grades.PolicyOK,
		"grounding", round.Grades.Grounding,
		"utility_company", round.Utilities.Company,
		"utility_investor", round.Utilities.Investor,
	)

	if s.archiver != nil {
		sess := s.store.GetSession(sessionID)
		if sess != nil {
			if err := s.archiver.ArchiveRound(ctx, sess.Tenant, sessionID, round); err != nil {
				logger.Warn(ctx, "failed to archive round", "session_id", sessionID,
					"round_no", round.RoundNo, "error", err)
			}
		}
	}

	return round, nil
}

// computeRound is the in-memory pass: proposals, solve, score, grade. It
// performs no I/O and cannot fail; malformed input degrades to defaults
// and validation errors.
func (s *NegotiationService) computeRound(ctx context.Context, snap *Context, req RunRoundRequest) (*model.NegotiationRound, []*model.SessionTerm) {
	company := snap.CompanyPersona
	investor := snap.InvestorPersona
	company.Kind = model.PartyCompany
	investor.Kind = model.PartyInvestor
	company.Normalize()
	investor.Normalize()

	var validationErrors []string

	// Generate both sides' proposals for every applicable clause.
	clauses := snap.Session.Clauses
	if len(clauses) == 0 {
		clauses = s.registry.Keys()
	}

	companyProps := make(map[string]*model.Proposal, len(clauses))
	investorProps := make(map[string]*model.Proposal, len(clauses))
	for _, key := range clauses {
		cs, ok := s.registry.Get(key)
		if !ok {
			validationErrors = append(validationErrors,
				fmt.Sprintf("clause %q has no schema entry; skipped", key))
			continue
		}

		snippets := s.citations.Fetch(ctx, key, []string{"company", "investor"})
		in := skill.Inputs{
			Schema:   cs,
			Guidance: s.guidance.Get(key, snap.Session.Stage, snap.Session.Region),
			Snippets: snippets,
		}
		sk := s.skills.Lookup(key)
		companyProps[key] = sk.ProposeCompany(&company, in)
		investorProps[key] = sk.ProposeInvestor(&investor, in)
	}

	// Pins: persisted pinned terms plus this round's overrides.
	pinned := make(map[string]model.ClauseValue, len(snap.PinnedTerms)+len(req.Overrides))
	for k, v := range snap.PinnedTerms {
		pinned[k] = v
	}
	for k, v := range req.Overrides {
		pinned[k] = v
	}

	res := s.solver.Solve(pinned, companyProps, investorProps, &company, &investor)
	validationErrors = append(validationErrors, res.ValidationErrors...)

	_, companyScore := s.utility.Score(&company, res.FinalTerms)
	_, investorScore := s.utility.Score(&investor, res.FinalTerms)

	// Only hard-bound crossings flip the policy grade; soft violations
	// (enum replacement, dropped fields) surface as validation errors.
	policyOK := true
	grounded := 0
	for _, tr := range res.Traces {
		if tr.PolicyBreach {
			policyOK = false
		}
		validationErrors = append(validationErrors, tr.Violations...)
		if len(tr.SnippetIDs) > 0 {
			grounded++
		}
	}
	grounding := 0.0
	if len(res.Traces) > 0 {
		grounding = float64(grounded) / float64(len(res.Traces))
	}

	roundNo := req.RoundNo
	if roundNo <= 0 {
		roundNo = snap.NextRoundNo
	}

	round := &model.NegotiationRound{
		RoundNo:           roundNo,
		CompanyProposals:  companyProps,
		InvestorProposals: investorProps,
		FinalTerms:        res.FinalTerms,
		Utilities:         model.Utilities{Company: companyScore, Investor: investorScore},
		Traces:            res.Traces,
		Grades: model.Grades{
			PolicyOK:         policyOK,
			Grounding:        grounding,
			ValidationErrors: validationErrors,
		},
		CreatedAt: time.Now(),
	}

	return round, s.termUpserts(snap, round)
}

// termUpserts converts a round's final terms into durable session terms.
// Pinned terms are left untouched so pins survive re-solves.
func (s *NegotiationService) termUpserts(snap *Context, round *model.NegotiationRound) []*model.SessionTerm {
	confidence := make(map[string]float64, len(round.Traces))
	for _, tr := range round.Traces {
		confidence[tr.ClauseKey] = tr.Confidence
	}

	var upserts []*model.SessionTerm
	for key, value := range round.FinalTerms {
		if existing, ok := snap.Terms[key]; ok && existing.Pinned() {
			continue
		}
		upserts = append(upserts, &model.SessionTerm{
			ClauseKey:  key,
			Value:      value.Clone(),
			Source:     model.TermSourceCopilot,
			Confidence: confidence[key],
		})
	}
	return upserts
}
