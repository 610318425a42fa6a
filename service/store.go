package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/termdesk/termdesk/config"
	"github.com/termdesk/termdesk/model"
)

// ErrSessionNotFound is returned for lookups against unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is an in-memory store for negotiation sessions, their round
// history, and their durable terms. It is the persistence boundary: a
// database-backed implementation could replace it behind the same methods.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionState
	maxSessions int // maximum sessions to keep, 0 = unlimited
}

// sessionState is everything the store tracks for one session. runMu
// serializes rounds for the session: each round reads the previous round's
// pinned terms, so two in-flight rounds would race on pin state.
type sessionState struct {
	session *model.Session
	rounds  []*model.NegotiationRound
	terms   map[string]*model.SessionTerm
	runMu   sync.Mutex
}

// NewSessionStore initializes the store with configuration
func NewSessionStore(cfg *config.StoreConfig) *SessionStore {
	maxSessions := cfg.MaxSessions
	if maxSessions < 0 {
		maxSessions = 0
	}
	slog.Info("session store initialized", "max_sessions", maxSessions)
	return &SessionStore{
		sessions:    make(map[string]*sessionState),
		maxSessions: maxSessions,
	}
}

// CreateSession registers a new session.
func (s *SessionStore) CreateSession(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = time.Now()
	s.sessions[sess.ID] = &sessionState{
		session: sess,
		terms:   make(map[string]*model.SessionTerm),
	}

	s.cleanupIfNeeded()
}

// GetSession returns a session by ID, or nil.
func (s *SessionStore) GetSession(id string) *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.sessions[id]; ok {
		return st.session
	}
	return nil
}

// GetByTenant returns all sessions owned by a tenant.
func (s *SessionStore) GetByTenant(tenant string) []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Session
	for _, st := range s.sessions {
		if st.session.Tenant == tenant {
			result = append(result, st.session)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// DeleteSession removes a session and everything attached to it.
func (s *SessionStore) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Context is the snapshot a round computation starts from.
type Context struct {
	Session         *model.Session
	CompanyPersona  model.Persona
	InvestorPersona model.Persona

	// PinnedTerms maps clause key to its locked value.
	PinnedTerms map[string]model.ClauseValue

	// Terms holds every durable term, pinned or not.
	Terms map[string]*model.SessionTerm

	// NextRoundNo is one past the highest persisted round number.
	NextRoundNo int
}

// LoadContext snapshots the inputs of a round.
func (s *SessionStore) LoadContext(id string) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	ctx := &Context{
		Session:         st.session,
		CompanyPersona:  st.session.CompanyPersona,
		InvestorPersona: st.session.InvestorPersona,
		PinnedTerms:     make(map[string]model.ClauseValue),
		Terms:           make(map[string]*model.SessionTerm, len(st.terms)),
		NextRoundNo:     1,
	}

	for k, t := range st.terms {
		copied := *t
		copied.Value = t.Value.Clone()
		ctx.Terms[k] = &copied
		if t.Pinned() {
			ctx.PinnedTerms[k] = t.Value.Clone()
		}
	}
	for _, r := range st.rounds {
		if r.RoundNo >= ctx.NextRoundNo {
			ctx.NextRoundNo = r.RoundNo + 1
		}
	}

	return ctx, nil
}

// PersistRound writes a round and its term upserts in one critical
// section: either everything lands or nothing does. A round number that
// already exists is overwritten, never duplicated.
func (s *SessionStore) PersistRound(id string, round *model.NegotiationRound, upserts []*model.SessionTerm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	replaced := false
	for i, r := range st.rounds {
		if r.RoundNo == round.RoundNo {
			st.rounds[i] = round
			replaced = true
			break
		}
	}
	if !replaced {
		st.rounds = append(st.rounds, round)
		sort.Slice(st.rounds, func(i, j int) bool {
			return st.rounds[i].RoundNo < st.rounds[j].RoundNo
		})
	}

	now := time.Now()
	for _, t := range upserts {
		t.UpdatedAt = now
		st.terms[t.ClauseKey] = t
	}
	st.session.UpdatedAt = now

	return nil
}

// Rounds returns the session's round history in round order.
func (s *SessionStore) Rounds(id string) ([]*model.NegotiationRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]*model.NegotiationRound, len(st.rounds))
	copy(out, st.rounds)
	return out, nil
}

// Round returns one round by number.
func (s *SessionStore) Round(id string, roundNo int) (*model.NegotiationRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	for _, r := range st.rounds {
		if r.RoundNo == roundNo {
			return r, nil
		}
	}
	return nil, fmt.Errorf("round %d not found", roundNo)
}

// Terms returns the session's durable terms sorted by clause key.
func (s *SessionStore) Terms(id string) ([]*model.SessionTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]*model.SessionTerm, 0, len(st.terms))
	for _, t := range st.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClauseKey < out[j].ClauseKey
	})
	return out, nil
}

// UpsertTerm writes one term directly (the update_term operation).
func (s *SessionStore) UpsertTerm(id string, term *model.SessionTerm) (*model.SessionTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	term.UpdatedAt = time.Now()
	st.terms[term.ClauseKey] = term
	st.session.UpdatedAt = term.UpdatedAt
	return term, nil
}

// RunExclusive runs fn while holding the session's round lock. Rounds for
// different sessions proceed in parallel; rounds for one session are
// serialized.
func (s *SessionStore) RunExclusive(id string, fn func() error) error {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	st.runMu.Lock()
	defer st.runMu.Unlock()
	return fn()
}

// Count returns the number of sessions in the store
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cleanupIfNeeded removes oldest sessions if store exceeds maxSessions
// Must be called with lock held
func (s *SessionStore) cleanupIfNeeded() {
	if s.maxSessions <= 0 {
		return // Unlimited
	}

	if len(s.sessions) <= s.maxSessions {
		return
	}

	states := make([]*sessionState, 0, len(s.sessions))
	for _, st := range s.sessions {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].session.CreatedAt.Before(states[j].session.CreatedAt)
	})

	removeCount := len(states) - s.maxSessions
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old session",
			"session_id", states[i].session.ID,
			"created_at", states[i].session.CreatedAt,
		)
		delete(s.sessions, states[i].session.ID)
	}
}
