package service

import (
	"sync"
	"testing"
	"time"

	"github.com/termdesk/termdesk/config"
	"github.com/termdesk/termdesk/model"
)

func newTestStore(maxSessions int) *SessionStore {
	return NewSessionStore(&config.StoreConfig{MaxSessions: maxSessions})
}

func testSession(id, tenant string) *model.Session {
	return &model.Session{
		ID:        id,
		Tenant:    tenant,
		Name:      "Seed round",
		Stage:     "seed",
		Region:    "us",
		CreatedAt: time.Now(),
	}
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := newTestStore(100)

	store.CreateSession(testSession("s1", "tenant1"))

	got := store.GetSession("s1")
	if got == nil {
		t.Fatal("Expected to retrieve session")
	}
	if got.Name != "Seed round" {
		t.Errorf("Expected name Seed round, got %s", got.Name)
	}

	if store.GetSession("nonexistent") != nil {
		t.Error("Expected nil for non-existent session")
	}
}

func TestSessionStoreGetByTenant(t *testing.T) {
	store := newTestStore(100)

	store.CreateSession(testSession("1", "tenant1"))
	store.CreateSession(testSession("2", "tenant1"))
	store.CreateSession(testSession("3", "tenant2"))

	if got := len(store.GetByTenant("tenant1")); got != 2 {
		t.Errorf("Expected 2 sessions for tenant1, got %d", got)
	}
	if got := len(store.GetByTenant("tenant2")); got != 1 {
		t.Errorf("Expected 1 session for tenant2, got %d", got)
	}
	if got := len(store.GetByTenant("tenant3")); got != 0 {
		t.Errorf("Expected 0 sessions for tenant3, got %d", got)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := newTestStore(100)

	store.CreateSession(testSession("delete-me", "tenant1"))
	if store.GetSession("delete-me") == nil {
		t.Fatal("Expected session to exist before delete")
	}

	store.DeleteSession("delete-me")
	if store.GetSession("delete-me") != nil {
		t.Error("Expected session gone after delete")
	}
}

func TestLoadContextSnapshotsPins(t *testing.T) {
	store := newTestStore(100)
	store.CreateSession(testSession("s1", "tenant1"))

	_, err := store.UpsertTerm("s1", &model.SessionTerm{
		ClauseKey: "exclusivity",
		Value:     model.ClauseValue{"period_days": 21.0},
		Source:    model.TermSourcePersona,
		PinnedBy:  "alex",
	})
	if err != nil {
		t.Fatalf("Failed to upsert term: %v", err)
	}
	_, err = store.UpsertTerm("s1", &model.SessionTerm{
		ClauseKey: "vesting",
		Value:     model.ClauseValue{"vesting_months": 48.0},
		Source:    model.TermSourceCopilot,
	})
	if err != nil {
		t.Fatalf("Failed to upsert term: %v", err)
	}

	snap, err := store.LoadContext("s1")
	if err != nil {
		t.Fatalf("Failed to load context: %v", err)
	}

	if len(snap.PinnedTerms) != 1 {
		t.Fatalf("Expected 1 pinned term, got %d", len(snap.PinnedTerms))
	}
	if snap.PinnedTerms["exclusivity"]["period_days"] != 21.0 {
		t.Errorf("Unexpected pinned value %v", snap.PinnedTerms["exclusivity"])
	}
	if len(snap.Terms) != 2 {
		t.Errorf("Expected 2 terms in snapshot, got %d", len(snap.Terms))
	}

	// The snapshot must not alias store state.
	snap.PinnedTerms["exclusivity"]["period_days"] = 99.0
	resnap, _ := store.LoadContext("s1")
	if resnap.PinnedTerms["exclusivity"]["period_days"] != 21.0 {
		t.Error("Mutating a snapshot leaked into the store")
	}
}

func TestLoadContextUnknownSession(t *testing.T) {
	store := newTestStore(100)
	if _, err := store.LoadContext("nope"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestPersistRoundAndNextRoundNo(t *testing.T) {
	store := newTestStore(100)
	store.CreateSession(testSession("s1", "tenant1"))

	snap, _ := store.LoadContext("s1")
	if snap.NextRoundNo != 1 {
		t.Errorf("Expected first round number 1, got %d", snap.NextRoundNo)
	}

	if err := store.PersistRound("s1", &model.NegotiationRound{RoundNo: 1}, nil); err != nil {
		t.Fatalf("Failed to persist round: %v", err)
	}
	snap, _ = store.LoadContext("s1")
	if snap.NextRoundNo != 2 {
		t.Errorf("Expected next round number 2, got %d", snap.NextRoundNo)
	}
}

func TestPersistRoundOverwrites(t *testing.T) {
	store := newTestStore(100)
	store.CreateSession(testSession("s1", "tenant1"))

	first := &model.NegotiationRound{RoundNo: 1, Utilities: model.Utilities{Company: 10}}
	second := &model.NegotiationRound{RoundNo: 1, Utilities: model.Utilities{Company: 20}}

	store.PersistRound("s1", first, nil)
	store.PersistRound("s1", second, nil)

	rounds, err := store.Rounds("s1")
	if err != nil {
		t.Fatalf("Failed to list rounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("Re-solving a round must overwrite, not append; got %d rounds", len(rounds))
	}
	if rounds[0].Utilities.Company != 20 {
		t.Errorf("Expected the overwrite to win, got %v", rounds[0].Utilities.Company)
	}
}

func TestPersistRoundAtomicTermUpserts(t *testing.T) {
	store := newTestStore(100)
	store.CreateSession(testSession("s1", "tenant1"))

	round := &model.NegotiationRound{RoundNo: 1}
	upserts := []*model.SessionTerm{
		{ClauseKey: "exclusivity", Value: model.ClauseValue{"period_days": 48.0}, Source: model.TermSourceCopilot},
		{ClauseKey: "vesting", Value: model.ClauseValue{"vesting_months": 43.0}, Source: model.TermSourceCopilot},
	}

	if err := store.PersistRound("s1", round, upserts); err != nil {
		t.Fatalf("Failed to persist round: %v", err)
	}

	terms, _ := store.Terms("s1")
	if len(terms) != 2 {
		t.Fatalf("Expected 2 terms after persist, got %d", len(terms))
	}
	// Terms come back sorted by clause key.
	if terms[0].ClauseKey != "exclusivity" || terms[1].ClauseKey != "vesting" {
		t.Errorf("Expected sorted terms, got %s, %s", terms[0].ClauseKey, terms[1].ClauseKey)
	}
}

func TestRoundLookup(t *testing.T) {
	store := newTestStore(100)
	store.CreateSession(testSession("s1", "tenant1"))
	store.PersistRound("s1", &model.NegotiationRound{RoundNo: 1}, nil)
	store.PersistRound("s1", &model.NegotiationRound{RoundNo: 2}, nil)

	r, err := store.Round("s1", 2)
	if err != nil || r.RoundNo != 2 {
		t.Errorf("Expected round 2, got %v, %v", r, err)
	}
	if _, err := store.Round("s1", 5); err == nil {
		t.Error("Expected error for missing round")
	}
}

func TestRunExclusiveSerializesPerSession(t *testing.T) {
	store := newTestStore(100)
	store.CreateSession(testSession("s1", "tenant1"))

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.RunExclusive("s1", func() error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("Expected at most one round in flight per session, saw %d", maxInFlight)
	}
}

func TestRunExclusiveUnknownSession(t *testing.T) {
	store := newTestStore(100)
	err := store.RunExclusive("nope", func() error { return nil })
	if err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStoreCleanup(t *testing.T) {
	store := newTestStore(2)

	now := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		s := testSession(id, "tenant1")
		s.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		store.CreateSession(s)
	}

	if store.Count() != 2 {
		t.Errorf("Expected cleanup down to 2 sessions, got %d", store.Count())
	}
	if store.GetSession("old") != nil {
		t.Error("Expected oldest session evicted")
	}
	if store.GetSession("new") == nil {
		t.Error("Expected newest session kept")
	}
}
