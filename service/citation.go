package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/termdesk/termdesk/config"
	"github.com/termdesk/termdesk/pkg/logger"
)

// CitationService resolves opaque snippet ids backing a clause proposal.
// When a retrieval service is configured it is asked first; the builtin
// static index serves as the offline fallback, so Fetch never fails and
// grounding keeps working without network access.
type CitationService struct {
	cfg        *config.CitationsConfig
	httpClient *http.Client

	mu    sync.RWMutex
	index map[string]map[string][]string // clause -> perspective -> snippet ids
}

// snippetSearchRequest is the retrieval service request body
type snippetSearchRequest struct {
	ClauseKey    string   `json:"clause_key"`
	Perspectives []string `json:"perspectives"`
}

// snippetSearchResponse is the retrieval service response
type snippetSearchResponse struct {
	SnippetIDs []string `json:"snippet_ids"`
}

// Snippet is one entry of an ingest batch pushed by the retrieval pipeline.
type Snippet struct {
	ID          string `json:"id"`
	ClauseKey   string `json:"clause_key"`
	Perspective string `json:"perspective"` // company, investor
}

func NewCitationService(cfg *config.CitationsConfig) *CitationService {
	return &CitationService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		index: builtinIndex(),
	}
}

// Fetch returns snippet ids for a clause across the given perspectives.
// Remote failures degrade to the static index; the result may be empty but
// the call never fails.
func (s *CitationService) Fetch(ctx context.Context, clauseKey string, perspectives []string) []string {
	if s.cfg.BaseURL != "" {
		ids, err := s.remoteFetch(ctx, clauseKey, perspectives)
		if err == nil {
			return ids
		}
		logger.Warn(ctx, "citation service unavailable, using static index",
			"clause", clauseKey, "error", err)
	}
	return s.staticFetch(clauseKey, perspectives)
}

func (s *CitationService) remoteFetch(ctx context.Context, clauseKey string, perspectives []string) ([]string, error) {
	body, err := json.Marshal(snippetSearchRequest{
		ClauseKey:    clauseKey,
		Perspectives: perspectives,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/snippets/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call citation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("citation service returned %d: %s", resp.StatusCode, string(data))
	}

	var out snippetSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.SnippetIDs, nil
}

func (s *CitationService) staticFetch(clauseKey string, perspectives []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPerspective, ok := s.index[clauseKey]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, p := range perspectives {
		for _, id := range byPerspective[p] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Ingest merges pushed snippets into the static index.
func (s *CitationService) Ingest(snippets []Snippet) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, sn := range snippets {
		if sn.ID == "" || sn.ClauseKey == "" {
			continue
		}
		byPerspective, ok := s.index[sn.ClauseKey]
		if !ok {
			byPerspective = make(map[string][]string)
			s.index[sn.ClauseKey] = byPerspective
		}
		if containsString(byPerspective[sn.Perspective], sn.ID) {
			continue
		}
		byPerspective[sn.Perspective] = append(byPerspective[sn.Perspective], sn.ID)
		added++
	}
	return added
}

// VerifyChecksum checks an ingest payload against its seeded SHA-256
// checksum; both sides derive the checksum from content plus the shared
// seed.
func (s *CitationService) VerifyChecksum(content, checksum string) bool {
	return Checksum(content, s.cfg.Seed) == checksum
}

// Checksum computes the hex SHA-256 of content plus seed.
func Checksum(content, seed string) string {
	sum := sha256.Sum256([]byte(content + seed))
	return hex.EncodeToString(sum[:])
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// builtinIndex is the canned snippet catalog serving offline deployments.
// IDs are opaque handles understood by the presentation layer.
func builtinIndex() map[string]map[string][]string {
	return map[string]map[string][]string{
		"exclusivity": {
			"company":  {"snp-excl-co-001"},
			"investor": {"snp-excl-inv-001", "snp-excl-inv-002"},
		},
		"vesting": {
			"company":  {"snp-vest-co-001"},
			"investor": {"snp-vest-inv-001"},
		},
		"valuation_cap": {
			"company":  {"snp-cap-co-001", "snp-cap-co-002"},
			"investor": {"snp-cap-inv-001"},
		},
		"discount_rate": {
			"company":  {"snp-disc-co-001"},
			"investor": {"snp-disc-inv-001"},
		},
		"liquidation_preference": {
			"company":  {"snp-liqpref-co-001"},
			"investor": {"snp-liqpref-inv-001"},
		},
		"option_pool": {
			"company":  {"snp-pool-co-001"},
			"investor": {"snp-pool-inv-001"},
		},
		"board_seats": {
			"company":  {"snp-board-co-001"},
			"investor": {"snp-board-inv-001"},
		},
		"pro_rata_rights": {
			"investor": {"snp-prorata-inv-001"},
		},
		"preemption_rights": {
			"investor": {"snp-preempt-inv-001"},
		},
		"information_rights": {
			"investor": {"snp-info-inv-001"},
		},
		"founder_lockup": {
			"company":  {"snp-lockup-co-001"},
			"investor": {"snp-lockup-inv-001"},
		},
	}
}
