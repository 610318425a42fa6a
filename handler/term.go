package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/termdesk/termdesk/middleware"
	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/policy"
	"github.com/termdesk/termdesk/schema"
	"github.com/termdesk/termdesk/service"
)

type TermHandler struct {
	store    *service.SessionStore
	registry *schema.Registry
	policy   *policy.Engine
}

func NewTermHandler(store *service.SessionStore, registry *schema.Registry, pol *policy.Engine) *TermHandler {
	return &TermHandler{store: store, registry: registry, policy: pol}
}

// List returns the session's durable terms
func (h *TermHandler) List(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}

	terms, err := h.store.Terms(session.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"terms": terms})
}

type UpdateTermRequest struct {
	Value model.ClauseValue `json:"value" binding:"required"`

	// PinnedBy locks the clause against re-solving until cleared. Empty
	// unpins.
	PinnedBy string `json:"pinned_by"`

	// Source defaults to persona (a human-entered value).
	Source string `json:"source"`
}

// Update writes one term, optionally pinning it. The value is clamped to
// the clause's bounds before storage so pinned terms cannot smuggle an
// out-of-policy value past the solver.
func (h *TermHandler) Update(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}

	clauseKey := c.Param("clause")
	if _, ok := h.registry.Get(clauseKey); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown clause: " + clauseKey})
		return
	}

	var req UpdateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	source := req.Source
	switch source {
	case "":
		source = model.TermSourcePersona
	case model.TermSourceRule, model.TermSourcePersona, model.TermSourceCopilot:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source: " + source})
		return
	}

	clamped, violations := h.policy.ValidateAndClamp(clauseKey, req.Value)

	term, err := h.store.UpsertTerm(session.ID, &model.SessionTerm{
		ClauseKey:  clauseKey,
		Value:      clamped,
		Source:     source,
		Confidence: 1,
		PinnedBy:   req.PinnedBy,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	resp := gin.H{"term": term}
	if len(violations) > 0 {
		resp["violations"] = policy.Messages(violations)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TermHandler) sessionForTenant(c *gin.Context) *model.Session {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	session := h.store.GetSession(id)
	if session == nil || session.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	return session
}
