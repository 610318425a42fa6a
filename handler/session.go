package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/termdesk/termdesk/middleware"
	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/schema"
	"github.com/termdesk/termdesk/service"
)

type SessionHandler struct {
	store    *service.SessionStore
	registry *schema.Registry
}

func NewSessionHandler(store *service.SessionStore, registry *schema.Registry) *SessionHandler {
	return &SessionHandler{store: store, registry: registry}
}

type CreateSessionRequest struct {
	Name            string        `json:"name" binding:"required"`
	Stage           string        `json:"stage" binding:"required"`
	Region          string        `json:"region"`
	Clauses         []string      `json:"clauses"`
	CompanyPersona  model.Persona `json:"company_persona"`
	InvestorPersona model.Persona `json:"investor_persona"`
}

// Create registers a new negotiation session for the caller's tenant.
// Persona leverage and weights are clamped into range, never rejected.
func (h *SessionHandler) Create(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	req.CompanyPersona.Kind = model.PartyCompany
	req.InvestorPersona.Kind = model.PartyInvestor
	req.CompanyPersona.Normalize()
	req.InvestorPersona.Normalize()

	session := &model.Session{
		ID:              uuid.New().String(),
		Tenant:          tenant,
		Name:            req.Name,
		Stage:           req.Stage,
		Region:          req.Region,
		Clauses:         req.Clauses,
		CompanyPersona:  req.CompanyPersona,
		InvestorPersona: req.InvestorPersona,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	h.store.CreateSession(session)

	c.JSON(http.StatusOK, session)
}

// List returns all sessions for the current tenant
func (h *SessionHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	sessions := h.store.GetByTenant(tenant)

	result := make([]gin.H, len(sessions))
	for i, s := range sessions {
		result[i] = gin.H{
			"id":         s.ID,
			"name":       s.Name,
			"stage":      s.Stage,
			"region":     s.Region,
			"created_at": s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at": s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": result})
}

// Get returns a single session with personas
func (h *SessionHandler) Get(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, session)
}

// Delete removes a session and its rounds and terms
func (h *SessionHandler) Delete(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}

	h.store.DeleteSession(session.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// Catalog exposes the clause catalog so clients can render forms and
// templates.
func (h *SessionHandler) Catalog(c *gin.Context) {
	keys := h.registry.Keys()
	clauses := make([]*schema.ClauseSchema, 0, len(keys))
	for _, k := range keys {
		if cs, ok := h.registry.Get(k); ok {
			clauses = append(clauses, cs)
		}
	}
	c.JSON(http.StatusOK, gin.H{"clauses": clauses})
}

// sessionForTenant resolves :id scoped to the caller's tenant, writing the
// 404 itself when the session is missing or foreign.
func (h *SessionHandler) sessionForTenant(c *gin.Context) *model.Session {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	session := h.store.GetSession(id)
	if session == nil || session.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	return session
}
