package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/termdesk/termdesk/middleware"
	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/service"
)

type RoundHandler struct {
	negotiation *service.NegotiationService
	store       *service.SessionStore
}

func NewRoundHandler(negotiation *service.NegotiationService, store *service.SessionStore) *RoundHandler {
	return &RoundHandler{negotiation: negotiation, store: store}
}

type RunRoundRequest struct {
	// RoundNo forces a re-solve of an existing round when positive.
	RoundNo int `json:"round_no"`

	// Overrides fix clause values for this round only, like a
	// non-persisted pin.
	Overrides map[string]model.ClauseValue `json:"overrides"`
}

// Run executes one negotiation round for the session
func (h *RoundHandler) Run(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}

	var req RunRoundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	round, err := h.negotiation.RunRound(c.Request.Context(), session.ID, service.RunRoundRequest{
		RoundNo:   req.RoundNo,
		Overrides: req.Overrides,
	})
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run round: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, round)
}

// List returns the session's round history
func (h *RoundHandler) List(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}

	rounds, err := h.store.Rounds(session.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

// Get returns one round by number
func (h *RoundHandler) Get(c *gin.Context) {
	session := h.sessionForTenant(c)
	if session == nil {
		return
	}

	roundNo, err := strconv.Atoi(c.Param("no"))
	if err != nil || roundNo < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round number"})
		return
	}

	round, err := h.store.Round(session.ID, roundNo)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
		return
	}

	c.JSON(http.StatusOK, round)
}

func (h *RoundHandler) sessionForTenant(c *gin.Context) *model.Session {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	session := h.store.GetSession(id)
	if session == nil || session.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	return session
}
