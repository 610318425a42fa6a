package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/termdesk/termdesk/pkg/logger"
	"github.com/termdesk/termdesk/service"
)

// CitationHandler receives snippet pushes from the retrieval pipeline.
type CitationHandler struct {
	citations *service.CitationService
}

func NewCitationHandler(citations *service.CitationService) *CitationHandler {
	return &CitationHandler{citations: citations}
}

type IngestRequest struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

type IngestContent struct {
	Snippets []service.Snippet `json:"snippets"`
}

// Ingest verifies the seeded checksum and merges the pushed snippets into
// the citation index. The endpoint is unauthenticated; the checksum is the
// shared-secret gate.
func (h *CitationHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.citations.VerifyChecksum(req.Content, req.Checksum) {
		logger.Warn(c.Request.Context(), "citation ingest rejected: bad checksum")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Checksum mismatch"})
		return
	}

	var content IngestContent
	if err := json.Unmarshal([]byte(req.Content), &content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}

	added := h.citations.Ingest(content.Snippets)
	logger.Info(c.Request.Context(), "citation snippets ingested",
		"received", len(content.Snippets), "added", added)

	c.JSON(http.StatusOK, gin.H{"added": added})
}
