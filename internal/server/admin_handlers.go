package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"newsflow/internal/database"
	"newsflow/internal/feed"
)

func (s *Server) handleAdminListSources(c *gin.Context) {
	sources, err := s.db.ListAllSources(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch sources")
		return
	}
	c.JSON(http.StatusOK, sources)
}

// handleAdminCreateSource validates that the URL serves a parseable feed
// before storing it.
func (s *Server) handleAdminCreateSource(c *gin.Context) {
	var req createSourceRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	result, err := s.feeds.Fetcher().ValidateFeedURL(ctx, req.RSSURL)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, feed.ErrTimeout) {
			status = http.StatusGatewayTimeout
		}
		respondError(c, status, "Feed validation failed: "+err.Error())
		return
	}

	src := &database.Source{
		Name:        strings.TrimSpace(req.Name),
		DisplayName: strings.TrimSpace(req.DisplayName),
		URL:         req.URL,
		RSSURL:      req.RSSURL,
		Category:    strings.TrimSpace(req.Category),
		IsActive:    true,
	}
	if src.DisplayName == "" {
		src.DisplayName = result.Title
	}
	if src.DisplayName == "" {
		src.DisplayName = src.Name
	}
	if src.URL == "" {
		src.URL = result.Link
	}
	if src.Category == "" {
		src.Category = "general"
	}

	if err := s.db.CreateSource(ctx, src); err != nil {
		s.respondStoreError(c, err, "Failed to create source")
		return
	}
	s.logger.Info("source created", "name", src.Name, "items", result.ItemCount)
	c.JSON(http.StatusCreated, gin.H{"source": src, "feed": result})
}

func (s *Server) handleAdminToggleSource(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req toggleSourceRequest
	if !bindJSON(c, &req) {
		return
	}
	src, err := s.db.SetSourceActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		s.respondStoreError(c, err, "Failed to update source")
		return
	}
	c.JSON(http.StatusOK, src)
}

func (s *Server) handleRetentionStats(c *gin.Context) {
	stats, err := s.sweeper.Stats(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch retention stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleRetentionRun(c *gin.Context) {
	report, err := s.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Retention sweep failed")
		return
	}
	c.JSON(http.StatusOK, report)
}
