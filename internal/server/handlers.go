// internal/server/handlers.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsflow/internal/database"
	"newsflow/internal/rss"
)

const rssItemLimit = 50

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		respondError(c, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRSS(c *gin.Context) {
	articles, err := s.db.ListArticles(c.Request.Context(), database.ArticleFilter{Limit: rssItemLimit})
	if err != nil {
		s.respondStoreError(c, err, "Failed to build feed")
		return
	}

	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	doc := rss.Build(rss.ChannelInfo{
		Title:       s.config.SiteTitle,
		SiteURL:     scheme + "://" + c.Request.Host,
		Description: "Latest articles from " + s.config.SiteTitle,
	}, articles, time.Now())

	out, err := rss.Render(doc)
	if err != nil {
		s.logger.Error("failed to render RSS feed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to build feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", out)
}

func (s *Server) handleListArticles(c *gin.Context) {
	limit, offset := pageParams(c)
	sourceIDs, err := parseIDList(c.Query("sources"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	articles, err := s.db.ListArticles(c.Request.Context(), database.ArticleFilter{
		Limit:     limit,
		Offset:    offset,
		Category:  c.Query("category"),
		SourceIDs: sourceIDs,
	})
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch articles")
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) handleGetArticle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	article, err := s.db.GetArticle(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch article")
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleListSources(c *gin.Context) {
	sources, err := s.db.ListActiveSources(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch sources")
		return
	}
	c.JSON(http.StatusOK, sources)
}

// handleRefresh runs an ingestion cycle for the caller. Source failures are
// reported in the body, never as an error status.
func (s *Server) handleRefresh(c *gin.Context) {
	report, err := s.feeds.RefreshAllSources(c.Request.Context())
	if err != nil {
		s.logger.Error("manual refresh failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to refresh articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Articles refreshed",
		"report":  report,
	})
}

func (s *Server) handleEnhance(c *gin.Context) {
	if s.enhancer == nil {
		respondError(c, http.StatusServiceUnavailable, "AI enhancement is not configured")
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	article, err := s.db.GetArticle(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "Failed to enhance article")
		return
	}

	enhancement, err := s.enhancer.Enhance(ctx, article.Title, article.Content)
	if err != nil {
		s.logger.Error("article enhancement failed", "article_id", id, "error", err)
		respondError(c, http.StatusBadGateway, "Failed to enhance article")
		return
	}
	if _, err := s.db.UpdateArticleEnhancement(ctx, id, enhancement); err != nil {
		s.respondStoreError(c, err, "Failed to enhance article")
		return
	}

	keyPoints := enhancement.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	c.JSON(http.StatusOK, enhanceResponse{
		Summary:     enhancement.Summary,
		Enhancement: enhancement.Enhancement,
		KeyPoints:   keyPoints,
		Sentiment:   enhancement.Sentiment,
	})
}
