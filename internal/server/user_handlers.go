package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"newsflow/internal/database"
)

func (s *Server) handleCurrentUser(c *gin.Context) {
	u := currentUser(c)
	user, err := s.db.GetUser(c.Request.Context(), u.ID)
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	u := currentUser(c)
	prefs, err := s.db.GetUserPreferences(c.Request.Context(), u.ID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusOK, &database.UserPreferences{
			UserID:           u.ID,
			Categories:       []string{},
			Sources:          []string{},
			DailyReadingGoal: database.DefaultDailyReadingGoal,
		})
		return
	}
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleSavePreferences(c *gin.Context) {
	var req preferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	prefs := &database.UserPreferences{
		UserID:     currentUser(c).ID,
		Categories: req.Categories,
		Sources:    req.Sources,
	}
	if req.DailyReadingGoal != nil {
		prefs.DailyReadingGoal = *req.DailyReadingGoal
	}
	saved, err := s.db.UpsertUserPreferences(c.Request.Context(), prefs)
	if err != nil {
		s.respondStoreError(c, err, "Failed to update preferences")
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleUpsertUserArticle(c *gin.Context) {
	var req userArticleRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.db.GetArticle(ctx, req.ArticleID); err != nil {
		s.respondStoreError(c, err, "Failed to update user article")
		return
	}
	ua, err := s.db.UpsertUserArticle(ctx, currentUser(c).ID, req.ArticleID, database.UserArticleFields{
		IsRead:          req.IsRead,
		IsBookmarked:    req.IsBookmarked,
		ReadAt:          req.ReadAt,
		ReadingProgress: req.ReadingProgress,
	})
	if err != nil {
		s.respondStoreError(c, err, "Failed to update user article")
		return
	}
	c.JSON(http.StatusOK, ua)
}

func (s *Server) handleBookmarked(c *gin.Context) {
	rows, err := s.db.ListBookmarked(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch bookmarked articles")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleRead(c *gin.Context) {
	rows, err := s.db.ListRead(c.Request.Context(), currentUser(c).ID, queryInt(c, "limit", 50))
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch read articles")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleListNotes(c *gin.Context) {
	var articleID *int64
	if raw := c.Query("articleId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, http.StatusBadRequest, "Invalid articleId")
			return
		}
		articleID = &id
	}
	notes, err := s.db.ListNotes(c.Request.Context(), currentUser(c).ID, articleID)
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch notes")
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (s *Server) handleCreateNote(c *gin.Context) {
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	note := &database.UserNote{UserID: currentUser(c).ID, ArticleID: req.ArticleID, Content: req.Content}
	if err := s.db.CreateNote(c.Request.Context(), note); err != nil {
		s.respondStoreError(c, err, "Failed to create note")
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := s.db.UpdateNote(c.Request.Context(), currentUser(c).ID, id, req.Content)
	if err != nil {
		s.respondStoreError(c, err, "Failed to update note")
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteNote(c.Request.Context(), currentUser(c).ID, id); err != nil {
		s.respondStoreError(c, err, "Failed to delete note")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleReadingHistory(c *gin.Context) {
	var req readingHistoryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry := &database.ReadingHistoryEntry{
		UserID:      currentUser(c).ID,
		ArticleID:   req.ArticleID,
		ReadingTime: req.ReadingTime,
	}
	if req.Date != nil {
		entry.Date = *req.Date
	}
	if err := s.db.CreateReadingHistory(c.Request.Context(), entry); err != nil {
		s.respondStoreError(c, err, "Failed to create reading history")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleStats(c *gin.Context) {
	days := queryInt(c, "days", database.DefaultStatsWindowDays)
	if days < 1 || days > 365 {
		respondError(c, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}
	stats, err := s.db.GetUserReadingStats(c.Request.Context(), currentUser(c).ID, days)
	if err != nil {
		s.respondStoreError(c, err, "Failed to fetch reading stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
