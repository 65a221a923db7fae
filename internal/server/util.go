package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"newsflow/internal/database"
)

// respondError sends the {"message": ...} envelope the UI shows as a toast.
func respondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// respondStoreError maps storage errors onto HTTP statuses. Unexpected errors
// are logged and reported generically.
func (s *Server) respondStoreError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(c, http.StatusNotFound, notFoundMessage(message))
	case errors.Is(err, database.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, database.ErrDuplicate):
		respondError(c, http.StatusConflict, "Already exists")
	default:
		s.logger.Error(message, "error", err, "path", c.FullPath(), "request_id", requestIDFrom(c))
		respondError(c, http.StatusInternalServerError, message)
	}
}

func notFoundMessage(message string) string {
	switch {
	case strings.Contains(message, "article"):
		return "Article not found"
	case strings.Contains(message, "note"):
		return "Note not found"
	case strings.Contains(message, "source"):
		return "Source not found"
	default:
		return "Not found"
	}
}

// bindJSON decodes and validates the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent or malformed.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// parseIDList parses a comma separated list of ids, skipping blanks.
func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid source id " + strconv.Quote(part))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// pageParams converts page/limit query parameters to limit/offset.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit", database.DefaultPageSize)
	if limit < 1 {
		limit = database.DefaultPageSize
	}
	limit = min(limit, database.MaxPageSize)
	page := max(queryInt(c, "page", 1), 1)
	return limit, (page - 1) * limit
}
