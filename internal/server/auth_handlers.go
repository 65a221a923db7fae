// internal/server/auth_handlers.go
package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"newsflow/internal/auth"
)

var sessionTTLSeconds = int(auth.SessionTTL / time.Second)

// handleLogin sends the browser to the external identity provider, passing
// our callback URL along.
func (s *Server) handleLogin(c *gin.Context) {
	if s.config.LoginURL == "" {
		respondError(c, http.StatusServiceUnavailable, "Login is not configured")
		return
	}
	target, err := url.Parse(s.config.LoginURL)
	if err != nil {
		s.logger.Error("invalid login URL", "url", s.config.LoginURL, "error", err)
		respondError(c, http.StatusInternalServerError, "Login is misconfigured")
		return
	}

	scheme := "http"
	if c.Request.TLS != nil || s.config.ProductionMode {
		scheme = "https"
	}
	q := target.Query()
	q.Set("redirect_uri", scheme+"://"+c.Request.Host+"/api/callback")
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

// handleCallback accepts the provider's token, records the user and starts
// a session.
func (s *Server) handleCallback(c *gin.Context) {
	if s.verifier == nil {
		abortUnauthorized(c)
		return
	}
	user, err := s.verifier.Verify(c.Query("token"))
	if err != nil {
		s.logger.Warn("login callback rejected", "error", err)
		abortUnauthorized(c)
		return
	}

	saved, err := s.db.UpsertUser(c.Request.Context(), user)
	if err != nil {
		s.respondStoreError(c, err, "Failed to save user")
		return
	}
	session, err := s.verifier.Issue(saved, auth.SessionTTL)
	if err != nil {
		s.logger.Error("failed to issue session", "user_id", saved.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}

	s.setSessionCookie(c, session, sessionTTLSeconds)
	s.logger.Info("user logged in", "user_id", saved.ID)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", s.config.ProductionMode, true)
}
