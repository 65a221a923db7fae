// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsflow/internal/ai"
	"newsflow/internal/auth"
	"newsflow/internal/database"
	"newsflow/internal/feed"
	"newsflow/internal/housekeeping"
	"newsflow/internal/logger"
)

type Config struct {
	ProductionMode bool
	LoginURL       string
	CORSOrigins    []string
	SiteTitle      string
}

// Deps are the collaborators the handlers call into. Enhancer and Admin may
// be nil, which disables the routes that need them.
type Deps struct {
	DB       *database.DB
	Feeds    *feed.Service
	Sweeper  *housekeeping.Sweeper
	Enhancer ai.Enhancer
	Verifier *auth.Verifier
	Admin    *auth.Admin
	Log      *logger.Logger
}

type Server struct {
	db       *database.DB
	feeds    *feed.Service
	sweeper  *housekeeping.Sweeper
	enhancer ai.Enhancer
	verifier *auth.Verifier
	admin    *auth.Admin
	logger   *logger.Logger
	config   Config
	router   *gin.Engine
	http     *http.Server
}

func NewServer(deps Deps, cfg Config) *Server {
	if cfg.SiteTitle == "" {
		cfg.SiteTitle = "Newsflow"
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		db:       deps.DB,
		feeds:    deps.Feeds,
		sweeper:  deps.Sweeper,
		enhancer: deps.Enhancer,
		verifier: deps.Verifier,
		admin:    deps.Admin,
		logger:   log.With("component", "server"),
		config:   cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.logger))
	r.Use(metricsMiddleware())
	r.Use(corsMiddleware(s.config.CORSOrigins))
	r.Use(gzipMiddleware())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/rss", s.handleRSS)

	api := r.Group("/api")
	{
		api.GET("/articles", s.handleListArticles)
		api.GET("/articles/:id", s.handleGetArticle)
		api.GET("/sources", s.handleListSources)

		api.GET("/login", s.handleLogin)
		api.GET("/callback", s.handleCallback)
		api.GET("/logout", s.handleLogout)
	}

	protected := api.Group("/")
	protected.Use(s.requireUser())
	{
		protected.GET("/auth/user", s.handleCurrentUser)

		protected.POST("/articles/refresh", s.handleRefresh)
		protected.POST("/articles/:id/enhance", s.handleEnhance)

		protected.GET("/user/preferences", s.handleGetPreferences)
		protected.POST("/user/preferences", s.handleSavePreferences)

		protected.POST("/user/articles", s.handleUpsertUserArticle)
		protected.GET("/user/articles/bookmarked", s.handleBookmarked)
		protected.GET("/user/articles/read", s.handleRead)

		protected.GET("/user/notes", s.handleListNotes)
		protected.POST("/user/notes", s.handleCreateNote)
		protected.PUT("/user/notes/:id", s.handleUpdateNote)
		protected.DELETE("/user/notes/:id", s.handleDeleteNote)

		protected.POST("/user/reading-history", s.handleReadingHistory)
		protected.GET("/user/stats", s.handleStats)
	}

	admin := api.Group("/admin")
	admin.Use(s.requireAdmin())
	{
		admin.GET("/sources", s.handleAdminListSources)
		admin.POST("/sources", s.handleAdminCreateSource)
		admin.PATCH("/sources/:id", s.handleAdminToggleSource)
		admin.GET("/retention", s.handleRetentionStats)
		admin.POST("/retention/run", s.handleRetentionRun)
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Not found")
	})
	return r
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Manual refreshes run synchronously.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("starting server", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
