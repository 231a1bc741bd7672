// Package web exposes the tracker over an HTTP API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kkandukuri/pricetracker/internal/jobs"
	"github.com/kkandukuri/pricetracker/internal/ledger"
	"github.com/kkandukuri/pricetracker/internal/ports"
	"github.com/kkandukuri/pricetracker/internal/siteconfig"
	"github.com/kkandukuri/pricetracker/internal/tracker"
)

// Server wires the HTTP API over the tracker, repositories, and job
// orchestrator.
type Server struct {
	repo         ports.ProductRepository
	tracker      *tracker.Tracker
	ledger       *ledger.Ledger
	store        *jobs.Store
	orchestrator *jobs.Orchestrator
	overrides    *siteconfig.Resolver
	sitesFile    string
	uploadDir    string
	logger       *slog.Logger

	srv *http.Server
}

// Deps collects the server's collaborators.
type Deps struct {
	Repo         ports.ProductRepository
	Tracker      *tracker.Tracker
	Ledger       *ledger.Ledger
	Store        *jobs.Store
	Orchestrator *jobs.Orchestrator
	Overrides    *siteconfig.Resolver
	SitesFile    string
	UploadDir    string
	Logger       *slog.Logger
}

// New builds the server and its router.
func New(addr string, deps Deps) *Server {
	s := &Server{
		repo:         deps.Repo,
		tracker:      deps.Tracker,
		ledger:       deps.Ledger,
		store:        deps.Store,
		orchestrator: deps.Orchestrator,
		overrides:    deps.Overrides,
		sitesFile:    deps.SitesFile,
		uploadDir:    deps.UploadDir,
		logger:       deps.Logger,
	}
	s.srv = &http.Server{Addr: addr, Handler: s.router()}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/products", s.listProducts)
		api.POST("/products", s.trackProduct)
		api.GET("/products/:id", s.getProduct)
		api.GET("/products/:id/history", s.getPriceHistory)
		api.POST("/update", s.updateAll)

		api.POST("/jobs", s.createJob)
		api.POST("/upload", s.uploadTargets)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/jobs/:id/cancel", s.cancelJob)
		api.GET("/download/:id", s.downloadArtifact)

		api.GET("/sites", s.getSites)
		api.PUT("/sites", s.updateSites)

		api.GET("/stats", s.stats)
	}

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
