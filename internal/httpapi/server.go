// Package httpapi exposes the fetch, rewrite, publish and catalog use cases
// over JSON HTTP using gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/usecase"
)

// PaperFetcher runs the admission pipeline.
type PaperFetcher interface {
	Fetch(ctx context.Context, req usecase.FetchRequest) (usecase.FetchResult, error)
}

// NoteRewriter turns a paper into a note.
type NoteRewriter interface {
	Rewrite(ctx context.Context, req usecase.RewriteRequest) (domain.Note, error)
}

// NotePublisher publishes a note.
type NotePublisher interface {
	Publish(ctx context.Context, noteID string) (domain.PublishRecord, error)
}

// CatalogService serves the read models and note edits.
type CatalogService interface {
	ListCards(ctx context.Context) ([]domain.PaperCard, error)
	ListPublishRecords(ctx context.Context) ([]domain.PublishRecord, error)
	UpdateNote(ctx context.Context, id string, upd domain.NoteUpdate) (domain.Note, error)
}

// AbstractEnricher fills missing abstracts.
type AbstractEnricher interface {
	Enrich(ctx context.Context, limit int) ([]domain.Paper, error)
}

// Services groups the use cases served by the API. Nil members answer 503.
type Services struct {
	Fetcher   PaperFetcher
	Rewriter  NoteRewriter
	Publisher NotePublisher
	Catalog   CatalogService
	Enricher  AbstractEnricher
	// Health reports storage reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

// Server owns the gin engine and its routes.
type Server struct {
	engine   *gin.Engine
	services Services
	logger   *slog.Logger
}

// New builds the router. Callers choose the gin mode before calling it.
func New(services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{engine: engine, services: services, logger: logger}
	s.routes()
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	api.POST("/fetch-papers", s.fetchPapers)
	api.POST("/rewrite-paper", s.rewritePaper)
	api.POST("/publish-paper", s.publishPaper)
	api.POST("/enrich-papers", s.enrichPapers)
	api.GET("/papers", s.listPapers)
	api.PATCH("/notes/:id", s.updateNote)
	api.GET("/publish-records", s.listPublishRecords)
}

func (s *Server) health(c *gin.Context) {
	if s.services.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.services.Health(ctx); err != nil {
			s.logger.Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"healthy": false})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"healthy": true})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
