package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/usecase"
)

type fetchPapersRequest struct {
	MinLikes    *int     `json:"minLikes"`
	Keywords    []string `json:"keywords"`
	MaxResults  *int     `json:"maxResults"`
	MinRetweets *int     `json:"minRetweets"`
	MinReplies  *int     `json:"minReplies"`
	SinceHours  *float64 `json:"sinceHours"`
}

func (r fetchPapersRequest) toUsecase() usecase.FetchRequest {
	req := usecase.FetchRequest{
		MinLikes:    usecase.DefaultMinLikes,
		Keywords:    r.Keywords,
		MaxResults:  usecase.DefaultMaxResults,
		MinRetweets: r.MinRetweets,
		MinReplies:  r.MinReplies,
		SinceHours:  r.SinceHours,
	}
	if r.MinLikes != nil {
		req.MinLikes = *r.MinLikes
	}
	if r.MaxResults != nil {
		req.MaxResults = *r.MaxResults
	}
	return req
}

type rewritePaperRequest struct {
	PaperID        string `json:"paperId"`
	Style          string `json:"style"`
	TargetAudience string `json:"targetAudience"`
}

type publishPaperRequest struct {
	NoteID string `json:"xhsContentId"`
}

type enrichPapersRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) fetchPapers(c *gin.Context) {
	if s.services.Fetcher == nil {
		s.unavailable(c, "fetch")
		return
	}
	var body fetchPapersRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	result, err := s.services.Fetcher.Fetch(c.Request.Context(), body.toUsecase())
	if err != nil {
		s.fail(c, err)
		return
	}

	papers := result.Papers
	if papers == nil {
		papers = []domain.Paper{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"papers":  papers,
		"meta":    gin.H{"total": result.Total, "query": result.Query},
	})
}

func (s *Server) rewritePaper(c *gin.Context) {
	if s.services.Rewriter == nil {
		s.unavailable(c, "rewrite")
		return
	}
	var body rewritePaperRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	note, err := s.services.Rewriter.Rewrite(c.Request.Context(), usecase.RewriteRequest{
		PaperID:        body.PaperID,
		Style:          usecase.Style(body.Style),
		TargetAudience: body.TargetAudience,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "content": note})
}

func (s *Server) publishPaper(c *gin.Context) {
	if s.services.Publisher == nil {
		s.unavailable(c, "publish")
		return
	}
	var body publishPaperRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	record, err := s.services.Publisher.Publish(c.Request.Context(), body.NoteID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": record, "message": usecase.PublishedMessage})
}

func (s *Server) enrichPapers(c *gin.Context) {
	if s.services.Enricher == nil {
		s.unavailable(c, "enrich")
		return
	}
	var body enrichPapersRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	papers, err := s.services.Enricher.Enrich(c.Request.Context(), body.Limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if papers == nil {
		papers = []domain.Paper{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "papers": papers, "meta": gin.H{"total": len(papers)}})
}

func (s *Server) listPapers(c *gin.Context) {
	if s.services.Catalog == nil {
		s.unavailable(c, "catalog")
		return
	}
	cards, err := s.services.Catalog.ListCards(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if cards == nil {
		cards = []domain.PaperCard{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cards})
}

func (s *Server) updateNote(c *gin.Context) {
	if s.services.Catalog == nil {
		s.unavailable(c, "catalog")
		return
	}
	var body domain.NoteUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("decode body: %w: %w", usecase.ErrInvalidInput, err))
		return
	}

	note, err := s.services.Catalog.UpdateNote(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": note})
}

func (s *Server) listPublishRecords(c *gin.Context) {
	if s.services.Catalog == nil {
		s.unavailable(c, "catalog")
		return
	}
	records, err := s.services.Catalog.ListPublishRecords(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if records == nil {
		records = []domain.PublishRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// bindOptionalJSON decodes the body into dst; an empty body keeps defaults.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "malformed JSON body: " + err.Error()})
	return false
}

func (s *Server) fail(c *gin.Context, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	} else {
		s.logger.Debug("request rejected", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}

func (s *Server) unavailable(c *gin.Context, service string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": service + " is not configured"})
}

// classify maps use case errors to a status code and client-facing message.
// Upstream details stay in the logs.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, usecase.ErrAlreadyPublished):
		return http.StatusConflict, "Content already published"
	case errors.Is(err, usecase.ErrNotConfigured):
		return http.StatusServiceUnavailable, "service is not configured"
	case errors.Is(err, usecase.ErrMissingCredentials):
		return http.StatusInternalServerError, "upstream credentials are not configured"
	case errors.Is(err, usecase.ErrUpstream):
		return http.StatusInternalServerError, "upstream request failed"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
