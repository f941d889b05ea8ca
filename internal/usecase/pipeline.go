package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ingest"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
)

const (
	// DefaultMinLikes is the engagement floor used when a request omits it.
	DefaultMinLikes = 100
	// DefaultMaxResults caps admitted papers when a request omits it.
	DefaultMaxResults = 20

	queryTypeTop = "Top"
)

// PipelineDeps wires the driven adapters into the admission pipeline.
type PipelineDeps struct {
	Searcher       ports.PostSearcher
	Repository     ports.PaperRepository
	Vocabulary     ingest.Vocabulary
	ExcludeReplies bool
	QueryType      string
	Now            func() time.Time
	Logger         *slog.Logger
}

// FetchRequest carries the caller-controlled admission parameters.
type FetchRequest struct {
	MinLikes    int
	Keywords    []string
	MaxResults  int
	MinRetweets *int
	MinReplies  *int
	SinceHours  *float64
}

// FetchResult lists admitted papers in provider order.
type FetchResult struct {
	Papers []domain.Paper
	Query  string
	Total  int
}

// Fetcher implements the post-to-paper admission workflow.
type Fetcher struct {
	searcher       ports.PostSearcher
	repository     ports.PaperRepository
	vocabulary     ingest.Vocabulary
	excludeReplies bool
	queryType      string
	now            func() time.Time
	logger         *slog.Logger
}

// NewFetcher constructs the admission pipeline.
func NewFetcher(deps PipelineDeps) *Fetcher {
	f := &Fetcher{
		searcher:       deps.Searcher,
		repository:     deps.Repository,
		vocabulary:     deps.Vocabulary,
		excludeReplies: deps.ExcludeReplies,
		queryType:      deps.QueryType,
		now:            deps.Now,
		logger:         deps.Logger,
	}
	if f.queryType == "" {
		f.queryType = queryTypeTop
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = logging.Discard()
	}
	return f
}

// Fetch runs one search and admits at most req.MaxResults papers. Posts that
// fail filtering, extraction or validation are dropped silently; persistence
// failures are logged and skipped.
func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest) (FetchResult, error) {
	if err := validateFetch(req); err != nil {
		return FetchResult{}, err
	}
	if f.searcher == nil {
		return FetchResult{}, fmt.Errorf("search provider: %w", ErrMissingCredentials)
	}
	if f.repository == nil {
		return FetchResult{}, fmt.Errorf("paper repository: %w", ErrNotConfigured)
	}

	query := ingest.BuildQuery(ingest.QueryParams{
		MinLikes:    req.MinLikes,
		Keywords:    req.Keywords,
		MinRetweets: req.MinRetweets,
		MinReplies:  req.MinReplies,
		SinceHours:  req.SinceHours,
	}, f.vocabulary, f.now())

	posts, err := f.searcher.Search(ctx, ports.SearchRequest{Query: query, QueryType: f.queryType})
	if err != nil {
		return FetchResult{}, fmt.Errorf("search posts: %w: %w", ErrUpstream, err)
	}
	f.logger.Info("search returned posts", "count", len(posts))

	filter := ingest.Filter{MinLikes: req.MinLikes, ExcludeReplies: f.excludeReplies}
	papers := make([]domain.Paper, 0, min(len(posts), req.MaxResults))
	for _, post := range posts {
		if len(papers) >= req.MaxResults {
			break
		}
		if !filter.Admit(post) {
			f.logger.Debug("post filtered", "tweet_id", post.ID, "likes", post.LikeCount, "reply", post.IsReply)
			continue
		}

		candidate := ingest.Extract(post.Text, post.LinkURLs)
		if candidate.URL == "" || !ingest.Allowed(candidate.URL) {
			f.logger.Debug("post has no trusted paper link", "tweet_id", post.ID)
			continue
		}

		saved, err := f.repository.UpsertPaper(ctx, newPaper(post, candidate, f.now()))
		if err != nil {
			f.logger.Warn("persist paper failed", "tweet_id", post.ID, "err", err)
			continue
		}
		papers = append(papers, saved)
	}

	return FetchResult{Papers: papers, Query: query, Total: len(papers)}, nil
}

func validateFetch(req FetchRequest) error {
	switch {
	case req.MinLikes < 0:
		return fmt.Errorf("minLikes must be non-negative: %w", ErrInvalidInput)
	case req.MaxResults < 0:
		return fmt.Errorf("maxResults must be non-negative: %w", ErrInvalidInput)
	case req.MinRetweets != nil && *req.MinRetweets < 0:
		return fmt.Errorf("minRetweets must be non-negative: %w", ErrInvalidInput)
	case req.MinReplies != nil && *req.MinReplies < 0:
		return fmt.Errorf("minReplies must be non-negative: %w", ErrInvalidInput)
	case req.SinceHours != nil && *req.SinceHours < 0:
		return fmt.Errorf("sinceHours must be non-negative: %w", ErrInvalidInput)
	}
	return nil
}

func newPaper(post domain.SocialPost, candidate domain.Candidate, fetchedAt time.Time) domain.Paper {
	name := post.Author.Name
	if name == "" {
		name = "Unknown"
	}
	handle := post.Author.Handle
	if handle == "" {
		handle = "unknown"
	}
	postURL := post.URL
	if postURL == "" {
		postURL = fmt.Sprintf("https://twitter.com/%s/status/%s", handle, post.ID)
	}

	var title *string
	if candidate.Title != "" {
		t := candidate.Title
		title = &t
	}

	return domain.Paper{
		TweetID:        post.ID,
		TweetText:      post.Text,
		TweetURL:       postURL,
		AuthorName:     name,
		AuthorUsername: handle,
		LikeCount:      post.LikeCount,
		RetweetCount:   post.RetweetCount,
		ReplyCount:     post.ReplyCount,
		PaperTitle:     title,
		PaperURL:       candidate.URL,
		CreatedAt:      post.CreatedAt,
		FetchedAt:      fetchedAt,
	}
}
