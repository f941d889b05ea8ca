package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

const (
	arxivBaseURL = "https://arxiv.org"
	arxivHost    = "arxiv.org"
	userAgent    = "PaperFeed/1.0"
)

// ArxivAbstract scrapes title and abstract from arXiv abs pages.
type ArxivAbstract struct {
	client  *http.Client
	baseURL string
}

var _ ports.AbstractFetcher = (*ArxivAbstract)(nil)

// NewArxivAbstract wires an HTTP client; a nil client gets a 20s timeout.
func NewArxivAbstract(client *http.Client) *ArxivAbstract {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivAbstract{client: client, baseURL: arxivBaseURL}
}

// Name identifies the fetcher inside the registry.
func (a *ArxivAbstract) Name() string {
	return "arxiv"
}

// Supports reports whether paperURL is an arXiv abs or pdf link.
func (a *ArxivAbstract) Supports(paperURL string) bool {
	_, ok := arxivID(paperURL)
	return ok
}

// FetchAbstract loads the abs page of the paper, following pdf links to their
// abs counterpart.
func (a *ArxivAbstract) FetchAbstract(ctx context.Context, paperURL string) (domain.Abstract, error) {
	id, ok := arxivID(paperURL)
	if !ok {
		return domain.Abstract{}, fmt.Errorf("not an arxiv paper url: %s", paperURL)
	}

	doc, err := a.fetchDocument(ctx, strings.TrimSuffix(a.baseURL, "/")+"/abs/"+id)
	if err != nil {
		return domain.Abstract{}, err
	}
	return parseAbstractPage(doc), nil
}

func (a *ArxivAbstract) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func parseAbstractPage(doc *goquery.Document) domain.Abstract {
	title := cleanField(doc.Find("h1.title").First().Text(), "Title:")
	if title == "" {
		title = strings.TrimSpace(doc.Find(`meta[name="citation_title"]`).AttrOr("content", ""))
	}

	abstract := cleanField(doc.Find("blockquote.abstract").First().Text(), "Abstract:")
	if abstract == "" {
		abstract = strings.TrimSpace(doc.Find(`meta[name="citation_abstract"]`).AttrOr("content", ""))
	}

	return domain.Abstract{Title: title, Text: abstract}
}

// cleanField drops the descriptor label arXiv prefixes to fields and folds
// the hard-wrapped lines back together.
func cleanField(raw, label string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, label)
	return strings.Join(strings.Fields(text), " ")
}

// arxivID extracts the paper identifier (with version) from an abs or pdf URL.
func arxivID(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host != arxivHost {
		return "", false
	}

	path := parsed.Path
	lower := strings.ToLower(path)
	var id string
	switch {
	case strings.HasPrefix(lower, "/abs/"):
		id = path[len("/abs/"):]
	case strings.HasPrefix(lower, "/pdf/"):
		id = path[len("/pdf/"):]
		if strings.HasSuffix(strings.ToLower(id), ".pdf") {
			id = id[:len(id)-len(".pdf")]
		}
	default:
		return "", false
	}

	id = strings.Trim(id, "/")
	return id, id != ""
}
