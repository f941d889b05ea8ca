package twitterapi

import (
	"strings"
	"time"

	"PaperFeed/internal/domain"
)

// createdAtLayouts covers the legacy Twitter timestamp and ISO-8601.
var createdAtLayouts = []string{time.RubyDate, time.RFC3339Nano, time.RFC3339}

type searchResponse struct {
	Tweets      []tweet `json:"tweets"`
	HasNextPage bool    `json:"has_next_page"`
	NextCursor  string  `json:"next_cursor"`
}

type tweet struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	URL          string   `json:"url"`
	LikeCount    int      `json:"likeCount"`
	RetweetCount int      `json:"retweetCount"`
	ReplyCount   int      `json:"replyCount"`
	IsReply      bool     `json:"isReply"`
	CreatedAt    string   `json:"createdAt"`
	Author       author   `json:"author"`
	Entities     entities `json:"entities"`
}

type author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	UserName string `json:"userName"`
}

type entities struct {
	URLs []entityURL `json:"urls"`
}

type entityURL struct {
	URL            string `json:"url"`
	ExpandedURL    string `json:"expanded_url"`
	ExpandedURLAlt string `json:"expandedUrl"`
	DisplayURL     string `json:"display_url"`
}

func (t tweet) toDomain() domain.SocialPost {
	links := make([]string, 0, len(t.Entities.URLs))
	for _, u := range t.Entities.URLs {
		expanded := u.ExpandedURL
		if expanded == "" {
			expanded = u.ExpandedURLAlt
		}
		if expanded != "" {
			links = append(links, expanded)
		}
	}

	return domain.SocialPost{
		ID:           t.ID,
		Text:         t.Text,
		URL:          t.URL,
		Author:       domain.Author{Name: t.Author.Name, Handle: t.Author.UserName},
		LikeCount:    t.LikeCount,
		RetweetCount: t.RetweetCount,
		ReplyCount:   t.ReplyCount,
		IsReply:      t.IsReply,
		CreatedAt:    parseCreatedAt(t.CreatedAt),
		LinkURLs:     links,
	}
}

func parseCreatedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
