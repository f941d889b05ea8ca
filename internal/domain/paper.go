package domain

import "time"

// Author identifies the account that wrote a social post.
type Author struct {
	Name   string
	Handle string
}

// SocialPost is a raw post returned by the upstream search provider.
// It is never mutated after fetch.
type SocialPost struct {
	ID           string
	Text         string
	URL          string
	Author       Author
	LikeCount    int
	RetweetCount int
	ReplyCount   int
	IsReply      bool
	CreatedAt    time.Time
	// LinkURLs holds the expanded link URLs attached to the post metadata.
	LinkURLs []string
}

// Candidate is the paper info extracted from a single post.
// Empty strings mean the field could not be extracted.
type Candidate struct {
	Title string
	URL   string
}

// Paper is an admitted paper record, keyed by the source post id.
type Paper struct {
	ID             string    `json:"id"`
	TweetID        string    `json:"tweet_id"`
	TweetText      string    `json:"tweet_text"`
	TweetURL       string    `json:"tweet_url"`
	AuthorName     string    `json:"author_name"`
	AuthorUsername string    `json:"author_username"`
	LikeCount      int       `json:"like_count"`
	RetweetCount   int       `json:"retweet_count"`
	ReplyCount     int       `json:"reply_count"`
	PaperTitle     *string   `json:"paper_title"`
	PaperURL       string    `json:"paper_url"`
	PaperAbstract  *string   `json:"paper_abstract"`
	CreatedAt      time.Time `json:"created_at"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// Note is the short-form social content rewritten from a paper.
type Note struct {
	ID        string    `json:"id"`
	PaperID   string    `json:"paper_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CoverText []string  `json:"cover_text"`
	EmojiList []string  `json:"emoji_list"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteUpdate carries a partial edit of a note; nil fields are left untouched.
type NoteUpdate struct {
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	Tags      []string `json:"tags"`
	CoverText []string `json:"cover_text"`
}

// PublishStatus enumerates publish lifecycle milestones.
type PublishStatus string

const (
	StatusPublished PublishStatus = "published"
	StatusFailed    PublishStatus = "failed"
)

// PublishRecord tracks the (simulated) publication of a note.
type PublishRecord struct {
	ID          string        `json:"id"`
	NoteID      string        `json:"xhs_content_id"`
	Status      PublishStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// PaperCard joins a paper with its rewritten note and publish record.
type PaperCard struct {
	Raw     Paper          `json:"raw"`
	Note    *Note          `json:"xhs,omitempty"`
	Publish *PublishRecord `json:"publish,omitempty"`
}

// Abstract is the enrichment scraped from a paper landing page.
type Abstract struct {
	Title string
	Text  string
}
