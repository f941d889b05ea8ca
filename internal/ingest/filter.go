package ingest

import "PaperFeed/internal/domain"

// Filter decides whether a fetched post is worth extracting. It re-applies
// the engagement floor because the upstream query is not trusted to.
type Filter struct {
	MinLikes       int
	ExcludeReplies bool
}

// Admit reports whether post passes the engagement floor and reply rule.
func (f Filter) Admit(post domain.SocialPost) bool {
	if post.LikeCount < f.MinLikes {
		return false
	}
	if f.ExcludeReplies && post.IsReply {
		return false
	}
	return true
}
