package ingest

import (
	"testing"

	"PaperFeed/internal/domain"
)

func TestFilterAdmit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		filter Filter
		post   domain.SocialPost
		want   bool
	}{
		{"below floor", Filter{MinLikes: 100}, domain.SocialPost{LikeCount: 99}, false},
		{"at floor", Filter{MinLikes: 100}, domain.SocialPost{LikeCount: 100}, true},
		{"above floor", Filter{MinLikes: 100}, domain.SocialPost{LikeCount: 5000}, true},
		{"reply included by default", Filter{MinLikes: 1}, domain.SocialPost{LikeCount: 1, IsReply: true}, true},
		{"reply excluded", Filter{MinLikes: 1, ExcludeReplies: true}, domain.SocialPost{LikeCount: 1, IsReply: true}, false},
		{"non-reply with exclusion", Filter{MinLikes: 1, ExcludeReplies: true}, domain.SocialPost{LikeCount: 1}, true},
	}

	for _, tc := range cases {
		if got := tc.filter.Admit(tc.post); got != tc.want {
			t.Fatalf("%s: Admit = %v, want %v", tc.name, got, tc.want)
		}
	}
}
