package ingest

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBuildQueryDefaults(t *testing.T) {
	t.Parallel()

	query := BuildQuery(QueryParams{MinLikes: 100, Keywords: []string{"GPT-5"}}, DefaultVocabulary(), time.Now())

	for _, host := range TrustedHosts() {
		if !strings.Contains(query, "url:"+host) {
			t.Fatalf("query missing host %s: %s", host, query)
		}
	}
	for _, want := range []string{"min_faves:100", "min_retweets:10", " GPT-5)", "-is:retweet", "lang:en", "-giveaway", `-"promo code"`} {
		if !strings.Contains(query, want) {
			t.Fatalf("query missing %q: %s", want, query)
		}
	}
	if strings.Contains(query, `"GPT-5"`) || strings.ContainsAny(query, "\n\t") {
		t.Fatalf("keyword not sanitized: %s", query)
	}
	if strings.Contains(query, "since:") || strings.Contains(query, "min_replies:") {
		t.Fatalf("optional constraints must be absent: %s", query)
	}
}

func TestBuildQueryOptionalConstraints(t *testing.T) {
	t.Parallel()

	retweets, replies, hours := 3, 7, 24.0
	now := time.Date(2026, time.March, 2, 15, 4, 5, 0, time.FixedZone("UTC+3", 3*3600))

	query := BuildQuery(QueryParams{
		MinLikes:    500,
		MinRetweets: &retweets,
		MinReplies:  &replies,
		SinceHours:  &hours,
	}, DefaultVocabulary(), now)

	for _, want := range []string{"min_faves:500", "min_retweets:3", "min_replies:7", "since:2026-03-01_12:04:05_UTC"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query missing %q: %s", want, query)
		}
	}
}

func TestDefaultMinRetweets(t *testing.T) {
	t.Parallel()

	cases := map[int]int{0: 10, 100: 10, 219: 10, 220: 11, 1000: 50}
	for likes, want := range cases {
		if got := DefaultMinRetweets(likes); got != want {
			t.Fatalf("DefaultMinRetweets(%d) = %d, want %d", likes, got, want)
		}
	}
}

func TestSanitizeTerm(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"GPT-5", "GPT-5", true},
		{"  \"chain of\tthought\"  ", `"chain of thought"`, true},
		{"multi\nline\r\nterm", `"multi line term"`, true},
		{"don't", "dont", true},
		{" \t\n", "", false},
		{`""`, "", false},
	}

	for _, tc := range cases {
		got, ok := sanitizeTerm(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("sanitizeTerm(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMergeTopicsCapsAndDedupes(t *testing.T) {
	t.Parallel()

	extra := []string{"arxiv", "ARXIV", ""}
	for i := 0; i < 40; i++ {
		extra = append(extra, fmt.Sprintf("topic%d", i))
	}

	topics := mergeTopics([]string{"arxiv", "paper"}, extra)
	if len(topics) != MaxTopicTerms {
		t.Fatalf("expected %d topics, got %d", MaxTopicTerms, len(topics))
	}
	if topics[0] != "arxiv" || topics[1] != "paper" || topics[2] != "topic0" {
		t.Fatalf("unexpected order: %v", topics[:3])
	}
}
