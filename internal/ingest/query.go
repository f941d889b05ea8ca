package ingest

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxTopicTerms bounds the topic disjunction so the query stays short.
	MaxTopicTerms = 25

	minDefaultRetweets = 10
	sinceLayout        = "2006-01-02_15:04:05_UTC"
)

// Vocabulary holds the configuration tables injected into BuildQuery.
type Vocabulary struct {
	Topics       []string
	NoisePhrases []string
	Hosts        []string
}

// DefaultTopics is the built-in topic vocabulary merged with caller keywords.
var DefaultTopics = []string{
	"arxiv",
	"paper",
	"new paper",
	"preprint",
	"LLM",
	"large language model",
	"transformer",
	"diffusion",
	"reinforcement learning",
	"multimodal",
	"benchmark",
	"NeurIPS",
	"ICML",
	"ICLR",
}

// DefaultNoisePhrases lists promotional phrases excluded from every query.
var DefaultNoisePhrases = []string{
	"giveaway",
	"airdrop",
	"crypto",
	"NFT",
	"promo code",
	"discount",
	"sponsored",
	"webinar",
	"hiring",
	"dm me",
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Topics:       append([]string(nil), DefaultTopics...),
		NoisePhrases: append([]string(nil), DefaultNoisePhrases...),
		Hosts:        TrustedHosts(),
	}
}

// QueryParams are the caller-controlled inputs of a search query.
type QueryParams struct {
	MinLikes    int
	Keywords    []string
	MinRetweets *int
	MinReplies  *int
	SinceHours  *float64
}

// DefaultMinRetweets derives the retweet floor used when none is supplied.
func DefaultMinRetweets(minLikes int) int {
	return max(minDefaultRetweets, minLikes/20)
}

// BuildQuery assembles an advanced-search query string. now is only used
// when a recency window is requested.
func BuildQuery(params QueryParams, vocab Vocabulary, now time.Time) string {
	parts := make([]string, 0, 8)

	if hosts := vocab.Hosts; len(hosts) > 0 {
		terms := make([]string, 0, len(hosts))
		for _, host := range hosts {
			terms = append(terms, "url:"+host)
		}
		parts = append(parts, disjunction(terms))
	}

	if topics := mergeTopics(vocab.Topics, params.Keywords); len(topics) > 0 {
		parts = append(parts, disjunction(topics))
	}

	parts = append(parts, fmt.Sprintf("min_faves:%d", params.MinLikes))

	retweets := DefaultMinRetweets(params.MinLikes)
	if params.MinRetweets != nil {
		retweets = *params.MinRetweets
	}
	parts = append(parts, fmt.Sprintf("min_retweets:%d", retweets))

	if params.MinReplies != nil {
		parts = append(parts, fmt.Sprintf("min_replies:%d", *params.MinReplies))
	}

	for _, phrase := range vocab.NoisePhrases {
		if term, ok := sanitizeTerm(phrase); ok {
			parts = append(parts, "-"+term)
		}
	}

	if params.SinceHours != nil && *params.SinceHours > 0 {
		window := time.Duration(*params.SinceHours * float64(time.Hour))
		parts = append(parts, "since:"+now.Add(-window).UTC().Format(sinceLayout))
	}

	parts = append(parts, "-is:retweet", "lang:en")
	return strings.Join(parts, " ")
}

// mergeTopics sanitizes defaults and extras, drops case-insensitive
// duplicates and caps the list at MaxTopicTerms.
func mergeTopics(defaults, extra []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(extra))
	topics := make([]string, 0, MaxTopicTerms)

	for _, list := range [][]string{defaults, extra} {
		for _, raw := range list {
			term, ok := sanitizeTerm(raw)
			if !ok {
				continue
			}
			key := strings.ToLower(term)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			topics = append(topics, term)
			if len(topics) == MaxTopicTerms {
				return topics
			}
		}
	}
	return topics
}

var termReplacer = strings.NewReplacer(
	`"`, "",
	`'`, "",
	"“", "",
	"”", "",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// sanitizeTerm strips quote and control characters, collapses whitespace and
// wraps multi-word terms as a phrase.
func sanitizeTerm(raw string) (string, bool) {
	words := strings.Fields(termReplacer.Replace(raw))
	switch len(words) {
	case 0:
		return "", false
	case 1:
		return words[0], true
	default:
		return `"` + strings.Join(words, " ") + `"`, true
	}
}

func disjunction(terms []string) string {
	return "(" + strings.Join(terms, " OR ") + ")"
}
