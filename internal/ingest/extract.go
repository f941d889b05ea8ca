package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"PaperFeed/internal/domain"
)

// MaxTitleLength is the rune limit applied to extracted titles.
const MaxTitleLength = 200

var (
	arxivURLExpr = regexp.MustCompile(`https?://(?:www\.)?arxiv\.org/(?:abs|pdf)/\S+`)
	hostURLExpr  = buildHostURLExpr()
	urlStartExpr = regexp.MustCompile(`https?://`)
)

// buildHostURLExpr matches absolute URLs under every trusted host except
// arXiv, which has its own stricter pattern. The match runs to the next
// whitespace so look-alike hosts reach Allowed intact and get rejected.
func buildHostURLExpr() *regexp.Regexp {
	var alts []string
	for _, host := range TrustedHosts() {
		if host == hostArxiv {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(host))
	}
	return regexp.MustCompile(`https?://(?:www\.)?(?:` + strings.Join(alts, "|") + `)\S*`)
}

// titleRule is one entry of the ordered title extraction table.
type titleRule struct {
	name    string
	pattern *regexp.Regexp
	extract func(match []string) string
}

// titleRules are evaluated in order; the first non-empty result wins.
var titleRules = []titleRule{
	{
		name:    "quoted",
		pattern: regexp.MustCompile(`"([^"]+)"`),
		extract: firstGroup,
	},
	{
		name:    "page-marker",
		pattern: regexp.MustCompile(`📄\s*([^\n]+)`),
		extract: firstGroup,
	},
	{
		name:    "paper-label",
		pattern: regexp.MustCompile(`(?i)paper:\s*([^\n]+)`),
		extract: firstGroup,
	},
	{
		name:    "rocket-marker",
		pattern: regexp.MustCompile(`🚀\s*([^\n]+)`),
		extract: func(match []string) string {
			text := firstGroup(match)
			if loc := urlStartExpr.FindStringIndex(text); loc != nil {
				text = text[:loc[0]]
			}
			return text
		},
	},
}

func firstGroup(match []string) string {
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// Extract derives a candidate title and trusted paper URL from post text and
// the post's expanded link metadata.
func Extract(text string, linkURLs []string) domain.Candidate {
	return domain.Candidate{
		Title: extractTitle(text),
		URL:   firstAllowed(candidateURLs(text, linkURLs)),
	}
}

// candidateURLs lists metadata links first, then arXiv links found in the
// text, then links to the remaining trusted hosts.
func candidateURLs(text string, linkURLs []string) []string {
	candidates := make([]string, 0, len(linkURLs)+2)
	for _, link := range linkURLs {
		if link = strings.TrimSpace(link); link != "" {
			candidates = append(candidates, link)
		}
	}
	for _, expr := range []*regexp.Regexp{arxivURLExpr, hostURLExpr} {
		for _, match := range expr.FindAllString(text, -1) {
			candidates = append(candidates, trimURLPunctuation(match))
		}
	}
	return candidates
}

func firstAllowed(candidates []string) string {
	for _, candidate := range candidates {
		if Allowed(candidate) {
			return candidate
		}
	}
	return ""
}

// trimURLPunctuation drops sentence punctuation glued to the end of a URL.
func trimURLPunctuation(raw string) string {
	return strings.TrimRight(raw, `.,;:!?)]}>"'`)
}

func extractTitle(text string) string {
	for _, rule := range titleRules {
		match := rule.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if title := NormalizeTitle(rule.extract(match)); title != "" {
			return title
		}
	}
	return ""
}

// NormalizeTitle trims raw and truncates it to MaxTitleLength runes.
func NormalizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:MaxTitleLength]))
}
