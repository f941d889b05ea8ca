// Package ingest turns noisy social posts into trusted paper candidates.
//
// Every URL that leaves this package has passed Allowed; the admission use case
// and the repository call it again before persisting.
package ingest

import (
	"net/url"
	"sort"
	"strings"
)

const (
	hostArxiv           = "arxiv.org"
	hostHuggingFace     = "huggingface.co"
	hostSemanticScholar = "semanticscholar.org"
)

// trustedHosts maps every allow-listed host to its path rule (nil means any path).
var trustedHosts = map[string]func(path string) bool{
	hostArxiv: func(path string) bool {
		path = strings.ToLower(path)
		return strings.HasPrefix(path, "/abs/") || strings.HasPrefix(path, "/pdf/")
	},
	hostHuggingFace: func(path string) bool {
		return strings.HasPrefix(path, "/papers")
	},
	hostSemanticScholar: func(path string) bool {
		return strings.HasPrefix(path, "/paper")
	},
	"openreview.net":         nil,
	"paperswithcode.com":     nil,
	"aclanthology.org":       nil,
	"proceedings.neurips.cc": nil,
	"proceedings.mlr.press":  nil,
	"openaccess.thecvf.com":  nil,
}

// TrustedHosts returns the allow-listed hosts in lexical order.
func TrustedHosts() []string {
	hosts := make([]string, 0, len(trustedHosts))
	for host := range trustedHosts {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Allowed reports whether raw is an absolute http(s) URL on a trusted host
// that satisfies the host's path rule. Unparsable input is rejected.
func Allowed(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := normalizeHost(parsed.Hostname())
	rule, ok := trustedHosts[host]
	if !ok {
		return false
	}
	if rule == nil {
		return true
	}
	return rule(parsed.Path)
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}
