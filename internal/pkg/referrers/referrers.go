package referrers

import (
	"net/url"
	"strings"
)

// Fixed traffic source labels. Social and referral sources carry a suffix,
// e.g. "Social (LinkedIn)" or "Referral (news.ycombinator.com)".
const (
	SourceDirect        = "Direct"
	SourceOrganicSearch = "Organic Search"
	SourceOther         = "Other"
)

// Host fragments that identify a search engine, matched anywhere in the host.
var searchEngineFragments = []string{
	"google.",
	"bing.",
	"yahoo.",
	"duckduckgo.",
	"baidu.",
	"yandex.",
	"ecosia.",
	"ask.",
}

// Social hostnames mapped to the network name shown on the dashboard.
// Subdomains (m.facebook.com, old.reddit.com) resolve to the same network.
var socialNetworks = map[string]string{
	"facebook.com":  "Facebook",
	"fb.com":        "Facebook",
	"twitter.com":   "Twitter",
	"t.co":          "Twitter",
	"x.com":         "Twitter",
	"linkedin.com":  "LinkedIn",
	"lnkd.in":       "LinkedIn",
	"instagram.com": "Instagram",
	"reddit.com":    "Reddit",
	"youtube.com":   "YouTube",
	"youtu.be":      "YouTube",
	"pinterest.com": "Pinterest",
	"tiktok.com":    "TikTok",
}

// Classify maps a referrer to a traffic source label. Rules are evaluated in
// order and the first match wins.
func Classify(referrer, ownHost string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return SourceDirect
	}

	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return SourceOther
	}

	host := NormalizeHost(parsed.Hostname())
	if own := NormalizeHost(ownHost); own != "" && host == own {
		return SourceDirect
	}

	for _, fragment := range searchEngineFragments {
		if strings.Contains(host, fragment) {
			return SourceOrganicSearch
		}
	}

	if network, ok := SocialNetwork(host); ok {
		return "Social (" + network + ")"
	}

	return "Referral (" + host + ")"
}

// SocialNetwork returns the network for a host or any of its parent domains.
func SocialNetwork(host string) (string, bool) {
	host = NormalizeHost(host)
	for host != "" {
		if network, ok := socialNetworks[host]; ok {
			return network, true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return "", false
}

// NormalizeHost lowercases a hostname and strips a leading "www.".
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}
