package referrers

import "testing"

func TestClassify(t *testing.T) {
	const ownHost = "janedoe.dev"

	tests := []struct {
		referrer string
		expected string
	}{
		// Direct
		{"", "Direct"},
		{"   ", "Direct"},
		{"https://janedoe.dev/projects", "Direct"},
		{"https://www.janedoe.dev/", "Direct"},
		{"https://JANEDOE.dev/about", "Direct"},

		// Unparseable
		{"not a url", "Other"},
		{"janedoe.dev/projects", "Other"},
		{"://broken", "Other"},

		// Search engines
		{"https://www.google.com/search?q=jane", "Organic Search"},
		{"https://www.google.co.uk/", "Organic Search"},
		{"https://www.bing.com/", "Organic Search"},
		{"https://duckduckgo.com/", "Organic Search"},
		{"https://search.yahoo.com/", "Organic Search"},

		// Social networks
		{"https://www.linkedin.com/in/janedoe", "Social (LinkedIn)"},
		{"https://lnkd.in/abc", "Social (LinkedIn)"},
		{"https://t.co/xyz", "Social (Twitter)"},
		{"https://x.com/janedoe", "Social (Twitter)"},
		{"https://m.facebook.com/", "Social (Facebook)"},
		{"https://old.reddit.com/r/golang", "Social (Reddit)"},

		// Everything else
		{"https://news.ycombinator.com/item?id=1", "Referral (news.ycombinator.com)"},
		{"https://www.example.com/blog", "Referral (example.com)"},
	}

	for _, tt := range tests {
		t.Run(tt.referrer, func(t *testing.T) {
			got := Classify(tt.referrer, ownHost)
			if got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.referrer, got, tt.expected)
			}
		})
	}
}

func TestClassifyWithoutOwnHost(t *testing.T) {
	if got := Classify("https://janedoe.dev/", ""); got != "Referral (janedoe.dev)" {
		t.Errorf("Classify without own host = %q", got)
	}
}
