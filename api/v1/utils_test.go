package v1

import (
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain ipv4", raw: "79.144.65.173", want: "79.144.65.173"},
		{name: "ipv4 with spaces", raw: " 79.144.65.173 ", want: "79.144.65.173"},
		{name: "quoted ipv4 with port", raw: `"79.144.65.173:1234"`, want: "79.144.65.173"},
		{name: "ipv6 literal", raw: "2001:db8::1", want: "2001:db8::1"},
		{name: "ipv6 in brackets", raw: "[2001:db8::1]", want: "2001:db8::1"},
		{name: "ipv6 with port", raw: "[2001:db8::1]:8443", want: "2001:db8::1"},
		{name: "ipv6 with zone", raw: "fe80::1%eth0", want: "fe80::1"},
		{name: "ipv4 mapped ipv6", raw: "::ffff:203.0.113.9", want: "203.0.113.9"},
		{name: "invalid value", raw: "not-an-ip"},
		{name: "empty", raw: "   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			addr, ok := parseAddr(tc.raw)
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.want, addr.String())
		})
	}
}

func TestIsPublic(t *testing.T) {
	tests := map[string]bool{
		"8.8.8.8":         true,
		"2001:db8::1":     true,
		"10.0.0.5":        false,
		"172.16.4.1":      false,
		"192.168.1.10":    false,
		"127.0.0.1":       false,
		"169.254.1.1":     false,
		"0.0.0.0":         false,
		"::1":             false,
		"::":              false,
		"fe80::1":         false,
		"fd00::1":         false,
		"224.0.0.1":       false,
		"255.255.255.255": false,
	}

	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, isPublic(netip.MustParseAddr(raw)))
		})
	}
}

func TestFirstPublicAddr(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{
			name:   "prefers public ipv4 over ipv6",
			values: []string{"2001:db8::1", "203.0.113.20"},
			want:   "203.0.113.20",
		},
		{
			name:   "skips private addresses",
			values: []string{"192.168.1.10", "10.0.0.5", "::1", "198.51.100.7"},
			want:   "198.51.100.7",
		},
		{
			name:   "falls back to ipv6",
			values: []string{"fd00::1", "2001:db8::2", "2001:db8::3"},
			want:   "2001:db8::2",
		},
		{
			name:   "mapped private ipv4 stays private",
			values: []string{"::ffff:192.168.1.5"},
		},
		{
			name:   "nothing usable",
			values: []string{"", "   ", "not-an-ip"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			addr := firstPublicAddr(tc.values)
			if tc.want == "" {
				assert.False(t, addr.IsValid())
				return
			}
			assert.Equal(t, tc.want, addr.String())
		})
	}
}

func TestForwardedFor(t *testing.T) {
	values := forwardedFor(`for=192.0.2.60;proto=http;by=203.0.113.43, For="[2001:db8:cafe::17]:4711"`)
	assert.Equal(t, []string{"192.0.2.60", `"[2001:db8:cafe::17]:4711"`}, values)
	assert.Empty(t, forwardedFor("proto=https"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "first public forwarded address",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 203.0.113.20, 198.51.100.7"},
			want:    "203.0.113.20",
		},
		{
			name:    "real ip header",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name: "private forwarded chain falls through to the next header",
			headers: map[string]string{
				"X-Forwarded-For":  "192.168.1.10",
				"CF-Connecting-IP": "198.51.100.9",
			},
			want: "198.51.100.9",
		},
		{
			name:    "forwarded header",
			headers: map[string]string{"Forwarded": `for="[2001:db8::1]:4711";proto=https`},
			want:    "2001:db8::1",
		},
		{
			name:    "only private addresses",
			headers: map[string]string{"X-Forwarded-For": "192.168.1.10"},
			want:    "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Get("/", func(c *fiber.Ctx) error {
				got = getClientIP(c)
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest("GET", "/", nil)
			for key, value := range tc.headers {
				req.Header.Set(key, value)
			}
			_, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
