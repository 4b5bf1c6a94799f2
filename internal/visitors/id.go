package visitors

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// NewSessionID mints a browser-session token: the millisecond clock in base 36
// followed by a random base-36 suffix. Tokens are collision tolerant, not
// secret, and carry no personal data.
func NewSessionID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}

// ResolveSessionID reuses a non-blank existing token, otherwise mints a new one.
func ResolveSessionID(existing string, now time.Time) string {
	if token := strings.TrimSpace(existing); token != "" {
		return token
	}
	return NewSessionID(now)
}

// IssuedAt decodes the clock prefix of a token minted by NewSessionID.
// The prefix is the first eight base-36 digits, which holds for clocks
// between 1972 and 2059.
func IssuedAt(token string) (time.Time, bool) {
	if len(token) < 8 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(token[:8], 36, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
