package visitors_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/visitors"
)

func TestNewSessionID(t *testing.T) {
	now := time.Date(2024, 5, 15, 13, 45, 0, 0, time.UTC)

	t.Run("starts with the base-36 clock", func(t *testing.T) {
		id := visitors.NewSessionID(now)
		prefix := strconv.FormatInt(now.UnixMilli(), 36)

		assert.True(t, len(id) > len(prefix), "ID should carry a random suffix")
		assert.Equal(t, prefix, id[:len(prefix)])
	})

	t.Run("uses only base-36 characters", func(t *testing.T) {
		id := visitors.NewSessionID(now)
		assert.Regexp(t, "^[0-9a-z]+$", id)
	})

	t.Run("differs between calls at the same instant", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 100; i++ {
			seen[visitors.NewSessionID(now)] = struct{}{}
		}
		assert.Len(t, seen, 100)
	})

	t.Run("decodes the issue time", func(t *testing.T) {
		issued, ok := visitors.IssuedAt(visitors.NewSessionID(now))
		assert.True(t, ok)
		assert.True(t, issued.Equal(now))
	})
}

func TestResolveSessionID(t *testing.T) {
	now := time.Now()

	t.Run("reuses an existing token", func(t *testing.T) {
		assert.Equal(t, "lw8x2abc123", visitors.ResolveSessionID("lw8x2abc123", now))
	})

	t.Run("mints when blank", func(t *testing.T) {
		id := visitors.ResolveSessionID("   ", now)
		assert.NotEmpty(t, id)
		assert.NotEqual(t, "   ", id)
	})
}
