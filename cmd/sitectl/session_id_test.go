package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSessionIDCommand(t *testing.T) {
	t.Run("mints a token", func(t *testing.T) {
		out, err := runCommand(t, "session-id")
		require.NoError(t, err)
		assert.Contains(t, out, "\tissued ")
	})

	t.Run("decodes a given token", func(t *testing.T) {
		// 1704067200000 ms is 2024-01-01T00:00:00Z
		out, err := runCommand(t, "session-id", "lqu5m2o0abc")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "lqu5m2o0abc\tissued 2024-01-01T00:00:00Z"), out)
	})

	t.Run("rejects a foreign token", func(t *testing.T) {
		_, err := runCommand(t, "session-id", "!!")
		assert.Error(t, err)
	})
}
