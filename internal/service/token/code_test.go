package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_NormalizeCode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"already normalized", "ABC123", "ABC123"},
		{"lower case", "abc123", "ABC123"},
		{"surrounding spaces", "  vote-2024-xy12 \t\n", "VOTE-2024-XY12"},
		{"only spaces", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, NormalizeCode(tt.raw))
		})
	}
}

func Test_generateCode(t *testing.T) {
	t.Run("with prefix", func(t *testing.T) {
		code, err := generateCode("vote-2024")

		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "VOTE-2024-"), "prefix has to be upper cased and separated by dash")
		require.Len(t, code, len("VOTE-2024-")+codeLength)
	})

	t.Run("without prefix", func(t *testing.T) {
		code, err := generateCode("")

		require.NoError(t, err)
		require.Len(t, code, codeLength)
	})

	t.Run("uses unambiguous alphabet only", func(t *testing.T) {
		for range 100 {
			code, err := generateCode("")
			require.NoError(t, err)

			for _, r := range code {
				require.Truef(t, strings.ContainsRune(codeAlphabet, r), "unexpected symbol %q in %s", r, code)
			}
		}
	})

	t.Run("codes differ", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			code, err := generateCode("X")
			require.NoError(t, err)
			seen[code] = struct{}{}
		}

		require.Greater(t, len(seen), 95, "random codes should not repeat often")
	})
}

func Test_DefaultPrefix(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, "VOTE-2024", DefaultPrefix(now))
}
