package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPCode_FixedWidthDigits(t *testing.T) {
	seen := make(map[string]int)
	for i := 0; i < 500; i++ {
		code, err := GenerateOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
		seen[code]++
	}
	// 500 draws out of a million-value space repeating heavily would
	// indicate a broken source.
	assert.Greater(t, len(seen), 450)
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@x.com  ", "padded@x.com"},
		{"already@x.com", "already@x.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}
