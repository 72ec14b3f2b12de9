package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingCodeFormat(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	code := GenerateBookingCode(now)

	require.Len(t, code, 12)
	assert.True(t, strings.HasPrefix(code, "CB280826"))

	for _, ch := range code[8:] {
		assert.Contains(t, codeAlphabet, string(ch))
	}
}

func TestGenerateBookingCodeExcludesAmbiguousChars(t *testing.T) {
	// 0, O, 1, I исключены из алфавита, чтобы код читался по телефону
	for _, ch := range []string{"0", "O", "1", "I"} {
		assert.NotContains(t, codeAlphabet, ch)
	}
}

func TestGenerateBookingCodeVaries(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[GenerateBookingCode(now)] = true
	}
	// Коллизии возможны, но 50 подряд одинаковых кодов означают поломку
	assert.Greater(t, len(seen), 1)
}
