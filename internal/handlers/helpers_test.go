package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-backend/internal/apperrors"
)

func TestParseBookingLookupNumericID(t *testing.T) {
	lookup, err := parseBookingLookup("42")
	require.Nil(t, err)
	assert.False(t, lookup.ByCode())
	assert.Equal(t, uint(42), lookup.ID)
}

func TestParseBookingLookupCode(t *testing.T) {
	lookup, err := parseBookingLookup("CB280826AB12")
	require.Nil(t, err)
	assert.True(t, lookup.ByCode())
	assert.Equal(t, "CB280826AB12", lookup.Code)
}

func TestParseBookingLookupNormalizesCase(t *testing.T) {
	lookup, err := parseBookingLookup("cb280826ab12")
	require.Nil(t, err)
	assert.True(t, lookup.ByCode())
	assert.Equal(t, "CB280826AB12", lookup.Code)
}

func TestParseBookingLookupRejectsGarbage(t *testing.T) {
	for _, param := range []string{"", "  ", "XY123", "booking-42"} {
		_, err := parseBookingLookup(param)
		require.NotNil(t, err, "параметр %q", param)
		assert.Equal(t, apperrors.KindValidation, err.Kind)
	}
}
