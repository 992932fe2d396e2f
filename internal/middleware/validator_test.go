package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"brand.a_1", false},
		{"", true},
		{"bad name", true},
		{"x/../y", true},
	}
	for _, tt := range tests {
		err := ValidateUsername(tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
	}
}

func TestValidatePostID(t *testing.T) {
	assert.NoError(t, ValidatePostID("C3x_Yz-1"))
	assert.Error(t, ValidatePostID(""))
	assert.Error(t, ValidatePostID("a;b"))
}

func TestValidatePeriod(t *testing.T) {
	for _, p := range []string{"", "daily", "weekly", "monthly"} {
		assert.NoError(t, ValidatePeriod(p))
	}
	assert.Error(t, ValidatePeriod("yearly"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-05-03T10:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, 7, d.Hour())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("03/05/2024")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b,"))
	assert.Nil(t, SplitList(""))
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 30, ValidateDays(0, 30))
	assert.Equal(t, 7, ValidateDays(-1, 7))
	assert.Equal(t, 365, ValidateDays(1000, 30))
	assert.Equal(t, 14, ValidateDays(14, 30))
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString(" hello\x00 world\x07 "))
}
