package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-15T08:30:00Z": time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		"2024-01-15 08:30:00":  time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		"2024-01-15":           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"20240115":             time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got := ParseTime(input)
		require.NotNil(t, got, input)
		assert.True(t, got.Equal(want), input)
	}

	assert.Nil(t, ParseTime(""))
	assert.Nil(t, ParseTime("not a date"))
}
