package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-01-02T15:04:05+02:00")
	require.NoError(t, err)
	assert.Equal(t, 13, d.Hour())
	assert.Equal(t, time.UTC, d.Location())

	for _, bad := range []string{"", "tomorrow", "02/01/2026"} {
		_, err = ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}
