package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMatchesExactLead_OnlyExactDayMatches(t *testing.T) {
	expiry := day(2026, 9, 20)

	assert.True(t, MatchesExactLead(expiry, day(2026, 9, 5), 15))

	// One day either side must not match; this is not a window check.
	assert.False(t, MatchesExactLead(expiry, day(2026, 9, 4), 15))
	assert.False(t, MatchesExactLead(expiry, day(2026, 9, 6), 15))

	// Same day with zero lead.
	assert.True(t, MatchesExactLead(expiry, day(2026, 9, 20), 0))
}

func TestMatchesExactLead_IgnoresTimeOfDay(t *testing.T) {
	expiry := time.Date(2026, 9, 20, 18, 45, 0, 0, time.UTC)
	asOf := time.Date(2026, 9, 13, 2, 0, 0, 0, time.UTC)

	assert.True(t, MatchesExactLead(expiry, asOf, 7))
}

func TestDocumentKindByName(t *testing.T) {
	info, ok := DocumentKindByName(DocumentKindPucc)
	require.True(t, ok)
	assert.Equal(t, "puccs", info.Table)
	assert.Equal(t, "valid_until", info.ExpiryColumn)
	assert.Equal(t, "PUCC", info.Label)

	_, ok = DocumentKindByName(DocumentKind("registration"))
	assert.False(t, ok)
}

func TestAllDocumentKinds_CoversEveryTrackedTable(t *testing.T) {
	kinds := AllDocumentKinds()
	require.Len(t, kinds, 7)

	tables := make(map[string]bool, len(kinds))
	for _, info := range kinds {
		tables[info.Table] = true
	}
	for _, want := range []string{"taxes", "insurances", "fitnesses", "permits", "puccs", "vltds", "speed_governors"} {
		assert.True(t, tables[want], "missing kind for table %s", want)
	}
}
