package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaslibhub/crawler/internal/domain"
)

type fakeLookup struct {
	entry      *domain.CatalogEntry
	hasSummary bool
	findErr    error
	hasErr     error

	hasCalls int
}

func (f *fakeLookup) FindByRepoURL(ctx context.Context, repoURL string) (*domain.CatalogEntry, error) {
	return f.entry, f.findErr
}

func (f *fakeLookup) HasSummary(ctx context.Context, libraryID string) (bool, error) {
	f.hasCalls++
	return f.hasSummary, f.hasErr
}

var commitAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func existingEntry(lastCommit time.Time) *domain.CatalogEntry {
	return &domain.CatalogEntry{
		ID:            "lib-1",
		Name:          "sheet-utils",
		RepositoryURL: "https://github.com/alice/sheet-utils",
		LastCommitAt:  lastCommit,
	}
}

func TestGateStatusNewEntry(t *testing.T) {
	gate := NewGate(&fakeLookup{entry: nil})

	status, err := gate.Status(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.True(t, status.IsNew)
	assert.False(t, status.ShouldUpdate)
	assert.Empty(t, status.ExistingID)
}

func TestGateStatusCommitChanged(t *testing.T) {
	gate := NewGate(&fakeLookup{entry: existingEntry(commitAt.Add(-24 * time.Hour))})

	status, err := gate.Status(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.False(t, status.IsNew)
	assert.True(t, status.ShouldUpdate)
	assert.Equal(t, "lib-1", status.ExistingID)
}

func TestGateStatusUnchanged(t *testing.T) {
	gate := NewGate(&fakeLookup{entry: existingEntry(commitAt)})

	status, err := gate.Status(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.False(t, status.IsNew)
	assert.False(t, status.ShouldUpdate)
}

func TestShouldGenerateNewEntry(t *testing.T) {
	lookup := &fakeLookup{entry: nil}
	gate := NewGate(lookup)

	ok, err := gate.ShouldGenerate(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, lookup.hasCalls, "summary existence must not be checked for new entries")
}

func TestShouldGenerateCommitChanged(t *testing.T) {
	lookup := &fakeLookup{entry: existingEntry(commitAt.Add(time.Hour)), hasSummary: true}
	gate := NewGate(lookup)

	ok, err := gate.ShouldGenerate(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.True(t, ok, "a changed commit regenerates even when a summary exists")
	assert.Zero(t, lookup.hasCalls)
}

func TestShouldGenerateMissingSummary(t *testing.T) {
	lookup := &fakeLookup{entry: existingEntry(commitAt), hasSummary: false}
	gate := NewGate(lookup)

	ok, err := gate.ShouldGenerate(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, lookup.hasCalls)
}

func TestShouldGenerateAllSatisfied(t *testing.T) {
	lookup := &fakeLookup{entry: existingEntry(commitAt), hasSummary: true}
	gate := NewGate(lookup)

	ok, err := gate.ShouldGenerate(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	require.NoError(t, err)
	assert.False(t, ok, "unchanged entry with a summary skips the metered call")
}

func TestShouldGenerateLookupError(t *testing.T) {
	gate := NewGate(&fakeLookup{findErr: errors.New("connection refused")})

	_, err := gate.ShouldGenerate(context.Background(), "https://github.com/alice/sheet-utils", commitAt)
	assert.Error(t, err)
}
