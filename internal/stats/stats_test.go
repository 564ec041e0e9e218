package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaslibhub/crawler/internal/domain"
)

type fakeStore struct {
	byType    map[domain.ScriptType]int64
	summaries int64
	recent    []*domain.CatalogEntry
	countErr  error

	recentCalls int
}

func (f *fakeStore) IsDuplicate(ctx context.Context, scriptID string) (bool, error) { return false, nil }
func (f *fakeStore) SaveLibrary(ctx context.Context, data *domain.ScrapedLibraryData) (string, error) {
	return "", nil
}
func (f *fakeStore) FindByRepoURL(ctx context.Context, repoURL string) (*domain.CatalogEntry, error) {
	return nil, nil
}
func (f *fakeStore) HasSummary(ctx context.Context, libraryID string) (bool, error) {
	return false, nil
}
func (f *fakeStore) SaveSummary(ctx context.Context, libraryID string, s *domain.Summary) error {
	return nil
}
func (f *fakeStore) ListRecent(ctx context.Context, limit int) ([]*domain.CatalogEntry, error) {
	f.recentCalls++
	return f.recent, nil
}
func (f *fakeStore) ListForRefresh(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error) {
	return nil, nil
}
func (f *fakeStore) CountByType(ctx context.Context) (map[domain.ScriptType]int64, error) {
	return f.byType, f.countErr
}
func (f *fakeStore) CountSummaries(ctx context.Context) (int64, error) { return f.summaries, nil }
func (f *fakeStore) Migrate(ctx context.Context) error                 { return nil }
func (f *fakeStore) Close() error                                      { return nil }

func TestCollect(t *testing.T) {
	store := &fakeStore{
		byType: map[domain.ScriptType]int64{
			domain.ScriptTypeLibrary: 12,
			domain.ScriptTypeWebApp:  3,
		},
		summaries: 8,
	}

	s, err := NewCollector(store).Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(15), s.TotalLibraries)
	assert.Equal(t, int64(8), s.Summaries)
	assert.Nil(t, s.Recent)
	assert.Zero(t, store.recentCalls, "recentLimit 0 skips the listing")
}

func TestCollectWithRecent(t *testing.T) {
	store := &fakeStore{
		byType: map[domain.ScriptType]int64{domain.ScriptTypeLibrary: 1},
		recent: []*domain.CatalogEntry{{ID: "lib-1", Name: "sheet-utils"}},
	}

	s, err := NewCollector(store).Collect(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, s.Recent, 1)
	assert.Equal(t, "sheet-utils", s.Recent[0].Name)
}

func TestCollectCountError(t *testing.T) {
	store := &fakeStore{countErr: errors.New("db closed")}

	_, err := NewCollector(store).Collect(context.Background(), 0)
	assert.Error(t, err)
}
