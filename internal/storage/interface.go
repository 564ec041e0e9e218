package storage

import (
	"context"

	"github.com/gaslibhub/crawler/internal/domain"
)

// Storage is the abstract interface for the catalog persistence layer.
type Storage interface {
	// Ingestion operations
	IsDuplicate(ctx context.Context, scriptID string) (bool, error)
	SaveLibrary(ctx context.Context, data *domain.ScrapedLibraryData) (string, error)

	// Summary gate lookups
	FindByRepoURL(ctx context.Context, repoURL string) (*domain.CatalogEntry, error)
	HasSummary(ctx context.Context, libraryID string) (bool, error)
	SaveSummary(ctx context.Context, libraryID string, s *domain.Summary) error

	// Catalog queries
	ListRecent(ctx context.Context, limit int) ([]*domain.CatalogEntry, error)
	ListForRefresh(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error)
	CountByType(ctx context.Context) (map[domain.ScriptType]int64, error)
	CountSummaries(ctx context.Context) (int64, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
