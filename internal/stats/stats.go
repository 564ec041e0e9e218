// Package stats aggregates catalog-level figures from the storage layer.
package stats

import (
	"context"
	"fmt"

	"github.com/gaslibhub/crawler/internal/domain"
	"github.com/gaslibhub/crawler/internal/storage"
)

// CatalogStats are the aggregate figures for the stored catalog.
type CatalogStats struct {
	TotalLibraries int64                       `json:"total_libraries"`
	ByType         map[domain.ScriptType]int64 `json:"by_type"`
	Summaries      int64                       `json:"summaries"`
	Recent         []*domain.CatalogEntry      `json:"recent,omitempty"`
}

// Collector computes catalog statistics.
type Collector struct {
	store storage.Storage
}

// NewCollector creates a Collector over the given store.
func NewCollector(store storage.Storage) *Collector {
	return &Collector{store: store}
}

// Collect gathers totals, per-type counts, summary count, and the
// recentLimit most recently updated entries (0 skips the listing).
func (c *Collector) Collect(ctx context.Context, recentLimit int) (*CatalogStats, error) {
	byType, err := c.store.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count libraries: %w", err)
	}

	var total int64
	for _, n := range byType {
		total += n
	}

	summaries, err := c.store.CountSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count summaries: %w", err)
	}

	out := &CatalogStats{
		TotalLibraries: total,
		ByType:         byType,
		Summaries:      summaries,
	}
	if recentLimit > 0 {
		recent, err := c.store.ListRecent(ctx, recentLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent libraries: %w", err)
		}
		out.Recent = recent
	}
	return out, nil
}
