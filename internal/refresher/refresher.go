// Package refresher implements the maintenance job that re-scrapes catalog
// entries already ingested, updating their metadata and regenerating stale
// summaries. Unlike the ingestion pipeline, a batch of entries is processed
// with bounded parallelism, with a delay between batches.
package refresher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gaslibhub/crawler/internal/domain"
	"github.com/gaslibhub/crawler/internal/storage"
	"github.com/gaslibhub/crawler/internal/summary"
)

// RepoScraper turns one repository URL into a ScrapeResult.
type RepoScraper interface {
	Scrape(ctx context.Context, repoURL string) domain.ScrapeResult
}

// Result tallies one refresh run.
type Result struct {
	Processed int
	Updated   int
	Failed    int
}

// Refresher re-scrapes existing catalog entries in batches.
type Refresher struct {
	store      storage.Storage
	scrape     RepoScraper
	gate       *summary.Gate
	generate   func(ctx context.Context, sourceURL, readme string) (*domain.Summary, error)
	batchSize  int
	batchDelay time.Duration
	log        *slog.Logger
}

// New creates a Refresher. generate may be nil to disable summary
// regeneration.
func New(store storage.Storage, scrape RepoScraper, gate *summary.Gate,
	generate func(ctx context.Context, sourceURL, readme string) (*domain.Summary, error),
	batchSize int, batchDelay time.Duration, log *slog.Logger) *Refresher {
	if batchSize < 1 {
		batchSize = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{
		store:      store,
		scrape:     scrape,
		gate:       gate,
		generate:   generate,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		log:        log,
	}
}

// snapshotPage is the listing page size used when collecting the work list.
const snapshotPage = 100

// Run refreshes up to limit entries (0 means all). Entries in a batch run
// concurrently; batches run one after another with the configured delay.
func (r *Refresher) Run(ctx context.Context, limit int) (*Result, error) {
	out := &Result{}

	// snapshot the work list before touching anything: every save bumps
	// updated_at, which reorders the oldest-first listing and would shift
	// an offset-based walk onto rows already refreshed
	var entries []*domain.CatalogEntry
	for offset := 0; ; offset += snapshotPage {
		page, err := r.store.ListForRefresh(ctx, snapshotPage, offset)
		if err != nil {
			return out, err
		}
		entries = append(entries, page...)
		if len(page) < snapshotPage {
			break
		}
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	for start := 0; start < len(entries); start += r.batchSize {
		end := start + r.batchSize
		if end > len(entries) {
			end = len(entries)
		}

		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, entry := range entries[start:end] {
			wg.Add(1)
			go func(e *domain.CatalogEntry) {
				defer wg.Done()
				ok := r.refreshEntry(ctx, e)
				mu.Lock()
				out.Processed++
				if ok {
					out.Updated++
				} else {
					out.Failed++
				}
				mu.Unlock()
			}(entry)
		}
		wg.Wait()

		if end < len(entries) && r.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(r.batchDelay):
			}
		}
	}

	r.log.Info("refresh finished", "processed", out.Processed, "updated", out.Updated, "failed", out.Failed)
	return out, nil
}

func (r *Refresher) refreshEntry(ctx context.Context, entry *domain.CatalogEntry) bool {
	sr := r.scrape.Scrape(ctx, entry.RepositoryURL)
	if !sr.Success {
		r.log.Warn("refresh scrape failed", "repo", entry.RepositoryURL, "error", sr.Error)
		return false
	}

	regenerate := false
	if r.gate != nil && r.generate != nil {
		should, err := r.gate.ShouldGenerate(ctx, entry.RepositoryURL, sr.Data.LastCommitAt)
		if err != nil {
			r.log.Warn("refresh gate lookup failed", "repo", entry.RepositoryURL, "error", err)
		} else {
			regenerate = should
		}
	}

	id, err := r.store.SaveLibrary(ctx, sr.Data)
	if err != nil {
		r.log.Warn("refresh save failed", "repo", entry.RepositoryURL, "error", err)
		return false
	}

	if regenerate {
		s, err := r.generate(ctx, entry.RepositoryURL, sr.Data.Readme)
		if err != nil {
			r.log.Warn("refresh summary generation failed", "repo", entry.RepositoryURL, "error", err)
			return true // entry itself was updated
		}
		if err := r.store.SaveSummary(ctx, id, s); err != nil {
			r.log.Warn("refresh summary save failed", "repo", entry.RepositoryURL, "error", err)
		}
	}
	return true
}
