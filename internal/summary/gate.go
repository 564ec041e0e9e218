// Package summary decides when the metered AI summarization service must be
// called, and provides the Gemini-backed implementation of that service.
package summary

import (
	"context"
	"time"

	"github.com/gaslibhub/crawler/internal/domain"
)

// EntryLookup is the catalog capability the gate needs. FindByRepoURL
// returns nil when no entry exists.
type EntryLookup interface {
	FindByRepoURL(ctx context.Context, repoURL string) (*domain.CatalogEntry, error)
	HasSummary(ctx context.Context, libraryID string) (bool, error)
}

// Gate is the cost-control decision for summary (re)generation. A summary
// is generated when the entry is new, when the stored commit timestamp
// differs from the scraped one, or when an existing entry has no summary
// yet. Only when all three conditions fail is the call skipped.
type Gate struct {
	lookup EntryLookup
}

// NewGate creates a Gate over the given catalog lookup.
func NewGate(lookup EntryLookup) *Gate {
	return &Gate{lookup: lookup}
}

// Status compares the scraped commit timestamp against the stored entry.
func (g *Gate) Status(ctx context.Context, repoURL string, scrapedCommitAt time.Time) (domain.CommitStatus, error) {
	entry, err := g.lookup.FindByRepoURL(ctx, repoURL)
	if err != nil {
		return domain.CommitStatus{}, err
	}
	if entry == nil {
		return domain.CommitStatus{IsNew: true}, nil
	}
	return domain.CommitStatus{
		ShouldUpdate: !entry.LastCommitAt.Equal(scrapedCommitAt),
		ExistingID:   entry.ID,
	}, nil
}

// ShouldGenerate reports whether a summary must be (re)generated for the
// repository on this run.
func (g *Gate) ShouldGenerate(ctx context.Context, repoURL string, scrapedCommitAt time.Time) (bool, error) {
	status, err := g.Status(ctx, repoURL, scrapedCommitAt)
	if err != nil {
		return false, err
	}
	if status.IsNew || status.ShouldUpdate {
		return true, nil
	}
	has, err := g.lookup.HasSummary(ctx, status.ExistingID)
	if err != nil {
		return false, err
	}
	return !has, nil
}
