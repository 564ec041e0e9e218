// Package crawler drives the discovery-and-ingestion pipeline across a page
// range: search, scrape, staleness filter, duplicate check, persistence,
// and conditional summary generation.
//
// Repositories within a page and pages within a range are processed
// strictly sequentially: a single worker with explicit delays keeps the
// request rate inside the shared GitHub quota.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gaslibhub/crawler/internal/domain"
	apperrors "github.com/gaslibhub/crawler/internal/errors"
	"github.com/gaslibhub/crawler/internal/metrics"
)

// Searcher provides single-page topic search.
type Searcher interface {
	SearchPage(ctx context.Context, tags []string, page, perPage int, sort string) domain.TagSearchResult
}

// RepoScraper turns one repository URL into a ScrapeResult.
type RepoScraper interface {
	Scrape(ctx context.Context, repoURL string) domain.ScrapeResult
}

// Options parameterizes one orchestrated run. The optional pipeline steps
// (duplicate check, save, summary generation) are enabled by supplying the
// matching callback; a nil callback skips its step. The callbacks are the
// only contact the orchestrator has with the catalog store.
type Options struct {
	Tags      []string
	StartPage int
	EndPage   int
	PerPage   int
	Sort      string

	// StaleYears excludes repositories whose last commit is older than
	// this many years. 0 disables the filter.
	StaleYears int

	RequestDelay time.Duration
	PageDelay    time.Duration

	CheckDuplicate  func(ctx context.Context, scriptID string) (bool, error)
	Save            func(ctx context.Context, data *domain.ScrapedLibraryData, generateSummary bool) (string, error)
	ShouldSummarize func(ctx context.Context, repoURL string, commitAt time.Time) (bool, error)
	GenerateSummary func(ctx context.Context, sourceURL, readme string) (*domain.Summary, error)
	SaveSummary     func(ctx context.Context, catalogID string, s *domain.Summary) error

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// MaxLoggedErrors caps how many error messages are echoed to the log
	// at the end of a run.
	MaxLoggedErrors int

	// now is replaceable in tests.
	now func() time.Time
}

// Crawler runs the bulk ingestion pipeline.
type Crawler struct {
	search Searcher
	scrape RepoScraper
	opts   Options
}

// New creates a Crawler. Returns an error for configuration-level problems;
// those are the only errors this package propagates.
func New(search Searcher, scrape RepoScraper, opts Options) (*Crawler, error) {
	if opts.StartPage < 1 {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("start page must be >= 1, got %d", opts.StartPage))
	}
	if opts.EndPage < opts.StartPage {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("end page %d is before start page %d", opts.EndPage, opts.StartPage))
	}
	if opts.PerPage < 1 {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("page size must be >= 1, got %d", opts.PerPage))
	}
	if len(opts.Tags) == 0 {
		return nil, apperrors.NewBadRequestError("at least one search tag is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxLoggedErrors == 0 {
		opts.MaxLoggedErrors = 10
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	return &Crawler{search: search, scrape: scrape, opts: opts}, nil
}

// Run executes the pipeline over the configured page range. One failing
// repository never aborts its page, and a run is successful when at least
// one repository was ingested.
func (c *Crawler) Run(ctx context.Context) *domain.BulkScrapeResult {
	out := &domain.BulkScrapeResult{}
	log := c.opts.Logger

	for page := c.opts.StartPage; page <= c.opts.EndPage; page++ {
		res := c.search.SearchPage(ctx, c.opts.Tags, page, c.opts.PerPage, c.opts.Sort)
		c.countSearchPage()
		if page == c.opts.StartPage {
			out.Total = res.TotalCount
		}
		if !res.Success {
			log.Error("search page failed, stopping scan", "page", page, "error", res.Error)
			break
		}
		if len(res.Repositories) == 0 {
			log.Info("empty search page, scan exhausted", "page", page)
			break
		}

		log.Info("processing page", "page", page, "repositories", len(res.Repositories))
		for i, repo := range res.Repositories {
			c.processRepository(ctx, repo, out)
			if i < len(res.Repositories)-1 && c.opts.RequestDelay > 0 {
				if sleep(ctx, c.opts.RequestDelay) != nil {
					break
				}
			}
		}

		if page < c.opts.EndPage && c.opts.PageDelay > 0 {
			if sleep(ctx, c.opts.PageDelay) != nil {
				break
			}
		}
	}

	out.Success = out.SuccessCount > 0
	c.logTally(out)
	return out
}

func (c *Crawler) processRepository(ctx context.Context, repo domain.RepositoryRef, out *domain.BulkScrapeResult) {
	log := c.opts.Logger

	started := c.opts.now()
	sr := c.scrape.Scrape(ctx, repo.URL)
	c.observeScrape(time.Since(started))
	if !sr.Success {
		log.Warn("scrape failed", "repo", repo.FullName, "error", sr.Error)
		c.recordError(out, sr)
		return
	}
	data := sr.Data

	if c.opts.StaleYears > 0 {
		cutoff := c.opts.now().AddDate(-c.opts.StaleYears, 0, 0)
		if data.LastCommitAt.Before(cutoff) {
			// old, unmaintained repositories are excluded by design;
			// not an error, not a result
			log.Debug("skipping stale repository", "repo", repo.FullName, "last_commit", data.LastCommitAt)
			c.count(metrics.OutcomeStale)
			return
		}
	}

	if c.opts.CheckDuplicate != nil {
		dup, err := c.opts.CheckDuplicate(ctx, data.ScriptID)
		if err != nil {
			c.recordError(out, domain.ScrapeResult{Error: fmt.Sprintf("duplicate check failed for %s: %v", data.ScriptID, err)})
			return
		}
		if dup {
			log.Debug("skipping duplicate", "repo", repo.FullName, "script_id", data.ScriptID)
			out.DuplicateCount++
			c.count(metrics.OutcomeDuplicate)
			return
		}
	}

	// gate decision happens before the save so the callback can persist
	// entry and decision together
	generateSummary := false
	if c.opts.ShouldSummarize != nil {
		should, err := c.opts.ShouldSummarize(ctx, data.RepositoryURL, data.LastCommitAt)
		if err != nil {
			log.Warn("summary gate lookup failed, skipping summary", "repo", repo.FullName, "error", err)
		} else {
			generateSummary = should
		}
	}

	if c.opts.Save == nil {
		out.Results = append(out.Results, sr)
		out.SuccessCount++
		c.count(metrics.OutcomeSuccess)
		return
	}

	catalogID, err := c.opts.Save(ctx, data, generateSummary)
	if err != nil {
		c.recordError(out, domain.ScrapeResult{Error: fmt.Sprintf("failed to save %s: %v", repo.FullName, err)})
		return
	}
	out.Results = append(out.Results, sr)
	out.SuccessCount++
	c.count(metrics.OutcomeSuccess)

	if generateSummary && c.opts.GenerateSummary != nil {
		c.generateAndSaveSummary(ctx, catalogID, data)
	}
}

// generateAndSaveSummary calls the external summarization service. Any
// failure here is logged and swallowed: a catalog entry without a summary
// is acceptable, a summary without a catalog entry is not.
func (c *Crawler) generateAndSaveSummary(ctx context.Context, catalogID string, data *domain.ScrapedLibraryData) {
	log := c.opts.Logger
	s, err := c.opts.GenerateSummary(ctx, data.RepositoryURL, data.Readme)
	if err != nil {
		log.Warn("summary generation failed", "repo", data.RepositoryURL, "error", err)
		c.countSummary(metrics.OutcomeError)
		return
	}
	if c.opts.SaveSummary != nil {
		if err := c.opts.SaveSummary(ctx, catalogID, s); err != nil {
			log.Warn("failed to save summary", "repo", data.RepositoryURL, "error", err)
			c.countSummary(metrics.OutcomeError)
			return
		}
	}
	c.countSummary(metrics.OutcomeSuccess)
}

func (c *Crawler) recordError(out *domain.BulkScrapeResult, sr domain.ScrapeResult) {
	sr.Success = false
	sr.Data = nil
	out.Results = append(out.Results, sr)
	out.ErrorCount++
	c.count(metrics.OutcomeError)
}

func (c *Crawler) logTally(out *domain.BulkScrapeResult) {
	log := c.opts.Logger
	log.Info("crawl finished",
		"total", out.Total,
		"success", out.SuccessCount,
		"errors", out.ErrorCount,
		"duplicates", out.DuplicateCount,
	)
	logged := 0
	for _, r := range out.Results {
		if r.Success {
			continue
		}
		if logged == c.opts.MaxLoggedErrors {
			log.Info("further errors omitted", "remaining", out.ErrorCount-logged)
			break
		}
		log.Warn("ingestion error", "error", r.Error)
		logged++
	}
}

func (c *Crawler) count(outcome string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.ReposProcessed.WithLabelValues(outcome).Inc()
	}
}

func (c *Crawler) countSearchPage() {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SearchPages.Inc()
	}
}

func (c *Crawler) countSummary(outcome string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SummaryCalls.WithLabelValues(outcome).Inc()
	}
}

func (c *Crawler) observeScrape(d time.Duration) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.ScrapeSeconds.Observe(d.Seconds())
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
