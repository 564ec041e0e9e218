package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/gaslibhub/crawler/internal/config"
	"github.com/gaslibhub/crawler/internal/crawler"
	"github.com/gaslibhub/crawler/internal/domain"
	"github.com/gaslibhub/crawler/internal/github"
	"github.com/gaslibhub/crawler/internal/metrics"
	"github.com/gaslibhub/crawler/internal/refresher"
	"github.com/gaslibhub/crawler/internal/scraper"
	"github.com/gaslibhub/crawler/internal/stats"
	"github.com/gaslibhub/crawler/internal/storage"
	"github.com/gaslibhub/crawler/internal/storage/postgres"
	"github.com/gaslibhub/crawler/internal/storage/sqlite"
	"github.com/gaslibhub/crawler/internal/summary"
	apiclient "github.com/gaslibhub/crawler/pkg/client"
)

var (
	verbose bool

	crawlTags      []string
	crawlStartPage int
	crawlEndPage   int
	crawlPerPage   int
	crawlSort      string
	crawlSummaries bool
	crawlDryRun    bool

	refreshLimit     int
	refreshBatchSize int

	statsRemote string
)

var rootCmd = &cobra.Command{
	Use:   "gas-crawler",
	Short: "Google Apps Script library catalog crawler",
	Long: `A crawler that discovers Google Apps Script libraries and web apps on
GitHub via topic search, extracts their script identifiers from READMEs,
and ingests them into a catalog with optional AI-generated summaries.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover and ingest repositories",
	Long:  `Search GitHub by topic tags over a page range, scrape each repository, and ingest qualifying ones into the catalog.`,
	RunE:  runCrawl,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh existing catalog entries",
	Long:  `Re-scrape repositories already in the catalog, updating metadata and regenerating summaries where the commit timestamp moved.`,
	RunE:  runRefresh,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	crawlCmd.Flags().StringSliceVar(&crawlTags, "tags", nil, "topic tags to search (defaults to CRAWL_TAGS)")
	crawlCmd.Flags().IntVar(&crawlStartPage, "start-page", 1, "first search page")
	crawlCmd.Flags().IntVar(&crawlEndPage, "end-page", 1, "last search page")
	crawlCmd.Flags().IntVar(&crawlPerPage, "per-page", 30, "repositories per search page")
	crawlCmd.Flags().StringVar(&crawlSort, "sort", "updated", "search sort order (stars, forks, updated, or empty for best match)")
	crawlCmd.Flags().BoolVar(&crawlSummaries, "summaries", true, "generate AI summaries for new or changed entries")
	crawlCmd.Flags().BoolVar(&crawlDryRun, "dry-run", false, "scrape and classify without persisting anything")

	refreshCmd.Flags().IntVar(&refreshLimit, "limit", 0, "maximum entries to refresh (0 = all)")
	refreshCmd.Flags().IntVar(&refreshBatchSize, "batch-size", 5, "entries refreshed concurrently per batch")

	statsCmd.Flags().StringVar(&statsRemote, "remote", "", "query a running status API instead of the local store")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	tags := crawlTags
	if len(tags) == 0 {
		tags = cfg.Tags
	}

	ghClient := github.NewClient(cfg.GitHubToken,
		github.WithRequestsPerHour(cfg.MaxRequestsPerHour))
	scr := scraper.New(ghClient, nil, nil, slog.Default())

	reg := prometheus.NewRegistry()
	opts := crawler.Options{
		Tags:         tags,
		StartPage:    crawlStartPage,
		EndPage:      crawlEndPage,
		PerPage:      crawlPerPage,
		Sort:         crawlSort,
		StaleYears:   cfg.StaleYears,
		RequestDelay: cfg.RequestDelay,
		PageDelay:    cfg.PageDelay,
		Metrics:      metrics.New(reg),
		Logger:       slog.Default(),
	}

	var store storage.Storage
	if !crawlDryRun {
		store, err = getStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		opts.CheckDuplicate = store.IsDuplicate
		opts.Save = func(ctx context.Context, data *domain.ScrapedLibraryData, generateSummary bool) (string, error) {
			return store.SaveLibrary(ctx, data)
		}

		if crawlSummaries && cfg.GeminiAPIKey != "" {
			gate := summary.NewGate(store)
			opts.ShouldSummarize = gate.ShouldGenerate

			svc, err := summary.NewGeminiService(cmd.Context(), cfg.GeminiAPIKey, cfg.GeminiModel, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to initialize summary service: %w", err)
			}
			opts.GenerateSummary = svc.Generate
			opts.SaveSummary = store.SaveSummary
		} else if crawlSummaries {
			slog.Warn("GEMINI_API_KEY not set, summaries disabled")
		}
	}

	c, err := crawler.New(ghClient, scr, opts)
	if err != nil {
		return err
	}

	slog.Info("starting crawl",
		"tags", strings.Join(tags, ","),
		"pages", fmt.Sprintf("%d-%d", crawlStartPage, crawlEndPage),
		"per_page", crawlPerPage,
		"dry_run", crawlDryRun,
	)
	res := c.Run(cmd.Context())

	if cfg.PushgatewayURL != "" {
		if err := push.New(cfg.PushgatewayURL, "gas_crawler").Gatherer(reg).Push(); err != nil {
			slog.Warn("failed to push metrics", "gateway", cfg.PushgatewayURL, "error", err)
		}
	}

	fmt.Printf("\nCrawl complete: %d matched, %d ingested, %d failed, %d duplicates\n",
		res.Total, res.SuccessCount, res.ErrorCount, res.DuplicateCount)
	if !res.Success {
		return fmt.Errorf("no repositories were ingested")
	}
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ghClient := github.NewClient(cfg.GitHubToken,
		github.WithRequestsPerHour(cfg.MaxRequestsPerHour))
	scr := scraper.New(ghClient, nil, nil, slog.Default())

	var generate func(ctx context.Context, sourceURL, readme string) (*domain.Summary, error)
	if cfg.GeminiAPIKey != "" {
		svc, err := summary.NewGeminiService(cmd.Context(), cfg.GeminiAPIKey, cfg.GeminiModel, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to initialize summary service: %w", err)
		}
		generate = svc.Generate
	}

	ref := refresher.New(store, scr, summary.NewGate(store), generate,
		refreshBatchSize, cfg.PageDelay, slog.Default())

	res, err := ref.Run(cmd.Context(), refreshLimit)
	if err != nil {
		return err
	}
	fmt.Printf("\nRefresh complete: %d processed, %d updated, %d failed\n",
		res.Processed, res.Updated, res.Failed)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	var catalogStats *stats.CatalogStats

	if statsRemote != "" {
		c := apiclient.NewClient(statsRemote)
		s, err := c.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to query status API: %w", err)
		}
		catalogStats = s
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		store, err := getStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		catalogStats, err = stats.NewCollector(store).Collect(cmd.Context(), 10)
		if err != nil {
			return fmt.Errorf("failed to collect stats: %w", err)
		}
	}

	fmt.Println("\nCatalog Statistics")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Total Entries", fmt.Sprintf("%d", catalogStats.TotalLibraries)})
	table.Append([]string{"Libraries", fmt.Sprintf("%d", catalogStats.ByType[domain.ScriptTypeLibrary])})
	table.Append([]string{"Web Apps", fmt.Sprintf("%d", catalogStats.ByType[domain.ScriptTypeWebApp])})
	table.Append([]string{"Summaries", fmt.Sprintf("%d", catalogStats.Summaries)})
	table.Render()

	if len(catalogStats.Recent) > 0 {
		fmt.Println("\nRecently Updated")
		recent := tablewriter.NewWriter(os.Stdout)
		recent.SetHeader([]string{"Name", "Type", "Stars", "Last Commit"})
		for _, e := range catalogStats.Recent {
			recent.Append([]string{
				e.Name,
				string(e.ScriptType),
				fmt.Sprintf("%d", e.StarCount),
				e.LastCommitAt.Format(time.DateOnly),
			})
		}
		recent.Render()
	}
	return nil
}
