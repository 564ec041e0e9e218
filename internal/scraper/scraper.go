// Package scraper turns one repository URL into a normalized ingestion
// record: metadata, README, and last-commit date fetched concurrently,
// followed by script-identifier classification.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gaslibhub/crawler/internal/classifier"
	"github.com/gaslibhub/crawler/internal/domain"
	apperrors "github.com/gaslibhub/crawler/internal/errors"
)

// GitHubClient is the subset of the API client the scraper needs.
type GitHubClient interface {
	FetchRepositoryInfo(ctx context.Context, owner, repo string) (*domain.RepositoryRef, error)
	FetchReadme(ctx context.Context, owner, repo string) (string, bool)
	FetchLastCommitDate(ctx context.Context, owner, repo string) (time.Time, bool)
}

// Scraper produces ScrapeResults for individual repositories.
type Scraper struct {
	client       GitHubClient
	idPatterns   []classifier.Pattern
	filePatterns []*regexp.Regexp
	log          *slog.Logger
}

// New creates a Scraper. Nil pattern slices select the classifier defaults.
func New(client GitHubClient, idPatterns []classifier.Pattern, filePatterns []*regexp.Regexp, log *slog.Logger) *Scraper {
	if log == nil {
		log = slog.Default()
	}
	return &Scraper{
		client:       client,
		idPatterns:   idPatterns,
		filePatterns: filePatterns,
		log:          log,
	}
}

// ParseRepoURL splits a github.com repository URL into owner and repo.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, parseErr := url.Parse(repoURL)
	if parseErr != nil {
		return "", "", apperrors.NewInvalidRepoURLError(repoURL)
	}
	host := strings.ToLower(u.Host)
	if host != "github.com" && host != "www.github.com" {
		return "", "", apperrors.NewInvalidRepoURLError(repoURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apperrors.NewInvalidRepoURLError(repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// Scrape fetches and classifies one repository. The three fetches are
// independent and run concurrently; there is no ordering between them.
func (s *Scraper) Scrape(ctx context.Context, repoURL string) domain.ScrapeResult {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return failure(err.Error())
	}

	var (
		info     *domain.RepositoryRef
		infoErr  error
		readme   string
		commitAt time.Time
		commitOK bool
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		info, infoErr = s.client.FetchRepositoryInfo(ctx, owner, repo)
	}()
	go func() {
		defer wg.Done()
		readme, _ = s.client.FetchReadme(ctx, owner, repo)
	}()
	go func() {
		defer wg.Done()
		commitAt, commitOK = s.client.FetchLastCommitDate(ctx, owner, repo)
	}()
	wg.Wait()

	// the fetches report cancellation as absence; surface it as what it is
	// instead of a misleading missing-data error
	if err := ctx.Err(); err != nil {
		return failure(fmt.Sprintf("scrape cancelled for %s/%s: %v", owner, repo, err))
	}

	if infoErr != nil {
		return failure(fmt.Sprintf("failed to fetch repository info for %s/%s: %v", owner, repo, infoErr))
	}
	if !commitOK {
		return failure(fmt.Sprintf("no last-commit date available for %s/%s", owner, repo))
	}

	cls, ok := classifier.Classify(readme, owner, repo, s.idPatterns, s.filePatterns)
	if !ok {
		return failure(fmt.Sprintf("no script identifier found in %s/%s", owner, repo))
	}

	s.log.Debug("scraped repository", "repo", info.FullName, "script_id", cls.ScriptID, "type", cls.ScriptType)

	data := &domain.ScrapedLibraryData{
		Name:          info.Name,
		ScriptID:      cls.ScriptID,
		ScriptType:    cls.ScriptType,
		RepositoryURL: info.URL,
		AuthorName:    info.OwnerName,
		AuthorURL:     info.OwnerURL,
		Description:   info.Description,
		LicenseType:   info.LicenseName,
		LicenseURL:    info.LicenseURL,
		StarCount:     info.StarCount,
		LastCommitAt:  commitAt,
		Status:        domain.StatusPending,
	}
	if cls.ScriptType == domain.ScriptTypeLibrary {
		data.Readme = readme
	}
	return domain.ScrapeResult{Success: true, Data: data}
}

func failure(msg string) domain.ScrapeResult {
	return domain.ScrapeResult{Success: false, Error: msg}
}
