package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaslibhub/crawler/internal/domain"
	apperrors "github.com/gaslibhub/crawler/internal/errors"
)

type stubClient struct {
	info    *domain.RepositoryRef
	infoErr error

	readme   string
	readmeOK bool

	commitAt time.Time
	commitOK bool
}

func (s *stubClient) FetchRepositoryInfo(ctx context.Context, owner, repo string) (*domain.RepositoryRef, error) {
	return s.info, s.infoErr
}

func (s *stubClient) FetchReadme(ctx context.Context, owner, repo string) (string, bool) {
	return s.readme, s.readmeOK
}

func (s *stubClient) FetchLastCommitDate(ctx context.Context, owner, repo string) (time.Time, bool) {
	return s.commitAt, s.commitOK
}

var lastCommit = time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)

func healthyClient() *stubClient {
	return &stubClient{
		info: &domain.RepositoryRef{
			URL:         "https://github.com/alice/sheet-utils",
			Name:        "sheet-utils",
			FullName:    "alice/sheet-utils",
			Description: "Spreadsheet helpers",
			OwnerName:   "alice",
			OwnerURL:    "https://github.com/alice",
			StarCount:   42,
			LicenseName: "MIT",
			LicenseURL:  "https://api.github.com/licenses/mit",
		},
		readme:   "Script ID: 1BxKvVXqzRJzyxYWVLKx7kkBYN1a2GlxqscVr_abc",
		readmeOK: true,
		commitAt: lastCommit,
		commitOK: true,
	}
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"plain", "https://github.com/alice/sheet-utils", "alice", "sheet-utils", false},
		{"trailing slash", "https://github.com/alice/sheet-utils/", "alice", "sheet-utils", false},
		{"git suffix", "https://github.com/alice/sheet-utils.git", "alice", "sheet-utils", false},
		{"www host", "https://www.github.com/alice/sheet-utils", "alice", "sheet-utils", false},
		{"subpage", "https://github.com/alice/sheet-utils/tree/main", "alice", "sheet-utils", false},
		{"wrong host", "https://gitlab.com/alice/sheet-utils", "", "", true},
		{"owner only", "https://github.com/alice", "", "", true},
		{"empty", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsInvalidRepoURL(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestScrapeLibrary(t *testing.T) {
	s := New(healthyClient(), nil, nil, nil)

	res := s.Scrape(context.Background(), "https://github.com/alice/sheet-utils")
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Data)

	assert.Equal(t, "sheet-utils", res.Data.Name)
	assert.Equal(t, "1BxKvVXqzRJzyxYWVLKx7kkBYN1a2GlxqscVr_abc", res.Data.ScriptID)
	assert.Equal(t, domain.ScriptTypeLibrary, res.Data.ScriptType)
	assert.Equal(t, "alice", res.Data.AuthorName)
	assert.Equal(t, "MIT", res.Data.LicenseType)
	assert.Equal(t, 42, res.Data.StarCount)
	assert.True(t, res.Data.LastCommitAt.Equal(lastCommit))
	assert.Equal(t, domain.StatusPending, res.Data.Status)
	assert.NotEmpty(t, res.Data.Readme, "library entries retain the README for summarization")
}

func TestScrapeWebAppDropsReadme(t *testing.T) {
	client := healthyClient()
	client.readme = "A small web app. Copy Code.gs and index.html into a new project."
	s := New(client, nil, nil, nil)

	res := s.Scrape(context.Background(), "https://github.com/alice/sheet-utils")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, domain.ScriptTypeWebApp, res.Data.ScriptType)
	assert.Equal(t, "alice/sheet-utils", res.Data.ScriptID)
	assert.Empty(t, res.Data.Readme)
}

func TestScrapeInvalidURL(t *testing.T) {
	s := New(healthyClient(), nil, nil, nil)

	res := s.Scrape(context.Background(), "https://example.com/not/github")
	assert.False(t, res.Success)
	assert.Nil(t, res.Data)
	assert.NotEmpty(t, res.Error)
}

func TestScrapeInfoFetchFails(t *testing.T) {
	client := healthyClient()
	client.info = nil
	client.infoErr = errors.New("boom")
	s := New(client, nil, nil, nil)

	res := s.Scrape(context.Background(), "https://github.com/alice/sheet-utils")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "repository info")
}

func TestScrapeMissingCommitDate(t *testing.T) {
	client := healthyClient()
	client.commitOK = false
	s := New(client, nil, nil, nil)

	res := s.Scrape(context.Background(), "https://github.com/alice/sheet-utils")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "last-commit date")
}

func TestScrapeNoIdentifier(t *testing.T) {
	client := healthyClient()
	client.readme = "Just prose, no identifiers and no source files."
	s := New(client, nil, nil, nil)

	res := s.Scrape(context.Background(), "https://github.com/alice/sheet-utils")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no script identifier")
}

func TestScrapeCancelledContext(t *testing.T) {
	client := healthyClient()
	client.commitOK = false // cancellation makes the fetches report absence
	s := New(client, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Scrape(ctx, "https://github.com/alice/sheet-utils")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "cancelled")
	assert.NotContains(t, res.Error, "last-commit")
}

func TestScrapeMissingReadme(t *testing.T) {
	// a repository without a README has nothing to classify
	client := healthyClient()
	client.readme = ""
	client.readmeOK = false
	s := New(client, nil, nil, nil)

	res := s.Scrape(context.Background(), "https://github.com/alice/sheet-utils")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no script identifier")
}
