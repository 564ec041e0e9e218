package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() (*Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	hc := &http.Client{Transport: transport}
	return NewClient("", WithHTTPClient(hc), WithRequestsPerHour(0)), transport
}

func searchBody(total int, names ...string) map[string]any {
	items := make([]map[string]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{
			"name":             n,
			"full_name":        "alice/" + n,
			"html_url":         "https://github.com/alice/" + n,
			"description":      "desc of " + n,
			"stargazers_count": 7,
			"topics":           []string{"google-apps-script"},
			"owner": map[string]any{
				"login":    "alice",
				"html_url": "https://github.com/alice",
			},
			"license": map[string]any{
				"name": "MIT License",
				"url":  "https://api.github.com/licenses/mit",
			},
		})
	}
	return map[string]any{
		"total_count":        total,
		"incomplete_results": false,
		"items":              items,
	}
}

func TestBuildTopicQuery(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"single tag", []string{"google-apps-script"}, "topic:google-apps-script"},
		{"two tags", []string{"google-apps-script", "gas-library"}, "topic:google-apps-script OR topic:gas-library"},
		{"blank tags dropped", []string{"", " ", "gas-library"}, "topic:gas-library"},
		{"truncated to five", []string{"a", "b", "c", "d", "e", "f", "g"}, "topic:a OR topic:b OR topic:c OR topic:d OR topic:e"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildTopicQuery(tt.tags))
		})
	}
}

func TestFetchRepositoryInfo(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/repos/alice/sheet-utils",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"name":             "sheet-utils",
			"full_name":        "alice/sheet-utils",
			"html_url":         "https://github.com/alice/sheet-utils",
			"description":      "Spreadsheet helpers",
			"stargazers_count": 42,
			"owner": map[string]any{
				"login":    "alice",
				"html_url": "https://github.com/alice",
			},
			"license": map[string]any{
				"name": "MIT License",
				"url":  "https://api.github.com/licenses/mit",
			},
		}))

	ref, err := c.FetchRepositoryInfo(context.Background(), "alice", "sheet-utils")
	require.NoError(t, err)
	assert.Equal(t, "sheet-utils", ref.Name)
	assert.Equal(t, "alice/sheet-utils", ref.FullName)
	assert.Equal(t, "https://github.com/alice/sheet-utils", ref.URL)
	assert.Equal(t, "alice", ref.OwnerName)
	assert.Equal(t, 42, ref.StarCount)
	assert.Equal(t, "MIT License", ref.LicenseName)
}

func TestFetchRepositoryInfoNotFound(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/repos/alice/gone",
		httpmock.NewJsonResponderOrPanic(404, map[string]any{"message": "Not Found"}))

	_, err := c.FetchRepositoryInfo(context.Background(), "alice", "gone")
	assert.Error(t, err)
}

func TestFetchReadmeDecodesBase64(t *testing.T) {
	c, transport := newTestClient()
	readme := "# sheet-utils\n\nScript ID: 1BxKvVXqzRJzyxYWVLKx7kkBYN1a2GlxqscVr_abc\n"
	transport.RegisterResponder("GET", "https://api.github.com/repos/alice/sheet-utils/readme",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"type":     "file",
			"name":     "README.md",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(readme)),
		}))

	text, ok := c.FetchReadme(context.Background(), "alice", "sheet-utils")
	require.True(t, ok)
	assert.Equal(t, readme, text)

	// second call is served from the cache, no further HTTP traffic
	transport.Reset()
	text, ok = c.FetchReadme(context.Background(), "alice", "sheet-utils")
	require.True(t, ok)
	assert.Equal(t, readme, text)
}

func TestFetchReadmeMissing(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/repos/alice/bare/readme",
		httpmock.NewJsonResponderOrPanic(404, map[string]any{"message": "Not Found"}))

	_, ok := c.FetchReadme(context.Background(), "alice", "bare")
	assert.False(t, ok)
}

func TestFetchLastCommitDate(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/repos/alice/sheet-utils/commits",
		httpmock.NewJsonResponderOrPanic(200, []map[string]any{
			{
				"sha": "abc123",
				"commit": map[string]any{
					"committer": map[string]any{"date": "2024-05-20T08:30:00Z"},
					"author":    map[string]any{"date": "2024-05-19T00:00:00Z"},
				},
			},
		}))

	date, ok := c.FetchLastCommitDate(context.Background(), "alice", "sheet-utils")
	require.True(t, ok)
	assert.True(t, date.Equal(time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)))
}

func TestFetchLastCommitDateEmptyRepository(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/repos/alice/empty/commits",
		httpmock.NewJsonResponderOrPanic(200, []map[string]any{}))

	_, ok := c.FetchLastCommitDate(context.Background(), "alice", "empty")
	assert.False(t, ok)
}

func TestSearchPage(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/search/repositories",
		httpmock.NewJsonResponderOrPanic(200, searchBody(2, "sheet-utils", "gas-logger")))

	res := c.SearchPage(context.Background(), []string{"google-apps-script"}, 1, 30, "updated")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 2, res.RetrievedCount)
	require.Len(t, res.Repositories, 2)
	assert.Equal(t, "alice/sheet-utils", res.Repositories[0].FullName)
	assert.Equal(t, "https://github.com/alice/gas-logger", res.Repositories[1].URL)
}

func TestSearchPageFallbackOnRejectedQuery(t *testing.T) {
	c, transport := newTestClient()
	var queries []string
	transport.RegisterResponder("GET", "https://api.github.com/search/repositories",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query().Get("q")
			queries = append(queries, q)
			if q == "topic:google-apps-script" {
				return httpmock.NewJsonResponse(200, searchBody(1, "sheet-utils"))
			}
			return httpmock.NewJsonResponse(422, map[string]any{"message": "Validation Failed"})
		})

	res := c.SearchPage(context.Background(), []string{"google-apps-script", "gas-library"}, 1, 30, "updated")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.RetrievedCount)
	require.Len(t, queries, 2)
	assert.Equal(t, "topic:google-apps-script OR topic:gas-library", queries[0])
	assert.Equal(t, "topic:google-apps-script", queries[1])
}

func TestSearchPageSingleTagNoFallback(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/search/repositories",
		httpmock.NewJsonResponderOrPanic(422, map[string]any{"message": "Validation Failed"}))

	res := c.SearchPage(context.Background(), []string{"google-apps-script"}, 1, 30, "updated")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 1, transport.GetTotalCallCount(), "no retry when there is no smaller query to fall back to")
}

func TestSearchPageNoTags(t *testing.T) {
	c, _ := newTestClient()

	res := c.SearchPage(context.Background(), nil, 1, 30, "updated")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestSearchByTagsTruncates(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/search/repositories",
		httpmock.NewJsonResponderOrPanic(200, searchBody(10, "a", "b", "c")))

	res := c.SearchByTags(context.Background(), []string{"google-apps-script"}, 2, "updated")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 10, res.TotalCount)
	assert.Equal(t, 2, res.RetrievedCount)
	assert.Len(t, res.Repositories, 2)
}

func TestSearchByPageRangeStopsOnEmptyPage(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("GET", "https://api.github.com/search/repositories",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") == "1" {
				return httpmock.NewJsonResponse(200, searchBody(35, "a", "b"))
			}
			return httpmock.NewJsonResponse(200, searchBody(35))
		})

	res := c.SearchByPageRange(context.Background(), []string{"google-apps-script"}, 1, 5, 2, "updated", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 35, res.TotalCount)
	assert.Equal(t, 2, res.RetrievedCount)
	assert.Equal(t, 2, transport.GetTotalCallCount(), "the empty second page ends the scan")
}
