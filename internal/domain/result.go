package domain

// ScrapeResult is the tagged outcome of scraping a single repository.
// Either Success is true and Data is set, or Success is false and Error
// carries the reason. There is no partial state.
type ScrapeResult struct {
	Success bool
	Data    *ScrapedLibraryData
	Error   string
}

// TagSearchResult is the outcome of a tag/topic search call.
type TagSearchResult struct {
	Success        bool
	Repositories   []RepositoryRef
	TotalCount     int // as reported by GitHub, captured from the first page only
	RetrievedCount int
	Error          string
}

// BulkScrapeResult aggregates an entire orchestrated run.
//
// SuccessCount + ErrorCount == len(Results) always holds. Duplicates are
// filtered before persistence and tracked in DuplicateCount only; they never
// appear in Results.
type BulkScrapeResult struct {
	Success        bool
	Results        []ScrapeResult
	Total          int
	SuccessCount   int
	ErrorCount     int
	DuplicateCount int
}

// CommitStatus compares a freshly scraped commit timestamp against the
// stored catalog entry, if any.
type CommitStatus struct {
	IsNew        bool
	ShouldUpdate bool
	ExistingID   string
}
