package domain

import "time"

// ScriptType classifies how a script identifier is meant to be consumed.
type ScriptType string

const (
	ScriptTypeLibrary ScriptType = "library"
	ScriptTypeWebApp  ScriptType = "web_app"
)

// Status is the lifecycle state of a catalog entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// RepositoryRef is one candidate repository returned by a topic search.
// It is read-only once produced by the GitHub client.
type RepositoryRef struct {
	URL         string
	Name        string
	FullName    string
	Description string
	OwnerName   string
	OwnerURL    string
	StarCount   int
	LicenseName string
	LicenseURL  string
	Topics      []string
	PushedAt    time.Time
}

// ScrapedLibraryData is the normalized ingestion record produced by a
// successful scrape. ScriptID is never empty and LastCommitAt is always a
// valid timestamp; both are preconditions for persistence.
type ScrapedLibraryData struct {
	Name          string
	ScriptID      string
	ScriptType    ScriptType
	RepositoryURL string
	AuthorName    string
	AuthorURL     string
	Description   string
	LicenseType   string
	LicenseURL    string
	StarCount     int
	LastCommitAt  time.Time
	Status        Status
	Readme        string // raw README, kept for library-type entries only
}
