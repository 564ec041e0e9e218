package domain

import "time"

// CatalogEntry is a stored catalog row.
type CatalogEntry struct {
	ID            string
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
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Summary is an AI-generated description of a catalog entry.
type Summary struct {
	ID        string
	LibraryID string
	Content   string
	Model     string
	CreatedAt time.Time
}
