package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gaslibhub/crawler/internal/domain"
	"github.com/gaslibhub/crawler/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS libraries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		script_id TEXT NOT NULL UNIQUE,
		script_type TEXT NOT NULL,
		repository_url TEXT NOT NULL,
		author_name TEXT,
		author_url TEXT,
		description TEXT,
		license_type TEXT,
		license_url TEXT,
		star_count INTEGER NOT NULL DEFAULT 0,
		last_commit_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		readme TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_libraries_repository_url ON libraries(repository_url);
	CREATE INDEX IF NOT EXISTS idx_libraries_script_type ON libraries(script_type);
	CREATE INDEX IF NOT EXISTS idx_libraries_updated_at ON libraries(updated_at);

	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		library_id TEXT NOT NULL UNIQUE REFERENCES libraries(id),
		content TEXT NOT NULL,
		model TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_library_id ON summaries(library_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// IsDuplicate reports whether a catalog entry already exists for scriptID
func (s *sqliteStorage) IsDuplicate(ctx context.Context, scriptID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM libraries WHERE script_id = ?`, scriptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return n > 0, nil
}

// SaveLibrary inserts a new catalog entry or updates the existing one with
// the same script_id, returning the entry ID
func (s *sqliteStorage) SaveLibrary(ctx context.Context, data *domain.ScrapedLibraryData) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM libraries WHERE script_id = ?`, data.ScriptID).Scan(&id)
	now := time.Now()

	if err == sql.ErrNoRows {
		id = uuid.New().String()
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO libraries (id, name, script_id, script_type, repository_url,
				author_name, author_url, description, license_type, license_url,
				star_count, last_commit_at, status, readme, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, data.Name, data.ScriptID, string(data.ScriptType), data.RepositoryURL,
			data.AuthorName, data.AuthorURL, data.Description, data.LicenseType, data.LicenseURL,
			data.StarCount, data.LastCommitAt, string(data.Status), data.Readme, now, now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert library: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up library: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE libraries SET name = ?, script_type = ?, repository_url = ?,
			author_name = ?, author_url = ?, description = ?, license_type = ?,
			license_url = ?, star_count = ?, last_commit_at = ?, readme = ?, updated_at = ?
		WHERE id = ?`,
		data.Name, string(data.ScriptType), data.RepositoryURL,
		data.AuthorName, data.AuthorURL, data.Description, data.LicenseType,
		data.LicenseURL, data.StarCount, data.LastCommitAt, data.Readme, now, id,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update library: %w", err)
	}
	return id, nil
}

// FindByRepoURL returns the catalog entry for a repository URL, or nil
func (s *sqliteStorage) FindByRepoURL(ctx context.Context, repoURL string) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, script_id, script_type, repository_url, author_name,
			author_url, description, license_type, license_url, star_count,
			last_commit_at, status, created_at, updated_at
		FROM libraries WHERE repository_url = ?`, repoURL)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find library by repo url: %w", err)
	}
	return entry, nil
}

// HasSummary reports whether a summary record exists for the library
func (s *sqliteStorage) HasSummary(ctx context.Context, libraryID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries WHERE library_id = ?`, libraryID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check summary: %w", err)
	}
	return n > 0, nil
}

// SaveSummary inserts or replaces the summary for a library
func (s *sqliteStorage) SaveSummary(ctx context.Context, libraryID string, sum *domain.Summary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (id, library_id, content, model, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(library_id) DO UPDATE SET
			content = excluded.content,
			model = excluded.model,
			created_at = excluded.created_at`,
		uuid.New().String(), libraryID, sum.Content, sum.Model, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// ListRecent returns the most recently updated catalog entries
func (s *sqliteStorage) ListRecent(ctx context.Context, limit int) ([]*domain.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, script_id, script_type, repository_url, author_name,
			author_url, description, license_type, license_url, star_count,
			last_commit_at, status, created_at, updated_at
		FROM libraries ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListForRefresh returns a stable page of catalog entries for the
// maintenance job, oldest refresh first
func (s *sqliteStorage) ListForRefresh(ctx context.Context, limit, offset int) ([]*domain.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, script_id, script_type, repository_url, author_name,
			author_url, description, license_type, license_url, star_count,
			last_commit_at, status, created_at, updated_at
		FROM libraries ORDER BY updated_at ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries for refresh: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountByType returns catalog entry counts grouped by script type
func (s *sqliteStorage) CountByType(ctx context.Context) (map[domain.ScriptType]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT script_type, COUNT(*) FROM libraries GROUP BY script_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count libraries: %w", err)
	}
	defer rows.Close()

	counts := map[domain.ScriptType]int64{}
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[domain.ScriptType(t)] = n
	}
	return counts, rows.Err()
}

// CountSummaries returns the number of stored summaries
func (s *sqliteStorage) CountSummaries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	var scriptType, status string
	var authorName, authorURL, description, licenseType, licenseURL sql.NullString
	err := row.Scan(&e.ID, &e.Name, &e.ScriptID, &scriptType, &e.RepositoryURL,
		&authorName, &authorURL, &description, &licenseType, &licenseURL,
		&e.StarCount, &e.LastCommitAt, &status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ScriptType = domain.ScriptType(scriptType)
	e.Status = domain.Status(status)
	e.AuthorName = authorName.String
	e.AuthorURL = authorURL.String
	e.Description = description.String
	e.LicenseType = licenseType.String
	e.LicenseURL = licenseURL.String
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*domain.CatalogEntry, error) {
	var entries []*domain.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
