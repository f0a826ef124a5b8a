// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry owns the canonical paper records and their identity
// mappings. Every external reference (arXiv ID, DOI, Semantic Scholar hash,
// OpenAlex work ID, URL, title) resolves to at most one canonical row; the
// unique index on (source, external_id) is the serialization point for
// concurrent writers racing on the same identity.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperdex/pkg/types"
)

// Store manages the registry SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the registry database at cfg.DBPath, creating the
// schema if it does not exist. Transactions are started in immediate mode so
// concurrent upserts serialize at the database rather than racing mid-write.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = "paperdex.db"
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			title_hash TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			authors TEXT NOT NULL DEFAULT '[]',
			year INTEGER NOT NULL DEFAULT 0,
			venue TEXT NOT NULL DEFAULT '',
			citation_count INTEGER NOT NULL DEFAULT 0,
			doi TEXT NOT NULL DEFAULT '',
			arxiv_id TEXT NOT NULL DEFAULT '',
			semantic_scholar_id TEXT NOT NULL DEFAULT '',
			openalex_id TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			pdf_url TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi) WHERE doi != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_arxiv_id ON papers(arxiv_id) WHERE arxiv_id != ''`,
		`CREATE INDEX IF NOT EXISTS idx_papers_title_hash ON papers(title_hash)`,
		`CREATE TABLE IF NOT EXISTS identity_mappings (
			source TEXT NOT NULL,
			external_id TEXT NOT NULL,
			canonical_id INTEGER NOT NULL REFERENCES papers(id),
			PRIMARY KEY (source, external_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_identity_external_id ON identity_mappings(external_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so row helpers work
// inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const paperColumns = `id, title, title_hash, abstract, authors, year, venue, citation_count,
	doi, arxiv_id, semantic_scholar_id, openalex_id, url, pdf_url, keywords, created_at, updated_at`

// Get returns the canonical paper with the given surrogate id.
func (s *Store) Get(ctx context.Context, id int64) (types.CanonicalPaper, error) {
	return getPaper(ctx, s.db, id)
}

func getPaper(ctx context.Context, q querier, id int64) (types.CanonicalPaper, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return types.CanonicalPaper{}, fmt.Errorf("paper %d not found", id)
	}
	if err != nil {
		return types.CanonicalPaper{}, fmt.Errorf("loading paper %d: %w", id, err)
	}
	return p, nil
}

// List returns every canonical paper ordered by surrogate id.
func (s *Store) List(ctx context.Context) ([]types.CanonicalPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM papers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var papers []types.CanonicalPaper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper row: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(row scanner) (types.CanonicalPaper, error) {
	var (
		p                    types.CanonicalPaper
		authorsJSON          string
		keywordsJSON         string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.TitleHash, &p.Abstract, &authorsJSON, &p.Year, &p.Venue,
		&p.CitationCount, &p.DOI, &p.ArxivID, &p.SemanticScholarID, &p.OpenAlexID,
		&p.URL, &p.PDFURL, &keywordsJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return types.CanonicalPaper{}, err
	}
	json.Unmarshal([]byte(authorsJSON), &p.Authors)
	json.Unmarshal([]byte(keywordsJSON), &p.Keywords)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}
