// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pdiddy/paperdex/internal/ident"
)

// Hints carry optional context for resolution: candidate URLs and a title.
type Hints struct {
	URLs  []string
	Title string
}

// Resolver maps an opaque external reference to a canonical id via an
// ordered waterfall of local lookups. Every stage compares against
// already-persisted state; no stage performs network I/O.
type Resolver struct {
	store  *Store
	stages []stage
}

type stage struct {
	name string
	fn   func(ctx context.Context, q querier, ref string, hints Hints) (int64, error)
}

// NewResolver builds the waterfall in its fixed priority order.
func NewResolver(store *Store) *Resolver {
	r := &Resolver{store: store}
	r.stages = []stage{
		{"canonical-id", r.resolveNumericID},
		{"identity-map", r.resolveAnyIdentity},
		{"arxiv-id", r.resolveArxivID},
		{"doi", r.resolveDOI},
		{"url", r.resolveURL},
		{"title", r.resolveTitle},
	}
	return r
}

// Resolve tries each stage in order and returns the first hit. A zero result
// with nil error means "no canonical paper yet"; callers never treat a miss
// as an error.
func (r *Resolver) Resolve(ctx context.Context, ref string, hints Hints) (int64, error) {
	return r.resolve(ctx, r.store.db, ref, hints)
}

func (r *Resolver) resolve(ctx context.Context, q querier, ref string, hints Hints) (int64, error) {
	for _, st := range r.stages {
		id, err := st.fn(ctx, q, ref, hints)
		if err != nil {
			return 0, fmt.Errorf("%s stage: %w", st.name, err)
		}
		if id != 0 {
			return id, nil
		}
	}
	return 0, nil
}

// resolveNumericID treats a purely numeric reference as a canonical id. The
// id is verified against the papers table so an unknown number falls through
// to the later stages (numeric external ids exist, e.g. S2 corpus ids).
func (r *Resolver) resolveNumericID(ctx context.Context, q querier, ref string, _ Hints) (int64, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, nil
	}
	var found int64
	err = q.QueryRowContext(ctx, `SELECT id FROM papers WHERE id = ?`, id).Scan(&found)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return found, nil
}

func (r *Resolver) resolveAnyIdentity(ctx context.Context, q querier, ref string, _ Hints) (int64, error) {
	return resolveAnyIdentity(ctx, q, ref)
}

// resolveArxivID normalizes the reference and hint URLs as arXiv IDs and
// looks the result up in the papers.arxiv_id column.
func (r *Resolver) resolveArxivID(ctx context.Context, q querier, ref string, hints Hints) (int64, error) {
	for _, raw := range append([]string{ref}, hints.URLs...) {
		arxivID := ident.NormalizeArxivID(raw)
		if arxivID == "" {
			continue
		}
		id, err := lookupColumn(ctx, q, "arxiv_id", arxivID)
		if err != nil || id != 0 {
			return id, err
		}
	}
	return 0, nil
}

// resolveDOI normalizes the reference and hint URLs as DOIs and looks the
// result up in the papers.doi column.
func (r *Resolver) resolveDOI(ctx context.Context, q querier, ref string, hints Hints) (int64, error) {
	for _, raw := range append([]string{ref}, hints.URLs...) {
		doi := ident.NormalizeDOI(raw)
		if doi == "" {
			continue
		}
		id, err := lookupColumn(ctx, q, "doi", doi)
		if err != nil || id != 0 {
			return id, err
		}
	}
	return 0, nil
}

// resolveURL matches the reference and hint URLs exactly against the stored
// landing page and PDF URLs.
func (r *Resolver) resolveURL(ctx context.Context, q querier, ref string, hints Hints) (int64, error) {
	for _, raw := range append([]string{ref}, hints.URLs...) {
		if raw == "" {
			continue
		}
		var id int64
		err := q.QueryRowContext(ctx,
			`SELECT id FROM papers WHERE url = ? OR pdf_url = ? LIMIT 1`, raw, raw).Scan(&id)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return 0, err
		}
		return id, nil
	}
	return 0, nil
}

// resolveTitle matches a hint title case-insensitively against stored titles.
func (r *Resolver) resolveTitle(ctx context.Context, q querier, _ string, hints Hints) (int64, error) {
	if hints.Title == "" {
		return 0, nil
	}
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM papers WHERE title = ? COLLATE NOCASE LIMIT 1`, hints.Title).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// resolveTitleHash is the last-resort same-paper signal used by the registry
// upsert path; it is not part of the public reference waterfall.
func resolveTitleHash(ctx context.Context, q querier, titleHash string) (int64, error) {
	if titleHash == "" {
		return 0, nil
	}
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM papers WHERE title_hash = ? LIMIT 1`, titleHash).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func lookupColumn(ctx context.Context, q querier, column, value string) (int64, error) {
	var id int64
	// column is one of the fixed names above, never user input.
	err := q.QueryRowContext(ctx,
		`SELECT id FROM papers WHERE `+column+` = ? LIMIT 1`, value).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}
