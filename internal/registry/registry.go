// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/paperdex/internal/ident"
	"github.com/pdiddy/paperdex/pkg/types"
)

// Registry owns canonical paper rows. Upserts are idempotent: re-running an
// identical payload never creates a second row. Identity insertion and
// canonical-row mutation commit or roll back together.
type Registry struct {
	store    *Store
	resolver *Resolver
	w        io.Writer
}

// New wires a registry to its store and resolver. Diagnostics (identity
// conflicts, per-item batch failures) are written to w.
func New(store *Store, resolver *Resolver, w io.Writer) *Registry {
	if w == nil {
		w = io.Discard
	}
	return &Registry{store: store, resolver: resolver, w: w}
}

// Upsert creates or merges a canonical paper from one source's view of it.
// The payload is resolved through the identity waterfall using every payload
// identity, then the title hash as a last resort. A hit merges fields
// non-destructively into the existing row; a miss creates a new row. Either
// way every payload identity ends up registered against the resulting row.
// The returned bool reports whether a new row was created.
func (g *Registry) Upsert(ctx context.Context, payload types.UpsertPayload, sourceHint string) (types.CanonicalPaper, bool, error) {
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return types.CanonicalPaper{}, false, fmt.Errorf("payload has no title")
	}
	identities := ident.FromPayload(payload)
	titleHash := ident.TitleHash(title)
	if len(identities) == 0 && titleHash == "" {
		return types.CanonicalPaper{}, false, fmt.Errorf("payload %q has no identity and no hashable title", title)
	}

	tx, err := g.store.db.BeginTx(ctx, nil)
	if err != nil {
		return types.CanonicalPaper{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	hints := Hints{Title: title}
	for _, u := range []string{payload.URL, payload.PDFURL} {
		if u != "" {
			hints.URLs = append(hints.URLs, u)
		}
	}

	// Resolve within the transaction so a concurrent writer's committed row
	// is visible before we decide between create and merge.
	refs := make([]string, 0, len(identities))
	for _, id := range identities {
		refs = append(refs, id.ExternalID)
	}
	if len(refs) == 0 {
		refs = []string{""}
	}

	var canonicalID int64
	for _, ref := range refs {
		canonicalID, err = g.resolver.resolve(ctx, tx, ref, hints)
		if err != nil {
			return types.CanonicalPaper{}, false, err
		}
		if canonicalID != 0 {
			break
		}
	}
	if canonicalID == 0 {
		canonicalID, err = resolveTitleHash(ctx, tx, titleHash)
		if err != nil {
			return types.CanonicalPaper{}, false, fmt.Errorf("title hash lookup: %w", err)
		}
	}

	created := canonicalID == 0
	if created {
		canonicalID, err = insertPaper(ctx, tx, payload, title, titleHash, identities)
		if err != nil {
			return types.CanonicalPaper{}, false, err
		}
		fmt.Fprintf(g.w, "created paper %d (%s): %s\n", canonicalID, sourceHint, title)
	} else {
		if err := mergePaper(ctx, tx, canonicalID, payload, identities); err != nil {
			return types.CanonicalPaper{}, false, err
		}
	}

	for _, id := range identities {
		if _, err := upsertIdentity(ctx, tx, canonicalID, id, g.w); err != nil {
			return types.CanonicalPaper{}, false, err
		}
	}

	merged, err := getPaper(ctx, tx, canonicalID)
	if err != nil {
		return types.CanonicalPaper{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return types.CanonicalPaper{}, false, fmt.Errorf("committing upsert: %w", err)
	}
	return merged, created, nil
}

// Summary reports the outcome of a batch upsert.
type Summary struct {
	Created int
	Updated int
	Failed  int
	Errors  []string
}

// UpsertMany upserts each payload in order. Per-item failures are isolated,
// counted, and reported; they never abort the batch.
func (g *Registry) UpsertMany(ctx context.Context, payloads []types.UpsertPayload, sourceHint string) Summary {
	var sum Summary
	for i, p := range payloads {
		_, created, err := g.Upsert(ctx, p, sourceHint)
		if err != nil {
			sum.Failed++
			msg := fmt.Sprintf("payload %d (%q): %v", i, p.Title, err)
			sum.Errors = append(sum.Errors, msg)
			fmt.Fprintf(g.w, "warning: %s\n", msg)
			continue
		}
		if created {
			sum.Created++
		} else {
			sum.Updated++
		}
	}
	return sum
}

// Persist stores one fused search candidate, satisfying the search package's
// persister interface.
func (g *Registry) Persist(ctx context.Context, c types.PaperCandidate) error {
	payload := types.UpsertPayload{
		Title:         c.Title,
		Abstract:      c.Abstract,
		Authors:       c.Authors,
		Year:          c.Year,
		Venue:         c.Venue,
		CitationCount: c.CitationCount,
		URL:           c.URL,
		PDFURL:        c.PDFURL,
	}
	for _, id := range c.Identities {
		switch id.Source {
		case types.SourceArxiv:
			payload.ArxivID = id.ExternalID
		case types.SourceDOI:
			payload.DOI = id.ExternalID
		case types.SourceSemanticScholar:
			payload.SemanticScholarID = id.ExternalID
		case types.SourceOpenAlex:
			payload.OpenAlexID = id.ExternalID
		}
	}
	sourceHint := "search"
	if len(c.RetrievalSources) > 0 {
		sourceHint = c.RetrievalSources[0]
	}
	_, _, err := g.Upsert(ctx, payload, sourceHint)
	return err
}

func insertPaper(ctx context.Context, q querier, p types.UpsertPayload, title, titleHash string, identities []types.Identity) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	authorsJSON, _ := json.Marshal(emptyToNilSafe(p.Authors))
	keywordsJSON, _ := json.Marshal(emptyToNilSafe(p.Keywords))

	res, err := q.ExecContext(ctx,
		`INSERT INTO papers (title, title_hash, abstract, authors, year, venue, citation_count,
			doi, arxiv_id, semantic_scholar_id, openalex_id, url, pdf_url, keywords, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title, titleHash, p.Abstract, string(authorsJSON), p.Year, p.Venue, p.CitationCount,
		normalizedID(identities, types.SourceDOI), normalizedID(identities, types.SourceArxiv),
		p.SemanticScholarID, p.OpenAlexID, p.URL, p.PDFURL, string(keywordsJSON), now, now)
	if err != nil {
		return 0, fmt.Errorf("inserting paper %q: %w", title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new paper id: %w", err)
	}
	return id, nil
}

// mergePaper folds the payload into an existing row without destroying data:
// empty never overwrites non-empty, abstracts keep the longest text, and
// citation counts keep the maximum.
func mergePaper(ctx context.Context, q querier, id int64, p types.UpsertPayload, identities []types.Identity) error {
	existing, err := getPaper(ctx, q, id)
	if err != nil {
		return err
	}

	if len(p.Abstract) > len(existing.Abstract) {
		existing.Abstract = p.Abstract
	}
	if len(existing.Authors) == 0 {
		existing.Authors = p.Authors
	}
	if existing.Year == 0 {
		existing.Year = p.Year
	}
	if existing.Venue == "" {
		existing.Venue = p.Venue
	}
	if p.CitationCount > existing.CitationCount {
		existing.CitationCount = p.CitationCount
	}
	if existing.DOI == "" {
		existing.DOI = normalizedID(identities, types.SourceDOI)
	}
	if existing.ArxivID == "" {
		existing.ArxivID = normalizedID(identities, types.SourceArxiv)
	}
	if existing.SemanticScholarID == "" {
		existing.SemanticScholarID = p.SemanticScholarID
	}
	if existing.OpenAlexID == "" {
		existing.OpenAlexID = p.OpenAlexID
	}
	if existing.URL == "" {
		existing.URL = p.URL
	}
	if existing.PDFURL == "" {
		existing.PDFURL = p.PDFURL
	}
	existing.Keywords = unionKeywords(existing.Keywords, p.Keywords)

	authorsJSON, _ := json.Marshal(emptyToNilSafe(existing.Authors))
	keywordsJSON, _ := json.Marshal(emptyToNilSafe(existing.Keywords))
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = q.ExecContext(ctx,
		`UPDATE papers SET abstract = ?, authors = ?, year = ?, venue = ?, citation_count = ?,
			doi = ?, arxiv_id = ?, semantic_scholar_id = ?, openalex_id = ?, url = ?, pdf_url = ?,
			keywords = ?, updated_at = ?
		 WHERE id = ?`,
		existing.Abstract, string(authorsJSON), existing.Year, existing.Venue, existing.CitationCount,
		existing.DOI, existing.ArxivID, existing.SemanticScholarID, existing.OpenAlexID,
		existing.URL, existing.PDFURL, string(keywordsJSON), now, id)
	if err != nil {
		return fmt.Errorf("merging into paper %d: %w", id, err)
	}
	return nil
}

func normalizedID(identities []types.Identity, source types.Source) string {
	for _, id := range identities {
		if id.Source == source {
			return id.ExternalID
		}
	}
	return ""
}

func unionKeywords(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := existing
	for _, k := range existing {
		seen[k] = true
	}
	for _, k := range incoming {
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// emptyToNilSafe keeps JSON columns as "[]" rather than "null".
func emptyToNilSafe(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
