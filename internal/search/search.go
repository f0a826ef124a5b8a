// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs and fuses the per-source result lists
// into one deduplicated, reciprocal-rank-ranked candidate list.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/paperdex/internal/ident"
	"github.com/pdiddy/paperdex/pkg/types"
)

// Adapter searches a single external source. Each adapter (arXiv, Semantic
// Scholar, OpenAlex) implements this interface and attaches every identity
// it can derive to the candidates it returns.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.PaperCandidate, error)
	Close() error
}

// Query holds the search parameters.
type Query struct {
	FreeText string
	YearFrom int
	YearTo   int
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == ""
}

// rrfK is the reciprocal-rank-fusion smoothing constant: each adapter
// contributes 1/(rrfK+rank) to a candidate's fused score.
const rrfK = 60

// Persister stores one fused candidate. Satisfied by the canonical registry.
type Persister interface {
	Persist(ctx context.Context, c types.PaperCandidate) error
}

// Output holds the fused candidates and dedup statistics.
type Output struct {
	Candidates        []types.PaperCandidate
	TotalRaw          int
	DuplicatesRemoved int
	AdapterErrors     []string
}

// Fuse fans the query out to all adapters concurrently, folds candidates that
// denote the same paper, ranks them by reciprocal-rank fusion, and returns
// the top cfg.MaxResults. One adapter's failure never aborts the fused
// search: it is treated as zero results with a warning on w.
//
// When persister is non-nil every output candidate is upserted into it;
// per-candidate persistence failures flag the candidate as Unpersisted and
// do not abort the rest of the batch.
func Fuse(ctx context.Context, query Query, adapters []Adapter, cfg types.SearchConfig, persister Persister, w io.Writer) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide search terms")
	}
	if len(adapters) == 0 {
		return Output{}, fmt.Errorf("no search adapters configured")
	}

	type adapterResult struct {
		candidates []types.PaperCandidate
		err        error
	}

	// Collect per adapter index so the merge below runs in the fixed
	// adapter-priority order regardless of completion order.
	results := make([]adapterResult, len(adapters))
	var wg sync.WaitGroup

	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()
			candidates, err := a.Search(ctx, query, cfg)
			results[i] = adapterResult{candidates: candidates, err: err}
		}(i, a)
	}
	wg.Wait()

	var out Output
	merged := make(map[string]int) // merge key → index in out.Candidates
	lastScored := []int{}          // per candidate, the adapter that last added a score term

	for i, a := range adapters {
		if results[i].err != nil {
			out.AdapterErrors = append(out.AdapterErrors, fmt.Sprintf("%s: %v", a.Name(), results[i].err))
			fmt.Fprintf(w, "warning: adapter %s failed: %v\n", a.Name(), results[i].err)
			continue
		}
		for rank, c := range results[i].candidates {
			out.TotalRaw++
			if c.TitleHash == "" {
				c.TitleHash = ident.TitleHash(c.Title)
			}
			if len(c.RetrievalSources) == 0 {
				c.RetrievalSources = []string{a.Name()}
			}
			// 1-based rank within this adapter's list.
			score := 1.0 / float64(rrfK+rank+1)

			keys := mergeKeys(c)
			if len(keys) == 0 {
				// No identifier and no usable title: the candidate stands alone.
				keys = []string{fmt.Sprintf("raw:%d:%d", i, rank)}
			}

			idx, found := -1, false
			for _, key := range keys {
				if j, ok := merged[key]; ok {
					idx, found = j, true
					break
				}
			}

			if found {
				mergeInto(&out.Candidates[idx], c)
				// One score term per adapter, taken at the best rank.
				if lastScored[idx] != i {
					out.Candidates[idx].RetrievalScore += score
					lastScored[idx] = i
				}
				out.DuplicatesRemoved++
			} else {
				c.RetrievalScore = score
				idx = len(out.Candidates)
				out.Candidates = append(out.Candidates, c)
				lastScored = append(lastScored, i)
			}

			// Register every key of the merged candidate so a later source
			// matching any of its identifiers folds into the same entry.
			for _, key := range append(keys, mergeKeys(out.Candidates[idx])...) {
				if _, ok := merged[key]; !ok {
					merged[key] = idx
				}
			}
		}
	}

	sort.SliceStable(out.Candidates, func(i, j int) bool {
		a, b := out.Candidates[i], out.Candidates[j]
		if a.RetrievalScore != b.RetrievalScore {
			return a.RetrievalScore > b.RetrievalScore
		}
		if a.CitationCount != b.CitationCount {
			return a.CitationCount > b.CitationCount
		}
		return a.Title < b.Title
	})

	if cfg.MaxResults > 0 && len(out.Candidates) > cfg.MaxResults {
		out.Candidates = out.Candidates[:cfg.MaxResults]
	}

	if persister != nil {
		for i := range out.Candidates {
			if err := persister.Persist(ctx, out.Candidates[i]); err != nil {
				out.Candidates[i].Unpersisted = true
				fmt.Fprintf(w, "warning: could not persist %q: %v\n", out.Candidates[i].Title, err)
			}
		}
	}

	return out, nil
}

// mergeKeys returns every key a candidate can fold under: each identity
// first, then the title hash.
func mergeKeys(c types.PaperCandidate) []string {
	var keys []string
	for _, id := range c.Identities {
		keys = append(keys, fmt.Sprintf("id:%s:%s", id.Source, id.ExternalID))
	}
	if c.TitleHash != "" {
		keys = append(keys, "title:"+c.TitleHash)
	}
	return keys
}

// mergeInto folds src into dst: union of identities and retrieval sources,
// max citation count, longest non-empty abstract, first non-empty value for
// the remaining fields (dst wins, since adapters are processed in priority
// order).
func mergeInto(dst *types.PaperCandidate, src types.PaperCandidate) {
	for _, id := range src.Identities {
		if !hasIdentity(dst.Identities, id) {
			dst.Identities = append(dst.Identities, id)
		}
	}
	for _, s := range src.RetrievalSources {
		if !containsString(dst.RetrievalSources, s) {
			dst.RetrievalSources = append(dst.RetrievalSources, s)
		}
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
	if len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.PDFURL == "" {
		dst.PDFURL = src.PDFURL
	}
}

func hasIdentity(ids []types.Identity, id types.Identity) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

func containsString(ss []string, s string) bool {
	for _, have := range ss {
		if have == s {
			return true
		}
	}
	return false
}

// CloseAll closes every adapter, reporting the first error encountered.
func CloseAll(adapters []Adapter) error {
	var first error
	for _, a := range adapters {
		if err := a.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing adapter %s: %w", a.Name(), err)
		}
	}
	return first
}

// FormatTable writes fused candidates as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Candidates) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Score", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 118))

	for i, c := range out.Candidates {
		title := c.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if c.Year > 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6d  %-6.4f  %s\n",
			i+1, title, formatAuthors(c.Authors), year, c.CitationCount,
			c.RetrievalScore, strings.Join(c.RetrievalSources, ","))
	}

	fmt.Fprintf(w, "\n%d results (%d raw", len(out.Candidates), out.TotalRaw)
	if out.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, ", %d duplicates removed", out.DuplicatesRemoved)
	}
	fmt.Fprintln(w, ")")
}

// FormatJSON writes fused candidates as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Candidates)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
