// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paperdex/internal/httputil"
	"github.com/pdiddy/paperdex/internal/ident"
	"github.com/pdiddy/paperdex/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivAdapter queries the arXiv API.
type ArxivAdapter struct {
	Client *httputil.Client
}

// Name returns the adapter identifier.
func (a *ArxivAdapter) Name() string { return string(types.SourceArxiv) }

// Close releases adapter resources.
func (a *ArxivAdapter) Close() error {
	a.Client.HTTP.CloseIdleConnections()
	return nil
}

// Search queries the arXiv API and returns candidates tagged with their
// arXiv identity. Year bounds are applied client-side since the arXiv query
// language has no year filter.
func (a *ArxivAdapter) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.PaperCandidate, error) {
	terms := strings.Fields(query.FreeText)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty arXiv query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	url := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, strings.Join(terms, "+"), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var candidates []types.PaperCandidate
	for _, entry := range feed.Entries {
		arxivID := stripArxivVersion(ident.NormalizeArxivID(entry.ID))
		if arxivID == "" {
			continue
		}

		c := types.PaperCandidate{
			Title:    strings.Join(strings.Fields(entry.Title), " "),
			Abstract: strings.TrimSpace(entry.Summary),
			URL:      "https://arxiv.org/abs/" + arxivID,
			PDFURL:   "https://arxiv.org/pdf/" + arxivID,
			Identities: []types.Identity{
				{Source: types.SourceArxiv, ExternalID: arxivID},
			},
		}
		if doi := ident.NormalizeDOI(entry.DOI); doi != "" {
			c.Identities = append(c.Identities, types.Identity{Source: types.SourceDOI, ExternalID: doi})
		}

		for _, au := range entry.Authors {
			c.Authors = append(c.Authors, strings.TrimSpace(au.Name))
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			c.Year = t.Year()
		}

		if !yearInRange(c.Year, query.YearFrom, query.YearTo) {
			continue
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// stripArxivVersion drops a trailing version suffix so identities from
// different sources agree ("2301.07041v2" → "2301.07041").
func stripArxivVersion(id string) string {
	vIdx := strings.LastIndex(id, "v")
	if vIdx <= 0 {
		return id
	}
	for _, r := range id[vIdx+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	if vIdx == len(id)-1 {
		return id
	}
	return id[:vIdx]
}

// yearInRange reports whether year passes the optional bounds. Candidates
// with an unknown year are kept.
func yearInRange(year, from, to int) bool {
	if year == 0 {
		return true
	}
	if from > 0 && year < from {
		return false
	}
	if to > 0 && year > to {
		return false
	}
	return true
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	DOI       string        `xml:"doi"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
