// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/paperdex/internal/httputil"
	"github.com/pdiddy/paperdex/internal/ident"
	"github.com/pdiddy/paperdex/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,title,abstract,authors,externalIds,year,venue,citationCount,url,openAccessPdf"

// SemanticScholarAdapter queries the Semantic Scholar graph API.
type SemanticScholarAdapter struct {
	Client *httputil.Client
	APIKey string
}

// Name returns the adapter identifier.
func (a *SemanticScholarAdapter) Name() string { return string(types.SourceSemanticScholar) }

// Close releases adapter resources.
func (a *SemanticScholarAdapter) Close() error {
	a.Client.HTTP.CloseIdleConnections()
	return nil
}

// Search queries the Semantic Scholar API and returns candidates tagged with
// every identity the response carries (S2 hash, arXiv ID, DOI).
func (a *SemanticScholarAdapter) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.PaperCandidate, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query":  {query.FreeText},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}
	if yr := yearRange(query.YearFrom, query.YearTo); yr != "" {
		params.Set("year", yr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if a.APIKey != "" {
		req.Header.Set("x-api-key", a.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var candidates []types.PaperCandidate
	for _, paper := range sr.Data {
		c := types.PaperCandidate{
			Title:         paper.Title,
			Abstract:      paper.Abstract,
			Year:          paper.Year,
			Venue:         paper.Venue,
			CitationCount: paper.CitationCount,
			URL:           paper.URL,
			PDFURL:        paper.OpenAccessPdf.URL,
		}

		if paper.PaperID != "" {
			c.Identities = append(c.Identities, types.Identity{
				Source: types.SourceSemanticScholar, ExternalID: paper.PaperID,
			})
		}
		if id := stripArxivVersion(ident.NormalizeArxivID(paper.ExternalIDs.ArXiv)); id != "" {
			c.Identities = append(c.Identities, types.Identity{
				Source: types.SourceArxiv, ExternalID: id,
			})
		}
		if doi := ident.NormalizeDOI(paper.ExternalIDs.DOI); doi != "" {
			c.Identities = append(c.Identities, types.Identity{
				Source: types.SourceDOI, ExternalID: doi,
			})
		}

		for _, au := range paper.Authors {
			c.Authors = append(c.Authors, au.Name)
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// yearRange returns a Semantic Scholar year filter string (e.g. "2020-2023").
func yearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	Venue         string              `json:"venue"`
	CitationCount int                 `json:"citationCount"`
	URL           string              `json:"url"`
	OpenAccessPdf semanticOpenAccess  `json:"openAccessPdf"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
