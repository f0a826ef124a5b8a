// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/paperdex/pkg/types"
)

const openAlexJSON = `{
  "meta": {"count": 1, "per_page": 20, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Attention Is All You Need",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "publication_year": 2017,
      "cited_by_count": 95000,
      "authorships": [
        {"author": {"id": "https://openalex.org/A1", "display_name": "Ashish Vaswani"}},
        {"author": {"id": "https://openalex.org/A2", "display_name": ""}}
      ],
      "abstract_inverted_index": {"dominant": [1], "The": [0], "models": [2]},
      "primary_location": {"source": {"display_name": "NeurIPS"}},
      "open_access": {"is_oa": true, "oa_status": "green", "oa_url": "https://arxiv.org/pdf/1706.03762"}
    }
  ]
}`

func TestOpenAlexAdapterSearch(t *testing.T) {
	var gotMailto, gotFilter string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMailto = r.URL.Query().Get("mailto")
		gotFilter = r.URL.Query().Get("filter")
		fmt.Fprint(w, openAlexJSON)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	a := &OpenAlexAdapter{Client: newTestAdapterClient(), Email: "user@example.com"}
	got, err := a.Search(context.Background(), Query{FreeText: "attention", YearFrom: 2015}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotMailto != "user@example.com" {
		t.Errorf("mailto = %q", gotMailto)
	}
	if gotFilter != "from_publication_date:2015-01-01" {
		t.Errorf("filter = %q", gotFilter)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	c := got[0]
	if c.Identifier(types.SourceOpenAlex) != "W2741809807" {
		t.Errorf("OpenAlex identity = %q, want bare work ID", c.Identifier(types.SourceOpenAlex))
	}
	if c.Identifier(types.SourceDOI) != "10.5555/3295222.3295349" {
		t.Errorf("DOI identity = %q", c.Identifier(types.SourceDOI))
	}
	if c.Abstract != "The dominant models" {
		t.Errorf("abstract = %q, want reconstructed from inverted index", c.Abstract)
	}
	if c.Venue != "NeurIPS" {
		t.Errorf("venue = %q", c.Venue)
	}
	if c.CitationCount != 95000 {
		t.Errorf("citations = %d", c.CitationCount)
	}
	if len(c.Authors) != 1 || c.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors = %v, want empty display names dropped", c.Authors)
	}
	if c.URL != "https://doi.org/10.5555/3295222.3295349" {
		t.Errorf("URL = %q", c.URL)
	}
	if c.PDFURL != "https://arxiv.org/pdf/1706.03762" {
		t.Errorf("PDFURL = %q", c.PDFURL)
	}
}

func TestOpenAlexAdapterHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	a := &OpenAlexAdapter{Client: newTestAdapterClient()}
	_, err := a.Search(context.Background(), Query{FreeText: "x"}, testCfg())
	if err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name string
		in   map[string][]int
		want string
	}{
		{"empty", nil, ""},
		{"ordered", map[string][]int{"b": {1}, "a": {0}, "c": {2}}, "a b c"},
		{"repeated word", map[string][]int{"the": {0, 2}, "cat": {1}}, "the cat the"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.in); got != tt.want {
				t.Errorf("reconstructAbstract = %q, want %q", got, tt.want)
			}
		})
	}
}
