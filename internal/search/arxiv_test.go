// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/paperdex/internal/httputil"
	"github.com/pdiddy/paperdex/pkg/types"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Attention Is
      All You Need</title>
    <summary>  The dominant sequence transduction models...  </summary>
    <published>2023-01-17T12:00:00Z</published>
    <author><name> Ashish Vaswani </name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Older Paper</title>
    <summary>Old.</summary>
    <published>2017-06-12T12:00:00Z</published>
    <author><name>Somebody</name></author>
  </entry>
  <entry>
    <id>http://example.com/not-arxiv</id>
    <title>Broken Entry</title>
  </entry>
</feed>`

func newTestAdapterClient() *httputil.Client {
	return httputil.NewClient(5*time.Second, 0)
}

func TestArxivAdapterSearch(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, arxivFeedXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := &ArxivAdapter{Client: newTestAdapterClient()}
	got, err := a.Search(context.Background(), Query{FreeText: "attention transformers"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (entry without arXiv ID skipped)", len(got))
	}

	c := got[0]
	if c.Title != "Attention Is All You Need" {
		t.Errorf("title = %q, want whitespace-normalized title", c.Title)
	}
	if want := "2301.07041"; c.Identifier(types.SourceArxiv) != want {
		t.Errorf("arXiv identity = %q, want version-stripped %q", c.Identifier(types.SourceArxiv), want)
	}
	if c.URL != "https://arxiv.org/abs/2301.07041" {
		t.Errorf("URL = %q", c.URL)
	}
	if c.PDFURL != "https://arxiv.org/pdf/2301.07041" {
		t.Errorf("PDFURL = %q", c.PDFURL)
	}
	if c.Year != 2023 {
		t.Errorf("year = %d, want 2023", c.Year)
	}
	if len(c.Authors) != 2 || c.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors = %v", c.Authors)
	}
	if gotQuery == "" {
		t.Error("no query sent to server")
	}
}

func TestArxivAdapterYearFilter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, arxivFeedXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := &ArxivAdapter{Client: newTestAdapterClient()}
	got, err := a.Search(context.Background(), Query{FreeText: "attention", YearFrom: 2020}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (2017 paper filtered out)", len(got))
	}
	if got[0].Year != 2023 {
		t.Errorf("year = %d, want 2023", got[0].Year)
	}
}

func TestArxivAdapterHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := &ArxivAdapter{Client: newTestAdapterClient()}
	_, err := a.Search(context.Background(), Query{FreeText: "x"}, testCfg())
	if err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}

func TestArxivAdapterEmptyQuery(t *testing.T) {
	a := &ArxivAdapter{Client: newTestAdapterClient()}
	_, err := a.Search(context.Background(), Query{}, testCfg())
	if err == nil {
		t.Fatal("expected error for empty query")
	}
}
