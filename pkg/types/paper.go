// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source identifies which external system an identifier belongs to. The set
// is open: adapters may introduce new sources without a schema change.
type Source string

const (
	SourceArxiv           Source = "arxiv"
	SourceDOI             Source = "doi"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceOpenAlex        Source = "openalex"
	SourceURL             Source = "url"
)

// Identity asserts that an external reference denotes one paper. Equality is
// by the (Source, ExternalID) pair.
type Identity struct {
	// Source is the external system that issued the identifier.
	Source Source `json:"source" yaml:"source"`

	// ExternalID is the normalized identifier within that source.
	ExternalID string `json:"external_id" yaml:"external_id"`
}

// CanonicalPaper is the single deduplicated record representing one
// real-world paper. The surrogate ID is assigned once and never changes.
type CanonicalPaper struct {
	// ID is the surrogate key assigned by the registry.
	ID int64 `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// TitleHash is the digest of the normalized title, used as a
	// low-confidence same-paper signal.
	TitleHash string `json:"title_hash" yaml:"title_hash"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, zero if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is the highest citation count reported by any source.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// DOI is the normalized DOI, empty if none is known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the normalized arXiv identifier, empty if none is known.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// SemanticScholarID is the Semantic Scholar paper hash.
	SemanticScholarID string `json:"semantic_scholar_id,omitempty" yaml:"semantic_scholar_id,omitempty"`

	// OpenAlexID is the OpenAlex work identifier (e.g. "W2741809807").
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`

	// URL is the landing page URL.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is the full-text PDF URL.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Keywords lists subject keywords merged across sources.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// UpsertPayload is the registry input: one source's view of a paper. Title is
// required; at least one identifier (or a title from which a hash can be
// derived) must be present for the payload to be admitted.
type UpsertPayload struct {
	Title             string   `json:"title" yaml:"title"`
	Abstract          string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors           []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	DOI               string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID           string   `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	SemanticScholarID string   `json:"semantic_scholar_id,omitempty" yaml:"semantic_scholar_id,omitempty"`
	OpenAlexID        string   `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`
	Year              int      `json:"year,omitempty" yaml:"year,omitempty"`
	Venue             string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	CitationCount     int      `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
	URL               string   `json:"url,omitempty" yaml:"url,omitempty"`
	PDFURL            string   `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	Keywords          []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}
