// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for paperdex: search
// candidates, canonical paper records, identities, and configuration.
package types

// PaperCandidate is an ephemeral search result returned by an adapter query.
// Candidates from different adapters that denote the same paper are folded
// together by the fusion engine before they reach the caller.
type PaperCandidate struct {
	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, zero if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference name, if reported.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is the citation count reported by the source.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// URL is the landing page URL.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is the full-text PDF URL.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Identities holds every normalized identifier the adapter could derive.
	Identities []Identity `json:"identities,omitempty" yaml:"identities,omitempty"`

	// TitleHash is the digest of the normalized title.
	TitleHash string `json:"title_hash" yaml:"title_hash"`

	// RetrievalScore is the fused reciprocal-rank score. Higher is better;
	// candidates found by several adapters outscore single-source hits.
	RetrievalScore float64 `json:"retrieval_score" yaml:"retrieval_score"`

	// RetrievalSources names the adapters that produced this candidate.
	RetrievalSources []string `json:"retrieval_sources,omitempty" yaml:"retrieval_sources,omitempty"`

	// Unpersisted is set when optional persistence was requested but the
	// registry upsert for this candidate failed. The candidate is still
	// returned to the caller.
	Unpersisted bool `json:"unpersisted,omitempty" yaml:"unpersisted,omitempty"`
}

// Identifier returns the external ID recorded for source, or "".
func (c PaperCandidate) Identifier(source Source) string {
	for _, id := range c.Identities {
		if id.Source == source {
			return id.ExternalID
		}
	}
	return ""
}
