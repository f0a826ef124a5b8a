// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident normalizes raw external identifiers (arXiv IDs, DOIs,
// titles) into canonical tokens. All functions are pure and total: malformed
// input yields an empty string, never an error.
package ident

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/paperdex/pkg/types"
)

// arxivNewPattern matches modern arXiv IDs: "2301.07041", "2501.12345v2".
var arxivNewPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5})(v\d+)?$`)

// arxivLegacyPattern matches pre-2007 arXiv IDs: "hep-th/9901001",
// "math.GT/0309136v2".
var arxivLegacyPattern = regexp.MustCompile(`^([a-z-]+(?:\.[a-z]{2})?)/(\d{7})(v\d+)?$`)

// doiPattern matches bare DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d+/\S+$`)

// NormalizeArxivID extracts the canonical arXiv ID from raw input, which may
// be a bare ID ("2301.07041v2"), a prefixed form ("arXiv:2301.07041"), or an
// arxiv.org abs/pdf URL. Returns "" when no arXiv ID can be derived.
func NormalizeArxivID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = trimQueryFragment(s)

	// Pull the ID out of abs/ and pdf/ URL paths.
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[idx+len(marker):]
			break
		}
	}

	s = strings.TrimSuffix(s, "/")
	if strings.HasSuffix(strings.ToLower(s), ".pdf") {
		s = s[:len(s)-len(".pdf")]
	}
	if len(s) > 6 && strings.EqualFold(s[:6], "arxiv:") {
		s = s[6:]
	}
	s = strings.ToLower(s)

	if m := arxivNewPattern.FindStringSubmatch(s); m != nil {
		return m[1] + m[2]
	}
	if m := arxivLegacyPattern.FindStringSubmatch(s); m != nil {
		return m[1] + "/" + m[2] + m[3]
	}
	return ""
}

// NormalizeDOI extracts the canonical lowercase DOI from raw input, which may
// be a bare DOI, a "doi:"-prefixed form, or a doi.org / dx.doi.org URL.
// Returns "" when no DOI can be derived.
func NormalizeDOI(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = trimQueryFragment(s)

	lower := strings.ToLower(s)
	for _, prefix := range []string{
		"https://doi.org/", "http://doi.org/",
		"https://dx.doi.org/", "http://dx.doi.org/",
		"doi.org/", "dx.doi.org/", "doi:",
	} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			lower = lower[len(prefix):]
			break
		}
	}

	s = strings.ToLower(strings.TrimSpace(s))
	if doiPattern.MatchString(s) {
		return s
	}
	return ""
}

// NormalizeTitle returns a lowercased, punctuation-stripped,
// whitespace-collapsed version of the title. The result is hashing input
// only, never user-facing.
func NormalizeTitle(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleHash returns the hex digest of the normalized title, or "" for titles
// that normalize to nothing.
func TitleHash(title string) string {
	norm := NormalizeTitle(title)
	if norm == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(norm))
	return fmt.Sprintf("%x", sum)
}

// FromPayload derives every identity present in an upsert payload, with each
// identifier normalized. Unparseable identifiers are dropped.
func FromPayload(p types.UpsertPayload) []types.Identity {
	var ids []types.Identity
	if v := NormalizeArxivID(p.ArxivID); v != "" {
		ids = append(ids, types.Identity{Source: types.SourceArxiv, ExternalID: v})
	}
	if v := NormalizeDOI(p.DOI); v != "" {
		ids = append(ids, types.Identity{Source: types.SourceDOI, ExternalID: v})
	}
	if v := strings.TrimSpace(p.SemanticScholarID); v != "" {
		ids = append(ids, types.Identity{Source: types.SourceSemanticScholar, ExternalID: v})
	}
	if v := strings.TrimSpace(p.OpenAlexID); v != "" {
		ids = append(ids, types.Identity{Source: types.SourceOpenAlex, ExternalID: v})
	}
	return ids
}

// trimQueryFragment drops any query string or fragment from s.
func trimQueryFragment(s string) string {
	if idx := strings.IndexAny(s, "?#"); idx >= 0 {
		s = s[:idx]
	}
	return s
}
