// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import (
	"testing"

	"github.com/pdiddy/paperdex/pkg/types"
)

func TestNormalizeArxivID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Positive: bare and prefixed IDs.
		{"bare modern", "2301.07041", "2301.07041"},
		{"bare with version", "2501.12345v2", "2501.12345v2"},
		{"four digit suffix", "0704.0001", "0704.0001"},
		{"arXiv prefix", "arXiv:2301.07041", "2301.07041"},
		{"arxiv prefix lowercase", "arxiv:2301.07041", "2301.07041"},
		{"legacy archive", "hep-th/9901001", "hep-th/9901001"},
		{"legacy with subject class", "math.GT/0309136v2", "math.gt/0309136v2"},
		{"uppercase input", "2301.07041V3", "2301.07041v3"},

		// Positive: URL forms.
		{"abs URL", "https://arxiv.org/abs/2301.07041", "2301.07041"},
		{"pdf URL with version and extension", "https://arxiv.org/pdf/2501.12345v2.pdf", "2501.12345v2"},
		{"pdf URL no extension", "https://arxiv.org/pdf/2301.07041", "2301.07041"},
		{"abs URL with query", "https://arxiv.org/abs/2301.07041?context=cs.LG", "2301.07041"},
		{"abs URL with fragment", "https://arxiv.org/abs/2301.07041#section", "2301.07041"},
		{"abs URL trailing slash", "https://arxiv.org/abs/2301.07041/", "2301.07041"},
		{"legacy abs URL", "http://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001v1"},

		// Negative.
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"doi", "10.1145/1234567.1234568", ""},
		{"plain words", "attention is all you need", ""},
		{"too few digits", "2301.071", ""},
		{"non-arxiv URL", "https://example.com/paper.pdf", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeArxivID(tt.input); got != tt.want {
				t.Errorf("NormalizeArxivID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", "10.1145/1234567.1234568", "10.1145/1234567.1234568"},
		{"doi.org URL", "https://doi.org/10.1145/123.456", "10.1145/123.456"},
		{"dx.doi.org URL", "http://dx.doi.org/10.1038/nature12345", "10.1038/nature12345"},
		{"schemeless host", "doi.org/10.1038/nature12345", "10.1038/nature12345"},
		{"doi prefix", "doi:10.1038/nature12345", "10.1038/nature12345"},
		{"uppercase suffix lowered", "10.1145/ABC.DEF", "10.1145/abc.def"},
		{"query stripped", "https://doi.org/10.1145/123.456?via=crossref", "10.1145/123.456"},
		{"surrounding whitespace", "  10.1145/123.456  ", "10.1145/123.456"},

		{"empty", "", ""},
		{"arxiv id", "2301.07041", ""},
		{"missing suffix", "10.1145/", ""},
		{"wrong prefix", "11.1145/123", ""},
		{"embedded space", "10.1145/12 34", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.input); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation stripped", "Attention Is All You Need!", "attention is all you need"},
		{"whitespace collapsed", "  deep   learning\t\nsurvey ", "deep learning survey"},
		{"digits kept", "GPT-4 Technical Report", "gpt4 technical report"},
		{"empty", "", ""},
		{"punctuation only", "?!—:", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitleHash(t *testing.T) {
	// Variants of the same title hash identically.
	a := TitleHash("Attention Is All You Need")
	b := TitleHash("attention is all you need!")
	if a == "" {
		t.Fatal("TitleHash returned empty for non-empty title")
	}
	if a != b {
		t.Errorf("hashes differ for equivalent titles: %q vs %q", a, b)
	}

	if got := TitleHash("Something Else Entirely"); got == a {
		t.Error("distinct titles should not collide")
	}

	if got := TitleHash("?!"); got != "" {
		t.Errorf("TitleHash of punctuation-only title = %q, want empty", got)
	}
}

func TestFromPayload(t *testing.T) {
	p := types.UpsertPayload{
		Title:             "T",
		ArxivID:           "https://arxiv.org/abs/2301.07041",
		DOI:               "https://doi.org/10.1145/123.456",
		SemanticScholarID: " abc123 ",
		OpenAlexID:        "W2741809807",
	}

	ids := FromPayload(p)
	want := []types.Identity{
		{Source: types.SourceArxiv, ExternalID: "2301.07041"},
		{Source: types.SourceDOI, ExternalID: "10.1145/123.456"},
		{Source: types.SourceSemanticScholar, ExternalID: "abc123"},
		{Source: types.SourceOpenAlex, ExternalID: "W2741809807"},
	}
	if len(ids) != len(want) {
		t.Fatalf("len = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %+v, want %+v", i, ids[i], want[i])
		}
	}

	// Malformed identifiers are dropped, not passed through.
	ids = FromPayload(types.UpsertPayload{Title: "T", DOI: "not-a-doi"})
	if len(ids) != 0 {
		t.Errorf("malformed DOI produced identities: %+v", ids)
	}
}
