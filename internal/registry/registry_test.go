// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperdex/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(types.StoreConfig{DBPath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRegistry(t *testing.T) (*Registry, *Store) {
	t.Helper()
	store := testStore(t)
	return New(store, NewResolver(store), io.Discard), store
}

func countPapers(t *testing.T, store *Store) int {
	t.Helper()
	papers, err := store.List(context.Background())
	require.NoError(t, err)
	return len(papers)
}

// --- Upsert ---

func TestUpsertCreatesNewPaper(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	p, created, err := reg.Upsert(ctx, types.UpsertPayload{
		Title:    "Attention Is All You Need",
		Abstract: "The dominant...",
		Authors:  []string{"Ashish Vaswani"},
		ArxivID:  "1706.03762",
		DOI:      "https://doi.org/10.5555/3295222.3295349",
		Year:     2017,
	}, "arxiv")
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.NotEmpty(t, p.TitleHash)
	assert.Equal(t, "1706.03762", p.ArxivID)
	// DOI URL form is normalized before storage.
	assert.Equal(t, "10.5555/3295222.3295349", p.DOI)
	assert.False(t, p.CreatedAt.IsZero())

	ids, err := store.ListIdentities(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestUpsertIdempotent(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	payload := types.UpsertPayload{Title: "T", DOI: "10.1/x", Year: 2024}

	first, created, err := reg.Upsert(ctx, payload, "test")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := reg.Upsert(ctx, payload, "test")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countPapers(t, store))

	sum := reg.UpsertMany(ctx, []types.UpsertPayload{payload}, "test")
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 1, sum.Updated)
}

func TestUpsertMergesAcrossIdentities(t *testing.T) {
	// {title T, doi} then {title T, arxiv} share a title hash and must end
	// up as one canonical row exposing both identifiers.
	reg, store := testRegistry(t)
	ctx := context.Background()

	first, created, err := reg.Upsert(ctx, types.UpsertPayload{Title: "T", DOI: "10.1/x"}, "a")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := reg.Upsert(ctx, types.UpsertPayload{Title: "T", ArxivID: "2501.00001"}, "b")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "10.1/x", second.DOI)
	assert.Equal(t, "2501.00001", second.ArxivID)
	assert.Equal(t, 1, countPapers(t, store))

	ids, err := store.ListIdentities(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestUpsertValidation(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	_, _, err := reg.Upsert(ctx, types.UpsertPayload{DOI: "10.1/x"}, "test")
	assert.ErrorContains(t, err, "no title")

	// A punctuation-only title hashes to nothing; with no identities the
	// payload is rejected at the boundary.
	_, _, err = reg.Upsert(ctx, types.UpsertPayload{Title: "?!"}, "test")
	assert.ErrorContains(t, err, "no identity")

	// The same title is admitted once it carries an identity.
	_, created, err := reg.Upsert(ctx, types.UpsertPayload{Title: "?!", DOI: "10.1/q"}, "test")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestUpsertNonDestructiveMerge(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	_, _, err := reg.Upsert(ctx, types.UpsertPayload{
		Title:         "T",
		DOI:           "10.1/x",
		Abstract:      "a medium length abstract here",
		Authors:       []string{"A. Author"},
		Venue:         "ICML",
		CitationCount: 50,
		Keywords:      []string{"ml"},
	}, "a")
	require.NoError(t, err)

	merged, created, err := reg.Upsert(ctx, types.UpsertPayload{
		Title:         "T",
		DOI:           "10.1/x",
		Abstract:      "x",
		CitationCount: 7,
		URL:           "https://example.com/t",
		Keywords:      []string{"ml", "transformers"},
	}, "b")
	require.NoError(t, err)
	assert.False(t, created)

	// Shorter abstract and lower citation count never win; empty fields fill.
	assert.Equal(t, "a medium length abstract here", merged.Abstract)
	assert.Equal(t, 50, merged.CitationCount)
	assert.Equal(t, []string{"A. Author"}, merged.Authors)
	assert.Equal(t, "ICML", merged.Venue)
	assert.Equal(t, "https://example.com/t", merged.URL)
	assert.Equal(t, []string{"ml", "transformers"}, merged.Keywords)
}

func TestUpsertManyIsolatesFailures(t *testing.T) {
	store := testStore(t)
	var buf bytes.Buffer
	reg := New(store, NewResolver(store), &buf)
	ctx := context.Background()

	sum := reg.UpsertMany(ctx, []types.UpsertPayload{
		{Title: "Good One", DOI: "10.1/a"},
		{}, // no title
		{Title: "Good Two", DOI: "10.1/b"},
	}, "batch")

	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 0, sum.Updated)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "payload 1")
	assert.Contains(t, buf.String(), "warning")
	assert.Equal(t, 2, countPapers(t, store))
}

func TestConcurrentUpsertSameIdentity(t *testing.T) {
	// Two simultaneous upserts carrying the same new identity must yield
	// exactly one canonical row regardless of commit order.
	reg, store := testRegistry(t)
	ctx := context.Background()

	payload := types.UpsertPayload{Title: "Raced Paper", ArxivID: "2501.11111"}

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = reg.Upsert(ctx, payload, fmt.Sprintf("writer-%d", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}
	assert.Equal(t, 1, countPapers(t, store))

	id, err := store.Resolve(ctx, types.SourceArxiv, "2501.11111")
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestPersistCandidate(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	err := reg.Persist(ctx, types.PaperCandidate{
		Title:    "Fused Candidate",
		Abstract: "abs",
		Year:     2024,
		Identities: []types.Identity{
			{Source: types.SourceArxiv, ExternalID: "2401.00001"},
			{Source: types.SourceOpenAlex, ExternalID: "W123"},
		},
		RetrievalSources: []string{"arxiv", "openalex"},
	})
	require.NoError(t, err)

	id, err := store.Resolve(ctx, types.SourceArxiv, "2401.00001")
	require.NoError(t, err)
	p, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fused Candidate", p.Title)
	assert.Equal(t, "W123", p.OpenAlexID)
}

func TestExportYAML(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	_, _, err := reg.Upsert(ctx, types.UpsertPayload{Title: "Exported", DOI: "10.1/e"}, "test")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, store.ExportYAML(ctx, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exported")
	assert.Contains(t, string(data), "10.1/e")
}
