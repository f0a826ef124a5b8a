// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads full-text PDFs for canonical papers. The PDF URL is
// taken from the record itself when one is known, otherwise derived from the
// arXiv id or looked up through OpenAlex open-access locations by DOI.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paperdex/internal/httputil"
	"github.com/pdiddy/paperdex/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// Result holds the outcome of one PDF download.
type Result struct {
	Path    string
	Skipped bool
}

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of papers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// PDF downloads the full text of one canonical paper into cfg.Dir. A file
// that already exists on disk is never re-downloaded.
func PDF(ctx context.Context, client *httputil.Client, paper types.CanonicalPaper, cfg types.FetchConfig, userAgent string, w io.Writer) (Result, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "pdfs"
	}
	slug := paperSlug(paper)
	destPath := filepath.Join(dir, slug+".pdf")

	if _, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		return Result{Path: destPath, Skipped: true}, nil
	}

	pdfURL, err := resolvePDFURL(ctx, client, paper, userAgent)
	if err != nil {
		return Result{}, err
	}
	if pdfURL == "" {
		return Result{}, fmt.Errorf("no PDF source known for paper %d (%s)", paper.ID, paper.Title)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	fmt.Fprintf(w, "downloading: %s\n", slug)
	if err := downloadFile(ctx, client, pdfURL, destPath, userAgent); err != nil {
		return Result{}, fmt.Errorf("downloading %s: %w", slug, err)
	}
	return Result{Path: destPath}, nil
}

// Batch downloads PDFs for multiple papers, printing per-item status and
// returning a summary. Individual failures never abort the batch; outbound
// pacing is the client's rate limiter.
func Batch(ctx context.Context, client *httputil.Client, papers []types.CanonicalPaper, cfg types.FetchConfig, userAgent string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range papers {
		res, err := PDF(ctx, client, p, cfg, userAgent, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  paper %d (%v)\n", p.ID, err)
			result.Failed++
			continue
		}
		if res.Skipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// resolvePDFURL picks the best known PDF source for the paper: the stored PDF
// URL, the arXiv PDF endpoint, then an OpenAlex open-access lookup by DOI.
func resolvePDFURL(ctx context.Context, client *httputil.Client, paper types.CanonicalPaper, userAgent string) (string, error) {
	if paper.PDFURL != "" {
		return paper.PDFURL, nil
	}
	if paper.ArxivID != "" {
		return arxivPDFBase + paper.ArxivID, nil
	}
	if paper.DOI != "" {
		return resolveOpenAlex(ctx, client, paper.DOI, userAgent)
	}
	return "", nil
}

// paperSlug derives a filesystem-safe name for the paper's PDF.
func paperSlug(paper types.CanonicalPaper) string {
	switch {
	case paper.ArxivID != "":
		return strings.ReplaceAll(paper.ArxivID, "/", "_")
	case paper.DOI != "":
		return strings.ReplaceAll(paper.DOI, "/", "_")
	default:
		return fmt.Sprintf("paper-%d", paper.ID)
	}
}

// downloadFile fetches url to destPath through a temporary file so a partial
// download never leaves a truncated PDF behind.
func downloadFile(ctx context.Context, client *httputil.Client, url, destPath, userAgent string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
