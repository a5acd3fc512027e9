// Package fetch implements the HTTP Fetcher (spec.md §4.B): streams a
// URL to a writable sink in large buffered chunks without holding the
// full body in memory, and surfaces HTTP 404 as a distinct error kind
// so the CDC applier can treat "next packet not published yet" as idle
// rather than failure.
package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ChunkSize is the buffered write size while streaming a response body:
// every write to the sink but the last carries exactly ChunkSize bytes
// (spec.md §4.B: "≥8 MiB buffered chunks").
const ChunkSize = 8 << 20

// ErrNotFound is returned when the server responds 404 — "the next
// replication packet is not yet published" in the CDC applier's usage.
var ErrNotFound = errors.New("fetch: not found")

// ErrNetwork wraps any non-2xx, non-404 HTTP response.
var ErrNetwork = errors.New("fetch: network error")

// Fetcher streams HTTP GET responses to a sink.
type Fetcher struct {
	http   *http.Client
	logger *slog.Logger
}

// New builds a Fetcher with the given timeout (0 disables it — large
// archive downloads run unbounded, bounded only by ctx cancellation).
func New(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{http: &http.Client{Timeout: timeout}, logger: logger}
}

// Fetch streams url's body into sink. sink is never closed by Fetch —
// the caller owns its lifetime.
func (f *Fetcher) Fetch(ctx context.Context, url string, sink io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d for %s", ErrNetwork, resp.StatusCode, url)
	}

	bw := bufio.NewWriterSize(&progressWriter{w: sink, url: url, logger: f.logger}, ChunkSize)
	written, err := io.Copy(bw, resp.Body)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		return fmt.Errorf("fetch: stream body: %w", err)
	}
	f.logger.Info("fetch complete", "url", url, "bytes", humanize.Bytes(uint64(written)))
	return nil
}

// GetLatest fetches the LATEST marker file and returns its trimmed
// contents — the snapshot version string (spec.md §6).
func (f *Fetcher) GetLatest(ctx context.Context, url string) (string, error) {
	var buf strings.Builder
	if err := f.Fetch(ctx, url, &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// progressWriter logs a line every ChunkSize bytes written, in
// human-readable units, without buffering anything itself.
type progressWriter struct {
	w       io.Writer
	url     string
	logger  *slog.Logger
	written int64
	logged  int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.written-p.logged >= ChunkSize {
		p.logger.Info("fetch progress", "url", p.url, "bytes", humanize.Bytes(uint64(p.written)))
		p.logged = p.written
	}
	return n, err
}
