// Package host defines the rendering host consumed by the gallery manager
// and an HTTP implementation forwarding to a viewer bridge.
package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Renderer is the rendering host the manager applies snapshots to. The host
// itself lives outside this system; implementations only deliver operations
// to it.
type Renderer interface {
	// OpenSnapshot applies a named in-memory snapshot document.
	OpenSnapshot(ctx context.Context, name string, document []byte) error
	// ResetCamera resets the host's camera to its default orientation.
	ResetCamera(ctx context.Context) error
	// Commit flushes pending render state.
	Commit(ctx context.Context) error
}

// HTTPRenderer forwards host operations to a viewer bridge over HTTP.
type HTTPRenderer struct {
	base string
	http *http.Client
}

// NewHTTPRenderer creates a renderer posting to the given bridge base URL.
func NewHTTPRenderer(base string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// OpenSnapshot posts the document to {base}/snapshot?name={name}.
func (r *HTTPRenderer) OpenSnapshot(ctx context.Context, name string, document []byte) error {
	u := fmt.Sprintf("%s/snapshot?name=%s", r.base, url.QueryEscape(name))
	return r.post(ctx, u, document)
}

// ResetCamera posts to {base}/camera/reset.
func (r *HTTPRenderer) ResetCamera(ctx context.Context) error {
	return r.post(ctx, r.base+"/camera/reset", nil)
}

// Commit posts to {base}/commit.
func (r *HTTPRenderer) Commit(ctx context.Context) error {
	return r.post(ctx, r.base+"/commit", nil)
}

func (r *HTTPRenderer) post(ctx context.Context, u string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", u, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: unexpected status %s", u, resp.Status)
	}
	return nil
}

// LogRenderer logs host operations instead of delivering them. Used when no
// viewer bridge is configured.
type LogRenderer struct{}

// OpenSnapshot logs the applied snapshot.
func (LogRenderer) OpenSnapshot(ctx context.Context, name string, document []byte) error {
	log.Printf("[Host] open snapshot %q (%d bytes)", name, len(document))
	return nil
}

// ResetCamera logs the reset.
func (LogRenderer) ResetCamera(ctx context.Context) error {
	log.Printf("[Host] reset camera")
	return nil
}

// Commit logs the commit.
func (LogRenderer) Commit(ctx context.Context) error {
	log.Printf("[Host] commit")
	return nil
}
