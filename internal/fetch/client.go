// Package fetch retrieves gallery descriptions and snapshot documents from
// the remote image service.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/entry-gallery/server/internal/gallery"
)

// Client is an HTTP client for the remote image service. Entry descriptions
// live at {base}/{entryId}.json and snapshot documents at {base}/{name}.molj.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the given service base URL.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// EntryDescription fetches and parses the gallery description for one entry.
// The remote document may describe multiple entries; only the requested
// entry's branch is returned. A missing branch is an error, which callers
// treat as "no images available".
func (c *Client) EntryDescription(ctx context.Context, entryID string) (*gallery.Description, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s.json", c.base, entryID))
	if err != nil {
		return nil, fmt.Errorf("fetch description for entry %q: %w", entryID, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse description for entry %q: %w", entryID, err)
	}
	branch, ok := doc[entryID]
	if !ok {
		return nil, fmt.Errorf("entry %q not present in description document", entryID)
	}

	var desc gallery.Description
	if err := json.Unmarshal(branch, &desc); err != nil {
		return nil, fmt.Errorf("parse description for entry %q: %w", entryID, err)
	}
	return &desc, nil
}

// SnapshotText fetches the raw text of a named snapshot document.
func (c *Client) SnapshotText(ctx context.Context, name string) ([]byte, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s.molj", c.base, name))
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %q: %w", name, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
