package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
)

type source interface {
	Fetch(ctx context.Context, limit int) ([]entry, error)
}

type httpSource struct {
	client *http.Client
	url    string
}

func newHTTPSource(client *http.Client, rawURL string) *httpSource {
	if client == nil {
		client = http.DefaultClient
	}

	return &httpSource{client: client, url: rawURL}
}

// Fetch asks the endpoint for at most limit entries and truncates the
// response in case the server ignores the bound.
func (h *httpSource) Fetch(ctx context.Context, limit int) ([]entry, error) {
	endpoint, err := url.Parse(h.url)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	if limit > 0 {
		query := endpoint.Query()
		query.Set("_limit", strconv.Itoa(limit))
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("prepare fetch request: %w", err)
	}

	req.Header.Add("Accept", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("fetch posts: unexpected status %s", res.Status)
	}

	var result []entry
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	if result == nil {
		result = make([]entry, 0)
	}

	return result, nil
}

// spinningSource shows a terminal spinner while the wrapped fetch runs.
type spinningSource struct {
	source
	out io.Writer
}

func (s spinningSource) Fetch(ctx context.Context, limit int) ([]entry, error) {
	sp := spinner.New(spinner.CharSets[26], 100*time.Millisecond, spinner.WithWriter(s.out))
	sp.Prefix = "Fetching posts"

	sp.Start()
	defer sp.Stop()

	return s.source.Fetch(ctx, limit)
}
