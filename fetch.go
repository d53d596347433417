package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// feedFetcher retrieves raw feed bytes from an http(s) URL or a local file path.
type feedFetcher struct {
	httpClient *http.Client
}

func newFeedFetcher(timeout time.Duration) *feedFetcher {
	return &feedFetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *feedFetcher) fetch(ctx context.Context, locator string) ([]byte, error) {
	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		return os.ReadFile(strings.TrimPrefix(locator, "file://"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d from %s", resp.StatusCode, locator)
	}
	return io.ReadAll(resp.Body)
}
