package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoadsAndCachesDataset(t *testing.T) {
	feed := newFeedServer(t, http.StatusOK, calgaryCSV)
	loader := newTestLoader(nil)
	src := Source{Locator: feed.URL, Format: FormatCSV}

	first, err := loader.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Len())
	assert.Equal(t, feed.URL, first.Source())

	second, err := loader.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, feed.hits.Load())
}

func TestLoaderConcurrentLoadsShareOneFetch(t *testing.T) {
	feed := newFeedServer(t, http.StatusOK, calgaryCSV)
	loader := newTestLoader(nil)
	src := Source{Locator: feed.URL, Format: FormatCSV}

	var wg sync.WaitGroup
	results := make([]*Dataset, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := loader.Load(context.Background(), src)
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, feed.hits.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
}

func TestLoaderUpstreamFailure(t *testing.T) {
	feed := newFeedServer(t, http.StatusInternalServerError, "boom")
	loader := newTestLoader(nil)

	_, err := loader.Load(context.Background(), Source{Locator: feed.URL, Format: FormatCSV})
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorContains(t, err, "http status 500")

	// failures are not cached
	_, err = loader.Load(context.Background(), Source{Locator: feed.URL, Format: FormatCSV})
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.EqualValues(t, 2, feed.hits.Load())
}

func TestLoaderUndecodablePayload(t *testing.T) {
	feed := newFeedServer(t, http.StatusOK, "id,lat\n1,2\n")
	loader := newTestLoader(nil)

	_, err := loader.Load(context.Background(), Source{Locator: feed.URL, Format: FormatCSV})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoaderUnknownFormat(t *testing.T) {
	loader := newTestLoader(nil)

	_, err := loader.Load(context.Background(), Source{Locator: "feed.bin", Format: Format("parquet")})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoaderReadsLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.csv")
	require.NoError(t, os.WriteFile(path, []byte(calgaryCSV), 0o600))
	loader := newTestLoader(nil)

	ds, err := loader.Load(context.Background(), Source{Locator: "file://" + path, Format: FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ds.VehicleIDs())

	_, err = loader.Load(context.Background(), Source{Locator: filepath.Join(t.TempDir(), "missing.csv"), Format: FormatCSV})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoaderRefreshReplacesCachedDataset(t *testing.T) {
	feed := newFeedServer(t, http.StatusOK, calgaryCSV)
	loader := newTestLoader(nil)
	src := Source{Locator: feed.URL, Format: FormatCSV}

	first, err := loader.Load(context.Background(), src)
	require.NoError(t, err)

	refreshed, err := loader.Refresh(context.Background(), src)
	require.NoError(t, err)
	assert.NotSame(t, first, refreshed)
	assert.EqualValues(t, 2, feed.hits.Load())

	cached, err := loader.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, refreshed, cached)
	assert.EqualValues(t, 2, feed.hits.Load())
}

func TestLoaderFailedRefreshKeepsPreviousDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.csv")
	require.NoError(t, os.WriteFile(path, []byte(calgaryCSV), 0o600))
	loader := newTestLoader(nil)
	src := Source{Locator: path, Format: FormatCSV}

	first, err := loader.Load(context.Background(), src)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	_, err = loader.Refresh(context.Background(), src)
	require.ErrorIs(t, err, ErrDataUnavailable)

	cached, err := loader.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, first, cached)
}

func TestLoaderSharesPayloadThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	feed := newFeedServer(t, http.StatusOK, calgaryCSV)
	src := Source{Locator: feed.URL, Format: FormatCSV}

	_, err := newTestLoader(NewRedisRawStore(client)).Load(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, mr.Exists(rawKeyPrefix+src.key()))

	// a second process with its own in-memory cache reuses the shared payload
	ds, err := newTestLoader(NewRedisRawStore(client)).Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.EqualValues(t, 1, feed.hits.Load())
}

func TestLoaderSkipsRedisForUndecodablePayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	feed := newFeedServer(t, http.StatusOK, "not,a,position,feed\n")
	src := Source{Locator: feed.URL, Format: FormatCSV}

	_, err := newTestLoader(NewRedisRawStore(client)).Load(context.Background(), src)
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.False(t, mr.Exists(rawKeyPrefix+src.key()))
}

func TestLoaderFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()
	feed := newFeedServer(t, http.StatusOK, calgaryCSV)

	loader := NewLoader(newFeedFetcher(time.Second), NewDatasetCache(4, 0), NewRedisRawStore(client), 0, DefaultCSVColumns, nopLogger())
	ds, err := loader.Load(context.Background(), Source{Locator: feed.URL, Format: FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestLoaderCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	requested := make(chan struct{})
	release := make(chan struct{})
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(requested)
		<-release
		_, _ = w.Write([]byte(calgaryCSV))
	}))
	t.Cleanup(feed.Close)
	loader := newTestLoader(nil)
	src := Source{Locator: feed.URL, Format: FormatCSV}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := loader.Load(ctx, src)
		first <- err
	}()
	<-requested

	second := make(chan *Dataset, 1)
	go func() {
		ds, err := loader.Load(context.Background(), src)
		assert.NoError(t, err)
		second <- ds
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(release)

	ds := <-second
	require.NotNil(t, ds)
	assert.Equal(t, 3, ds.Len())

	cached, ok := loader.Cached(src)
	require.True(t, ok)
	assert.Same(t, ds, cached)
}

func TestLoaderCachedDoesNotFetch(t *testing.T) {
	feed := newFeedServer(t, http.StatusOK, calgaryCSV)
	loader := newTestLoader(nil)
	src := Source{Locator: feed.URL, Format: FormatCSV}

	_, ok := loader.Cached(src)
	assert.False(t, ok)
	assert.Zero(t, feed.hits.Load())

	_, err := loader.Load(context.Background(), src)
	require.NoError(t, err)
	ds, ok := loader.Cached(src)
	require.True(t, ok)
	assert.Equal(t, 3, ds.Len())
}
