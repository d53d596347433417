package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Source locates one position feed.
type Source struct {
	Locator string
	Format  Format
}

func (s Source) key() string {
	return string(s.Format) + "|" + s.Locator
}

// Loader fetches, decodes and caches datasets. A fetch is single-shot: errors
// are returned to the caller wrapped in ErrDataUnavailable and never retried here.
type Loader struct {
	fetcher *feedFetcher
	cache   *DatasetCache
	raw     RawStore
	rawTTL  time.Duration
	columns CSVColumns
	log     *zap.Logger
	now     func() time.Time
}

// NewLoader wires a loader. raw may be nil, which disables the shared payload tier.
func NewLoader(fetcher *feedFetcher, cache *DatasetCache, raw RawStore, rawTTL time.Duration, columns CSVColumns, log *zap.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		raw:     raw,
		rawTTL:  rawTTL,
		columns: columns,
		log:     log,
		now:     time.Now,
	}
}

// Load returns the dataset for src, from cache when a live entry exists. The
// fetch itself is detached from ctx so that one cancelled caller does not
// fail the others sharing it; the fetcher timeout still bounds it.
func (l *Loader) Load(ctx context.Context, src Source) (*Dataset, error) {
	fetchCtx := context.WithoutCancel(ctx)
	return l.cache.Get(ctx, src.key(), func() (*Dataset, error) {
		return l.fetchDataset(fetchCtx, src, true)
	})
}

// Refresh bypasses both cache tiers, fetches src again and publishes the
// result. On failure the previous entry stays in place.
func (l *Loader) Refresh(ctx context.Context, src Source) (*Dataset, error) {
	ds, err := l.fetchDataset(ctx, src, false)
	if err != nil {
		return nil, err
	}
	return l.cache.Put(src.key(), ds), nil
}

// Cached returns the live dataset for src without fetching.
func (l *Loader) Cached(src Source) (*Dataset, bool) {
	return l.cache.Peek(src.key())
}

func (l *Loader) fetchDataset(ctx context.Context, src Source, useRaw bool) (*Dataset, error) {
	decoder, err := decoderFor(src.Format, l.columns)
	if err != nil {
		return nil, err
	}
	// stamped before the fetch so a slow load never outranks a later refresh
	fetchedAt := l.now()
	data, shared, err := l.payload(ctx, src, useRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrDataUnavailable, src.Locator, err)
	}
	records, err := decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s feed: %w", ErrDataUnavailable, src.Format, err)
	}
	// only payloads that decoded cleanly are shared with other processes
	if l.raw != nil && !shared {
		if err := l.raw.Put(ctx, src.key(), data, l.rawTTL); err != nil {
			l.log.Warn("raw store write failed", zap.String("source", src.Locator), zap.Error(err))
		}
	}
	ds := NewDataset(src.Locator, fetchedAt, records)
	l.log.Info("dataset loaded",
		zap.String("source", src.Locator),
		zap.String("format", string(src.Format)),
		zap.Bool("shared", shared),
		zap.Int("decoded", len(records)),
		zap.Int("kept", ds.Len()),
	)
	return ds, nil
}

// payload returns the feed bytes and whether they came from the raw store.
func (l *Loader) payload(ctx context.Context, src Source, useRaw bool) ([]byte, bool, error) {
	if l.raw != nil && useRaw {
		data, ok, err := l.raw.Get(ctx, src.key())
		switch {
		case err != nil:
			l.log.Warn("raw store read failed", zap.String("source", src.Locator), zap.Error(err))
		case ok:
			return data, true, nil
		}
	}
	data, err := l.fetcher.fetch(ctx, src.Locator)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}
