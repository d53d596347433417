package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const calgaryCSV = `vehicle_id,latitude,longitude,timestamp,route
1,51.0,-114.0,2024-05-01T10:02:00.000,3
2,51.2,-114.2,2024-05-01T10:00:00.000,7
1,51.4,-114.4,2024-05-01T10:01:00.000,3
3,,-114.1,2024-05-01T10:00:00.000,9
4,not-a-number,-114.1,2024-05-01T10:00:00.000,9
`

type feedServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newFeedServer(t *testing.T, status int, body string) *feedServer {
	t.Helper()
	fs := &feedServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newTestLoader(raw RawStore) *Loader {
	return NewLoader(newFeedFetcher(5*time.Second), NewDatasetCache(4, 0), raw, 0, DefaultCSVColumns, nopLogger())
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func rec(id string, lat, lon float64) PositionRecord {
	return PositionRecord{VehicleID: id, Latitude: lat, Longitude: lon}
}

func recAt(id string, lat, lon float64, ts time.Time) PositionRecord {
	return PositionRecord{VehicleID: id, Latitude: lat, Longitude: lon, Timestamp: ts}
}

func dataset(records ...PositionRecord) *Dataset {
	return NewDataset("test", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), records)
}
