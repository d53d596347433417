package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestByVehicle(t *testing.T) {
	ds := dataset(
		rec("1", 51.0, -114.0),
		rec("2", 51.2, -114.2),
		rec("1", 51.4, -114.4),
	)

	got := ByVehicle(ds, "1")

	assert.Equal(t, []PositionRecord{rec("1", 51.0, -114.0), rec("1", 51.4, -114.4)}, got.Records())
	assert.Equal(t, ds.FetchedAt(), got.FetchedAt())
	assert.Equal(t, ds.Source(), got.Source())
	assert.Equal(t, 3, ds.Len(), "input must not change")
}

func TestByVehicleUnknownID(t *testing.T) {
	got := ByVehicle(dataset(rec("1", 51.0, -114.0)), "999")

	assert.True(t, got.Empty())
	assert.Equal(t, 0, got.Len())
}

func TestByVehicleIsExactMatch(t *testing.T) {
	got := ByVehicle(dataset(rec("1", 51.0, -114.0), rec("10", 51.1, -114.1), rec(" 1", 51.2, -114.2)), "1")

	assert.Equal(t, 1, got.Len())
}

func TestSortByTime(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ds := dataset(
		recAt("1", 51.0, -114.0, base.Add(2*time.Minute)),
		recAt("1", 51.1, -114.1, base),
		recAt("1", 51.2, -114.2, base.Add(time.Minute)),
	)

	got := SortByTime(ds).Records()

	assert.Equal(t, []time.Time{base, base.Add(time.Minute), base.Add(2 * time.Minute)},
		[]time.Time{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
	assert.Equal(t, 51.0, ds.records[0].Latitude, "input must not change")
}

func TestSortByTimeIsStableAndKeepsUntimedLast(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ds := dataset(
		rec("1", 50.0, -114.0),
		recAt("1", 51.0, -114.0, base),
		rec("1", 50.1, -114.0),
		recAt("1", 51.1, -114.0, base),
		recAt("1", 51.2, -114.0, base.Add(-time.Minute)),
	)

	got := SortByTime(ds).Records()

	lats := make([]float64, len(got))
	for i, r := range got {
		lats[i] = r.Latitude
	}
	assert.Equal(t, []float64{51.2, 51.0, 51.1, 50.0, 50.1}, lats)
}

func TestByVehicleIsIdempotent(t *testing.T) {
	ds := dataset(rec("1", 51.0, -114.0), rec("2", 51.2, -114.2), rec("1", 51.4, -114.4))

	once := ByVehicle(ds, "1")
	twice := ByVehicle(once, "1")

	assert.Equal(t, once.Records(), twice.Records())
}
