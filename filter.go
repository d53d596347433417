package main

import "slices"

// ByVehicle returns the records of ds whose vehicle id equals id, in their
// original relative order. An id with no records yields an empty dataset.
func ByVehicle(ds *Dataset, id string) *Dataset {
	out := make([]PositionRecord, 0)
	for _, r := range ds.records {
		if r.VehicleID == id {
			out = append(out, r)
		}
	}
	return ds.derive(out)
}

// SortByTime orders ds by ascending timestamp. The sort is stable; records
// without a timestamp keep their relative order after all timestamped ones.
func SortByTime(ds *Dataset) *Dataset {
	out := slices.Clone(ds.records)
	slices.SortStableFunc(out, func(a, b PositionRecord) int {
		switch {
		case a.HasTimestamp() && b.HasTimestamp():
			return a.Timestamp.Compare(b.Timestamp)
		case a.HasTimestamp():
			return -1
		case b.HasTimestamp():
			return 1
		default:
			return 0
		}
	})
	return ds.derive(out)
}
