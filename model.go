package main

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/golang/geo/s2"
)

// PositionRecord is one observation of a vehicle, normalized from whatever feed format produced it.
// Fields holds the passthrough columns of the source row and must not be modified.
type PositionRecord struct {
	VehicleID string
	Latitude  float64
	Longitude float64
	Timestamp time.Time
	Fields    map[string]string
}

func (r PositionRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// MarshalJSON flattens the record into a single table row for the raw data view.
func (r PositionRecord) MarshalJSON() ([]byte, error) {
	row := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		row[k] = v
	}
	row["vehicle_id"] = r.VehicleID
	row["latitude"] = r.Latitude
	row["longitude"] = r.Longitude
	if r.HasTimestamp() {
		row["timestamp"] = r.Timestamp.Format(time.RFC3339)
	}
	return json.Marshal(row)
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// Dataset is an immutable, ordered set of positions from one fetch of a source.
// Filtering and sorting produce new datasets and never touch the receiver.
type Dataset struct {
	source    string
	fetchedAt time.Time
	records   []PositionRecord
}

// NewDataset builds a dataset from decoded records, dropping every record
// that lacks a usable latitude or longitude.
func NewDataset(source string, fetchedAt time.Time, in []PositionRecord) *Dataset {
	records := make([]PositionRecord, 0, len(in))
	for _, r := range in {
		if !validCoordinate(r.Latitude, r.Longitude) {
			continue
		}
		records = append(records, r)
	}
	return &Dataset{source: source, fetchedAt: fetchedAt, records: records}
}

// derive shares provenance with d; records are assumed already validated.
func (d *Dataset) derive(records []PositionRecord) *Dataset {
	return &Dataset{source: d.source, fetchedAt: d.fetchedAt, records: records}
}

func (d *Dataset) Source() string       { return d.source }
func (d *Dataset) FetchedAt() time.Time { return d.fetchedAt }
func (d *Dataset) Len() int             { return len(d.records) }
func (d *Dataset) Empty() bool          { return len(d.records) == 0 }

// Records returns a copy of the records in dataset order.
func (d *Dataset) Records() []PositionRecord {
	return slices.Clone(d.records)
}

// VehicleIDs returns the distinct vehicle identifiers in order of first appearance.
func (d *Dataset) VehicleIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range d.records {
		if _, ok := seen[r.VehicleID]; ok {
			continue
		}
		seen[r.VehicleID] = struct{}{}
		ids = append(ids, r.VehicleID)
	}
	return ids
}

// Fingerprint hashes ids, coordinates and timestamps so the refresher can tell
// whether two fetches carry the same positions.
func (d *Dataset) Fingerprint() uint64 {
	h := fnv.New64a()
	buf := make([]byte, 0, 64)
	for _, r := range d.records {
		buf = buf[:0]
		buf = append(buf, r.VehicleID...)
		buf = append(buf, 0)
		buf = strconv.AppendFloat(buf, r.Latitude, 'g', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, r.Longitude, 'g', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, r.Timestamp.UnixNano(), 10)
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
