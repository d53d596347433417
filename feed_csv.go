package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVColumns names the header columns a CSV feed is read from.
type CSVColumns struct {
	VehicleID string `mapstructure:"vehicle_id" validate:"required"`
	Latitude  string `mapstructure:"latitude" validate:"required"`
	Longitude string `mapstructure:"longitude" validate:"required"`
	Timestamp string `mapstructure:"timestamp"`
}

// DefaultCSVColumns matches the Calgary open data vehicle position export.
var DefaultCSVColumns = CSVColumns{
	VehicleID: "vehicle_id",
	Latitude:  "latitude",
	Longitude: "longitude",
	Timestamp: "timestamp",
}

type CSVDecoder struct {
	columns CSVColumns
}

func NewCSVDecoder(columns CSVColumns) *CSVDecoder {
	return &CSVDecoder{columns: columns}
}

func (d *CSVDecoder) Decode(data []byte) ([]PositionRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	col := func(name string) (int, bool) {
		i, ok := idx[normalizeHeader(name)]
		return i, ok
	}

	idCol, ok := col(d.columns.VehicleID)
	if !ok {
		return nil, fmt.Errorf("csv missing column %q", d.columns.VehicleID)
	}
	latCol, ok := col(d.columns.Latitude)
	if !ok {
		return nil, fmt.Errorf("csv missing column %q", d.columns.Latitude)
	}
	lonCol, ok := col(d.columns.Longitude)
	if !ok {
		return nil, fmt.Errorf("csv missing column %q", d.columns.Longitude)
	}
	tsCol := -1
	if d.columns.Timestamp != "" {
		if i, ok := col(d.columns.Timestamp); ok {
			tsCol = i
		}
	}

	var out []PositionRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		lat, err := strconv.ParseFloat(cell(latCol), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(cell(lonCol), 64)
		if err != nil {
			continue
		}
		rec := PositionRecord{
			VehicleID: cell(idCol),
			Latitude:  lat,
			Longitude: lon,
			Timestamp: parseTimestamp(cell(tsCol)),
		}
		for i, h := range header {
			if i == idCol || i == latCol || i == lonCol || i == tsCol {
				continue
			}
			if v := cell(i); v != "" {
				if rec.Fields == nil {
					rec.Fields = make(map[string]string)
				}
				rec.Fields[normalizeHeader(h)] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// parseTimestamp accepts the layouts seen in open data exports and epoch seconds.
// Unparseable values yield the zero time, which sorts as "no timestamp".
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}
