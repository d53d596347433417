package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const noDataWarning = "No data found for this vehicle."

type datasetLoader interface {
	Load(ctx context.Context, src Source) (*Dataset, error)
	Cached(src Source) (*Dataset, bool)
}

// PanelRequest is one user interaction: a selected vehicle plus the view toggles.
type PanelRequest struct {
	VehicleID  string
	SortByTime bool
	ShowRaw    bool
}

// Panel is what the page renders for one selection. Empty panels carry a
// warning and no deck.
type Panel struct {
	VehicleID   string           `json:"vehicleId"`
	Title       string           `json:"title"`
	Empty       bool             `json:"empty"`
	Warning     string           `json:"warning,omitempty"`
	RecordCount int              `json:"recordCount"`
	FetchedAt   time.Time        `json:"fetchedAt"`
	Deck        *DeckSpec        `json:"deck,omitempty"`
	Rows        []PositionRecord `json:"rows,omitempty"`
}

// Dashboard runs the load, filter, view and layer steps for each selection
// against a single configured source.
type Dashboard struct {
	loader   datasetLoader
	source   Source
	mapStyle string
	log      *zap.Logger
}

func NewDashboard(loader datasetLoader, source Source, mapStyle string, log *zap.Logger) *Dashboard {
	return &Dashboard{loader: loader, source: source, mapStyle: mapStyle, log: log}
}

// DatasetStatus describes the cached dataset for health checks.
type DatasetStatus struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	Age       string    `json:"age"`
	Records   int       `json:"records"`
}

// Status reports the cached dataset without triggering a fetch. ok is false
// when nothing is cached yet or the entry has expired.
func (d *Dashboard) Status() (DatasetStatus, bool) {
	ds, ok := d.loader.Cached(d.source)
	if !ok {
		return DatasetStatus{}, false
	}
	return DatasetStatus{
		Source:    ds.Source(),
		FetchedAt: ds.FetchedAt(),
		Age:       time.Since(ds.FetchedAt()).Round(time.Second).String(),
		Records:   ds.Len(),
	}, true
}

// VehicleIDs lists the selectable vehicles of the current dataset.
func (d *Dashboard) VehicleIDs(ctx context.Context) ([]string, error) {
	ds, err := d.loader.Load(ctx, d.source)
	if err != nil {
		return nil, err
	}
	return ds.VehicleIDs(), nil
}

// Rows returns the filtered records behind a panel, for the raw data table.
func (d *Dashboard) Rows(ctx context.Context, vehicleID string, sortByTime bool) ([]PositionRecord, error) {
	filtered, err := d.filtered(ctx, vehicleID, sortByTime)
	if err != nil {
		return nil, err
	}
	return filtered.Records(), nil
}

func (d *Dashboard) Panel(ctx context.Context, req PanelRequest) (Panel, error) {
	filtered, err := d.filtered(ctx, req.VehicleID, req.SortByTime)
	if err != nil {
		return Panel{}, err
	}
	panel := Panel{
		VehicleID:   req.VehicleID,
		Title:       "Heatmap and Trail for Vehicle ID: " + req.VehicleID,
		RecordCount: filtered.Len(),
		FetchedAt:   filtered.FetchedAt(),
	}
	if filtered.Empty() {
		panel.Empty = true
		panel.Warning = noDataWarning
		return panel, nil
	}

	view, err := ComputeViewState(filtered)
	if err != nil {
		return Panel{}, err
	}
	heatmap, trail := BuildLayers(filtered)
	deck := NewDeckSpec(d.mapStyle, view, heatmap, trail)
	panel.Deck = &deck
	if req.ShowRaw {
		panel.Rows = filtered.Records()
	}
	d.log.Debug("panel built",
		zap.String("vehicle_id", req.VehicleID),
		zap.Int("positions", filtered.Len()),
		zap.Float64("trail_m", trail.Data[0].LengthMeters),
	)
	return panel, nil
}

func (d *Dashboard) filtered(ctx context.Context, vehicleID string, sortByTime bool) (*Dataset, error) {
	ds, err := d.loader.Load(ctx, d.source)
	if err != nil {
		return nil, err
	}
	filtered := ByVehicle(ds, vehicleID)
	if sortByTime {
		filtered = SortByTime(filtered)
	}
	return filtered, nil
}
