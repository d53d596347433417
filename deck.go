package main

const (
	defaultMapStyle = "mapbox://styles/mapbox/light-v9"
	tooltipTemplate = "Lat: {latitude}\nLon: {longitude}"
)

type Tooltip struct {
	Text string `json:"text"`
}

// DeckSpec is everything the map renderer needs for one vehicle.
type DeckSpec struct {
	MapStyle         string    `json:"mapStyle"`
	InitialViewState ViewState `json:"initialViewState"`
	Layers           []any     `json:"layers"`
	Tooltip          Tooltip   `json:"tooltip"`
}

func NewDeckSpec(mapStyle string, view ViewState, heatmap HeatmapLayerSpec, trail PathLayerSpec) DeckSpec {
	if mapStyle == "" {
		mapStyle = defaultMapStyle
	}
	return DeckSpec{
		MapStyle:         mapStyle,
		InitialViewState: view,
		Layers:           []any{heatmap, trail},
		Tooltip:          Tooltip{Text: tooltipTemplate},
	}
}
