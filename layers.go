package main

import (
	"github.com/golang/geo/s2"
	"github.com/twpayne/go-polyline"
)

const (
	heatmapRadiusPixels = 60
	trailWidth          = 4
	trailWidthMinPixels = 2

	earthRadiusMeters = 6371008.8
)

var trailColor = [3]int{255, 0, 0}

// Point is one heatmap sample.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// HeatmapLayerSpec is a deck.gl HeatmapLayer in JSON converter form.
type HeatmapLayerSpec struct {
	Type         string  `json:"@@type"`
	ID           string  `json:"id"`
	Data         []Point `json:"data"`
	GetPosition  string  `json:"getPosition"`
	RadiusPixels int     `json:"radiusPixels"`
}

// PathEntry is one trail. Path holds [longitude, latitude] pairs in dataset order.
type PathEntry struct {
	Path         [][2]float64 `json:"path"`
	Name         string       `json:"name"`
	Polyline     string       `json:"polyline"`
	LengthMeters float64      `json:"lengthMeters"`
}

// PathLayerSpec is a deck.gl PathLayer in JSON converter form.
type PathLayerSpec struct {
	Type           string      `json:"@@type"`
	ID             string      `json:"id"`
	Data           []PathEntry `json:"data"`
	GetPath        string      `json:"getPath"`
	GetWidth       int         `json:"getWidth"`
	GetColor       [3]int      `json:"getColor"`
	WidthMinPixels int         `json:"widthMinPixels"`
}

// BuildLayers converts ds into a density layer over every position and a
// single trail through them in ds order. Callers wanting a chronological
// trail sort ds first. An empty ds yields empty but well-formed layers.
func BuildLayers(ds *Dataset) (HeatmapLayerSpec, PathLayerSpec) {
	points := make([]Point, 0, ds.Len())
	path := make([][2]float64, 0, ds.Len())
	coords := make([][]float64, 0, ds.Len())
	latlngs := make([]s2.LatLng, 0, ds.Len())
	for _, r := range ds.records {
		points = append(points, Point{Longitude: r.Longitude, Latitude: r.Latitude})
		path = append(path, [2]float64{r.Longitude, r.Latitude})
		coords = append(coords, []float64{r.Latitude, r.Longitude})
		latlngs = append(latlngs, s2.LatLngFromDegrees(r.Latitude, r.Longitude))
	}

	name := "Vehicle"
	if !ds.Empty() {
		name = "Vehicle " + ds.records[0].VehicleID
	}

	heatmap := HeatmapLayerSpec{
		Type:         "HeatmapLayer",
		ID:           "heatmap",
		Data:         points,
		GetPosition:  "@@=[longitude, latitude]",
		RadiusPixels: heatmapRadiusPixels,
	}
	trail := PathLayerSpec{
		Type: "PathLayer",
		ID:   "trail",
		Data: []PathEntry{{
			Path:         path,
			Name:         name,
			Polyline:     string(polyline.EncodeCoords(coords)),
			LengthMeters: trailLength(latlngs),
		}},
		GetPath:        "@@=path",
		GetWidth:       trailWidth,
		GetColor:       trailColor,
		WidthMinPixels: trailWidthMinPixels,
	}
	return heatmap, trail
}

func trailLength(latlngs []s2.LatLng) float64 {
	if len(latlngs) < 2 {
		return 0
	}
	return s2.PolylineFromLatLngs(latlngs).Length().Radians() * earthRadiusMeters
}
