package main

import (
	"encoding/json"
	"strconv"
	"time"
)

// SiriJSONDecoder reads a SIRI VehicleMonitoring delivery in its JSON rendering.
type SiriJSONDecoder struct{}

func (SiriJSONDecoder) Decode(data []byte) ([]PositionRecord, error) {
	// Siri?.ServiceDelivery.VehicleMonitoringDelivery[].VehicleActivity[]
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if siri, ok := root["Siri"].(map[string]any); ok {
		root = siri
	}
	sd, _ := root["ServiceDelivery"].(map[string]any)
	deliveries, _ := sd["VehicleMonitoringDelivery"].([]any)

	var records []PositionRecord
	for _, d := range deliveries {
		vmd, _ := d.(map[string]any)
		activities, _ := vmd["VehicleActivity"].([]any)
		for _, a := range activities {
			va, _ := a.(map[string]any)
			mvj, _ := va["MonitoredVehicleJourney"].(map[string]any)
			if mvj == nil {
				continue
			}
			id := jsonString(mvj["VehicleRef"])
			if id == "" {
				fvj, _ := mvj["FramedVehicleJourneyRef"].(map[string]any)
				id = jsonString(fvj["DatedVehicleJourneyRef"])
			}
			loc, _ := mvj["VehicleLocation"].(map[string]any)
			lat, latOK := jsonFloat(loc["Latitude"])
			lon, lonOK := jsonFloat(loc["Longitude"])
			if id == "" || !latOK || !lonOK {
				continue
			}
			rec := PositionRecord{
				VehicleID: id,
				Latitude:  lat,
				Longitude: lon,
				Timestamp: parseSiriTime(jsonString(va["RecordedAtTime"])),
			}
			if line := jsonString(mvj["LineRef"]); line != "" {
				rec.Fields = map[string]string{"line_ref": line}
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// jsonString accepts both plain strings and the {"value": "..."} wrapping some SIRI producers emit.
func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return jsonString(t["value"])
	default:
		return ""
	}
}

func jsonFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseSiriTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
