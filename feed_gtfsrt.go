package main

import (
	"strconv"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// GTFSRTDecoder reads a GTFS-Realtime VehiclePositions feed.
type GTFSRTDecoder struct{}

func (GTFSRTDecoder) Decode(data []byte) ([]PositionRecord, error) {
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	headerTS := feed.GetHeader().GetTimestamp()

	records := make([]PositionRecord, 0, len(feed.GetEntity()))
	for _, ent := range feed.GetEntity() {
		vp := ent.GetVehicle()
		if vp == nil || vp.Position == nil {
			continue
		}
		id := vp.GetVehicle().GetId()
		if id == "" {
			id = vp.GetVehicle().GetLabel()
		}
		if id == "" {
			continue
		}
		pos := vp.GetPosition()
		if pos.Latitude == nil || pos.Longitude == nil {
			continue
		}

		rec := PositionRecord{
			VehicleID: id,
			Latitude:  float64(pos.GetLatitude()),
			Longitude: float64(pos.GetLongitude()),
		}
		ts := vp.GetTimestamp()
		if ts == 0 {
			ts = headerTS
		}
		if ts > 0 {
			rec.Timestamp = time.Unix(int64(ts), 0).UTC()
		}

		fields := make(map[string]string)
		if trip := vp.GetTrip(); trip != nil {
			if v := trip.GetTripId(); v != "" {
				fields["trip_id"] = v
			}
			if v := trip.GetRouteId(); v != "" {
				fields["route_id"] = v
			}
		}
		if pos.Bearing != nil {
			fields["bearing"] = strconv.FormatFloat(float64(pos.GetBearing()), 'f', -1, 32)
		}
		if pos.Speed != nil {
			fields["speed"] = strconv.FormatFloat(float64(pos.GetSpeed()), 'f', -1, 32)
		}
		if len(fields) > 0 {
			rec.Fields = fields
		}
		records = append(records, rec)
	}
	return records, nil
}
