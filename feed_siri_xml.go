package main

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

// SiriXMLDecoder reads a SIRI VehicleMonitoring delivery in XML. Element
// matching uses local names only, so any SIRI namespace prefix is accepted.
type SiriXMLDecoder struct{}

type siriVehicleActivity struct {
	RecordedAtTime string `xml:"RecordedAtTime"`
	Journey        struct {
		LineRef    string `xml:"LineRef"`
		VehicleRef string `xml:"VehicleRef"`
		Framed     struct {
			DatedVehicleJourneyRef string `xml:"DatedVehicleJourneyRef"`
		} `xml:"FramedVehicleJourneyRef"`
		Location struct {
			Latitude  string `xml:"Latitude"`
			Longitude string `xml:"Longitude"`
		} `xml:"VehicleLocation"`
	} `xml:"MonitoredVehicleJourney"`
}

func (SiriXMLDecoder) Decode(data []byte) ([]PositionRecord, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var records []PositionRecord
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "VehicleActivity" {
			continue
		}
		var va siriVehicleActivity
		if err := dec.DecodeElement(&va, &se); err != nil {
			return nil, err
		}
		if rec, ok := va.record(); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (va siriVehicleActivity) record() (PositionRecord, bool) {
	mvj := va.Journey
	id := strings.TrimSpace(mvj.VehicleRef)
	if id == "" {
		id = strings.TrimSpace(mvj.Framed.DatedVehicleJourneyRef)
	}
	if id == "" {
		return PositionRecord{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(mvj.Location.Latitude), 64)
	if err != nil {
		return PositionRecord{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(mvj.Location.Longitude), 64)
	if err != nil {
		return PositionRecord{}, false
	}
	rec := PositionRecord{
		VehicleID: id,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: parseSiriTime(strings.TrimSpace(va.RecordedAtTime)),
	}
	if line := strings.TrimSpace(mvj.LineRef); line != "" {
		rec.Fields = map[string]string{"line_ref": line}
	}
	return rec, true
}
