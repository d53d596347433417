package main

import "fmt"

// Format names the wire format of a position feed.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatGTFSRT   Format = "gtfsrt"
	FormatSiriJSON Format = "siri-json"
	FormatSiriXML  Format = "siri-xml"
)

// FeedDecoder turns one fetched payload into position records. Decoders may
// return records with unusable coordinates; NewDataset drops them.
type FeedDecoder interface {
	Decode(data []byte) ([]PositionRecord, error)
}

func decoderFor(format Format, columns CSVColumns) (FeedDecoder, error) {
	switch format {
	case FormatCSV:
		return NewCSVDecoder(columns), nil
	case FormatGTFSRT:
		return GTFSRTDecoder{}, nil
	case FormatSiriJSON:
		return SiriJSONDecoder{}, nil
	case FormatSiriXML:
		return SiriXMLDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
