package main

import "errors"

// ErrDataUnavailable wraps every failure to fetch or parse a feed. No partial dataset accompanies it.
var ErrDataUnavailable = errors.New("vehicle position data unavailable")

// ErrNoPositions is returned when a view is requested for an empty dataset.
var ErrNoPositions = errors.New("no positions to compute a view from")

var ErrUnknownFormat = errors.New("unknown feed format")
