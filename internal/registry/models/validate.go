package models

import (
	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
)

// Scaled-degree bounds for capture coordinates.
const (
	MaxLatitude  = 90_000_000
	MaxLongitude = 180_000_000
)

// Bounded-text limits for owner-editable metadata.
const (
	MaxNameLen        = 64
	MaxDescriptionLen = 256
	MaxDataTypeLen    = 32
)

// ContentHashLen is the hex length of the fixed 32-byte content reference.
const ContentHashLen = 64

// ValidAltitudeRange reports whether min/max describe a sane altitude band.
func ValidAltitudeRange(min, max int64) bool {
	return min >= 0 && max >= min
}

// ValidCoordinates reports whether lat/lon (scaled 1e6) are on the globe.
func ValidCoordinates(lat, lon int64) bool {
	return lat >= -MaxLatitude && lat <= MaxLatitude &&
		lon >= -MaxLongitude && lon <= MaxLongitude
}

// ValidContentHash reports whether s is a 64-char lowercase hex digest.
// The registry stores the reference; it never verifies the content behind it.
func ValidContentHash(s string) bool {
	if len(s) != ContentHashLen {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Validate enforces metadata text bounds.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return dErrors.New(dErrors.CodeInvalidParams, "name is required")
	}
	if len(m.Name) > MaxNameLen {
		return dErrors.New(dErrors.CodeInvalidParams, "name exceeds 64 characters")
	}
	if len(m.Description) > MaxDescriptionLen {
		return dErrors.New(dErrors.CodeInvalidParams, "description exceeds 256 characters")
	}
	if m.DataType == "" {
		return dErrors.New(dErrors.CodeInvalidParams, "data_type is required")
	}
	if len(m.DataType) > MaxDataTypeLen {
		return dErrors.New(dErrors.CodeInvalidParams, "data_type exceeds 32 characters")
	}
	return nil
}

// Validate enforces the altitude and coordinate range invariants.
func (l Location) Validate() error {
	if !ValidAltitudeRange(l.AltitudeMin, l.AltitudeMax) {
		return dErrors.New(dErrors.CodeInvalidParams, "altitude range is invalid")
	}
	if !ValidCoordinates(l.Latitude, l.Longitude) {
		return dErrors.New(dErrors.CodeInvalidParams, "coordinates out of bounds")
	}
	return nil
}
