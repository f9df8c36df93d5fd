package types

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidLocation is wrapped by every error returned from Location.Validate.
var ErrInvalidLocation = errors.New("invalid location")

const isoDate = "2006-01-02"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p LatLng) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: lat %v out of range [-90, 90]", ErrInvalidLocation, p.Lat)
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: lon %v out of range [-180, 180]", ErrInvalidLocation, p.Lon)
	}
	return nil
}

// Location is one waste-collection site shown on the map.
type Location struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Address        string  `json:"address"`
	WasteType      string  `json:"wasteType"`
	ExpectedAmount int     `json:"expectedAmount"`
	// Deadline is an ISO date (2006-01-02) or an RFC 3339 timestamp.
	Deadline string `json:"deadline"`
}

func (l Location) Position() LatLng {
	return LatLng{Lat: l.Lat, Lon: l.Lon}
}

func (l Location) Validate() error {
	if err := l.Position().Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(l.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidLocation)
	}
	if strings.TrimSpace(l.WasteType) == "" {
		return fmt.Errorf("%w: wasteType is required", ErrInvalidLocation)
	}
	if l.ExpectedAmount < 0 {
		return fmt.Errorf("%w: expectedAmount must be >= 0, got %d", ErrInvalidLocation, l.ExpectedAmount)
	}
	if _, err := l.DeadlineTime(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return nil
}

// DeadlineTime parses Deadline. A bare date is midnight UTC, which is how
// browsers read date-only ISO strings.
func (l Location) DeadlineTime() (time.Time, error) {
	return ParseDeadline(l.Deadline)
}

func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("deadline is required")
	}
	if t, err := time.Parse(isoDate, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
