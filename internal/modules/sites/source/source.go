package source

import (
	"context"
	"fmt"

	"wastemap-server/internal/modules/sites/repository"
	"wastemap-server/internal/modules/sites/types"
)

// Source produces the finite list of locations to place on the map.
type Source interface {
	Locations(ctx context.Context) ([]types.Location, error)
}

type sliceSource []types.Location

// Slice returns a Source over a private copy of records.
func Slice(records ...types.Location) Source {
	return sliceSource(append([]types.Location(nil), records...))
}

func (s sliceSource) Locations(context.Context) ([]types.Location, error) {
	return append([]types.Location(nil), s...), nil
}

// Static returns the built-in Washington State collection sites.
func Static() Source {
	return Slice(washingtonSites...)
}

var washingtonSites = []types.Location{
	{Lat: 47.6062, Lon: -122.3321, Address: "Seattle, WA", WasteType: "Recycling", ExpectedAmount: 5, Deadline: "2025-06-01"},
	{Lat: 48.4284, Lon: -123.3656, Address: "Victoria, WA", WasteType: "Landfill", ExpectedAmount: 10, Deadline: "2025-07-01"},
	{Lat: 46.5205, Lon: -117.1958, Address: "Pullman, WA", WasteType: "Hazardous", ExpectedAmount: 3, Deadline: "2025-08-01"},
	{Lat: 47.7511, Lon: -120.7401, Address: "Yakima, WA", WasteType: "Organic", ExpectedAmount: 7, Deadline: "2025-09-01"},
	{Lat: 48.7591, Lon: -122.4873, Address: "Anacortes, WA", WasteType: "Recycling", ExpectedAmount: 4, Deadline: "2025-05-10"},
	{Lat: 47.9275, Lon: -121.9886, Address: "Snoqualmie, WA", WasteType: "Landfill", ExpectedAmount: 6, Deadline: "2025-06-10"},
	{Lat: 48.7590, Lon: -122.4810, Address: "Bellingham, WA", WasteType: "Organic", ExpectedAmount: 8, Deadline: "2025-05-20"},
	{Lat: 47.4112, Lon: -120.3140, Address: "Ellensburg, WA", WasteType: "Hazardous", ExpectedAmount: 2, Deadline: "2025-08-20"},
	{Lat: 46.9857, Lon: -123.9869, Address: "Olympia, WA", WasteType: "Recycling", ExpectedAmount: 12, Deadline: "2025-07-15"},
	{Lat: 47.0585, Lon: -122.3477, Address: "Tacoma, WA", WasteType: "Landfill", ExpectedAmount: 9, Deadline: "2025-06-30"},
}

type repositorySource struct {
	repo repository.LocationRepository
}

// Repository reads locations from the disposal_requests table on every call.
func Repository(repo repository.LocationRepository) Source {
	return &repositorySource{repo: repo}
}

func (s *repositorySource) Locations(ctx context.Context) ([]types.Location, error) {
	locs, err := s.repo.GetLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	return locs, nil
}

// Load reads src and validates every record, stopping at the first bad one.
func Load(ctx context.Context, src Source) ([]types.Location, error) {
	locs, err := src.Locations(ctx)
	if err != nil {
		return nil, err
	}
	for i, l := range locs {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("location %d (%q): %w", i, l.Address, err)
		}
	}
	return locs, nil
}
