// Package mapview builds the collection-site map: the fixed view, the tile
// layer, and one marker with a popup per location.
package mapview

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"wastemap-server/internal/modules/sites/icons"
	"wastemap-server/internal/modules/sites/types"
)

// Placement describes the marker created for one location.
type Placement struct {
	Marker      MarkerID       `json:"markerId"`
	Location    types.Location `json:"location"`
	Category    string         `json:"category"`
	Icon        icons.Icon     `json:"icon"`
	IconMatched bool           `json:"iconMatched"`
	Popup       Popup          `json:"popup"`
}

type Initializer struct {
	view   View
	tiles  TileLayer
	icons  *icons.Table
	popups PopupFormatter
	logger *slog.Logger
}

func New(view View, tiles TileLayer, table *icons.Table, popups PopupFormatter, logger *slog.Logger) (*Initializer, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if err := tiles.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, errors.New("icon table is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{view: view, tiles: tiles, icons: table, popups: popups, logger: logger}, nil
}

func (in *Initializer) View() View           { return in.view }
func (in *Initializer) TileLayer() TileLayer { return in.tiles }
func (in *Initializer) Icons() *icons.Table  { return in.icons }

// ForLocale returns a copy whose popups format deadlines for locale.
func (in *Initializer) ForLocale(locale language.Tag) *Initializer {
	cp := *in
	cp.popups.Locale = locale
	return &cp
}

// Initialize sets the view, adds the tile layer and places one marker with
// one popup per location, in order. locs is not modified. The first invalid
// location aborts the run.
func (in *Initializer) Initialize(canvas Canvas, locs []types.Location) ([]Placement, error) {
	if err := canvas.SetView(in.view); err != nil {
		return nil, fmt.Errorf("set view: %w", err)
	}
	if err := canvas.AddTileLayer(in.tiles); err != nil {
		return nil, fmt.Errorf("add tile layer: %w", err)
	}

	placements := make([]Placement, 0, len(locs))
	for i, loc := range locs {
		p, err := in.place(canvas, loc)
		if err != nil {
			return nil, fmt.Errorf("location %d (%q): %w", i, loc.Address, err)
		}
		placements = append(placements, p)
	}

	in.logger.Debug("map initialized", "markers", len(placements), "zoom", in.view.Zoom)
	return placements, nil
}

func (in *Initializer) place(canvas Canvas, loc types.Location) (Placement, error) {
	if err := loc.Validate(); err != nil {
		return Placement{}, err
	}

	icon, matched := in.icons.Resolve(loc.WasteType)
	if !matched {
		in.logger.Warn("unknown waste type, using default icon",
			"waste_type", loc.WasteType,
			"address", loc.Address,
		)
	}

	id, err := canvas.AddMarker(loc.Position(), icon)
	if err != nil {
		return Placement{}, fmt.Errorf("add marker: %w", err)
	}

	popup, err := in.popups.Popup(loc)
	if err != nil {
		return Placement{}, err
	}
	if err := canvas.BindPopup(id, popup.HTML); err != nil {
		return Placement{}, fmt.Errorf("bind popup: %w", err)
	}

	category := loc.WasteType
	if !matched {
		category = icons.DefaultCategory
	}
	return Placement{
		Marker:      id,
		Location:    loc,
		Category:    category,
		Icon:        icon,
		IconMatched: matched,
		Popup:       popup,
	}, nil
}
