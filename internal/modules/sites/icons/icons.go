// Package icons holds the per-category marker styles used on the map.
package icons

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultCategory names the entry used when a waste type has no icon of its own.
const DefaultCategory = "default"

var ErrMissingDefault = errors.New("icon table has no default entry")

// Point is a pixel pair, [x, y] on the wire as Leaflet expects.
type Point [2]int

type Icon struct {
	IconURL     string `json:"iconUrl"`
	ShadowURL   string `json:"shadowUrl"`
	IconSize    Point  `json:"iconSize"`
	IconAnchor  Point  `json:"iconAnchor"`
	PopupAnchor Point  `json:"popupAnchor"`
	ShadowSize  Point  `json:"shadowSize"`
}

func (i Icon) Validate() error {
	if strings.TrimSpace(i.IconURL) == "" {
		return errors.New("iconUrl is required")
	}
	if strings.TrimSpace(i.ShadowURL) == "" {
		return errors.New("shadowUrl is required")
	}
	if i.IconSize[0] <= 0 || i.IconSize[1] <= 0 {
		return fmt.Errorf("iconSize must be positive, got %v", i.IconSize)
	}
	if i.ShadowSize[0] <= 0 || i.ShadowSize[1] <= 0 {
		return fmt.Errorf("shadowSize must be positive, got %v", i.ShadowSize)
	}
	return nil
}

// Table maps waste categories to icons. It is not modified after NewTable returns.
type Table struct {
	byCategory map[string]Icon
	def        Icon
}

// NewTable copies entries and fails when the DefaultCategory entry is missing
// or any icon is invalid.
func NewTable(entries map[string]Icon) (*Table, error) {
	def, ok := entries[DefaultCategory]
	if !ok {
		return nil, ErrMissingDefault
	}
	byCategory := make(map[string]Icon, len(entries))
	for category, icon := range entries {
		if err := icon.Validate(); err != nil {
			return nil, fmt.Errorf("icon %q: %w", category, err)
		}
		if category == DefaultCategory {
			continue
		}
		byCategory[category] = icon
	}
	return &Table{byCategory: byCategory, def: def}, nil
}

// Resolve returns the icon for category. On a miss it returns the default icon and false.
func (t *Table) Resolve(category string) (Icon, bool) {
	if icon, ok := t.byCategory[category]; ok {
		return icon, true
	}
	return t.def, false
}

func (t *Table) Default() Icon {
	return t.def
}

// Categories returns the known category names in sorted order.
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.byCategory))
	for category := range t.byCategory {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Standard builds the table the map ships with. Every known category shares
// the black pin; the fallback is grey.
func Standard(baseURL string) (*Table, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	pin := func(color string) Icon {
		return Icon{
			IconURL:     baseURL + "marker-icon-" + color + ".png",
			ShadowURL:   baseURL + "marker-shadow.png",
			IconSize:    Point{25, 41},
			IconAnchor:  Point{12, 41},
			PopupAnchor: Point{1, -34},
			ShadowSize:  Point{41, 41},
		}
	}
	return NewTable(map[string]Icon{
		"Recycling":     pin("black"),
		"Landfill":      pin("black"),
		"Organic":       pin("black"),
		"Hazardous":     pin("black"),
		DefaultCategory: pin("grey"),
	})
}
