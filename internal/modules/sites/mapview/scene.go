package mapview

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"wastemap-server/internal/modules/sites/icons"
	"wastemap-server/internal/modules/sites/types"
)

var (
	ErrUnknownMarker = errors.New("unknown marker")
	ErrPopupBound    = errors.New("marker already has a popup")
)

// MaxZoom is the highest zoom level accepted for a view.
const MaxZoom = 22

// Canvas is the subset of the browser mapping library the initializer drives.
type Canvas interface {
	SetView(v View) error
	AddTileLayer(l TileLayer) error
	AddMarker(pos types.LatLng, icon icons.Icon) (MarkerID, error)
	BindPopup(id MarkerID, html template.HTML) error
}

type MarkerID int

type View struct {
	// Container is the id of the page element the map attaches to.
	Container string       `json:"container"`
	Center    types.LatLng `json:"center"`
	Zoom      int          `json:"zoom"`
}

func DefaultView() View {
	return View{
		Container: "map",
		Center:    types.LatLng{Lat: 47.7511, Lon: -120.7401},
		Zoom:      7,
	}
}

func (v View) Validate() error {
	if strings.TrimSpace(v.Container) == "" {
		return errors.New("view container is required")
	}
	if err := v.Center.Validate(); err != nil {
		return fmt.Errorf("view center: %w", err)
	}
	if v.Zoom < 0 || v.Zoom > MaxZoom {
		return fmt.Errorf("view zoom %d out of range [0, %d]", v.Zoom, MaxZoom)
	}
	return nil
}

type TileLayer struct {
	URLTemplate string `json:"urlTemplate"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
}

func OpenStreetMap() TileLayer {
	return TileLayer{
		URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		MaxZoom:     19,
	}
}

func (l TileLayer) Validate() error {
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(l.URLTemplate, p) {
			return fmt.Errorf("tile url template %q is missing %s", l.URLTemplate, p)
		}
	}
	if strings.TrimSpace(l.Attribution) == "" {
		return errors.New("tile attribution is required")
	}
	if l.MaxZoom < 0 || l.MaxZoom > MaxZoom {
		return fmt.Errorf("tile maxZoom %d out of range [0, %d]", l.MaxZoom, MaxZoom)
	}
	return nil
}

type SceneMarker struct {
	ID        MarkerID      `json:"id"`
	Position  types.LatLng  `json:"position"`
	Icon      icons.Icon    `json:"icon"`
	PopupHTML template.HTML `json:"popupHtml,omitempty"`
}

// Scene is a Canvas that records calls so they can be replayed in the browser.
type Scene struct {
	view    *View
	layers  []TileLayer
	markers []SceneMarker
	bound   map[MarkerID]bool
}

func NewScene() *Scene {
	return &Scene{bound: make(map[MarkerID]bool)}
}

func (s *Scene) SetView(v View) error {
	s.view = &v
	return nil
}

func (s *Scene) AddTileLayer(l TileLayer) error {
	s.layers = append(s.layers, l)
	return nil
}

func (s *Scene) AddMarker(pos types.LatLng, icon icons.Icon) (MarkerID, error) {
	if err := pos.Validate(); err != nil {
		return 0, err
	}
	id := MarkerID(len(s.markers))
	s.markers = append(s.markers, SceneMarker{ID: id, Position: pos, Icon: icon})
	return id, nil
}

func (s *Scene) BindPopup(id MarkerID, html template.HTML) error {
	if id < 0 || int(id) >= len(s.markers) {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, id)
	}
	if s.bound[id] {
		return fmt.Errorf("%w: %d", ErrPopupBound, id)
	}
	s.bound[id] = true
	s.markers[id].PopupHTML = html
	return nil
}

func (s *Scene) View() (View, bool) {
	if s.view == nil {
		return View{}, false
	}
	return *s.view, true
}

func (s *Scene) TileLayers() []TileLayer {
	return append([]TileLayer(nil), s.layers...)
}

func (s *Scene) Markers() []SceneMarker {
	return append([]SceneMarker(nil), s.markers...)
}

type sceneJSON struct {
	View       *View         `json:"view"`
	TileLayers []TileLayer   `json:"tileLayers"`
	Markers    []SceneMarker `json:"markers"`
}

func (s *Scene) MarshalJSON() ([]byte, error) {
	out := sceneJSON{View: s.view, TileLayers: s.layers, Markers: s.markers}
	if out.TileLayers == nil {
		out.TileLayers = []TileLayer{}
	}
	if out.Markers == nil {
		out.Markers = []SceneMarker{}
	}
	return json.Marshal(out)
}
