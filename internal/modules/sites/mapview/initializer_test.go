package mapview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"wastemap-server/internal/modules/sites/icons"
	"wastemap-server/internal/modules/sites/source"
	"wastemap-server/internal/modules/sites/types"
)

func newTestInitializer(t *testing.T, logger *slog.Logger) *Initializer {
	t.Helper()
	table, err := icons.Standard("https://example.test/img/")
	if err != nil {
		t.Fatalf("icons.Standard(): %v", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	in, err := New(DefaultView(), OpenStreetMap(), table, PopupFormatter{Locale: language.AmericanEnglish}, logger)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	return in
}

func staticLocations(t *testing.T) []types.Location {
	t.Helper()
	locs, err := source.Load(context.Background(), source.Static())
	if err != nil {
		t.Fatalf("load static: %v", err)
	}
	return locs
}

func TestInitialize_placesEveryLocation(t *testing.T) {
	in := newTestInitializer(t, nil)
	locs := staticLocations(t)
	scene := NewScene()

	placements, err := in.Initialize(scene, locs)
	if err != nil {
		t.Fatalf("Initialize(): %v", err)
	}

	markers := scene.Markers()
	if len(markers) != 10 || len(placements) != 10 {
		t.Fatalf("markers = %d, placements = %d; want 10 each", len(markers), len(placements))
	}
	for i, loc := range locs {
		m := markers[i]
		if m.Position != loc.Position() {
			t.Errorf("marker %d at %+v; want %+v", i, m.Position, loc.Position())
		}
		if m.PopupHTML == "" {
			t.Errorf("marker %d has no popup", i)
		}
		want, _ := in.Icons().Resolve(loc.WasteType)
		if m.Icon != want {
			t.Errorf("marker %d icon = %+v; want %+v", i, m.Icon, want)
		}
		if !placements[i].IconMatched || placements[i].Category != loc.WasteType {
			t.Errorf("placement %d = %+v; want matched %s", i, placements[i], loc.WasteType)
		}
	}
}

func TestInitialize_seattleExample(t *testing.T) {
	in := newTestInitializer(t, nil)
	scene := NewScene()

	placements, err := in.Initialize(scene, []types.Location{seattle()})
	if err != nil {
		t.Fatalf("Initialize(): %v", err)
	}
	m := scene.Markers()[0]
	if m.Position != (types.LatLng{Lat: 47.6062, Lon: -122.3321}) {
		t.Errorf("position = %+v", m.Position)
	}
	recycling, _ := in.Icons().Resolve("Recycling")
	if m.Icon != recycling {
		t.Errorf("icon = %+v; want recycling icon", m.Icon)
	}
	for _, s := range []string{"Seattle, WA", "Recycling", "5 units", "6/1/2025, 12:00:00 AM"} {
		if !strings.Contains(string(m.PopupHTML), s) {
			t.Errorf("popup %q missing %q", m.PopupHTML, s)
		}
	}
	if placements[0].Popup.HTML != m.PopupHTML {
		t.Errorf("placement popup differs from bound popup")
	}
}

func TestInitialize_unknownCategoryUsesDefault(t *testing.T) {
	var logs bytes.Buffer
	in := newTestInitializer(t, slog.New(slog.NewTextHandler(&logs, nil)))
	loc := seattle()
	loc.WasteType = "Electronics"
	scene := NewScene()

	placements, err := in.Initialize(scene, []types.Location{loc})
	if err != nil {
		t.Fatalf("Initialize(): %v", err)
	}
	if got := scene.Markers()[0].Icon; got != in.Icons().Default() {
		t.Errorf("icon = %+v; want default", got)
	}
	if placements[0].IconMatched || placements[0].Category != icons.DefaultCategory {
		t.Errorf("placement = %+v; want unmatched default", placements[0])
	}
	if !strings.Contains(logs.String(), "unknown waste type") || !strings.Contains(logs.String(), "Electronics") {
		t.Errorf("expected warning log, got %q", logs.String())
	}
}

func TestInitialize_viewIsFixed(t *testing.T) {
	in := newTestInitializer(t, nil)
	for _, locs := range [][]types.Location{nil, staticLocations(t), {seattle()}} {
		scene := NewScene()
		if _, err := in.Initialize(scene, locs); err != nil {
			t.Fatalf("Initialize(): %v", err)
		}
		v, ok := scene.View()
		if !ok {
			t.Fatal("view not set")
		}
		if v.Center != (types.LatLng{Lat: 47.7511, Lon: -120.7401}) || v.Zoom != 7 || v.Container != "map" {
			t.Errorf("view = %+v", v)
		}
		layers := scene.TileLayers()
		if len(layers) != 1 || layers[0] != OpenStreetMap() {
			t.Errorf("tile layers = %+v", layers)
		}
	}
}

func TestInitialize_idempotent(t *testing.T) {
	in := newTestInitializer(t, nil)
	locs := staticLocations(t)

	first, second := NewScene(), NewScene()
	if _, err := in.Initialize(first, locs); err != nil {
		t.Fatalf("first Initialize(): %v", err)
	}
	if _, err := in.Initialize(second, locs); err != nil {
		t.Fatalf("second Initialize(): %v", err)
	}
	if !reflect.DeepEqual(first.Markers(), second.Markers()) {
		t.Error("repeated initialization produced different markers")
	}
	if len(second.Markers()) != 10 {
		t.Errorf("markers = %d; want 10", len(second.Markers()))
	}
}

func TestInitialize_failsFastOnMalformedRecord(t *testing.T) {
	in := newTestInitializer(t, nil)
	bad := seattle()
	bad.Lat = 123
	scene := NewScene()

	_, err := in.Initialize(scene, []types.Location{seattle(), bad, seattle()})
	if err == nil {
		t.Fatal("Initialize() = nil; want error")
	}
	if !errors.Is(err, types.ErrInvalidLocation) {
		t.Errorf("err = %v; want ErrInvalidLocation", err)
	}
	if !strings.Contains(err.Error(), "location 1") {
		t.Errorf("err %q does not name the record", err)
	}
	if n := len(scene.Markers()); n != 1 {
		t.Errorf("markers placed before failure = %d; want 1", n)
	}
}

func TestInitialize_doesNotMutateInput(t *testing.T) {
	in := newTestInitializer(t, nil)
	locs := staticLocations(t)
	before := append([]types.Location(nil), locs...)

	if _, err := in.Initialize(NewScene(), locs); err != nil {
		t.Fatalf("Initialize(): %v", err)
	}
	if !reflect.DeepEqual(before, locs) {
		t.Error("Initialize() modified its input")
	}
}

type failingCanvas struct {
	*Scene
	failOn string
}

func (f *failingCanvas) SetView(v View) error {
	if f.failOn == "view" {
		return errors.New("no container")
	}
	return f.Scene.SetView(v)
}

func (f *failingCanvas) BindPopup(id MarkerID, html template.HTML) error {
	if f.failOn == "popup" {
		return errors.New("popup refused")
	}
	return f.Scene.BindPopup(id, html)
}

func TestInitialize_canvasErrors(t *testing.T) {
	in := newTestInitializer(t, nil)
	for _, failOn := range []string{"view", "popup"} {
		t.Run(failOn, func(t *testing.T) {
			_, err := in.Initialize(&failingCanvas{Scene: NewScene(), failOn: failOn}, []types.Location{seattle()})
			if err == nil {
				t.Fatal("Initialize() = nil; want error")
			}
		})
	}
}

func TestForLocale(t *testing.T) {
	in := newTestInitializer(t, nil)
	de := in.ForLocale(language.German)

	placements, err := de.Initialize(NewScene(), []types.Location{seattle()})
	if err != nil {
		t.Fatalf("Initialize(): %v", err)
	}
	if placements[0].Popup.Deadline != "1.6.2025, 00:00:00" {
		t.Errorf("de deadline = %q", placements[0].Popup.Deadline)
	}

	placements, _ = in.Initialize(NewScene(), []types.Location{seattle()})
	if placements[0].Popup.Deadline != "6/1/2025, 12:00:00 AM" {
		t.Errorf("base initializer changed locale: %q", placements[0].Popup.Deadline)
	}
}

func TestNew_validates(t *testing.T) {
	table, _ := icons.Standard("https://example.test/img/")
	badZoom := DefaultView()
	badZoom.Zoom = 30
	noContainer := DefaultView()
	noContainer.Container = ""
	badTiles := OpenStreetMap()
	badTiles.URLTemplate = "https://tiles.example/{z}.png"
	noAttrib := OpenStreetMap()
	noAttrib.Attribution = ""

	tests := []struct {
		name  string
		view  View
		tiles TileLayer
		table *icons.Table
	}{
		{"zoom", badZoom, OpenStreetMap(), table},
		{"container", noContainer, OpenStreetMap(), table},
		{"tile template", DefaultView(), badTiles, table},
		{"attribution", DefaultView(), noAttrib, table},
		{"nil icons", DefaultView(), OpenStreetMap(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.view, tt.tiles, tt.table, PopupFormatter{}, nil); err == nil {
				t.Fatal("New() = nil error; want error")
			}
		})
	}
}

func TestScene_JSON(t *testing.T) {
	in := newTestInitializer(t, nil)
	scene := NewScene()
	if _, err := in.Initialize(scene, []types.Location{seattle()}); err != nil {
		t.Fatalf("Initialize(): %v", err)
	}

	b, err := json.Marshal(scene)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got struct {
		View struct {
			Container string `json:"container"`
			Zoom      int    `json:"zoom"`
		} `json:"view"`
		TileLayers []struct {
			URLTemplate string `json:"urlTemplate"`
		} `json:"tileLayers"`
		Markers []struct {
			Position  types.LatLng `json:"position"`
			Icon      icons.Icon   `json:"icon"`
			PopupHTML string       `json:"popupHtml"`
		} `json:"markers"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.View.Container != "map" || got.View.Zoom != 7 {
		t.Errorf("view = %+v", got.View)
	}
	if len(got.TileLayers) != 1 || !strings.Contains(got.TileLayers[0].URLTemplate, "{z}/{x}/{y}") {
		t.Errorf("tileLayers = %+v", got.TileLayers)
	}
	if len(got.Markers) != 1 || got.Markers[0].Icon.IconSize != (icons.Point{25, 41}) {
		t.Errorf("markers = %+v", got.Markers)
	}
	if !strings.Contains(got.Markers[0].PopupHTML, "5 units") {
		t.Errorf("popupHtml = %q", got.Markers[0].PopupHTML)
	}

	b, _ = json.Marshal(NewScene())
	if string(b) != `{"view":null,"tileLayers":[],"markers":[]}` {
		t.Errorf("empty scene JSON = %s", b)
	}
}

func TestScene_BindPopup(t *testing.T) {
	scene := NewScene()
	if err := scene.BindPopup(0, "x"); !errors.Is(err, ErrUnknownMarker) {
		t.Errorf("BindPopup(unknown) = %v; want ErrUnknownMarker", err)
	}
	id, err := scene.AddMarker(types.LatLng{Lat: 1, Lon: 1}, icons.Icon{})
	if err != nil {
		t.Fatalf("AddMarker(): %v", err)
	}
	if err := scene.BindPopup(id, "first"); err != nil {
		t.Fatalf("BindPopup(): %v", err)
	}
	if err := scene.BindPopup(id, "second"); !errors.Is(err, ErrPopupBound) {
		t.Errorf("second BindPopup() = %v; want ErrPopupBound", err)
	}
	if _, err := scene.AddMarker(types.LatLng{Lat: 100, Lon: 0}, icons.Icon{}); err == nil {
		t.Error("AddMarker(invalid) = nil error; want error")
	}
}
