package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"wastemap-server/internal/modules/sites/icons"
	"wastemap-server/internal/modules/sites/mapview"
)

//go:embed templates
var viewsFS embed.FS

var mapTmpl *template.Template

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	mapTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type LegendEntry struct {
	Category string
	IconURL  string
}

type LegendData struct {
	Entries        []LegendEntry
	DefaultIconURL string
}

// NewLegend lists every known category of table plus the fallback icon.
func NewLegend(table *icons.Table) LegendData {
	cats := table.Categories()
	entries := make([]LegendEntry, 0, len(cats))
	for _, c := range cats {
		icon, _ := table.Resolve(c)
		entries = append(entries, LegendEntry{Category: c, IconURL: icon.IconURL})
	}
	return LegendData{Entries: entries, DefaultIconURL: table.Default().IconURL}
}

type MapPage struct {
	Title       string
	Lang        string
	Container   string
	MarkerCount int
	Scene       *mapview.Scene
	Legend      LegendData
}

func RenderMap(w io.Writer, data *MapPage) error {
	if mapTmpl == nil {
		return errors.New("map template not loaded: call views.LoadTemplates during startup")
	}
	return mapTmpl.ExecuteTemplate(w, "map.html", data)
}

// RenderLegendPartial executes only the legend partial into w.
func RenderLegendPartial(w io.Writer, data *LegendData) error {
	if mapTmpl == nil {
		return errors.New("map template not loaded: call views.LoadTemplates during startup")
	}
	return mapTmpl.ExecuteTemplate(w, "partials/legend.html", data)
}
