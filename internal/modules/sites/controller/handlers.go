package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"wastemap-server/internal/modules/sites/icons"
	"wastemap-server/internal/modules/sites/mapview"
	"wastemap-server/internal/modules/sites/source"
	"wastemap-server/internal/modules/sites/views"
	"wastemap-server/internal/utils"
)

type sitesResponse struct {
	Locale string              `json:"locale"`
	Count  int                 `json:"count"`
	Scene  *mapview.Scene      `json:"scene"`
	Sites  []mapview.Placement `json:"sites"`
}

type iconsResponse struct {
	Default    icons.Icon            `json:"default"`
	Categories map[string]icons.Icon `json:"categories"`
}

// requestLocale prefers ?lang=, then Accept-Language, then the configured default.
func (c *sitesControllerImpl) requestLocale(r *http.Request) language.Tag {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return mapview.MatchLocale(lang)
	}
	return mapview.MatchLocale(r.Header.Get("Accept-Language"), c.defaultLocale)
}

func (c *sitesControllerImpl) buildScene(r *http.Request) (*mapview.Scene, []mapview.Placement, language.Tag, error) {
	locs, err := source.Load(r.Context(), c.source)
	if err != nil {
		return nil, nil, language.Und, err
	}
	locale := c.requestLocale(r)
	scene := mapview.NewScene()
	placements, err := c.initializer.ForLocale(locale).Initialize(scene, locs)
	if err != nil {
		return nil, nil, language.Und, err
	}
	return scene, placements, locale, nil
}

func (c *sitesControllerImpl) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	scene, placements, locale, err := c.buildScene(r)
	if err != nil {
		slog.Error("map: build scene failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load sites: "+err.Error())
		return
	}

	data := views.MapPage{
		Title:       pageTitle,
		Lang:        locale.String(),
		Container:   c.initializer.View().Container,
		MarkerCount: len(placements),
		Scene:       scene,
		Legend:      views.NewLegend(c.initializer.Icons()),
	}
	var buf bytes.Buffer
	if err := views.RenderMap(&buf, &data); err != nil {
		slog.Error("map template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("map: write response failed", "error", err)
	}
}

func (c *sitesControllerImpl) handleSites(w http.ResponseWriter, r *http.Request) {
	scene, placements, locale, err := c.buildScene(r)
	if err != nil {
		slog.Error("sites: build scene failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, sitesResponse{
		Locale: locale.String(),
		Count:  len(placements),
		Scene:  scene,
		Sites:  placements,
	})
}

func (c *sitesControllerImpl) handleIcons(w http.ResponseWriter, r *http.Request) {
	table := c.initializer.Icons()
	resp := iconsResponse{
		Default:    table.Default(),
		Categories: make(map[string]icons.Icon),
	}
	for _, category := range table.Categories() {
		resp.Categories[category], _ = table.Resolve(category)
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (c *sitesControllerImpl) handleLegendPartial(w http.ResponseWriter, r *http.Request) {
	legend := views.NewLegend(c.initializer.Icons())
	var buf bytes.Buffer
	if err := views.RenderLegendPartial(&buf, &legend); err != nil {
		slog.Error("legend partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("legend: write response failed", "error", err)
	}
}
