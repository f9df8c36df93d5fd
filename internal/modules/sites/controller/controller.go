package controller

import (
	"net/http"

	"wastemap-server/internal/modules/sites/mapview"
	"wastemap-server/internal/modules/sites/source"
)

const pageTitle = "Washington Waste Collection Sites"

type SitesController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type sitesControllerImpl struct {
	initializer   *mapview.Initializer
	source        source.Source
	defaultLocale string
}

func NewSitesController(initializer *mapview.Initializer, src source.Source, defaultLocale string) SitesController {
	return &sitesControllerImpl{
		initializer:   initializer,
		source:        src,
		defaultLocale: defaultLocale,
	}
}

func (c *sitesControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleMap)
	mux.HandleFunc("GET /api/v1/sites", c.handleSites)
	mux.HandleFunc("GET /api/v1/icons", c.handleIcons)
	mux.HandleFunc("GET /partials/legend", c.handleLegendPartial)
}
