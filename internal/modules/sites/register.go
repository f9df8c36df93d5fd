package sites

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"wastemap-server/internal/config"
	"wastemap-server/internal/modules/sites/controller"
	"wastemap-server/internal/modules/sites/icons"
	"wastemap-server/internal/modules/sites/mapview"
	"wastemap-server/internal/modules/sites/repository"
	"wastemap-server/internal/modules/sites/source"
)

// NewInitializer builds the map initializer from configuration.
func NewInitializer(cfg config.Config, logger *slog.Logger) (*mapview.Initializer, error) {
	table, err := icons.Standard(cfg.IconBaseURL)
	if err != nil {
		return nil, fmt.Errorf("icon table: %w", err)
	}
	zone, err := time.LoadLocation(cfg.DisplayTZ)
	if err != nil {
		return nil, fmt.Errorf("display zone: %w", err)
	}
	tiles := mapview.OpenStreetMap()
	tiles.URLTemplate = cfg.TileURL
	tiles.Attribution = cfg.TileAttrib

	popups := mapview.PopupFormatter{Locale: mapview.MatchLocale(cfg.DefaultLocale), Zone: zone}
	return mapview.New(mapview.DefaultView(), tiles, table, popups, logger)
}

// NewSource returns the location source selected by cfg.SitesSource.
func NewSource(cfg config.Config, db *sql.DB) (source.Source, error) {
	switch cfg.SitesSource {
	case config.SourceStatic:
		return source.Static(), nil
	case config.SourceDB:
		if db == nil {
			return nil, fmt.Errorf("sites source %q needs a database", cfg.SitesSource)
		}
		return source.Repository(repository.NewRepository(db)), nil
	default:
		return nil, fmt.Errorf("unknown sites source %q", cfg.SitesSource)
	}
}

func RegisterFeature(mux *http.ServeMux, initializer *mapview.Initializer, src source.Source, defaultLocale string) {
	sitesController := controller.NewSitesController(initializer, src, defaultLocale)
	sitesController.RegisterRoutes(mux)
}
