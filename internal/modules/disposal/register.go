package disposal

import (
	"database/sql"
	"log/slog"
	"net/http"

	"wastemap-server/internal/modules/disposal/controller"
	"wastemap-server/internal/modules/disposal/repository"
	"wastemap-server/internal/mqtt"
)

// RegisterFeature mounts the disposal API on mux. When subscriber is non-nil,
// requests published over MQTT are stored through the same repository.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.MQTTSubscriber, logger *slog.Logger) {
	disposalRepository := repository.NewRepository(db)
	disposalController := controller.NewDisposalController(disposalRepository)
	disposalController.RegisterRoutes(mux)

	if subscriber != nil {
		registerMQTTHandler(subscriber, disposalRepository, logger)
	}
}
