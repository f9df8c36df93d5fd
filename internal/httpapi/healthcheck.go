package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"wastemap-server/internal/utils"
)

// BrokerStatus reports MQTT connectivity. *mqtt.Subscriber satisfies it.
type BrokerStatus interface {
	IsConnected() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db     *sql.DB
	broker BrokerStatus
}

func NewHealthchecker(db *sql.DB, broker BrokerStatus) healthchecker {
	return &healthcheckerImpl{db: db, broker: broker}
}

// handleHealthz fails only on the database. A disconnected broker is reported
// but does not make the service unhealthy.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	mqttStatus := "disabled"
	if h.broker != nil {
		mqttStatus = "disconnected"
		if h.broker.IsConnected() {
			mqttStatus = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "mqtt": mqttStatus})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, broker BrokerStatus) {
	healthchecker := NewHealthchecker(db, broker)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
