package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with /healthz registered. broker may be nil when MQTT is disabled.
func NewMux(db *sql.DB, broker BrokerStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, broker)
	return mux
}
