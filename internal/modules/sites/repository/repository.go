package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"

	"wastemap-server/internal/modules/sites/types"
)

//go:embed sql/get-locations.sql
var getLocationsSQL string

type LocationRepository interface {
	GetLocations(ctx context.Context) ([]types.Location, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) LocationRepository {
	return &repositoryImpl{db: db}
}

// GetLocations returns every disposal request as a map location, in insertion order.
// Rows are returned as stored; validation is the caller's job.
func (r *repositoryImpl) GetLocations(ctx context.Context) ([]types.Location, error) {
	rows, err := r.db.QueryContext(ctx, getLocationsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close locations rows", "error", err)
		}
	}()
	var out []types.Location
	for rows.Next() {
		var l types.Location
		if err := rows.Scan(&l.Lat, &l.Lon, &l.Address, &l.WasteType, &l.ExpectedAmount, &l.Deadline); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
