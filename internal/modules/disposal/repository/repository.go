package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"wastemap-server/internal/modules/disposal/types"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

//go:embed sql/insert-business.sql
var insertBusinessSQL string

//go:embed sql/get-business.sql
var getBusinessSQL string

//go:embed sql/insert-disposal-request.sql
var insertDisposalRequestSQL string

//go:embed sql/get-disposal-request.sql
var getDisposalRequestSQL string

//go:embed sql/list-disposal-requests.sql
var listDisposalRequestsSQL string

//go:embed sql/disposal-request-exists.sql
var disposalRequestExistsSQL string

//go:embed sql/insert-timeslot.sql
var insertTimeslotSQL string

//go:embed sql/get-timeslots.sql
var getTimeslotsSQL string

type DisposalRepository interface {
	CreateBusiness(ctx context.Context, in types.NewBusiness) (types.Business, error)
	GetBusiness(ctx context.Context, id int64) (types.Business, error)
	CreateDisposalRequest(ctx context.Context, in types.NewDisposalRequest) (types.DisposalRequest, error)
	GetDisposalRequest(ctx context.Context, id int64) (types.DisposalRequestDetail, error)
	ListDisposalRequests(ctx context.Context, offset, limit int) ([]types.DisposalRequest, error)
	CreateTimeslot(ctx context.Context, requestID int64, in types.NewTimeslot) (types.Timeslot, error)
}

type repositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) DisposalRepository {
	return &repositoryImpl{db: db, now: time.Now}
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repositoryImpl) CreateBusiness(ctx context.Context, in types.NewBusiness) (types.Business, error) {
	res, err := r.db.ExecContext(ctx, insertBusinessSQL, in.Name, in.PhoneNumber, in.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Business{}, fmt.Errorf("business with phone %d or email %q already exists: %w", in.PhoneNumber, in.Email, ErrConflict)
		}
		return types.Business{}, fmt.Errorf("insert business: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Business{}, fmt.Errorf("business id: %w", err)
	}
	return types.Business{ID: id, Name: in.Name, PhoneNumber: in.PhoneNumber, Email: in.Email}, nil
}

func (r *repositoryImpl) GetBusiness(ctx context.Context, id int64) (types.Business, error) {
	return getBusiness(ctx, r.db, id)
}

func getBusiness(ctx context.Context, q queryRower, id int64) (types.Business, error) {
	var b types.Business
	err := q.QueryRowContext(ctx, getBusinessSQL, id).Scan(&b.ID, &b.Name, &b.PhoneNumber, &b.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Business{}, fmt.Errorf("business %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Business{}, fmt.Errorf("get business %d: %w", id, err)
	}
	return b, nil
}

// CreateDisposalRequest checks the business and inserts in one transaction.
// CreatedAt defaults to the current UTC time.
func (r *repositoryImpl) CreateDisposalRequest(ctx context.Context, in types.NewDisposalRequest) (types.DisposalRequest, error) {
	createdAt := r.now().UTC()
	if in.CreatedAt != nil {
		createdAt = in.CreatedAt.UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.DisposalRequest{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getBusiness(ctx, tx, in.BusinessID); err != nil {
		return types.DisposalRequest{}, err
	}
	res, err := tx.ExecContext(ctx, insertDisposalRequestSQL,
		in.Address, in.BusinessID, in.Longitude, in.Latitude,
		in.ExpectedAmount, in.WasteType, in.Deadline, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return types.DisposalRequest{}, fmt.Errorf("insert disposal request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.DisposalRequest{}, fmt.Errorf("disposal request id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.DisposalRequest{}, fmt.Errorf("commit: %w", err)
	}
	return types.DisposalRequest{
		ID:             id,
		Address:        in.Address,
		BusinessID:     in.BusinessID,
		Longitude:      in.Longitude,
		Latitude:       in.Latitude,
		ExpectedAmount: in.ExpectedAmount,
		WasteType:      in.WasteType,
		Deadline:       in.Deadline,
		CreatedAt:      createdAt,
	}, nil
}

func (r *repositoryImpl) GetDisposalRequest(ctx context.Context, id int64) (types.DisposalRequestDetail, error) {
	row := r.db.QueryRowContext(ctx, getDisposalRequestSQL, id)
	req, err := scanDisposalRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.DisposalRequestDetail{}, fmt.Errorf("disposal request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.DisposalRequestDetail{}, fmt.Errorf("get disposal request %d: %w", id, err)
	}

	business, err := r.GetBusiness(ctx, req.BusinessID)
	if err != nil {
		return types.DisposalRequestDetail{}, err
	}
	slots, err := r.getTimeslots(ctx, id)
	if err != nil {
		return types.DisposalRequestDetail{}, err
	}
	return types.DisposalRequestDetail{DisposalRequest: req, Business: business, Timeslots: slots}, nil
}

func (r *repositoryImpl) ListDisposalRequests(ctx context.Context, offset, limit int) ([]types.DisposalRequest, error) {
	rows, err := r.db.QueryContext(ctx, listDisposalRequestsSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close disposal requests rows", "error", err)
		}
	}()
	out := []types.DisposalRequest{}
	for rows.Next() {
		req, err := scanDisposalRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) CreateTimeslot(ctx context.Context, requestID int64, in types.NewTimeslot) (types.Timeslot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Timeslot{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, disposalRequestExistsSQL, requestID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Timeslot{}, fmt.Errorf("disposal request %d: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return types.Timeslot{}, fmt.Errorf("lookup disposal request %d: %w", requestID, err)
	}

	start, end := in.StartTime.UTC(), in.EndTime.UTC()
	res, err := tx.ExecContext(ctx, insertTimeslotSQL, start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano), requestID)
	if err != nil {
		return types.Timeslot{}, fmt.Errorf("insert timeslot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Timeslot{}, fmt.Errorf("timeslot id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Timeslot{}, fmt.Errorf("commit: %w", err)
	}
	return types.Timeslot{ID: id, StartTime: start, EndTime: end, DisposalRequestID: requestID}, nil
}

func (r *repositoryImpl) getTimeslots(ctx context.Context, requestID int64) ([]types.Timeslot, error) {
	rows, err := r.db.QueryContext(ctx, getTimeslotsSQL, requestID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close timeslots rows", "error", err)
		}
	}()
	out := []types.Timeslot{}
	for rows.Next() {
		var ts types.Timeslot
		var start, end string
		if err := rows.Scan(&ts.ID, &start, &end, &ts.DisposalRequestID); err != nil {
			return nil, err
		}
		if ts.StartTime, err = parseTimestamp(start); err != nil {
			return nil, err
		}
		if ts.EndTime, err = parseTimestamp(end); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDisposalRequest(s scanner) (types.DisposalRequest, error) {
	var d types.DisposalRequest
	var createdAt string
	err := s.Scan(&d.ID, &d.Address, &d.BusinessID, &d.Longitude, &d.Latitude,
		&d.ExpectedAmount, &d.WasteType, &d.Deadline, &createdAt)
	if err != nil {
		return types.DisposalRequest{}, err
	}
	if d.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return types.DisposalRequest{}, err
	}
	return d, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", s, err, err2)
		}
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
