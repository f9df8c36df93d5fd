package types

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	sitetypes "wastemap-server/internal/modules/sites/types"
)

// ErrValidation is wrapped by every Validate error in this package.
var ErrValidation = errors.New("validation failed")

type Business struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber int64  `json:"phone_number"`
	Email       string `json:"email"`
}

type NewBusiness struct {
	Name        string `json:"name"`
	PhoneNumber int64  `json:"phone_number"`
	Email       string `json:"email"`
}

func (b NewBusiness) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if b.PhoneNumber <= 0 {
		return fmt.Errorf("%w: phone_number must be positive", ErrValidation)
	}
	if _, err := mail.ParseAddress(b.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, b.Email)
	}
	return nil
}

type DisposalRequest struct {
	ID             int64     `json:"id"`
	Address        string    `json:"address"`
	BusinessID     int64     `json:"business_id"`
	Longitude      float64   `json:"longitude"`
	Latitude       float64   `json:"latitude"`
	ExpectedAmount int       `json:"expected_amt"`
	WasteType      string    `json:"waste_type"`
	Deadline       string    `json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
}

// Location returns the map view of the request.
func (d DisposalRequest) Location() sitetypes.Location {
	return sitetypes.Location{
		Lat:            d.Latitude,
		Lon:            d.Longitude,
		Address:        d.Address,
		WasteType:      d.WasteType,
		ExpectedAmount: d.ExpectedAmount,
		Deadline:       d.Deadline,
	}
}

// NewDisposalRequest is the create payload, shared by the HTTP API and MQTT ingestion.
type NewDisposalRequest struct {
	Address        string     `json:"address"`
	BusinessID     int64      `json:"business_id"`
	Longitude      float64    `json:"longitude"`
	Latitude       float64    `json:"latitude"`
	ExpectedAmount int        `json:"expected_amt"`
	WasteType      string     `json:"waste_type"`
	Deadline       string     `json:"deadline"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

func (n NewDisposalRequest) Validate() error {
	if n.BusinessID <= 0 {
		return fmt.Errorf("%w: business_id must be positive", ErrValidation)
	}
	loc := sitetypes.Location{
		Lat:            n.Latitude,
		Lon:            n.Longitude,
		Address:        n.Address,
		WasteType:      n.WasteType,
		ExpectedAmount: n.ExpectedAmount,
		Deadline:       n.Deadline,
	}
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

type Timeslot struct {
	ID                int64     `json:"id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	DisposalRequestID int64     `json:"disposal_request_id"`
}

type NewTimeslot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (n NewTimeslot) Validate() error {
	if n.StartTime.IsZero() || n.EndTime.IsZero() {
		return fmt.Errorf("%w: start_time and end_time are required", ErrValidation)
	}
	if !n.EndTime.After(n.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	return nil
}

// DisposalRequestDetail is a request with its business and timeslots.
type DisposalRequestDetail struct {
	DisposalRequest
	Business  Business   `json:"business"`
	Timeslots []Timeslot `json:"timeslots"`
}
