package stations

import (
	"time"

	"github.com/google/uuid"
)

// StationResponse is the public directory view of a station
type StationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Purpose   string    `json:"purpose"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"created_at"`
}

// CounterResponse is the staff view of a counter
type CounterResponse struct {
	ID              uuid.UUID `json:"id"`
	StationID       uuid.UUID `json:"station_id"`
	Number          int       `json:"number"`
	CashierUID      *string   `json:"cashier_uid,omitempty"`
	ServingTicketID *string   `json:"serving_ticket_id,omitempty"`
}

// DisplayResponse is the payload polled by station display boards
type DisplayResponse struct {
	StationID uuid.UUID        `json:"station_id"`
	Version   int64            `json:"version"`
	Serving   []ServingDisplay `json:"serving"`
}

func toStationResponse(s Station) StationResponse {
	return StationResponse{
		ID:        s.ID,
		Name:      s.Name,
		Purpose:   s.Purpose.String(),
		Activated: s.Activated,
		CreatedAt: s.CreatedAt,
	}
}

func toStationResponses(stations []Station) []StationResponse {
	out := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		out = append(out, toStationResponse(s))
	}
	return out
}

func toCounterResponse(c Counter) CounterResponse {
	return CounterResponse{
		ID:              c.ID,
		StationID:       c.StationID,
		Number:          c.Number,
		CashierUID:      c.CashierUID,
		ServingTicketID: c.ServingTicketID,
	}
}
