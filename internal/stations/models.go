package stations

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Purpose is the category of service a station provides. It determines
// both which stations a customer may queue for and the prefix letter of
// the tickets the station's queue issues.
type Purpose string

const (
	PurposePayment   Purpose = "payment"
	PurposeClinic    Purpose = "clinic"
	PurposeRegistrar Purpose = "registrar"
	PurposeGuidance  Purpose = "guidance"
)

// IsValid checks if the purpose is a known service category
func (p Purpose) IsValid() bool {
	switch p {
	case PurposePayment, PurposeClinic, PurposeRegistrar, PurposeGuidance:
		return true
	}
	return false
}

// Initial returns the ticket prefix letter for the purpose.
// Prefixes are unique per purpose so ticket ids never collide across
// queues (P001 and C001 are different tickets).
func (p Purpose) Initial() string {
	if p == "" {
		return "?"
	}
	return strings.ToUpper(string(p[:1]))
}

// String returns the string representation of Purpose
func (p Purpose) String() string {
	return string(p)
}

var (
	ErrStationNotFound       = errors.New("station not found")
	ErrCounterNotFound       = errors.New("counter not found")
	ErrStationNotActivatable = errors.New("station needs at least one counter with a bound cashier")
	ErrStationServing        = errors.New("station has counters actively serving")
	ErrCounterNumberTaken    = errors.New("counter number already taken for station")
	ErrCashierAlreadyBound   = errors.New("cashier already bound to a counter")
)

// Station is a logical service point with one or more physical counters
type Station struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	Purpose   Purpose   `json:"purpose" gorm:"type:varchar(20);not null;index"`
	Activated bool      `json:"activated" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Counter is a physical service window at a station. It is operated by
// at most one cashier and serves at most one ticket at a time; the
// serving binding is mutated only inside claim/finish transactions.
type Counter struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StationID       uuid.UUID `json:"station_id" gorm:"type:uuid;not null;uniqueIndex:idx_station_counter_number,priority:1"`
	Number          int       `json:"number" gorm:"not null;uniqueIndex:idx_station_counter_number,priority:2"`
	CashierUID      *string   `json:"cashier_uid,omitempty" gorm:"type:varchar(128);index"`
	ServingTicketID *string   `json:"serving_ticket_id,omitempty" gorm:"type:varchar(16)"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsServing returns true if the counter is bound to a ticket
func (c *Counter) IsServing() bool {
	return c.ServingTicketID != nil && *c.ServingTicketID != ""
}

// ServingDisplay is one row of a station's public display board
type ServingDisplay struct {
	CounterNumber int    `json:"counter_number"`
	TicketID      string `json:"ticket_id"`
}
