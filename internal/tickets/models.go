package tickets

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusq/internal/stations"
)

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrDuplicateTicket   = errors.New("a live ticket already exists for this email at this station")
	ErrBlacklisted       = errors.New("email is blacklisted from queueing")
	ErrStationInactive   = errors.New("station is not accepting queue entries")
	ErrCounterBusy       = errors.New("counter is already serving a ticket")
	ErrNoPendingTickets  = errors.New("no pending tickets in the queue")
	ErrTicketNotServing  = errors.New("ticket is not being served at this counter")
	ErrTicketNotLeavable = errors.New("ticket is already in a terminal state")
	ErrCounterUnbound    = errors.New("cashier is not bound to this counter")
)

// Ticket is one queue entry. The id is human-readable and purpose
// scoped ("P007"), shown on display boards and read out by cashiers.
type Ticket struct {
	ID        string           `json:"id" gorm:"type:varchar(16);primaryKey"`
	Purpose   stations.Purpose `json:"purpose" gorm:"type:varchar(20);not null;index"`
	Email     string           `json:"email" gorm:"type:varchar(255);not null;index:idx_ticket_email_station"`
	StationID uuid.UUID        `json:"station_id" gorm:"type:uuid;not null;index:idx_ticket_email_station;index:idx_ticket_station_status"`
	Status    Status           `json:"status" gorm:"type:varchar(16);not null;index:idx_ticket_station_status"`
	CounterID *uuid.UUID       `json:"counter_id,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsLive reports whether the ticket still occupies a queue slot
func (t *Ticket) IsLive() bool {
	return t.Status == StatusPending || t.Status == StatusOngoing
}

// SequenceCounter is the per-purpose ticket number source. One row per
// purpose; allocation locks the row so numbers stay contiguous.
type SequenceCounter struct {
	Purpose stations.Purpose `gorm:"type:varchar(20);primaryKey"`
	Current int              `gorm:"not null;default:0"`
}

// FormatTicketID builds a ticket id from purpose initial and sequence
// number, e.g. payment + 7 -> "P007". Numbers past 999 keep growing
// naturally ("P1000").
func FormatTicketID(purpose stations.Purpose, number int) string {
	return fmt.Sprintf("%s%03d", purpose.Initial(), number)
}

// BlacklistEntry bars an email address from joining any queue. Rows
// are managed out of band; the queue only reads them.
type BlacklistEntry struct {
	Email     string    `gorm:"type:varchar(255);primaryKey"`
	Reason    string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
