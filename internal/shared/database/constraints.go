package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// A cashier operates at most one counter at a time
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_cashier_binding
		ON counters (cashier_uid)
		WHERE cashier_uid IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	// A counter serves at most one ticket, and a ticket is served by at
	// most one counter
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_serving_ticket
		ON counters (serving_ticket_id)
		WHERE serving_ticket_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	// One live ticket per email per station; terminal tickets don't count
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_live_ticket_per_email_station
		ON tickets (email, station_id)
		WHERE status IN ('PENDING', 'ONGOING');
	`).Error
	if err != nil {
		return err
	}

	// FIFO pick path: oldest pending ticket per station
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_station_pending_order
		ON tickets (station_id, created_at, id)
		WHERE status = 'PENDING';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
