package database

import (
	"campusq/internal/stations"
	"campusq/internal/tickets"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&stations.Station{},
		&stations.Counter{},
		&tickets.Ticket{},
		&tickets.SequenceCounter{},
		&tickets.BlacklistEntry{},
	)
}
