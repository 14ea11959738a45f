package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"campusq/internal/shared/config"
	"campusq/internal/shared/database"
	"campusq/internal/stations"
	"campusq/internal/tickets"
)

// Seeder populates a development database with a realistic campus
// directory: a few stations per purpose, counters, and bound cashiers.
type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting CampusQ database seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.MigrateConstraints(db.GetPostgreSQL()); err != nil {
		log.Fatalf("Failed to apply constraints: %v", err)
	}

	seeder := &Seeder{db: db}
	ctx := context.Background()

	if err := seeder.seedStations(ctx); err != nil {
		log.Fatalf("Failed to seed stations: %v", err)
	}
	if err := seeder.seedBlacklist(ctx); err != nil {
		log.Fatalf("Failed to seed blacklist: %v", err)
	}

	fmt.Println("Seeding complete.")
}

type stationSpec struct {
	name     string
	purpose  stations.Purpose
	counters int
	cashiers []string
	activate bool
}

func (s *Seeder) seedStations(ctx context.Context) error {
	repo := stations.NewRepository(s.db.GetPostgreSQL(), s.db.GetRedisClient())

	specs := []stationSpec{
		{"Bursar's Office", stations.PurposePayment, 3, []string{"cashier-alice", "cashier-ben"}, true},
		{"Health Services Desk", stations.PurposeClinic, 2, []string{"cashier-carol"}, true},
		{"Registrar Window", stations.PurposeRegistrar, 2, []string{"cashier-dan"}, true},
		{"Guidance Office", stations.PurposeGuidance, 1, nil, false},
	}

	for _, spec := range specs {
		station := &stations.Station{
			Name:    spec.name,
			Purpose: spec.purpose,
		}
		if err := repo.CreateStation(ctx, station); err != nil {
			return fmt.Errorf("create station %s: %w", spec.name, err)
		}

		var counterIDs []uuid.UUID
		for n := 1; n <= spec.counters; n++ {
			counter := &stations.Counter{StationID: station.ID, Number: n}
			if err := repo.CreateCounter(ctx, counter); err != nil {
				return fmt.Errorf("create counter %d for %s: %w", n, spec.name, err)
			}
			counterIDs = append(counterIDs, counter.ID)
		}

		for i, cashier := range spec.cashiers {
			if i >= len(counterIDs) {
				break
			}
			if err := repo.BindCashier(ctx, counterIDs[i], cashier); err != nil {
				return fmt.Errorf("bind %s at %s: %w", cashier, spec.name, err)
			}
		}

		if spec.activate {
			if err := repo.SetActivated(ctx, station.ID, true); err != nil {
				return fmt.Errorf("activate %s: %w", spec.name, err)
			}
		}

		fmt.Printf("Seeded station %s (%s) with %d counters\n", spec.name, spec.purpose, spec.counters)
	}

	return nil
}

func (s *Seeder) seedBlacklist(ctx context.Context) error {
	entries := []tickets.BlacklistEntry{
		{Email: "noshow@campus.edu", Reason: "repeated no-shows"},
	}

	for _, entry := range entries {
		if err := s.db.GetPostgreSQL().WithContext(ctx).
			Where(tickets.BlacklistEntry{Email: entry.Email}).
			FirstOrCreate(&entry).Error; err != nil {
			return fmt.Errorf("blacklist %s: %w", entry.Email, err)
		}
	}

	fmt.Printf("Seeded %d blacklist entries\n", len(entries))
	return nil
}
