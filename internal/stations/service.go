package stations

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campusq/internal/shared/constants"
	"campusq/pkg/cache"
)

// Service interface defines the contract for directory operations
type Service interface {
	// Read path
	AvailableStations(ctx context.Context, purpose Purpose) ([]Station, error)
	DisplayServing(ctx context.Context, stationID uuid.UUID) ([]ServingDisplay, int64, error)
	GetStation(ctx context.Context, id uuid.UUID) (*Station, error)
	GetCounter(ctx context.Context, id uuid.UUID) (*Counter, error)

	// Directory maintenance
	CreateStation(ctx context.Context, name string, purpose Purpose) (*Station, error)
	Activate(ctx context.Context, stationID uuid.UUID) error
	Deactivate(ctx context.Context, stationID uuid.UUID) error
	CreateCounter(ctx context.Context, stationID uuid.UUID, number int) (*Counter, error)
	BindCashier(ctx context.Context, counterID uuid.UUID, cashierUID string) error
	UnbindCashier(ctx context.Context, counterID uuid.UUID) error
}

// service implements the Service interface
type service struct {
	repo  Repository
	cache cache.Service
}

// NewService creates a new directory service
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
	}
}

// AvailableStations returns activated stations for a purpose, served
// from a short-lived cache since the directory changes rarely.
func (s *service) AvailableStations(ctx context.Context, purpose Purpose) ([]Station, error) {
	if !purpose.IsValid() {
		return nil, fmt.Errorf("invalid purpose %q", purpose)
	}

	if s.cache == nil {
		return s.repo.ListAvailable(ctx, purpose)
	}

	var stations []Station
	err := s.cache.GetOrSet(ctx, constants.DirectoryCacheKey(purpose.String()), constants.TTLDirectoryCache,
		func() (interface{}, error) {
			return s.repo.ListAvailable(ctx, purpose)
		}, &stations)
	if err != nil {
		return nil, err
	}
	return stations, nil
}

// DisplayServing returns the station's display board rows along with
// the station change version for cheap client-side polling.
func (s *service) DisplayServing(ctx context.Context, stationID uuid.UUID) ([]ServingDisplay, int64, error) {
	if _, err := s.repo.GetStation(ctx, stationID); err != nil {
		return nil, 0, err
	}

	display, err := s.repo.ListServing(ctx, stationID)
	if err != nil {
		return nil, 0, err
	}

	version, err := s.repo.Version(ctx, stationID)
	if err != nil {
		// Display must keep working when the change signal is unavailable.
		version = 0
	}

	return display, version, nil
}

// GetStation gets a station by id
func (s *service) GetStation(ctx context.Context, id uuid.UUID) (*Station, error) {
	return s.repo.GetStation(ctx, id)
}

// GetCounter gets a counter by id
func (s *service) GetCounter(ctx context.Context, id uuid.UUID) (*Counter, error) {
	return s.repo.GetCounter(ctx, id)
}

// CreateStation creates a deactivated station
func (s *service) CreateStation(ctx context.Context, name string, purpose Purpose) (*Station, error) {
	if name == "" {
		return nil, fmt.Errorf("station name is required")
	}
	if !purpose.IsValid() {
		return nil, fmt.Errorf("invalid purpose %q", purpose)
	}

	station := &Station{
		Name:      name,
		Purpose:   purpose,
		Activated: false,
	}
	if err := s.repo.CreateStation(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}

// Activate opens the station for queueing. A station can only be
// activated once it has at least one counter with a bound cashier.
func (s *service) Activate(ctx context.Context, stationID uuid.UUID) error {
	station, err := s.repo.GetStation(ctx, stationID)
	if err != nil {
		return err
	}

	counters, err := s.repo.ListCounters(ctx, stationID)
	if err != nil {
		return err
	}
	if len(counters) == 0 {
		return ErrStationNotActivatable
	}

	bound, err := s.repo.CountBoundCounters(ctx, stationID)
	if err != nil {
		return err
	}
	if bound == 0 {
		return ErrStationNotActivatable
	}

	if err := s.repo.SetActivated(ctx, stationID, true); err != nil {
		return err
	}

	s.invalidateDirectory(ctx, station.Purpose)
	return nil
}

// Deactivate closes the station. Refused while any of its counters is
// actively serving a ticket.
func (s *service) Deactivate(ctx context.Context, stationID uuid.UUID) error {
	station, err := s.repo.GetStation(ctx, stationID)
	if err != nil {
		return err
	}

	serving, err := s.repo.AnyServing(ctx, stationID)
	if err != nil {
		return err
	}
	if serving {
		return ErrStationServing
	}

	if err := s.repo.SetActivated(ctx, stationID, false); err != nil {
		return err
	}

	s.invalidateDirectory(ctx, station.Purpose)
	return nil
}

// CreateCounter adds a counter to a station
func (s *service) CreateCounter(ctx context.Context, stationID uuid.UUID, number int) (*Counter, error) {
	if number <= 0 {
		return nil, fmt.Errorf("counter number must be positive")
	}
	if _, err := s.repo.GetStation(ctx, stationID); err != nil {
		return nil, err
	}

	counter := &Counter{
		StationID: stationID,
		Number:    number,
	}
	if err := s.repo.CreateCounter(ctx, counter); err != nil {
		return nil, err
	}
	return counter, nil
}

// BindCashier binds a cashier to a counter
func (s *service) BindCashier(ctx context.Context, counterID uuid.UUID, cashierUID string) error {
	if cashierUID == "" {
		return fmt.Errorf("cashier uid is required")
	}
	return s.repo.BindCashier(ctx, counterID, cashierUID)
}

// UnbindCashier clears a counter's cashier binding
func (s *service) UnbindCashier(ctx context.Context, counterID uuid.UUID) error {
	return s.repo.UnbindCashier(ctx, counterID)
}

func (s *service) invalidateDirectory(ctx context.Context, purpose Purpose) {
	if s.cache == nil {
		return
	}
	// Best effort: a stale listing expires within the cache TTL anyway.
	_ = s.cache.Delete(ctx, constants.DirectoryCacheKey(purpose.String()))
}
