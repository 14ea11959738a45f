package stations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"campusq/internal/shared/constants"
)

// Repository interface defines the contract for directory data operations
type Repository interface {
	// Station operations
	CreateStation(ctx context.Context, station *Station) error
	GetStation(ctx context.Context, id uuid.UUID) (*Station, error)
	ListAvailable(ctx context.Context, purpose Purpose) ([]Station, error)
	SetActivated(ctx context.Context, id uuid.UUID, activated bool) error

	// Counter operations
	CreateCounter(ctx context.Context, counter *Counter) error
	GetCounter(ctx context.Context, id uuid.UUID) (*Counter, error)
	ListCounters(ctx context.Context, stationID uuid.UUID) ([]Counter, error)
	CountBoundCounters(ctx context.Context, stationID uuid.UUID) (int64, error)
	AnyServing(ctx context.Context, stationID uuid.UUID) (bool, error)
	BindCashier(ctx context.Context, counterID uuid.UUID, cashierUID string) error
	UnbindCashier(ctx context.Context, counterID uuid.UUID) error

	// Display board
	ListServing(ctx context.Context, stationID uuid.UUID) ([]ServingDisplay, error)

	// Change signal: a per-station version bumped whenever queue or
	// serving state changes, so display clients can poll cheaply.
	BumpVersion(ctx context.Context, stationID uuid.UUID) error
	Version(ctx context.Context, stationID uuid.UUID) (int64, error)
}

// repository implements the Repository interface
type repository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewRepository creates a new directory repository
func NewRepository(db *gorm.DB, redisClient *redis.Client) Repository {
	return &repository{
		db:    db,
		redis: redisClient,
	}
}

// CreateStation creates a new station record
func (r *repository) CreateStation(ctx context.Context, station *Station) error {
	if station.ID == uuid.Nil {
		station.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(station).Error; err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}
	return nil
}

// GetStation gets a station by id
func (r *repository) GetStation(ctx context.Context, id uuid.UUID) (*Station, error) {
	var station Station
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&station).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return &station, nil
}

// ListAvailable lists activated stations matching a purpose
func (r *repository) ListAvailable(ctx context.Context, purpose Purpose) ([]Station, error) {
	var stations []Station
	err := r.db.WithContext(ctx).
		Where("purpose = ? AND activated = ?", purpose, true).
		Order("name ASC").
		Find(&stations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// SetActivated flips the station's activated flag
func (r *repository) SetActivated(ctx context.Context, id uuid.UUID, activated bool) error {
	result := r.db.WithContext(ctx).
		Model(&Station{}).
		Where("id = ?", id).
		Update("activated", activated)
	if result.Error != nil {
		return fmt.Errorf("failed to update station: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStationNotFound
	}
	return nil
}

// CreateCounter creates a new counter record
func (r *repository) CreateCounter(ctx context.Context, counter *Counter) error {
	if counter.ID == uuid.Nil {
		counter.ID = uuid.New()
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&Counter{}).
		Where("station_id = ? AND number = ?", counter.StationID, counter.Number).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check counter number: %w", err)
	}
	if count > 0 {
		return ErrCounterNumberTaken
	}

	if err := r.db.WithContext(ctx).Create(counter).Error; err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}
	return nil
}

// GetCounter gets a counter by id
func (r *repository) GetCounter(ctx context.Context, id uuid.UUID) (*Counter, error) {
	var counter Counter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCounterNotFound
		}
		return nil, fmt.Errorf("failed to get counter: %w", err)
	}
	return &counter, nil
}

// ListCounters lists a station's counters ordered by number
func (r *repository) ListCounters(ctx context.Context, stationID uuid.UUID) ([]Counter, error) {
	var counters []Counter
	err := r.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("number ASC").
		Find(&counters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}
	return counters, nil
}

// CountBoundCounters counts the station's counters with a bound cashier
func (r *repository) CountBoundCounters(ctx context.Context, stationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Counter{}).
		Where("station_id = ? AND cashier_uid IS NOT NULL", stationID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bound counters: %w", err)
	}
	return count, nil
}

// AnyServing reports whether any counter of the station is serving
func (r *repository) AnyServing(ctx context.Context, stationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Counter{}).
		Where("station_id = ? AND serving_ticket_id IS NOT NULL", stationID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check serving counters: %w", err)
	}
	return count > 0, nil
}

// BindCashier binds a cashier to a counter. A cashier operates at most
// one counter at a time, checked inside the same transaction that binds.
func (r *repository) BindCashier(ctx context.Context, counterID uuid.UUID, cashierUID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&Counter{}).
			Where("cashier_uid = ? AND id <> ?", cashierUID, counterID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to check cashier binding: %w", err)
		}
		if existing > 0 {
			return ErrCashierAlreadyBound
		}

		result := tx.Model(&Counter{}).
			Where("id = ?", counterID).
			Update("cashier_uid", cashierUID)
		if result.Error != nil {
			return fmt.Errorf("failed to bind cashier: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCounterNotFound
		}
		return nil
	})
}

// UnbindCashier clears a counter's cashier binding
func (r *repository) UnbindCashier(ctx context.Context, counterID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Counter{}).
		Where("id = ?", counterID).
		Update("cashier_uid", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to unbind cashier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCounterNotFound
	}
	return nil
}

// ListServing derives the display board rows from counters whose
// serving binding is set. The Redis current-serving index is only a
// cache; the counters table is the source of truth.
func (r *repository) ListServing(ctx context.Context, stationID uuid.UUID) ([]ServingDisplay, error) {
	var counters []Counter
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND serving_ticket_id IS NOT NULL", stationID).
		Order("number ASC").
		Find(&counters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list serving counters: %w", err)
	}

	display := make([]ServingDisplay, 0, len(counters))
	for _, c := range counters {
		display = append(display, ServingDisplay{
			CounterNumber: c.Number,
			TicketID:      *c.ServingTicketID,
		})
	}
	return display, nil
}

// BumpVersion increments the station change counter
func (r *repository) BumpVersion(ctx context.Context, stationID uuid.UUID) error {
	key := constants.StationVersionKey(stationID.String())
	pipe := r.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, constants.TTLStationVersion)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bump station version: %w", err)
	}
	return nil
}

// Version reads the station change counter (0 when unset)
func (r *repository) Version(ctx context.Context, stationID uuid.UUID) (int64, error) {
	val, err := r.redis.Get(ctx, constants.StationVersionKey(stationID.String())).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read station version: %w", err)
	}
	return val, nil
}
