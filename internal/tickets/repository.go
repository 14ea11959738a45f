package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusq/internal/shared/constants"
	"campusq/internal/stations"
)

// Repository interface defines the contract for queue data operations.
// The state-changing methods run as single Postgres transactions so the
// queue invariants survive concurrent joins and claims.
type Repository interface {
	// Queue ledger
	AllocateTicket(ctx context.Context, stationID uuid.UUID, purpose stations.Purpose, email string) (*Ticket, error)
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	HasLiveTicket(ctx context.Context, email string, stationID uuid.UUID) (bool, error)
	IsBlacklisted(ctx context.Context, email string) (bool, error)
	ListPending(ctx context.Context, stationID uuid.UUID, limit int) ([]Ticket, error)
	PendingPosition(ctx context.Context, ticket *Ticket) (int, error)
	ReleaseTicket(ctx context.Context, ticketID string) (*Ticket, *int, error)

	// Serving coordination
	ClaimNext(ctx context.Context, stationID, counterID uuid.UUID, cashierUID string) (*Ticket, int, error)
	FinishServing(ctx context.Context, ticketID string, stationID, counterID uuid.UUID, final Status) error

	// Redis current-serving index, a read cache for display boards
	SetServingIndex(ctx context.Context, stationID uuid.UUID, counterNumber int, ticketID string)
	ClearServingIndex(ctx context.Context, stationID uuid.UUID, counterNumber int)
}

// repository implements the Repository interface
type repository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewRepository(db *gorm.DB, redisClient *redis.Client) Repository {
	return &repository{db: db, redis: redisClient}
}

// AllocateTicket assigns the next sequence number for the purpose and
// creates the pending ticket, atomically. The sequence row is locked
// for the duration of the transaction so concurrent joins serialize
// and numbers come out contiguous with no duplicates.
func (r *repository) AllocateTicket(ctx context.Context, stationID uuid.UUID, purpose stations.Purpose, email string) (*Ticket, error) {
	var ticket *Ticket

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check the duplicate precondition under the transaction;
		// the service-level check raced with other joins.
		var live int64
		err := tx.Model(&Ticket{}).
			Where("email = ? AND station_id = ? AND status IN ?", email, stationID,
				[]Status{StatusPending, StatusOngoing}).
			Count(&live).Error
		if err != nil {
			return fmt.Errorf("failed to check live tickets: %w", err)
		}
		if live > 0 {
			return ErrDuplicateTicket
		}

		// Ensure the sequence row exists, then lock it.
		seq := SequenceCounter{Purpose: purpose}
		if err := tx.Where(SequenceCounter{Purpose: purpose}).FirstOrCreate(&seq).Error; err != nil {
			return fmt.Errorf("failed to ensure sequence row: %w", err)
		}

		err = forUpdate(tx).Model(&SequenceCounter{}).
			Where("purpose = ?", purpose).
			First(&seq).Error
		if err != nil {
			return fmt.Errorf("failed to lock sequence row: %w", err)
		}

		next := seq.Current + 1
		err = tx.Model(&SequenceCounter{}).
			Where("purpose = ?", purpose).
			Update("current", next).Error
		if err != nil {
			return fmt.Errorf("failed to advance sequence: %w", err)
		}

		ticket = &Ticket{
			ID:        FormatTicketID(purpose, next),
			Purpose:   purpose,
			Email:     email,
			StationID: stationID,
			Status:    StatusPending,
		}
		if err := tx.Create(ticket).Error; err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func (r *repository) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *repository) HasLiveTicket(ctx context.Context, email string, stationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("email = ? AND station_id = ? AND status IN ?", email, stationID,
			[]Status{StatusPending, StatusOngoing}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count live tickets: %w", err)
	}
	return count > 0, nil
}

func (r *repository) IsBlacklisted(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BlacklistEntry{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return count > 0, nil
}

// ListPending returns the oldest pending tickets for a station in
// arrival order. limit <= 0 returns the whole queue.
func (r *repository) ListPending(ctx context.Context, stationID uuid.UUID, limit int) ([]Ticket, error) {
	var tickets []Ticket
	q := r.db.WithContext(ctx).
		Where("station_id = ? AND status = ?", stationID, StatusPending).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending tickets: %w", err)
	}
	return tickets, nil
}

// PendingPosition returns the 1-based rank of a pending ticket within
// its station's queue.
func (r *repository) PendingPosition(ctx context.Context, ticket *Ticket) (int, error) {
	var ahead int64
	err := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("station_id = ? AND status = ?", ticket.StationID, StatusPending).
		Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			ticket.CreatedAt, ticket.CreatedAt, ticket.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute position: %w", err)
	}
	return int(ahead) + 1, nil
}

// ReleaseTicket finalizes a customer-initiated leave. The ticket moves
// to UNSUCCESSFUL and, when it was being served, the counter binding
// is cleared. Returns the prior ticket state and, if the ticket was
// ongoing, the number of the counter that was serving it.
func (r *repository) ReleaseTicket(ctx context.Context, ticketID string) (*Ticket, *int, error) {
	var prior Ticket
	var counterNumber *int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := forUpdate(tx).Where("id = ?", ticketID).First(&prior).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("failed to lock ticket: %w", err)
		}

		if !CanTransition(prior.Status, StatusUnsuccessful) {
			return ErrTicketNotLeavable
		}

		if prior.Status == StatusOngoing && prior.CounterID != nil {
			var counter stations.Counter
			err := forUpdate(tx).Where("id = ?", *prior.CounterID).First(&counter).Error
			if err != nil {
				return fmt.Errorf("failed to lock serving counter: %w", err)
			}
			counterNumber = &counter.Number

			err = tx.Model(&stations.Counter{}).
				Where("id = ?", counter.ID).
				Update("serving_ticket_id", nil).Error
			if err != nil {
				return fmt.Errorf("failed to clear counter binding: %w", err)
			}
		}

		err = tx.Model(&Ticket{}).
			Where("id = ?", ticketID).
			Update("status", StatusUnsuccessful).Error
		if err != nil {
			return fmt.Errorf("failed to finalize ticket: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &prior, counterNumber, nil
}

// ClaimNext assigns the oldest pending ticket of the station to the
// counter. The counter row lock enforces one claim per counter; the
// SKIP LOCKED pick lets two counters claim concurrently without ever
// receiving the same ticket.
func (r *repository) ClaimNext(ctx context.Context, stationID, counterID uuid.UUID, cashierUID string) (*Ticket, int, error) {
	var claimed *Ticket
	var counterNumber int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter stations.Counter
		err := forUpdate(tx).
			Where("id = ? AND station_id = ?", counterID, stationID).
			First(&counter).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return stations.ErrCounterNotFound
			}
			return fmt.Errorf("failed to lock counter: %w", err)
		}

		if counter.CashierUID == nil || *counter.CashierUID != cashierUID {
			return ErrCounterUnbound
		}
		if counter.IsServing() {
			return ErrCounterBusy
		}
		counterNumber = counter.Number

		var ticket Ticket
		err = oldestPendingForUpdate(tx, stationID).First(&ticket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoPendingTickets
			}
			return fmt.Errorf("failed to pick next ticket: %w", err)
		}

		err = tx.Model(&Ticket{}).
			Where("id = ?", ticket.ID).
			Updates(map[string]interface{}{
				"status":     StatusOngoing,
				"counter_id": counterID,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to mark ticket ongoing: %w", err)
		}

		err = tx.Model(&stations.Counter{}).
			Where("id = ?", counterID).
			Update("serving_ticket_id", ticket.ID).Error
		if err != nil {
			return fmt.Errorf("failed to bind ticket to counter: %w", err)
		}

		ticket.Status = StatusOngoing
		ticket.CounterID = &counterID
		claimed = &ticket
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	r.SetServingIndex(ctx, stationID, counterNumber, claimed.ID)
	return claimed, counterNumber, nil
}

// FinishServing moves an ongoing ticket to its final status and frees
// the counter. A second invocation for the same ticket fails because
// the counter binding is already cleared.
func (r *repository) FinishServing(ctx context.Context, ticketID string, stationID, counterID uuid.UUID, final Status) error {
	var counterNumber int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter stations.Counter
		err := forUpdate(tx).
			Where("id = ? AND station_id = ?", counterID, stationID).
			First(&counter).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return stations.ErrCounterNotFound
			}
			return fmt.Errorf("failed to lock counter: %w", err)
		}
		counterNumber = counter.Number

		if counter.ServingTicketID == nil || *counter.ServingTicketID != ticketID {
			return ErrTicketNotServing
		}

		var ticket Ticket
		if err := tx.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("failed to load ticket: %w", err)
		}

		if !CanTransition(ticket.Status, final) {
			return ErrTicketNotServing
		}

		err = tx.Model(&Ticket{}).
			Where("id = ?", ticketID).
			Update("status", final).Error
		if err != nil {
			return fmt.Errorf("failed to finalize ticket: %w", err)
		}

		err = tx.Model(&stations.Counter{}).
			Where("id = ?", counterID).
			Update("serving_ticket_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to clear counter binding: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.ClearServingIndex(ctx, stationID, counterNumber)
	return nil
}

// SetServingIndex records the counter->ticket pair in Redis. Best
// effort: the Postgres counter row is the source of truth and display
// reads fall back to it.
func (r *repository) SetServingIndex(ctx context.Context, stationID uuid.UUID, counterNumber int, ticketID string) {
	if r.redis == nil {
		return
	}
	key := constants.ServingIndexKey(stationID.String())
	pipe := r.redis.Pipeline()
	pipe.HSet(ctx, key, strconv.Itoa(counterNumber), ticketID)
	pipe.Expire(ctx, key, constants.TTLServingIndex)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("failed to update serving index", "station_id", stationID, "error", err)
	}
}

func (r *repository) ClearServingIndex(ctx context.Context, stationID uuid.UUID, counterNumber int) {
	if r.redis == nil {
		return
	}
	key := constants.ServingIndexKey(stationID.String())
	if err := r.redis.HDel(ctx, key, strconv.Itoa(counterNumber)).Err(); err != nil {
		slog.Warn("failed to clear serving index", "station_id", stationID, "error", err)
	}
}

// forUpdate pins the selected rows until the surrounding transaction
// ends. The lock must go through clause.Locking; the old
// "gorm:query_option" setting is silently ignored by GORM v2.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// oldestPendingForUpdate selects a station's next ticket in arrival
// order, skipping rows a concurrent claim already holds so two
// counters never pick the same ticket.
func oldestPendingForUpdate(tx *gorm.DB, stationID uuid.UUID) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("station_id = ? AND status = ?", stationID, StatusPending).
		Order("created_at ASC, id ASC")
}
