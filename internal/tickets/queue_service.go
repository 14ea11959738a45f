package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campusq/internal/shared/config"
	"campusq/internal/stations"
	"campusq/internal/tokens"
)

// Directory is the slice of the station directory the queue needs.
// Satisfied by stations.Repository.
type Directory interface {
	GetStation(ctx context.Context, id uuid.UUID) (*stations.Station, error)
	BumpVersion(ctx context.Context, stationID uuid.UUID) error
}

// Notifier receives queue events for customer-facing delivery.
// Satisfied by the notifications trigger service. All methods are
// fire-and-forget from the queue's perspective.
type Notifier interface {
	TicketCalled(ctx context.Context, ticketID, email string, stationID uuid.UUID, counterNumber int)
	CustomerLeft(ctx context.Context, ticketID string, stationID uuid.UUID, counterNumber int)
	QueueChanged(ctx context.Context, stationID uuid.UUID)
}

// PositionResult is what a queue-status token holder sees when polling
type PositionResult struct {
	TicketID string
	Status   Status
	// Position is the 1-based rank among pending tickets; zero when
	// the ticket is no longer waiting.
	Position int
}

// JoinResult carries the outcome of a successful queue join
type JoinResult struct {
	Ticket      *Ticket
	StatusToken string
}

// QueueService interface defines the customer-facing queue operations
type QueueService interface {
	Join(ctx context.Context, formTokenRaw, email string) (*JoinResult, error)
	Position(ctx context.Context, statusTokenRaw string) (*PositionResult, error)
	Leave(ctx context.Context, statusTokenRaw string) error
}

type queueService struct {
	repo      Repository
	directory Directory
	tokens    tokens.Service
	notifier  Notifier
	cfg       *config.Config
}

func NewQueueService(repo Repository, directory Directory, tokenService tokens.Service, notifier Notifier, cfg *config.Config) QueueService {
	return &queueService{
		repo:      repo,
		directory: directory,
		tokens:    tokenService,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// Join admits a customer to a station's queue. The queue-form token in
// hand authorizes exactly one submission; every precondition is checked
// before any state changes so a rejected join has no side effects.
func (s *queueService) Join(ctx context.Context, formTokenRaw, email string) (*JoinResult, error) {
	claims, err := s.tokens.Verify(ctx, formTokenRaw, tokens.TypeQueueForm)
	if err != nil {
		return nil, err
	}

	stationID, err := uuid.Parse(claims.StationID)
	if err != nil {
		return nil, tokens.ErrTokenInvalid
	}

	blacklisted, err := s.repo.IsBlacklisted(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("blacklist check failed: %w", err)
	}
	if blacklisted {
		return nil, ErrBlacklisted
	}

	station, err := s.directory.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !station.Activated {
		return nil, ErrStationInactive
	}

	live, err := s.repo.HasLiveTicket(ctx, email, stationID)
	if err != nil {
		return nil, fmt.Errorf("live ticket check failed: %w", err)
	}
	if live {
		return nil, ErrDuplicateTicket
	}

	ticket, err := s.repo.AllocateTicket(ctx, stationID, station.Purpose, email)
	if err != nil {
		return nil, err
	}

	// The form token is consumed only after the allocation committed.
	// If the process dies between the two, a resubmission is rejected
	// by the duplicate-ticket precondition, so the token cannot yield
	// a second ticket.
	if err := s.tokens.MarkUsed(ctx, formTokenRaw); err != nil {
		slog.Warn("failed to consume queue form token after allocation",
			"ticket_id", ticket.ID, "error", err)
	}

	statusToken, err := s.tokens.Issue(tokens.TypeQueueStatus, tokens.TokenClaims{
		TicketID:  ticket.ID,
		StationID: stationID.String(),
		Email:     email,
	}, s.statusTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to issue status token: %w", err)
	}

	if err := s.directory.BumpVersion(ctx, stationID); err != nil {
		slog.Warn("failed to bump station version", "station_id", stationID, "error", err)
	}

	if s.notifier != nil {
		s.notifier.QueueChanged(context.WithoutCancel(ctx), stationID)
	}

	return &JoinResult{Ticket: ticket, StatusToken: statusToken}, nil
}

// Position resolves a queue-status token to the ticket's current rank.
// The token is read-only and stays valid for repeated polling.
func (s *queueService) Position(ctx context.Context, statusTokenRaw string) (*PositionResult, error) {
	claims, err := s.tokens.Verify(ctx, statusTokenRaw, tokens.TypeQueueStatus)
	if err != nil {
		return nil, err
	}

	ticket, err := s.repo.GetTicket(ctx, claims.TicketID)
	if err != nil {
		return nil, err
	}

	result := &PositionResult{TicketID: ticket.ID, Status: ticket.Status}
	if ticket.Status == StatusPending {
		pos, err := s.repo.PendingPosition(ctx, ticket)
		if err != nil {
			return nil, err
		}
		result.Position = pos
	}

	return result, nil
}

// Leave withdraws the customer's ticket. Allowed from pending and from
// ongoing; the status token is invalidated so the exit is final. When
// an ongoing ticket is abandoned the serving counter is freed and its
// cashier is told the customer left.
func (s *queueService) Leave(ctx context.Context, statusTokenRaw string) error {
	claims, err := s.tokens.Verify(ctx, statusTokenRaw, tokens.TypeQueueStatus)
	if err != nil {
		return err
	}

	prior, counterNumber, err := s.repo.ReleaseTicket(ctx, claims.TicketID)
	if err != nil {
		return err
	}

	if err := s.tokens.MarkUsed(ctx, statusTokenRaw); err != nil {
		slog.Warn("failed to invalidate status token on leave",
			"ticket_id", claims.TicketID, "error", err)
	}

	if err := s.directory.BumpVersion(ctx, prior.StationID); err != nil {
		slog.Warn("failed to bump station version", "station_id", prior.StationID, "error", err)
	}

	if s.notifier != nil {
		bg := context.WithoutCancel(ctx)
		if prior.Status == StatusOngoing && counterNumber != nil {
			s.notifier.CustomerLeft(bg, prior.ID, prior.StationID, *counterNumber)
		}
		s.notifier.QueueChanged(bg, prior.StationID)
	}

	return nil
}

func (s *queueService) statusTokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.Tokens.QueueStatusTTL > 0 {
		return s.cfg.Tokens.QueueStatusTTL
	}
	return 8 * time.Hour
}

// IsPreconditionError reports whether a join failure is one of the
// customer-attributable rejections rather than a store fault.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrBlacklisted) ||
		errors.Is(err, ErrStationInactive) ||
		errors.Is(err, ErrDuplicateTicket)
}
