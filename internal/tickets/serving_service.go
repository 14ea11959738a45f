package tickets

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ClaimResult is what a cashier gets back when claiming the next ticket
type ClaimResult struct {
	Ticket        *Ticket
	CounterNumber int
}

// ServingService interface defines the cashier-facing serving operations
type ServingService interface {
	Claim(ctx context.Context, stationID, counterID uuid.UUID, cashierUID string) (*ClaimResult, error)
	Complete(ctx context.Context, ticketID string, stationID, counterID uuid.UUID) error
	Skip(ctx context.Context, ticketID string, stationID, counterID uuid.UUID) error
}

type servingService struct {
	repo      Repository
	directory Directory
	notifier  Notifier
}

func NewServingService(repo Repository, directory Directory, notifier Notifier) ServingService {
	return &servingService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
	}
}

// Claim pulls the oldest pending ticket onto the cashier's counter.
// The counter must be idle; a busy counter must complete or skip its
// current ticket first.
func (s *servingService) Claim(ctx context.Context, stationID, counterID uuid.UUID, cashierUID string) (*ClaimResult, error) {
	claimed, counterNumber, err := s.repo.ClaimNext(ctx, stationID, counterID, cashierUID)
	if err != nil {
		return nil, err
	}

	if err := s.directory.BumpVersion(ctx, stationID); err != nil {
		slog.Warn("failed to bump station version", "station_id", stationID, "error", err)
	}

	if s.notifier != nil {
		bg := context.WithoutCancel(ctx)
		s.notifier.TicketCalled(bg, claimed.ID, claimed.Email, stationID, counterNumber)
		// The front of the line moved; the next customers may now be
		// within notification range.
		s.notifier.QueueChanged(bg, stationID)
	}

	return &ClaimResult{Ticket: claimed, CounterNumber: counterNumber}, nil
}

// Complete finishes the ticket successfully and frees the counter
func (s *servingService) Complete(ctx context.Context, ticketID string, stationID, counterID uuid.UUID) error {
	return s.finish(ctx, ticketID, stationID, counterID, StatusComplete)
}

// Skip marks the ticket unsuccessful, for customers who were called
// but never showed up, and frees the counter.
func (s *servingService) Skip(ctx context.Context, ticketID string, stationID, counterID uuid.UUID) error {
	return s.finish(ctx, ticketID, stationID, counterID, StatusUnsuccessful)
}

func (s *servingService) finish(ctx context.Context, ticketID string, stationID, counterID uuid.UUID, final Status) error {
	if err := s.repo.FinishServing(ctx, ticketID, stationID, counterID, final); err != nil {
		return err
	}

	if err := s.directory.BumpVersion(ctx, stationID); err != nil {
		slog.Warn("failed to bump station version", "station_id", stationID, "error", err)
	}

	return nil
}
