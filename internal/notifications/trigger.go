package notifications

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"campusq/internal/tickets"
)

// TicketSource exposes the slice of the queue ledger the trigger
// needs. Satisfied by tickets.Repository.
type TicketSource interface {
	ListPending(ctx context.Context, stationID uuid.UUID, limit int) ([]tickets.Ticket, error)
}

// TriggerService decides who gets notified when a queue changes shape.
// It satisfies the queue's Notifier seam; publish failures are logged
// and swallowed so delivery trouble never fails a queue operation.
type TriggerService interface {
	// CheckAndNotify recomputes the station's front window and sends
	// almost-your-turn notifications to tickets that newly entered it.
	// Returns how many notifications were dispatched.
	CheckAndNotify(ctx context.Context, stationID uuid.UUID) (int, error)

	// Notifier seam for the queue and serving services
	TicketCalled(ctx context.Context, ticketID, email string, stationID uuid.UUID, counterNumber int)
	CustomerLeft(ctx context.Context, ticketID string, stationID uuid.UUID, counterNumber int)
	QueueChanged(ctx context.Context, stationID uuid.UUID)
}

type triggerService struct {
	source    TicketSource
	notified  NotifiedStore
	producer  NotificationProducer
	threshold int
}

// NewTriggerService creates the notification trigger. threshold is the
// size of the front window that earns an almost-your-turn notification.
func NewTriggerService(source TicketSource, notified NotifiedStore, producer NotificationProducer, threshold int) TriggerService {
	if threshold <= 0 {
		threshold = 4
	}
	return &triggerService{
		source:    source,
		notified:  notified,
		producer:  producer,
		threshold: threshold,
	}
}

func (s *triggerService) CheckAndNotify(ctx context.Context, stationID uuid.UUID) (int, error) {
	front, err := s.source.ListPending(ctx, stationID, s.threshold)
	if err != nil {
		return 0, err
	}

	already, err := s.notified.Members(ctx, stationID)
	if err != nil {
		// Without the set we cannot tell who is new; notifying everyone
		// again would spam, so skip this round.
		slog.Warn("notified set unavailable, skipping round", "station_id", stationID, "error", err)
		return 0, err
	}

	var batch []*QueueNotification
	currentIDs := make([]string, 0, len(front))
	for _, ticket := range front {
		currentIDs = append(currentIDs, ticket.ID)
		if already[ticket.ID] {
			continue
		}

		n := NewQueueNotification(NotificationTypeAlmostTurn, ticket.ID, stationID)
		n.RecipientEmail = ticket.Email
		n.TemplateData["ticket_id"] = ticket.ID
		batch = append(batch, n)
	}

	sent := 0
	if len(batch) > 0 && s.producer != nil {
		if err := s.producer.PublishBatchNotifications(ctx, batch); err != nil {
			slog.Error("failed to publish almost-turn notifications", "station_id", stationID, "error", err)
		} else {
			sent = len(batch)
		}
	}

	// Overwrite regardless of dispatch outcome: a failed publish is not
	// retried against the same customers next round.
	if err := s.notified.Replace(ctx, stationID, currentIDs); err != nil {
		slog.Warn("failed to update notified set", "station_id", stationID, "error", err)
	}

	return sent, nil
}

func (s *triggerService) TicketCalled(ctx context.Context, ticketID, email string, stationID uuid.UUID, counterNumber int) {
	n := NewQueueNotification(NotificationTypeTicketCalled, ticketID, stationID)
	n.RecipientEmail = email
	n.CounterNumber = counterNumber
	n.TemplateData["ticket_id"] = ticketID
	n.TemplateData["counter_number"] = counterNumber

	s.publish(ctx, n)
}

func (s *triggerService) CustomerLeft(ctx context.Context, ticketID string, stationID uuid.UUID, counterNumber int) {
	n := NewQueueNotification(NotificationTypeCustomerLeft, ticketID, stationID)
	n.CounterNumber = counterNumber
	n.TemplateData["ticket_id"] = ticketID
	n.TemplateData["counter_number"] = counterNumber

	s.publish(ctx, n)
}

// QueueChanged reruns the front-window check off the request path: the
// dispatch goes through a synchronous producer, and a slow broker must
// never stall the join or claim that moved the queue.
func (s *triggerService) QueueChanged(ctx context.Context, stationID uuid.UUID) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := s.CheckAndNotify(bg, stationID); err != nil {
			slog.Warn("front-window recheck failed", "station_id", stationID, "error", err)
		}
	}()
}

func (s *triggerService) publish(ctx context.Context, n *QueueNotification) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishNotification(ctx, n); err != nil {
		slog.Error("failed to publish notification",
			"type", n.Type, "ticket_id", n.TicketID, "error", err)
	}
}
