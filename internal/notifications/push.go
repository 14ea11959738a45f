package notifications

import (
	"context"
	"log/slog"
)

// PushSender delivers counter-terminal and mobile push messages.
// Delivery mechanics live with an external collaborator; this seam is
// where its client plugs in.
type PushSender interface {
	SendPush(ctx context.Context, notification *QueueNotification) error
}

// LogPushSender writes push notifications to the log. Used until a
// real push gateway is wired in and as the default in development.
type LogPushSender struct{}

func NewLogPushSender() *LogPushSender {
	return &LogPushSender{}
}

func (s *LogPushSender) SendPush(_ context.Context, notification *QueueNotification) error {
	slog.Info("push notification",
		"type", notification.Type,
		"ticket_id", notification.TicketID,
		"station_id", notification.StationID,
		"counter_number", notification.CounterNumber,
		"subject", notification.Subject,
	)
	return nil
}
