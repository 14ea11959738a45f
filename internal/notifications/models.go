package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	// NotificationTypeTicketCalled tells a customer their ticket is now
	// being served and at which counter.
	NotificationTypeTicketCalled NotificationType = "TICKET_CALLED"

	// NotificationTypeAlmostTurn tells a customer they entered the
	// front of the line and should head to the station.
	NotificationTypeAlmostTurn NotificationType = "ALMOST_TURN"

	// NotificationTypeCustomerLeft tells a cashier the customer they
	// were serving abandoned the ticket.
	NotificationTypeCustomerLeft NotificationType = "CUSTOMER_LEFT"
)

type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "EMAIL"
	NotificationChannelPush  NotificationChannel = "PUSH"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityMedium NotificationPriority = "MEDIUM"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusQueued  NotificationStatus = "QUEUED"
	NotificationStatusSending NotificationStatus = "SENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// QueueNotification is the message that travels through Kafka from the
// trigger side to the delivery workers.
type QueueNotification struct {
	ID       uuid.UUID            `json:"id"`
	Type     NotificationType     `json:"type"`
	Priority NotificationPriority `json:"priority"`
	Channels []NotificationChannel `json:"channels"`

	// Recipient: the customer's email for ticket notifications, empty
	// for counter-directed messages.
	RecipientEmail string `json:"recipient_email,omitempty"`

	// Queue context
	TicketID      string    `json:"ticket_id"`
	StationID     uuid.UUID `json:"station_id"`
	CounterNumber int       `json:"counter_number,omitempty"`

	Subject      string                 `json:"subject"`
	TemplateData map[string]interface{} `json:"template_data"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Status     NotificationStatus `json:"status"`
	RetryCount int                `json:"retry_count"`
	MaxRetries int                `json:"max_retries"`
	LastError  *string            `json:"last_error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	SentAt     *time.Time         `json:"sent_at,omitempty"`
}

// NewQueueNotification builds a notification with sensible defaults
func NewQueueNotification(notType NotificationType, ticketID string, stationID uuid.UUID) *QueueNotification {
	now := time.Now()
	return &QueueNotification{
		ID:           uuid.New(),
		Type:         notType,
		Priority:     GetDefaultPriority(notType),
		Channels:     GetDefaultChannels(notType),
		TicketID:     ticketID,
		StationID:    stationID,
		Subject:      defaultSubject(notType, ticketID),
		TemplateData: make(map[string]interface{}),
		Status:       NotificationStatusPending,
		MaxRetries:   3,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func GetDefaultPriority(notType NotificationType) NotificationPriority {
	switch notType {
	case NotificationTypeTicketCalled:
		return NotificationPriorityHigh
	case NotificationTypeAlmostTurn:
		return NotificationPriorityMedium
	case NotificationTypeCustomerLeft:
		return NotificationPriorityLow
	default:
		return NotificationPriorityMedium
	}
}

func GetDefaultChannels(notType NotificationType) []NotificationChannel {
	switch notType {
	case NotificationTypeCustomerLeft:
		// Counter-directed; cashiers see these on their terminal
		return []NotificationChannel{NotificationChannelPush}
	default:
		return []NotificationChannel{NotificationChannelEmail, NotificationChannelPush}
	}
}

func defaultSubject(notType NotificationType, ticketID string) string {
	switch notType {
	case NotificationTypeTicketCalled:
		return "Ticket " + ticketID + " is now being served"
	case NotificationTypeAlmostTurn:
		return "Ticket " + ticketID + ": almost your turn"
	case NotificationTypeCustomerLeft:
		return "Customer for ticket " + ticketID + " left the queue"
	default:
		return "Queue update for ticket " + ticketID
	}
}

// GetPartitionKey routes all notifications for one recipient through
// the same partition, preserving per-customer ordering.
func (n *QueueNotification) GetPartitionKey() string {
	if n.RecipientEmail != "" {
		return n.RecipientEmail
	}
	return n.StationID.String()
}

func (n *QueueNotification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

func (n *QueueNotification) IsExpired() bool {
	return n.ExpiresAt != nil && time.Now().After(*n.ExpiresAt)
}

func (n *QueueNotification) HasChannel(ch NotificationChannel) bool {
	for _, c := range n.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

func (n *QueueNotification) MarkSent() {
	now := time.Now()
	n.Status = NotificationStatusSent
	n.SentAt = &now
	n.UpdatedAt = now
}

func (n *QueueNotification) MarkFailed(err error) {
	n.Status = NotificationStatusFailed
	n.UpdatedAt = time.Now()
	errorStr := err.Error()
	n.LastError = &errorStr
}
