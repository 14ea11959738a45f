package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// NotificationProducer interface defines the contract for publishing notifications
type NotificationProducer interface {
	PublishNotification(ctx context.Context, notification *QueueNotification) error
	PublishBatchNotifications(ctx context.Context, notifications []*QueueNotification) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka notification producer
type KafkaProducerConfig struct {
	Brokers           []string
	NotificationTopic string
	RetryMax          int
	TimeoutMs         int
	RequiredAcks      sarama.RequiredAcks
	CompressionType   sarama.CompressionCodec
	IdempotentWrites  bool
	MaxMessageBytes   int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:           []string{"localhost:9092"},
		NotificationTopic: "queue-notifications",
		RetryMax:          3,
		TimeoutMs:         10000,             // 10 seconds
		RequiredAcks:      sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:   sarama.CompressionSnappy,
		IdempotentWrites:  true,
		MaxMessageBytes:   1000000, // 1MB
	}
}

// KafkaNotificationProducer handles publishing notifications to Kafka
type KafkaNotificationProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

// NewKafkaNotificationProducer creates a new Kafka notification producer
func NewKafkaNotificationProducer(config *KafkaProducerConfig) (NotificationProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one recipient's notifications ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("Kafka notification producer created")
	return &KafkaNotificationProducer{
		producer: producer,
		config:   config,
	}, nil
}

// PublishNotification publishes a single notification to Kafka
func (knp *KafkaNotificationProducer) PublishNotification(ctx context.Context, notification *QueueNotification) error {
	notification.Status = NotificationStatusQueued
	notification.UpdatedAt = time.Now()

	messageBytes, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     knp.config.NotificationTopic,
		Key:       sarama.StringEncoder(notification.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   knp.createHeaders(notification),
		Timestamp: notification.CreatedAt,
	}

	partition, offset, err := knp.producer.SendMessage(message)
	if err != nil {
		notification.MarkFailed(err)
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	log.Printf("Notification published - Topic: %s, Partition: %d, Offset: %d, Type: %s, Ticket: %s",
		knp.config.NotificationTopic, partition, offset, notification.Type, notification.TicketID)

	return nil
}

// PublishBatchNotifications publishes multiple notifications in one round trip
func (knp *KafkaNotificationProducer) PublishBatchNotifications(ctx context.Context, notifications []*QueueNotification) error {
	if len(notifications) == 0 {
		return nil
	}

	messages := make([]*sarama.ProducerMessage, 0, len(notifications))
	for _, notification := range notifications {
		notification.Status = NotificationStatusQueued
		notification.UpdatedAt = time.Now()

		messageBytes, err := notification.ToJSON()
		if err != nil {
			log.Printf("Failed to marshal notification for ticket %s: %v", notification.TicketID, err)
			continue
		}

		messages = append(messages, &sarama.ProducerMessage{
			Topic:     knp.config.NotificationTopic,
			Key:       sarama.StringEncoder(notification.GetPartitionKey()),
			Value:     sarama.ByteEncoder(messageBytes),
			Headers:   knp.createHeaders(notification),
			Timestamp: notification.CreatedAt,
		})
	}

	if err := knp.producer.SendMessages(messages); err != nil {
		for _, notification := range notifications {
			notification.MarkFailed(err)
		}
		return fmt.Errorf("failed to send batch notifications to Kafka: %w", err)
	}

	log.Printf("Batch of %d notifications published to topic %s", len(messages), knp.config.NotificationTopic)
	return nil
}

// createHeaders creates Kafka headers for notifications
func (knp *KafkaNotificationProducer) createHeaders(notification *QueueNotification) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("notification_id"), Value: []byte(notification.ID.String())},
		{Key: []byte("notification_type"), Value: []byte(notification.Type)},
		{Key: []byte("priority"), Value: []byte(notification.Priority)},
		{Key: []byte("ticket_id"), Value: []byte(notification.TicketID)},
		{Key: []byte("station_id"), Value: []byte(notification.StationID.String())},
		{Key: []byte("channels"), Value: []byte(knp.formatChannels(notification.Channels))},
		{Key: []byte("producer"), Value: []byte("campusq-notifications")},
		{Key: []byte("created_at"), Value: []byte(notification.CreatedAt.Format(time.RFC3339))},
	}

	if notification.RecipientEmail != "" {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("recipient_email"),
			Value: []byte(notification.RecipientEmail),
		})
	}

	if notification.ExpiresAt != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("expires_at"),
			Value: []byte(notification.ExpiresAt.Format(time.RFC3339)),
		})
	}

	return headers
}

// formatChannels formats notification channels for headers
func (knp *KafkaNotificationProducer) formatChannels(channels []NotificationChannel) string {
	if len(channels) == 0 {
		return string(NotificationChannelEmail)
	}

	result := string(channels[0])
	for i := 1; i < len(channels); i++ {
		result += "," + string(channels[i])
	}
	return result
}

// Close closes the Kafka producer
func (knp *KafkaNotificationProducer) Close() error {
	if knp.producer != nil {
		if err := knp.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
		log.Printf("Kafka notification producer closed")
	}
	return nil
}

// HealthCheck performs a health check on the Kafka producer
func (knp *KafkaNotificationProducer) HealthCheck(ctx context.Context) error {
	if knp.producer == nil {
		return fmt.Errorf("health check failed - producer is nil")
	}
	if knp.config.NotificationTopic == "" {
		return fmt.Errorf("health check failed - notification topic not configured")
	}
	return nil
}
