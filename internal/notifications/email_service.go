package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strconv"
	"time"
)

// EmailSender interface for sending queue notification emails
type EmailSender interface {
	SendNotification(ctx context.Context, notification *QueueNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
	Timeout   time.Duration
}

// SMTPEmailSender is a real SMTP implementation of the EmailSender interface
type SMTPEmailSender struct {
	config    *SMTPConfig
	templates map[string]*template.Template
}

// NewSMTPEmailSender creates a new SMTP email sender
func NewSMTPEmailSender(config *SMTPConfig) (*SMTPEmailSender, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	return &SMTPEmailSender{
		config:    config,
		templates: make(map[string]*template.Template),
	}, nil
}

// validateSMTPConfig validates SMTP configuration
func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SendNotification sends a queue notification via email
func (s *SMTPEmailSender) SendNotification(ctx context.Context, notification *QueueNotification) error {
	if notification.RecipientEmail == "" {
		return fmt.Errorf("notification has no recipient email")
	}

	htmlBody, textBody, err := s.generateContent(notification)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}

	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

// SendHTML sends an HTML email
func (s *SMTPEmailSender) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := s.buildMessage(to, subject, htmlBody, textBody)

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("[SMTP] Email sent to %s", to)
	return nil
}

// sendWithSTARTTLS sends email with STARTTLS encryption
func (s *SMTPEmailSender) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         s.config.Host,
	}

	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return w.Close()
}

// buildMessage creates the email message with proper headers
func (s *SMTPEmailSender) buildMessage(to, subject, htmlBody, textBody string) []byte {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Date"] = time.Now().Format(time.RFC1123Z)

	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n"

	if textBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/plain; charset=UTF-8\r\n"
		message += "\r\n"
		message += textBody + "\r\n"
	}

	if htmlBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/html; charset=UTF-8\r\n"
		message += "\r\n"
		message += htmlBody + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)

	return []byte(message)
}

// generateContent generates email content from notification data
func (s *SMTPEmailSender) generateContent(notification *QueueNotification) (string, string, error) {
	if tmpl, exists := s.templates[string(notification.Type)]; exists {
		var htmlBuf, textBuf bytes.Buffer

		if err := tmpl.ExecuteTemplate(&htmlBuf, "html", notification.TemplateData); err != nil {
			return "", "", err
		}
		tmpl.ExecuteTemplate(&textBuf, "text", notification.TemplateData)

		return htmlBuf.String(), textBuf.String(), nil
	}

	return s.generateDefaultContent(notification)
}

// generateDefaultContent creates default email content for queue notification types
func (s *SMTPEmailSender) generateDefaultContent(notification *QueueNotification) (string, string, error) {
	switch notification.Type {
	case NotificationTypeTicketCalled:
		htmlBody := fmt.Sprintf(`
			<h2>Your ticket is being served</h2>
			<p>Ticket <strong>%s</strong> is now being called.</p>
			<p>Please proceed to counter <strong>%d</strong>.</p>
			<p>If you do not show up, the cashier may skip your ticket.</p>
		`,
			notification.TicketID,
			notification.CounterNumber,
		)

		textBody := fmt.Sprintf(
			"Ticket %s is now being called.\nPlease proceed to counter %d.\nIf you do not show up, the cashier may skip your ticket.",
			notification.TicketID,
			notification.CounterNumber,
		)

		return htmlBody, textBody, nil

	case NotificationTypeAlmostTurn:
		htmlBody := fmt.Sprintf(`
			<h2>Almost your turn</h2>
			<p>Ticket <strong>%s</strong> is near the front of the line.</p>
			<p>Please head to the station so you are ready when called.</p>
		`,
			notification.TicketID,
		)

		textBody := fmt.Sprintf(
			"Ticket %s is near the front of the line.\nPlease head to the station so you are ready when called.",
			notification.TicketID,
		)

		return htmlBody, textBody, nil

	default:
		htmlBody := fmt.Sprintf(`
			<h2>%s</h2>
			<p>This is an update about ticket %s.</p>
		`,
			notification.Subject,
			notification.TicketID,
		)

		textBody := fmt.Sprintf("%s\n\nThis is an update about ticket %s.",
			notification.Subject, notification.TicketID)

		return htmlBody, textBody, nil
	}
}

// MockEmailSender logs instead of sending, for development and tests
type MockEmailSender struct{}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

func (s *MockEmailSender) SendNotification(ctx context.Context, notification *QueueNotification) error {
	log.Printf("[MOCK] Sending %s notification to %s for ticket %s",
		notification.Type,
		notification.RecipientEmail,
		notification.TicketID,
	)
	return nil
}

func (s *MockEmailSender) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	log.Printf("[MOCK] To: %s, Subject: %s", to, subject)
	return nil
}
