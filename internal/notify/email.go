package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"time"

	"github.com/devanshc/weather-monitoring/internal/config"
)

// EmailNotifier delivers alert messages over SMTP. When the SMTP credentials
// are not configured it logs the message and reports success, so alerting
// still works in development without a mail account.
type EmailNotifier struct {
	cfg config.SMTPConfig
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (e *EmailNotifier) Send(ctx context.Context, subject, body string) error {
	if e.cfg.Username == "" || e.cfg.Password == "" {
		log.Printf("notify: SMTP not configured, skipping email %q", subject)
		return nil
	}
	if e.cfg.To == "" {
		return fmt.Errorf("no recipient configured for email %q", subject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := fmt.Sprintf("From: %s\r\n", e.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", e.cfg.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{e.cfg.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("notify: email sent: %s", subject)
	return nil
}
