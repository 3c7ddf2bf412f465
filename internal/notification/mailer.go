package notification

import (
	"fmt"
	"net/smtp"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
)

// SMTPMailer sends plain-text mail through an SMTP relay
type SMTPMailer struct {
	config *config.SMTPConfig
	logger *logger.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg *config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		logger: log,
	}
}

// Send delivers one message. With delivery disabled in config the
// message is logged instead, which keeps local development offline.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if !m.config.Enabled {
		m.logger.WithFields(map[string]interface{}{
			"to":      to,
			"subject": subject,
		}).Info("Mail delivery disabled, message logged only")
		return nil
	}

	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.config.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}
