// Package notify delivers owner notifications over email (SMTP) and SMS
// (Twilio). Either transport may be left unconfigured; the service then
// logs and skips that channel instead of failing.
package notify

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMTPConfig configures the email transport.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// TwilioConfig configures the SMS transport.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Service sends owner notifications. Construct with NewService; nil-safe
// transports are handled internally.
type Service struct {
	smtp    *SMTPConfig
	twilio  *twilio.RestClient
	smsFrom string
}

// NewService builds a notifier from whichever transports are configured.
// An empty SMTP host disables email; empty Twilio credentials disable SMS.
func NewService(smtpCfg SMTPConfig, twilioCfg TwilioConfig) *Service {
	s := &Service{}

	if smtpCfg.Host != "" {
		s.smtp = &smtpCfg
		log.Printf("Email notifications enabled via %s:%s", smtpCfg.Host, smtpCfg.Port)
	} else {
		log.Printf("SMTP_HOST not set, email notifications disabled")
	}

	if twilioCfg.AccountSID != "" && twilioCfg.AuthToken != "" {
		s.twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: twilioCfg.AccountSID,
			Password: twilioCfg.AuthToken,
		})
		s.smsFrom = twilioCfg.From
		log.Printf("SMS notifications enabled")
	} else {
		log.Printf("Twilio credentials not set, SMS notifications disabled")
	}

	return s
}

// SendEmail delivers an email notification. No-op when email is disabled.
func (s *Service) SendEmail(to, subject, body string) error {
	if s.smtp == nil {
		log.Printf("Email disabled, skipping notification to %s", to)
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.smtp.From, to, subject, body))

	addr := s.smtp.Host + ":" + s.smtp.Port
	var auth smtp.Auth
	if s.smtp.Username != "" {
		auth = smtp.PlainAuth("", s.smtp.Username, s.smtp.Password, s.smtp.Host)
	}

	if err := smtp.SendMail(addr, auth, s.smtp.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("Sent email notification to %s", to)
	return nil
}

// SendSMS delivers an SMS notification. No-op when SMS is disabled.
func (s *Service) SendSMS(to, body string) error {
	if s.twilio == nil {
		log.Printf("SMS disabled, skipping notification to %s", to)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.smsFrom)
	params.SetBody(body)

	if _, err := s.twilio.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}

	log.Printf("Sent SMS notification to %s", to)
	return nil
}
