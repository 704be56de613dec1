package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailService sends the transactional mails of the service.
type EmailService interface {
	SendNotificationEmail(toEmail, subject, body string) error
	SendPasswordResetEmail(toEmail, toName, token string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string // frontend base URL used in links
	// Timeout bounds the dial and the whole SMTP exchange. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout applies when SMTPConfig.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// EmailServiceImpl implements EmailService over net/smtp.
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

func (s *EmailServiceImpl) configured() bool {
	return s.config.Username != "" && s.config.Password != ""
}

// SendNotificationEmail sends a plain event update. Without SMTP credentials the mail is
// logged instead of sent.
func (s *EmailServiceImpl) SendNotificationEmail(toEmail, subject, body string) error {
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP credentials not configured - notification email not sent")
		return nil
	}

	htmlBody := fmt.Sprintf(`<html><body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<p>%s</p>
<p>You are receiving this because you RSVP'd "going". You can turn these emails off in your profile.</p>
</div>
</body></html>`, html.EscapeString(body))

	return s.sendHTMLEmail(toEmail, subject, htmlBody)
}

// SendPasswordResetEmail mails the reset link for token.
func (s *EmailServiceImpl) SendPasswordResetEmail(toEmail, toName, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.config.BaseURL, "/"), token)

	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("resetURL", resetURL).
			Msg("SMTP credentials not configured - password reset email not sent")
		return nil
	}

	body := fmt.Sprintf(`<html><body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #333;">Reset your Gatherly password</h2>
<p>Hello %s,</p>
<p>Follow the link below to choose a new password. The link expires in one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not request a reset, ignore this email.</p>
</div>
</body></html>`, html.EscapeString(toName), resetURL)

	return s.sendHTMLEmail(toEmail, "Reset your password", body)
}

// headerValue flattens CR and LF so a value cannot open a new header line.
func headerValue(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", headerValue(s.config.FromName)), headerValue(s.config.FromEmail))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(toEmail))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func (s *EmailServiceImpl) timeout() time.Duration {
	if s.config.Timeout > 0 {
		return s.config.Timeout
	}
	return DefaultTimeout
}

// sendHTMLEmail dials the relay and runs the whole SMTP exchange under one deadline.
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	message := s.buildMessage(toEmail, subject, htmlBody)
	serverAddress := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	timeout := s.timeout()
	dialer := &net.Dialer{Timeout: timeout}

	var (
		conn net.Conn
		err  error
	)
	if s.config.UseTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	} else {
		conn, err = dialer.Dial("tcp", serverAddress)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}

	if err := s.transmit(conn, toEmail, message); err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailServiceImpl) transmit(conn net.Conn, toEmail string, message []byte) error {
	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if !s.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish email message: %w", err)
	}
	return client.Quit()
}
