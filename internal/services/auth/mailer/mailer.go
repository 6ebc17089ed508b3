// Package mailer delivers account lifecycle email. Delivery is best-effort:
// callers log failures and decide whether to surface them, but never roll
// back persisted account state because a message did not send.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/linkedfishers/backend/internal/platform/timeouts"
)

// Mailer sends account lifecycle messages.
type Mailer interface {
	// SendActivation delivers the account activation link.
	SendActivation(ctx context.Context, email, displayName, confirmationToken string) error
	// SendPasswordReset delivers the password reset link.
	SendPasswordReset(ctx context.Context, email, displayName, resetToken string) error
}

// smtpEnv holds raw env values before post-parse validation.
type smtpEnv struct {
	Host     string `env:"LINKEDFISHERS_SMTP_HOST"`
	Port     int    `env:"LINKEDFISHERS_SMTP_PORT" envDefault:"587"`
	Username string `env:"LINKEDFISHERS_SMTP_USERNAME"`
	Password string `env:"LINKEDFISHERS_SMTP_PASSWORD"`
	From     string `env:"LINKEDFISHERS_SMTP_FROM"`
	SiteURL  string `env:"LINKEDFISHERS_SITE_URL" envDefault:"https://linkedfishers.com"`
}

// SMTPMailer sends lifecycle mail through a single SMTP relay.
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	siteURL string
}

// NewSMTPMailerFromEnv reads SMTP relay configuration from the environment.
// It returns nil (and no error) when no host is configured so callers can
// fall back to a LogMailer in development.
func NewSMTPMailerFromEnv() (*SMTPMailer, error) {
	var raw smtpEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse smtp env: %w", err)
	}
	host := strings.TrimSpace(raw.Host)
	if host == "" {
		return nil, nil
	}
	from := strings.TrimSpace(raw.From)
	if from == "" {
		return nil, fmt.Errorf("LINKEDFISHERS_SMTP_FROM is required")
	}

	var auth smtp.Auth
	if username := strings.TrimSpace(raw.Username); username != "" {
		auth = smtp.PlainAuth("", username, raw.Password, host)
	}
	return &SMTPMailer{
		addr:    fmt.Sprintf("%s:%d", host, raw.Port),
		auth:    auth,
		from:    from,
		siteURL: strings.TrimRight(strings.TrimSpace(raw.SiteURL), "/"),
	}, nil
}

// SendActivation implements Mailer.
func (m *SMTPMailer) SendActivation(ctx context.Context, email, displayName, confirmationToken string) error {
	link := m.siteURL + "/activate/" + confirmationToken
	subject := "Activate your LinkedFishers account"
	body := fmt.Sprintf("Hi %s,\r\n\r\nConfirm your account by visiting:\r\n%s\r\n", displayName, link)
	return m.send(ctx, email, subject, body)
}

// SendPasswordReset implements Mailer.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, displayName, resetToken string) error {
	link := m.siteURL + "/reset-password/" + resetToken
	subject := "Reset your LinkedFishers password"
	body := fmt.Sprintf("Hi %s,\r\n\r\nReset your password by visiting:\r\n%s\r\n\r\nThe link expires in 24 hours.\r\n", displayName, link)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if m == nil || m.addr == "" {
		return fmt.Errorf("smtp mailer is not configured")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("recipient email is required")
	}

	dialer := net.Dialer{Timeout: timeouts.MailSend}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("dial smtp relay: %w", err)
	}
	defer conn.Close()
	// One deadline bounds the whole SMTP conversation.
	if err := conn.SetDeadline(time.Now().Add(timeouts.MailSend)); err != nil {
		return fmt.Errorf("bound smtp conversation: %w", err)
	}

	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("split smtp addr: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("greet smtp relay: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("start tls: %w", err)
		}
	}
	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return fmt.Errorf("authenticate to relay: %w", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	message := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("open message body: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return client.Quit()
}

// LogMailer writes lifecycle links to the process log instead of sending
// mail. Used in development and in tests.
type LogMailer struct {
	SiteURL string
}

// SendActivation implements Mailer.
func (m *LogMailer) SendActivation(ctx context.Context, email, displayName, confirmationToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("activation link for %s <%s>: %s/activate/%s", displayName, email, m.site(), confirmationToken)
	return nil
}

// SendPasswordReset implements Mailer.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, displayName, resetToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("password reset link for %s <%s>: %s/reset-password/%s", displayName, email, m.site(), resetToken)
	return nil
}

func (m *LogMailer) site() string {
	if m == nil || strings.TrimSpace(m.SiteURL) == "" {
		return "https://linkedfishers.com"
	}
	return strings.TrimRight(strings.TrimSpace(m.SiteURL), "/")
}
