package auth

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// SMTPNotifier delivers mail through a plain SMTP relay. Sends are
// synchronous, callers decide whether a failed notification fails the
// whole operation.
type SMTPNotifier struct {
	host   string
	port   int
	user   string
	pass   string
	from   string
	logger Logger
	// send is swappable so tests can intercept the wire call.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier builds a Notifier from the mailer section of the config.
func NewSMTPNotifier(cfg Config, logger Logger) *SMTPNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &SMTPNotifier{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		user:   cfg.SMTPUser,
		pass:   cfg.SMTPPass,
		from:   cfg.SMTPFrom,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// Send delivers a plain-text message. It honors context cancellation up
// front; the SMTP dial itself is bounded by the handler deadline upstream.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before email send")
	default:
	}

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.pass, n.host)
	}

	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := n.send(addr, auth, n.from, []string{to}, []byte(msg)); err != nil {
		n.logger.Error("smtp send to %s failed: %v", to, err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send email")
	}

	n.logger.Debug("email sent to %s: %s", to, subject)
	return nil
}

// LoggerNotifier writes outbound mail to the log instead of the wire.
// Development fallback when no SMTP relay is configured.
type LoggerNotifier struct {
	logger Logger
}

var _ Notifier = (*LoggerNotifier)(nil)

func NewLoggerNotifier(logger Logger) *LoggerNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoggerNotifier{logger: logger}
}

func (n *LoggerNotifier) Send(_ context.Context, to, subject, body string) error {
	n.logger.Info("outbound email to %s [%s]\n%s", to, subject, body)
	return nil
}
