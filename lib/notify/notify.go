package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"pfetracker/lib/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("pfetracker.lib.notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
}

func (c Config) Enabled() bool {
	return c.Smtp.Server != "" && len(c.To) > 0
}

// Digest renders the subject and plain text body announcing newly
// tracked names.
func Digest(names []string, sheet string) (subject string, body string) {
	if len(names) == 1 {
		subject = "1 new entry in the tracking sheet"
	} else {
		subject = fmt.Sprintf("%d new entries in the tracking sheet", len(names))
	}

	var out strings.Builder
	fmt.Fprintf(&out, "The following entries were added to %s:\n\n", sheet)
	for _, name := range names {
		fmt.Fprintf(&out, "- %s\n", name)
	}
	return subject, out.String()
}

type Mailer struct {
	config Config
	sheet  string
}

func NewMailer(config Config, sheet string) Mailer {
	return Mailer{config: config, sheet: sheet}
}

func (m Mailer) message(names []string) *email.Email {
	subject, body := Digest(names, m.sheet)
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("PFE tracker <%s>", m.config.Smtp.EmailAddress)
	mail.To = m.config.To
	mail.Subject = subject
	mail.Text = []byte(body)
	return mail
}

// Notify mails the digest for `names`, it does nothing when there are no
// names.
func (m Mailer) Notify(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	_, span := tracer.Start(ctx, "Notify")
	defer span.End()
	span.SetAttributes(attribute.Int("names", len(names)))

	mail := m.message(names)
	addr := fmt.Sprintf("%s:%d", m.config.Smtp.Server, m.config.Smtp.Port)

	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.Smtp.EmailAddress, m.config.Smtp.Password, m.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
