package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	subject, body := Digest([]string{"Acme", "Globex"}, "entreprises_pfe.xlsx")
	require.Equal(t, "2 new entries in the tracking sheet", subject)
	require.Equal(t, "The following entries were added to entreprises_pfe.xlsx:\n\n- Acme\n- Globex\n", body)

	subject, _ = Digest([]string{"Acme"}, "sheet.xlsx")
	require.Equal(t, "1 new entry in the tracking sheet", subject)
}

func TestConfigEnabled(t *testing.T) {
	require.False(t, Config{}.Enabled())
	require.False(t, Config{Smtp: SmtpConfig{Server: "smtp.example.com"}}.Enabled())
	require.True(t, Config{Smtp: SmtpConfig{Server: "smtp.example.com"}, To: []string{"me@example.com"}}.Enabled())
}

func TestMessage(t *testing.T) {
	mailer := NewMailer(Config{
		Smtp: SmtpConfig{Server: "smtp.example.com", Port: 587, EmailAddress: "bot@example.com"},
		To:   []string{"me@example.com"},
	}, "sheet.xlsx")

	raw, err := mailer.message([]string{"Acme"}).Bytes()
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), "Subject: 1 new entry in the tracking sheet"))
	require.True(t, strings.Contains(string(raw), "PFE tracker <bot@example.com>"))
}

func TestNotifyWithoutNames(t *testing.T) {
	mailer := NewMailer(Config{}, "sheet.xlsx")
	require.NoError(t, mailer.Notify(context.Background(), nil))
}
