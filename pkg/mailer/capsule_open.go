package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"
)

var capsuleOpenHTML = template.Must(template.New("capsule_open").Parse(`
<p>Hi {{.Username}},</p>
<p>Your time capsule #{{.CapsuleID}} unlocked on {{.DateOpen}}.</p>
<p>Log in to read it.</p>
`))

// SendCapsuleOpen emails the owner that a capsule has unlocked. It satisfies
// the notification worker's mail channel.
func (m *Mailgun) SendCapsuleOpen(ctx context.Context, to, username string, capsuleID int64, dateOpen time.Time) error {
	data := struct {
		Username  string
		CapsuleID int64
		DateOpen  string
	}{
		Username:  username,
		CapsuleID: capsuleID,
		DateOpen:  dateOpen.UTC().Format("02 January 2006, 15:04 MST"),
	}

	var html bytes.Buffer
	if err := capsuleOpenHTML.Execute(&html, data); err != nil {
		return err
	}
	subject := "Your time capsule is open"
	text := fmt.Sprintf("Hi %s, your time capsule #%d unlocked on %s. Log in to read it.", username, capsuleID, data.DateOpen)
	return m.Send(ctx, to, subject, text, html.String())
}
