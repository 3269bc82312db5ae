package resend

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/brk3/habitboard/internal/nudge"
	"github.com/resend/resend-go/v2"
)

const defaultFrom = "onboarding@resend.dev"

var emailTemplate = template.Must(template.New("email").Parse(`
<p>Time for your habits:</p>
<ul>
{{range .}}
  <li><strong>{{.Name}}</strong> (reminder {{.ReminderTime}}){{if gt .CurrentStreak 0}}, {{.CurrentStreak}} day streak on the line{{end}}</li>
{{end}}
</ul>
`))

type ResendNotifier struct {
	ApiKey string
	Email  string
	From   string
}

var _ nudge.Notifier = (*ResendNotifier)(nil)

func (r *ResendNotifier) SendNudge(ctx context.Context, reminders []nudge.Reminder) error {
	html, err := renderEmail(reminders)
	if err != nil {
		return err
	}

	from := r.From
	if from == "" {
		from = defaultFrom
	}
	client := resend.NewClient(r.ApiKey)
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{r.Email},
		Subject: subject(reminders),
		Html:    html,
	}
	_, err = client.Emails.SendWithContext(ctx, params)
	return err
}

func renderEmail(reminders []nudge.Reminder) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, reminders); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func subject(reminders []nudge.Reminder) string {
	if len(reminders) == 1 {
		return fmt.Sprintf("Reminder: %s", reminders[0].Name)
	}
	return fmt.Sprintf("Reminder: %d habits due", len(reminders))
}
