package mailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/go-user-relations/pkg/mailer/templates"
)

// Template names understood by the email worker.
const (
	TemplateWelcome = "welcome"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (+ Data) or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// WithDefaults fills data keys the templates expect but the publisher may omit.
func (j *EmailJob) WithDefaults(defaults map[string]any) {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	for k, v := range defaults {
		if cur, ok := j.Data[k]; !ok || cur == nil || cur == "" {
			j.Data[k] = v
		}
	}
	if _, ok := j.Data["Email"]; !ok {
		j.Data["Email"] = j.To
	}
}

// Message is a fully rendered email ready to hand to a sender.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Compose renders the job's template, or passes its raw subject and bodies through.
func (j EmailJob) Compose() (Message, error) {
	if strings.TrimSpace(j.To) == "" {
		return Message{}, errors.New("email job has no recipient")
	}
	msg := Message{To: j.To, Subject: j.Subject, Text: j.Text, HTML: j.HTML}
	if j.Template == "" {
		if msg.Subject == "" || (msg.Text == "" && msg.HTML == "") {
			return Message{}, errors.New("email job has neither a template nor a complete body")
		}
		return msg, nil
	}
	subject, text, html, err := templates.Render(j.Template, j.Data)
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", j.Template, err)
	}
	msg.Subject, msg.Text, msg.HTML = subject, text, html
	return msg, nil
}
