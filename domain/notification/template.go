package notification

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// TemplateData contains all the fields available for email template rendering
type TemplateData struct {
	Greeting   string // Dynamic greeting based on recipient count
	VideoName  string
	Link       string
	ExpiryRef  string // e.g. "in 3 hours"
	SenderName string
}

// EmailTemplate contains the templates for rendering emails
type EmailTemplate struct {
	SubjectFormat string
	PlainText     string
	HTML          string
}

// DefaultTemplate is the standard email template for shared videos
var DefaultTemplate = EmailTemplate{
	SubjectFormat: "{{.SenderName}} shared a video with you",
	PlainText: `{{.Greeting}}

{{.SenderName}} shared {{.VideoName}} with you.

Watch: {{.Link}}
Download: {{.Link}}?action=download

The link expires {{.ExpiryRef}}.`,
	HTML: `<div dir="ltr">{{.Greeting}}<br><br>
{{.SenderName}} shared <a href="{{.Link}}">{{.VideoName}}</a> with you.
You can also <a href="{{.Link}}?action=download">download it</a>.<br><br>
The link expires {{.ExpiryRef}}.</div>`,
}

// FormatGreeting creates an appropriate greeting based on number of recipients
// 1 recipient: "Dear John,"
// 2 recipients: "Dear John & Jane,"
// 3+ recipients: "Hey Everyone!"
func FormatGreeting(recipients []Recipient) string {
	switch len(recipients) {
	case 0:
		return "Hello,"
	case 1:
		name := getFirstName(recipients[0].Name)
		return fmt.Sprintf("Dear %s,", name)
	case 2:
		name1 := getFirstName(recipients[0].Name)
		name2 := getFirstName(recipients[1].Name)
		return fmt.Sprintf("Dear %s & %s,", name1, name2)
	default:
		return "Hey Everyone!"
	}
}

// getFirstName extracts the first name from a full name
func getFirstName(fullName string) string {
	if fullName == "" {
		return "Friend"
	}
	for i, c := range fullName {
		if c == ' ' {
			return fullName[:i]
		}
	}
	return fullName
}

// FormatExpiry phrases the link expiry relative to now:
// - under a minute: "in less than a minute"
// - under an hour: "in 45 minutes"
// - under two days: "in 5 hours"
// - otherwise: "on Jan 2, 2026 15:04 UTC"
func FormatExpiry(expiresAt, now time.Time) string {
	left := expiresAt.Sub(now)

	switch {
	case left < time.Minute:
		return "in less than a minute"
	case left < time.Hour:
		return plural(int(left/time.Minute), "minute")
	case left < 48*time.Hour:
		return plural(int(left/time.Hour), "hour")
	default:
		return "on " + expiresAt.UTC().Format("Jan 2, 2006 15:04 UTC")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("in 1 %s", unit)
	}
	return fmt.Sprintf("in %d %ss", n, unit)
}

// RenderSubject renders the email subject using the template
func (t *EmailTemplate) RenderSubject(data TemplateData) (string, error) {
	return renderTemplate("subject", t.SubjectFormat, data)
}

// RenderPlainText renders the plain text email body
func (t *EmailTemplate) RenderPlainText(data TemplateData) (string, error) {
	return renderTemplate("plaintext", t.PlainText, data)
}

// RenderHTML renders the HTML email body
func (t *EmailTemplate) RenderHTML(data TemplateData) (string, error) {
	return renderTemplate("html", t.HTML, data)
}

func renderTemplate(name, tmplStr string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
