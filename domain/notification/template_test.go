package notification

import (
	"strings"
	"testing"
	"time"
)

func TestEmailTemplate_RenderSubject(t *testing.T) {
	subject, err := DefaultTemplate.RenderSubject(TemplateData{SenderName: "Ana"})
	if err != nil {
		t.Fatalf("RenderSubject() error = %v", err)
	}

	expected := "Ana shared a video with you"
	if subject != expected {
		t.Errorf("RenderSubject() = %q, want %q", subject, expected)
	}
}

func TestEmailTemplate_RenderPlainText(t *testing.T) {
	data := TemplateData{
		Greeting:   "Dear John,",
		VideoName:  "merged_7_1700000000.mp4",
		Link:       "https://videos.example.com/api/v1.0/video/shared/abc",
		ExpiryRef:  "in 3 hours",
		SenderName: "Ana",
	}

	body, err := DefaultTemplate.RenderPlainText(data)
	if err != nil {
		t.Fatalf("RenderPlainText() error = %v", err)
	}

	checks := []string{
		"Dear John,",
		"Ana shared merged_7_1700000000.mp4 with you.",
		"Watch: https://videos.example.com/api/v1.0/video/shared/abc\n",
		"Download: https://videos.example.com/api/v1.0/video/shared/abc?action=download",
		"The link expires in 3 hours.",
	}

	for _, check := range checks {
		if !strings.Contains(body, check) {
			t.Errorf("RenderPlainText() missing %q in:\n%s", check, body)
		}
	}
}

func TestEmailTemplate_RenderHTML(t *testing.T) {
	data := TemplateData{
		Greeting:   "Dear John,",
		VideoName:  "clip.mp4",
		Link:       "https://videos.example.com/api/v1.0/video/shared/abc",
		ExpiryRef:  "in 1 hour",
		SenderName: "Ana",
	}

	body, err := DefaultTemplate.RenderHTML(data)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}

	if !strings.Contains(body, `<a href="https://videos.example.com/api/v1.0/video/shared/abc">clip.mp4</a>`) {
		t.Errorf("RenderHTML() missing watch link in:\n%s", body)
	}
	if !strings.Contains(body, `<a href="https://videos.example.com/api/v1.0/video/shared/abc?action=download">download it</a>`) {
		t.Errorf("RenderHTML() missing download link in:\n%s", body)
	}
}

func TestFormatExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      string
	}{
		{name: "seconds away", expiresAt: now.Add(30 * time.Second), want: "in less than a minute"},
		{name: "one minute", expiresAt: now.Add(time.Minute), want: "in 1 minute"},
		{name: "minutes", expiresAt: now.Add(45 * time.Minute), want: "in 45 minutes"},
		{name: "one hour", expiresAt: now.Add(time.Hour + 10*time.Minute), want: "in 1 hour"},
		{name: "default share window", expiresAt: now.Add(24 * time.Hour), want: "in 24 hours"},
		{name: "days away", expiresAt: now.Add(72 * time.Hour), want: "on Mar 4, 2026 10:00 UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatExpiry(tt.expiresAt, now); got != tt.want {
				t.Errorf("FormatExpiry() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatGreeting(t *testing.T) {
	tests := []struct {
		name       string
		recipients []Recipient
		want       string
	}{
		{
			name:       "no recipients",
			recipients: nil,
			want:       "Hello,",
		},
		{
			name:       "one recipient",
			recipients: []Recipient{{Name: "John Doe", Address: "john@example.com"}},
			want:       "Dear John,",
		},
		{
			name:       "two recipients",
			recipients: []Recipient{{Name: "John Doe"}, {Name: "Jane Smith"}},
			want:       "Dear John & Jane,",
		},
		{
			name:       "three recipients",
			recipients: []Recipient{{Name: "John"}, {Name: "Jane"}, {Name: "Alice"}},
			want:       "Hey Everyone!",
		},
		{
			name:       "recipient with no name",
			recipients: []Recipient{{Address: "john@example.com"}},
			want:       "Dear Friend,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatGreeting(tt.recipients)
			if got != tt.want {
				t.Errorf("FormatGreeting() = %q, want %q", got, tt.want)
			}
		})
	}
}
