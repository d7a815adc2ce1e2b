package notification

import (
	"time"
)

// Recipient represents an email recipient with name and address
type Recipient struct {
	Name    string
	Address string
}

// ShareEmailRequest contains everything needed to email a share link
type ShareEmailRequest struct {
	To         []Recipient // Primary recipients
	CC         []Recipient // Carbon copy recipients
	Link       string      // Absolute share URL
	ExpiresAt  time.Time   // When the link stops working
	VideoName  string      // Basename of the shared file
	SenderName string      // Name to sign the email with
}

// Validate checks that the email request has all required fields
func (r *ShareEmailRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range r.To {
		if to.Address == "" {
			return ErrInvalidRecipient
		}
	}
	if r.Link == "" {
		return ErrNoLink
	}
	if r.ExpiresAt.IsZero() {
		return ErrNoExpiry
	}
	return nil
}

// EmailSender defines the interface for sending emails
type EmailSender interface {
	Send(req *ShareEmailRequest) error
}
