package notification

import "errors"

var (
	// ErrNoRecipients is returned when no To recipients are provided
	ErrNoRecipients = errors.New("at least one recipient is required")

	// ErrInvalidRecipient is returned when a recipient has no email address
	ErrInvalidRecipient = errors.New("recipient must have an email address")

	// ErrNoLink is returned when the share link is missing
	ErrNoLink = errors.New("share link is required")

	// ErrNoExpiry is returned when the link expiry is missing
	ErrNoExpiry = errors.New("link expiry is required")

	// ErrRecipientNotFound is returned when a contact lookup has no match
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrAmbiguousRecipient is returned when a contact lookup matches more than one contact
	ErrAmbiguousRecipient = errors.New("ambiguous recipient")

	// ErrSendFailed is returned when the email fails to send
	ErrSendFailed = errors.New("failed to send email")
)
