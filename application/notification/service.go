package notification

import (
	"fmt"
	"net/mail"
	"time"

	"video-toolbox/domain/asset"
	"video-toolbox/domain/notification"
)

// Directory resolves notify entries to recipients
type Directory interface {
	Resolve(entries []string) ([]notification.Recipient, error)
	DefaultCC() []notification.Recipient
}

// Service emails share links to recipients
type Service struct {
	sender     notification.EmailSender
	senderName string
	directory  Directory
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithDirectory resolves contact names and adds default CCs
func WithDirectory(d Directory) ServiceOption {
	return func(s *Service) {
		s.directory = d
	}
}

// NewService creates a new notification service
func NewService(sender notification.EmailSender, senderName string, opts ...ServiceOption) *Service {
	s := &Service{
		sender:     sender,
		senderName: senderName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShareRequest contains the parameters for announcing a share link
type ShareRequest struct {
	To        []notification.Recipient
	CC        []notification.Recipient
	Link      string
	ExpiresAt time.Time
	VideoName string
}

// Recipients resolves notify entries. Unusable entries are validation errors.
func (s *Service) Recipients(entries []string) ([]notification.Recipient, error) {
	var (
		to  []notification.Recipient
		err error
	)
	if s.directory != nil {
		to, err = s.directory.Resolve(entries)
	} else {
		to, err = ParseRecipients(entries)
		if err == nil && len(to) == 0 {
			err = notification.ErrNoRecipients
		}
	}
	if err != nil {
		return nil, asset.Wrap(asset.ErrValidation, err, "Invalid notify recipients: %v", err)
	}
	return to, nil
}

// SendShareLink emails a share link. Default CCs apply when req.CC is empty.
func (s *Service) SendShareLink(req ShareRequest) error {
	cc := req.CC
	if len(cc) == 0 && s.directory != nil {
		cc = s.directory.DefaultCC()
	}

	emailReq := &notification.ShareEmailRequest{
		To:         req.To,
		CC:         cc,
		Link:       req.Link,
		ExpiresAt:  req.ExpiresAt,
		VideoName:  req.VideoName,
		SenderName: s.senderName,
	}

	return s.sender.Send(emailReq)
}

// ParseRecipients parses addresses such as "jane@example.com" or
// "Jane Doe <jane@example.com>"
func ParseRecipients(addresses []string) ([]notification.Recipient, error) {
	recipients := make([]notification.Recipient, 0, len(addresses))
	for _, raw := range addresses {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", notification.ErrInvalidRecipient, raw)
		}
		recipients = append(recipients, notification.Recipient{Name: addr.Name, Address: addr.Address})
	}
	return recipients, nil
}
