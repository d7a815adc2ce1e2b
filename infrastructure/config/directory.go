package config

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"video-toolbox/domain/notification"
)

// Directory resolves share notification targets against the configured contacts
type Directory struct {
	contacts  map[string]RecipientConfig
	defaultCC []RecipientConfig
}

// NewDirectory creates a directory from the email settings
func NewDirectory(cfg EmailConfig) *Directory {
	return &Directory{
		contacts:  cfg.Contacts,
		defaultCC: cfg.DefaultCC,
	}
}

// Lookup finds contacts matching the query (key, first name, last name, or full name).
// Returns all matches; the caller handles ambiguity.
func (d *Directory) Lookup(query string) ([]notification.Recipient, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, notification.ErrRecipientNotFound
	}

	keys := make([]string, 0, len(d.contacts))
	for key := range d.contacts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var matches []notification.Recipient
	for _, key := range keys {
		rc := d.contacts[key]
		nameLower := strings.ToLower(rc.Name)
		parts := strings.Fields(nameLower)

		var first, last string
		if len(parts) > 0 {
			first = parts[0]
			last = parts[len(parts)-1]
		}

		if strings.ToLower(key) == query || first == query || last == query || nameLower == query {
			matches = append(matches, notification.Recipient{Name: rc.Name, Address: rc.Address})
		}
	}

	if len(matches) == 0 {
		return nil, notification.ErrRecipientNotFound
	}
	return matches, nil
}

// Resolve turns notify entries into recipients. An entry containing "@"
// is parsed as an address; anything else must name exactly one contact.
// Comma-separated entries are split and duplicates by address are dropped.
func (d *Directory) Resolve(entries []string) ([]notification.Recipient, error) {
	var resolved []notification.Recipient
	seen := make(map[string]bool)

	for _, entry := range entries {
		for _, query := range strings.Split(entry, ",") {
			query = strings.TrimSpace(query)
			if query == "" {
				continue
			}

			r, err := d.resolveOne(query)
			if err != nil {
				return nil, err
			}

			key := strings.ToLower(r.Address)
			if !seen[key] {
				seen[key] = true
				resolved = append(resolved, r)
			}
		}
	}

	if len(resolved) == 0 {
		return nil, notification.ErrNoRecipients
	}
	return resolved, nil
}

func (d *Directory) resolveOne(query string) (notification.Recipient, error) {
	if strings.Contains(query, "@") {
		addr, err := mail.ParseAddress(query)
		if err != nil {
			return notification.Recipient{}, fmt.Errorf("%w: %q", notification.ErrInvalidRecipient, query)
		}
		return notification.Recipient{Name: addr.Name, Address: addr.Address}, nil
	}

	matches, err := d.Lookup(query)
	if err != nil {
		return notification.Recipient{}, fmt.Errorf("recipient %q: %w", query, err)
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return notification.Recipient{}, fmt.Errorf("%w: %q matches %s - use last name to disambiguate",
			notification.ErrAmbiguousRecipient, query, strings.Join(names, ", "))
	}
	return matches[0], nil
}

// DefaultCC returns the configured default CC recipients
func (d *Directory) DefaultCC() []notification.Recipient {
	cc := make([]notification.Recipient, len(d.defaultCC))
	for i, rc := range d.defaultCC {
		cc[i] = notification.Recipient{Name: rc.Name, Address: rc.Address}
	}
	return cc
}
