package config

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// Errors for contact management
var (
	ErrContactNotFound = errors.New("contact not found")
	ErrCCNotFound      = errors.New("cc not found")
	ErrDuplicateKey    = errors.New("key already exists")
	ErrInvalidEmail    = errors.New("invalid email format")
)

// ContactManager edits the email contacts and default CC list and saves
// each change back to the config file
type ContactManager struct {
	config     *Config
	configPath string
}

// NewContactManager creates a new contact manager
func NewContactManager(cfg *Config, configPath string) *ContactManager {
	return &ContactManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Contact is a named address book entry (used for both contacts and CCs)
type Contact struct {
	Key     string
	Name    string
	Address string
}

// --- Contact CRUD ---

// AddContact adds a new contact
func (m *ContactManager) AddContact(key, name, email string) error {
	key, name, email, err := normalizeEntry("contact", key, name, email)
	if err != nil {
		return err
	}

	if m.config.Email.Contacts == nil {
		m.config.Email.Contacts = make(map[string]RecipientConfig)
	}
	if _, exists := m.config.Email.Contacts[key]; exists {
		return fmt.Errorf("%w: contact %q", ErrDuplicateKey, key)
	}

	m.config.Email.Contacts[key] = RecipientConfig{Name: name, Address: email}
	return Save(m.config, m.configPath)
}

// ListContacts returns all contacts sorted by key
func (m *ContactManager) ListContacts() []Contact {
	result := make([]Contact, 0, len(m.config.Email.Contacts))
	for key, rc := range m.config.Email.Contacts {
		result = append(result, Contact{Key: key, Name: rc.Name, Address: rc.Address})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// GetContact gets a contact by key (case-insensitive)
func (m *ContactManager) GetContact(key string) (Contact, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if rc, exists := m.config.Email.Contacts[key]; exists {
		return Contact{Key: key, Name: rc.Name, Address: rc.Address}, nil
	}
	return Contact{}, fmt.Errorf("%w: %q", ErrContactNotFound, key)
}

// RemoveContact removes a contact by key
func (m *ContactManager) RemoveContact(key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, exists := m.config.Email.Contacts[key]; !exists {
		return fmt.Errorf("%w: %q", ErrContactNotFound, key)
	}

	delete(m.config.Email.Contacts, key)
	return Save(m.config, m.configPath)
}

// UpdateContact updates a contact's name and/or email
func (m *ContactManager) UpdateContact(key, name, email string) error {
	key = strings.ToLower(strings.TrimSpace(key))

	rc, exists := m.config.Email.Contacts[key]
	if !exists {
		return fmt.Errorf("%w: %q", ErrContactNotFound, key)
	}

	if name = strings.TrimSpace(name); name != "" {
		rc.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		if !isValidEmail(email) {
			return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
		}
		rc.Address = email
	}

	m.config.Email.Contacts[key] = rc
	return Save(m.config, m.configPath)
}

// --- CC CRUD ---

// AddCC adds a new default CC recipient, keyed by lowercased first name
func (m *ContactManager) AddCC(name, email string) error {
	rc := RecipientConfig{Name: strings.TrimSpace(name), Address: strings.TrimSpace(email)}
	if _, _, _, err := normalizeEntry("cc", ccKey(rc), rc.Name, rc.Address); err != nil {
		return err
	}

	if _, _, err := m.GetCC(ccKey(rc)); err == nil {
		return fmt.Errorf("%w: cc %q", ErrDuplicateKey, ccKey(rc))
	}

	m.config.Email.DefaultCC = append(m.config.Email.DefaultCC, rc)
	return Save(m.config, m.configPath)
}

// ListCCs returns the default CC recipients in order
func (m *ContactManager) ListCCs() []Contact {
	result := make([]Contact, 0, len(m.config.Email.DefaultCC))
	for _, rc := range m.config.Email.DefaultCC {
		result = append(result, Contact{Key: ccKey(rc), Name: rc.Name, Address: rc.Address})
	}
	return result
}

// GetCC gets a CC entry by key and returns its index
func (m *ContactManager) GetCC(key string) (Contact, int, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, rc := range m.config.Email.DefaultCC {
		if ccKey(rc) == key {
			return Contact{Key: key, Name: rc.Name, Address: rc.Address}, i, nil
		}
	}
	return Contact{}, -1, fmt.Errorf("%w: %q", ErrCCNotFound, key)
}

// RemoveCC removes a CC entry by key
func (m *ContactManager) RemoveCC(key string) error {
	_, idx, err := m.GetCC(key)
	if err != nil {
		return err
	}

	cc := m.config.Email.DefaultCC
	m.config.Email.DefaultCC = append(cc[:idx:idx], cc[idx+1:]...)
	return Save(m.config, m.configPath)
}

// ccKey derives the lookup key for a CC entry from its first name
func ccKey(rc RecipientConfig) string {
	parts := strings.Fields(strings.ToLower(rc.Name))
	if len(parts) == 0 {
		return strings.ToLower(rc.Address)
	}
	return parts[0]
}

func normalizeEntry(kind, key, name, email string) (string, string, string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if key == "" {
		return "", "", "", fmt.Errorf("%s key is required", kind)
	}
	if name == "" {
		return "", "", "", fmt.Errorf("%s name is required", kind)
	}
	if !isValidEmail(email) {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return key, name, email, nil
}

// isValidEmail accepts a bare address with a dotted domain
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
