package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"video-toolbox/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the storage directory, upload limits,
database, sharing limits and optional email notifications. Anything not
asked keeps its default.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = "config/config.yaml"
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, output OutputWriter) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(output, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(output, "Welcome to video-toolbox setup!")
	fmt.Fprintln(output)

	cfg := config.Default()

	steps := []func(Prompter, *config.Config) error{
		promptMedia,
		promptDatabase,
		promptSharing,
		promptEmail,
	}
	for _, step := range steps {
		if err := step(prompter, cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Save configuration
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Configuration saved to %s\n", configPath)
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(output, "Set VTB_JWT_SECRET before running serve.")
	}
	return nil
}

func promptMedia(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Where should videos be stored?", cfg.Media.UploadDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if dir == "" {
		return fmt.Errorf("upload directory is required")
	}
	cfg.Media.UploadDirectory = dir

	minSeconds, err := promptFloat(prompter, "Shortest allowed upload (seconds)?", cfg.Media.MinDurationSeconds)
	if err != nil {
		return err
	}
	maxSeconds, err := promptFloat(prompter, "Longest allowed upload (seconds)?", cfg.Media.MaxDurationSeconds)
	if err != nil {
		return err
	}
	if minSeconds > maxSeconds {
		return fmt.Errorf("shortest duration must not exceed longest")
	}
	cfg.Media.MinDurationSeconds = minSeconds
	cfg.Media.MaxDurationSeconds = maxSeconds

	return nil
}

func promptDatabase(prompter Prompter, cfg *config.Config) error {
	driver, err := prompter.Select("Which database?", []string{"sqlite3", "mysql", "memory"}, cfg.Database.Driver)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Database.Driver = driver

	switch driver {
	case "memory":
		cfg.Database.DSN = ""
	case "mysql":
		dsn, err := prompter.Input("MySQL DSN (user:pass@tcp(host:3306)/db)?", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if dsn == "" {
			return fmt.Errorf("a MySQL DSN is required")
		}
		cfg.Database.DSN = dsn
	default:
		dsn, err := prompter.Input("SQLite database file?", cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if dsn != "" {
			cfg.Database.DSN = dsn
		}
	}

	return nil
}

func promptSharing(prompter Prompter, cfg *config.Config) error {
	raw, err := prompter.Input("Longest share link lifetime?", cfg.Sharing.MaxDuration.String())
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid duration %q (use e.g. 24h or 90m)", raw)
	}
	cfg.Sharing.MaxDuration = d

	base, err := prompter.Input("Public base URL for share links (blank to use the request host)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Server.PublicBaseURL = strings.TrimRight(base, "/")
	return nil
}

func promptEmail(prompter Prompter, cfg *config.Config) error {
	enabled, err := prompter.Confirm("Email share links through Gmail?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enabled {
		return nil
	}
	cfg.Email.Enabled = true

	fromName, err := prompter.Input("Display name for outgoing emails?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if fromName == "" {
		return fmt.Errorf("from name is required")
	}
	cfg.Email.FromName = fromName
	cfg.Email.SenderName = fromName

	fromAddress, err := prompter.Input("Gmail address to send from?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if fromAddress == "" {
		return fmt.Errorf("from address is required")
	}
	cfg.Email.FromAddress = fromAddress

	credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Email.CredentialsFile = credentials
	cfg.Email.TokenFile = "gmail_token.json"

	// Default CC recipients
	cfg.Email.DefaultCC = []config.RecipientConfig{}
	for {
		addCC, err := prompter.Confirm("Add a CC recipient?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !addCC {
			break
		}

		recipient, err := promptRecipientWithPrompter(prompter)
		if err != nil {
			return err
		}
		cfg.Email.DefaultCC = append(cfg.Email.DefaultCC, recipient)
	}

	// Quick-lookup contacts
	cfg.Email.Contacts = make(map[string]config.RecipientConfig)
	for {
		addContact, err := prompter.Confirm("Add a contact?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !addContact {
			break
		}

		nickname, err := prompter.Input("  Nickname:", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if nickname == "" {
			return fmt.Errorf("nickname is required")
		}

		recipient, err := promptRecipientWithPrompter(prompter)
		if err != nil {
			return err
		}
		cfg.Email.Contacts[strings.ToLower(nickname)] = recipient
	}

	return nil
}

func promptFloat(prompter Prompter, message string, defaultValue float64) (float64, error) {
	raw, err := prompter.Input(message, strconv.FormatFloat(defaultValue, 'f', -1, 64))
	if err != nil {
		return 0, fmt.Errorf("prompt cancelled")
	}
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func promptRecipientWithPrompter(prompter Prompter) (config.RecipientConfig, error) {
	name, err := prompter.Input("  Full name:", "")
	if err != nil {
		return config.RecipientConfig{}, fmt.Errorf("prompt cancelled")
	}
	if name == "" {
		return config.RecipientConfig{}, fmt.Errorf("name is required")
	}

	address, err := prompter.Input("  Email:", "")
	if err != nil {
		return config.RecipientConfig{}, fmt.Errorf("prompt cancelled")
	}
	if address == "" {
		return config.RecipientConfig{}, fmt.Errorf("email is required")
	}

	return config.RecipientConfig{
		Name:    name,
		Address: address,
	}, nil
}
