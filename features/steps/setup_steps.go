//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-toolbox/cmd"
	"video-toolbox/infrastructure/config"

	"github.com/cucumber/godog"
)

// MockPrompter answers prompts whose message contains a configured key.
// Unanswered prompts take their default.
type MockPrompter struct {
	inputs   map[string][]string
	confirms map[string][]bool
	selects  map[string]string
	asked    []string
}

func NewMockPrompter() *MockPrompter {
	return &MockPrompter{
		inputs:   make(map[string][]string),
		confirms: make(map[string][]bool),
		selects:  make(map[string]string),
	}
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	for key, answers := range m.inputs {
		if strings.Contains(message, key) && len(answers) > 0 {
			m.inputs[key] = answers[1:]
			return answers[0], nil
		}
	}
	return defaultValue, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.asked = append(m.asked, message)
	for key, answers := range m.confirms {
		if strings.Contains(message, key) && len(answers) > 0 {
			m.confirms[key] = answers[1:]
			return answers[0], nil
		}
	}
	return defaultValue, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	for key, answer := range m.selects {
		if strings.Contains(message, key) {
			for _, opt := range options {
				if opt == answer {
					return answer, nil
				}
			}
			return "", errors.New("invalid option " + answer)
		}
	}
	return defaultValue, nil
}

type setupContext struct {
	tempDir    string
	configPath string
	prompter   *MockPrompter
	config     *config.Config
}

var SharedSetupContext = &setupContext{}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config", "config.yaml")
		testCtx.prompter = NewMockPrompter()
		testCtx.config = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists$`, testCtx.noConfigFileExists)
	ctx.Step(`^a config file already exists$`, testCtx.aConfigFileAlreadyExists)
	ctx.Step(`^I answer "([^"]*)" when asked about "([^"]*)"$`, testCtx.iAnswerWhenAskedAbout)
	ctx.Step(`^I choose "([^"]*)" when asked about "([^"]*)"$`, testCtx.iChooseWhenAskedAbout)
	ctx.Step(`^I confirm "([^"]*)"$`, func(key string) error { return testCtx.iReplyTo(key, true) })
	ctx.Step(`^I decline "([^"]*)"$`, func(key string) error { return testCtx.iReplyTo(key, false) })
	ctx.Step(`^I run setup$`, testCtx.iRunSetup)

	ctx.Step(`^the saved upload directory should be "([^"]*)"$`, testCtx.theSavedUploadDirectoryShouldBe)
	ctx.Step(`^the saved duration bounds should be ([\d.]+) to ([\d.]+) seconds$`, testCtx.theSavedDurationBoundsShouldBe)
	ctx.Step(`^the saved database should be "([^"]*)" with dsn "([^"]*)"$`, testCtx.theSavedDatabaseShouldBe)
	ctx.Step(`^the saved share lifetime should be "([^"]*)"$`, testCtx.theSavedShareLifetimeShouldBe)
	ctx.Step(`^email should be (enabled|disabled) in the saved config$`, testCtx.emailShouldBeInTheSavedConfig)
	ctx.Step(`^the saved config should have contact "([^"]*)" with email "([^"]*)"$`, testCtx.theSavedConfigShouldHaveContact)
	ctx.Step(`^the saved config should have (\d+) default ccs?$`, testCtx.theSavedConfigShouldHaveDefaultCCs)
	ctx.Step(`^no config file should be written$`, testCtx.noConfigFileShouldBeWritten)
}

func (s *setupContext) noConfigFileExists() error {
	if _, err := os.Stat(s.configPath); err == nil {
		return fmt.Errorf("config file %s already exists", s.configPath)
	}
	return nil
}

func (s *setupContext) aConfigFileAlreadyExists() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.configPath, []byte("media:\n  upload_directory: original\n"), 0600)
}

func (s *setupContext) iAnswerWhenAskedAbout(answer, key string) error {
	s.prompter.inputs[key] = append(s.prompter.inputs[key], answer)
	return nil
}

func (s *setupContext) iChooseWhenAskedAbout(answer, key string) error {
	s.prompter.selects[key] = answer
	return nil
}

func (s *setupContext) iReplyTo(key string, yes bool) error {
	s.prompter.confirms[key] = append(s.prompter.confirms[key], yes)
	return nil
}

func (s *setupContext) iRunSetup() error {
	lastCommand.record(cmd.RunSetupWithPrompter(s.prompter, s.configPath, lastCommand.output))
	return nil
}

func (s *setupContext) saved() (*config.Config, error) {
	if s.config != nil {
		return s.config, nil
	}
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, err
	}
	s.config = cfg
	return cfg, nil
}

func (s *setupContext) theSavedUploadDirectoryShouldBe(dir string) error {
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	if cfg.Media.UploadDirectory != dir {
		return fmt.Errorf("expected upload directory %q, got %q", dir, cfg.Media.UploadDirectory)
	}
	return nil
}

func (s *setupContext) theSavedDurationBoundsShouldBe(min, max float64) error {
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	if cfg.Media.MinDurationSeconds != min || cfg.Media.MaxDurationSeconds != max {
		return fmt.Errorf("expected bounds %g-%g, got %g-%g",
			min, max, cfg.Media.MinDurationSeconds, cfg.Media.MaxDurationSeconds)
	}
	return nil
}

func (s *setupContext) theSavedDatabaseShouldBe(driver, dsn string) error {
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != driver || cfg.Database.DSN != dsn {
		return fmt.Errorf("expected database %s %q, got %s %q", driver, dsn, cfg.Database.Driver, cfg.Database.DSN)
	}
	return nil
}

func (s *setupContext) theSavedShareLifetimeShouldBe(raw string) error {
	want, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	if cfg.Sharing.MaxDuration != want {
		return fmt.Errorf("expected share lifetime %s, got %s", want, cfg.Sharing.MaxDuration)
	}
	return nil
}

func (s *setupContext) emailShouldBeInTheSavedConfig(state string) error {
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	if cfg.Email.Enabled != (state == "enabled") {
		return fmt.Errorf("expected email %s, got enabled=%v", state, cfg.Email.Enabled)
	}
	return nil
}

func (s *setupContext) theSavedConfigShouldHaveContact(key, email string) error {
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	rc, ok := cfg.Email.Contacts[key]
	if !ok {
		return fmt.Errorf("contact %q not saved", key)
	}
	if rc.Address != email {
		return fmt.Errorf("expected contact %q address %q, got %q", key, email, rc.Address)
	}
	return nil
}

func (s *setupContext) theSavedConfigShouldHaveDefaultCCs(n int) error {
	cfg, err := s.saved()
	if err != nil {
		return err
	}
	if len(cfg.Email.DefaultCC) != n {
		return fmt.Errorf("expected %d default ccs, got %d", n, len(cfg.Email.DefaultCC))
	}
	return nil
}

func (s *setupContext) noConfigFileShouldBeWritten() error {
	data, err := os.ReadFile(s.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if strings.Contains(string(data), "upload_directory: original") {
		return nil
	}
	return fmt.Errorf("config file was rewritten:\n%s", data)
}
