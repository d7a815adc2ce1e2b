//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-toolbox/cmd"
	"video-toolbox/infrastructure/config"

	"github.com/cucumber/godog"
)

type configCrudContext struct {
	tempDir    string
	configPath string
	config     *config.Config
}

var SharedConfigCrudContext = &configCrudContext{}

func InitializeConfigCrudScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigCrudContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		// Create temp directory for each scenario
		tempDir, err := os.MkdirTemp("", "config-crud-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.config = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	// Background
	ctx.Step(`^a config file exists with email enabled$`, testCtx.aConfigFileExistsWithEmailEnabled)

	// Contact steps
	ctx.Step(`^I run config add contact with key "([^"]*)" name "([^"]*)" and email "([^"]*)"$`, testCtx.iRunConfigAddContact)
	ctx.Step(`^contact "([^"]*)" exists with name "([^"]*)" and email "([^"]*)"$`, testCtx.contactExists)
	ctx.Step(`^I run config list contacts$`, testCtx.iRunConfigListContacts)
	ctx.Step(`^I run config remove contact "([^"]*)"$`, testCtx.iRunConfigRemoveContact)
	ctx.Step(`^I run config update contact "([^"]*)" with email "([^"]*)"$`, testCtx.iRunConfigUpdateContactEmail)
	ctx.Step(`^the config should contain contact "([^"]*)" with name "([^"]*)" and email "([^"]*)"$`, testCtx.theConfigShouldContainContact)
	ctx.Step(`^the config should not contain contact "([^"]*)"$`, testCtx.theConfigShouldNotContainContact)

	// CC steps
	ctx.Step(`^I run config add cc with name "([^"]*)" and email "([^"]*)"$`, testCtx.iRunConfigAddCC)
	ctx.Step(`^I run config list ccs$`, testCtx.iRunConfigListCCs)
	ctx.Step(`^I run config remove cc "([^"]*)"$`, testCtx.iRunConfigRemoveCC)
	ctx.Step(`^the config should contain cc with name "([^"]*)" and email "([^"]*)"$`, testCtx.theConfigShouldContainCC)
	ctx.Step(`^the config should not contain cc with name "([^"]*)"$`, testCtx.theConfigShouldNotContainCC)

	// Recipient resolution
	ctx.Step(`^notify entries "([^"]*)" should resolve to "([^"]*)"$`, testCtx.notifyEntriesShouldResolveTo)
}

func (c *configCrudContext) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	return nil
}

func (c *configCrudContext) saveConfig() error {
	return config.Save(c.config, c.configPath)
}

// --- Background ---

func (c *configCrudContext) aConfigFileExistsWithEmailEnabled() error {
	c.config = config.Default()
	c.config.Email = config.EmailConfig{
		Enabled:     true,
		FromName:    "Video Toolbox",
		FromAddress: "videos@example.com",
		SenderName:  "Jonathan",
		DefaultCC:   []config.RecipientConfig{},
		Contacts:    make(map[string]config.RecipientConfig),
	}
	return c.saveConfig()
}

// --- Contact steps ---

func (c *configCrudContext) iRunConfigAddContact(key, name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigAddWithDependencies(c.config, c.configPath, "contact", key, name, email, lastCommand.output))
	return nil
}

func (c *configCrudContext) contactExists(key, name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	if c.config.Email.Contacts == nil {
		c.config.Email.Contacts = make(map[string]config.RecipientConfig)
	}
	c.config.Email.Contacts[strings.ToLower(key)] = config.RecipientConfig{Name: name, Address: email}
	return c.saveConfig()
}

func (c *configCrudContext) iRunConfigListContacts() error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigListWithDependencies(c.config, c.configPath, "contacts", lastCommand.output))
	return nil
}

func (c *configCrudContext) iRunConfigRemoveContact(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigRemoveWithDependencies(c.config, c.configPath, "contact", key, lastCommand.output))
	return nil
}

func (c *configCrudContext) iRunConfigUpdateContactEmail(key, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigUpdateWithDependencies(c.config, c.configPath, "contact", key, "", email, lastCommand.output))
	return nil
}

func (c *configCrudContext) theConfigShouldContainContact(key, name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	key = strings.ToLower(key)
	rc, exists := c.config.Email.Contacts[key]
	if !exists {
		return fmt.Errorf("contact %q not found in config", key)
	}
	if rc.Name != name || rc.Address != email {
		return fmt.Errorf("expected contact %q to be %s <%s>, got %s <%s>", key, name, email, rc.Name, rc.Address)
	}
	return nil
}

func (c *configCrudContext) theConfigShouldNotContainContact(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	if _, exists := c.config.Email.Contacts[strings.ToLower(key)]; exists {
		return fmt.Errorf("contact %q should not exist in config", key)
	}
	return nil
}

// --- CC steps ---

func (c *configCrudContext) iRunConfigAddCC(name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigAddWithDependencies(c.config, c.configPath, "cc", "", name, email, lastCommand.output))
	return nil
}

func (c *configCrudContext) iRunConfigListCCs() error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigListWithDependencies(c.config, c.configPath, "ccs", lastCommand.output))
	return nil
}

func (c *configCrudContext) iRunConfigRemoveCC(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	lastCommand.record(cmd.RunConfigRemoveWithDependencies(c.config, c.configPath, "cc", key, lastCommand.output))
	return nil
}

func (c *configCrudContext) theConfigShouldContainCC(name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	for _, cc := range c.config.Email.DefaultCC {
		if cc.Name == name && cc.Address == email {
			return nil
		}
	}
	return fmt.Errorf("cc %s <%s> not found in config", name, email)
}

func (c *configCrudContext) theConfigShouldNotContainCC(name string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	for _, cc := range c.config.Email.DefaultCC {
		if cc.Name == name {
			return fmt.Errorf("cc %q should not exist in config", name)
		}
	}
	return nil
}

// --- Recipient resolution ---

func (c *configCrudContext) notifyEntriesShouldResolveTo(entries, want string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	recipients, err := config.NewDirectory(c.config.Email).Resolve([]string{entries})
	if err != nil {
		return err
	}
	got := make([]string, len(recipients))
	for i, r := range recipients {
		got[i] = r.Address
	}
	if strings.Join(got, ",") != want {
		return fmt.Errorf("expected %q, got %q", want, strings.Join(got, ","))
	}
	return nil
}
