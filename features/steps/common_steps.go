//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// commandResult is the output and error of the last CLI command a
// scenario ran, shared by the config, setup and publish steps
type commandResult struct {
	output *bytes.Buffer
	err    error
}

var lastCommand = &commandResult{output: &bytes.Buffer{}}

func (r *commandResult) record(err error) {
	r.err = err
}

func InitializeCommandScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		lastCommand.output = &bytes.Buffer{}
		lastCommand.err = nil
		return c, nil
	})

	ctx.Step(`^the command should succeed$`, lastCommand.theCommandShouldSucceed)
	ctx.Step(`^the command should fail with "([^"]*)"$`, lastCommand.theCommandShouldFailWith)
	ctx.Step(`^the output should contain "([^"]*)"$`, lastCommand.theOutputShouldContain)
	ctx.Step(`^the output should not contain "([^"]*)"$`, lastCommand.theOutputShouldNotContain)
}

func (r *commandResult) theCommandShouldSucceed() error {
	if r.err != nil {
		return fmt.Errorf("expected command to succeed, got: %v\noutput:\n%s", r.err, r.output.String())
	}
	return nil
}

func (r *commandResult) theCommandShouldFailWith(msg string) error {
	if r.err == nil {
		return fmt.Errorf("expected command to fail with %q, but it succeeded", msg)
	}
	if !strings.Contains(r.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got: %v", msg, r.err)
	}
	return nil
}

func (r *commandResult) theOutputShouldContain(text string) error {
	if !strings.Contains(r.output.String(), text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, r.output.String())
	}
	return nil
}

func (r *commandResult) theOutputShouldNotContain(text string) error {
	if strings.Contains(r.output.String(), text) {
		return fmt.Errorf("expected output not to contain %q, got:\n%s", text, r.output.String())
	}
	return nil
}
