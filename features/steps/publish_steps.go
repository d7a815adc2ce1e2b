//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"video-toolbox/cmd"
	"video-toolbox/domain/notification"
	"video-toolbox/infrastructure/auth"
	"video-toolbox/infrastructure/config"

	"github.com/cucumber/godog"
)

// recordingSender captures share emails instead of calling Gmail
type recordingSender struct {
	mu   sync.Mutex
	sent []*notification.ShareEmailRequest
	down bool
}

func (s *recordingSender) Send(req *notification.ShareEmailRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errors.New("gmail: 503 backend error")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	s.sent = append(s.sent, req)
	return nil
}

func (s *recordingSender) last() (*notification.ShareEmailRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil, errors.New("no email was sent")
	}
	return s.sent[len(s.sent)-1], nil
}

type publishContext struct {
	tempDir string
	config  *config.Config
	runner  *scriptedRunner
	clock   *featureClock
	sender  *recordingSender
	app     *cmd.App

	input cmd.ProcessInput
	token string
}

var SharedPublishContext = &publishContext{}

func InitializePublishScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedPublishContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		*testCtx = publishContext{}

		tempDir, err := os.MkdirTemp("", "publish-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.runner = &scriptedRunner{}
		testCtx.clock = newFeatureClock()
		testCtx.sender = &recordingSender{}

		testCtx.config = config.Default()
		testCtx.config.Database.Driver = "memory"
		testCtx.config.Database.DSN = ""
		testCtx.config.Media.UploadDirectory = filepath.Join(tempDir, "uploads")
		testCtx.config.Server.PublicBaseURL = "https://videos.example.com"
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.app != nil {
			testCtx.app.Close()
		}
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	// Configuration
	ctx.Step(`^email notifications are enabled$`, testCtx.emailNotificationsAreEnabled)
	ctx.Step(`^"([^"]*)" is a contact at "([^"]*)"$`, testCtx.isAContactAt)
	ctx.Step(`^"([^"]*)" is copied on every email at "([^"]*)"$`, testCtx.isCopiedOnEveryEmailAt)
	ctx.Step(`^the email service is down$`, testCtx.theEmailServiceIsDown)
	ctx.Step(`^a recording "([^"]*)" lasting ([\d.]+) seconds$`, testCtx.aRecordingLasting)

	// Publish
	ctx.Step(`^I want it trimmed from "([^"]*)" to "([^"]*)"$`, testCtx.iWantItTrimmed)
	ctx.Step(`^I want "([^"]*)" notified$`, testCtx.iWantNotified)
	ctx.Step(`^I want the link to last "([^"]*)"$`, testCtx.iWantTheLinkToLast)
	ctx.Step(`^I publish "([^"]*)" as owner "([^"]*)"$`, testCtx.iPublishAsOwner)
	ctx.Step(`^I share video (\d+) from the command line$`, func(id int64) error { return testCtx.iShareFromTheCommandLine(id, "") })
	ctx.Step(`^I share video (\d+) from the command line and notify "([^"]*)"$`, testCtx.iShareFromTheCommandLine)

	// Admin
	ctx.Step(`^I mint a token for user "([^"]*)" with secret "([^"]*)"$`, testCtx.iMintATokenForUser)
	ctx.Step(`^the token should verify as user "([^"]*)" with secret "([^"]*)"$`, testCtx.theTokenShouldVerifyAsUser)
	ctx.Step(`^I run migrate against a new sqlite database$`, testCtx.iRunMigrateAgainstANewSqliteDatabase)
	ctx.Step(`^I run migrate against the memory store$`, testCtx.iRunMigrateAgainstTheMemoryStore)
	ctx.Step(`^I run check with the media engine (available|missing)$`, testCtx.iRunCheckWithTheMediaEngine)

	// Assertions
	ctx.Step(`^(\d+) videos? should be published$`, testCtx.videosShouldBePublished)
	ctx.Step(`^the published video should last ([\d.]+) seconds$`, testCtx.thePublishedVideoShouldLast)
	ctx.Step(`^an email should be sent to "([^"]*)"$`, testCtx.anEmailShouldBeSentTo)
	ctx.Step(`^the email should copy "([^"]*)"$`, testCtx.theEmailShouldCopy)
	ctx.Step(`^the email link should start with "([^"]*)"$`, testCtx.theEmailLinkShouldStartWith)
	ctx.Step(`^no email should be sent$`, testCtx.noEmailShouldBeSent)
}

func (p *publishContext) wire() (*cmd.App, error) {
	if p.app != nil {
		return p.app, nil
	}
	app, err := cmd.NewApp(context.Background(), p.config, nil,
		cmd.WithEngine(scriptedEngine(p.runner)),
		cmd.WithEmailSender(p.sender),
		cmd.WithClock(p.clock.Now))
	if err != nil {
		return nil, err
	}
	p.app = app
	return app, nil
}

// --- Configuration ---

func (p *publishContext) emailNotificationsAreEnabled() error {
	p.config.Email.Enabled = true
	p.config.Email.FromName = "Video Toolbox"
	p.config.Email.FromAddress = "videos@example.com"
	p.config.Email.SenderName = "Jonathan"
	p.config.Email.Contacts = make(map[string]config.RecipientConfig)
	return nil
}

func (p *publishContext) isAContactAt(name, address string) error {
	key := strings.ToLower(strings.Fields(name)[0])
	p.config.Email.Contacts[key] = config.RecipientConfig{Name: name, Address: address}
	return nil
}

func (p *publishContext) isCopiedOnEveryEmailAt(name, address string) error {
	p.config.Email.DefaultCC = append(p.config.Email.DefaultCC, config.RecipientConfig{Name: name, Address: address})
	return nil
}

func (p *publishContext) theEmailServiceIsDown() error {
	p.sender.down = true
	return nil
}

func (p *publishContext) aRecordingLasting(name string, seconds float64) error {
	dir := filepath.Join(p.tempDir, "recordings")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return writeVideo(filepath.Join(dir, name), seconds)
}

// --- Publish ---

func (p *publishContext) iWantItTrimmed(start, end string) error {
	p.input.StartTime = start
	p.input.EndTime = end
	return nil
}

func (p *publishContext) iWantNotified(entry string) error {
	p.input.Notify = append(p.input.Notify, entry)
	return nil
}

func (p *publishContext) iWantTheLinkToLast(raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	p.input.Expires = d
	return nil
}

func (p *publishContext) iPublishAsOwner(name, owner string) error {
	app, err := p.wire()
	if err != nil {
		return err
	}
	p.input.InputPath = filepath.Join(p.tempDir, "recordings", name)
	p.input.OwnerID = owner
	lastCommand.record(cmd.RunProcessWithDependencies(context.Background(), app, p.input, lastCommand.output))
	return nil
}

func (p *publishContext) iShareFromTheCommandLine(id int64, notify string) error {
	app, err := p.wire()
	if err != nil {
		return err
	}

	var notifier cmd.ShareNotifier
	if app.Notifier != nil {
		notifier = app.Notifier
	}
	input := cmd.ShareInput{VideoID: id}
	if notify != "" {
		input.Notify = []string{notify}
	}

	lastCommand.output.Reset()
	lastCommand.record(cmd.RunShareWithDependencies(context.Background(),
		app.Issuer, app.Store, notifier, cmd.LinkBuilder(app.Config), input, lastCommand.output))
	return nil
}

// --- Admin ---

func (p *publishContext) iMintATokenForUser(user, secret string) error {
	lastCommand.output.Reset()
	err := cmd.RunTokenWithDependencies(auth.NewIssuer(secret), user, time.Hour, lastCommand.output)
	lastCommand.record(err)
	p.token = strings.TrimSpace(lastCommand.output.String())
	return nil
}

func (p *publishContext) theTokenShouldVerifyAsUser(user, secret string) error {
	claims, err := auth.NewVerifier(secret).Verify(p.token)
	if err != nil {
		return err
	}
	if claims.UserID != user {
		return fmt.Errorf("expected user %q, got %q", user, claims.UserID)
	}
	return nil
}

func (p *publishContext) iRunMigrateAgainstANewSqliteDatabase() error {
	dsn := filepath.Join(p.tempDir, "migrate.db")
	lastCommand.record(cmd.RunMigrateWithDependencies(context.Background(), "sqlite3", dsn, lastCommand.output))
	return nil
}

func (p *publishContext) iRunMigrateAgainstTheMemoryStore() error {
	lastCommand.record(cmd.RunMigrateWithDependencies(context.Background(), "memory", "", lastCommand.output))
	return nil
}

func (p *publishContext) iRunCheckWithTheMediaEngine(state string) error {
	app, err := p.wire()
	if err != nil {
		return err
	}

	engine := func(ctx context.Context) error {
		_, err := p.runner.Output(ctx, "ffmpeg", "-version")
		return err
	}
	if state == "missing" {
		engine = func(context.Context) error {
			return errors.New(`exec: "ffmpeg": executable file not found in $PATH`)
		}
	}

	lastCommand.record(cmd.RunCheckWithDependencies(context.Background(), []cmd.Check{
		{Name: "media engine", Run: engine},
		{Name: "database", Run: app.Store.Ping},
	}, lastCommand.output))
	return nil
}

// --- Assertions ---

func (p *publishContext) uploads() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(p.config.Media.UploadDirectory)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func (p *publishContext) videosShouldBePublished(n int) error {
	entries, err := p.uploads()
	if err != nil {
		return err
	}
	if len(entries) != n {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return fmt.Errorf("expected %d stored videos, got %d: %v", n, len(entries), names)
	}
	return nil
}

func (p *publishContext) thePublishedVideoShouldLast(seconds float64) error {
	entries, err := p.uploads()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "trimmed_") {
			continue
		}
		d, err := readDuration(filepath.Join(p.config.Media.UploadDirectory, e.Name()))
		if err != nil {
			return err
		}
		if d != seconds {
			return fmt.Errorf("expected published video to last %gs, got %gs", seconds, d)
		}
		return nil
	}
	return errors.New("no trimmed video was published")
}

func (p *publishContext) anEmailShouldBeSentTo(address string) error {
	req, err := p.sender.last()
	if err != nil {
		return err
	}
	for _, to := range req.To {
		if to.Address == address {
			return nil
		}
	}
	return fmt.Errorf("email was not sent to %s (to: %v)", address, req.To)
}

func (p *publishContext) theEmailShouldCopy(address string) error {
	req, err := p.sender.last()
	if err != nil {
		return err
	}
	for _, cc := range req.CC {
		if cc.Address == address {
			return nil
		}
	}
	return fmt.Errorf("email did not copy %s (cc: %v)", address, req.CC)
}

func (p *publishContext) theEmailLinkShouldStartWith(prefix string) error {
	req, err := p.sender.last()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(req.Link, prefix) {
		return fmt.Errorf("expected link to start with %q, got %q", prefix, req.Link)
	}
	return nil
}

func (p *publishContext) noEmailShouldBeSent() error {
	p.sender.mu.Lock()
	defer p.sender.mu.Unlock()
	if len(p.sender.sent) > 0 {
		return fmt.Errorf("expected no email, got %d", len(p.sender.sent))
	}
	return nil
}
