//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"video-toolbox/application/sharing"
	"video-toolbox/cmd"
	"video-toolbox/infrastructure/auth"
	"video-toolbox/infrastructure/config"

	"github.com/cucumber/godog"
)

const featureSecret = "feature-secret"

type apiContext struct {
	tempDir   string
	sourceDir string
	config    *config.Config
	app       *cmd.App
	server    *httptest.Server
	runner    *scriptedRunner
	clock     *featureClock
	token     string

	status  int
	header  http.Header
	body    []byte
	payload map[string]any

	videos map[string]int64
	link   string
}

var SharedAPIContext = &apiContext{}

func InitializeAPIScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedAPIContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		*testCtx = apiContext{}
		tempDir, err := os.MkdirTemp("", "api-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.sourceDir = filepath.Join(tempDir, "src")
		testCtx.videos = make(map[string]int64)
		testCtx.runner = &scriptedRunner{}
		testCtx.clock = newFeatureClock()
		return c, os.MkdirAll(testCtx.sourceDir, 0o755)
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.server != nil {
			testCtx.server.Close()
		}
		if testCtx.app != nil {
			testCtx.app.Close()
		}
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^the video service is running$`, func() error { return testCtx.theVideoServiceIsRunning(60) })
	ctx.Step(`^the video service is running with a (\d+) second upload limit$`, testCtx.theVideoServiceIsRunning)
	ctx.Step(`^I am signed in as user "([^"]*)"$`, testCtx.iAmSignedInAsUser)
	ctx.Step(`^I am not signed in$`, testCtx.iAmNotSignedIn)
	ctx.Step(`^a local video "([^"]*)" lasting ([\d.]+) seconds$`, testCtx.aLocalVideoLasting)
	ctx.Step(`^a local file "([^"]*)" containing "([^"]*)"$`, testCtx.aLocalFileContaining)

	ctx.Step(`^I upload "([^"]*)"$`, testCtx.iUpload)
	ctx.Step(`^I upload "([^"]*)" as "([^"]*)"$`, testCtx.iUploadAs)
	ctx.Step(`^I upload "([^"]*)" and call it "([^"]*)"$`, testCtx.iUploadAndCallIt)
	ctx.Step(`^I trim "([^"]*)" from "([^"]*)" to "([^"]*)"$`, testCtx.iTrim)
	ctx.Step(`^I trim "([^"]*)" from "([^"]*)" to "([^"]*)" and call it "([^"]*)"$`, testCtx.iTrimAndCallIt)
	ctx.Step(`^I merge "([^"]*)"$`, testCtx.iMerge)
	ctx.Step(`^I merge "([^"]*)" and call it "([^"]*)"$`, testCtx.iMergeAndCallIt)
	ctx.Step(`^I merge video ids "([^"]*)"$`, testCtx.iMergeVideoIDs)
	ctx.Step(`^I share "([^"]*)"$`, func(name string) error { return testCtx.iShare(name, "") })
	ctx.Step(`^I share "([^"]*)" for (\d+) seconds$`, testCtx.iShare)
	ctx.Step(`^I share video id (\d+)$`, testCtx.iShareVideoID)
	ctx.Step(`^the engine fails on the next run$`, testCtx.theEngineFailsOnTheNextRun)
	ctx.Step(`^(\d+) seconds pass$`, testCtx.secondsPass)

	ctx.Step(`^I open the shared link$`, func() error { return testCtx.iOpenTheSharedLink("") })
	ctx.Step(`^I open the shared link with action "([^"]*)"$`, testCtx.iOpenTheSharedLink)
	ctx.Step(`^I open the shared link with range "([^"]*)"$`, testCtx.iOpenTheSharedLinkWithRange)
	ctx.Step(`^I open the shared link for token "([^"]*)"$`, testCtx.iOpenTheSharedLinkForToken)
	ctx.Step(`^I request "([^"]*)" "([^"]*)"$`, testCtx.iRequest)

	ctx.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	ctx.Step(`^the response message should be "([^"]*)"$`, testCtx.theResponseMessageShouldBe)
	ctx.Step(`^the response error kind should be "([^"]*)"$`, testCtx.theResponseErrorKindShouldBe)
	ctx.Step(`^the response video should last ([\d.]+) seconds$`, testCtx.theResponseVideoShouldLast)
	ctx.Step(`^the response should contain a share link$`, testCtx.theResponseShouldContainAShareLink)
	ctx.Step(`^the link should expire (\d+) seconds from now$`, testCtx.theLinkShouldExpireFromNow)
	ctx.Step(`^the delivered video should last ([\d.]+) seconds$`, testCtx.theDeliveredVideoShouldLast)
	ctx.Step(`^the delivered body should be "([^"]*)"$`, testCtx.theDeliveredBodyShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	ctx.Step(`^(\d+) files? should be stored$`, testCtx.filesShouldBeStored)
}

// --- Setup ---

func (a *apiContext) theVideoServiceIsRunning(maxSeconds int) error {
	cfg := config.Default()
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = filepath.Join(a.tempDir, "videos.db")
	cfg.Media.UploadDirectory = filepath.Join(a.tempDir, "uploads")
	cfg.Media.MaxDurationSeconds = float64(maxSeconds)
	cfg.Auth.JWTSecret = featureSecret
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.config = cfg

	app, err := cmd.NewApp(context.Background(), cfg, nil,
		cmd.WithEngine(scriptedEngine(a.runner)),
		cmd.WithClock(a.clock.Now),
	)
	if err != nil {
		return err
	}
	a.app = app
	a.server = httptest.NewServer(app.Handler())
	return nil
}

func (a *apiContext) iAmSignedInAsUser(userID string) error {
	token, err := auth.NewIssuer(featureSecret).Mint(userID, time.Hour)
	if err != nil {
		return err
	}
	a.token = token
	return nil
}

func (a *apiContext) iAmNotSignedIn() error {
	a.token = ""
	return nil
}

func (a *apiContext) aLocalVideoLasting(name string, seconds float64) error {
	return writeVideo(filepath.Join(a.sourceDir, name), seconds)
}

func (a *apiContext) aLocalFileContaining(name, content string) error {
	return os.WriteFile(filepath.Join(a.sourceDir, name), []byte(content), 0o644)
}

func (a *apiContext) theEngineFailsOnTheNextRun() error {
	a.runner.mu.Lock()
	defer a.runner.mu.Unlock()
	a.runner.failNext = true
	return nil
}

func (a *apiContext) secondsPass(n int) error {
	a.clock.Advance(time.Duration(n) * time.Second)
	return nil
}

// --- Requests ---

func (a *apiContext) do(req *http.Request) error {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	a.status = resp.StatusCode
	a.header = resp.Header
	a.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	a.payload = nil
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(a.body, &a.payload); err != nil {
			return fmt.Errorf("invalid JSON response %q: %w", a.body, err)
		}
	}
	return nil
}

func (a *apiContext) postJSON(path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *apiContext) iUpload(name string) error {
	return a.iUploadAs(name, sharing.ContentTypeFor(name))
}

func (a *apiContext) iUploadAs(name, contentType string) error {
	content, err := os.ReadFile(filepath.Join(a.sourceDir, name))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/api/v1.0/video/upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req)
}

func (a *apiContext) iUploadAndCallIt(file, name string) error {
	if err := a.iUpload(file); err != nil {
		return err
	}
	return a.remember(name)
}

func (a *apiContext) iTrim(name, start, end string) error {
	id, err := a.videoID(name)
	if err != nil {
		return err
	}
	return a.postJSON("/api/v1.0/video/trim", map[string]any{
		"video_id":   id,
		"start_time": timeValue(start),
		"end_time":   timeValue(end),
	})
}

func (a *apiContext) iTrimAndCallIt(source, start, end, name string) error {
	if err := a.iTrim(source, start, end); err != nil {
		return err
	}
	return a.remember(name)
}

func (a *apiContext) iMerge(names string) error {
	var ids []int64
	for _, name := range strings.Split(names, ",") {
		id, err := a.videoID(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return a.postJSON("/api/v1.0/video/merge", map[string]any{"video_ids": ids})
}

func (a *apiContext) iMergeAndCallIt(names, name string) error {
	if err := a.iMerge(names); err != nil {
		return err
	}
	return a.remember(name)
}

func (a *apiContext) iMergeVideoIDs(raw string) error {
	ids := []int64{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return a.postJSON("/api/v1.0/video/merge", map[string]any{"video_ids": ids})
}

func (a *apiContext) iShare(name, seconds string) error {
	id, err := a.videoID(name)
	if err != nil {
		return err
	}
	body := map[string]any{"video_id": id}
	if seconds != "" {
		n, err := strconv.Atoi(seconds)
		if err != nil {
			return err
		}
		body["expiry_duration"] = n
	}
	if err := a.postJSON("/api/v1.0/video/share", body); err != nil {
		return err
	}
	if link, ok := a.payload["link"].(string); ok {
		a.link = link
	}
	return nil
}

func (a *apiContext) iShareVideoID(id int) error {
	return a.postJSON("/api/v1.0/video/share", map[string]any{"video_id": id})
}

func (a *apiContext) iOpenTheSharedLink(action string) error {
	if a.link == "" {
		return fmt.Errorf("no share link has been created")
	}
	url := a.link
	if action != "" {
		url += "?action=" + action
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return a.do(req)
}

func (a *apiContext) iOpenTheSharedLinkWithRange(rangeHeader string) error {
	req, err := http.NewRequest(http.MethodGet, a.link, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", rangeHeader)
	return a.do(req)
}

func (a *apiContext) iOpenTheSharedLinkForToken(token string) error {
	req, err := http.NewRequest(http.MethodGet, a.server.URL+"/api/v1.0/video/shared/"+token, nil)
	if err != nil {
		return err
	}
	return a.do(req)
}

func (a *apiContext) iRequest(method, path string) error {
	req, err := http.NewRequest(method, a.server.URL+path, nil)
	if err != nil {
		return err
	}
	return a.do(req)
}

// timeValue sends plain numbers as JSON numbers and clock times as strings
func timeValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func (a *apiContext) remember(name string) error {
	video, ok := a.payload["video"].(map[string]any)
	if !ok {
		return fmt.Errorf("response has no video (status %d): %s", a.status, a.body)
	}
	id, ok := video["id"].(float64)
	if !ok {
		return fmt.Errorf("response video has no id: %s", a.body)
	}
	a.videos[name] = int64(id)
	return nil
}

func (a *apiContext) videoID(name string) (int64, error) {
	id, ok := a.videos[name]
	if !ok {
		return 0, fmt.Errorf("no video called %q", name)
	}
	return id, nil
}

// --- Assertions ---

func (a *apiContext) theResponseStatusShouldBe(code int) error {
	if a.status != code {
		return fmt.Errorf("expected status %d, got %d: %s", code, a.status, a.body)
	}
	return nil
}

func (a *apiContext) theResponseMessageShouldBe(msg string) error {
	for _, key := range []string{"message", "error"} {
		if got, ok := a.payload[key].(string); ok {
			if got != msg {
				return fmt.Errorf("expected message %q, got %q", msg, got)
			}
			return nil
		}
	}
	if got := strings.TrimSpace(string(a.body)); got != msg {
		return fmt.Errorf("expected message %q, got %q", msg, got)
	}
	return nil
}

func (a *apiContext) theResponseErrorKindShouldBe(kind string) error {
	if got, _ := a.payload["kind"].(string); got != kind {
		return fmt.Errorf("expected error kind %q, got %q (%s)", kind, got, a.body)
	}
	return nil
}

func (a *apiContext) theResponseVideoShouldLast(seconds float64) error {
	video, ok := a.payload["video"].(map[string]any)
	if !ok {
		return fmt.Errorf("response has no video: %s", a.body)
	}
	if got, _ := video["duration"].(float64); got != seconds {
		return fmt.Errorf("expected duration %g, got %g", seconds, got)
	}
	return nil
}

func (a *apiContext) theResponseShouldContainAShareLink() error {
	prefix := a.server.URL + "/api/v1.0/video/shared/"
	if !strings.HasPrefix(a.link, prefix) || len(a.link) == len(prefix) {
		return fmt.Errorf("expected a link under %s, got %q", prefix, a.link)
	}
	return nil
}

func (a *apiContext) theLinkShouldExpireFromNow(seconds int) error {
	raw, _ := a.payload["expiry_time"].(string)
	expiry, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("invalid expiry_time %q: %w", raw, err)
	}
	want := a.clock.Now().Add(time.Duration(seconds) * time.Second)
	if diff := want.Sub(expiry); diff < 0 || diff > time.Second {
		return fmt.Errorf("expected expiry near %s, got %s", want, expiry)
	}
	return nil
}

func (a *apiContext) theDeliveredVideoShouldLast(seconds float64) error {
	want := fmt.Sprintf("duration=%g", seconds)
	if string(a.body) != want {
		return fmt.Errorf("expected delivered content %q, got %q", want, a.body)
	}
	return nil
}

func (a *apiContext) theDeliveredBodyShouldBe(want string) error {
	if string(a.body) != want {
		return fmt.Errorf("expected body %q, got %q", want, a.body)
	}
	return nil
}

func (a *apiContext) theResponseHeaderShouldBe(name, want string) error {
	if got := a.header.Get(name); got != want {
		return fmt.Errorf("expected %s %q, got %q", name, want, got)
	}
	return nil
}

func (a *apiContext) filesShouldBeStored(n int) error {
	entries, err := os.ReadDir(a.config.Media.UploadDirectory)
	if err != nil {
		return err
	}
	if len(entries) != n {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return fmt.Errorf("expected %d stored files, got %d: %v", n, len(entries), names)
	}
	return nil
}
