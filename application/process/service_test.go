package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-toolbox/application/ingest"
	appnotif "video-toolbox/application/notification"
	"video-toolbox/application/sharing"
	"video-toolbox/application/transcode"
	"video-toolbox/domain/asset"
	"video-toolbox/domain/notification"
)

// --- Mock implementations for testing ---

type mockUploader struct {
	calls []ingest.UploadInput
	body  string
	err   error
}

func (m *mockUploader) Upload(ctx context.Context, in ingest.UploadInput) (*asset.Asset, error) {
	b, _ := io.ReadAll(in.Body)
	m.body = string(b)
	m.calls = append(m.calls, in)
	if m.err != nil {
		return nil, m.err
	}
	return &asset.Asset{ID: 1, OwnerID: in.OwnerID, Path: "uploads/" + in.FileName, Size: int64(len(b)), Duration: 10}, nil
}

type mockTrimmer struct {
	calls []transcode.TrimInput
	err   error
}

func (m *mockTrimmer) Trim(ctx context.Context, in transcode.TrimInput) (*asset.Asset, error) {
	m.calls = append(m.calls, in)
	if m.err != nil {
		return nil, m.err
	}
	return &asset.Asset{ID: 2, OwnerID: in.OwnerID, Path: "uploads/trimmed_clip.mp4", Duration: in.End - in.Start}, nil
}

type mockIssuer struct {
	calls []sharing.IssueInput
	err   error
}

func (m *mockIssuer) Issue(ctx context.Context, in sharing.IssueInput) (*asset.ShareLink, error) {
	m.calls = append(m.calls, in)
	if m.err != nil {
		return nil, m.err
	}
	return &asset.ShareLink{Token: "tok", AssetID: in.AssetID, ExpiresAt: time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)}, nil
}

type mockNotifier struct {
	sent        []appnotif.ShareRequest
	resolveErr  error
	sendErr     error
	resolveArgs []string
}

func (m *mockNotifier) Recipients(entries []string) ([]notification.Recipient, error) {
	m.resolveArgs = entries
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	out := make([]notification.Recipient, len(entries))
	for i, e := range entries {
		out[i] = notification.Recipient{Name: strings.Split(e, "@")[0], Address: e}
	}
	return out, nil
}

func (m *mockNotifier) SendShareLink(req appnotif.ShareRequest) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, req)
	return nil
}

type fixture struct {
	uploader *mockUploader
	trimmer  *mockTrimmer
	issuer   *mockIssuer
	notifier *mockNotifier
	output   *bytes.Buffer
	source   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	source := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(source, []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		uploader: &mockUploader{},
		trimmer:  &mockTrimmer{},
		issuer:   &mockIssuer{},
		notifier: &mockNotifier{},
		output:   &bytes.Buffer{},
		source:   source,
	}
}

func (f *fixture) service(withNotifier bool) *Service {
	var n Notifier
	if withNotifier {
		n = f.notifier
	}
	return NewService(f.uploader, f.trimmer, f.issuer, n, func(token string) string {
		return "https://videos.example.com/api/v1.0/video/shared/" + token
	}, f.output)
}

func TestProcess_UploadAndShare(t *testing.T) {
	f := newFixture(t)

	result, err := f.service(false).Process(context.Background(), Input{OwnerID: "7", SourcePath: f.source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.uploader.calls) != 1 {
		t.Fatalf("expected one upload, got %d", len(f.uploader.calls))
	}
	up := f.uploader.calls[0]
	if up.ContentType != "video/mp4" || up.FileName != "clip.mp4" || up.OwnerID != "7" {
		t.Errorf("unexpected upload input: %+v", up)
	}
	if f.uploader.body != "video bytes" {
		t.Errorf("expected file contents to be streamed, got %q", f.uploader.body)
	}
	if len(f.trimmer.calls) != 0 {
		t.Error("expected no trim without --start/--end")
	}
	if result.Published.ID != 1 || f.issuer.calls[0].AssetID != 1 {
		t.Errorf("expected the upload itself to be shared, got %+v", f.issuer.calls)
	}
	if result.Link != "https://videos.example.com/api/v1.0/video/shared/tok" {
		t.Errorf("unexpected link %q", result.Link)
	}
	if !strings.Contains(f.output.String(), "[1/3] Uploading video...") {
		t.Errorf("expected numbered steps, got:\n%s", f.output.String())
	}
}

func TestProcess_TrimShareNotify(t *testing.T) {
	f := newFixture(t)
	expires := 2 * time.Hour

	result, err := f.service(true).Process(context.Background(), Input{
		OwnerID:    "7",
		SourcePath: f.source,
		StartTime:  "00:00:02",
		EndTime:    "7.5",
		ExpiresIn:  &expires,
		Notify:     []string{"jane@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.trimmer.calls) != 1 {
		t.Fatalf("expected one trim, got %d", len(f.trimmer.calls))
	}
	if tc := f.trimmer.calls[0]; tc.AssetID != 1 || tc.Start != 2 || tc.End != 7.5 {
		t.Errorf("unexpected trim input: %+v", tc)
	}
	if ic := f.issuer.calls[0]; ic.AssetID != 2 || ic.ExpiresIn == nil || *ic.ExpiresIn != expires {
		t.Errorf("expected trimmed asset shared for 2h, got %+v", ic)
	}
	if result.Notified != 1 || len(f.notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.sent))
	}
	sent := f.notifier.sent[0]
	if sent.VideoName != "trimmed_clip.mp4" || sent.Link != result.Link {
		t.Errorf("unexpected share email: %+v", sent)
	}
	if !strings.Contains(f.output.String(), "[5/5] Done...") {
		t.Errorf("expected five steps, got:\n%s", f.output.String())
	}
}

func TestProcess_ValidationHappensBeforeUpload(t *testing.T) {
	zero := time.Duration(0)

	tests := []struct {
		name         string
		input        func(src string) Input
		withNotifier bool
		resolveErr   error
		wantErr      string
	}{
		{
			name:    "missing owner",
			input:   func(src string) Input { return Input{SourcePath: src} },
			wantErr: "an owner is required",
		},
		{
			name:    "missing source",
			input:   func(src string) Input { return Input{OwnerID: "7", SourcePath: src + ".missing"} },
			wantErr: "source video not found",
		},
		{
			name:    "start without end",
			input:   func(src string) Input { return Input{OwnerID: "7", SourcePath: src, StartTime: "1"} },
			wantErr: "both --start and --end",
		},
		{
			name:    "bad timestamp",
			input:   func(src string) Input { return Input{OwnerID: "7", SourcePath: src, StartTime: "1", EndTime: "00:61:00"} },
			wantErr: "minutes must be 0-59",
		},
		{
			name:    "reversed window",
			input:   func(src string) Input { return Input{OwnerID: "7", SourcePath: src, StartTime: "5", EndTime: "2"} },
			wantErr: "must be before end",
		},
		{
			name:    "zero expiry",
			input:   func(src string) Input { return Input{OwnerID: "7", SourcePath: src, ExpiresIn: &zero} },
			wantErr: "--expires must be a positive duration",
		},
		{
			name:    "notify without email",
			input:   func(src string) Input { return Input{OwnerID: "7", SourcePath: src, Notify: []string{"a@b.com"}} },
			wantErr: "email notifications are not enabled",
		},
		{
			name:         "unknown contact",
			input:        func(src string) Input { return Input{OwnerID: "7", SourcePath: src, Notify: []string{"nobody"}} },
			withNotifier: true,
			resolveErr:   asset.Errorf(asset.ErrValidation, "Invalid notify recipients: nobody"),
			wantErr:      "Invalid notify recipients: nobody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.notifier.resolveErr = tt.resolveErr

			_, err := f.service(tt.withNotifier).Process(context.Background(), tt.input(f.source))
			if err == nil {
				t.Fatal("expected error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
			if len(f.uploader.calls) != 0 {
				t.Error("expected nothing to be uploaded")
			}
		})
	}
}

func TestProcess_FailuresPrintRecoveryCommands(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		notify   []string
		wantErr  string
		wantHint string
	}{
		{
			name:     "trim fails",
			setup:    func(f *fixture) { f.trimmer.err = asset.Errorf(asset.ErrTranscodeFailed, "Failed to trim video.") },
			wantErr:  "trim failed",
			wantHint: "video-toolbox trim --video 1 --start 1 --end 3 --owner 7",
		},
		{
			name:     "share fails",
			setup:    func(f *fixture) { f.issuer.err = asset.Errorf(asset.ErrStorage, "failed to check share token") },
			wantErr:  "share failed",
			wantHint: "video-toolbox share --video 2",
		},
		{
			name:     "email fails",
			setup:    func(f *fixture) { f.notifier.sendErr = errors.New("smtp down") },
			notify:   []string{"jane@example.com"},
			wantErr:  "email failed",
			wantHint: `video-toolbox share --video 2 --notify "jane@example.com"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			_, err := f.service(true).Process(context.Background(), Input{
				OwnerID:    "7",
				SourcePath: f.source,
				StartTime:  "1",
				EndTime:    "3",
				Notify:     tt.notify,
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q error, got %v", tt.wantErr, err)
			}
			if !strings.Contains(f.output.String(), tt.wantHint) {
				t.Errorf("expected recovery hint %q in output:\n%s", tt.wantHint, f.output.String())
			}
		})
	}
}

func TestProcess_UploadErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = asset.Errorf(asset.ErrRange, "Video duration must be between 1 and 60 seconds.")

	_, err := f.service(false).Process(context.Background(), Input{OwnerID: "7", SourcePath: f.source})
	if !errors.Is(err, asset.ErrRange) {
		t.Fatalf("expected range error to be preserved, got %v", err)
	}
	if len(f.issuer.calls) != 0 {
		t.Error("expected no link for a rejected upload")
	}
}
