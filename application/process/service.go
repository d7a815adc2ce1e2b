package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-toolbox/application/ingest"
	appnotif "video-toolbox/application/notification"
	"video-toolbox/application/sharing"
	"video-toolbox/application/transcode"
	"video-toolbox/domain/asset"
	"video-toolbox/domain/notification"
)

// Uploader admits a local file as an asset
type Uploader interface {
	Upload(ctx context.Context, in ingest.UploadInput) (*asset.Asset, error)
}

// Trimmer derives a trimmed asset
type Trimmer interface {
	Trim(ctx context.Context, in transcode.TrimInput) (*asset.Asset, error)
}

// LinkIssuer mints share links
type LinkIssuer interface {
	Issue(ctx context.Context, in sharing.IssueInput) (*asset.ShareLink, error)
}

// Notifier emails share links
type Notifier interface {
	Recipients(entries []string) ([]notification.Recipient, error)
	SendShareLink(req appnotif.ShareRequest) error
}

// LinkBuilder turns a share token into a public URL
type LinkBuilder func(token string) string

// Service publishes a local recording: upload, optional trim, share and notify
type Service struct {
	uploader Uploader
	trimmer  Trimmer
	issuer   LinkIssuer
	notifier Notifier // nil when email is disabled
	linkFor  LinkBuilder
	output   io.Writer
}

// NewService creates a new publish workflow
func NewService(
	uploader Uploader,
	trimmer Trimmer,
	issuer LinkIssuer,
	notifier Notifier,
	linkFor LinkBuilder,
	output io.Writer,
) *Service {
	return &Service{
		uploader: uploader,
		trimmer:  trimmer,
		issuer:   issuer,
		notifier: notifier,
		linkFor:  linkFor,
		output:   output,
	}
}

// Input contains all input parameters for a publish run
type Input struct {
	OwnerID     string
	SourcePath  string
	ContentType string         // derived from the extension when empty
	StartTime   string         // optional; seconds or HH:MM:SS[.mmm]
	EndTime     string         // required when StartTime is set
	ExpiresIn   *time.Duration // nil means the maximum
	Notify      []string       // addresses or contact names
}

// Result contains the results of a successful run
type Result struct {
	Uploaded  *asset.Asset
	Published *asset.Asset // the trimmed asset, or Uploaded when no trim was requested
	Link      string
	ExpiresAt time.Time
	Notified  int
}

// ValidationError contains details about a validation failure with suggestions
type ValidationError struct {
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s\n\nTo fix this, run:\n  %s", e.Message, e.Suggestion)
	}
	return e.Message
}

type plan struct {
	trim       bool
	start, end asset.Timestamp
	recipients []notification.Recipient
}

// Process runs the complete workflow. Every input is checked before the
// first step so a bad flag never leaves a half-published video behind.
func (s *Service) Process(ctx context.Context, input Input) (*Result, error) {
	startTime := time.Now()

	p, err := s.validateInputs(input)
	if err != nil {
		return nil, err
	}

	steps := 3
	if p.trim {
		steps++
	}
	if len(p.recipients) > 0 {
		steps++
	}
	step := 0
	next := func(label string) {
		step++
		fmt.Fprintf(s.output, "[%d/%d] %s...\n", step, steps, label)
	}

	fmt.Fprintf(s.output, "Using source: %s\n\n", filepath.Base(input.SourcePath))

	next("Uploading video")
	uploaded, err := s.upload(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	fmt.Fprintf(s.output, "      Asset %d (%.1fs)\n\n", uploaded.ID, uploaded.Duration)

	result := &Result{Uploaded: uploaded, Published: uploaded}

	if p.trim {
		next("Trimming video")
		trimmed, err := s.trimmer.Trim(ctx, transcode.TrimInput{
			OwnerID: input.OwnerID,
			AssetID: uploaded.ID,
			Start:   p.start.Seconds(),
			End:     p.end.Seconds(),
		})
		if err != nil {
			s.showRecoveryCommands("trim", input, uploaded.ID)
			return nil, fmt.Errorf("trim failed: %w", err)
		}
		fmt.Fprintf(s.output, "      Asset %d (%.1fs)\n\n", trimmed.ID, trimmed.Duration)
		result.Published = trimmed
	}

	next("Creating share link")
	link, err := s.issuer.Issue(ctx, sharing.IssueInput{AssetID: result.Published.ID, ExpiresIn: input.ExpiresIn})
	if err != nil {
		s.showRecoveryCommands("share", input, result.Published.ID)
		return nil, fmt.Errorf("share failed: %w", err)
	}
	result.Link = s.linkFor(link.Token)
	result.ExpiresAt = link.ExpiresAt
	fmt.Fprintf(s.output, "      Link: %s\n", result.Link)
	fmt.Fprintf(s.output, "      Expires: %s\n\n", link.ExpiresAt.UTC().Format(time.RFC3339))

	if len(p.recipients) > 0 {
		next("Sending email")
		err := s.notifier.SendShareLink(appnotif.ShareRequest{
			To:        p.recipients,
			Link:      result.Link,
			ExpiresAt: link.ExpiresAt,
			VideoName: result.Published.Basename(),
		})
		if err != nil {
			s.showRecoveryCommands("notify", input, result.Published.ID)
			return nil, fmt.Errorf("email failed: %w", err)
		}
		for _, r := range p.recipients {
			fmt.Fprintf(s.output, "      Sent to: %s <%s>\n", r.Name, r.Address)
		}
		fmt.Fprintln(s.output)
		result.Notified = len(p.recipients)
	}

	next("Done")
	fmt.Fprintf(s.output, "      Published in %s\n", time.Since(startTime).Round(time.Millisecond))
	return result, nil
}

func (s *Service) validateInputs(input Input) (*plan, error) {
	if input.OwnerID == "" {
		return nil, &ValidationError{Message: "an owner is required"}
	}
	if _, err := os.Stat(input.SourcePath); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("source video not found: %s", input.SourcePath)}
	}

	p := &plan{}

	if input.StartTime != "" || input.EndTime != "" {
		if input.StartTime == "" || input.EndTime == "" {
			return nil, &ValidationError{
				Message:    "both --start and --end are needed to trim",
				Suggestion: "video-toolbox process --file <path> --owner <id> --start 00:00:01 --end 00:00:05",
			}
		}
		start, err := asset.ParseTimestamp(input.StartTime)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		end, err := asset.ParseTimestamp(input.EndTime)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		if !start.Before(end) {
			return nil, &ValidationError{Message: fmt.Sprintf("start (%s) must be before end (%s)", start, end)}
		}
		p.trim = true
		p.start, p.end = start, end
	}

	if input.ExpiresIn != nil && *input.ExpiresIn <= 0 {
		return nil, &ValidationError{Message: "--expires must be a positive duration"}
	}

	if len(input.Notify) > 0 {
		if s.notifier == nil {
			return nil, &ValidationError{
				Message:    "email notifications are not enabled",
				Suggestion: "video-toolbox setup",
			}
		}
		recipients, err := s.notifier.Recipients(input.Notify)
		if err != nil {
			return nil, &ValidationError{
				Message:    asset.Message(err),
				Suggestion: "video-toolbox config list contacts",
			}
		}
		p.recipients = recipients
	}

	return p, nil
}

func (s *Service) upload(ctx context.Context, input Input) (*asset.Asset, error) {
	f, err := os.Open(input.SourcePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contentType := input.ContentType
	if contentType == "" {
		contentType = sharing.ContentTypeFor(input.SourcePath)
	}

	return s.uploader.Upload(ctx, ingest.UploadInput{
		OwnerID:     input.OwnerID,
		FileName:    filepath.Base(input.SourcePath),
		ContentType: contentType,
		Body:        f,
	})
}

// showRecoveryCommands prints the commands that finish the run by hand,
// starting at the step that failed
func (s *Service) showRecoveryCommands(failed string, input Input, assetID int64) {
	var cmds []string
	if failed == "trim" {
		cmds = append(cmds, fmt.Sprintf("video-toolbox trim --video %d --start %s --end %s --owner %s",
			assetID, input.StartTime, input.EndTime, input.OwnerID))
		cmds = append(cmds, "video-toolbox share --video <trimmed id>"+notifyFlags(input.Notify))
	}
	if failed == "share" || failed == "notify" {
		cmds = append(cmds, fmt.Sprintf("video-toolbox share --video %d", assetID)+notifyFlags(input.Notify))
	}

	fmt.Fprintln(s.output)
	fmt.Fprintln(s.output, "To resume manually, run:")
	for _, c := range cmds {
		fmt.Fprintf(s.output, "  %s\n", c)
	}
	fmt.Fprintln(s.output)
}

func notifyFlags(notify []string) string {
	var b strings.Builder
	for _, n := range notify {
		fmt.Fprintf(&b, " --notify %q", n)
	}
	return b.String()
}
