package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	appnotif "video-toolbox/application/notification"
	appprocess "video-toolbox/application/process"
	"video-toolbox/application/sharing"
	"video-toolbox/domain/asset"
	"video-toolbox/domain/notification"

	"github.com/spf13/cobra"
)

var (
	shareVideoID int64
	shareExpires time.Duration
	shareNotify  []string
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create an expiring share link for a stored video",
	Long: `Create a share link for a stored video and optionally email it.

Recipients can be given as email addresses or as contact names (key, first
name, last name or full name). Multiple recipients can be specified using
multiple --notify flags or comma-separated values. Default CCs from the
config are added.

Examples:
  # Share for the maximum duration
  video-toolbox share --video 3

  # Share for two hours and email it
  video-toolbox share --video 3 --expires 2h --notify jane --notify john@example.com
  video-toolbox share --video 3 --notify "jane,john"`,
	RunE: runShare,
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.Flags().Int64Var(&shareVideoID, "video", 0, "ID of the video to share (required)")
	shareCmd.Flags().DurationVar(&shareExpires, "expires", 0, "Link lifetime (default sharing.max_duration)")
	shareCmd.Flags().StringArrayVar(&shareNotify, "notify", nil, "Recipient(s) by address or contact name (can be repeated or comma-separated)")
	shareCmd.MarkFlagRequired("video")
}

// ShareLinkIssuer mints share links
type ShareLinkIssuer interface {
	Issue(ctx context.Context, in sharing.IssueInput) (*asset.ShareLink, error)
}

// AssetLookup finds a stored video by id
type AssetLookup interface {
	GetAsset(ctx context.Context, id int64) (*asset.Asset, error)
}

// ShareNotifier resolves recipients and emails links
type ShareNotifier interface {
	Recipients(entries []string) ([]notification.Recipient, error)
	SendShareLink(req appnotif.ShareRequest) error
}

// ShareInput contains the input parameters for the share command
type ShareInput struct {
	VideoID int64
	Expires time.Duration // zero means the maximum
	Notify  []string
}

func runShare(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	app, err := NewApp(ctx, c, newLogger(c), WithOAuthPrompt(os.Stdout))
	if err != nil {
		return fmt.Errorf("failed to set up: %w", err)
	}
	defer app.Close()

	var notifier ShareNotifier
	if app.Notifier != nil {
		notifier = app.Notifier
	}

	return RunShareWithDependencies(
		ctx,
		app.Issuer,
		app.Store,
		notifier,
		LinkBuilder(c),
		ShareInput{VideoID: shareVideoID, Expires: shareExpires, Notify: shareNotify},
		os.Stdout,
	)
}

// RunShareWithDependencies runs the share command with injected dependencies (for testing).
// notifier may be nil when email is disabled.
func RunShareWithDependencies(
	ctx context.Context,
	issuer ShareLinkIssuer,
	assets AssetLookup,
	notifier ShareNotifier,
	linkFor appprocess.LinkBuilder,
	input ShareInput,
	output OutputWriter,
) error {
	var recipients []notification.Recipient
	if len(input.Notify) > 0 {
		if notifier == nil {
			return fmt.Errorf("email notifications are not enabled; set email.enabled in the config")
		}
		var err error
		recipients, err = notifier.Recipients(input.Notify)
		if err != nil {
			return fmt.Errorf("failed to lookup recipients: %w", err)
		}
	}

	var expires *time.Duration
	if input.Expires != 0 {
		expires = &input.Expires
	}

	link, err := issuer.Issue(ctx, sharing.IssueInput{AssetID: input.VideoID, ExpiresIn: expires})
	if err != nil {
		return err
	}

	url := linkFor(link.Token)
	fmt.Fprintf(output, "Shared link created successfully!\n")
	fmt.Fprintf(output, "  Link: %s\n", url)
	fmt.Fprintf(output, "  Download: %s?action=download\n", url)
	fmt.Fprintf(output, "  Expires: %s\n", link.ExpiresAt.UTC().Format(time.RFC3339))

	if len(recipients) == 0 {
		return nil
	}

	name := "a video"
	if a, err := assets.GetAsset(ctx, input.VideoID); err == nil {
		name = a.Basename()
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Sending email to: %s\n", formatRecipients(recipients))
	err = notifier.SendShareLink(appnotif.ShareRequest{
		To:        recipients,
		Link:      url,
		ExpiresAt: link.ExpiresAt,
		VideoName: name,
	})
	if err != nil {
		return fmt.Errorf("link created but the email failed: %w", err)
	}

	fmt.Fprintf(output, "Email sent successfully!\n")
	return nil
}

func formatRecipients(recipients []notification.Recipient) string {
	names := make([]string, len(recipients))
	for i, r := range recipients {
		names[i] = fmt.Sprintf("%s <%s>", r.Name, r.Address)
	}
	return strings.Join(names, ", ")
}
