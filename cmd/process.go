package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	appprocess "video-toolbox/application/process"
	"video-toolbox/infrastructure/config"
	"video-toolbox/infrastructure/httpapi"

	"github.com/spf13/cobra"
)

var (
	processInputPath   string
	processFromDir     string
	processOwnerID     string
	processStartTime   string
	processEndTime     string
	processExpires     time.Duration
	processNotify      []string
	processContentType string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Publish a recording through the complete workflow",
	Long: `Publish a local recording through the complete workflow:
1. Upload and validate the video
2. Trim it to --start/--end (optional)
3. Create an expiring share link
4. Email the link to --notify recipients (optional)

Every flag is validated before the upload starts. If a later step fails,
the commands to finish by hand are printed.

Example:
  video-toolbox process --input clip.mp4 --owner 7 --start 00:00:02 --end 00:00:12 --notify jane

  video-toolbox process \
    --from ~/Movies/OBS \
    --owner 7 \
    --expires 6h \
    --notify jane@example.com --notify john`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processInputPath, "input", "", "Path to source video file (defaults to newest in --from)")
	processCmd.Flags().StringVar(&processFromDir, "from", "", "Directory to take the newest video from")
	processCmd.Flags().StringVar(&processOwnerID, "owner", "", "Owner user ID (required)")
	processCmd.Flags().StringVar(&processStartTime, "start", "", "Trim start, seconds or HH:MM:SS[.mmm]")
	processCmd.Flags().StringVar(&processEndTime, "end", "", "Trim end, seconds or HH:MM:SS[.mmm]")
	processCmd.Flags().DurationVar(&processExpires, "expires", 0, "Link lifetime (default sharing.max_duration)")
	processCmd.Flags().StringArrayVar(&processNotify, "notify", nil, "Recipient address or contact name (can be repeated)")
	processCmd.Flags().StringVar(&processContentType, "type", "", "Content type (defaults from the extension)")

	processCmd.MarkFlagRequired("owner")
}

// ProcessInput contains the input parameters for process command
type ProcessInput struct {
	InputPath   string
	OwnerID     string
	StartTime   string
	EndTime     string
	Expires     time.Duration
	Notify      []string
	ContentType string
}

func runProcess(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	path := processInputPath
	if path == "" {
		if processFromDir == "" {
			return fmt.Errorf("either --input or --from is required")
		}
		path, err = findLatestVideo(processFromDir)
		if err != nil {
			return fmt.Errorf("no video file specified and could not find latest: %w", err)
		}
	}

	ctx := cmd.Context()

	app, err := NewApp(ctx, c, newLogger(c), WithOAuthPrompt(os.Stdout))
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.VerifyEngine(ctx); err != nil {
		return err
	}

	return RunProcessWithDependencies(ctx, app, ProcessInput{
		InputPath:   path,
		OwnerID:     processOwnerID,
		StartTime:   processStartTime,
		EndTime:     processEndTime,
		Expires:     processExpires,
		Notify:      processNotify,
		ContentType: processContentType,
	}, os.Stdout)
}

// RunProcessWithDependencies runs the process command against a wired app (for testing)
func RunProcessWithDependencies(ctx context.Context, app *App, input ProcessInput, output OutputWriter) error {
	var notifier appprocess.Notifier
	if app.Notifier != nil {
		notifier = app.Notifier
	}

	service := appprocess.NewService(
		app.Ingest,
		app.Transcode,
		app.Issuer,
		notifier,
		LinkBuilder(app.Config),
		output,
	)

	var expires *time.Duration
	if input.Expires != 0 {
		expires = &input.Expires
	}

	result, err := service.Process(ctx, appprocess.Input{
		OwnerID:     input.OwnerID,
		SourcePath:  input.InputPath,
		ContentType: input.ContentType,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		ExpiresIn:   expires,
		Notify:      input.Notify,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "\nShare link: %s\n", result.Link)
	return nil
}

// LinkBuilder makes share URLs outside a request, from public_base_url or
// the listen address
func LinkBuilder(c *config.Config) appprocess.LinkBuilder {
	base := c.Server.PublicBaseURL
	if base == "" {
		addr := c.Server.Address
		if strings.HasPrefix(addr, ":") {
			addr = "localhost" + addr
		}
		base = "http://" + addr
	}
	return func(token string) string {
		return httpapi.SharedURL(base, token)
	}
}
