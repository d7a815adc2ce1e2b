package cmd

import (
	"context"
	"fmt"
	"os"

	"video-toolbox/application/transcode"
	"video-toolbox/domain/asset"

	"github.com/spf13/cobra"
)

var (
	trimVideoID   int64
	trimStartTime string
	trimEndTime   string
	trimOwnerID   string
)

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Trim a stored video to a time window",
	Long: `Cut [start, end) out of a stored video into a new video.

Timestamps are seconds ("12.5") or HH:MM:SS[.mmm]. The end must not be
past the source duration.

Example:
  video-toolbox trim --video 3 --start 00:00:01.500 --end 00:00:07 --owner 7`,
	RunE: runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)
	trimCmd.Flags().Int64Var(&trimVideoID, "video", 0, "ID of the source video (required)")
	trimCmd.Flags().StringVar(&trimStartTime, "start", "", "Start timestamp (required)")
	trimCmd.Flags().StringVar(&trimEndTime, "end", "", "End timestamp (required)")
	trimCmd.Flags().StringVar(&trimOwnerID, "owner", "", "Owner of the new video (required)")
	trimCmd.MarkFlagRequired("video")
	trimCmd.MarkFlagRequired("start")
	trimCmd.MarkFlagRequired("end")
	trimCmd.MarkFlagRequired("owner")
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// VideoTrimmer derives a trimmed video
type VideoTrimmer interface {
	Trim(ctx context.Context, in transcode.TrimInput) (*asset.Asset, error)
}

func runTrim(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), c, newLogger(c))
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.VerifyEngine(cmd.Context()); err != nil {
		return err
	}

	return RunTrimWithDependencies(
		cmd.Context(),
		app.Transcode,
		trimOwnerID,
		trimVideoID,
		trimStartTime,
		trimEndTime,
		os.Stdout,
	)
}

// RunTrimWithDependencies runs the trim command with injected dependencies (for testing)
func RunTrimWithDependencies(
	ctx context.Context,
	trimmer VideoTrimmer,
	ownerID string,
	videoID int64,
	startTime string,
	endTime string,
	output OutputWriter,
) error {
	start, err := asset.ParseTimestamp(startTime)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := asset.ParseTimestamp(endTime)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	fmt.Fprintf(output, "Trimming video %d from %s to %s...\n", videoID, start, end)

	result, err := trimmer.Trim(ctx, transcode.TrimInput{
		OwnerID: ownerID,
		AssetID: videoID,
		Start:   start.Seconds(),
		End:     end.Seconds(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Video trimmed successfully!\n")
	printAsset(output, result)
	return nil
}
