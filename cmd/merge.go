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
	mergeVideoIDs []int64
	mergeOwnerID  string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join stored videos, in order, into a new video",
	Long: `Concatenate stored videos in the order given into a new video.

Example:
  video-toolbox merge --video 3 --video 5 --video 4 --owner 7
  video-toolbox merge --video 3,5,4 --owner 7`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().Int64SliceVar(&mergeVideoIDs, "video", nil, "Source video IDs in playback order (required, can be repeated)")
	mergeCmd.Flags().StringVar(&mergeOwnerID, "owner", "", "Owner of the new video (required)")
	mergeCmd.MarkFlagRequired("video")
	mergeCmd.MarkFlagRequired("owner")
}

// VideoConcatenator joins videos into a new one
type VideoConcatenator interface {
	Concatenate(ctx context.Context, in transcode.ConcatInput) (*asset.Asset, error)
}

func runMerge(cmd *cobra.Command, args []string) error {
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

	return RunMergeWithDependencies(cmd.Context(), app.Transcode, mergeOwnerID, mergeVideoIDs, os.Stdout)
}

// RunMergeWithDependencies runs the merge command with injected dependencies (for testing)
func RunMergeWithDependencies(
	ctx context.Context,
	concatenator VideoConcatenator,
	ownerID string,
	videoIDs []int64,
	output OutputWriter,
) error {
	fmt.Fprintf(output, "Merging %d videos...\n", len(videoIDs))

	result, err := concatenator.Concatenate(ctx, transcode.ConcatInput{
		OwnerID:  ownerID,
		AssetIDs: videoIDs,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Video merged successfully!\n")
	printAsset(output, result)
	return nil
}
