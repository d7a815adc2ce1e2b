package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-toolbox/application/ingest"
	"video-toolbox/application/sharing"
	"video-toolbox/domain/asset"

	"github.com/spf13/cobra"
)

var (
	uploadFilePath    string
	uploadFromDir     string
	uploadContentType string
	uploadOwnerID     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Admit a local video file as an asset",
	Long: `Copy a local video into the upload directory, validate its type and
duration, and record it as a new asset.

Without --file, the most recently modified video in --from is used.
The content type is derived from the file extension unless --type is set.

Example:
  video-toolbox upload --file clip.mp4 --owner 7
  video-toolbox upload --from ~/Movies/OBS --owner 7`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFilePath, "file", "", "Path to the video file")
	uploadCmd.Flags().StringVar(&uploadFromDir, "from", "", "Directory to take the latest video from when --file is not set")
	uploadCmd.Flags().StringVar(&uploadContentType, "type", "", "Content type (defaults from the extension)")
	uploadCmd.Flags().StringVar(&uploadOwnerID, "owner", "", "Owner user ID (required)")
	uploadCmd.MarkFlagRequired("owner")
}

// VideoUploader admits a stream as a new asset
type VideoUploader interface {
	Upload(ctx context.Context, in ingest.UploadInput) (*asset.Asset, error)
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	path := uploadFilePath
	if path == "" {
		if uploadFromDir == "" {
			return fmt.Errorf("either --file or --from is required")
		}
		path, err = findLatestVideo(uploadFromDir)
		if err != nil {
			return fmt.Errorf("no video file specified and could not find latest: %w", err)
		}
	}

	app, err := NewApp(cmd.Context(), c, newLogger(c))
	if err != nil {
		return err
	}
	defer app.Close()

	return RunUploadWithDependencies(cmd.Context(), app.Ingest, uploadOwnerID, path, uploadContentType, os.Stdout)
}

// findLatestVideo finds the most recently modified video file in dir
func findLatestVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var latestPath string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasPrefix(sharing.ContentTypeFor(entry.Name()), "video/") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestPath = filepath.Join(dir, entry.Name())
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("no video files found in %s", dir)
	}

	return latestPath, nil
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	uploader VideoUploader,
	ownerID string,
	path string,
	contentType string,
	output OutputWriter,
) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer f.Close()

	if contentType == "" {
		contentType = sharing.ContentTypeFor(path)
	}

	fmt.Fprintf(output, "Uploading %s (%s)...\n", filepath.Base(path), contentType)

	a, err := uploader.Upload(ctx, ingest.UploadInput{
		OwnerID:     ownerID,
		FileName:    filepath.Base(path),
		ContentType: contentType,
		Body:        f,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Video uploaded successfully!\n")
	printAsset(output, a)
	return nil
}

func printAsset(output OutputWriter, a *asset.Asset) {
	fmt.Fprintf(output, "  ID: %d\n", a.ID)
	fmt.Fprintf(output, "  Size: %.2f MB\n", float64(a.Size)/1024/1024)
	fmt.Fprintf(output, "  Duration: %s\n", asset.TimestampFromSeconds(a.Duration))
	fmt.Fprintf(output, "  Path: %s\n", a.Path)
}
