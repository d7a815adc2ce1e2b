package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the media tools and the database are reachable",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// Check is one named readiness probe
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// ErrChecksFailed is returned when any check fails
var ErrChecksFailed = errors.New("one or more checks failed")

func runCheck(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), c, newLogger(c))
	if err != nil {
		return err
	}
	defer app.Close()

	return RunCheckWithDependencies(cmd.Context(), []Check{
		{Name: "media engine", Run: app.VerifyEngine},
		{Name: "database", Run: app.Store.Ping},
	}, os.Stdout)
}

// RunCheckWithDependencies runs every check and reports each outcome
func RunCheckWithDependencies(ctx context.Context, checks []Check, output OutputWriter) error {
	failed := 0
	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := check.Run(checkCtx)
		cancel()

		if err != nil {
			failed++
			fmt.Fprintf(output, "FAIL  %s: %v\n", check.Name, err)
			continue
		}
		fmt.Fprintf(output, "OK    %s\n", check.Name)
	}

	if failed > 0 {
		return fmt.Errorf("%w (%d of %d)", ErrChecksFailed, failed, len(checks))
	}
	return nil
}
