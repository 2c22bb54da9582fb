package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"runmeter.sh/stats"
	"runmeter.sh/telemetry"
)

var execName string

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec --name NAME -- COMMAND [ARGS...]",
		Short: "Run a command and record its execution window",
		Long: `Run a command with stdio passed through, recording when it started
and how long it took so a later "runmeter finish --command NAME" can
scope the report to exactly this invocation.

The child's exit code becomes runmeter's exit code.`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runExec,
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&execName, "name", "", "record name for this command (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	started := time.Now()
	runErr := child.Run()
	duration := time.Since(started).Round(time.Second)

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// the command never ran, so there is no window to record
			return fmt.Errorf("failed to run %s: %w", args[0], runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	record := telemetry.CommandRecord{
		Name:        execName,
		StartMs:     stats.Millis(started),
		DurationSec: int64(duration / time.Second),
		ExitCode:    exitCode,
	}
	if err := saveCommandRecord(resolveStateDir(), record); err != nil {
		printWarning("Failed to record command window: %v", err)
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
