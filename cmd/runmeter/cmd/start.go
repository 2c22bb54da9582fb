package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"runmeter.sh/collector"
)

var (
	startPort      int
	startFrequency time.Duration
	startWait      time.Duration
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Launch the sampling daemon in the background",
		Long: `Start the collector daemon detached from the current shell and wait
until its query interface answers. Sampling continues until
"runmeter finish" stops it.

Starting twice is harmless: a healthy daemon is left alone.`,
		RunE: runStart,
	}

	cmd.Flags().IntVar(&startPort, "port", 0, "query interface port (0 picks a free port)")
	cmd.Flags().DurationVar(&startFrequency, "frequency", 0, "sampling interval (default 5s)")
	cmd.Flags().DurationVar(&startWait, "wait", 5*time.Second, "how long to wait for the daemon to come up")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	dir := resolveStateDir()

	if state, err := collector.ReadState(dir); err == nil {
		if processAlive(state.PID) {
			printWarning("Collector already running (pid %d, port %d)", state.PID, state.Port)
			return nil
		}
		// stale state from a dead daemon
		collector.RemoveState(dir)
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	logPath := filepath.Join(dir, "collector.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open daemon log: %w", err)
	}
	defer logFile.Close()

	daemon := exec.Command(self, "collect")
	daemon.Env = append(os.Environ(), "RUNMETER_STATE_DIR="+dir)
	if cmd.Flags().Changed("port") {
		daemon.Env = append(daemon.Env, fmt.Sprintf("RUNMETER_PORT=%d", startPort))
	}
	if cmd.Flags().Changed("frequency") {
		daemon.Env = append(daemon.Env, fmt.Sprintf("RUNMETER_FREQUENCY=%s", startFrequency))
	}
	daemon.Stdout = logFile
	daemon.Stderr = logFile
	detach(daemon)

	if err := daemon.Start(); err != nil {
		return fmt.Errorf("failed to start collector daemon: %w", err)
	}
	daemon.Process.Release()

	state, err := waitForDaemon(dir, startWait)
	if err != nil {
		printError("Collector did not come up: %v", err)
		printInfo("Daemon log: %s", logPath)
		return err
	}

	printSuccess("Collector running (pid %d, port %d)", state.PID, state.Port)
	return nil
}

// waitForDaemon polls for the state file the daemon writes after
// binding, then confirms the query interface answers.
func waitForDaemon(dir string, timeout time.Duration) (*collector.State, error) {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if state, err := collector.ReadState(dir); err == nil {
			resp, err := client.Get(state.BaseURL() + "/healthz")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return state, nil
				}
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("no healthy daemon after %s", timeout)
}
