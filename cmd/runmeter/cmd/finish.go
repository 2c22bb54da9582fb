package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"runmeter.sh/collector"
	"runmeter.sh/internal/github"
	"runmeter.sh/telemetry"
)

var (
	finishStep     string
	finishCommand  string
	finishPR       int
	finishTheme    string
	finishChartURL string
	finishKeep     bool
	finishPrint    bool
)

func newFinishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Render the resource report and stop the daemon",
		Long: `Flush one final sample round, turn the collected samples into a
markdown report, deliver it, and stop the collector daemon.

The report covers one of three scopes: a workflow step (--step, looked
up through the GitHub API), a command measured with "runmeter exec"
(--command), or the whole sampling stream when neither is given.

Delivery is best effort: the report is appended to the runner's job
summary when one is exposed, posted as a pull request comment when
--pr is set, and written to stdout with --print (or when nothing else
accepted it). Report problems never fail the surrounding job.`,
		RunE: runFinish,
	}

	cmd.Flags().StringVar(&finishStep, "step", "", "scope the report to this workflow step")
	cmd.Flags().StringVar(&finishCommand, "command", "", "scope the report to a recorded command")
	cmd.Flags().IntVar(&finishPR, "pr", 0, "post the report as a comment on this pull request")
	cmd.Flags().StringVar(&finishTheme, "theme", "", "chart theme: light or dark")
	cmd.Flags().StringVar(&finishChartURL, "chart-url", "", "chart endpoint base URL")
	cmd.Flags().BoolVar(&finishKeep, "keep-running", false, "leave the daemon running")
	cmd.Flags().BoolVar(&finishPrint, "print", false, "write the report to stdout")
	cmd.MarkFlagsMutuallyExclusive("step", "command")

	return cmd
}

func runFinish(cmd *cobra.Command, args []string) error {
	dir := resolveStateDir()

	state, err := collector.ReadState(dir)
	if err != nil {
		printWarning("No collector state found: %v", err)
	}

	storeURL := fmt.Sprintf("http://%s:%d", viper.GetString("host"), viper.GetInt("port"))
	if state != nil {
		storeURL = state.BaseURL()
	}

	if !finishKeep {
		defer stopDaemon(state)
	}

	reporter := telemetry.NewReporter(telemetry.ReporterConfig{
		StoreURL:        storeURL,
		ChartURL:        firstNonEmpty(finishChartURL, viper.GetString("chart_url")),
		Theme:           firstNonEmpty(finishTheme, viper.GetString("theme")),
		WindowSource:    buildWindowSource(dir),
		MemoryAvailable: viper.GetBool("memory_available"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := reporter.Generate(ctx)
	if err != nil {
		printError("Report generation failed: %v", err)
		return nil
	}
	if report == "" {
		printInfo("No samples to report")
		return nil
	}

	deliver(ctx, report)
	return nil
}

// buildWindowSource maps the scope flags to a window source. Nil means
// full-stream mode. A scope that cannot possibly resolve (missing
// record, missing environment) still returns a source, so the report
// stays in windowed mode and suppresses its duration-gated sections.
func buildWindowSource(dir string) telemetry.WindowSource {
	switch {
	case finishStep != "":
		finder, err := stepFinderFromEnv()
		if err != nil {
			printWarning("Step window unavailable: %v", err)
			return unresolvedSource{err: err}
		}
		return &telemetry.StepWindowSource{Finder: finder, Name: finishStep}

	case finishCommand != "":
		record, err := loadCommandRecord(dir, finishCommand)
		if err != nil {
			printWarning("Failed to load command record: %v", err)
		} else if record == nil {
			printWarning("No record found for command %q", finishCommand)
		}
		return &telemetry.CommandWindowSource{Record: record}

	default:
		return nil
	}
}

// unresolvedSource keeps a report windowed when its source could not
// even be constructed.
type unresolvedSource struct{ err error }

func (s unresolvedSource) ResolveWindow(ctx context.Context) (telemetry.Window, error) {
	return telemetry.Window{}, s.err
}

// stepFinderFromEnv builds the GitHub step lookup from the standard
// workflow environment.
func stepFinderFromEnv() (*github.StepFinder, error) {
	owner, repo, err := github.SplitRepository(os.Getenv("GITHUB_REPOSITORY"))
	if err != nil {
		return nil, err
	}

	runID, err := strconv.ParseInt(os.Getenv("GITHUB_RUN_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GITHUB_RUN_ID is not set")
	}

	return &github.StepFinder{
		Client:  github.NewClient(os.Getenv("GITHUB_API_URL"), os.Getenv("GITHUB_TOKEN")),
		Owner:   owner,
		Repo:    repo,
		RunID:   runID,
		JobName: os.Getenv("GITHUB_JOB"),
	}, nil
}

// deliver pushes the report to every configured target. When no target
// accepted it the markdown goes to stdout so it is never lost.
func deliver(ctx context.Context, report string) {
	delivered := false

	if os.Getenv("GITHUB_STEP_SUMMARY") != "" {
		if err := github.AppendJobSummary(report); err != nil {
			printWarning("Failed to append job summary: %v", err)
		} else {
			printSuccess("Report appended to the job summary")
			delivered = true
		}
	}

	if finishPR > 0 {
		if err := postPRComment(ctx, report); err != nil {
			printWarning("Failed to comment on PR #%d: %v", finishPR, err)
		} else {
			printSuccess("Report posted to PR #%d", finishPR)
			delivered = true
		}
	}

	if finishPrint || !delivered {
		fmt.Println(report)
	}
}

func postPRComment(ctx context.Context, report string) error {
	owner, repo, err := github.SplitRepository(os.Getenv("GITHUB_REPOSITORY"))
	if err != nil {
		return err
	}

	client := github.NewClient(os.Getenv("GITHUB_API_URL"), os.Getenv("GITHUB_TOKEN"))
	return client.CreateIssueComment(ctx, owner, repo, finishPR, report)
}

func stopDaemon(state *collector.State) {
	if state == nil {
		return
	}
	if err := stopProcess(state.PID); err != nil {
		printWarning("Failed to stop collector (pid %d): %v", state.PID, err)
		return
	}
	printInfo("Collector stopped (pid %d)", state.PID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
