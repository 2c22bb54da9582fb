package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"runmeter.sh/collector"
	"runmeter.sh/internal/version"
)

var (
	stateDir string
	noColor  bool

	// Color functions
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "runmeter",
	Short: "runmeter - Resource telemetry and reports for workflow jobs",
	Long: `runmeter samples CPU, memory, network and disk activity while a
workflow job runs, then turns the samples into a markdown report with
charts and summary tables.

Typical usage inside a job:

  runmeter start                      # launch the sampling daemon
  runmeter exec --name build -- make  # measure one command (optional)
  runmeter finish --step "Run tests"  # render and deliver the report`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for daemon state and command records")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Bind flags to viper
	viper.BindPFlag("state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))

	// Add commands
	rootCmd.AddCommand(
		newStartCmd(),
		newCollectCmd(),
		newExecCmd(),
		newFinishCmd(),
		newVersionCmd(),
	)
}

// initConfig reads configuration from RUNMETER_* environment variables,
// with INPUT_* fallbacks so workflow action inputs map onto the same
// keys without extra plumbing.
func initConfig() {
	viper.SetEnvPrefix("RUNMETER")
	viper.AutomaticEnv()

	for _, key := range []string{"port", "frequency", "chart_url", "theme", "memory_available"} {
		viper.BindEnv(key, "RUNMETER_"+strings.ToUpper(key), "INPUT_"+strings.ToUpper(key))
	}

	setDefaults()
}

// setDefaults sets default configuration values
func setDefaults() {
	// Daemon defaults
	viper.SetDefault("host", "127.0.0.1")
	viper.SetDefault("port", 7777)
	viper.SetDefault("frequency", "5s")

	// Report defaults
	viper.SetDefault("chart_url", "https://api.globadge.com/v1/chartgen")
	viper.SetDefault("theme", "light")
	viper.SetDefault("memory_available", true)

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
}

// setupLogging configures the process-wide slog default from the
// log_level and log_format settings.
func setupLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	switch strings.ToLower(viper.GetString("log_level")) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn", "warning":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(viper.GetString("log_format")) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// resolveStateDir picks the state directory: the flag wins, then the
// environment, then the runner-aware default.
func resolveStateDir() string {
	if stateDir != "" {
		return stateDir
	}
	if dir := viper.GetString("state_dir"); dir != "" {
		return dir
	}
	return collector.DefaultStateDir()
}

// Helper functions for consistent output

func printSuccess(format string, a ...any) {
	fmt.Printf("%s %s\n", green("[OK]"), fmt.Sprintf(format, a...))
}

func printError(format string, a ...any) {
	fmt.Printf("%s %s\n", red("[ERROR]"), fmt.Sprintf(format, a...))
}

func printWarning(format string, a ...any) {
	fmt.Printf("%s %s\n", yellow("[WARN]"), fmt.Sprintf(format, a...))
}

func printInfo(format string, a ...any) {
	fmt.Printf("%s %s\n", blue("[INFO]"), fmt.Sprintf(format, a...))
}
