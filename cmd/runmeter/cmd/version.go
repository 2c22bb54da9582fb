package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"runmeter.sh/internal/version"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	var (
		short   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version information for runmeter`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Println(version.Version)
				return nil
			}

			if jsonOut {
				fmt.Printf(`{"version":"%s","commit":"%s","built":"%s","go":"%s","os":"%s","arch":"%s"}%s`,
					version.Version,
					version.CommitSHA,
					version.BuildTime,
					runtime.Version(),
					runtime.GOOS,
					runtime.GOARCH,
					"\n")
				return nil
			}

			fmt.Printf("%s\n", bold("runmeter"))
			fmt.Printf("Version:    %s\n", version.Version)
			fmt.Printf("Commit:     %s\n", version.CommitSHA)
			fmt.Printf("Built:      %s\n", version.BuildTime)
			fmt.Printf("Go Version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output version in JSON format")

	return cmd
}
