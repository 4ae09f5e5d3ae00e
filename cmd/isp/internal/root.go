package internal

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool

	logger = hclog.L()
)

var rootCmd = &cobra.Command{
	Use:   "isp",
	Short: "isp builds, deploys and runs the image sensor simulator",
	Long: `isp manages the ISPProject recipe (requirements, options and copy rules),
drives its CMake build, gathers shared libraries for deployment, and runs the
image sensor simulation.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

func setupLogger(cmd *cobra.Command, args []string) error {
	level := hclog.LevelFromString(logLevel)
	if level == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	logger = hclog.New(&hclog.LoggerOptions{
		Name:       "isp",
		Level:      level,
		JSONFormat: logJSON,
		Output:     cmd.ErrOrStderr(),
	})
	hclog.SetDefault(logger)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "isp: %+v\n", err)
		os.Exit(1)
	}
}
