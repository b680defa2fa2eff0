package cli

import (
	"log/slog"
	"os"

	"github.com/mrtodp/fleetd/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagAPIKey    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking FLEETD_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("FLEETD_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// defaultAPIKey returns the operator key from FLEETD_API_KEY, if set.
func defaultAPIKey() string {
	return os.Getenv("FLEETD_API_KEY")
}

// NewRootCmd creates the root cobra command for the fleetctl CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fleetctl",
		Short: "fleetctl controls a fleetd task orchestrator",
		Long:  "fleetctl registers robots, submits prioritized tasks, and inspects scheduling state on a fleetd server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(flagLogLevel, flagLogFormat)
			client = NewClient(flagServer, flagAPIKey, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "fleetd server URL (or FLEETD_SERVER env)")
	root.PersistentFlags().StringVar(&flagAPIKey, "api-key", defaultAPIKey(), "operator API key (or FLEETD_API_KEY env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRegisterCmd(),
		newRobotsCmd(),
		newSubmitCmd(),
		newStatusCmd(),
		newDrainCmd(),
		newStatsCmd(),
		newHistoryCmd(),
	)

	return root
}
