package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/barbershop-sim/barbershop-sim/sim"
)

// runFlags holds the values bound to the run command's flags.
type runFlags struct {
	Servers         int           // Number of servers (barbers)
	Seats           int           // Number of waiting-room seats
	Clients         int           // Number of clients to spawn
	ConfigPath      string        // Optional YAML run config
	ServiceTime     time.Duration // Fixed service duration
	ArrivalDelayMin time.Duration // Lower bound of the inter-arrival delay
	ArrivalDelayMax time.Duration // Upper bound of the inter-arrival delay
	Seed            int64         // Seed for arrival delays
	Format          string        // Event output format: text or json
	NoColor         bool          // Disable ANSI colors in text output
	Metrics         bool          // Dump Prometheus metrics after the run
	Verify          bool          // Check the event trace after the run
	LogLevel        string        // Log verbosity level
}

var flags runFlags

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "barbershop-sim",
	Short:         "Multi-server sleeping-barber simulation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// runCmd executes the simulation using parameters from flags, the optional
// config file and stdin prompts, in that order of precedence.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the barbershop simulation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(flags.LogLevel)
		if err != nil {
			return &sim.ConfigError{Field: "log", Value: flags.LogLevel, Reason: "unknown log level"}
		}
		logrus.SetLevel(level)

		opts, err := resolveOptions(flags, cmd.Flags().Changed, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSimulation(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// Execute runs the CLI root command. Configuration errors exit with status 2,
// every other failure with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case sim.IsConfigError(err):
		return 2
	default:
		return 1
	}
}

func init() {
	defaults := sim.DefaultConfig()

	runCmd.Flags().IntVar(&flags.Servers, "servers", 0, "Number of servers; prompted on stdin when unset")
	runCmd.Flags().IntVar(&flags.Seats, "seats", 0, "Number of waiting-room seats; prompted on stdin when unset")
	runCmd.Flags().IntVar(&flags.Clients, "clients", 0, "Number of clients; prompted on stdin when unset")
	runCmd.Flags().StringVar(&flags.ConfigPath, "config", "", "Path to a YAML run config")

	runCmd.Flags().DurationVar(&flags.ServiceTime, "service-time", defaults.ServiceTime, "Fixed duration of one service")
	runCmd.Flags().DurationVar(&flags.ArrivalDelayMin, "arrival-min", defaults.ArrivalDelayMin, "Minimum delay between client arrivals")
	runCmd.Flags().DurationVar(&flags.ArrivalDelayMax, "arrival-max", defaults.ArrivalDelayMax, "Maximum delay between client arrivals (exclusive)")
	runCmd.Flags().Int64Var(&flags.Seed, "seed", defaults.Seed, "Seed for arrival delays")

	runCmd.Flags().StringVar(&flags.Format, "format", formatText, "Event output format (text, json)")
	runCmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "Disable colored text output")
	runCmd.Flags().BoolVar(&flags.Metrics, "metrics", false, "Print Prometheus metrics after the run")
	runCmd.Flags().BoolVar(&flags.Verify, "verify", false, "Check the recorded event trace after the run")
	runCmd.Flags().StringVar(&flags.LogLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
}
