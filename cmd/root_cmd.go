// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/tabprep/cmd/config"
	"github.com/xataio/tabprep/internal/log/zerolog"
	"github.com/xataio/tabprep/internal/profiling"
	loglib "github.com/xataio/tabprep/pkg/log"
	"github.com/xataio/tabprep/pkg/otel"
)

// Version is the tabprep version
var (
	Version = "development"
	Env     string
)

const trueStr = "true"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tabprep",
		Short:        "Configuration driven preprocessing of tabular datasets",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return nil
		},
	}

	viper.SetEnvPrefix("TABPREP")
	viper.AutomaticEnv()

	// Flag definition

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with tabprep if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().String("log-format", "console", "log format for the application. One of console, json")

	// run cmd
	runCmd.Flags().String("data-path", "", "Path to the input CSV file")
	runCmd.Flags().String("output-dir", "", "Directory where train.csv and test.csv will be written")
	runCmd.Flags().String("fit-on", "", "Rows the transformers are fitted on. One of all, train")
	runCmd.Flags().Int("preview", 0, "Number of rows of the processed train split to print")
	runCmd.Flags().Bool("progress", false, "Whether to display a progress bar while writing the output files")
	runCmd.Flags().Bool("profile", false, "Whether to produce CPU and memory profile files, as well as exposing a /debug/pprof endpoint on localhost:6060")

	// validate cmd
	validateCmd.Flags().StringP("file", "f", "", "Path to a YAML file containing only the dataset configuration to validate")
	validateCmd.Flags().Bool("json", false, "Output the validation status in JSON format")

	// inspect cmd
	inspectCmd.Flags().String("data-path", "", "Path to the input CSV file")
	inspectCmd.Flags().Bool("json", false, "Output the fitted state in JSON format")

	// transformers cmd
	transformersCmd.Flags().Bool("json", false, "Output the transformer definitions in JSON format")

	// Flag binding for root cmd
	rootFlagBinding(rootCmd)

	// register subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(transformersCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context) error) func(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-sigc
		cancel()
	}()

	return func(cmd *cobra.Command, args []string) error {
		defer cancel()
		return fn(ctx)
	}
}

func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) (err error) {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("profile").Value.String() != trueStr {
			return fn(cmd, args)
		}

		stop, err := profiling.Start(&profiling.Config{ServerAddress: "localhost:6060"})
		if err != nil {
			return err
		}
		defer func() {
			if stopErr := stop(); stopErr != nil {
				newLogger().Warn(stopErr, "writing profiles")
			}
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("TABPREP_LOG_LEVEL", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("TABPREP_LOG_FORMAT", cmd.PersistentFlags().Lookup("log-format"))
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

func newLogger() loglib.Logger {
	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: viper.GetString("TABPREP_LOG_LEVEL"),
		Format:   viper.GetString("TABPREP_LOG_FORMAT"),
	})
	zerolog.SetGlobalLogger(logger)
	return zerolog.NewStdLogger(logger)
}

func newInstrumentationProvider() (otel.InstrumentationProvider, error) {
	cfg, err := config.ParseInstrumentationConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing instrumentation config: %w", err)
	}

	p, err := otel.NewInstrumentationProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialisating instrumentation provider: %w", err)
	}
	return p, nil
}
