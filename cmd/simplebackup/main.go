package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"simplebackup/internal/archive"
	"simplebackup/internal/backup"
	"simplebackup/internal/config"
	"simplebackup/internal/logging"
)

// exitError carries a process exit code for a failure that has already been
// reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SIMPLEBACKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "simplebackup",
		Short: "Archive source directories into timestamped backups",
		Long: `simplebackup reads a list of source directories and a destination from a
configuration file and writes one timestamped archive per source into the
destination. Progress and a summary are logged to backup.log and the console.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", config.DefaultPath, "Path to the JSON or YAML configuration file")
	flags.String("log-file", logging.DefaultPath, "Log file, appended to on every run")
	flags.String("log-level", "info", "Minimum level written to the log sinks")
	flags.Int("log-max-size", 0, "Rotate the log file after this many megabytes (0 uses the default of 100)")
	if err := bindFlags(v, flags, "config", "log-file", "log-level", "log-max-size"); err != nil {
		panic(err)
	}

	root.AddCommand(newListCmd(v))
	return root
}

// bindFlags binds each named flag to the viper key of the same name.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func runBackup(cmd *cobra.Command, v *viper.Viper) error {
	logger, err := newLogger(cmd.ErrOrStderr(), v)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to initialize logging: %v\n", err)
		return &exitError{code: 1, err: err}
	}
	defer logger.Close()

	cfg, err := config.Load(v.GetString("config"), logger.Logger)
	if err != nil {
		logger.Error().Msg("Exiting due to configuration errors.")
		return &exitError{code: 1, err: err}
	}

	runner := backup.NewRunner(archive.New(logger.Logger), logger.Logger)
	if _, err := runner.Run(cmd.Context(), cfg); err != nil {
		return &exitError{code: 1, err: err}
	}
	return nil
}

func newLogger(console io.Writer, v *viper.Viper) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Path:    v.GetString("log-file"),
		Level:   v.GetString("log-level"),
		MaxSize: v.GetInt("log-max-size"),
		Console: console,
	})
}
