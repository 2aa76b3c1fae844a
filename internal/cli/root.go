// Package cli implements the tally command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tally/internal/logging"
	"github.com/mesh-intelligence/tally/internal/metrics"
	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/pkg/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// sysError marks failures of the environment (storage, files) as opposed to
// bad input.
type sysError struct {
	err error
}

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemError(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// NewRootCmd creates the top-level "tally" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{
		logger:  slog.New(slog.DiscardHandler),
		metrics: metrics.New(),
	}

	root := &cobra.Command{
		Use:   "tally",
		Short: "Reconcile opinion polls against a party registry",
		Long: "Tally keeps a registry of parties and coalitions, imports poll tables,\n" +
			"and resolves the free-text party labels of each poll to registered parties.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.logMetrics()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "archive directory (overrides data_dir)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.String("log-level", defaultLogLevel, "log level: debug, info, warn, error")
	pf.String("context", "", "party set context, e.g. an election")
	pf.Float64("min-ratio", types.DefaultMinRatio, "similarity a poll label must exceed")
	pf.Bool("join-coalitions", true, "sum member values for coalitions missing from a poll")
	pf.Bool("return-partial", false, "sum coalition members even when some are missing")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newPartyCmd(a))
	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newPollCmd(a))
	root.AddCommand(newSeriesCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// load resolves the config directory, reads the configuration and builds
// the logger. A missing config.yaml is not an error.
func (a *app) load(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return systemError("resolve config dir: %w", err)
	}
	a.configDir = dir

	v, err := loadConfig(dir)
	if err != nil {
		return systemError("%w", err)
	}
	for key, flag := range map[string]string{
		keyLogLevel:       "log-level",
		keyContext:        "context",
		keyMinRatio:       "min-ratio",
		keyJoinCoalitions: "join-coalitions",
		keyReturnPartial:  "return-partial",
	} {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return systemError("bind flag %s: %w", flag, err)
		}
	}
	a.v = v

	level, err := logging.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return err
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level)
	return nil
}

// dataDir returns the archive directory from flag, configuration or default.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(keyDataDir))
	if err != nil {
		return "", systemError("resolve data dir: %w", err)
	}
	return dir, nil
}

// withArchive attaches the archive for the duration of fn.
func (a *app) withArchive(fn func(types.Archive) error) (err error) {
	dir, err := a.dataDir()
	if err != nil {
		return err
	}
	archive := sqlite.NewArchive(a.logger)
	if err := archive.Attach(types.Config{Backend: a.v.GetString(keyBackend), DataDir: dir}); err != nil {
		return systemError("attach archive: %w", err)
	}
	defer func() {
		if derr := archive.Detach(); derr != nil && err == nil {
			err = systemError("detach archive: %w", derr)
		}
	}()
	return fn(archive)
}

// partySet loads the configured context with logging and metrics wired in.
func (a *app) partySet(archive types.Archive) (*types.PartySet, error) {
	set, err := archive.PartySet(a.context(), types.WithLogger(a.logger), types.WithObserver(a.metrics))
	if err != nil {
		return nil, systemError("load parties: %w", err)
	}
	return set, nil
}

func (a *app) context() string {
	return a.v.GetString(keyContext)
}

// valueOptions reads the resolution options from flags and configuration.
func (a *app) valueOptions() (types.ValueOptions, error) {
	opts := types.ValueOptions{
		MinRatio:       a.v.GetFloat64(keyMinRatio),
		JoinCoalitions: a.v.GetBool(keyJoinCoalitions),
		ReturnPartial:  a.v.GetBool(keyReturnPartial),
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: %v", err, opts.MinRatio)
	}
	return opts, nil
}

func (a *app) logMetrics() {
	summary, err := a.metrics.Summary()
	if err != nil {
		a.logger.Debug("metrics unavailable", "error", err)
		return
	}
	if len(summary) > 0 {
		a.logger.Debug("run metrics", "metrics", summary)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
