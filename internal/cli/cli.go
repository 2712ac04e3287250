package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/specialistvlad/regiongate/internal/app"
	"github.com/specialistvlad/regiongate/internal/hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalFlags are shared by every command.
type globalFlags struct {
	topology  []string
	logLevel  string
	logFormat string
	journal   string
	eventsURL string
}

// config validates the flags into an application configuration.
func (f *globalFlags) config(port int) (*app.Config, error) {
	if len(f.topology) == 0 {
		return nil, usageError(errors.New("at least one --topology path is required"))
	}
	cfg, err := app.NewConfig(app.Config{
		TopologyPaths: f.topology,
		JournalPath:   f.journal,
		EventsURL:     f.eventsURL,
		LogFormat:     strings.ToLower(f.logFormat),
		LogLevel:      strings.ToLower(f.logLevel),
		Port:          port,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// newApp builds the application from the command's flags. Logs go to the
// command's error stream.
func (f *globalFlags) newApp(cmd *cobra.Command, port int) (*app.App, error) {
	cfg, err := f.config(port)
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.Context(), cmd.ErrOrStderr(), cfg, hcl.NewLoader())
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "regiongate",
		Short: "Coordinate partial reconfiguration of hardware regions",
		Long: `regiongate reprograms reconfigurable regions safely: it quiesces the
gateways around a region, loads the new image through the programming
engine and brings the gateways back up, rolling everything back on failure.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd.Flags()); err != nil {
				return usageError(err)
			}
			slog.Debug("CLI arguments parsed.", "command", cmd.Name())
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringSliceVarP(&flags.topology, "topology", "t", nil, "Topology .hcl file or directory (repeatable).")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&flags.journal, "journal", "", "Path of the SQLite program journal. Empty disables it.")
	pf.StringVar(&flags.eventsURL, "events-url", "", "socket.io server URL to publish program events to.")

	root.AddCommand(statusCmd(flags))
	root.AddCommand(programCmd(flags))
	root.AddCommand(serveCmd(flags))
	root.AddCommand(historyCmd(flags))
	return root
}

// envPrefix prefixes the environment variables that stand in for flags:
// --log-level is read from REGIONGATE_LOG_LEVEL.
const envPrefix = "REGIONGATE_"

// envName returns the environment variable backing a flag.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv fills every flag not set on the command line from its
// environment variable. List flags take comma-separated values.
func applyEnv(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "help" {
			return
		}
		val, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}
		if serr := fs.Set(f.Name, val); serr != nil {
			err = fmt.Errorf("invalid %s: %w", envName(f.Name), serr)
		}
	})
	return err
}

// Execute runs the command line in args, writing output to outW and logs
// to errW.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(errW)
	return root.ExecuteContext(ctx)
}
