// Package cli implements rutctl, the operator tool for a rut server's data
// directory.
package cli

import (
	"fmt"
	"slices"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/di"
	"github.com/rutapp/rut-server/internal/logger"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
	DataPath   string
	Format     string // text or json
	Verbose    bool
}

// ValidFormats are the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the rutctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rutctl",
		Short: "Operate on a rut server data directory",
		Long: "rutctl audits cached counters, rebuilds the search index, mints access tokens " +
			"and seeds demo data against the same store the server uses.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DataPath, "data-path", "", "base path for server data")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// configArgs turns the persistent flags into server config flags, so rutctl
// resolves paths exactly like the server: flag, then env, then file.
func (o *RootOptions) configArgs() []string {
	var args []string
	if o.ConfigPath != "" {
		args = append(args, "--config", o.ConfigPath)
	}
	if o.DataPath != "" {
		args = append(args, "--data-path", o.DataPath)
	}
	if o.Verbose {
		args = append(args, "--log-level", "debug")
	} else {
		args = append(args, "--log-level", "warn")
	}
	return args
}

// open loads configuration and builds a tool container. Logs go to the
// command's stderr so stdout carries only the result.
func (o *RootOptions) open(cmd *cobra.Command) (*do.RootScope, error) {
	cfg, err := config.Load(o.configArgs())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	log := logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})

	return di.NewToolContainer(cfg, log), nil
}

// invoke resolves T from the container, turning provider failures into
// command errors.
func invoke[T any](injector do.Injector) (T, error) {
	v, err := do.Invoke[T](injector)
	if err != nil {
		var zero T
		return zero, WrapExitError(ExitCommandError, "initialize", err)
	}
	return v, nil
}

// closeQuietly shuts the container down; shutdown errors only matter to the
// server.
func closeQuietly(injector *do.RootScope) {
	_ = injector.Shutdown()
}
