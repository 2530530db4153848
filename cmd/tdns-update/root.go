package main

import (
	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/tdns-update/internal/cliconfig"
)

type rootOptions struct {
	verbose    bool
	logFormat  string
	logLevel   string
	configPath string
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "tdns-update",
		Short:         "Submit RFC 2136 DNS UPDATEs and confirm their propagation",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log output format: text or json")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", cliconfig.ConfigFilePathFromEnv(), "optional YAML file supplying default flag values")

	cmd.AddCommand(newUpdateCommand(&opts))
	cmd.AddCommand(newQueryCommand(&opts))

	return cmd
}

// loadConfigFile returns the parsed config file named by opts.configPath, or
// an empty File if no path was given; it never errors on a missing path.
func loadConfigFile(opts *rootOptions) (*cliconfig.File, error) {
	if opts.configPath == "" {
		return &cliconfig.File{}, nil
	}
	return cliconfig.Load(opts.configPath)
}

// applyLoggingDefaults fills --log-level/--log-format from the config file
// when the flags were left at their defaults on the command line.
func applyLoggingDefaults(cmd *cobra.Command, root *rootOptions, cfg *cliconfig.File) {
	if cfg.LogLevel != "" && !cmd.Flags().Changed("log-level") {
		root.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !cmd.Flags().Changed("log-format") {
		root.logFormat = cfg.LogFormat
	}
}
