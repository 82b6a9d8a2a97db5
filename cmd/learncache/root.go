package main

import (
	"github.com/spf13/cobra"
)

// rootFlags holds the flags shared by all commands.
type rootFlags struct {
	config   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "learncache",
		Short: "Offline-first cache for learning platform forms and settings",
		Long: `learncache keeps platform forms and system settings in a local
key/value store, refreshes them from the platform API and falls back to
bundled assets when the platform is unreachable.

Configuration is read from the file given by --config and LEARNCACHE_*
environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newWarmCmd(opts))

	return cmd
}
