package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
)

// configMain is the entry point for the config command.
func configMain(_ *cobra.Command, _ []string) error {
	// Set up the invocation. This applies any global overrides.
	invocation, err := begin()
	if err != nil {
		return err
	}
	defer invocation.end()

	// Print or save the effective configuration.
	if configConfiguration.save == "" {
		return invocation.configuration.Encode(os.Stdout)
	}
	if err := invocation.configuration.Save(configConfiguration.save, invocation.logger.Sublogger("config")); err != nil {
		return err
	}
	invocation.logger.Infof("Saved configuration to %s", configConfiguration.save)

	// Success.
	return nil
}

// configCommand is the config command.
var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Show or save the effective configuration",
	Args:  cmd.ExactArguments(),
	Run:   cmd.Mainify(configMain),
}

// configConfiguration stores configuration for the config command.
var configConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// save is the path to which the configuration should be saved. If empty,
	// the configuration is printed to standard output.
	save string
}

func init() {
	// Grab a handle for the command line flags.
	flags := configCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&configConfiguration.help, "help", "h", false, "Show help information")

	// Wire up output flags.
	flags.StringVarP(&configConfiguration.save, "save", "s", "", "Save the configuration to the specified path")
}
