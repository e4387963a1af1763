package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
	"github.com/rolldiff/rolldiff/pkg/must"
	"github.com/rolldiff/rolldiff/pkg/rolldiff"
)

// rootMain is the entry point for the root command.
func rootMain(command *cobra.Command, _ []string) error {
	// If no commands were given, then print help information and bail. We don't
	// have to worry about warning about arguments being present here (which
	// would be incorrect usage) because arguments can't even reach this point
	// (they will be mistaken for subcommands and a error will be displayed).
	must.CommandHelp(command, nil)

	// Success.
	return nil
}

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:          "rolldiff",
	Version:      rolldiff.Version,
	Short:        "rolldiff computes and applies rolling-checksum binary deltas",
	RunE:         rootMain,
	SilenceUsage: true,
}

// rootConfiguration stores configuration for the root command.
var rootConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// configurationPath is the path to the configuration file. If empty, the
	// default path is used.
	configurationPath string
	// logLevel overrides the configured log level.
	logLevel string
	// profile is the name prefix for profiling output. If empty, profiling is
	// disabled.
	profile string
}

func init() {
	// Disable Cobra's command sorting behavior. By default, it sorts commands
	// alphabetically in the help output.
	cobra.EnableCommandSorting = false

	// Set the template used by the version flag.
	rootCommand.SetVersionTemplate("rolldiff version {{ .Version }}\n")

	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	// Register flags shared by all commands.
	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.SortFlags = false
	persistentFlags.StringVarP(&rootConfiguration.configurationPath, "config", "c", "", "Specify the configuration file (defaults to ~/.rolldiff.yml)")
	persistentFlags.StringVarP(&rootConfiguration.logLevel, "log-level", "l", "", "Override the log level (disabled|error|warn|info|debug|trace)")
	persistentFlags.StringVar(&rootConfiguration.profile, "profile", "", "Write CPU and heap profiles with the specified name prefix")

	// Disable Cobra's completion command.
	rootCommand.CompletionOptions.DisableDefaultCmd = true

	// Register commands. We do this here (rather than in individual init
	// functions) so that we can control the order.
	rootCommand.AddCommand(
		signatureCommand,
		deltaCommand,
		patchCommand,
		inspectCommand,
		measureCommand,
		configCommand,
		versionCommand,
	)
}

func main() {
	// Execute the root command. Entry points terminate the process themselves
	// with a typed exit code, so an error here is a usage error.
	if err := rootCommand.Execute(); err != nil {
		os.Exit(cmd.ExitCodeGeneric)
	}
}
