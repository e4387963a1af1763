package main

import (
	"bufio"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
	"github.com/rolldiff/rolldiff/pkg/must"
)

// patchMain is the entry point for the patch command.
func patchMain(_ *cobra.Command, arguments []string) error {
	// Set up the invocation.
	invocation, err := begin()
	if err != nil {
		return err
	}
	defer invocation.end()
	logger := invocation.logger.Sublogger("patch")

	// Open the base. It's read through io.ReaderAt, so it needn't fit in
	// memory.
	base, err := os.Open(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to open base")
	}
	defer must.Close(base, logger)
	baseInfo, err := base.Stat()
	if err != nil {
		return errors.Wrap(err, "unable to query base")
	}

	// Open the delta and decode its header.
	deltaFile, err := os.Open(arguments[1])
	if err != nil {
		return errors.Wrap(err, "unable to open delta")
	}
	defer must.Close(deltaFile, logger)
	decoder, err := newDeltaDecoder(bufio.NewReader(deltaFile), arguments[1])
	if err != nil {
		return err
	}
	defer must.Close(decoder, logger)

	// Apply the delta, preserving the base's permissions on the output.
	engine := invocation.newEngine()
	defer must.Finalize(engine, logger)
	written, err := writeOutput(arguments[2], baseInfo.Mode().Perm(), logger, func(writer io.Writer) error {
		return engine.PatchStream(writer, base, uint64(baseInfo.Size()), decoder)
	})
	if err != nil {
		return err
	}
	logger.Infof("Reconstructed %s from %s base", humanize.IBytes(written), humanize.IBytes(uint64(baseInfo.Size())))

	// Success.
	return nil
}

// patchCommand is the patch command.
var patchCommand = &cobra.Command{
	Use:   "patch <old-file> <delta-file> <output-file>",
	Short: "Reconstruct a new file from an old file and a delta",
	Args:  cmd.ExactArguments("old-file", "delta-file", "output-file"),
	Run:   cmd.Mainify(patchMain),
}

// patchConfiguration stores configuration for the patch command.
var patchConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := patchCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&patchConfiguration.help, "help", "h", false, "Show help information")
}
