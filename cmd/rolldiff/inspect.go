package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
	"github.com/rolldiff/rolldiff/pkg/must"
	"github.com/rolldiff/rolldiff/pkg/rsync"
)

// printArtifactHeader prints the common artifact header fields.
func printArtifactHeader(output io.Writer, header rsync.ArtifactHeader, size int64) {
	fmt.Fprintf(output, "Artifact: %s (version %d)\n", header.Kind, header.Version)
	fmt.Fprintf(output, "Compression: %s\n", header.Compression.Description())
	fmt.Fprintf(output, "Size: %s\n", humanize.IBytes(uint64(size)))
}

// inspectSignature prints a summary of a signature artifact.
func inspectSignature(output io.Writer, source io.Reader, size int64) error {
	signature, header, err := rsync.DecodeSignatureArtifact(source)
	if err != nil {
		return err
	}
	printArtifactHeader(output, header, size)
	fmt.Fprintf(output, "Weak checksum: %s\n", signature.WeakAlgorithm.Description())
	fmt.Fprintf(output, "Strong hash: %s\n", signature.StrongAlgorithm.Description())
	fmt.Fprintf(output, "Block size: %s\n", humanize.IBytes(signature.BlockSize))
	fmt.Fprintf(output, "Blocks: %s\n", humanize.Comma(int64(signature.BlockCount())))
	fmt.Fprintf(output, "Last block size: %s\n", humanize.IBytes(signature.LastBlockSize))
	fmt.Fprintf(output, "Base length: %s\n", humanize.IBytes(signature.BaseLength()))
	return nil
}

// inspectDelta prints a summary of a delta artifact. Operations are decoded
// one at a time and only their statistics are retained.
func inspectDelta(output io.Writer, source io.Reader, size int64) error {
	decoder, err := rsync.NewDeltaDecoder(source)
	if err != nil {
		return err
	}
	defer decoder.Close()
	var statistics rsync.DeltaStatistics
	for {
		operation, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		statistics.Observe(operation)
	}
	header := decoder.Header()
	printArtifactHeader(output, decoder.Artifact(), size)
	fmt.Fprintf(output, "Strong hash: %s\n", header.StrongAlgorithm.Description())
	fmt.Fprintf(output, "Block size: %s\n", humanize.IBytes(header.BlockSize))
	fmt.Fprintf(output, "Target length: %s\n", humanize.IBytes(header.TargetLength))
	fmt.Fprintf(output, "Target digest: %x\n", header.TargetDigest)
	fmt.Fprintf(output, "Copy operations: %s (%s)\n",
		humanize.Comma(int64(statistics.CopyOperations)), humanize.IBytes(statistics.CopyBytes),
	)
	fmt.Fprintf(output, "Literal operations: %s (%s)\n",
		humanize.Comma(int64(statistics.LiteralOperations)), humanize.IBytes(statistics.LiteralBytes),
	)
	return nil
}

// inspectMain is the entry point for the inspect command.
func inspectMain(_ *cobra.Command, arguments []string) error {
	// Set up the invocation.
	invocation, err := begin()
	if err != nil {
		return err
	}
	defer invocation.end()
	logger := invocation.logger.Sublogger("inspect")

	// Open the artifact.
	file, err := os.Open(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to open artifact")
	}
	defer must.Close(file, logger)
	info, err := file.Stat()
	if err != nil {
		return errors.Wrap(err, "unable to query artifact")
	}

	// Identify the artifact. Short reads are left for the decoder to report.
	reader := bufio.NewReader(file)
	prefix, _ := reader.Peek(4)
	switch rsync.DetectArtifactKind(prefix) {
	case rsync.ArtifactKindSignature:
		err = inspectSignature(os.Stdout, reader, info.Size())
	case rsync.ArtifactKindDelta:
		err = inspectDelta(os.Stdout, reader, info.Size())
	default:
		err = &rsync.FormatError{Message: "unrecognized artifact"}
	}
	if err != nil {
		return errors.Wrapf(err, "unable to inspect %s", arguments[0])
	}

	// Success.
	return nil
}

// inspectCommand is the inspect command.
var inspectCommand = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "Summarize a signature or delta artifact",
	Args:  cmd.ExactArguments("artifact"),
	Run:   cmd.Mainify(inspectMain),
}

// inspectConfiguration stores configuration for the inspect command.
var inspectConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := inspectCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&inspectConfiguration.help, "help", "h", false, "Show help information")
}
