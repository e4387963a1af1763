package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/must"
	"github.com/rolldiff/rolldiff/pkg/rsync"
	"github.com/rolldiff/rolldiff/pkg/stream"
)

// measurement records the artifact sizes of a round trip.
type measurement struct {
	// targetSize is the size of the new file.
	targetSize uint64
	// signatureSize is the encoded signature size.
	signatureSize uint64
	// deltaSize is the encoded delta size.
	deltaSize uint64
	// statistics summarizes the delta's operations.
	statistics rsync.DeltaStatistics
}

// ratio returns the delta size as a percentage of the target size.
func (m measurement) ratio() float64 {
	if m.targetSize == 0 {
		return 0
	}
	return 100 * float64(m.deltaSize) / float64(m.targetSize)
}

// print writes a human-readable report.
func (m measurement) print(output io.Writer) {
	fmt.Fprintf(output, "New file: %s\n", humanize.IBytes(m.targetSize))
	fmt.Fprintf(output, "Signature: %s\n", humanize.IBytes(m.signatureSize))
	fmt.Fprintf(output, "Delta: %s (%s copied, %s literal)\n",
		humanize.IBytes(m.deltaSize),
		humanize.IBytes(m.statistics.CopyBytes),
		humanize.IBytes(m.statistics.LiteralBytes),
	)
	fmt.Fprintf(output, "Ratio: %.2f%%\n", m.ratio())
}

// roundTrip performs an in-memory signature, delta, and patch cycle through the
// encoded artifact formats and verifies that the reconstruction matches
// target.
func roundTrip(engine *rsync.Engine, base, target []byte, blockSize uint64, algorithm compression.Algorithm) (measurement, error) {
	result := measurement{targetSize: uint64(len(target))}

	// Compute and encode the signature, then decode it as a receiver would.
	signature, err := engine.Signature(base, blockSize)
	if err != nil {
		return measurement{}, err
	}
	encodedSignature := &bytes.Buffer{}
	if err := rsync.EncodeSignature(stream.NewCountingWriter(encodedSignature, &result.signatureSize), signature, algorithm); err != nil {
		return measurement{}, errors.Wrap(err, "unable to encode signature")
	}
	if signature, err = rsync.DecodeSignature(encodedSignature); err != nil {
		return measurement{}, errors.Wrap(err, "unable to decode signature")
	}

	// Compute and encode the delta.
	encodedDelta := &bytes.Buffer{}
	encoder, err := rsync.NewDeltaEncoder(
		stream.NewCountingWriter(encodedDelta, &result.deltaSize),
		engine.TargetHeader(target, signature),
		algorithm,
	)
	if err != nil {
		return measurement{}, err
	}
	transmit := func(operation *rsync.Operation) error {
		result.statistics.Observe(operation)
		return encoder.Encode(operation)
	}
	if err := engine.Deltafy(target, signature, transmit); err != nil {
		return measurement{}, errors.Wrap(err, "unable to compute delta")
	} else if err = encoder.Close(); err != nil {
		return measurement{}, errors.Wrap(err, "unable to finalize delta")
	}

	// Apply the encoded delta.
	decoder, err := rsync.NewDeltaDecoder(encodedDelta)
	if err != nil {
		return measurement{}, errors.Wrap(err, "unable to decode delta")
	}
	defer decoder.Close()
	reconstructed := &bytes.Buffer{}
	if err := engine.PatchStream(reconstructed, bytes.NewReader(base), uint64(len(base)), decoder); err != nil {
		return measurement{}, errors.Wrap(err, "unable to apply delta")
	}

	// Verify the reconstruction.
	if !bytes.Equal(reconstructed.Bytes(), target) {
		return measurement{}, errors.New("reconstructed file does not match new file")
	}

	// Success.
	return result, nil
}

// measureMain is the entry point for the measure command.
func measureMain(command *cobra.Command, arguments []string) error {
	// Set up the invocation.
	invocation, err := begin()
	if err != nil {
		return err
	}
	defer invocation.end()
	logger := invocation.logger.Sublogger("measure")
	invocation.applyCompressionOverride(command.Flags(), measureConfiguration.compression)
	if err := invocation.configuration.EnsureValid(); err != nil {
		return err
	}

	// Load inputs.
	base, err := readFile(arguments[0])
	if err != nil {
		return err
	}
	target, err := readFile(arguments[1])
	if err != nil {
		return err
	}

	// Perform the round trip.
	engine := invocation.newEngine()
	defer must.Finalize(engine, logger)
	result, err := roundTrip(engine, base, target, invocation.configuration.BlockSize, invocation.configuration.Compression)
	if err != nil {
		return err
	}
	result.print(os.Stdout)

	// Success.
	return nil
}

// measureCommand is the measure command.
var measureCommand = &cobra.Command{
	Use:   "measure <old-file> <new-file>",
	Short: "Measure artifact sizes for a file pair and verify reconstruction",
	Args:  cmd.ExactArguments("old-file", "new-file"),
	Run:   cmd.Mainify(measureMain),
}

// measureConfiguration stores configuration for the measure command.
var measureConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// compression is the compression override.
	compression compression.Algorithm
}

func init() {
	// Grab a handle for the command line flags.
	flags := measureCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&measureConfiguration.help, "help", "h", false, "Show help information")

	// Wire up encoding flags.
	flags.Var(&measureConfiguration.compression, "compression", "Specify the artifact compression (none|deflate|zstandard)")
}
