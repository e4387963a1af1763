package main

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/must"
	"github.com/rolldiff/rolldiff/pkg/rollsum"
	"github.com/rolldiff/rolldiff/pkg/rsync"
)

// signatureMain is the entry point for the signature command.
func signatureMain(command *cobra.Command, arguments []string) error {
	// Set up the invocation.
	invocation, err := begin()
	if err != nil {
		return err
	}
	defer invocation.end()
	logger := invocation.logger.Sublogger("signature")

	// Apply explicitly specified overrides.
	flags := command.Flags()
	c := invocation.configuration
	if flags.Changed("block-size") {
		c.BlockSize = signatureConfiguration.blockSize
	}
	if flags.Changed("weak-hash") {
		c.WeakHash = signatureConfiguration.weakHash
	}
	if flags.Changed("strong-hash") {
		c.StrongHash = signatureConfiguration.strongHash
	}
	if flags.Changed("parallelism") {
		c.Parallelism = signatureConfiguration.parallelism
	}
	invocation.applyCompressionOverride(flags, signatureConfiguration.compression)
	if err := c.EnsureValid(); err != nil {
		return err
	}

	// Read the base.
	base, err := readFile(arguments[0])
	if err != nil {
		return err
	}

	// Compute the signature.
	engine := invocation.newEngine()
	defer must.Finalize(engine, logger)
	signature, err := engine.Signature(base, c.BlockSize)
	if err != nil {
		return err
	}

	// Write the signature.
	written, err := writeOutput(arguments[1], 0644, logger, func(writer io.Writer) error {
		return rsync.EncodeSignature(writer, signature, c.Compression)
	})
	if err != nil {
		return err
	}
	logger.Infof("Wrote signature of %s base (%s blocks of %s) in %s",
		humanize.IBytes(signature.BaseLength()),
		humanize.Comma(int64(signature.BlockCount())),
		humanize.IBytes(signature.BlockSize),
		humanize.IBytes(written),
	)

	// Success.
	return nil
}

// signatureCommand is the signature command.
var signatureCommand = &cobra.Command{
	Use:   "signature <old-file> <signature-file>",
	Short: "Compute the block signature of a file",
	Args:  cmd.ExactArguments("old-file", "signature-file"),
	Run:   cmd.Mainify(signatureMain),
}

// signatureConfiguration stores configuration for the signature command.
var signatureConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// blockSize is the block size override.
	blockSize uint64
	// weakHash is the rolling checksum override.
	weakHash rollsum.Algorithm
	// strongHash is the strong hash override.
	strongHash hashing.Algorithm
	// compression is the compression override.
	compression compression.Algorithm
	// parallelism is the worker count override.
	parallelism int
}

func init() {
	// Grab a handle for the command line flags.
	flags := signatureCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&signatureConfiguration.help, "help", "h", false, "Show help information")

	// Wire up engine flags.
	flags.Uint64VarP(&signatureConfiguration.blockSize, "block-size", "b", 0, "Specify the block size (0 derives it from the file length)")
	flags.Var(&signatureConfiguration.weakHash, "weak-hash", "Specify the rolling checksum (rollsum|rabinkarp)")
	flags.Var(&signatureConfiguration.strongHash, "strong-hash", "Specify the strong hash (sha1|sha256|blake2b|xxh128)")
	flags.Var(&signatureConfiguration.compression, "compression", "Specify the artifact compression (none|deflate|zstandard)")
	flags.IntVarP(&signatureConfiguration.parallelism, "parallelism", "p", 1, "Specify the number of hashing workers (0 uses one per CPU)")
}
