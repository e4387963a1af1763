// Package compression provides the compression algorithms that can be applied
// to signature and delta artifact bodies.
package compression

import (
	"io"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/stream"
)

// Algorithm identifies a compression algorithm. Its numeric values are part of
// the artifact format and must not be changed.
type Algorithm uint8

const (
	// AlgorithmDefault represents an unspecified algorithm. It is never valid
	// in an artifact.
	AlgorithmDefault Algorithm = iota
	// AlgorithmNone represents uncompressed data.
	AlgorithmNone
	// AlgorithmDeflate represents DEFLATE compression.
	AlgorithmDeflate
	// AlgorithmZstandard represents Zstandard compression.
	AlgorithmZstandard
)

// IsDefault indicates whether or not the algorithm is AlgorithmDefault.
func (a Algorithm) IsDefault() bool {
	return a == AlgorithmDefault
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (a Algorithm) MarshalText() ([]byte, error) {
	var result string
	switch a {
	case AlgorithmDefault:
	case AlgorithmNone:
		result = "none"
	case AlgorithmDeflate:
		result = "deflate"
	case AlgorithmZstandard:
		result = "zstandard"
	default:
		result = "unknown"
	}
	return []byte(result), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *Algorithm) UnmarshalText(textBytes []byte) error {
	// Convert the bytes to a string.
	text := string(textBytes)

	// Convert to a compression algorithm.
	switch text {
	case "none":
		*a = AlgorithmNone
	case "deflate":
		*a = AlgorithmDeflate
	case "zstandard", "zstd":
		*a = AlgorithmZstandard
	default:
		return errors.Errorf("unknown compression algorithm specification: %s", text)
	}

	// Success.
	return nil
}

// String implements fmt.Stringer.String.
func (a Algorithm) String() string {
	text, _ := a.MarshalText()
	return string(text)
}

// Set implements pflag.Value.Set.
func (a *Algorithm) Set(value string) error {
	return a.UnmarshalText([]byte(value))
}

// Type implements pflag.Value.Type.
func (a *Algorithm) Type() string {
	return "compression"
}

// Supported indicates whether or not a particular compression algorithm is a
// valid, non-default value.
func (a Algorithm) Supported() bool {
	switch a {
	case AlgorithmNone, AlgorithmDeflate, AlgorithmZstandard:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of a compression algorithm.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmDefault:
		return "Default"
	case AlgorithmNone:
		return "None"
	case AlgorithmDeflate:
		return "DEFLATE"
	case AlgorithmZstandard:
		return "Zstandard"
	default:
		return "Unknown"
	}
}

// Compress creates a compressor that writes compressed output to the specified
// stream using the compression algorithm. If invoked on a default or invalid
// Algorithm value, this method will panic. The Flush and Close methods on the
// resulting compressor only operate on the compressor - they have no effect on
// the compressed stream itself. The compressor should be closed before the
// underlying stream.
func (a Algorithm) Compress(compressed io.Writer) stream.WriteFlushCloser {
	switch a {
	case AlgorithmNone:
		return compressNone(compressed)
	case AlgorithmDeflate:
		return compressDeflate(compressed)
	case AlgorithmZstandard:
		return compressZstandard(compressed)
	default:
		panic("default or unknown compression algorithm")
	}
}

// Decompress creates a decompressor that reads compressed input from the
// specified stream using the compression algorithm. If invoked on a default or
// invalid Algorithm value, this method will panic. The Close method on the
// resulting decompressor releases decompression resources - it has no effect on
// the compressed stream itself.
func (a Algorithm) Decompress(compressed io.Reader) io.ReadCloser {
	switch a {
	case AlgorithmNone:
		return decompressNone(compressed)
	case AlgorithmDeflate:
		return decompressDeflate(compressed)
	case AlgorithmZstandard:
		return decompressZstandard(compressed)
	default:
		panic("default or unknown compression algorithm")
	}
}
