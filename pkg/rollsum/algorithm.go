// Package rollsum provides the weak rolling checksums used to locate candidate
// block matches. Each checksum covers a fixed-length window and can be slid
// forward by one byte in constant time.
package rollsum

import (
	"github.com/pkg/errors"
)

// Algorithm identifies a weak rolling checksum. Its numeric values are part of
// the artifact format and must not be changed.
type Algorithm uint8

const (
	// AlgorithmDefault represents an unspecified algorithm. It is never valid
	// in an artifact.
	AlgorithmDefault Algorithm = iota
	// AlgorithmRollsum represents the two-component additive checksum used by
	// rsync.
	AlgorithmRollsum
	// AlgorithmRabinKarp represents a polynomial Rabin-Karp checksum.
	AlgorithmRabinKarp
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
	case AlgorithmRollsum:
		result = "rollsum"
	case AlgorithmRabinKarp:
		result = "rabin-karp"
	default:
		result = "unknown"
	}
	return []byte(result), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *Algorithm) UnmarshalText(textBytes []byte) error {
	// Convert the bytes to a string.
	text := string(textBytes)

	// Convert to a checksum algorithm.
	switch text {
	case "rollsum", "adler":
		*a = AlgorithmRollsum
	case "rabin-karp", "rabinkarp":
		*a = AlgorithmRabinKarp
	default:
		return errors.Errorf("unknown rolling checksum specification: %s", text)
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
	return "rollsum"
}

// Supported indicates whether or not a particular checksum algorithm is a
// valid, non-default value.
func (a Algorithm) Supported() bool {
	switch a {
	case AlgorithmRollsum, AlgorithmRabinKarp:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of a checksum algorithm.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmDefault:
		return "Default"
	case AlgorithmRollsum:
		return "rsync rolling checksum"
	case AlgorithmRabinKarp:
		return "Rabin-Karp"
	default:
		return "Unknown"
	}
}

// Hasher computes a rolling checksum over a fixed-length window. A Hasher is
// not safe for concurrent use.
type Hasher interface {
	// Reset computes the checksum of window directly and makes len(window) the
	// window length for subsequent calls to Roll.
	Reset(window []byte) uint32
	// Roll slides the window forward by one byte, removing out from the front
	// and appending in to the back, and returns the updated checksum.
	Roll(out, in byte) uint32
	// Sum returns the current checksum.
	Sum() uint32
}

// New creates a new hasher for the algorithm. If invoked on a default or
// invalid Algorithm value, this method will panic.
func (a Algorithm) New() Hasher {
	switch a {
	case AlgorithmRollsum:
		return &rollsum{}
	case AlgorithmRabinKarp:
		return &rabinKarp{}
	default:
		panic("default or unknown rolling checksum algorithm")
	}
}

// Checksum computes the checksum of data directly using the algorithm.
func Checksum(algorithm Algorithm, data []byte) uint32 {
	return algorithm.New().Reset(data)
}
