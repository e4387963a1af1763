// Package hashing provides the strong hashing algorithms used to fingerprint
// blocks and reconstructed targets.
package hashing

import (
	"crypto/sha1"
	"crypto/sha256"
	"hash"

	"github.com/pkg/errors"

	"golang.org/x/crypto/blake2b"
)

// Algorithm identifies a strong hashing algorithm. Its numeric values are part
// of the artifact format and must not be changed.
type Algorithm uint8

const (
	// AlgorithmDefault represents an unspecified algorithm. It is never valid
	// in an artifact.
	AlgorithmDefault Algorithm = iota
	// AlgorithmSHA1 represents SHA-1.
	AlgorithmSHA1
	// AlgorithmSHA256 represents SHA-256.
	AlgorithmSHA256
	// AlgorithmBLAKE2b256 represents BLAKE2b with a 256-bit digest.
	AlgorithmBLAKE2b256
	// AlgorithmXXH128 represents the 128-bit variant of XXH3.
	AlgorithmXXH128
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
	case AlgorithmSHA1:
		result = "sha1"
	case AlgorithmSHA256:
		result = "sha256"
	case AlgorithmBLAKE2b256:
		result = "blake2b-256"
	case AlgorithmXXH128:
		result = "xxh128"
	default:
		result = "unknown"
	}
	return []byte(result), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *Algorithm) UnmarshalText(textBytes []byte) error {
	// Convert the bytes to a string.
	text := string(textBytes)

	// Convert to a hashing algorithm.
	switch text {
	case "sha1":
		*a = AlgorithmSHA1
	case "sha256":
		*a = AlgorithmSHA256
	case "blake2b-256", "blake2b":
		*a = AlgorithmBLAKE2b256
	case "xxh128":
		*a = AlgorithmXXH128
	default:
		return errors.Errorf("unknown hashing algorithm specification: %s", text)
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
	return "hash"
}

// Supported indicates whether or not a particular hashing algorithm is a valid,
// non-default value.
func (a Algorithm) Supported() bool {
	switch a {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmBLAKE2b256, AlgorithmXXH128:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of a hashing algorithm.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmDefault:
		return "Default"
	case AlgorithmSHA1:
		return "SHA-1"
	case AlgorithmSHA256:
		return "SHA-256"
	case AlgorithmBLAKE2b256:
		return "BLAKE2b-256"
	case AlgorithmXXH128:
		return "XXH128"
	default:
		return "Unknown"
	}
}

// Size returns the digest length of the hashing algorithm in bytes. It returns
// 0 for default or invalid Algorithm values.
func (a Algorithm) Size() int {
	switch a {
	case AlgorithmSHA1:
		return sha1.Size
	case AlgorithmSHA256:
		return sha256.Size
	case AlgorithmBLAKE2b256:
		return blake2b.Size256
	case AlgorithmXXH128:
		return xxh128Size
	default:
		return 0
	}
}

// newBLAKE2b256 creates an unkeyed BLAKE2b-256 hasher.
func newBLAKE2b256() hash.Hash {
	// Construction can only fail for oversized keys.
	hasher, err := blake2b.New256(nil)
	if err != nil {
		panic("BLAKE2b-256 hasher construction failed")
	}
	return hasher
}

// Factory returns a constructor for the hashing algorithm. If invoked on a
// default or invalid Algorithm value, this method will panic.
func (a Algorithm) Factory() func() hash.Hash {
	switch a {
	case AlgorithmSHA1:
		return sha1.New
	case AlgorithmSHA256:
		return sha256.New
	case AlgorithmBLAKE2b256:
		return newBLAKE2b256
	case AlgorithmXXH128:
		return newXXH128
	default:
		panic("default or unknown hashing algorithm")
	}
}
