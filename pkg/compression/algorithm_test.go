package compression

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

// TestAlgorithmUnmarshal tests that unmarshaling from a string specification
// succeeds for Algorithm.
func TestAlgorithmUnmarshal(t *testing.T) {
	// Set up test cases.
	testCases := []struct {
		text          string
		expected      Algorithm
		expectFailure bool
	}{
		{"", AlgorithmDefault, true},
		{"asdf", AlgorithmDefault, true},
		{"none", AlgorithmNone, false},
		{"deflate", AlgorithmDeflate, false},
		{"zstandard", AlgorithmZstandard, false},
		{"zstd", AlgorithmZstandard, false},
	}

	// Process test cases.
	for _, testCase := range testCases {
		var algorithm Algorithm
		if err := algorithm.UnmarshalText([]byte(testCase.text)); err != nil {
			if !testCase.expectFailure {
				t.Errorf("unable to unmarshal text (%s): %s", testCase.text, err)
			}
		} else if testCase.expectFailure {
			t.Error("unmarshaling succeeded unexpectedly for text:", testCase.text)
		} else if algorithm != testCase.expected {
			t.Errorf(
				"unmarshaled algorithm (%s) does not match expected (%s)",
				algorithm,
				testCase.expected,
			)
		}
	}
}

// TestAlgorithmSupported tests that Algorithm support detection works as
// expected.
func TestAlgorithmSupported(t *testing.T) {
	testCases := []struct {
		algorithm Algorithm
		expected  bool
	}{
		{AlgorithmDefault, false},
		{AlgorithmNone, true},
		{AlgorithmDeflate, true},
		{AlgorithmZstandard, true},
		{AlgorithmZstandard + 1, false},
	}
	for _, testCase := range testCases {
		if supported := testCase.algorithm.Supported(); supported != testCase.expected {
			t.Errorf(
				"algorithm support status (%t) does not match expected (%t)",
				supported,
				testCase.expected,
			)
		}
	}
}

// TestCompressionRoundTrip tests that data compressed with each algorithm
// decompresses to the original data.
func TestCompressionRoundTrip(t *testing.T) {
	// Generate partially compressible data.
	random := rand.New(rand.NewSource(473))
	data := make([]byte, 256*1024)
	random.Read(data[:len(data)/2])

	for _, algorithm := range []Algorithm{AlgorithmNone, AlgorithmDeflate, AlgorithmZstandard} {
		t.Run(algorithm.Description(), func(t *testing.T) {
			// Compress.
			compressed := &bytes.Buffer{}
			compressor := algorithm.Compress(compressed)
			if _, err := compressor.Write(data); err != nil {
				t.Fatal("unable to write data:", err)
			} else if err = compressor.Close(); err != nil {
				t.Fatal("unable to close compressor:", err)
			}

			// Decompress.
			decompressor := algorithm.Decompress(compressed)
			decompressed, err := io.ReadAll(decompressor)
			if err != nil {
				t.Fatal("unable to decompress data:", err)
			}
			decompressor.Close()

			// Verify.
			if !bytes.Equal(decompressed, data) {
				t.Error("decompressed data does not match original")
			}
		})
	}
}
