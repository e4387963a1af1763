package hashing

import (
	"bytes"
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
		{"sha1", AlgorithmSHA1, false},
		{"sha256", AlgorithmSHA256, false},
		{"blake2b-256", AlgorithmBLAKE2b256, false},
		{"blake2b", AlgorithmBLAKE2b256, false},
		{"xxh128", AlgorithmXXH128, false},
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
	// Set up test cases.
	testCases := []struct {
		algorithm Algorithm
		expected  bool
	}{
		{AlgorithmDefault, false},
		{AlgorithmSHA1, true},
		{AlgorithmSHA256, true},
		{AlgorithmBLAKE2b256, true},
		{AlgorithmXXH128, true},
		{AlgorithmXXH128 + 1, false},
	}

	// Process test cases.
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

// TestAlgorithmFactory tests that each supported algorithm produces hashers
// whose digests have the advertised size and are deterministic.
func TestAlgorithmFactory(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	for _, algorithm := range []Algorithm{AlgorithmSHA1, AlgorithmSHA256, AlgorithmBLAKE2b256, AlgorithmXXH128} {
		t.Run(algorithm.Description(), func(t *testing.T) {
			factory := algorithm.Factory()

			first := factory()
			first.Write(data)
			firstDigest := first.Sum(nil)
			if len(firstDigest) != algorithm.Size() {
				t.Fatalf("digest length (%d) does not match size (%d)", len(firstDigest), algorithm.Size())
			} else if first.Size() != algorithm.Size() {
				t.Fatalf("hasher size (%d) does not match algorithm size (%d)", first.Size(), algorithm.Size())
			}

			second := factory()
			second.Write(data)
			if !bytes.Equal(firstDigest, second.Sum(nil)) {
				t.Error("digests for identical data differ")
			}

			first.Reset()
			first.Write(data[1:])
			if bytes.Equal(firstDigest, first.Sum(nil)) {
				t.Error("digests for different data are equal")
			}
		})
	}
}

// TestAlgorithmFactoryPanicsForDefault tests that requesting a factory for the
// default algorithm panics.
func TestAlgorithmFactoryPanicsForDefault(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("factory construction did not panic for default algorithm")
		}
	}()
	AlgorithmDefault.Factory()
}
