package rollsum

import (
	"math/rand"
	"testing"
)

// allAlgorithms lists every supported rolling checksum.
var allAlgorithms = []Algorithm{AlgorithmRollsum, AlgorithmRabinKarp}

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
		{"rollsum", AlgorithmRollsum, false},
		{"adler", AlgorithmRollsum, false},
		{"rabin-karp", AlgorithmRabinKarp, false},
		{"rabinkarp", AlgorithmRabinKarp, false},
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
	if AlgorithmDefault.Supported() {
		t.Error("default algorithm reported as supported")
	}
	for _, algorithm := range allAlgorithms {
		if !algorithm.Supported() {
			t.Errorf("%s reported as unsupported", algorithm)
		}
	}
	if (AlgorithmRabinKarp + 1).Supported() {
		t.Error("out-of-range algorithm reported as supported")
	}
}

// TestRollMatchesDirect tests that rolling a window across random data always
// yields the same checksum as computing it directly over the same window.
func TestRollMatchesDirect(t *testing.T) {
	random := rand.New(rand.NewSource(473))
	data := make([]byte, 4096)
	random.Read(data)

	for _, algorithm := range allAlgorithms {
		for _, window := range []int{1, 2, 7, 300, 1024} {
			hasher := algorithm.New()
			rolled := hasher.Reset(data[:window])
			if direct := Checksum(algorithm, data[:window]); rolled != direct {
				t.Fatalf("%s: initial checksum mismatch for window %d", algorithm, window)
			}
			for i := window; i < len(data); i++ {
				rolled = hasher.Roll(data[i-window], data[i])
				if direct := Checksum(algorithm, data[i-window+1:i+1]); rolled != direct {
					t.Fatalf(
						"%s: rolled checksum (%08x) does not match direct (%08x) at offset %d with window %d",
						algorithm, rolled, direct, i-window+1, window,
					)
				}
				if hasher.Sum() != rolled {
					t.Fatalf("%s: sum does not match last rolled value", algorithm)
				}
			}
		}
	}
}

// TestRollsumKnownValue tests the rollsum checksum against a hand-computed
// value.
func TestRollsumKnownValue(t *testing.T) {
	// r1 = 1 + 2 + 3 = 6, r2 = 3*1 + 2*2 + 1*3 = 10.
	if sum := Checksum(AlgorithmRollsum, []byte{1, 2, 3}); sum != 6|10<<16 {
		t.Errorf("unexpected rollsum checksum: %08x", sum)
	}
}

// TestRabinKarpKnownValue tests the Rabin-Karp checksum against a
// hand-computed value.
func TestRabinKarpKnownValue(t *testing.T) {
	// 1*257^2 + 2*257 + 3 = 66566.
	if sum := Checksum(AlgorithmRabinKarp, []byte{1, 2, 3}); sum != 66566 {
		t.Errorf("unexpected Rabin-Karp checksum: %d", sum)
	}
}

// TestEmptyWindow tests that an empty window yields a zero checksum.
func TestEmptyWindow(t *testing.T) {
	for _, algorithm := range allAlgorithms {
		if sum := Checksum(algorithm, nil); sum != 0 {
			t.Errorf("%s: non-zero checksum for empty window: %08x", algorithm, sum)
		}
	}
}
