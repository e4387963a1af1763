package main

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/configuration"
	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/rsync"
)

// testFiles generates a related old/new file pair.
func testFiles() ([]byte, []byte) {
	random := rand.New(rand.NewSource(473))
	old := make([]byte, 64*1024)
	random.Read(old)
	updated := make([]byte, 0, len(old)+64)
	updated = append(updated, old[:20000]...)
	updated = append(updated, []byte("a modification inserted into the middle of the file")...)
	updated = append(updated, old[20000:]...)
	updated[50000] ^= 0xff
	return old, updated
}

// execute runs the root command with the specified arguments.
func execute(t *testing.T, arguments ...string) {
	t.Helper()
	rootCommand.SetArgs(arguments)
	if err := rootCommand.Execute(); err != nil {
		t.Fatalf("command %v failed: %v", arguments, err)
	}
}

// writeTestFile writes a file into the test's temporary directory.
func writeTestFile(t *testing.T, directory, name string, data []byte, permissions os.FileMode) string {
	t.Helper()
	path := filepath.Join(directory, name)
	if err := os.WriteFile(path, data, permissions); err != nil {
		t.Fatal("unable to write test file:", err)
	}
	return path
}

func TestCommandRoundTrip(t *testing.T) {
	// Isolate configuration loading.
	directory := t.TempDir()
	t.Setenv("HOME", directory)
	configurationPath := writeTestFile(t, directory, "rolldiff.yml", []byte("blockSize: 512\nlogLevel: error\n"), 0600)

	// Create inputs.
	old, updated := testFiles()
	oldPath := writeTestFile(t, directory, "old", old, 0640)
	newPath := writeTestFile(t, directory, "new", updated, 0600)
	signaturePath := filepath.Join(directory, "old.sig")
	deltaPath := filepath.Join(directory, "new.delta")
	outputPath := filepath.Join(directory, "output")

	// Run the pipeline.
	execute(t, "--config", configurationPath, "signature", "--strong-hash", "blake2b", "--parallelism", "0", oldPath, signaturePath)
	execute(t, "--config", configurationPath, "delta", "--compression", "zstd", signaturePath, newPath, deltaPath)
	execute(t, "--config", configurationPath, "patch", oldPath, deltaPath, outputPath)

	// Verify the reconstruction.
	if output, err := os.ReadFile(outputPath); err != nil {
		t.Fatal("unable to read output:", err)
	} else if !bytes.Equal(output, updated) {
		t.Error("reconstructed file does not match new file")
	}

	// Verify that the output took on the base's permissions.
	if info, err := os.Stat(outputPath); err != nil {
		t.Fatal("unable to query output:", err)
	} else if info.Mode().Perm() != 0640 {
		t.Errorf("output permissions (%o) do not match base permissions", info.Mode().Perm())
	}

	// Verify that configuration and overrides were honored.
	signatureFile, err := os.Open(signaturePath)
	if err != nil {
		t.Fatal("unable to open signature:", err)
	}
	defer signatureFile.Close()
	if signature, err := rsync.DecodeSignature(signatureFile); err != nil {
		t.Fatal("unable to decode signature:", err)
	} else if signature.BlockSize != 512 {
		t.Error("signature block size does not match configuration:", signature.BlockSize)
	} else if signature.StrongAlgorithm.String() != "blake2b-256" {
		t.Error("signature strong hash does not match override:", signature.StrongAlgorithm)
	}

	// Verify that no temporary files were left behind.
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal("unable to list directory:", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".rolldiff-temporary-") {
			t.Error("temporary file left behind:", entry.Name())
		}
	}
}

func TestRoundTripMeasurement(t *testing.T) {
	old, updated := testFiles()
	for _, algorithm := range []compression.Algorithm{
		compression.AlgorithmNone,
		compression.AlgorithmDeflate,
		compression.AlgorithmZstandard,
	} {
		engine := rsync.NewDefaultEngine()
		result, err := roundTrip(engine, old, updated, 0, algorithm)
		engine.Finalize()
		if err != nil {
			t.Fatalf("%s: round trip failed: %v", algorithm, err)
		} else if result.targetSize != uint64(len(updated)) {
			t.Errorf("%s: target size incorrect", algorithm)
		} else if result.signatureSize == 0 || result.deltaSize == 0 {
			t.Errorf("%s: artifact sizes not recorded", algorithm)
		} else if result.statistics.CopyBytes+result.statistics.LiteralBytes != result.targetSize {
			t.Errorf("%s: operation statistics don't cover target", algorithm)
		} else if result.ratio() >= 100 {
			t.Errorf("%s: delta not smaller than new file (%.2f%%)", algorithm, result.ratio())
		}

		output := &bytes.Buffer{}
		result.print(output)
		if !strings.Contains(output.String(), "Ratio:") {
			t.Errorf("%s: report missing ratio", algorithm)
		}
	}
}

func TestMeasurementEmptyTarget(t *testing.T) {
	engine := rsync.NewDefaultEngine()
	defer engine.Finalize()
	result, err := roundTrip(engine, []byte("old"), nil, 0, compression.AlgorithmNone)
	if err != nil {
		t.Fatal("round trip failed:", err)
	} else if result.ratio() != 0 {
		t.Error("ratio for empty target is non-zero")
	}
}

func TestInspect(t *testing.T) {
	old, updated := testFiles()
	signature, err := rsync.BuildSignature(old, 1024)
	if err != nil {
		t.Fatal("unable to compute signature:", err)
	}
	delta, err := rsync.BuildDelta(signature, updated)
	if err != nil {
		t.Fatal("unable to compute delta:", err)
	}

	// Inspect the signature.
	encoded := &bytes.Buffer{}
	if err := rsync.EncodeSignature(encoded, signature, compression.AlgorithmDeflate); err != nil {
		t.Fatal("unable to encode signature:", err)
	}
	output := &bytes.Buffer{}
	if err := inspectSignature(output, encoded, int64(encoded.Len())); err != nil {
		t.Fatal("unable to inspect signature:", err)
	}
	for _, expected := range []string{"Artifact: signature", "Blocks: 64", "Block size: 1.0 KiB", "Base length: 64 KiB"} {
		if !strings.Contains(output.String(), expected) {
			t.Errorf("signature summary missing %q:\n%s", expected, output.String())
		}
	}

	// Inspect the delta.
	encoded.Reset()
	if err := rsync.EncodeDelta(encoded, delta, compression.AlgorithmNone); err != nil {
		t.Fatal("unable to encode delta:", err)
	}
	output.Reset()
	if err := inspectDelta(output, encoded, int64(encoded.Len())); err != nil {
		t.Fatal("unable to inspect delta:", err)
	}
	for _, expected := range []string{"Artifact: delta", "Copy operations:", "Literal operations:"} {
		if !strings.Contains(output.String(), expected) {
			t.Errorf("delta summary missing %q:\n%s", expected, output.String())
		}
	}

	// Inspecting garbage must fail with a format error.
	if err := inspectDelta(output, strings.NewReader("garbage"), 7); err == nil {
		t.Error("inspection of garbage succeeded")
	}
}

func TestConfigSave(t *testing.T) {
	// Isolate configuration loading.
	directory := t.TempDir()
	t.Setenv("HOME", directory)
	configurationPath := writeTestFile(t, directory, "rolldiff.yml", []byte("strongHash: xxh128\nlogLevel: error\n"), 0600)
	savedPath := filepath.Join(directory, "saved.yml")

	// Save the effective configuration with a log level override applied.
	execute(t, "--config", configurationPath, "--log-level", "warn", "config", "--save", savedPath)

	// Verify that the saved file reloads to the effective configuration.
	expected := configuration.Default()
	expected.StrongHash = hashing.AlgorithmXXH128
	expected.LogLevel = logging.LevelWarn
	if saved, err := configuration.Load(savedPath); err != nil {
		t.Fatal("unable to load saved configuration:", err)
	} else if *saved != *expected {
		t.Errorf("saved configuration (%+v) does not match expected (%+v)", *saved, *expected)
	}
}
