package filesystem

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicNonExistentDirectory(t *testing.T) {
	if WriteFileAtomic("/does/not/exist", []byte{}, 0600, nil) == nil {
		t.Error("atomic file write did not fail for non-existent path")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	// Compute the target path.
	target := filepath.Join(t.TempDir(), "file")

	// Create contents.
	contents := []byte{0, 1, 2, 3, 4, 5, 6}

	// Attempt to write to a temporary file.
	if err := WriteFileAtomic(target, contents, 0600, nil); err != nil {
		t.Fatal("atomic file write failed:", err)
	}

	// Read the contents back and ensure they match what's expected.
	if data, err := os.ReadFile(target); err != nil {
		t.Fatal("unable to read back file:", err)
	} else if !bytes.Equal(data, contents) {
		t.Error("file contents did not match expected")
	}
}

// TestWriteAtomicFailureLeavesNothing tests that a failing writer callback
// leaves neither the destination nor a temporary file behind.
func TestWriteAtomicFailureLeavesNothing(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")

	// Perform a write that fails partway through.
	failure := errors.New("interrupted")
	err := WriteAtomic(target, 0600, nil, func(writer io.Writer) error {
		if _, err := writer.Write([]byte("partial")); err != nil {
			return err
		}
		return failure
	})
	if err != failure {
		t.Fatal("unexpected error:", err)
	}

	// Ensure that the directory is still empty.
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal("unable to read directory:", err)
	}
	for _, entry := range entries {
		if entry.Name() == "file" || strings.HasPrefix(entry.Name(), TemporaryNamePrefix) {
			t.Error("unexpected file left behind:", entry.Name())
		}
	}
}

// TestWriteAtomicReplacesExisting tests that an existing destination is
// replaced in full.
func TestWriteAtomicReplacesExisting(t *testing.T) {
	target := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(target, []byte("old contents that are longer"), 0600); err != nil {
		t.Fatal("unable to create initial file:", err)
	}
	if err := WriteFileAtomic(target, []byte("new"), 0644, nil); err != nil {
		t.Fatal("atomic file write failed:", err)
	}
	if data, err := os.ReadFile(target); err != nil {
		t.Fatal("unable to read back file:", err)
	} else if string(data) != "new" {
		t.Error("file contents did not match expected:", string(data))
	}
}
