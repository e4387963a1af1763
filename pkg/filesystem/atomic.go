package filesystem

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/must"
)

const (
	// atomicWriteTemporaryNamePrefix is the file name prefix to use for
	// intermediate temporary files used in atomic writes.
	atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"
	// atomicWriteBufferSize is the size of the buffer placed in front of the
	// temporary file for streamed writes.
	atomicWriteBufferSize = 64 * 1024
)

// WriteAtomic writes a file to disk in an atomic fashion by streaming content
// produced by the write callback into an intermediate temporary file that is
// swapped into place using a rename operation. If the callback fails, the
// temporary file is removed and the destination is left untouched.
func WriteAtomic(path string, permissions os.FileMode, logger *logging.Logger, write func(io.Writer) error) error {
	// Create a temporary file in the destination directory so that the final
	// rename doesn't cross devices. The os package already uses secure
	// permissions for creating temporary files.
	temporary, err := os.CreateTemp(filepath.Dir(path), atomicWriteTemporaryNamePrefix)
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}

	// Write data through a buffer.
	buffered := bufio.NewWriterSize(temporary, atomicWriteBufferSize)
	if err = write(buffered); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return err
	} else if err = buffered.Flush(); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to flush data to temporary file")
	}

	// Ensure that the data has reached the disk before exposing it.
	if err = temporary.Sync(); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to sync temporary file")
	}

	// Close out the file.
	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to close temporary file")
	}

	// Set the file's permissions.
	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to change file permissions")
	}

	// Rename the file.
	if err = os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to rename file")
	}

	// Success.
	return nil
}

// WriteFileAtomic writes a byte slice to disk in an atomic fashion. It is a
// convenience wrapper around WriteAtomic.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	return WriteAtomic(path, permissions, logger, func(writer io.Writer) error {
		if _, err := writer.Write(data); err != nil {
			return errors.Wrap(err, "unable to write data to temporary file")
		}
		return nil
	})
}
