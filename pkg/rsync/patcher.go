package rsync

import (
	"bytes"
	"hash"
	"io"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/stream"
)

// PatcherState is the state of a Patcher.
type PatcherState uint8

const (
	// PatcherStateReading indicates that the patcher is waiting for the next
	// operation.
	PatcherStateReading PatcherState = iota
	// PatcherStateCopying indicates that the patcher is copying base data.
	PatcherStateCopying
	// PatcherStateEmitting indicates that the patcher is writing literal data.
	PatcherStateEmitting
	// PatcherStateDone indicates that the target was fully reconstructed and
	// verified.
	PatcherStateDone
	// PatcherStateFailed indicates that patching failed. It is terminal.
	PatcherStateFailed
)

// String implements fmt.Stringer.String.
func (s PatcherState) String() string {
	switch s {
	case PatcherStateReading:
		return "reading"
	case PatcherStateCopying:
		return "copying"
	case PatcherStateEmitting:
		return "emitting"
	case PatcherStateDone:
		return "done"
	case PatcherStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// patchCopyBufferSize is the maximum amount of base data held in memory while
// copying.
const patchCopyBufferSize = 1 << 16

// Patcher reconstructs a target by applying operations, in order, against a
// base of known length. Every copy operation is checked against the base
// before any of its data is written, and the reconstructed target is checked
// against the delta header once all operations have been applied.
type Patcher struct {
	// destination receives reconstructed data and feeds hasher.
	destination io.Writer
	// base is the base data.
	base io.ReaderAt
	// baseLength is the length of the base.
	baseLength uint64
	// blockSize is the block size of the delta.
	blockSize uint64
	// blockCount is the number of blocks in the base.
	blockCount uint64
	// targetLength is the declared target length.
	targetLength uint64
	// targetDigest is the declared target digest.
	targetDigest []byte
	// hasher digests the reconstructed target.
	hasher hash.Hash
	// written is the number of target bytes written so far.
	written uint64
	// state is the current patcher state.
	state PatcherState
	// buffer is the copy buffer, allocated lazily.
	buffer []byte
}

// NewPatcher creates a new patcher that writes to destination. The header must
// describe the delta whose operations will be applied.
func NewPatcher(destination io.Writer, base io.ReaderAt, baseLength uint64, header *DeltaHeader) (*Patcher, error) {
	// Validate the header.
	if err := header.EnsureValid(); err != nil {
		return nil, formatErrorf("invalid delta header: %v", err)
	}

	// Compute the number of blocks in the base.
	blockCount := baseLength / header.BlockSize
	if baseLength%header.BlockSize != 0 {
		blockCount++
	}

	// Create the patcher.
	hasher := header.StrongAlgorithm.Factory()()
	return &Patcher{
		destination:  stream.NewHashedWriter(destination, hasher),
		base:         base,
		baseLength:   baseLength,
		blockSize:    header.BlockSize,
		blockCount:   blockCount,
		targetLength: header.TargetLength,
		targetDigest: header.TargetDigest,
		hasher:       hasher,
	}, nil
}

// State returns the current patcher state.
func (p *Patcher) State() PatcherState {
	return p.state
}

// Written returns the number of target bytes written so far.
func (p *Patcher) Written() uint64 {
	return p.written
}

// checkUsable returns an error if the patcher is in a terminal state.
func (p *Patcher) checkUsable() error {
	switch p.state {
	case PatcherStateDone:
		return errors.New("patch already finished")
	case PatcherStateFailed:
		return errors.New("patch previously failed")
	}
	return nil
}

// fail transitions the patcher to the failed state and returns err.
func (p *Patcher) fail(err error) error {
	p.state = PatcherStateFailed
	return err
}

// Apply applies a single operation.
func (p *Patcher) Apply(operation *Operation) error {
	// Ensure that the patcher can still accept operations.
	if err := p.checkUsable(); err != nil {
		return err
	}

	// Validate the operation against the declared target.
	if err := operation.EnsureValid(); err != nil {
		return p.fail(corruptionErrorf("invalid operation: %v", err))
	} else if operation.TargetLength() > p.targetLength-p.written {
		return p.fail(corruptionErrorf("operation exceeds declared target length (%d bytes)", p.targetLength))
	}

	// Handle the operation based on type.
	if operation.Kind == OperationKindLiteral {
		p.state = PatcherStateEmitting
		if err := p.emit(operation.Data); err != nil {
			return p.fail(err)
		}
	} else {
		p.state = PatcherStateCopying
		if err := p.copy(operation.BlockIndex, operation.Length); err != nil {
			return p.fail(err)
		}
	}

	// Wait for the next operation.
	p.state = PatcherStateReading
	return nil
}

// emit writes target data to the destination.
func (p *Patcher) emit(data []byte) error {
	n, err := p.destination.Write(data)
	p.written += uint64(n)
	if err != nil {
		return newIOError("unable to write target", err)
	}
	return nil
}

// copy copies a validated range of the base to the destination.
func (p *Patcher) copy(index, length uint64) error {
	// Validate the range against the base.
	if index >= p.blockCount {
		return corruptionErrorf("block index %d out of range for base with %d blocks", index, p.blockCount)
	}
	offset := index * p.blockSize
	if length > p.baseLength-offset {
		return corruptionErrorf(
			"copy of %d bytes at offset %d exceeds base length (%d bytes)",
			length, offset, p.baseLength,
		)
	} else if length%p.blockSize != 0 && offset+length != p.baseLength {
		return corruptionErrorf("copy length %d is inconsistent with block size %d", length, p.blockSize)
	}

	// Allocate the copy buffer if necessary.
	if p.buffer == nil {
		size := uint64(patchCopyBufferSize)
		if p.baseLength < size {
			size = p.baseLength
		}
		p.buffer = make([]byte, size)
	}

	// Copy data in buffer-sized chunks.
	for length > 0 {
		chunk := uint64(len(p.buffer))
		if length < chunk {
			chunk = length
		}
		n, err := p.base.ReadAt(p.buffer[:chunk], int64(offset))
		if uint64(n) < chunk {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return newIOError("unable to read base", err)
		}
		if err := p.emit(p.buffer[:chunk]); err != nil {
			return err
		}
		offset += chunk
		length -= chunk
	}

	// Success.
	return nil
}

// Finish verifies that the reconstructed target matches the declared length
// and digest. No operations may be applied after Finish.
func (p *Patcher) Finish() error {
	// Ensure that the patcher hasn't already terminated.
	if err := p.checkUsable(); err != nil {
		return err
	}

	// Verify the target.
	if p.written != p.targetLength {
		return p.fail(corruptionErrorf(
			"reconstructed %d bytes but delta declares %d", p.written, p.targetLength,
		))
	} else if !bytes.Equal(p.hasher.Sum(nil), p.targetDigest) {
		return p.fail(corruptionErrorf("reconstructed target digest does not match delta"))
	}

	// Success.
	p.state = PatcherStateDone
	return nil
}
