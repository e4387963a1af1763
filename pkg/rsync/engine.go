package rsync

import (
	"bytes"
	"hash"
	"io"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/parallelism"
	"github.com/rolldiff/rolldiff/pkg/rollsum"
)

// OperationTransmitter transmits an operation. Operation objects are re-used
// between calls to the transmitter and literal data aliases the target, so the
// transmitter should not return until it has either transmitted the operation
// or copied it for later transmission.
type OperationTransmitter func(*Operation) error

// Engine provides rsync functionality without any notion of transport. It is
// designed to be re-used to avoid repeated hasher allocation. It is not safe
// for concurrent use.
type Engine struct {
	// weakAlgorithm is the rolling checksum used for new signatures.
	weakAlgorithm rollsum.Algorithm
	// strongAlgorithm is the hashing algorithm used for new signatures.
	strongAlgorithm hashing.Algorithm
	// weakHashers caches rolling checksum hashers by algorithm.
	weakHashers map[rollsum.Algorithm]rollsum.Hasher
	// strongHashers caches strong hashers by algorithm.
	strongHashers map[hashing.Algorithm]hash.Hash
	// strongHashBuffer is a re-usable buffer that receives window digests.
	strongHashBuffer []byte
	// workers is the worker array used for parallel signature computation. It
	// is nil for sequential engines.
	workers *parallelism.WorkerArray
	// operation is a re-usable operation object used for transmissions to avoid
	// allocations.
	operation *Operation
	// logger is the engine's logger.
	logger *logging.Logger
}

// NewEngine creates a new rsync engine. Default algorithm values select the
// rsync rolling checksum and SHA-1. If workers is 1, signatures are computed
// sequentially; otherwise they are computed by a worker array of the specified
// size, with non-positive sizes selecting one worker per CPU. The engine
// should be finalized when no longer needed.
func NewEngine(weak rollsum.Algorithm, strong hashing.Algorithm, workers int, logger *logging.Logger) *Engine {
	// Resolve default algorithms.
	if weak.IsDefault() {
		weak = rollsum.AlgorithmRollsum
	}
	if strong.IsDefault() {
		strong = hashing.AlgorithmSHA1
	}

	// Create the worker array if necessary.
	var array *parallelism.WorkerArray
	if workers != 1 {
		array = parallelism.NewWorkerArray(workers)
	}

	// Create the engine.
	return &Engine{
		weakAlgorithm:   weak,
		strongAlgorithm: strong,
		weakHashers:     make(map[rollsum.Algorithm]rollsum.Hasher),
		strongHashers:   make(map[hashing.Algorithm]hash.Hash),
		workers:         array,
		operation:       &Operation{},
		logger:          logger,
	}
}

// NewDefaultEngine creates a sequential engine with default algorithms and no
// logging.
func NewDefaultEngine() *Engine {
	return NewEngine(rollsum.AlgorithmDefault, hashing.AlgorithmDefault, 1, nil)
}

// Finalize releases the engine's worker Goroutines, if any. It always returns
// nil.
func (e *Engine) Finalize() error {
	if e.workers != nil {
		e.workers.Terminate()
	}
	return nil
}

// weakHasher returns the engine's cached hasher for a rolling checksum.
func (e *Engine) weakHasher(algorithm rollsum.Algorithm) rollsum.Hasher {
	hasher, ok := e.weakHashers[algorithm]
	if !ok {
		hasher = algorithm.New()
		e.weakHashers[algorithm] = hasher
	}
	return hasher
}

// strongHasher returns the engine's cached hasher for a strong algorithm.
func (e *Engine) strongHasher(algorithm hashing.Algorithm) hash.Hash {
	hasher, ok := e.strongHashers[algorithm]
	if !ok {
		hasher = algorithm.Factory()()
		e.strongHashers[algorithm] = hasher
	}
	return hasher
}

// strongHash computes the digest of data into the engine's internal digest
// buffer. The result is only valid until the next call to strongHash.
func (e *Engine) strongHash(hasher hash.Hash, data []byte) []byte {
	// Reset the hasher and digest the data. The Hash interface guarantees that
	// writes succeed.
	hasher.Reset()
	hasher.Write(data)

	// Compute the digest.
	e.strongHashBuffer = hasher.Sum(e.strongHashBuffer[:0])
	return e.strongHashBuffer
}

// hashBlocks computes block hashes for the blocks in [start, end) of base,
// storing them at their block index in signature.
func hashBlocks(base []byte, signature *Signature, start, end int, weak rollsum.Hasher, strong hash.Hash) {
	blockSize := signature.BlockSize
	length := uint64(len(base))
	for i := start; i < end; i++ {
		offset := uint64(i) * blockSize
		limit := offset + blockSize
		if limit > length {
			limit = length
		}
		block := base[offset:limit]
		strong.Reset()
		strong.Write(block)
		signature.Hashes[i] = &BlockHash{
			Weak:   weak.Reset(block),
			Strong: strong.Sum(nil),
		}
	}
}

// Signature computes the signature for a base. If the provided block size is
// 0, the optimal block size for the base length is used. An empty base yields
// a signature with no blocks that still records the block size.
func (e *Engine) Signature(base []byte, blockSize uint64) (*Signature, error) {
	// Choose a block size if none is specified and validate it otherwise.
	length := uint64(len(base))
	if blockSize == 0 {
		blockSize = OptimalBlockSizeForBaseLength(length)
	} else if blockSize > MaximumBlockSize {
		return nil, errors.Errorf("block size (%d) exceeds maximum", blockSize)
	}

	// Create the result.
	result := &Signature{
		BlockSize:       blockSize,
		WeakAlgorithm:   e.weakAlgorithm,
		StrongAlgorithm: e.strongAlgorithm,
	}

	// Handle empty bases.
	if length == 0 {
		e.logger.Debugf("Computed empty signature with block size %d", blockSize)
		return result, nil
	}

	// Size the result. All blocks are full-length except possibly the last.
	count := (length + blockSize - 1) / blockSize
	result.LastBlockSize = length - (count-1)*blockSize
	result.Hashes = make([]*BlockHash, count)

	// Hash blocks. Parallel workers each own a disjoint stripe of block
	// indices, so the result is identical to sequential hashing.
	if e.workers != nil && count > 1 {
		err := e.workers.Do(parallelism.WorkFunc(func(index, size int) error {
			start, end := parallelism.Stripe(index, size, int(count))
			if start < end {
				hashBlocks(base, result, start, end, e.weakAlgorithm.New(), e.strongAlgorithm.Factory()())
			}
			return nil
		}))
		if err != nil {
			return nil, errors.Wrap(err, "parallel block hashing failed")
		}
	} else {
		hashBlocks(base, result, 0, int(count), e.weakHasher(e.weakAlgorithm), e.strongHasher(e.strongAlgorithm))
	}

	// Success.
	e.logger.Debugf("Computed signature with %d blocks of %d bytes (last block %d bytes)",
		count, blockSize, result.LastBlockSize,
	)
	return result, nil
}

// transmitLiteral transmits a literal operation using the engine's internal
// operation object.
func (e *Engine) transmitLiteral(data []byte, transmit OperationTransmitter) error {
	// Set the operation parameters.
	*e.operation = Operation{
		Kind: OperationKindLiteral,
		Data: data,
	}

	// Transmit.
	return transmit(e.operation)
}

// transmitCopy transmits a copy operation using the engine's internal operation
// object.
func (e *Engine) transmitCopy(index, length uint64, transmit OperationTransmitter) error {
	// Set the operation parameters.
	*e.operation = Operation{
		Kind:       OperationKindCopy,
		BlockIndex: index,
		Length:     length,
	}

	// Transmit.
	return transmit(e.operation)
}

// findMatch searches for a full-length base block matching window. Candidates
// are confirmed with the strong hash in ascending block order, so the lowest
// matching index wins.
func (e *Engine) findMatch(index candidateIndex, base *Signature, strong hash.Hash, weak uint32, window []byte) (uint64, bool) {
	candidates := index[weak]
	if len(candidates) == 0 {
		return 0, false
	}
	digest := e.strongHash(strong, window)
	for _, c := range candidates {
		if bytes.Equal(base.Hashes[c].Strong, digest) {
			return c, true
		}
	}
	return 0, false
}

// Deltafy computes delta operations to reconstitute the target using the base
// described by the provided signature, streaming them to the provided
// transmission function. Matching is greedy, single-pass, and non-overlapping.
// Runs of unmatched bytes are always emitted as a single literal operation and
// copies of consecutive base blocks are coalesced into a single copy
// operation. For performance reasons, this method does not validate the
// signature. It is the responsibility of the caller to verify signatures
// received from untrusted locations by calling their EnsureValid method. An
// invalid signature can result in undefined behavior.
func (e *Engine) Deltafy(target []byte, base *Signature, transmit OperationTransmitter) error {
	// Track statistics for logging.
	var statistics DeltaStatistics

	// If the base is empty, then there's no way we'll find any matching blocks,
	// so just send the entire target.
	if base.isEmpty() {
		if len(target) > 0 {
			statistics.LiteralOperations, statistics.LiteralBytes = 1, uint64(len(target))
			if err := e.transmitLiteral(target, transmit); err != nil {
				return errors.Wrap(err, "unable to transmit literal operation")
			}
		}
		e.logDeltaStatistics(uint64(len(target)), base, statistics)
		return nil
	}

	// Create block and literal transmitters that coalesce adjacent copy
	// operations. Some corresponding finalization logic is required at the end
	// of this function.
	blockSize := base.BlockSize
	var coalescedStart, coalescedLength uint64
	flushCopy := func() error {
		if coalescedLength == 0 {
			return nil
		}
		statistics.CopyOperations++
		statistics.CopyBytes += coalescedLength
		err := e.transmitCopy(coalescedStart, coalescedLength, transmit)
		coalescedLength = 0
		return err
	}
	sendCopy := func(index, length uint64) error {
		if coalescedLength > 0 {
			if coalescedStart*blockSize+coalescedLength == index*blockSize {
				coalescedLength += length
				return nil
			} else if err := flushCopy(); err != nil {
				return err
			}
		}
		coalescedStart = index
		coalescedLength = length
		return nil
	}
	sendLiteral := func(data []byte) error {
		if len(data) == 0 {
			return nil
		} else if err := flushCopy(); err != nil {
			return err
		}
		statistics.LiteralOperations++
		statistics.LiteralBytes += uint64(len(data))
		return e.transmitLiteral(data, transmit)
	}

	// Set up matching state.
	index := newCandidateIndex(base)
	weakHasher := e.weakHasher(base.WeakAlgorithm)
	strongHasher := e.strongHasher(base.StrongAlgorithm)
	length := uint64(len(target))

	// Scan the target. The window always begins at position, and bytes between
	// literalStart and position are pending literal data. After a match, the
	// window jumps forward by a whole block and the weak checksum has to be
	// recomputed. Otherwise it is rolled forward by one byte.
	var position, literalStart uint64
	var weak uint32
	rolling := false
	for length-position >= blockSize {
		window := target[position : position+blockSize]
		if !rolling {
			weak = weakHasher.Reset(window)
			rolling = true
		}

		// Look for a block match for the window. If there's a match, send any
		// pending literal data and then send the match.
		if match, ok := e.findMatch(index, base, strongHasher, weak, window); ok {
			if err := sendLiteral(target[literalStart:position]); err != nil {
				return errors.Wrap(err, "unable to transmit literal data preceding match")
			} else if err = sendCopy(match, blockSize); err != nil {
				return errors.Wrap(err, "unable to transmit match")
			}
			position += blockSize
			literalStart = position
			rolling = false
			continue
		}

		// Otherwise slide the window forward by one byte.
		if position+blockSize < length {
			weak = weakHasher.Roll(target[position], target[position+blockSize])
		}
		position++
	}

	// Fewer than a block's worth of bytes remain. The only tail window that can
	// match is the one whose length equals a short final block.
	if base.hasShortLastBlock() && length-position >= base.LastBlockSize {
		tailStart := length - base.LastBlockSize
		tail := target[tailStart:]
		lastIndex := base.BlockCount() - 1
		last := base.Hashes[lastIndex]
		if weakHasher.Reset(tail) == last.Weak && bytes.Equal(e.strongHash(strongHasher, tail), last.Strong) {
			if err := sendLiteral(target[literalStart:tailStart]); err != nil {
				return errors.Wrap(err, "unable to transmit literal data preceding final block")
			} else if err = sendCopy(lastIndex, base.LastBlockSize); err != nil {
				return errors.Wrap(err, "unable to transmit final block match")
			}
			literalStart = length
		}
	}

	// Send any remaining literal data.
	if err := sendLiteral(target[literalStart:]); err != nil {
		return errors.Wrap(err, "unable to transmit final literal operation")
	}

	// Send any final pending coalesced operation. This can't be done as a defer
	// because we need to watch for errors.
	if err := flushCopy(); err != nil {
		return errors.Wrap(err, "unable to transmit final copy operation")
	}

	// Success.
	e.logDeltaStatistics(length, base, statistics)
	return nil
}

// logDeltaStatistics logs a summary of a delta computation.
func (e *Engine) logDeltaStatistics(targetLength uint64, base *Signature, statistics DeltaStatistics) {
	e.logger.Debugf(
		"Computed delta for %d bytes against %d blocks: %d bytes copied in %d operations, %d literal bytes in %d operations",
		targetLength, base.BlockCount(),
		statistics.CopyBytes, statistics.CopyOperations,
		statistics.LiteralBytes, statistics.LiteralOperations,
	)
}

// TargetHeader computes the delta header for a target deltafied against the
// base described by the provided signature.
func (e *Engine) TargetHeader(target []byte, base *Signature) *DeltaHeader {
	hasher := e.strongHasher(base.StrongAlgorithm)
	hasher.Reset()
	hasher.Write(target)
	return &DeltaHeader{
		BlockSize:       base.BlockSize,
		StrongAlgorithm: base.StrongAlgorithm,
		TargetLength:    uint64(len(target)),
		TargetDigest:    hasher.Sum(nil),
	}
}

// DeltafyBytes computes a complete in-memory delta for a target. The same
// signature validation requirements as Deltafy apply.
func (e *Engine) DeltafyBytes(target []byte, base *Signature) *Delta {
	// Create the result.
	result := &Delta{DeltaHeader: *e.TargetHeader(target, base)}

	// Create an operation transmitter to populate the result.
	transmit := func(o *Operation) error {
		result.Operations = append(result.Operations, o.Copy())
		return nil
	}

	// Compute the delta and watch for errors (which shouldn't occur for
	// in-memory data).
	if err := e.Deltafy(target, base, transmit); err != nil {
		panic(errors.Wrap(err, "in-memory deltafication failure"))
	}

	// Success.
	return result
}

// PatchBytes applies an in-memory delta to an in-memory base.
func (e *Engine) PatchBytes(base []byte, delta *Delta) ([]byte, error) {
	// Create the output buffer and patcher.
	output := &bytes.Buffer{}
	patcher, err := NewPatcher(output, bytes.NewReader(base), uint64(len(base)), &delta.DeltaHeader)
	if err != nil {
		return nil, err
	}

	// Apply operations.
	for _, o := range delta.Operations {
		if err := patcher.Apply(o); err != nil {
			return nil, err
		}
	}

	// Verify the result.
	if err := patcher.Finish(); err != nil {
		return nil, err
	}

	// Success.
	e.logger.Debugf("Reconstructed %d bytes from %d operations", output.Len(), len(delta.Operations))
	return output.Bytes(), nil
}

// PatchStream applies a serialized delta to a base, writing the reconstructed
// target to destination. Operations are decoded and applied one at a time.
// Output written before an error is returned must be discarded by the caller.
func (e *Engine) PatchStream(destination io.Writer, base io.ReaderAt, baseLength uint64, decoder *DeltaDecoder) error {
	// Create the patcher.
	patcher, err := NewPatcher(destination, base, baseLength, decoder.Header())
	if err != nil {
		return err
	}

	// Apply operations until the decoder is exhausted.
	var count uint64
	for {
		operation, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		} else if err = patcher.Apply(operation); err != nil {
			return err
		}
		count++
	}

	// Verify the result.
	if err := patcher.Finish(); err != nil {
		return err
	}

	// Success.
	e.logger.Debugf("Reconstructed %d bytes from %d operations", patcher.Written(), count)
	return nil
}
