package rsync

import (
	"math"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/rollsum"
)

const (
	// DefaultBlockSize is the block size used when none is configured.
	DefaultBlockSize = 300
	// MaximumBlockSize is the largest block size representable in an artifact.
	MaximumBlockSize = math.MaxUint32
	// minimumOptimalBlockSize is the minimum block size that will be returned
	// by OptimalBlockSizeForBaseLength. It has to be chosen so that it is at
	// least a few orders of magnitude larger than the size of a BlockHash.
	minimumOptimalBlockSize = 1 << 10
	// maximumOptimalBlockSize is the maximum block size that will be returned
	// by OptimalBlockSizeForBaseLength.
	maximumOptimalBlockSize = 1 << 16
)

// OptimalBlockSizeForBaseLength uses a simple heuristic to choose a block size
// based on the base length. It starts by choosing the optimal block length
// using the formula given in the rsync thesis (assuming one change per file)
// and then clamps the result to a sensible range.
func OptimalBlockSizeForBaseLength(baseLength uint64) uint64 {
	// Compute the optimal block length.
	result := uint64(math.Sqrt(24.0 * float64(baseLength)))

	// Ensure it's within the allowed range.
	if result < minimumOptimalBlockSize {
		result = minimumOptimalBlockSize
	} else if result > maximumOptimalBlockSize {
		result = maximumOptimalBlockSize
	}

	// Done.
	return result
}

// BlockHash is the pair of checksums computed for a single base block.
type BlockHash struct {
	// Weak is the rolling checksum of the block.
	Weak uint32
	// Strong is the strong digest of the block.
	Strong []byte
}

// EnsureValid verifies that block hash invariants are respected.
func (h *BlockHash) EnsureValid() error {
	// A nil block hash is not valid.
	if h == nil {
		return errors.New("nil block hash")
	}

	// Ensure that the strong signature is valid.
	if len(h.Strong) == 0 {
		return errors.New("empty strong signature")
	}

	// Success.
	return nil
}

// Signature describes a base in terms of per-block checksums. Block indices are
// implicit in the position of each hash.
type Signature struct {
	// BlockSize is the size of every block except possibly the last.
	BlockSize uint64
	// LastBlockSize is the size of the final block. It is zero if and only if
	// there are no blocks.
	LastBlockSize uint64
	// WeakAlgorithm is the rolling checksum used for Weak values.
	WeakAlgorithm rollsum.Algorithm
	// StrongAlgorithm is the hashing algorithm used for Strong values.
	StrongAlgorithm hashing.Algorithm
	// Hashes are the block hashes in block order.
	Hashes []*BlockHash
}

// EnsureValid verifies that signature invariants are respected.
func (s *Signature) EnsureValid() error {
	// A nil signature is not valid.
	if s == nil {
		return errors.New("nil signature")
	}

	// Ensure that the algorithms are usable.
	if !s.WeakAlgorithm.Supported() {
		return errors.New("unsupported weak checksum algorithm")
	} else if !s.StrongAlgorithm.Supported() {
		return errors.New("unsupported strong hashing algorithm")
	}

	// Ensure that the block size is representable.
	if s.BlockSize == 0 {
		return errors.New("zero block size")
	} else if s.BlockSize > MaximumBlockSize {
		return errors.New("block size too large")
	}

	// An empty signature has no last block. Otherwise the last block size
	// should be non-0 but less than or equal to the block size.
	if len(s.Hashes) == 0 {
		if s.LastBlockSize != 0 {
			return errors.New("empty signature with non-0 last block size")
		}
		return nil
	} else if s.LastBlockSize == 0 {
		return errors.New("non-empty signature with last block size of 0")
	} else if s.LastBlockSize > s.BlockSize {
		return errors.New("last block size greater than block size")
	}

	// Ensure that all block hashes are valid and match the digest size.
	digestSize := s.StrongAlgorithm.Size()
	for i, h := range s.Hashes {
		if err := h.EnsureValid(); err != nil {
			return errors.Wrapf(err, "invalid block hash at index %d", i)
		} else if len(h.Strong) != digestSize {
			return errors.Errorf("block hash at index %d has incorrect digest size", i)
		}
	}

	// Success.
	return nil
}

// BlockCount returns the number of blocks in the signature.
func (s *Signature) BlockCount() uint64 {
	return uint64(len(s.Hashes))
}

// BlockLength returns the length of the block at the specified index. It
// returns 0 for out-of-range indices.
func (s *Signature) BlockLength(index uint64) uint64 {
	count := s.BlockCount()
	if index >= count {
		return 0
	} else if index == count-1 {
		return s.LastBlockSize
	}
	return s.BlockSize
}

// BaseLength returns the length of the base described by the signature.
func (s *Signature) BaseLength() uint64 {
	count := s.BlockCount()
	if count == 0 {
		return 0
	}
	return (count-1)*s.BlockSize + s.LastBlockSize
}

// isEmpty returns true if the signature represents an empty base.
func (s *Signature) isEmpty() bool {
	return len(s.Hashes) == 0
}

// hasShortLastBlock returns true if the final block is shorter than the block
// size. Such a block can only match a tail window of the same length.
func (s *Signature) hasShortLastBlock() bool {
	return len(s.Hashes) > 0 && s.LastBlockSize != s.BlockSize
}
