package rsync

import (
	"io"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/rollsum"
)

// A signature body is laid out as:
//
//	block_size      uint32
//	last_block_size uint32
//	weak_algorithm  uint8
//	strong_algorithm uint8
//	digest_size     uint8
//	block_count     uint64
//	block_count × { weak uint32, strong [digest_size]byte }

// maximumInitialHashCapacity bounds the number of block hashes preallocated
// based on an untrusted block count.
const maximumInitialHashCapacity = 1 << 16

// EncodeSignature serializes a signature to destination using the specified
// body compression.
func EncodeSignature(destination io.Writer, signature *Signature, algorithm compression.Algorithm) error {
	// Validate arguments.
	if err := signature.EnsureValid(); err != nil {
		return errors.Wrap(err, "invalid signature")
	} else if !algorithm.Supported() {
		return errors.New("unsupported compression algorithm")
	}

	// Write the header.
	if err := writeArtifactHeader(destination, ArtifactKindSignature, algorithm); err != nil {
		return err
	}

	// Write the body.
	body := newBodyWriter(destination, algorithm)
	body.putUint32(uint32(signature.BlockSize))
	body.putUint32(uint32(signature.LastBlockSize))
	body.putUint8(uint8(signature.WeakAlgorithm))
	body.putUint8(uint8(signature.StrongAlgorithm))
	body.putUint8(uint8(signature.StrongAlgorithm.Size()))
	body.putUint64(signature.BlockCount())
	for _, h := range signature.Hashes {
		body.putUint32(h.Weak)
		body.putBytes(h.Strong)
		if err := body.maybeFlush(); err != nil {
			return err
		}
	}

	// Finalize the body.
	return body.close()
}

// DecodeSignatureArtifact deserializes a signature from source, also returning
// the artifact header. Malformed input yields a *FormatError.
func DecodeSignatureArtifact(source io.Reader) (*Signature, ArtifactHeader, error) {
	// Read the header.
	header, err := readArtifactHeader(source, ArtifactKindSignature)
	if err != nil {
		return nil, ArtifactHeader{}, err
	}

	// Decode the body.
	body := newBodyReader(source, header.Compression)
	defer body.close()
	signature, err := decodeSignatureBody(body)
	if err != nil {
		return nil, ArtifactHeader{}, err
	}

	// Success.
	return signature, header, nil
}

// DecodeSignature deserializes a signature from source. Malformed input yields
// a *FormatError.
func DecodeSignature(source io.Reader) (*Signature, error) {
	signature, _, err := DecodeSignatureArtifact(source)
	return signature, err
}

// decodeSignatureBody decodes and validates a signature body.
func decodeSignatureBody(body *bodyReader) (*Signature, error) {
	// Decode the fixed fields.
	blockSize, err := body.uint32("block size")
	if err != nil {
		return nil, err
	}
	lastBlockSize, err := body.uint32("last block size")
	if err != nil {
		return nil, err
	}
	weak, err := body.uint8("weak checksum algorithm")
	if err != nil {
		return nil, err
	}
	strong, err := body.uint8("strong hashing algorithm")
	if err != nil {
		return nil, err
	}
	digestSize, err := body.uint8("digest size")
	if err != nil {
		return nil, err
	}
	count, err := body.uint64("block count")
	if err != nil {
		return nil, err
	}

	// Validate the fixed fields before reading hashes.
	signature := &Signature{
		BlockSize:       uint64(blockSize),
		LastBlockSize:   uint64(lastBlockSize),
		WeakAlgorithm:   rollsum.Algorithm(weak),
		StrongAlgorithm: hashing.Algorithm(strong),
	}
	if signature.BlockSize == 0 {
		return nil, formatErrorf("zero block size")
	} else if !signature.WeakAlgorithm.Supported() {
		return nil, formatErrorf("unsupported weak checksum algorithm %d", weak)
	} else if !signature.StrongAlgorithm.Supported() {
		return nil, formatErrorf("unsupported strong hashing algorithm %d", strong)
	} else if int(digestSize) != signature.StrongAlgorithm.Size() {
		return nil, formatErrorf("digest size %d does not match %s", digestSize, signature.StrongAlgorithm.Description())
	} else if (count == 0) != (lastBlockSize == 0) {
		return nil, formatErrorf("block count %d inconsistent with last block size %d", count, lastBlockSize)
	} else if lastBlockSize > blockSize {
		return nil, formatErrorf("last block size exceeds block size")
	}

	// Decode block hashes. An empty signature keeps a nil hash slice.
	if count > 0 {
		capacity := count
		if capacity > maximumInitialHashCapacity {
			capacity = maximumInitialHashCapacity
		}
		signature.Hashes = make([]*BlockHash, 0, capacity)
	}
	for i := uint64(0); i < count; i++ {
		weak, err := body.uint32("block weak checksum")
		if err != nil {
			return nil, err
		}
		strong, err := body.bytes(int(digestSize), "block strong digest")
		if err != nil {
			return nil, err
		}
		signature.Hashes = append(signature.Hashes, &BlockHash{Weak: weak, Strong: strong})
	}

	// Verify the trailer.
	if err := body.finish(); err != nil {
		return nil, err
	}

	// Perform a final validation.
	if err := signature.EnsureValid(); err != nil {
		return nil, formatErrorf("invalid signature: %v", err)
	}

	// Success.
	return signature, nil
}
