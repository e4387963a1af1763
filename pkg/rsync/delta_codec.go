package rsync

import (
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/hashing"
)

// A delta body is laid out as:
//
//	block_size       uint32
//	strong_algorithm uint8
//	digest_size      uint8
//	target_digest    [digest_size]byte
//	target_length    uint64
//
// followed by tagged records:
//
//	0x01 COPY    block_index uint64, length uint64
//	0x02 LITERAL length uint64, data [length]byte
//	0x00 END
//
// The END record is mandatory.
const (
	// deltaTagEnd terminates the record sequence.
	deltaTagEnd = 0x00
	// deltaTagCopy introduces a copy record.
	deltaTagCopy = 0x01
	// deltaTagLiteral introduces a literal record.
	deltaTagLiteral = 0x02
)

// DeltaEncoder serializes a delta one operation at a time. It is suitable for
// use as an OperationTransmitter via its Encode method.
type DeltaEncoder struct {
	// body is the body writer.
	body *bodyWriter
	// remaining is the number of target bytes not yet covered by operations.
	remaining uint64
	// closed indicates whether or not the encoder has been closed.
	closed bool
}

// NewDeltaEncoder creates a new delta encoder that writes to destination,
// immediately writing the artifact and delta headers.
func NewDeltaEncoder(destination io.Writer, header *DeltaHeader, algorithm compression.Algorithm) (*DeltaEncoder, error) {
	// Validate arguments.
	if err := header.EnsureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid delta header")
	} else if !algorithm.Supported() {
		return nil, errors.New("unsupported compression algorithm")
	}

	// Write the artifact header.
	if err := writeArtifactHeader(destination, ArtifactKindDelta, algorithm); err != nil {
		return nil, err
	}

	// Encode the delta header.
	body := newBodyWriter(destination, algorithm)
	body.putUint32(uint32(header.BlockSize))
	body.putUint8(uint8(header.StrongAlgorithm))
	body.putUint8(uint8(len(header.TargetDigest)))
	body.putBytes(header.TargetDigest)
	body.putUint64(header.TargetLength)

	// Success.
	return &DeltaEncoder{
		body:      body,
		remaining: header.TargetLength,
	}, nil
}

// Encode serializes a single operation.
func (e *DeltaEncoder) Encode(operation *Operation) error {
	// Validate the operation.
	if e.closed {
		return errors.New("encoder closed")
	} else if err := operation.EnsureValid(); err != nil {
		return errors.Wrap(err, "invalid operation")
	} else if operation.TargetLength() > e.remaining {
		return errors.New("operation exceeds target length")
	}
	e.remaining -= operation.TargetLength()

	// Encode the record.
	if operation.Kind == OperationKindCopy {
		e.body.putUint8(deltaTagCopy)
		e.body.putUint64(operation.BlockIndex)
		e.body.putUint64(operation.Length)
		return e.body.maybeFlush()
	}
	e.body.putUint8(deltaTagLiteral)
	e.body.putUint64(uint64(len(operation.Data)))
	return e.body.writeRaw(operation.Data)
}

// Close writes the end record and trailer. It does not close the underlying
// destination. It fails if the encoded operations don't cover the declared
// target length.
func (e *DeltaEncoder) Close() error {
	// Check for previous closure.
	if e.closed {
		return errors.New("encoder already closed")
	}
	e.closed = true

	// Ensure that the target has been fully described.
	if e.remaining != 0 {
		return errors.Errorf("operations are %d bytes short of target length", e.remaining)
	}

	// Finalize the body.
	e.body.putUint8(deltaTagEnd)
	return e.body.close()
}

// EncodeDelta serializes a complete delta to destination using the specified
// body compression.
func EncodeDelta(destination io.Writer, delta *Delta, algorithm compression.Algorithm) error {
	encoder, err := NewDeltaEncoder(destination, &delta.DeltaHeader, algorithm)
	if err != nil {
		return err
	}
	for _, o := range delta.Operations {
		if err := encoder.Encode(o); err != nil {
			return err
		}
	}
	return encoder.Close()
}

// DeltaDecoder deserializes a delta one operation at a time, so that patching
// never needs to hold a whole delta in memory. Malformed input yields a
// *FormatError and read failures yield an *IOError. Errors are sticky.
type DeltaDecoder struct {
	// artifact is the artifact header.
	artifact ArtifactHeader
	// header is the delta header.
	header DeltaHeader
	// body is the body reader.
	body *bodyReader
	// remaining is the number of target bytes not yet covered by records.
	remaining uint64
	// done indicates that the end record and trailer have been verified.
	done bool
	// err is any previous decoding error.
	err error
}

// NewDeltaDecoder creates a new delta decoder that reads from source,
// immediately decoding the artifact and delta headers. The decoder should be
// closed when no longer needed.
func NewDeltaDecoder(source io.Reader) (*DeltaDecoder, error) {
	// Read the artifact header.
	artifact, err := readArtifactHeader(source, ArtifactKindDelta)
	if err != nil {
		return nil, err
	}

	// Create the body reader. It is closed on decoding failure.
	body := newBodyReader(source, artifact.Compression)
	header, err := decodeDeltaHeader(body)
	if err != nil {
		body.close()
		return nil, err
	}

	// Success.
	return &DeltaDecoder{
		artifact:  artifact,
		header:    *header,
		body:      body,
		remaining: header.TargetLength,
	}, nil
}

// decodeDeltaHeader decodes and validates the delta header.
func decodeDeltaHeader(body *bodyReader) (*DeltaHeader, error) {
	blockSize, err := body.uint32("block size")
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
	header := &DeltaHeader{
		BlockSize:       uint64(blockSize),
		StrongAlgorithm: hashing.Algorithm(strong),
	}
	if header.BlockSize == 0 {
		return nil, formatErrorf("zero block size")
	} else if !header.StrongAlgorithm.Supported() {
		return nil, formatErrorf("unsupported strong hashing algorithm %d", strong)
	} else if int(digestSize) != header.StrongAlgorithm.Size() {
		return nil, formatErrorf("digest size %d does not match %s", digestSize, header.StrongAlgorithm.Description())
	}
	if header.TargetDigest, err = body.bytes(int(digestSize), "target digest"); err != nil {
		return nil, err
	}
	if header.TargetLength, err = body.uint64("target length"); err != nil {
		return nil, err
	}
	return header, nil
}

// Artifact returns the artifact header.
func (d *DeltaDecoder) Artifact() ArtifactHeader {
	return d.artifact
}

// Header returns the delta header.
func (d *DeltaDecoder) Header() *DeltaHeader {
	return &d.header
}

// Next decodes the next operation. It returns io.EOF once the end record has
// been read and the artifact trailer has been verified.
func (d *DeltaDecoder) Next() (*Operation, error) {
	// Check for previous termination.
	if d.err != nil {
		return nil, d.err
	} else if d.done {
		return nil, io.EOF
	}

	// Decode the next record and record any error.
	operation, err := d.next()
	if err == io.EOF {
		d.done = true
	} else if err != nil {
		d.err = err
	}
	return operation, err
}

// next implements the record decoding for Next.
func (d *DeltaDecoder) next() (*Operation, error) {
	// Read the record tag.
	tag, err := d.body.uint8("record tag")
	if err != nil {
		return nil, err
	}

	// Decode the record.
	switch tag {
	case deltaTagEnd:
		if d.remaining != 0 {
			return nil, formatErrorf("records are %d bytes short of declared target length", d.remaining)
		} else if err := d.body.finish(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	case deltaTagCopy:
		index, err := d.body.uint64("copy block index")
		if err != nil {
			return nil, err
		}
		length, err := d.body.uint64("copy length")
		if err != nil {
			return nil, err
		} else if length == 0 {
			return nil, formatErrorf("zero-length copy record")
		} else if length > d.remaining {
			return nil, formatErrorf("copy record exceeds declared target length")
		}
		d.remaining -= length
		return &Operation{Kind: OperationKindCopy, BlockIndex: index, Length: length}, nil
	case deltaTagLiteral:
		length, err := d.body.uint64("literal length")
		if err != nil {
			return nil, err
		} else if length == 0 {
			return nil, formatErrorf("zero-length literal record")
		} else if length > d.remaining || length > math.MaxInt64 {
			return nil, formatErrorf("literal record exceeds declared target length")
		}
		data, err := d.body.payload(length, "literal data")
		if err != nil {
			return nil, err
		}
		d.remaining -= length
		return &Operation{Kind: OperationKindLiteral, Data: data}, nil
	default:
		return nil, formatErrorf("unknown record tag 0x%02x", tag)
	}
}

// Close releases decoding resources. It does not close the underlying source.
func (d *DeltaDecoder) Close() error {
	return d.body.close()
}

// DecodeDelta deserializes a complete delta from source.
func DecodeDelta(source io.Reader) (*Delta, error) {
	// Create the decoder.
	decoder, err := NewDeltaDecoder(source)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	// Decode operations.
	result := &Delta{DeltaHeader: *decoder.Header()}
	for {
		operation, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		result.Operations = append(result.Operations, operation)
	}

	// Success.
	return result, nil
}
