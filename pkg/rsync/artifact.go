package rsync

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/stream"
)

// Artifacts share a fixed 8-byte header:
//
//	magic       [4]byte  "RDSG" (signature) or "RDDL" (delta)
//	version     uint8    currently 1
//	compression uint8    compression.Algorithm of everything that follows
//	reserved    uint16   zero
//
// The header is followed by the (possibly compressed) body and an 8-byte
// trailer holding the xxHash64 of the uncompressed body. All integers are
// big-endian.
const (
	// artifactVersion is the current artifact format version.
	artifactVersion = 1
	// artifactHeaderSize is the size of the artifact header.
	artifactHeaderSize = 8
	// bodyFlushThreshold is the amount of encoded record data buffered before
	// it is written through to the compressor.
	bodyFlushThreshold = 1 << 15
)

var (
	// signatureMagic identifies signature artifacts.
	signatureMagic = [4]byte{'R', 'D', 'S', 'G'}
	// deltaMagic identifies delta artifacts.
	deltaMagic = [4]byte{'R', 'D', 'D', 'L'}
)

// ArtifactKind identifies the type of a serialized artifact.
type ArtifactKind uint8

const (
	// ArtifactKindUnknown indicates an unrecognized artifact.
	ArtifactKindUnknown ArtifactKind = iota
	// ArtifactKindSignature indicates a serialized signature.
	ArtifactKindSignature
	// ArtifactKindDelta indicates a serialized delta.
	ArtifactKindDelta
)

// String implements fmt.Stringer.String.
func (k ArtifactKind) String() string {
	switch k {
	case ArtifactKindSignature:
		return "signature"
	case ArtifactKindDelta:
		return "delta"
	default:
		return "unknown"
	}
}

// magic returns the magic bytes for the artifact kind.
func (k ArtifactKind) magic() [4]byte {
	switch k {
	case ArtifactKindSignature:
		return signatureMagic
	case ArtifactKindDelta:
		return deltaMagic
	default:
		panic("unknown artifact kind")
	}
}

// DetectArtifactKind identifies an artifact from its leading bytes.
func DetectArtifactKind(prefix []byte) ArtifactKind {
	if len(prefix) < len(signatureMagic) {
		return ArtifactKindUnknown
	} else if bytes.Equal(prefix[:len(signatureMagic)], signatureMagic[:]) {
		return ArtifactKindSignature
	} else if bytes.Equal(prefix[:len(deltaMagic)], deltaMagic[:]) {
		return ArtifactKindDelta
	}
	return ArtifactKindUnknown
}

// ArtifactHeader is the decoded common artifact header.
type ArtifactHeader struct {
	// Kind is the artifact kind.
	Kind ArtifactKind
	// Version is the format version.
	Version uint8
	// Compression is the body compression algorithm.
	Compression compression.Algorithm
}

// writeArtifactHeader writes an artifact header.
func writeArtifactHeader(destination io.Writer, kind ArtifactKind, algorithm compression.Algorithm) error {
	var header [artifactHeaderSize]byte
	magic := kind.magic()
	copy(header[:4], magic[:])
	header[4] = artifactVersion
	header[5] = uint8(algorithm)
	if _, err := destination.Write(header[:]); err != nil {
		return newIOError("unable to write artifact header", err)
	}
	return nil
}

// readArtifactHeader reads and validates an artifact header of the expected
// kind.
func readArtifactHeader(source io.Reader, expected ArtifactKind) (ArtifactHeader, error) {
	// Read the header.
	var header [artifactHeaderSize]byte
	if _, err := io.ReadFull(source, header[:]); err == io.EOF || err == io.ErrUnexpectedEOF {
		return ArtifactHeader{}, formatErrorf("truncated artifact header")
	} else if err != nil {
		return ArtifactHeader{}, newIOError("unable to read artifact header", err)
	}

	// Validate the header.
	result := ArtifactHeader{
		Kind:        DetectArtifactKind(header[:4]),
		Version:     header[4],
		Compression: compression.Algorithm(header[5]),
	}
	if result.Kind != expected {
		return ArtifactHeader{}, formatErrorf("expected %s artifact, found %s", expected, result.Kind)
	} else if result.Version != artifactVersion {
		return ArtifactHeader{}, formatErrorf("unsupported artifact version %d", result.Version)
	} else if !result.Compression.Supported() {
		return ArtifactHeader{}, formatErrorf("unsupported compression algorithm %d", header[5])
	} else if binary.BigEndian.Uint16(header[6:]) != 0 {
		return ArtifactHeader{}, formatErrorf("non-zero reserved header field")
	}

	// Success.
	return result, nil
}

// bodyWriter encodes an artifact body through a compressor while maintaining
// the body checksum. Small fields are accumulated in a buffer and written in
// batches.
type bodyWriter struct {
	// compressor is the body compressor.
	compressor stream.WriteFlushCloser
	// digest is the body checksum.
	digest *xxhash.Digest
	// body writes through the compressor and updates digest.
	body io.Writer
	// buffer holds encoded fields that haven't been written yet.
	buffer []byte
}

// newBodyWriter creates a new body writer that writes to destination.
func newBodyWriter(destination io.Writer, algorithm compression.Algorithm) *bodyWriter {
	compressor := algorithm.Compress(destination)
	digest := xxhash.New()
	return &bodyWriter{
		compressor: compressor,
		digest:     digest,
		body:       stream.NewHashedWriter(compressor, digest),
		buffer:     make([]byte, 0, bodyFlushThreshold+512),
	}
}

func (w *bodyWriter) putUint8(value uint8) {
	w.buffer = append(w.buffer, value)
}

func (w *bodyWriter) putUint32(value uint32) {
	w.buffer = binary.BigEndian.AppendUint32(w.buffer, value)
}

func (w *bodyWriter) putUint64(value uint64) {
	w.buffer = binary.BigEndian.AppendUint64(w.buffer, value)
}

func (w *bodyWriter) putBytes(value []byte) {
	w.buffer = append(w.buffer, value...)
}

// flush writes buffered fields through to the compressor.
func (w *bodyWriter) flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if _, err := w.body.Write(w.buffer); err != nil {
		return newIOError("unable to write artifact body", err)
	}
	w.buffer = w.buffer[:0]
	return nil
}

// maybeFlush flushes buffered fields once they exceed the flush threshold.
func (w *bodyWriter) maybeFlush() error {
	if len(w.buffer) < bodyFlushThreshold {
		return nil
	}
	return w.flush()
}

// writeRaw flushes buffered fields and then writes data directly.
func (w *bodyWriter) writeRaw(data []byte) error {
	if err := w.flush(); err != nil {
		return err
	}
	if _, err := w.body.Write(data); err != nil {
		return newIOError("unable to write artifact body", err)
	}
	return nil
}

// close flushes the body, writes the trailer, and closes the compressor. It
// does not close the destination.
func (w *bodyWriter) close() error {
	if err := w.flush(); err != nil {
		return err
	}
	var trailer [8]byte
	binary.BigEndian.PutUint64(trailer[:], w.digest.Sum64())
	if _, err := w.compressor.Write(trailer[:]); err != nil {
		return newIOError("unable to write artifact trailer", err)
	} else if err = w.compressor.Close(); err != nil {
		return newIOError("unable to finalize artifact compression", err)
	}
	return nil
}

// trackingReader records the first non-EOF error returned by its source so
// that stream failures can be told apart from malformed data.
type trackingReader struct {
	// source is the underlying reader.
	source io.Reader
	// err is the first non-EOF error returned by source.
	err error
}

// Read implements io.Reader.Read.
func (r *trackingReader) Read(buffer []byte) (int, error) {
	n, err := r.source.Read(buffer)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}

// bodyReader decodes an artifact body while maintaining the body checksum.
type bodyReader struct {
	// source tracks underlying read errors.
	source *trackingReader
	// decompressor is the body decompressor.
	decompressor io.ReadCloser
	// reader buffers decompressed data.
	reader *bufio.Reader
	// digest is the body checksum.
	digest *xxhash.Digest
	// scratch is used for decoding fixed-width fields.
	scratch [8]byte
}

// newBodyReader creates a new body reader that reads from source.
func newBodyReader(source io.Reader, algorithm compression.Algorithm) *bodyReader {
	tracked := &trackingReader{source: source}
	decompressor := algorithm.Decompress(tracked)
	return &bodyReader{
		source:       tracked,
		decompressor: decompressor,
		reader:       bufio.NewReader(decompressor),
		digest:       xxhash.New(),
	}
}

// failure classifies a read failure encountered while decoding field.
func (r *bodyReader) failure(err error, field string) error {
	if r.source.err != nil {
		return newIOError("unable to read artifact", r.source.err)
	} else if err == io.EOF || err == io.ErrUnexpectedEOF {
		return formatErrorf("truncated artifact while reading %s", field)
	}
	return formatErrorf("unable to decode %s: %v", field, err)
}

// read fills buffer with body data.
func (r *bodyReader) read(buffer []byte, field string) error {
	if _, err := io.ReadFull(r.reader, buffer); err != nil {
		return r.failure(err, field)
	}
	r.digest.Write(buffer)
	return nil
}

func (r *bodyReader) uint8(field string) (uint8, error) {
	if err := r.read(r.scratch[:1], field); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *bodyReader) uint32(field string) (uint32, error) {
	if err := r.read(r.scratch[:4], field); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.scratch[:4]), nil
}

func (r *bodyReader) uint64(field string) (uint64, error) {
	if err := r.read(r.scratch[:8], field); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.scratch[:8]), nil
}

// bytes reads a small fixed-length field.
func (r *bodyReader) bytes(length int, field string) ([]byte, error) {
	result := make([]byte, length)
	if err := r.read(result, field); err != nil {
		return nil, err
	}
	return result, nil
}

// payload reads a variable-length field whose declared length hasn't been
// verified against the amount of data actually present. Memory grows only as
// data arrives.
func (r *bodyReader) payload(length uint64, field string) ([]byte, error) {
	result := &bytes.Buffer{}
	if _, err := io.CopyN(result, r.reader, int64(length)); err != nil {
		return nil, r.failure(err, field)
	}
	r.digest.Write(result.Bytes())
	return result.Bytes(), nil
}

// finish verifies the trailer and ensures that no data follows it.
func (r *bodyReader) finish() error {
	// Verify the body checksum. The trailer itself isn't part of the body.
	if _, err := io.ReadFull(r.reader, r.scratch[:]); err != nil {
		return r.failure(err, "trailer")
	} else if binary.BigEndian.Uint64(r.scratch[:]) != r.digest.Sum64() {
		return formatErrorf("artifact body checksum mismatch")
	}

	// Ensure that there's no trailing data.
	if _, err := r.reader.ReadByte(); err == nil {
		return formatErrorf("trailing data after artifact")
	} else if err != io.EOF {
		return r.failure(err, "artifact end")
	}

	// Success.
	return nil
}

// close releases decompression resources. It does not close the source.
func (r *bodyReader) close() error {
	return r.decompressor.Close()
}
