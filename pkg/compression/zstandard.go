package compression

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/rolldiff/rolldiff/pkg/stream"
)

// zstandardDecompressor adapts a zstd.Decoder to io.ReadCloser. Decoder
// construction errors are deferred to the first read.
type zstandardDecompressor struct {
	// decoder is the underlying decoder.
	decoder *zstd.Decoder
	// err is any construction error.
	err error
}

// Read implements io.Reader.Read.
func (d *zstandardDecompressor) Read(buffer []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	return d.decoder.Read(buffer)
}

// Close implements io.Closer.Close.
func (d *zstandardDecompressor) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
	}
	return nil
}

// compressZstandard implements compression for Zstandard streams.
func compressZstandard(compressed io.Writer) stream.WriteFlushCloser {
	// Create the compressor. Errors can only occur with invalid options, which
	// can't occur when we only use defaults.
	compressor, err := zstd.NewWriter(compressed,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("Zstandard compressor construction failed")
	}

	// Success.
	return compressor
}

// decompressZstandard implements decompression for Zstandard streams.
func decompressZstandard(compressed io.Reader) io.ReadCloser {
	decoder, err := zstd.NewReader(compressed, zstd.WithDecoderConcurrency(1))
	return &zstandardDecompressor{decoder, err}
}
