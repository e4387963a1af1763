package stream

import (
	"io"
)

// Flusher represents a stream that performs internal buffering that may need to
// be flushed to ensure that data reaches the underlying stream.
type Flusher interface {
	// Flush forces any buffered data through to the underlying stream.
	Flush() error
}

// WriteFlushCloser represents a stream with writing, flushing, and closing
// functionality. Compressors used for artifact bodies implement it.
type WriteFlushCloser interface {
	io.Writer
	Flusher
	io.Closer
}
