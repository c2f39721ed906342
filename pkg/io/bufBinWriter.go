package io

import "bytes"

// BufBinWriter is a BinWriter that writes into an in-memory buffer, with
// convenience accessors for the accumulated bytes. It's the usual way to
// serialise a Serializable to a []byte (hashing, storage, wire framing).
type BufBinWriter struct {
	*BinWriter
	buf *bytes.Buffer
}

// NewBufBinWriter creates a new BufBinWriter.
func NewBufBinWriter() *BufBinWriter {
	b := new(bytes.Buffer)
	return &BufBinWriter{
		BinWriter: NewBinWriterFromIO(b),
		buf:       b,
	}
}

// Len returns the number of bytes written so far.
func (w *BufBinWriter) Len() int { return w.buf.Len() }

// Grow grows the underlying buffer's capacity, to avoid reallocation when
// the final size is roughly known up front.
func (w *BufBinWriter) Grow(n int) { w.buf.Grow(n) }

// Error returns the first write error, if any.
func (w *BufBinWriter) Error() error { return w.BinWriter.Err }

// Bytes returns the accumulated bytes, or nil if an error occurred at any
// point during writing.
func (w *BufBinWriter) Bytes() []byte {
	if w.BinWriter.Err != nil {
		return nil
	}
	res := make([]byte, w.buf.Len())
	copy(res, w.buf.Bytes())
	return res
}

// Reset resets the writer (buffer and error) so it can be reused.
func (w *BufBinWriter) Reset() {
	w.buf.Reset()
	w.BinWriter.SetError(nil)
}
