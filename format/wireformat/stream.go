package wireformat

import (
	"bufio"
	"encoding/binary"
	"io"
)

// StreamEncoder writes a sequence of independently decodable values to an
// io.Writer, each framed with a uvarint length prefix ahead of its
// Marshal-encoded bytes. The core engines have no notion of a stream; this
// just calls Marshal per value and frames the result, the same
// length-prefixed delimiting any streaming wire protocol needs to tell
// where one message ends and the next begins.
type StreamEncoder struct {
	w   *bufio.Writer
	err error
}

// NewStreamEncoder wraps w for a sequence of Encode calls.
func NewStreamEncoder(w io.Writer) *StreamEncoder {
	return &StreamEncoder{w: bufio.NewWriter(w)}
}

// Encode marshals v and writes it as one length-prefixed message.
func Encode[T any](e *StreamEncoder, v T) error {
	if e.err != nil {
		return e.err
	}
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
	if _, err := e.w.Write(lenBuf[:n]); err != nil {
		e.err = err
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		e.err = err
		return err
	}
	return nil
}

// Flush writes any buffered data to the underlying io.Writer.
func (e *StreamEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// StreamDecoder reads a sequence of values written by a StreamEncoder.
// Each Next call decodes through the same generic Deserialize path
// Unmarshal uses, so it works for any T the engine can build rather than
// one fixed type per codec pass.
type StreamDecoder[T any] struct {
	r   *bufio.Reader
	err error
}

// NewStreamDecoder wraps r for a sequence of Next calls.
func NewStreamDecoder[T any](r io.Reader) *StreamDecoder[T] {
	return &StreamDecoder[T]{r: bufio.NewReader(r)}
}

// Next decodes the next value. ok is false once the stream is cleanly
// exhausted or a read/decode error occurred; call Err to tell the two
// apart.
func (d *StreamDecoder[T]) Next() (v T, ok bool) {
	if d.err != nil {
		return v, false
	}

	// Peek ahead for a clean end of stream before attempting a length
	// read that would otherwise report a misleading truncation error.
	if _, err := d.r.Peek(1); err != nil {
		if err == io.EOF {
			return v, false
		}
		d.err = err
		return v, false
	}

	length, err := binary.ReadUvarint(d.r)
	if err != nil {
		if err == io.EOF {
			return v, false
		}
		d.err = err
		return v, false
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(d.r, data); err != nil {
		d.err = err
		return v, false
	}

	decoded, err := Unmarshal[T](data)
	if err != nil {
		d.err = err
		return v, false
	}
	return decoded, true
}

// Err returns any error Next encountered, beyond clean end-of-stream.
func (d *StreamDecoder[T]) Err() error {
	return d.err
}
