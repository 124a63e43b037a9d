package wireformat

import (
	"encoding/binary"
	"errors"
	"math"
)

// wireTag is the one-byte prefix every encoded value on the wire starts
// with, identifying how its payload is shaped. Unlike a protobuf-style
// field tag, this carries no field number: the struct/list/map envelopes
// this package writes are entirely self-describing, so a tag only ever
// needs to say "here is a bool/int/float/bytes/container/null", never
// "here is field 7".
type wireTag byte

const (
	tagVarint  wireTag = 1 // unsigned varint: bool, unsigned integers
	tagSVarint wireTag = 2 // zigzag varint: signed integers
	tagFixed32 wireTag = 3 // 4 little-endian bytes: float32
	tagFixed64 wireTag = 4 // 8 little-endian bytes: float64
	tagBytes   wireTag = 5 // varint length + that many raw bytes: strings, []byte, containers
	tagNull    wireTag = 6 // no payload: Option-none, nil pointer
)

var (
	errVarintTruncated = errors.New("wireformat: varint truncated")
	errVarintOverflow  = errors.New("wireformat: varint overflows uint64")
	errTruncated       = errors.New("wireformat: unexpected end of data")
	errMessageOverflow = errors.New("wireformat: read past message boundary")
)

// zigzag maps a signed integer to an unsigned one so that small-magnitude
// values, positive or negative, encode as small varints.
func zigzagEncode(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func zigzagDecode(uv uint64) int64 {
	return int64(uv>>1) ^ -int64(uv&1)
}

// rawWriter accumulates an encoded value into a byte buffer. It has no
// notion of shapes or fields; Writer (in writer.go) drives it one tag and
// payload at a time.
type rawWriter struct {
	buf []byte
	err error
}

func newRawWriter() *rawWriter {
	return &rawWriter{buf: make([]byte, 0, 64)}
}

func (w *rawWriter) Bytes() []byte { return w.buf }
func (w *rawWriter) Err() error    { return w.err }

func (w *rawWriter) writeTag(t wireTag) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, byte(t))
}

func (w *rawWriter) writeUvarint(v uint64) {
	if w.err != nil {
		return
	}
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], v)
	w.buf = append(w.buf, scratch[:n]...)
}

func (w *rawWriter) writeSvarint(v int64) {
	w.writeUvarint(zigzagEncode(v))
}

func (w *rawWriter) writeBool(v bool) {
	if v {
		w.writeUvarint(1)
	} else {
		w.writeUvarint(0)
	}
}

func (w *rawWriter) writeFixed32(bits uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], bits)
	w.buf = append(w.buf, b[:]...)
}

func (w *rawWriter) writeFixed64(bits uint64) {
	if w.err != nil {
		return
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], bits)
	w.buf = append(w.buf, b[:]...)
}

func (w *rawWriter) writeFloat32(v float32) { w.writeFixed32(math.Float32bits(v)) }
func (w *rawWriter) writeFloat64(v float64) { w.writeFixed64(math.Float64bits(v)) }

func (w *rawWriter) writeRawBytes(b []byte) {
	if w.err != nil {
		return
	}
	w.writeUvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *rawWriter) writeString(s string) { w.writeRawBytes([]byte(s)) }

// maxVarintLen64 bytes are always enough to hold any uint64 varint; a
// message's length prefix is reserved at that width and shrunk to its
// real size once the message body is known, the same reserve-then-shift
// trick any length-prefixed encoder needs when the length isn't known
// until after the body is written.
const maxVarintLen64 = binary.MaxVarintLen64

// beginMessage reserves maxVarintLen64 bytes for a length prefix and
// returns the checkpoint to pass to endMessage once the body has been
// written.
func (w *rawWriter) beginMessage() int {
	if w.err != nil {
		return -1
	}
	checkpoint := len(w.buf)
	var zero [maxVarintLen64]byte
	w.buf = append(w.buf, zero[:]...)
	return checkpoint
}

// endMessage backfills the length prefix reserved by beginMessage, sliding
// the message body left to close the gap left by an over-wide reservation.
func (w *rawWriter) endMessage(checkpoint int) {
	if checkpoint < 0 || w.err != nil {
		return
	}
	bodyStart := checkpoint + maxVarintLen64
	bodyLen := len(w.buf) - bodyStart

	var lenBuf [maxVarintLen64]byte
	lenSize := binary.PutUvarint(lenBuf[:], uint64(bodyLen))

	shift := maxVarintLen64 - lenSize
	if shift > 0 {
		copy(w.buf[checkpoint+lenSize:], w.buf[bodyStart:])
		w.buf = w.buf[:len(w.buf)-shift]
	}
	copy(w.buf[checkpoint:], lenBuf[:lenSize])
}

// rawReader walks an encoded byte slice one tag and payload at a time,
// the read-side mirror of rawWriter.
type rawReader struct {
	data []byte
	pos  int
	err  error
}

func newRawReader(data []byte) *rawReader {
	return &rawReader{data: data}
}

func (r *rawReader) Pos() int { return r.pos }
func (r *rawReader) Err() error {
	return r.err
}

func (r *rawReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *rawReader) ensure(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.fail(errTruncated)
		return false
	}
	return true
}

func (r *rawReader) readTag() wireTag {
	if !r.ensure(1) {
		return 0
	}
	t := wireTag(r.data[r.pos])
	r.pos++
	return t
}

func (r *rawReader) readUvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data[r.pos:])
	if n == 0 {
		r.fail(errVarintTruncated)
		return 0
	}
	if n < 0 {
		r.fail(errVarintOverflow)
		return 0
	}
	r.pos += n
	return v
}

func (r *rawReader) readSvarint() int64 {
	return zigzagDecode(r.readUvarint())
}

func (r *rawReader) readBool() bool { return r.readUvarint() != 0 }

func (r *rawReader) readFixed32() uint32 {
	if !r.ensure(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *rawReader) readFixed64() uint64 {
	if !r.ensure(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *rawReader) readFloat32() float32 { return math.Float32frombits(r.readFixed32()) }
func (r *rawReader) readFloat64() float64 { return math.Float64frombits(r.readFixed64()) }

func (r *rawReader) readRawBytes() []byte {
	n := r.readUvarint()
	if r.err != nil {
		return nil
	}
	if !r.ensure(int(n)) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b
}

func (r *rawReader) readString() string { return string(r.readRawBytes()) }

func (r *rawReader) skip(n int) {
	if !r.ensure(n) {
		return
	}
	r.pos += n
}

// beginMessage reads the length prefix a matching beginMessage/endMessage
// pair on the write side produced, returning the position the message body
// ends at.
func (r *rawReader) beginMessage() int {
	length := r.readUvarint()
	if r.err != nil {
		return -1
	}
	end := r.pos + int(length)
	if end > len(r.data) {
		r.fail(errTruncated)
		return -1
	}
	return end
}

// endMessage lands the cursor exactly on endPos, skipping any trailing
// bytes an older writer (or an unknown-field producer) left unread.
func (r *rawReader) endMessage(endPos int) {
	if endPos < 0 || r.err != nil {
		return
	}
	if r.pos < endPos {
		r.pos = endPos
	} else if r.pos > endPos {
		r.fail(errMessageOverflow)
	}
}
