package wireformat

import (
	"fmt"

	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// containerFrame tracks one open struct/list/map/variant envelope: the
// position endMessage should land on, and, for list/map, how many entries
// remain.
type containerFrame struct {
	endPos    int
	remaining int
}

// Reader implements pkg/deser.Format over a rawReader, the mirror image of
// Writer.
type Reader struct {
	raw    *rawReader
	frames []containerFrame

	// pendingTag holds a tag already consumed by BeginOption while
	// checking presence, so the next read (ReadScalar/BeginStruct/
	// BeginList/BeginMap) uses it instead of pulling a fresh byte.
	pendingTag    wireTag
	hasPendingTag bool
}

// NewReader wraps data for a single Deserialize call.
func NewReader(data []byte) *Reader {
	return &Reader{raw: newRawReader(data)}
}

func (r *Reader) span() shapeerr.Span {
	return shapeerr.Span{Start: r.raw.Pos(), End: r.raw.Pos()}
}

func (r *Reader) readTag() (wireTag, error) {
	if r.hasPendingTag {
		t := r.pendingTag
		r.hasPendingTag = false
		return t, nil
	}
	t := r.raw.readTag()
	if err := r.raw.Err(); err != nil {
		return 0, err
	}
	return t, nil
}

func (r *Reader) ReadScalar(expect shape.ScalarKind) (any, shapeerr.Span, error) {
	span := r.span()
	t, err := r.readTag()
	if err != nil {
		return nil, span, err
	}
	switch t {
	case tagVarint:
		if expect == shape.ScalarBool {
			return r.raw.readBool(), span, r.raw.Err()
		}
		return r.raw.readUvarint(), span, r.raw.Err()
	case tagSVarint:
		return r.raw.readSvarint(), span, r.raw.Err()
	case tagFixed32:
		return r.raw.readFloat32(), span, r.raw.Err()
	case tagFixed64:
		return r.raw.readFloat64(), span, r.raw.Err()
	case tagBytes:
		if expect == shape.ScalarBytes {
			return r.raw.readRawBytes(), span, r.raw.Err()
		}
		return r.raw.readString(), span, r.raw.Err()
	default:
		return nil, span, shapeerr.NewDeser(span, "", fmt.Sprintf("unexpected wire tag %d for scalar", t), shapeerr.ErrTypeMismatch)
	}
}

// BeginStruct opens the struct's length-prefixed envelope. ok is false
// only when the slot held an explicit null tag instead of a struct (a
// bare struct-typed field is never itself nullable in this encoding;
// nullability always comes from an enclosing Option/pointer, so this path
// exists for Format-interface completeness rather than normal use).
func (r *Reader) BeginStruct() (bool, error) {
	t, err := r.readTag()
	if err != nil {
		return false, err
	}
	if t == tagNull {
		return false, nil
	}
	if t != tagBytes {
		return false, shapeerr.NewDeser(r.span(), "", fmt.Sprintf("expected struct, found wire tag %d", t), shapeerr.ErrWrongShape)
	}
	end := r.raw.beginMessage()
	r.frames = append(r.frames, containerFrame{endPos: end})
	return true, r.raw.Err()
}

func (r *Reader) NextField() (string, bool, error) {
	has := r.raw.readBool()
	if err := r.raw.Err(); err != nil {
		return "", false, err
	}
	if !has {
		return "", false, nil
	}
	name := r.raw.readString()
	return name, true, r.raw.Err()
}

// SkipValue discards whatever value is positioned next, dispatching
// purely on its leading tag so it works regardless of the value's real
// shape.
func (r *Reader) SkipValue() error {
	t, err := r.readTag()
	if err != nil {
		return err
	}
	switch t {
	case tagNull:
		return nil
	case tagVarint:
		r.raw.readUvarint()
	case tagSVarint:
		r.raw.readSvarint()
	case tagFixed32:
		r.raw.readFixed32()
	case tagFixed64:
		r.raw.readFixed64()
	case tagBytes:
		n := r.raw.readUvarint()
		if r.raw.Err() != nil {
			return r.raw.Err()
		}
		r.raw.skip(int(n))
	default:
		return shapeerr.NewDeser(r.span(), "", fmt.Sprintf("cannot skip unknown wire tag %d", t), shapeerr.ErrTypeMismatch)
	}
	return r.raw.Err()
}

func (r *Reader) EndStruct() error {
	r.popFrame()
	return r.raw.Err()
}

func (r *Reader) popFrame() {
	n := len(r.frames)
	f := r.frames[n-1]
	r.frames = r.frames[:n-1]
	r.raw.endMessage(f.endPos)
}

func (r *Reader) BeginList() (bool, error) {
	t, err := r.readTag()
	if err != nil {
		return false, err
	}
	if t == tagNull {
		return false, nil
	}
	if t != tagBytes {
		return false, shapeerr.NewDeser(r.span(), "", fmt.Sprintf("expected list, found wire tag %d", t), shapeerr.ErrWrongShape)
	}
	end := r.raw.beginMessage()
	count := r.raw.readUvarint()
	r.frames = append(r.frames, containerFrame{endPos: end, remaining: int(count)})
	return true, r.raw.Err()
}

func (r *Reader) NextElement() (bool, error) {
	f := &r.frames[len(r.frames)-1]
	if f.remaining <= 0 {
		return false, nil
	}
	f.remaining--
	return true, nil
}

func (r *Reader) EndList() error {
	r.popFrame()
	return r.raw.Err()
}

func (r *Reader) BeginMap() (bool, error) {
	t, err := r.readTag()
	if err != nil {
		return false, err
	}
	if t == tagNull {
		return false, nil
	}
	if t != tagBytes {
		return false, shapeerr.NewDeser(r.span(), "", fmt.Sprintf("expected map, found wire tag %d", t), shapeerr.ErrWrongShape)
	}
	end := r.raw.beginMessage()
	count := r.raw.readUvarint()
	r.frames = append(r.frames, containerFrame{endPos: end, remaining: int(count)})
	return true, r.raw.Err()
}

// NextMapKey reads the next entry's key. The concrete Go type returned
// depends on the key's wire tag (uint64/int64/float32/float64/string)
// rather than the map's declared key shape, since the Format interface
// reads a key before the engine has a chance to hand back key shape
// information; the engine then coerces the key to the declared key
// shape. A bool key is written as a tagVarint, comes back as uint64, and
// does not coerce back to bool.
func (r *Reader) NextMapKey() (any, bool, error) {
	f := &r.frames[len(r.frames)-1]
	if f.remaining <= 0 {
		return nil, false, nil
	}
	f.remaining--

	t, err := r.readTag()
	if err != nil {
		return nil, false, err
	}
	switch t {
	case tagVarint:
		return r.raw.readUvarint(), true, r.raw.Err()
	case tagSVarint:
		return r.raw.readSvarint(), true, r.raw.Err()
	case tagFixed32:
		return r.raw.readFloat32(), true, r.raw.Err()
	case tagFixed64:
		return r.raw.readFloat64(), true, r.raw.Err()
	case tagBytes:
		return r.raw.readString(), true, r.raw.Err()
	default:
		return nil, false, shapeerr.NewDeser(r.span(), "", fmt.Sprintf("unexpected wire tag %d for map key", t), shapeerr.ErrTypeMismatch)
	}
}

func (r *Reader) EndMap() error {
	r.popFrame()
	return r.raw.Err()
}

// BeginOption reports presence by reading the slot's leading tag: tagNull
// means absent and nothing further is consumed; any other tag means
// present, and that same tag is left for the subsequent driveValue call
// to interpret (ReadScalar/BeginStruct/BeginList/... each read their own
// leading tag in turn, so the value is decoded exactly as if it had never
// been wrapped in an Option).
func (r *Reader) BeginOption() (bool, error) {
	t, err := r.readTag()
	if err != nil {
		return false, err
	}
	if t == tagNull {
		return false, nil
	}
	r.pendingTag, r.hasPendingTag = t, true
	return true, nil
}
