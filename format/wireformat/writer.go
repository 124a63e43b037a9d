package wireformat

import (
	"fmt"
	"reflect"

	"github.com/blockberries/shapecraft/pkg/shape"
)

// Writer implements pkg/ser.Serializer on top of a rawWriter. It tracks one
// pending length-prefix checkpoint per open struct/list/map/variant
// envelope, backfilled on the matching End* call the way beginMessage/
// endMessage give nested messages. Option and pointer slots need no
// envelope of their own; see WriteOptionNone.
type Writer struct {
	raw         *rawWriter
	checkpoints []int
}

// NewWriter returns a Writer ready to serialize a single value.
func NewWriter() *Writer {
	return &Writer{raw: newRawWriter()}
}

// Bytes returns the encoded data. Only valid once serialization is
// complete.
func (w *Writer) Bytes() []byte {
	return w.raw.Bytes()
}

// Err returns the first error Writer encountered, if any.
func (w *Writer) Err() error {
	return w.raw.Err()
}

func (w *Writer) openEnvelope() {
	w.raw.writeTag(tagBytes)
	w.checkpoints = append(w.checkpoints, w.raw.beginMessage())
}

func (w *Writer) closeEnvelope() {
	n := len(w.checkpoints)
	cp := w.checkpoints[n-1]
	w.checkpoints = w.checkpoints[:n-1]
	w.raw.endMessage(cp)
}

func (w *Writer) WriteScalar(v any, k shape.ScalarKind) error {
	switch k {
	case shape.ScalarBool:
		w.raw.writeTag(tagVarint)
		w.raw.writeBool(v.(bool))
	case shape.ScalarString:
		w.raw.writeTag(tagBytes)
		w.raw.writeString(v.(string))
	case shape.ScalarBytes:
		w.raw.writeTag(tagBytes)
		w.raw.writeRawBytes(v.([]byte))
	case shape.ScalarFloat32:
		w.raw.writeTag(tagFixed32)
		w.raw.writeFloat32(v.(float32))
	case shape.ScalarFloat64:
		w.raw.writeTag(tagFixed64)
		w.raw.writeFloat64(v.(float64))
	case shape.ScalarInt, shape.ScalarInt8, shape.ScalarInt16, shape.ScalarInt32, shape.ScalarInt64:
		w.raw.writeTag(tagSVarint)
		w.raw.writeSvarint(asInt64(v))
	case shape.ScalarUint, shape.ScalarUint8, shape.ScalarUint16, shape.ScalarUint32, shape.ScalarUint64:
		w.raw.writeTag(tagVarint)
		w.raw.writeUvarint(asUint64(v))
	default:
		// Other: custom scalars (e.g. uuid.UUID) round-trip through their
		// Display rendering, matching the FromStr half of the coercion
		// table on the decode side.
		w.raw.writeTag(tagBytes)
		w.raw.writeString(fmt.Sprintf("%v", v))
	}
	return w.raw.Err()
}

func (w *Writer) BeginStruct() error {
	w.openEnvelope()
	return w.raw.Err()
}

func (w *Writer) WriteFieldName(name string) error {
	w.raw.writeBool(true)
	w.raw.writeString(name)
	return w.raw.Err()
}

func (w *Writer) EndStruct() error {
	w.raw.writeBool(false)
	w.closeEnvelope()
	return w.raw.Err()
}

func (w *Writer) BeginList(length int) error {
	w.openEnvelope()
	w.raw.writeUvarint(uint64(length))
	return w.raw.Err()
}

func (w *Writer) EndList() error {
	w.closeEnvelope()
	return w.raw.Err()
}

func (w *Writer) BeginMap(length int) error {
	w.openEnvelope()
	w.raw.writeUvarint(uint64(length))
	return w.raw.Err()
}

func (w *Writer) WriteMapKey(key any) error {
	writeDynamicScalar(w.raw, key)
	return w.raw.Err()
}

func (w *Writer) EndMap() error {
	w.closeEnvelope()
	return w.raw.Err()
}

// WriteOptionNone writes the reserved null tag and nothing else. A present
// Option writes no marker of its own at all: BeginOptionSome/EndOption are
// no-ops, and the value written in between carries its own tag, which is
// never tagNull. A reader recovers presence by looking at the one tag byte
// that starts the slot, the same tag it would dispatch on if there were no
// Option wrapper in the first place.
func (w *Writer) WriteOptionNone() error {
	w.raw.writeTag(tagNull)
	return w.raw.Err()
}

func (w *Writer) BeginOptionSome() error { return nil }

func (w *Writer) EndOption() error { return nil }

// WriteNilPointer mirrors WriteOptionNone; BeginPointee/EndPointee are
// likewise no-ops for the same reason.
func (w *Writer) WriteNilPointer() error {
	w.raw.writeTag(tagNull)
	return w.raw.Err()
}

func (w *Writer) BeginPointee() error { return nil }

func (w *Writer) EndPointee() error { return nil }

// BeginVariant/EndVariant must byte-match exactly what BeginStruct/
// WriteFieldName/EndStruct produce for a one-field struct: the pull side
// (pkg/deser's driveEnum) has no dedicated variant methods on Format at
// all, and decodes a tagged variant by reading it as an ordinary struct
// whose single field's name is the variant tag.
func (w *Writer) BeginVariant(name string) error {
	w.openEnvelope()
	w.raw.writeBool(true)
	w.raw.writeString(name)
	return w.raw.Err()
}

func (w *Writer) EndVariant() error {
	w.raw.writeBool(false)
	w.closeEnvelope()
	return w.raw.Err()
}

// writeDynamicScalar encodes a map key whose static ScalarKind the
// Serializer interface doesn't carry (peek.MapEntry hands back a bare
// reflect-derived any). It picks the nearest wire representation from the
// key's Go kind, the same widening asInt64/asUint64 do for the struct
// field path.
func writeDynamicScalar(w *rawWriter, key any) {
	switch v := key.(type) {
	case bool:
		w.writeTag(tagVarint)
		w.writeBool(v)
	case string:
		w.writeTag(tagBytes)
		w.writeString(v)
	case float32:
		w.writeTag(tagFixed32)
		w.writeFloat32(v)
	case float64:
		w.writeTag(tagFixed64)
		w.writeFloat64(v)
	default:
		rv := reflect.ValueOf(key)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			w.writeTag(tagSVarint)
			w.writeSvarint(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			w.writeTag(tagVarint)
			w.writeUvarint(rv.Uint())
		default:
			w.writeTag(tagBytes)
			w.writeString(fmt.Sprintf("%v", key))
		}
	}
}

func asInt64(v any) int64 {
	rv := reflect.ValueOf(v)
	if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Int64 {
		return rv.Int()
	}
	return 0
}

func asUint64(v any) uint64 {
	rv := reflect.ValueOf(v)
	if rv.Kind() >= reflect.Uint && rv.Kind() <= reflect.Uintptr {
		return rv.Uint()
	}
	return 0
}
