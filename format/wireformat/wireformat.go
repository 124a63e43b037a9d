// Package wireformat is a self-describing binary Format/Serializer pair. It
// gives the pull-driven deserialization engine (pkg/deser) and the
// push-driven serialization engine (pkg/ser) a concrete wire encoding to
// drive, generalizing the usual fixed marshal/unmarshal pair for a single
// struct tree to the engines' Format/Serializer seams so any shape can be
// carried without per-type codegen.
//
// Every value on the wire is a single tag byte (a wireTag) followed by a
// tag-appropriate payload:
//
//   - tagVarint:  an unsigned varint (bool, unsigned integers)
//   - tagSVarint: a ZigZag-encoded signed varint (signed integers)
//   - tagFixed32: four bytes, little-endian (float32)
//   - tagFixed64: eight bytes, little-endian (float64)
//   - tagBytes:   a varint length followed by that many raw bytes
//     (strings, byte slices, display-rendered custom scalars, and every
//     struct/list/map/set/enum container, whose content is itself a
//     nested sequence of tagged values; a present Option or pointer has
//     no envelope of its own and is written as its inner value)
//   - tagNull:    no payload at all
//
// tagNull doubles as the wire format's explicit absent/null marker for
// Option-none and nil pointers, rather than carrying any type-registry
// meaning. Wrapping every container in a tagBytes envelope (via
// rawWriter.beginMessage/endMessage on the way out, rawReader's matching
// pair on the way in) means an unknown struct field can always be
// discarded by reading one tag and, for tagBytes, one length, without any
// shape knowledge at all.
package wireformat

import (
	"github.com/blockberries/shapecraft/pkg/deser"
	"github.com/blockberries/shapecraft/pkg/peek"
	"github.com/blockberries/shapecraft/pkg/ser"
)

// Marshal encodes v into a self-contained byte slice.
func Marshal[T any](v T) ([]byte, error) {
	w := NewWriter()
	if err := ser.Serialize(peek.Of(v), w, ser.Options{}); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// MarshalOptions is Marshal with explicit serialization options (e.g.
// OmitEmpty).
func MarshalOptions[T any](v T, opts ser.Options) ([]byte, error) {
	w := NewWriter()
	if err := ser.Serialize(peek.Of(v), w, opts); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes data into a value of type T using the engine's default
// options (unknown fields skipped, no field renaming).
func Unmarshal[T any](data []byte) (T, error) {
	return deser.Deserialize[T](NewReader(data), deser.DefaultOptions())
}

// UnmarshalOptions is Unmarshal with explicit deserialization options (e.g.
// a RenameRule or ErrorOnUnknownFields).
func UnmarshalOptions[T any](data []byte, opts deser.Options) (T, error) {
	return deser.Deserialize[T](NewReader(data), opts)
}
