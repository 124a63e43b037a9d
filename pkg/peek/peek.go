// Package peek is the read-only, push-driven view over an initialized Go
// value, the counterpart to pkg/partial's write-side Navigation API. A
// Peek pairs a pkg/shape.Shape with a reflect.Value over that shape's
// value; narrowing it to a PeekStruct, PeekList, PeekMap, PeekOption,
// PeekSmartPointer or PeekEnum exposes the operations appropriate to that
// shape's Kind. pkg/ser's serialization walker is built entirely on top of
// this package, the same way an encodeValue function walks a reflect.Value
// by Kind switch; Peek simply replaces the ad hoc Kind switch with a single
// upfront Shape lookup.
package peek

import (
	"reflect"

	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// Peek is a read-only handle on an initialized value of a known Shape.
// Like pkg/partial, Peek walks values through reflect, not
// unsafe.Pointer; unlike pkg/partial it only ever reads, and only values
// that are already fully initialized.
type Peek struct {
	shape *shape.Shape
	value reflect.Value
}

// Of wraps a Go value of static type T as a Peek.
func Of[T any](v T) Peek {
	s := shape.Of[T]()
	rv := reflect.ValueOf(&v).Elem()
	return Peek{shape: s, value: rv}
}

// OfAny wraps a Go value of dynamic type as a Peek, using its own runtime
// type to resolve the shape. Used when peeking through an interface-typed
// field (an enum) at its concrete dynamic value.
func OfAny(v any) Peek {
	rv := reflect.ValueOf(v)
	s := shape.OfType(rv.Type())
	return Peek{shape: s, value: rv}
}

// Shape returns the peeked value's shape.
func (p Peek) Shape() *shape.Shape { return p.shape }

// Interface returns the peeked value boxed as any, for callers that just
// need to hand it to a Format's push methods.
func (p Peek) Interface() any { return p.value.Interface() }

// AsStruct narrows the peek to a PeekStruct, or returns an error if the
// shape is not a struct.
func (p Peek) AsStruct() (PeekStruct, error) {
	if p.shape.Kind != shape.KindStruct {
		return PeekStruct{}, shapeerr.NewReflect("Peek.AsStruct", p.shape.Name, "", "not a struct shape", shapeerr.ErrWrongShape)
	}
	return PeekStruct{peek: p}, nil
}

// AsList narrows the peek to a PeekList.
func (p Peek) AsList() (PeekList, error) {
	if p.shape.Kind != shape.KindList {
		return PeekList{}, shapeerr.NewReflect("Peek.AsList", p.shape.Name, "", "not a list shape", shapeerr.ErrWrongShape)
	}
	return PeekList{peek: p}, nil
}

// AsMap narrows the peek to a PeekMap.
func (p Peek) AsMap() (PeekMap, error) {
	if p.shape.Kind != shape.KindMap && p.shape.Kind != shape.KindSet {
		return PeekMap{}, shapeerr.NewReflect("Peek.AsMap", p.shape.Name, "", "not a map or set shape", shapeerr.ErrWrongShape)
	}
	return PeekMap{peek: p, isSet: p.shape.Kind == shape.KindSet}, nil
}

// AsOption narrows the peek to a PeekOption.
func (p Peek) AsOption() (PeekOption, error) {
	if p.shape.Kind != shape.KindOption {
		return PeekOption{}, shapeerr.NewReflect("Peek.AsOption", p.shape.Name, "", "not an option shape", shapeerr.ErrWrongShape)
	}
	return PeekOption{peek: p}, nil
}

// AsSmartPointer narrows the peek to a PeekSmartPointer.
func (p Peek) AsSmartPointer() (PeekSmartPointer, error) {
	if p.shape.Kind != shape.KindSmartPointer && p.shape.Kind != shape.KindPointer {
		return PeekSmartPointer{}, shapeerr.NewReflect("Peek.AsSmartPointer", p.shape.Name, "", "not a pointer shape", shapeerr.ErrWrongShape)
	}
	return PeekSmartPointer{peek: p}, nil
}

// AsEnum narrows the peek to a PeekEnum.
func (p Peek) AsEnum() (PeekEnum, error) {
	if p.shape.Kind != shape.KindEnum {
		return PeekEnum{}, shapeerr.NewReflect("Peek.AsEnum", p.shape.Name, "", "not an enum shape", shapeerr.ErrWrongShape)
	}
	return PeekEnum{peek: p}, nil
}

// AsScalar narrows the peek to a PeekScalar.
func (p Peek) AsScalar() (PeekScalar, error) {
	if p.shape.Kind != shape.KindScalar {
		return PeekScalar{}, shapeerr.NewReflect("Peek.AsScalar", p.shape.Name, "", "not a scalar shape", shapeerr.ErrWrongShape)
	}
	return PeekScalar{peek: p}, nil
}

// PeekStruct is a narrowed Peek over a struct value.
type PeekStruct struct{ peek Peek }

// FieldsForSerialize returns the peeked struct's fields in the order a
// Serializer should push them, skipping nothing: omission policy (e.g.
// omit-empty) lives in the serialization engine's options (pkg/ser
// Options.OmitEmpty), not here.
func (ps PeekStruct) FieldsForSerialize() []shape.Field {
	return ps.peek.shape.Def.Struct.Fields
}

// HasFields reports whether the struct declares any fields at all.
func (ps PeekStruct) HasFields() bool {
	return len(ps.peek.shape.Def.Struct.Fields) > 0
}

// Field returns a Peek over the named field's current value.
func (ps PeekStruct) Field(f shape.Field) Peek {
	fv := ps.peek.value.Field(f.Index)
	return Peek{shape: f.Shape(), value: fv}
}

// PeekList is a narrowed Peek over a slice or array value.
type PeekList struct{ peek Peek }

// Len returns the number of elements.
func (pl PeekList) Len() int { return pl.peek.value.Len() }

// Index returns a Peek over the element at i.
func (pl PeekList) Index(i int) Peek {
	ev := pl.peek.value.Index(i)
	return Peek{shape: pl.peek.shape.Def.List.Elem(), value: ev}
}

// PeekMap is a narrowed Peek over a map or set value.
type PeekMap struct {
	peek  Peek
	isSet bool
}

// Len returns the number of entries.
func (pm PeekMap) Len() int {
	if pm.peek.value.IsNil() {
		return 0
	}
	return pm.peek.value.Len()
}

// IsSet reports whether this is a set (map[K]struct{}) rather than a
// general map.
func (pm PeekMap) IsSet() bool { return pm.isSet }

// MapEntry is one key/value pair peeked from a map.
type MapEntry struct {
	Key   Peek
	Value Peek
}

// Entries returns every key/value pair in the map, in the map's own
// (unspecified) iteration order; callers needing determinism must sort.
func (pm PeekMap) Entries() []MapEntry {
	if pm.peek.value.IsNil() {
		return nil
	}
	keyShapeFn := pm.keyShape()
	valShapeFn := pm.valShape()
	out := make([]MapEntry, 0, pm.peek.value.Len())
	iter := pm.peek.value.MapRange()
	for iter.Next() {
		out = append(out, MapEntry{
			Key:   Peek{shape: keyShapeFn(), value: iter.Key()},
			Value: Peek{shape: valShapeFn(), value: iter.Value()},
		})
	}
	return out
}

func (pm PeekMap) keyShape() func() *shape.Shape {
	if pm.isSet {
		return pm.peek.shape.Def.Set.Elem
	}
	return pm.peek.shape.Def.Map.Key
}

func (pm PeekMap) valShape() func() *shape.Shape {
	if pm.isSet {
		return func() *shape.Shape { return shape.Of[struct{}]() }
	}
	return pm.peek.shape.Def.Map.Val
}

// PeekOption is a narrowed Peek over a shape.Option[T] value.
type PeekOption struct{ peek Peek }

// IsSome reports whether the option holds a value.
func (po PeekOption) IsSome() bool {
	return po.peek.value.FieldByName("Valid").Bool()
}

// Value returns a Peek over the option's wrapped value. Callers must check
// IsSome first; calling this on a None is a programmer error.
func (po PeekOption) Value() Peek {
	elemShape := po.peek.shape.Def.Option.Elem()
	return Peek{shape: elemShape, value: po.peek.value.FieldByName("Value")}
}

// PeekSmartPointer is a narrowed Peek over a *T, Box[T] or Rc[T] value.
type PeekSmartPointer struct{ peek Peek }

// IsNil reports whether the pointer has no pointee. Box and Rc are never
// nil once constructed, so this only ever returns true for a plain *T.
func (psp PeekSmartPointer) IsNil() bool {
	if psp.peek.shape.Kind == shape.KindPointer {
		return psp.peek.value.IsNil()
	}
	return false
}

// Value dereferences the pointer, returning a Peek over the pointee.
func (psp PeekSmartPointer) Value() Peek {
	var elemShapeFn func() *shape.Shape
	if psp.peek.shape.Kind == shape.KindPointer {
		elemShapeFn = psp.peek.shape.Def.Pointer.Elem
	} else {
		elemShapeFn = psp.peek.shape.Def.SmartPointer.Elem
	}
	elemShape := elemShapeFn()

	if psp.peek.shape.Kind == shape.KindPointer {
		return Peek{shape: elemShape, value: psp.peek.value.Elem()}
	}

	getMethod := psp.peek.value.MethodByName("Get")
	result := getMethod.Call(nil)
	return Peek{shape: elemShape, value: result[0]}
}

// PeekEnum is a narrowed Peek over an interface-typed (registry-backed)
// value.
type PeekEnum struct{ peek Peek }

// VariantName returns the registered variant name of the enum's current
// dynamic value.
func (pe PeekEnum) VariantName() (string, bool) {
	if pe.peek.value.IsNil() {
		return "", false
	}
	concrete := pe.peek.value.Elem()
	name, ok := shape.DefaultRegistry.NameOf(concrete.Type())
	return name, ok
}

// Value returns a Peek over the enum's current concrete dynamic value.
func (pe PeekEnum) Value() Peek {
	concrete := pe.peek.value.Elem()
	return Peek{shape: shape.OfType(concrete.Type()), value: concrete}
}

// PeekScalar is a narrowed Peek over a leaf value.
type PeekScalar struct{ peek Peek }

// Kind returns the scalar's kind.
func (ps PeekScalar) Kind() shape.ScalarKind {
	return ps.peek.shape.Def.Scalar.ScalarKind
}

// Value returns the scalar's Go value, boxed as any.
func (ps PeekScalar) Value() any {
	return ps.peek.value.Interface()
}
