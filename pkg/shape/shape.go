// Package shape is the type-descriptor core of shapecraft. A Shape is a
// runtime-built, cached description of a Go type: its layout, its semantic
// Def (scalar, struct, list, map, option, ...), and a ValueVTable of
// optional operations (clone, default, drop, display, equality) that the
// peek and partial layers use to operate on values without static generic
// code for every concrete type.
//
// The source framework this package generalizes builds these descriptors at
// compile time, as `const` values, because Rust can evaluate trait impls
// during compilation. Go has no const-eval over arbitrary code and no
// specialization, so shapes here are instead built lazily on first use and
// cached in a sync.Map keyed by reflect.Type, the same caching shape the
// teacher's structInfoCache/wireTypeCache/packableCache give struct
// metadata. A Shape, once built, is immutable and safe for concurrent use.
package shape

import (
	"fmt"
	"reflect"
	"sync"
)

// Kind classifies the low-level representation of a Shape, independent of
// its semantic Def.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindStruct
	KindList
	KindMap
	KindSet
	KindOption
	KindPointer
	KindSmartPointer
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindStruct:
		return "Struct"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindSet:
		return "Set"
	case KindOption:
		return "Option"
	case KindPointer:
		return "Pointer"
	case KindSmartPointer:
		return "SmartPointer"
	case KindEnum:
		return "Enum"
	default:
		return "Invalid"
	}
}

// Characteristic names an optional capability a Shape's ValueVTable may or
// may not provide. Peek and Partial callers check for these before invoking
// the corresponding vtable slot, rather than assuming every shape supports
// every operation.
type Characteristic uint8

const (
	CharacteristicClone Characteristic = iota
	CharacteristicDefault
	CharacteristicDrop
	CharacteristicDisplay
	CharacteristicEq
	CharacteristicOrd
	CharacteristicHash
	CharacteristicFromStr
)

func (c Characteristic) String() string {
	switch c {
	case CharacteristicClone:
		return "Clone"
	case CharacteristicDefault:
		return "Default"
	case CharacteristicDrop:
		return "Drop"
	case CharacteristicDisplay:
		return "Display"
	case CharacteristicEq:
		return "Eq"
	case CharacteristicOrd:
		return "Ord"
	case CharacteristicHash:
		return "Hash"
	case CharacteristicFromStr:
		return "FromStr"
	default:
		return "Unknown"
	}
}

// ValueVTable is a bundle of optional function pointers operating on
// erased values of a single Shape. Every slot may be nil; callers must
// check Shape.Has before invoking one. Slots take and return `any` because
// every implementation goes through Go's own reflect.Value machinery
// rather than raw memory copies.
type ValueVTable struct {
	// Clone returns a deep copy of v.
	Clone func(v any) any
	// Default returns the shape's zero-equivalent default value.
	Default func() any
	// Drop releases any external resource v owns (a pooled buffer, a
	// refcounted handle). Nil for ordinary Go values that the garbage
	// collector already reclaims on its own.
	Drop func(v any)
	// Display renders v as a human-readable string.
	Display func(v any) string
	// Eq reports whether a and b are equal.
	Eq func(a, b any) bool
	// Less reports whether a orders before b.
	Less func(a, b any) bool
	// Hash writes a hash of v into the running hash state h.
	Hash func(v any, h func([]byte))
	// FromStr parses s into a new value of the shape, or returns an error.
	FromStr func(s string) (any, error)
}

// Has reports whether the vtable provides the named characteristic.
func (vt *ValueVTable) Has(c Characteristic) bool {
	if vt == nil {
		return false
	}
	switch c {
	case CharacteristicClone:
		return vt.Clone != nil
	case CharacteristicDefault:
		return vt.Default != nil
	case CharacteristicDrop:
		return vt.Drop != nil
	case CharacteristicDisplay:
		return vt.Display != nil
	case CharacteristicEq:
		return vt.Eq != nil
	case CharacteristicOrd:
		return vt.Less != nil
	case CharacteristicHash:
		return vt.Hash != nil
	case CharacteristicFromStr:
		return vt.FromStr != nil
	default:
		return false
	}
}

// Def carries the semantic payload specific to a Shape's Kind. Exactly one
// of the pointer fields is non-nil, matching the Shape's Kind.
type Def struct {
	Struct       *StructDef
	List         *ListDef
	Map          *MapDef
	Set          *SetDef
	Option       *OptionDef
	Pointer      *PointerDef
	SmartPointer *SmartPointerDef
	Enum         *EnumDef
	Scalar       *ScalarDef
}

// StructDef describes a struct shape's fields, in declaration order.
type StructDef struct {
	Fields []Field
}

// Field describes one struct field: its name, byte offset within the
// struct, and the shape of its value. Shape is stored as a thunk rather
// than a direct pointer so that self-referential and mutually recursive
// struct types don't require building an infinite descriptor graph; the
// thunk closes over a reflect.Type and calls back into the cache, which by
// the time the thunk runs again has already memoized the cycle's root.
type Field struct {
	Name       string
	Offset     uintptr
	Index      int
	ShapeThunk func() *Shape
	Required   bool
	Default    string // raw struct-tag default, if present
	RenameAs   string // explicit wire name override, if present
}

// Shape resolves the field's shape, memoizing nothing itself (the
// underlying Of cache already does).
func (f Field) Shape() *Shape { return f.ShapeThunk() }

// ListDef describes a sequential shape (slice or fixed-size array). Tuples
// have no Go analogue; a fixed Go array is treated as a List with Len >= 0
// fixing its size, the same fixed-size sequence the source spec calls a
// short tuple.
type ListDef struct {
	Elem      func() *Shape
	Len       int // -1 for a slice (unbounded), >=0 for an array
	IsSlice   bool
}

// MapDef describes a key/value map shape.
type MapDef struct {
	Key func() *Shape
	Val func() *Shape
}

// SetDef describes a set shape, represented in Go as map[K]struct{}.
type SetDef struct {
	Elem func() *Shape
}

// OptionDef describes a shape.Option[T] shape.
type OptionDef struct {
	Elem func() *Shape
}

// PointerDef describes a plain Go pointer (*T), the nilable-reference
// analogue distinct from Option[T]'s value-optionality.
type PointerDef struct {
	Elem func() *Shape
}

// SmartPointerKind distinguishes the flavors of owning pointer shapecraft
// knows about.
type SmartPointerKind uint8

const (
	SmartPointerBox SmartPointerKind = iota
	SmartPointerRc
)

// SmartPointerDef describes a Box[T] or Rc[T] shape.
type SmartPointerDef struct {
	Elem func() *Shape
	Kind SmartPointerKind
}

// EnumDef describes a shape backed by a registered marker interface: a
// closed-ish set of concrete "variant" types dispatched at runtime via the
// Registry, the Go stand-in for a Rust sum type. See RegisterVariant.
type EnumDef struct {
	Interface reflect.Type
	Variants  func() []Variant
}

// Variant describes one concrete implementation of an enum's marker
// interface.
type Variant struct {
	Name  string
	Type  reflect.Type
	Shape func() *Shape
}

// ScalarKind enumerates the built-in leaf types.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarInt
	ScalarInt8
	ScalarInt16
	ScalarInt32
	ScalarInt64
	ScalarUint
	ScalarUint8
	ScalarUint16
	ScalarUint32
	ScalarUint64
	ScalarFloat32
	ScalarFloat64
	ScalarString
	ScalarBytes
	ScalarOther // custom scalar registered via RegisterScalar (e.g. uuid.UUID)
)

// ScalarDef describes a leaf shape.
type ScalarDef struct {
	ScalarKind ScalarKind
}

// Shape is the complete, cached descriptor for a single Go type.
type Shape struct {
	Type   reflect.Type
	Kind   Kind
	Def    Def
	VTable ValueVTable
	Name   string
}

// Has reports whether the shape's vtable provides the named characteristic.
func (s *Shape) Has(c Characteristic) bool {
	return s.VTable.Has(c)
}

// TypeNameOpts controls how Shape.TypeName renders a type name.
type TypeNameOpts struct {
	// Qualified includes the package path prefix when true.
	Qualified bool
}

// TypeName renders the shape's type name, honoring opts.
func (s *Shape) TypeName(opts TypeNameOpts) string {
	if opts.Qualified && s.Type != nil && s.Type.PkgPath() != "" {
		return s.Type.PkgPath() + "." + s.Name
	}
	return s.Name
}

func (s *Shape) String() string {
	return fmt.Sprintf("Shape(%s, kind=%s)", s.Name, s.Kind)
}

var shapeCache sync.Map // reflect.Type -> *Shape
var buildingMu sync.Mutex
var building = map[reflect.Type]*Shape{} // cycle-breaking placeholders, guarded by buildingMu

// Of returns the cached Shape for T, building it on first use. Safe for
// concurrent use; concurrent first-builds of the same T may race to build,
// but only one result is ever stored (LoadOrStore).
func Of[T any]() *Shape {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return OfType(t)
}

// OfType returns the cached Shape for a reflect.Type, building it on first
// use.
func OfType(t reflect.Type) *Shape {
	if cached, ok := shapeCache.Load(t); ok {
		return cached.(*Shape)
	}

	buildingMu.Lock()
	if placeholder, ok := building[t]; ok {
		buildingMu.Unlock()
		return placeholder
	}
	placeholder := &Shape{Type: t, Name: typeDisplayName(t)}
	building[t] = placeholder
	buildingMu.Unlock()

	built := buildShape(t, placeholder)

	buildingMu.Lock()
	delete(building, t)
	buildingMu.Unlock()

	actual, _ := shapeCache.LoadOrStore(t, built)
	return actual.(*Shape)
}

// thunkFor returns a thunk that resolves t's shape through the cache,
// re-entering the building placeholder if t is mid-construction (breaks
// recursive/cyclic struct references).
func thunkFor(t reflect.Type) func() *Shape {
	return func() *Shape { return OfType(t) }
}

func typeDisplayName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// buildShape fills in placeholder in place and returns it, so that any
// thunk captured during construction of a cyclic type observes the final
// fields once construction completes.
func buildShape(t reflect.Type, placeholder *Shape) *Shape {
	if custom, ok := lookupCustomScalar(t); ok {
		placeholder.Kind = KindScalar
		placeholder.Def = Def{Scalar: &ScalarDef{ScalarKind: ScalarOther}}
		placeholder.VTable = custom
		return placeholder
	}

	switch t.Kind() {
	case reflect.Bool:
		fillScalar(placeholder, ScalarBool)
	case reflect.Int:
		fillScalar(placeholder, ScalarInt)
	case reflect.Int8:
		fillScalar(placeholder, ScalarInt8)
	case reflect.Int16:
		fillScalar(placeholder, ScalarInt16)
	case reflect.Int32:
		fillScalar(placeholder, ScalarInt32)
	case reflect.Int64:
		fillScalar(placeholder, ScalarInt64)
	case reflect.Uint:
		fillScalar(placeholder, ScalarUint)
	case reflect.Uint8:
		fillScalar(placeholder, ScalarUint8)
	case reflect.Uint16:
		fillScalar(placeholder, ScalarUint16)
	case reflect.Uint32:
		fillScalar(placeholder, ScalarUint32)
	case reflect.Uint64:
		fillScalar(placeholder, ScalarUint64)
	case reflect.Float32:
		fillScalar(placeholder, ScalarFloat32)
	case reflect.Float64:
		fillScalar(placeholder, ScalarFloat64)
	case reflect.String:
		fillScalar(placeholder, ScalarString)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			fillScalar(placeholder, ScalarBytes)
		} else {
			fillList(placeholder, t, true, -1)
		}
	case reflect.Array:
		fillList(placeholder, t, false, t.Len())
	case reflect.Map:
		if t.Elem() == emptyStructType {
			fillSet(placeholder, t)
		} else {
			fillMap(placeholder, t)
		}
	case reflect.Struct:
		if isOptionType(t) {
			fillOption(placeholder, t)
			break
		}
		if isRcType(t) {
			fillRc(placeholder, t)
			break
		}
		fillStruct(placeholder, t)
	case reflect.Ptr:
		if isBoxType(t) {
			fillSmartPointer(placeholder, t, SmartPointerBox)
			break
		}
		fillPointer(placeholder, t)
	case reflect.Interface:
		fillEnum(placeholder, t)
	default:
		placeholder.Kind = KindInvalid
	}
	return placeholder
}

var emptyStructType = reflect.TypeOf(struct{}{})

func fillScalar(s *Shape, k ScalarKind) {
	s.Kind = KindScalar
	s.Def = Def{Scalar: &ScalarDef{ScalarKind: k}}
	s.VTable = builtinScalarVTable(s.Type, k)
}

func fillList(s *Shape, t reflect.Type, isSlice bool, length int) {
	s.Kind = KindList
	elemT := t.Elem()
	s.Def = Def{List: &ListDef{Elem: thunkFor(elemT), Len: length, IsSlice: isSlice}}
	s.VTable = builtinListVTable(t, isSlice)
}

func fillMap(s *Shape, t reflect.Type) {
	s.Kind = KindMap
	s.Def = Def{Map: &MapDef{Key: thunkFor(t.Key()), Val: thunkFor(t.Elem())}}
	s.VTable = builtinMapVTable(t)
}

func fillSet(s *Shape, t reflect.Type) {
	s.Kind = KindSet
	s.Def = Def{Set: &SetDef{Elem: thunkFor(t.Key())}}
	s.VTable = builtinSetVTable(t)
}

func fillPointer(s *Shape, t reflect.Type) {
	s.Kind = KindPointer
	s.Def = Def{Pointer: &PointerDef{Elem: thunkFor(t.Elem())}}
	s.VTable = builtinPointerVTable(t)
}

func fillStruct(s *Shape, t reflect.Type) {
	s.Kind = KindStruct
	info := structFieldsOf(t)
	s.Def = Def{Struct: &StructDef{Fields: info}}
	s.VTable = builtinStructVTable(t)
}

func fillEnum(s *Shape, t reflect.Type) {
	s.Kind = KindEnum
	s.Def = Def{Enum: &EnumDef{
		Interface: t,
		Variants: func() []Variant {
			return DefaultRegistry.VariantsOf(t)
		},
	}}
	s.VTable = ValueVTable{}
}

// structFieldsOf walks t's exported fields in declaration order, caching
// nothing itself (Of's outer sync.Map already memoizes the whole Shape).
// Generalized from wire field numbers to shape-level metadata: required-ness
// and rename overrides instead of a protobuf-style field number.
func structFieldsOf(t reflect.Type) []Field {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("shape")
		if tag == "-" {
			continue
		}
		name, required, def, rename := parseFieldTag(tag, f.Name)
		fieldType := f.Type
		fields = append(fields, Field{
			Name:       name,
			Offset:     f.Offset,
			Index:      i,
			ShapeThunk: thunkFor(fieldType),
			Required:   required,
			Default:    def,
			RenameAs:   rename,
		})
	}
	return fields
}

// parseFieldTag parses a `shape:"name,required,default=...,rename=..."`
// struct tag. There is no field-number concept here: field identity in
// shapecraft is always by name, since Peek and Partial navigate
// structurally rather than over a byte stream with assigned tag numbers.
func parseFieldTag(tag, fallbackName string) (name string, required bool, def, rename string) {
	name = fallbackName
	if tag == "" {
		return
	}
	parts := splitComma(tag)
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		switch {
		case opt == "required":
			required = true
		case hasPrefix(opt, "default="):
			def = opt[len("default="):]
		case hasPrefix(opt, "rename="):
			rename = opt[len("rename="):]
		}
	}
	return
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
