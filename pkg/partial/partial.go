// Package partial is the write-side counterpart to pkg/peek: an
// arena-tracked builder that lets a deserializer construct a value of an
// unknown-until-runtime Shape field by field, without the caller ever
// holding a half-initialized Go value of that type directly (Go has no
// notion of a partially-initialized struct the way C does, but a zero
// struct is not the same as a validly-initialized one once `required`
// fields are in play, and slices/maps mid-construction should not leak to
// callers before they're known complete).
//
// A Partial is a small stack machine: Begin* operations push a Frame
// addressing one field, element, or entry of the value under
// construction; End pops the current Frame back into its parent,
// recording that the parent slot is now initialized; Build (at the root)
// or BuildTyped validates every `required` slot was initialized and
// returns the finished value. The per-frame initialization bitset and
// navigational frame stack mirror the structure the source framework
// builds at a byte level; this port keeps the navigational shape but
// backs each Frame with an addressable reflect.Value rather than a raw
// pointer, since Go's reflect package already gives safe, GC-aware
// addressable storage and pkg/peek makes the same trade for reading.
package partial

import (
	"reflect"

	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// frameKind distinguishes what a Frame is attached to in its parent.
type frameKind uint8

const (
	frameRoot frameKind = iota
	frameStructField
	frameListIndex
	frameMapEntry
	frameOptionValue
	framePointerPointee
	frameDetached // a list/map/option element built off-stack, not yet moved into its parent
)

// Frame is one level of the navigation stack: the value currently being
// built, its shape, and enough bookkeeping to report back to its parent
// on End.
type Frame struct {
	shape *shape.Shape
	value reflect.Value // addressable

	kind frameKind

	// initialized tracks, for a struct frame, which field indices (by
	// position in shape.Def.Struct.Fields) have been set; for a list/array
	// frame, which element indices have been set.
	initialized map[int]bool

	// parent linkage, for End to report back through.
	parent      *Frame
	parentField shape.Field // valid when kind == frameStructField
	parentIndex int         // valid when kind == frameListIndex
	parentKey   reflect.Value
	moved       bool // true once this frame's value has been moved into its parent
}

// Partial is a builder for a value of a Shape not yet known to be fully
// initialized.
type Partial struct {
	root    *Frame
	current *Frame
	dropped bool
	// incomplete holds the first required-field or fixed-array check that
	// failed on a frame as it was ended; Build reports it.
	incomplete error
}

// New allocates a Partial for building a value of static type T.
func New[T any]() *Partial {
	s := shape.Of[T]()
	return NewFor(s)
}

// NewFor allocates a Partial for building a value of a dynamically
// resolved Shape.
func NewFor(s *shape.Shape) *Partial {
	v := reflect.New(s.Type).Elem()
	root := &Frame{shape: s, value: v, kind: frameRoot, initialized: make(map[int]bool)}
	return &Partial{root: root, current: root}
}

// Shape returns the shape of the value currently in focus.
func (p *Partial) Shape() *shape.Shape { return p.current.shape }

// BeginField descends into a struct field by name, pushing a new Frame.
// The field must exist on the current frame's shape, which must be a
// struct.
func (p *Partial) BeginField(name string) error {
	if p.current.shape.Kind != shape.KindStruct {
		return shapeerr.NewReflect("Partial.BeginField", p.current.shape.Name, name, "not a struct shape", shapeerr.ErrWrongShape)
	}
	fields := p.current.shape.Def.Struct.Fields
	for _, f := range fields {
		if f.Name == name {
			fv := p.current.value.Field(f.Index)
			child := &Frame{
				shape:       f.Shape(),
				value:       fv,
				kind:        frameStructField,
				initialized: make(map[int]bool),
				parent:      p.current,
				parentField: f,
			}
			p.current = child
			return nil
		}
	}
	return shapeerr.NewReflect("Partial.BeginField", p.current.shape.Name, name, "no such field", shapeerr.ErrNoSuchField)
}

// BeginPush appends a new zero element to the current slice frame and
// descends into it, returning the element's index.
func (p *Partial) BeginPush() (int, error) {
	if p.current.shape.Kind != shape.KindList || !p.current.shape.Def.List.IsSlice {
		return 0, shapeerr.NewReflect("Partial.BeginPush", p.current.shape.Name, "", "not a slice shape", shapeerr.ErrWrongShape)
	}
	elemShape := p.current.shape.Def.List.Elem()
	zero := reflect.Zero(elemShape.Type)
	p.current.value.Set(reflect.Append(p.current.value, zero))
	idx := p.current.value.Len() - 1
	return idx, p.beginIndex(idx, elemShape)
}

// BeginIndex descends into a fixed-size array frame's element at index i.
func (p *Partial) BeginIndex(i int) error {
	if p.current.shape.Kind != shape.KindList || p.current.shape.Def.List.IsSlice {
		return shapeerr.NewReflect("Partial.BeginIndex", p.current.shape.Name, "", "not an array shape", shapeerr.ErrWrongShape)
	}
	if i < 0 || i >= p.current.shape.Def.List.Len {
		return shapeerr.NewReflect("Partial.BeginIndex", p.current.shape.Name, "", "index out of bounds", shapeerr.ErrArrayIndexOutOfBounds)
	}
	elemShape := p.current.shape.Def.List.Elem()
	return p.beginIndex(i, elemShape)
}

func (p *Partial) beginIndex(i int, elemShape *shape.Shape) error {
	ev := p.current.value.Index(i)
	child := &Frame{
		shape:       elemShape,
		value:       ev,
		kind:        frameListIndex,
		initialized: make(map[int]bool),
		parent:      p.current,
		parentIndex: i,
	}
	p.current = child
	return nil
}

// BeginMapInsert begins a detached frame for a new map value to be
// associated with key once End is called. key must be assignable to the
// map's key shape's Go type.
func (p *Partial) BeginMapInsert(key any) error {
	if p.current.shape.Kind != shape.KindMap && p.current.shape.Kind != shape.KindSet {
		return shapeerr.NewReflect("Partial.BeginMapInsert", p.current.shape.Name, "", "not a map or set shape", shapeerr.ErrWrongShape)
	}
	if p.current.value.IsNil() {
		p.current.value.Set(reflect.MakeMap(p.current.shape.Type))
	}
	var valShape *shape.Shape
	if p.current.shape.Kind == shape.KindSet {
		valShape = shape.Of[struct{}]()
	} else {
		valShape = p.current.shape.Def.Map.Val()
	}
	valPtr := reflect.New(valShape.Type).Elem()
	child := &Frame{
		shape:       valShape,
		value:       valPtr,
		kind:        frameMapEntry,
		initialized: make(map[int]bool),
		parent:      p.current,
		parentKey:   reflect.ValueOf(key),
	}
	p.current = child
	return nil
}

// BeginSome marks the current Option frame present and descends into its
// wrapped value.
func (p *Partial) BeginSome() error {
	if p.current.shape.Kind != shape.KindOption {
		return shapeerr.NewReflect("Partial.BeginSome", p.current.shape.Name, "", "not an option shape", shapeerr.ErrWrongShape)
	}
	p.current.value.FieldByName("Valid").SetBool(true)
	elemShape := p.current.shape.Def.Option.Elem()
	ev := p.current.value.FieldByName("Value")
	child := &Frame{
		shape:       elemShape,
		value:       ev,
		kind:        frameOptionValue,
		initialized: make(map[int]bool),
		parent:      p.current,
	}
	p.current = child
	return nil
}

// SetNone marks the current Option frame absent, without descending. The
// frame remains in focus; no matching End is required.
func (p *Partial) SetNone() error {
	if p.current.shape.Kind != shape.KindOption {
		return shapeerr.NewReflect("Partial.SetNone", p.current.shape.Name, "", "not an option shape", shapeerr.ErrWrongShape)
	}
	p.current.value.FieldByName("Valid").SetBool(false)
	return nil
}

// BeginPointee allocates storage for a *T frame's pointee and descends
// into it.
func (p *Partial) BeginPointee() error {
	if p.current.shape.Kind != shape.KindPointer {
		return shapeerr.NewReflect("Partial.BeginPointee", p.current.shape.Name, "", "not a pointer shape", shapeerr.ErrWrongShape)
	}
	elemShape := p.current.shape.Def.Pointer.Elem()
	ptrVal := reflect.New(elemShape.Type)
	p.current.value.Set(ptrVal)
	child := &Frame{
		shape:       elemShape,
		value:       ptrVal.Elem(),
		kind:        framePointerPointee,
		initialized: make(map[int]bool),
		parent:      p.current,
	}
	p.current = child
	return nil
}

// SetScalar sets the current frame's value directly to v, where v must be
// assignable to the current shape's Go type. Used for scalar leaves and
// for any shape whose Format adapter produces a ready-made Go value
// (interfaces/enums included).
func (p *Partial) SetScalar(v any) error {
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(p.current.shape.Type) {
		return shapeerr.NewReflect("Partial.SetScalar", p.current.shape.Name, "", "value not assignable to shape type", shapeerr.ErrTypeMismatch)
	}
	p.current.value.Set(rv)
	p.markParentInitialized()
	return nil
}

// SetDefault fills the current frame with its shape's default value, if
// one is registered, and reports it initialized.
func (p *Partial) SetDefault() error {
	if !p.current.shape.Has(shape.CharacteristicDefault) {
		return shapeerr.NewReflect("Partial.SetDefault", p.current.shape.Name, "", "no default_in_place characteristic", shapeerr.ErrDefaultAttrButNoDefault)
	}
	def := p.current.shape.VTable.Default()
	return p.SetScalar(def)
}

// markParentInitialized records, in the parent frame's bitset, that the
// slot this frame occupies now holds a value. Called after a leaf Set;
// End records the same thing inline, for frames that were built
// structurally instead of via SetScalar.
func (p *Partial) markParentInitialized() {
	f := p.current
	if f.parent == nil {
		return
	}
	switch f.kind {
	case frameStructField:
		f.parent.initialized[f.parentField.Index] = true
	case frameListIndex:
		f.parent.initialized[f.parentIndex] = true
	case frameOptionValue, framePointerPointee:
		// presence is tracked by the parent's own Valid flag / non-nil check.
	}
}

// End completes the current frame and returns focus to its parent. For a
// map-entry frame, End is also where the accumulated value is actually
// inserted into the parent map under its key.
func (p *Partial) End() error {
	f := p.current
	if f.parent == nil {
		return shapeerr.NewReflect("Partial.End", f.shape.Name, "", "already at root frame", shapeerr.ErrInvariantViolation)
	}

	if p.incomplete == nil {
		if err := requiredFieldsSatisfied(f); err != nil {
			p.incomplete = err
		} else if err := arrayFullyInitialized(f); err != nil {
			p.incomplete = err
		}
	}

	switch f.kind {
	case frameMapEntry:
		f.parent.value.SetMapIndex(f.parentKey, f.value)
	case frameStructField:
		f.parent.initialized[f.parentField.Index] = true
	case frameListIndex:
		f.parent.initialized[f.parentIndex] = true
	case frameOptionValue, framePointerPointee:
		// no-op: value already written in place through the shared reflect.Value
	}
	f.moved = true
	p.current = f.parent
	return nil
}

// requiredFieldsSatisfied reports whether every `required` field of a
// struct frame has been initialized.
func requiredFieldsSatisfied(f *Frame) error {
	if f.shape.Kind != shape.KindStruct {
		return nil
	}
	for _, field := range f.shape.Def.Struct.Fields {
		if field.Required && !f.initialized[field.Index] {
			return shapeerr.NewReflect("Partial.Build", f.shape.Name, field.Name, "required field was never initialized", shapeerr.ErrUninitializedField)
		}
	}
	return nil
}

// arrayFullyInitialized reports whether every element of a fixed-size
// array frame has been initialized, the Go analogue of the source
// framework's short-tuple strictness: arrays are strict, unlike slices
// which grow element by element and are always "complete" by
// construction.
func arrayFullyInitialized(f *Frame) error {
	if f.shape.Kind != shape.KindList || f.shape.Def.List.IsSlice {
		return nil
	}
	for i := 0; i < f.shape.Def.List.Len; i++ {
		if !f.initialized[i] {
			return shapeerr.NewReflect("Partial.Build", f.shape.Name, "", "array not fully initialized", shapeerr.ErrArrayNotFullyInit)
		}
	}
	return nil
}

// Build finalizes the root frame and returns the completed value boxed as
// any. It is an error to call Build anywhere but at the root (i.e. after
// every Begin* has been matched by an End).
func (p *Partial) Build() (any, error) {
	if p.current != p.root {
		return nil, shapeerr.NewReflect("Partial.Build", p.current.shape.Name, "", "unbalanced Begin/End: not at root frame", shapeerr.ErrInvariantViolation)
	}
	if err := requiredFieldsSatisfied(p.root); err != nil {
		return nil, err
	}
	if err := arrayFullyInitialized(p.root); err != nil {
		return nil, err
	}
	if p.incomplete != nil {
		return nil, p.incomplete
	}
	p.root.moved = true
	return p.root.value.Interface(), nil
}

// BuildTyped is a generic convenience over Build for callers that know
// the static result type.
func BuildTyped[T any](p *Partial) (T, error) {
	var zero T
	v, err := p.Build()
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Drop abandons the Partial, running the shape's Drop on the frame
// currently in focus if it holds a resource-owning value (Box, Rc) that
// was never moved into its parent. Only that one frame is visited: its
// ancestor frames, and values already ended into a parent, are not
// dropped. Safe to call after a partial or failed build; a no-op if Build
// already succeeded.
func (p *Partial) Drop() {
	if p.dropped {
		return
	}
	p.dropped = true
	dropFrame(p.current)
}

func dropFrame(f *Frame) {
	if f == nil || f.moved {
		return
	}
	if f.shape.Has(shape.CharacteristicDrop) && f.value.IsValid() && f.value.CanInterface() {
		f.shape.VTable.Drop(f.value.Interface())
	}
	f.moved = true
}
