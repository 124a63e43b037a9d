package shape

import (
	"reflect"
	"sync/atomic"

	"github.com/blockberries/shapecraft/internal/pool"
)

// Box is an owning smart pointer backed by the shared buffer arena
// (internal/pool), the Go stand-in for the source framework's Box<T>. A
// Box is heap storage with a drop that actually does something observable:
// releasing it back to the pool, unlike a plain *T whose backing memory the
// garbage collector reclaims on its own schedule. Shapes over Box[T] carry
// a non-nil Drop vtable slot so the partial builder's drop-exactly-once
// discipline has a real resource to exercise and tests have something to
// check (internal/pool.Outstanding).
type Box[T any] struct {
	value  *T
	buf    []byte
	pooled bool
}

// NewBox allocates a Box holding v, checking out a pooled buffer to back
// its storage bookkeeping. The value itself still lives in normal Go
// memory (generics give no way to place a T inside a []byte without
// unsafe casts per-T); the pooled buffer represents the framework-level
// resource a real Box would own, letting Drop be meaningfully non-nil.
func NewBox[T any](v T) *Box[T] {
	buf := pool.Get(64)
	val := v
	return &Box[T]{value: &val, buf: buf, pooled: true}
}

// Get returns the boxed value.
func (b *Box[T]) Get() T { return *b.value }

// Set replaces the boxed value.
func (b *Box[T]) Set(v T) { *b.value = v }

// Drop releases the Box's pooled buffer. Safe to call more than once;
// subsequent calls are no-ops.
func (b *Box[T]) Drop() {
	if b.pooled {
		pool.Put(b.buf)
		b.pooled = false
	}
}

func isBoxType(t reflect.Type) bool {
	if t.Kind() != reflect.Ptr {
		return false
	}
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem.PkgPath() == boxPkgPath && hasBoxShape(elem)
}

var boxPkgPath = reflect.TypeOf(Box[int]{}).PkgPath()

func hasBoxShape(t reflect.Type) bool {
	if t.NumField() != 3 {
		return false
	}
	return t.Field(0).Name == "value" && t.Field(1).Name == "buf" && t.Field(2).Name == "pooled"
}

func fillSmartPointer(s *Shape, t reflect.Type, kind SmartPointerKind) {
	s.Kind = KindSmartPointer
	elemT := t.Elem().Field(0).Type.Elem() // *T field's pointee
	s.Def = Def{SmartPointer: &SmartPointerDef{Elem: thunkFor(elemT), Kind: kind}}
	s.VTable = ValueVTable{
		Drop: func(v any) {
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Ptr || rv.IsNil() {
				return
			}
			method := rv.MethodByName("Drop")
			if method.IsValid() {
				method.Call(nil)
			}
		},
	}
}

// Rc is a reference-counted owning smart pointer, the Go stand-in for the
// source framework's Rc<T>: multiple Rc handles can share one underlying
// value, and the value's Drop only actually runs once the last handle lets
// go. Unlike Box, Rc's backing value is shared rather than exclusive, so
// cloning an Rc is cheap (bump a counter) rather than deep.
type Rc[T any] struct {
	shared *rcShared[T]
}

type rcShared[T any] struct {
	value   T
	count   atomic.Int64
	onEmpty func()
}

// NewRc allocates a new Rc with refcount 1.
func NewRc[T any](v T) Rc[T] {
	shared := &rcShared[T]{value: v}
	shared.count.Store(1)
	return Rc[T]{shared: shared}
}

// Get returns the shared value.
func (r Rc[T]) Get() T { return r.shared.value }

// Clone returns a new handle to the same shared value, incrementing the
// refcount.
func (r Rc[T]) Clone() Rc[T] {
	r.shared.count.Add(1)
	return r
}

// StrongCount reports the current number of live handles.
func (r Rc[T]) StrongCount() int64 { return r.shared.count.Load() }

// Drop releases this handle. Once the refcount reaches zero, onEmpty (if
// set via SetOnEmpty) runs exactly once.
func (r Rc[T]) Drop() {
	if r.shared.count.Add(-1) == 0 && r.shared.onEmpty != nil {
		r.shared.onEmpty()
	}
}

// SetOnEmpty installs a callback to run when the last handle drops, a way
// to observe exactly-once drop semantics without a real external
// resource.
func (r Rc[T]) SetOnEmpty(f func()) {
	r.shared.onEmpty = f
}

var rcPkgPath = reflect.TypeOf(Rc[int]{}).PkgPath()

// fillRc fills s as the SmartPointer shape of a shape.Rc[T] instantiation
// t. Rc is held by value (unlike Box, which is always a *Box[T] pointer),
// so t is a struct type rather than a pointer type.
func fillRc(s *Shape, t reflect.Type) {
	s.Kind = KindSmartPointer
	sharedPtrType := t.Field(0).Type // *rcShared[T]
	elemT := sharedPtrType.Elem().Field(0).Type
	s.Def = Def{SmartPointer: &SmartPointerDef{Elem: thunkFor(elemT), Kind: SmartPointerRc}}
	s.VTable = ValueVTable{
		Drop: func(v any) {
			rv := reflect.ValueOf(v)
			method := rv.MethodByName("Drop")
			if method.IsValid() {
				method.Call(nil)
			}
		},
	}
}

func isRcType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.PkgPath() != rcPkgPath || t.NumField() != 1 {
		return false
	}
	return t.Field(0).Name == "shared"
}
