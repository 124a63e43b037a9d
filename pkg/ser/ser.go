// Package ser is the push-driven serialization engine: it walks a
// pkg/peek.Peek value and pushes one container or scalar at a time into a
// Serializer. The walk is iterative rather than recursive, using an
// explicit task stack instead of the call stack, so that a deeply nested
// value (a long linked list of Box[T] pointees, for instance) cannot blow
// the Go goroutine stack the way a naive recursive encodeValue would;
// hyperpb's thunk/archetype dispatch is the example pack's model for
// driving deep structural walks without recursion, adapted here to a
// push rather than a pull.
package ser

import (
	"github.com/blockberries/shapecraft/pkg/peek"
	"github.com/blockberries/shapecraft/pkg/shape"
)

// Serializer is implemented by an output adapter (format/wireformat,
// format/yamlformat) and pushed into by the driver loop below.
type Serializer interface {
	WriteScalar(v any, k shape.ScalarKind) error

	BeginStruct() error
	WriteFieldName(name string) error
	EndStruct() error

	BeginList(length int) error
	EndList() error

	BeginMap(length int) error
	WriteMapKey(key any) error
	EndMap() error

	WriteOptionNone() error
	BeginOptionSome() error
	EndOption() error

	WriteNilPointer() error
	BeginPointee() error
	EndPointee() error

	BeginVariant(name string) error
	EndVariant() error
}

// Options configures a single Serialize call.
type Options struct {
	// OmitEmpty skips struct fields holding a zero number, false, an empty
	// string, a None option, a nil plain pointer, or an empty list, map or
	// set, the same opt-in a `cramberry:"2,omitempty"` struct tag offers
	// per field, applied uniformly here rather than per-field (per-field
	// omission is a format concern layered on top, not a core engine
	// concern). Fields of any other kind (structs, enums, byte slices,
	// custom scalars, Box and Rc) are always written.
	OmitEmpty bool
}

// taskKind distinguishes a stack entry's role in the iterative walk.
type taskKind uint8

const (
	taskVisit taskKind = iota
	taskStructField
	taskListElement
	taskMapEntry
	taskEndStruct
	taskEndList
	taskEndMap
)

type task struct {
	kind taskKind

	peek peek.Peek

	structFields []shape.Field
	fieldIdx     int

	list peek.PeekList
	idx  int

	entries  []peek.MapEntry
	entryIdx int
}

// Serialize pushes v into s, in its entirety, using opts.
func Serialize(v peek.Peek, s Serializer, opts Options) error {
	stack := []task{{kind: taskVisit, peek: v}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next, err := step(t, s, opts)
		if err != nil {
			return err
		}
		stack = append(stack, next...)
	}
	return nil
}

// step processes one task, returning zero or more follow-up tasks to push
// (in the order they should run, i.e. the first element of the returned
// slice runs last since Serialize pushes in order and pops from the end.
// To keep this intuitive, step always returns follow-ups in "run order"
// and reverses them itself before returning.
func step(t task, s Serializer, opts Options) ([]task, error) {
	var follow []task
	var err error

	switch t.kind {
	case taskVisit:
		follow, err = visit(t.peek, s, opts)
	case taskStructField:
		follow, err = continueStruct(t, s, opts)
	case taskListElement:
		follow, err = continueList(t, s)
	case taskMapEntry:
		follow, err = continueMap(t, s)
	case taskEndStruct:
		return nil, s.EndStruct()
	case taskEndList:
		return nil, s.EndList()
	case taskEndMap:
		return nil, s.EndMap()
	case taskEndOption:
		return nil, s.EndOption()
	case taskEndPointee:
		return nil, s.EndPointee()
	case taskEndVariant:
		return nil, s.EndVariant()
	}

	if err != nil {
		return nil, err
	}
	reverse(follow)
	return follow, nil
}

func reverse(tasks []task) {
	for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	}
}

func visit(p peek.Peek, s Serializer, opts Options) ([]task, error) {
	switch p.Shape().Kind {
	case shape.KindScalar:
		ps, _ := p.AsScalar()
		if err := s.WriteScalar(ps.Value(), ps.Kind()); err != nil {
			return nil, err
		}
		return nil, nil

	case shape.KindStruct:
		ps, _ := p.AsStruct()
		if err := s.BeginStruct(); err != nil {
			return nil, err
		}
		fields := ps.FieldsForSerialize()
		return []task{{kind: taskStructField, peek: p, structFields: fields, fieldIdx: 0}}, nil

	case shape.KindList:
		pl, _ := p.AsList()
		if err := s.BeginList(pl.Len()); err != nil {
			return nil, err
		}
		return []task{{kind: taskListElement, list: pl, idx: 0}}, nil

	case shape.KindMap, shape.KindSet:
		pm, _ := p.AsMap()
		entries := pm.Entries()
		if err := s.BeginMap(len(entries)); err != nil {
			return nil, err
		}
		return []task{{kind: taskMapEntry, entries: entries, entryIdx: 0}}, nil

	case shape.KindOption:
		po, _ := p.AsOption()
		if !po.IsSome() {
			return nil, s.WriteOptionNone()
		}
		if err := s.BeginOptionSome(); err != nil {
			return nil, err
		}
		return []task{{kind: taskVisit, peek: po.Value()}, endOptionTask()}, nil

	case shape.KindPointer:
		psp, _ := p.AsSmartPointer()
		if psp.IsNil() {
			return nil, s.WriteNilPointer()
		}
		if err := s.BeginPointee(); err != nil {
			return nil, err
		}
		return []task{{kind: taskVisit, peek: psp.Value()}, endPointeeTask()}, nil

	case shape.KindSmartPointer:
		psp, _ := p.AsSmartPointer()
		if err := s.BeginPointee(); err != nil {
			return nil, err
		}
		return []task{{kind: taskVisit, peek: psp.Value()}, endPointeeTask()}, nil

	case shape.KindEnum:
		pe, _ := p.AsEnum()
		name, ok := pe.VariantName()
		if !ok {
			name = "<unregistered>"
		}
		if err := s.BeginVariant(name); err != nil {
			return nil, err
		}
		return []task{{kind: taskVisit, peek: pe.Value()}, endVariantTask()}, nil

	default:
		return nil, nil
	}
}

// taskEndOption, taskEndPointee and taskEndVariant are single-use cleanup
// markers: each container kind that isn't a struct/list/map still needs
// exactly one closing call once its (single) child has been visited.
const (
	taskEndOption taskKind = iota + 100
	taskEndPointee
	taskEndVariant
)

func endOptionTask() task  { return task{kind: taskEndOption} }
func endPointeeTask() task { return task{kind: taskEndPointee} }
func endVariantTask() task { return task{kind: taskEndVariant} }

func continueStruct(t task, s Serializer, opts Options) ([]task, error) {
	for t.fieldIdx < len(t.structFields) {
		f := t.structFields[t.fieldIdx]
		ps, _ := t.peek.AsStruct()
		fieldPeek := ps.Field(f)

		if opts.OmitEmpty && isEmptyPeek(fieldPeek) {
			t.fieldIdx++
			continue
		}

		name := f.Name
		if f.RenameAs != "" {
			name = f.RenameAs
		}
		if err := s.WriteFieldName(name); err != nil {
			return nil, err
		}
		t.fieldIdx++
		return []task{{kind: taskVisit, peek: fieldPeek}, {kind: taskStructField,
			peek: t.peek, structFields: t.structFields, fieldIdx: t.fieldIdx}}, nil
	}
	return []task{{kind: taskEndStruct}}, nil
}

func continueList(t task, s Serializer) ([]task, error) {
	if t.idx >= t.list.Len() {
		return []task{{kind: taskEndList}}, nil
	}
	elem := t.list.Index(t.idx)
	t.idx++
	return []task{{kind: taskVisit, peek: elem}, {kind: taskListElement, list: t.list, idx: t.idx}}, nil
}

func continueMap(t task, s Serializer) ([]task, error) {
	if t.entryIdx >= len(t.entries) {
		return []task{{kind: taskEndMap}}, nil
	}
	entry := t.entries[t.entryIdx]
	if err := s.WriteMapKey(entry.Key.Interface()); err != nil {
		return nil, err
	}
	t.entryIdx++
	return []task{{kind: taskVisit, peek: entry.Value}, {kind: taskMapEntry, entries: t.entries, entryIdx: t.entryIdx}}, nil
}

func isEmptyPeek(p peek.Peek) bool {
	switch p.Shape().Kind {
	case shape.KindScalar:
		ps, _ := p.AsScalar()
		v := ps.Value()
		switch vv := v.(type) {
		case string:
			return vv == ""
		case bool:
			return !vv
		default:
			return isZeroNumeric(v)
		}
	case shape.KindOption:
		po, _ := p.AsOption()
		return !po.IsSome()
	case shape.KindPointer, shape.KindSmartPointer:
		psp, _ := p.AsSmartPointer()
		return psp.IsNil()
	case shape.KindList:
		pl, _ := p.AsList()
		return pl.Len() == 0
	case shape.KindMap, shape.KindSet:
		pm, _ := p.AsMap()
		return pm.Len() == 0
	default:
		return false
	}
}

func isZeroNumeric(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int8:
		return n == 0
	case int16:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case uint:
		return n == 0
	case uint8:
		return n == 0
	case uint16:
		return n == 0
	case uint32:
		return n == 0
	case uint64:
		return n == 0
	case float32:
		return n == 0
	case float64:
		return n == 0
	default:
		return false
	}
}
