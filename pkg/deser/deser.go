// Package deser is the pull-driven deserialization engine: it walks a
// pkg/shape.Shape, asking a Format for one container or scalar at a time
// and feeding the result into a pkg/partial.Partial, the same
// navigational relationship a decodeValue/decodeStruct/decodeSlice/
// decodeMap family has with its byte reader, generalized from one wire
// encoding to any Format implementation.
package deser

import (
	"reflect"

	"github.com/blockberries/shapecraft/pkg/partial"
	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// Format is implemented by an input adapter (format/wireformat,
// format/yamlformat, or a caller's own) and pulled from by the driver loop
// below, one container or scalar at a time. ReadScalar reports the
// scalar's position as a shapeerr.Span so coercion errors can be blamed
// on the right range; the container methods report no span.
type Format interface {
	// ReadScalar consumes the next scalar value, already coerced toward
	// expect where the format's native representation allows it (e.g. a
	// JSON/YAML number toward any numeric ScalarKind). The coercion table
	// (coerce.go) takes over from there for anything the format couldn't
	// do natively.
	ReadScalar(expect shape.ScalarKind) (any, shapeerr.Span, error)

	// BeginStruct opens a struct-shaped container. ok is false if the
	// input held an explicit null instead.
	BeginStruct() (ok bool, err error)
	// NextField returns the next field name in the struct container, or
	// has=false once the container is exhausted.
	NextField() (name string, has bool, err error)
	// SkipValue discards whatever value is positioned next, used when
	// NextField names a field the target shape does not have.
	SkipValue() error
	EndStruct() error

	BeginList() (ok bool, err error)
	// NextElement reports whether another list element follows.
	NextElement() (has bool, err error)
	EndList() error

	BeginMap() (ok bool, err error)
	// NextMapKey returns the next map key, or has=false once exhausted.
	NextMapKey() (key any, has bool, err error)
	EndMap() error

	// BeginOption reports whether the option slot holds a present value
	// (true) or an explicit absence (false).
	BeginOption() (present bool, err error)
}

// Options configures a single Deserialize call.
type Options struct {
	// RenameAll applies a field-renaming policy (rename.go) when matching
	// input field names against shape field names, for formats whose
	// authors used a different casing convention than the Go struct.
	RenameAll RenameRule
	// UnknownFields controls what happens when the input names a field the
	// target shape doesn't have.
	UnknownFields UnknownFieldPolicy
	// MaxDepth bounds container nesting, the same defense-in-depth the
	// teacher's Limits type applies to its own wire reader.
	MaxDepth int
}

// UnknownFieldPolicy controls handling of input fields absent from the
// target shape.
type UnknownFieldPolicy uint8

const (
	// SkipUnknownFields silently discards fields the shape doesn't define.
	SkipUnknownFields UnknownFieldPolicy = iota
	// ErrorOnUnknownFields rejects input naming a field the shape doesn't define.
	ErrorOnUnknownFields
)

// DefaultOptions returns the engine's default policy: skip unknown
// fields, no renaming, a generous but finite depth bound.
func DefaultOptions() Options {
	return Options{RenameAll: RenameNone, UnknownFields: SkipUnknownFields, MaxDepth: 64}
}

// Deserialize builds a value of static type T by pulling from f according
// to opts.
func Deserialize[T any](f Format, opts Options) (T, error) {
	var zero T
	s := shape.Of[T]()
	p := partial.NewFor(s)
	if err := driveValue(f, p, opts, 0); err != nil {
		p.Drop()
		return zero, err
	}
	v, err := p.Build()
	if err != nil {
		p.Drop()
		return zero, err
	}
	return v.(T), nil
}

func driveValue(f Format, p *partial.Partial, opts Options, depth int) error {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "maximum nesting depth exceeded", shapeerr.ErrMaxDepthExceeded)
	}

	s := p.Shape()
	switch s.Kind {
	case shape.KindScalar:
		return driveScalar(f, p)
	case shape.KindStruct:
		return driveStruct(f, p, opts, depth)
	case shape.KindList:
		return driveList(f, p, opts, depth)
	case shape.KindMap, shape.KindSet:
		return driveMap(f, p, opts, depth)
	case shape.KindOption:
		return driveOption(f, p, opts, depth)
	case shape.KindPointer:
		return drivePointer(f, p, opts, depth)
	case shape.KindSmartPointer:
		return driveSmartPointer(f, p, opts, depth)
	case shape.KindEnum:
		return driveEnum(f, p)
	default:
		return shapeerr.NewReflect("deser.driveValue", s.Name, "", "unsupported shape kind", shapeerr.ErrWrongShape)
	}
}

func driveScalar(f Format, p *partial.Partial) error {
	k := p.Shape().Def.Scalar.ScalarKind
	raw, span, err := f.ReadScalar(k)
	if err != nil {
		return shapeerr.NewDeser(span, "", "failed to read scalar", err)
	}
	coerced, err := coerce(raw, p.Shape())
	if err != nil {
		return shapeerr.NewDeser(span, "", "scalar coercion failed", err)
	}
	return p.SetScalar(coerced)
}

func driveStruct(f Format, p *partial.Partial, opts Options, depth int) error {
	ok, err := f.BeginStruct()
	if err != nil {
		return err
	}
	if !ok {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "expected struct, found null", shapeerr.ErrWrongShape)
	}

	fieldsByWireName := make(map[string]shape.Field)
	for _, fld := range p.Shape().Def.Struct.Fields {
		wireName := renameField(fld, opts.RenameAll)
		fieldsByWireName[wireName] = fld
	}

	for {
		name, has, err := f.NextField()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		fld, known := fieldsByWireName[name]
		if !known {
			if opts.UnknownFields == ErrorOnUnknownFields {
				return shapeerr.NewDeser(shapeerr.Span{}, name, "unknown field", shapeerr.ErrUnknownField)
			}
			if err := f.SkipValue(); err != nil {
				return err
			}
			continue
		}
		if err := p.BeginField(fld.Name); err != nil {
			return err
		}
		if err := driveValue(f, p, opts, depth+1); err != nil {
			return err
		}
		if err := p.End(); err != nil {
			return err
		}
	}

	return f.EndStruct()
}

func driveList(f Format, p *partial.Partial, opts Options, depth int) error {
	ok, err := f.BeginList()
	if err != nil {
		return err
	}
	if !ok {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "expected list, found null", shapeerr.ErrWrongShape)
	}

	isSlice := p.Shape().Def.List.IsSlice
	idx := 0
	for {
		has, err := f.NextElement()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		if isSlice {
			if _, err := p.BeginPush(); err != nil {
				return err
			}
		} else {
			if err := p.BeginIndex(idx); err != nil {
				return err
			}
		}
		if err := driveValue(f, p, opts, depth+1); err != nil {
			return err
		}
		if err := p.End(); err != nil {
			return err
		}
		idx++
	}

	return f.EndList()
}

func driveMap(f Format, p *partial.Partial, opts Options, depth int) error {
	ok, err := f.BeginMap()
	if err != nil {
		return err
	}
	if !ok {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "expected map, found null", shapeerr.ErrWrongShape)
	}

	var keyShape *shape.Shape
	if ms := p.Shape(); ms.Kind == shape.KindSet {
		keyShape = ms.Def.Set.Elem()
	} else {
		keyShape = ms.Def.Map.Key()
	}

	for {
		key, has, err := f.NextMapKey()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		if keyShape.Kind == shape.KindScalar {
			if key, err = coerce(key, keyShape); err != nil {
				return shapeerr.NewDeser(shapeerr.Span{}, "", "map key coercion failed", err)
			}
		}
		if err := p.BeginMapInsert(key); err != nil {
			return err
		}
		if err := driveValue(f, p, opts, depth+1); err != nil {
			return err
		}
		if err := p.End(); err != nil {
			return err
		}
	}

	return f.EndMap()
}

func driveOption(f Format, p *partial.Partial, opts Options, depth int) error {
	present, err := f.BeginOption()
	if err != nil {
		return err
	}
	if !present {
		return p.SetNone()
	}
	if err := p.BeginSome(); err != nil {
		return err
	}
	if err := driveValue(f, p, opts, depth+1); err != nil {
		return err
	}
	return p.End()
}

func drivePointer(f Format, p *partial.Partial, opts Options, depth int) error {
	present, err := f.BeginOption()
	if err != nil {
		return err
	}
	if !present {
		return nil // leave as nil pointer, the zero value
	}
	if err := p.BeginPointee(); err != nil {
		return err
	}
	if err := driveValue(f, p, opts, depth+1); err != nil {
		return err
	}
	return p.End()
}

func driveSmartPointer(f Format, p *partial.Partial, opts Options, depth int) error {
	// Box/Rc go through drivePointer: an absent slot leaves the zero
	// value in place, and a present one fails with ErrWrongShape, because
	// partial.BeginPointee accepts only plain pointer shapes, not Box or Rc.
	return drivePointer(f, p, opts, depth)
}

func driveEnum(f Format, p *partial.Partial) error {
	ok, err := f.BeginStruct()
	if err != nil {
		return err
	}
	if !ok {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "expected tagged variant, found null", shapeerr.ErrWrongShape)
	}
	name, has, err := f.NextField()
	if err != nil {
		return err
	}
	if !has {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "enum variant object had no tag field", shapeerr.ErrNoSuchVariant)
	}
	ifaceType := p.Shape().Def.Enum.Interface
	val, err := shape.DefaultRegistry.NewVariant(ifaceType, name)
	if err != nil {
		return err
	}
	inner := partial.NewFor(shape.OfType(reflect.TypeOf(val)))
	if err := driveValue(f, inner, Options{MaxDepth: 64}, 0); err != nil {
		inner.Drop()
		return err
	}
	built, err := inner.Build()
	if err != nil {
		return err
	}
	if err := p.SetScalar(built); err != nil {
		return err
	}
	if _, has, err := f.NextField(); err != nil {
		return err
	} else if has {
		return shapeerr.NewDeser(shapeerr.Span{}, "", "enum variant object had more than one field", shapeerr.ErrInvariantViolation)
	}
	return f.EndStruct()
}
