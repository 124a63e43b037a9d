package shape

import (
	"fmt"
	"reflect"
)

// builtinScalarVTable builds the ValueVTable for a primitive Go kind.
// Clone is a plain copy (a byte slice gets fresh backing storage) and Eq
// is reflect.DeepEqual; Default is the Go zero value; Display uses fmt for
// diagnostic rendering rather than a hand-rolled formatter per kind.
func builtinScalarVTable(t reflect.Type, k ScalarKind) ValueVTable {
	return ValueVTable{
		Clone: func(v any) any {
			if rv := reflect.ValueOf(v); k == ScalarBytes && rv.Kind() == reflect.Slice && !rv.IsNil() {
				out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
				reflect.Copy(out, rv)
				return out.Interface()
			}
			return v
		},
		Default: func() any {
			return reflect.Zero(t).Interface()
		},
		Display: func(v any) string { return fmt.Sprintf("%v", v) },
		Eq: func(a, b any) bool {
			return reflect.DeepEqual(a, b)
		},
		Less: scalarLessFunc(k),
	}
}

func scalarLessFunc(k ScalarKind) func(a, b any) bool {
	switch k {
	case ScalarInt, ScalarInt8, ScalarInt16, ScalarInt32, ScalarInt64:
		return func(a, b any) bool {
			return reflect.ValueOf(a).Int() < reflect.ValueOf(b).Int()
		}
	case ScalarUint, ScalarUint8, ScalarUint16, ScalarUint32, ScalarUint64:
		return func(a, b any) bool {
			return reflect.ValueOf(a).Uint() < reflect.ValueOf(b).Uint()
		}
	case ScalarFloat32, ScalarFloat64:
		return func(a, b any) bool {
			return reflect.ValueOf(a).Float() < reflect.ValueOf(b).Float()
		}
	case ScalarString:
		return func(a, b any) bool {
			return reflect.ValueOf(a).String() < reflect.ValueOf(b).String()
		}
	default:
		return nil
	}
}

// builtinListVTable builds the ValueVTable for a slice or array shape.
// Clone copies element by element through reflection, since a plain
// slice/array copy would alias backing storage for slices; each element
// goes through its own shape's Clone, or is copied by value when that
// shape has none.
func builtinListVTable(t reflect.Type, isSlice bool) ValueVTable {
	return ValueVTable{
		Clone: func(v any) any {
			rv := reflect.ValueOf(v)
			out := reflect.New(t).Elem()
			if isSlice {
				if rv.IsNil() {
					return reflect.Zero(t).Interface()
				}
				out.Set(reflect.MakeSlice(t, rv.Len(), rv.Len()))
			}
			elemShape := OfType(t.Elem())
			for i := 0; i < rv.Len(); i++ {
				if elemShape.Has(CharacteristicClone) {
					cloned := elemShape.VTable.Clone(rv.Index(i).Interface())
					out.Index(i).Set(reflect.ValueOf(cloned))
				} else {
					out.Index(i).Set(rv.Index(i))
				}
			}
			return out.Interface()
		},
		Default: func() any { return reflect.Zero(t).Interface() },
		Display: func(v any) string { return fmt.Sprintf("%v", v) },
		Eq: func(a, b any) bool { return reflect.DeepEqual(a, b) },
	}
}

// builtinMapVTable builds the ValueVTable for a map shape.
func builtinMapVTable(t reflect.Type) ValueVTable {
	return ValueVTable{
		Clone: func(v any) any {
			rv := reflect.ValueOf(v)
			if rv.IsNil() {
				return reflect.Zero(t).Interface()
			}
			out := reflect.MakeMapWithSize(t, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), iter.Value())
			}
			return out.Interface()
		},
		Default: func() any { return reflect.Zero(t).Interface() },
		Display: func(v any) string { return fmt.Sprintf("%v", v) },
		Eq:      func(a, b any) bool { return reflect.DeepEqual(a, b) },
	}
}

// builtinSetVTable builds the ValueVTable for a map[K]struct{} set shape.
func builtinSetVTable(t reflect.Type) ValueVTable {
	return builtinMapVTable(t)
}

// builtinPointerVTable builds the ValueVTable for a *T pointer shape.
// Clone allocates a new T and deep-copies through the pointee's own shape
// when possible, falling back to a shallow struct copy otherwise.
func builtinPointerVTable(t reflect.Type) ValueVTable {
	elemT := t.Elem()
	return ValueVTable{
		Clone: func(v any) any {
			rv := reflect.ValueOf(v)
			if rv.IsNil() {
				return reflect.Zero(t).Interface()
			}
			elemShape := OfType(elemT)
			out := reflect.New(elemT)
			if elemShape.Has(CharacteristicClone) {
				cloned := elemShape.VTable.Clone(rv.Elem().Interface())
				out.Elem().Set(reflect.ValueOf(cloned))
			} else {
				out.Elem().Set(rv.Elem())
			}
			return out.Interface()
		},
		Default: func() any { return reflect.Zero(t).Interface() },
		Display: func(v any) string { return fmt.Sprintf("%v", v) },
		Eq:      func(a, b any) bool { return reflect.DeepEqual(a, b) },
	}
}

// builtinStructVTable builds the ValueVTable for a struct shape. Clone
// walks fields through their own shapes so that nested owning resources
// (Box, Rc) are handled by their own Clone rather than a bitwise struct
// copy, which would alias pooled storage.
func builtinStructVTable(t reflect.Type) ValueVTable {
	return ValueVTable{
		Clone: func(v any) any {
			rv := reflect.ValueOf(v)
			out := reflect.New(t).Elem()
			info := structFieldsOf(t)
			for _, f := range info {
				fv := rv.Field(f.Index)
				fs := f.Shape()
				if fs.Has(CharacteristicClone) {
					cloned := fs.VTable.Clone(fv.Interface())
					out.Field(f.Index).Set(reflect.ValueOf(cloned))
				} else {
					out.Field(f.Index).Set(fv)
				}
			}
			return out.Interface()
		},
		Default: func() any { return reflect.Zero(t).Interface() },
		Display: func(v any) string { return fmt.Sprintf("%+v", v) },
		Eq:      func(a, b any) bool { return reflect.DeepEqual(a, b) },
	}
}
