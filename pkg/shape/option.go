package shape

import "reflect"

// Option is the Go stand-in for the source framework's Option<T>: a value
// that is either present or absent, distinct from a nil pointer because a
// present Option[T] still owns a real T by value rather than by reference.
// A pointer shape (*T) models nilable references; Option[T] models
// value-optionality, a distinct kind from a nilable pointer.
type Option[T any] struct {
	Valid bool
	Value T
}

// Some returns a present Option wrapping v.
func Some[T any](v T) Option[T] { return Option[T]{Valid: true, Value: v} }

// None returns an absent Option.
func None[T any]() Option[T] { return Option[T]{} }

// Get returns the wrapped value and whether it was present, the familiar
// Go "comma ok" idiom.
func (o Option[T]) Get() (T, bool) { return o.Value, o.Valid }

// IsSome reports whether the option holds a value.
func (o Option[T]) IsSome() bool { return o.Valid }

// IsNone reports whether the option is empty.
func (o Option[T]) IsNone() bool { return !o.Valid }

func isOptionType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return false
	}
	if t.Field(0).Name != "Valid" || t.Field(0).Type.Kind() != reflect.Bool {
		return false
	}
	return t.Field(1).Name == "Value"
}

func fillOption(s *Shape, t reflect.Type) {
	s.Kind = KindOption
	elemT := t.Field(1).Type
	s.Def = Def{Option: &OptionDef{Elem: thunkFor(elemT)}}
	s.VTable = ValueVTable{}
}
