package shape

import (
	"reflect"
	"sync"

	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// Registry tracks which concrete types implement which marker interfaces,
// serving two roles the source framework keeps separate and shapecraft
// merges into one runtime mechanism: enum-variant dispatch (an interface
// stands in for a closed sum type) and general polymorphic interface-typed
// struct fields. Generalized from a wire TypeID table to a pure
// reflect.Type table, since shapecraft's core has no wire format of its
// own to assign IDs against.
type Registry struct {
	mu sync.RWMutex

	// variantsByInterface maps a marker interface type to the concrete
	// types registered against it, in registration order.
	variantsByInterface map[reflect.Type][]reflect.Type

	// nameByType maps a concrete type to the variant name it was
	// registered under.
	nameByType map[reflect.Type]string

	// typeByName disambiguates lookups coming from a deserialized name
	// back to a concrete type, scoped per interface.
	typeByName map[reflect.Type]map[string]reflect.Type
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		variantsByInterface: make(map[reflect.Type][]reflect.Type),
		nameByType:          make(map[reflect.Type]string),
		typeByName:          make(map[reflect.Type]map[string]reflect.Type),
	}
}

// DefaultRegistry is the package-level registry used by shape.Of when it
// encounters an interface-kinded field or enum and by RegisterVariant.
var DefaultRegistry = NewRegistry()

// RegisterVariant registers Impl as a named variant of the marker interface
// Iface (an interface whose nil pointer is passed as iface, via the usual
// `reflect.TypeOf((*Iface)(nil)).Elem()` idiom). Impl (or *Impl) must
// implement Iface; Register checks this at registration time with
// reflect.Type.Implements.
func RegisterVariant[Impl any](iface any, name string) error {
	var zero Impl
	implType := reflect.TypeOf(zero)
	if implType == nil {
		implType = reflect.TypeOf(&zero).Elem()
	}
	ifaceType := reflect.TypeOf(iface).Elem()
	return DefaultRegistry.Register(ifaceType, implType, name)
}

// Register records that implType satisfies ifaceType under the given
// variant name.
func (r *Registry) Register(ifaceType, implType reflect.Type, name string) error {
	if ifaceType.Kind() != reflect.Interface {
		return shapeerr.NewReflect("Registry.Register", ifaceType.String(), "", "not an interface type", nil)
	}
	if !implType.Implements(ifaceType) && !reflect.PointerTo(implType).Implements(ifaceType) {
		return shapeerr.NewReflect("Registry.Register", implType.String(), "", "does not implement "+ifaceType.String(), shapeerr.ErrInvariantViolation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.variantsByInterface[ifaceType] {
		if existing == implType {
			return nil // idempotent re-registration
		}
	}
	r.variantsByInterface[ifaceType] = append(r.variantsByInterface[ifaceType], implType)
	r.nameByType[implType] = name

	byName := r.typeByName[ifaceType]
	if byName == nil {
		byName = make(map[string]reflect.Type)
		r.typeByName[ifaceType] = byName
	}
	byName[name] = implType

	return nil
}

// VariantsOf returns every registered variant of the given marker
// interface, in registration order.
func (r *Registry) VariantsOf(ifaceType reflect.Type) []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	impls := r.variantsByInterface[ifaceType]
	out := make([]Variant, len(impls))
	for i, implType := range impls {
		implType := implType
		out[i] = Variant{
			Name:  r.nameByType[implType],
			Type:  implType,
			Shape: func() *Shape { return OfType(implType) },
		}
	}
	return out
}

// NameOf returns the registered variant name for a concrete type, if any.
func (r *Registry) NameOf(implType reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.nameByType[implType]
	return name, ok
}

// TypeByName resolves a variant name back to a concrete type under the
// given marker interface.
func (r *Registry) TypeByName(ifaceType reflect.Type, name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName, ok := r.typeByName[ifaceType]
	if !ok {
		return nil, false
	}
	t, ok := byName[name]
	return t, ok
}

// NewVariant allocates a new zero value of the named variant's concrete
// type, returning it as the marker interface's dynamic value. Returns
// ErrNoSuchVariant if name is unregistered for ifaceType.
func (r *Registry) NewVariant(ifaceType reflect.Type, name string) (any, error) {
	t, ok := r.TypeByName(ifaceType, name)
	if !ok {
		return nil, shapeerr.NewReflect("Registry.NewVariant", ifaceType.String(), name, "no such variant", shapeerr.ErrNoSuchVariant)
	}
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface(), nil
	}
	return reflect.New(t).Elem().Interface(), nil
}

// Clear removes all registrations. Primarily useful for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variantsByInterface = make(map[reflect.Type][]reflect.Type)
	r.nameByType = make(map[reflect.Type]string)
	r.typeByName = make(map[reflect.Type]map[string]reflect.Type)
}

// customScalars holds a registered scalar vtable keyed by its concrete
// reflect.Type, for types like uuid.UUID that are structurally a [16]byte
// array but semantically a leaf scalar with their own FromStr/Display.
var customScalars sync.Map // reflect.Type -> ValueVTable

// RegisterScalar installs a custom scalar vtable for T, overriding
// whatever shape shapecraft would otherwise derive structurally (e.g. a
// fixed-size array). Used by the uuid integration to give uuid.UUID a
// Scalar shape with string parsing instead of a 16-element byte List.
func RegisterScalar[T any](vt ValueVTable) {
	var zero T
	t := reflect.TypeOf(zero)
	customScalars.Store(t, vt)
}

func lookupCustomScalar(t reflect.Type) (ValueVTable, bool) {
	v, ok := customScalars.Load(t)
	if !ok {
		return ValueVTable{}, false
	}
	return v.(ValueVTable), true
}
