package shape

import (
	"reflect"
	"testing"
)

type simplePerson struct {
	Name string `shape:"name,required"`
	Age  int32  `shape:"age"`
}

type nestedHolder struct {
	ID     int64         `shape:"id"`
	Person *simplePerson `shape:"person"`
}

func TestOfScalar(t *testing.T) {
	s := Of[int32]()
	if s.Kind != KindScalar {
		t.Fatalf("expected KindScalar, got %s", s.Kind)
	}
	if s.Def.Scalar.ScalarKind != ScalarInt32 {
		t.Fatalf("expected ScalarInt32, got %v", s.Def.Scalar.ScalarKind)
	}
	if !s.Has(CharacteristicDefault) {
		t.Fatal("expected scalar to have Default")
	}
	if s.VTable.Default().(int32) != 0 {
		t.Fatal("expected zero default")
	}
}

func TestOfStruct(t *testing.T) {
	s := Of[simplePerson]()
	if s.Kind != KindStruct {
		t.Fatalf("expected KindStruct, got %s", s.Kind)
	}
	fields := s.Def.Struct.Fields
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "name" || !fields[0].Required {
		t.Fatalf("unexpected field 0: %+v", fields[0])
	}
	if fields[1].Name != "age" {
		t.Fatalf("unexpected field 1: %+v", fields[1])
	}
}

func TestOfStructCaching(t *testing.T) {
	a := Of[simplePerson]()
	b := Of[simplePerson]()
	if a != b {
		t.Fatal("expected Of to return the cached, identical Shape pointer")
	}
}

func TestOfPointerRecursion(t *testing.T) {
	s := Of[nestedHolder]()
	fields := s.Def.Struct.Fields
	personShape := fields[1].Shape()
	if personShape.Kind != KindPointer {
		t.Fatalf("expected KindPointer, got %s", personShape.Kind)
	}
	elemShape := personShape.Def.Pointer.Elem()
	if elemShape.Kind != KindStruct {
		t.Fatalf("expected pointee KindStruct, got %s", elemShape.Kind)
	}
}

func TestOfSlice(t *testing.T) {
	s := Of[[]int32]()
	if s.Kind != KindList || !s.Def.List.IsSlice {
		t.Fatalf("expected slice List, got %+v", s)
	}
	if s.Def.List.Len != -1 {
		t.Fatalf("expected Len -1 for slice, got %d", s.Def.List.Len)
	}
}

func TestOfArray(t *testing.T) {
	s := Of[[4]byte]()
	if s.Kind != KindList || s.Def.List.IsSlice {
		t.Fatalf("expected array List, got %+v", s)
	}
	if s.Def.List.Len != 4 {
		t.Fatalf("expected Len 4, got %d", s.Def.List.Len)
	}
}

func TestOfMap(t *testing.T) {
	s := Of[map[string]int32]()
	if s.Kind != KindMap {
		t.Fatalf("expected KindMap, got %s", s.Kind)
	}
}

func TestOfSet(t *testing.T) {
	s := Of[map[string]struct{}]()
	if s.Kind != KindSet {
		t.Fatalf("expected KindSet, got %s", s.Kind)
	}
}

func TestOfOption(t *testing.T) {
	s := Of[Option[int32]]()
	if s.Kind != KindOption {
		t.Fatalf("expected KindOption, got %s", s.Kind)
	}
	elem := s.Def.Option.Elem()
	if elem.Def.Scalar.ScalarKind != ScalarInt32 {
		t.Fatalf("expected int32 option element, got %+v", elem)
	}
}

func TestStructCloneDeepCopies(t *testing.T) {
	s := Of[simplePerson]()
	orig := simplePerson{Name: "Ada", Age: 36}
	clonedAny := s.VTable.Clone(orig)
	cloned := clonedAny.(simplePerson)
	if !reflect.DeepEqual(orig, cloned) {
		t.Fatalf("clone mismatch: %+v vs %+v", orig, cloned)
	}
}

func TestRegistryVariantRoundTrip(t *testing.T) {
	type shape1Marker interface{ isShape1Marker() }
	reg := NewRegistry()

	ifaceType := reflect.TypeOf((*shape1Marker)(nil)).Elem()
	implType := reflect.TypeOf(variantImpl{})
	if err := reg.Register(ifaceType, implType, "variant_impl"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	variants := reg.VariantsOf(ifaceType)
	if len(variants) != 1 || variants[0].Name != "variant_impl" {
		t.Fatalf("unexpected variants: %+v", variants)
	}

	got, ok := reg.TypeByName(ifaceType, "variant_impl")
	if !ok || got != implType {
		t.Fatalf("TypeByName mismatch: %v %v", got, ok)
	}
}

type variantImpl struct{}

func (variantImpl) isShape1Marker() {}
