package wireformat

import (
	"testing"

	"github.com/blockberries/shapecraft/pkg/shape"
)

type point struct {
	X int32  `shape:"x"`
	Y int32  `shape:"y"`
	Z string `shape:"z"`
}

func TestMarshalUnmarshalStruct(t *testing.T) {
	in := point{X: 3, Y: -7, Z: "hi"}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[point](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestMarshalUnmarshalSlice(t *testing.T) {
	in := []int32{10, 20, 30}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[[]int32](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("length mismatch: got %v, want %v", got, in)
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("element %d mismatch: got %v, want %v", i, got[i], in[i])
		}
	}
}

func TestMarshalUnmarshalMap(t *testing.T) {
	in := map[string]int32{"a": 1, "b": 2, "c": 3}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[map[string]int32](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("length mismatch: got %v, want %v", got, in)
	}
	for k, v := range in {
		if got[k] != v {
			t.Fatalf("key %q mismatch: got %v, want %v", k, got[k], v)
		}
	}
}

type withPointer struct {
	Name  string `shape:"name"`
	Inner *point `shape:"inner"`
}

func TestMarshalUnmarshalPointerPresent(t *testing.T) {
	in := withPointer{Name: "a", Inner: &point{X: 1, Y: 2, Z: "z"}}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[withPointer](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Name != in.Name || got.Inner == nil || *got.Inner != *in.Inner {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestMarshalUnmarshalPointerNil(t *testing.T) {
	in := withPointer{Name: "b", Inner: nil}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[withPointer](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Name != in.Name || got.Inner != nil {
		t.Fatalf("expected nil Inner, got %+v", got)
	}
}

type withOption struct {
	Name  string              `shape:"name"`
	Count shape.Option[int32] `shape:"count"`
}

func TestMarshalUnmarshalOptionSome(t *testing.T) {
	in := withOption{Name: "a", Count: shape.Some[int32](42)}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[withOption](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !got.Count.Valid || got.Count.Value != 42 {
		t.Fatalf("expected Some(42), got %+v", got.Count)
	}
}

func TestMarshalUnmarshalOptionNone(t *testing.T) {
	in := withOption{Name: "a", Count: shape.None[int32]()}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[withOption](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Count.Valid {
		t.Fatalf("expected None, got %+v", got.Count)
	}
}

// shapeEvent is the marker interface for an enum round trip: two variants
// carrying different payloads, dispatched by registered name rather than a
// type switch.
type shapeEvent interface{ isShapeEvent() }

type createdEvent struct {
	ID int32 `shape:"id"`
}

func (createdEvent) isShapeEvent() {}

type renamedEvent struct {
	ID      int32  `shape:"id"`
	NewName string `shape:"new_name"`
}

func (renamedEvent) isShapeEvent() {}

func init() {
	iface := (*shapeEvent)(nil)
	if err := shape.RegisterVariant[createdEvent](iface, "created"); err != nil {
		panic(err)
	}
	if err := shape.RegisterVariant[renamedEvent](iface, "renamed"); err != nil {
		panic(err)
	}
}

func TestMarshalUnmarshalEnumVariant(t *testing.T) {
	var in shapeEvent = renamedEvent{ID: 9, NewName: "galaxy"}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[shapeEvent](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	re, ok := got.(renamedEvent)
	if !ok {
		t.Fatalf("expected renamedEvent, got %T", got)
	}
	if re.ID != 9 || re.NewName != "galaxy" {
		t.Fatalf("unexpected variant payload: %+v", re)
	}
}

func TestUnmarshalUnknownFieldSkipped(t *testing.T) {
	type wide struct {
		Name  string `shape:"name"`
		Extra int32  `shape:"extra"`
	}
	type narrow struct {
		Name string `shape:"name"`
	}

	data, err := Marshal(wide{Name: "a", Extra: 7})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal[narrow](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Name != "a" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
