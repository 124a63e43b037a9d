package ser

import (
	"fmt"
	"testing"

	"github.com/blockberries/shapecraft/pkg/peek"
	"github.com/blockberries/shapecraft/pkg/shape"
)

// recordingSerializer captures every call it receives, in order, as a
// simple string trace. It does not attempt to produce real output; it
// exists only to verify the walker visits things in the right order.
type recordingSerializer struct {
	trace []string
}

func (r *recordingSerializer) rec(s string) { r.trace = append(r.trace, s) }

func (r *recordingSerializer) WriteScalar(v any, k shape.ScalarKind) error {
	r.rec("scalar:" + toStr(v))
	return nil
}
func (r *recordingSerializer) BeginStruct() error            { r.rec("struct{"); return nil }
func (r *recordingSerializer) WriteFieldName(name string) error { r.rec("field:" + name); return nil }
func (r *recordingSerializer) EndStruct() error               { r.rec("}struct"); return nil }
func (r *recordingSerializer) BeginList(n int) error           { r.rec("list["); return nil }
func (r *recordingSerializer) EndList() error                  { r.rec("]list"); return nil }
func (r *recordingSerializer) BeginMap(n int) error             { r.rec("map{"); return nil }
func (r *recordingSerializer) WriteMapKey(k any) error          { r.rec("key:" + toStr(k)); return nil }
func (r *recordingSerializer) EndMap() error                    { r.rec("}map"); return nil }
func (r *recordingSerializer) WriteOptionNone() error           { r.rec("none"); return nil }
func (r *recordingSerializer) BeginOptionSome() error           { r.rec("some("); return nil }
func (r *recordingSerializer) EndOption() error                 { r.rec(")some"); return nil }
func (r *recordingSerializer) WriteNilPointer() error           { r.rec("nilptr"); return nil }
func (r *recordingSerializer) BeginPointee() error              { r.rec("ptr("); return nil }
func (r *recordingSerializer) EndPointee() error                { r.rec(")ptr"); return nil }
func (r *recordingSerializer) BeginVariant(name string) error   { r.rec("variant(" + name); return nil }
func (r *recordingSerializer) EndVariant() error                { r.rec(")variant"); return nil }

func toStr(v any) string {
	return fmt.Sprintf("%v", v)
}

type coords struct {
	X int32 `shape:"x"`
	Y int32 `shape:"y"`
}

func TestSerializeStruct(t *testing.T) {
	p := peek.Of(coords{X: 1, Y: 2})
	r := &recordingSerializer{}
	if err := Serialize(p, r, Options{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	want := []string{"struct{", "field:x", "scalar:1", "field:y", "scalar:2", "}struct"}
	if len(r.trace) != len(want) {
		t.Fatalf("trace length mismatch: got %v, want %v", r.trace, want)
	}
	for i := range want {
		if r.trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q (full trace: %v)", i, r.trace[i], want[i], r.trace)
		}
	}
}

func TestSerializeSlice(t *testing.T) {
	p := peek.Of([]int32{10, 20, 30})
	r := &recordingSerializer{}
	if err := Serialize(p, r, Options{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if r.trace[0] != "list[" || r.trace[len(r.trace)-1] != "]list" {
		t.Fatalf("unexpected trace: %v", r.trace)
	}
	scalarCount := 0
	for _, s := range r.trace {
		if len(s) >= 7 && s[:7] == "scalar:" {
			scalarCount++
		}
	}
	if scalarCount != 3 {
		t.Fatalf("expected 3 scalar writes, got %d (%v)", scalarCount, r.trace)
	}
}

func TestSerializeOptionNone(t *testing.T) {
	p := peek.Of(shape.None[int32]())
	r := &recordingSerializer{}
	if err := Serialize(p, r, Options{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(r.trace) != 1 || r.trace[0] != "none" {
		t.Fatalf("expected [none], got %v", r.trace)
	}
}

func TestSerializeOptionSome(t *testing.T) {
	p := peek.Of(shape.Some[int32](7))
	r := &recordingSerializer{}
	if err := Serialize(p, r, Options{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	want := []string{"some(", "scalar:7", ")some"}
	if len(r.trace) != len(want) {
		t.Fatalf("unexpected trace length: %v", r.trace)
	}
	for i := range want {
		if r.trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q", i, r.trace[i], want[i])
		}
	}
}
