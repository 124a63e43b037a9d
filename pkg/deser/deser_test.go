package deser

import (
	"testing"

	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// treeFormat is a minimal Format over an in-memory document tree, used to
// exercise the driver loop without a real wire/yaml adapter. pending
// always holds the value the driver is about to interpret; Begin* methods
// read it, NextField/NextElement overwrite it with the next child.
type treeFormat struct {
	pending any
	cursors []any
}

func newTreeFormat(root any) *treeFormat {
	return &treeFormat{pending: root}
}

func (f *treeFormat) ReadScalar(expect shape.ScalarKind) (any, shapeerr.Span, error) {
	return f.pending, shapeerr.Span{}, nil
}

type structCursor struct {
	m    map[string]any
	keys []string
	i    int
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (f *treeFormat) BeginStruct() (bool, error) {
	if f.pending == nil {
		return false, nil
	}
	m := f.pending.(map[string]any)
	f.cursors = append(f.cursors, &structCursor{m: m, keys: sortedKeys(m)})
	return true, nil
}

func (f *treeFormat) NextField() (string, bool, error) {
	c := f.cursors[len(f.cursors)-1].(*structCursor)
	if c.i >= len(c.keys) {
		return "", false, nil
	}
	name := c.keys[c.i]
	c.i++
	f.pending = c.m[name]
	return name, true, nil
}

func (f *treeFormat) SkipValue() error { return nil }

func (f *treeFormat) EndStruct() error {
	f.cursors = f.cursors[:len(f.cursors)-1]
	return nil
}

type listCursor struct {
	items []any
	i     int
}

func (f *treeFormat) BeginList() (bool, error) {
	if f.pending == nil {
		return false, nil
	}
	l := f.pending.([]any)
	f.cursors = append(f.cursors, &listCursor{items: l})
	return true, nil
}

func (f *treeFormat) NextElement() (bool, error) {
	c := f.cursors[len(f.cursors)-1].(*listCursor)
	if c.i >= len(c.items) {
		return false, nil
	}
	f.pending = c.items[c.i]
	c.i++
	return true, nil
}

func (f *treeFormat) EndList() error {
	f.cursors = f.cursors[:len(f.cursors)-1]
	return nil
}

func (f *treeFormat) BeginMap() (bool, error)       { return false, nil }
func (f *treeFormat) NextMapKey() (any, bool, error) { return nil, false, nil }
func (f *treeFormat) EndMap() error                  { return nil }

func (f *treeFormat) BeginOption() (bool, error) {
	return f.pending != nil, nil
}

type simplePerson struct {
	Name string   `shape:"name,required"`
	Age  int32    `shape:"age"`
	Tags []string `shape:"tags"`
}

func TestDeserializeScalarField(t *testing.T) {
	doc := map[string]any{"name": "Grace", "age": int64(52)}
	f := newTreeFormat(doc)

	got, err := Deserialize[simplePerson](f, DefaultOptions())
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got.Name != "Grace" || got.Age != 52 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestDeserializeSlice(t *testing.T) {
	doc := map[string]any{"name": "Grace", "tags": []any{"admiral", "pioneer"}}
	f := newTreeFormat(doc)

	got, err := Deserialize[simplePerson](f, DefaultOptions())
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "admiral" || got.Tags[1] != "pioneer" {
		t.Fatalf("unexpected tags: %+v", got.Tags)
	}
}

func TestDeserializeMissingRequiredFails(t *testing.T) {
	doc := map[string]any{"age": int64(1)}
	f := newTreeFormat(doc)

	if _, err := Deserialize[simplePerson](f, DefaultOptions()); err == nil {
		t.Fatal("expected failure for missing required field")
	}
}

func TestDeserializeUnknownFieldSkipped(t *testing.T) {
	doc := map[string]any{"name": "Grace", "unexpected": "value"}
	f := newTreeFormat(doc)

	got, err := Deserialize[simplePerson](f, DefaultOptions())
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got.Name != "Grace" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestDeserializeUnknownFieldErrors(t *testing.T) {
	doc := map[string]any{"name": "Grace", "unexpected": "value"}
	f := newTreeFormat(doc)

	opts := DefaultOptions()
	opts.UnknownFields = ErrorOnUnknownFields
	if _, err := Deserialize[simplePerson](f, opts); err == nil {
		t.Fatal("expected failure for unknown field under ErrorOnUnknownFields")
	}
}
