package main

import (
	"testing"

	"github.com/blockberries/shapecraft/format/wireformat"
	"github.com/blockberries/shapecraft/format/yamlformat"
	"github.com/blockberries/shapecraft/pkg/shape"
)

func TestOutputPath(t *testing.T) {
	got := outputPath("/tmp/out", "/in/record.yaml", ".wire")
	want := "/tmp/out/record.wire"
	if got != want {
		t.Fatalf("outputPath mismatch: got %q, want %q", got, want)
	}
}

func TestDocumentRoundTripYAMLToWire(t *testing.T) {
	doc := Document{
		ID:       7,
		Name:     "root",
		Tags:     []string{"a", "b"},
		Priority: shape.Some[int32](3),
	}

	yamlBytes, err := yamlformat.Marshal(doc)
	if err != nil {
		t.Fatalf("yamlformat.Marshal failed: %v", err)
	}
	fromYAML, err := yamlformat.Unmarshal[Document](yamlBytes)
	if err != nil {
		t.Fatalf("yamlformat.Unmarshal failed: %v", err)
	}

	wire, err := wireformat.Marshal(fromYAML)
	if err != nil {
		t.Fatalf("wireformat.Marshal failed: %v", err)
	}
	fromWire, err := wireformat.Unmarshal[Document](wire)
	if err != nil {
		t.Fatalf("wireformat.Unmarshal failed: %v", err)
	}

	if fromWire.ID != doc.ID || fromWire.Name != doc.Name || len(fromWire.Tags) != len(doc.Tags) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", fromWire, doc)
	}
	if !fromWire.Priority.Valid || fromWire.Priority.Value != 3 {
		t.Fatalf("unexpected priority: %+v", fromWire.Priority)
	}
}

func TestInspectShapeHasExpectedFields(t *testing.T) {
	s := shape.Of[Document]()
	if s.Def.Struct == nil {
		t.Fatal("expected Document to be a struct shape")
	}
	names := map[string]bool{}
	for _, f := range s.Def.Struct.Fields {
		names[f.Name] = true
	}
	for _, want := range []string{"id", "name", "tags", "priority", "parent"} {
		if !names[want] {
			t.Fatalf("expected field %q in Document shape, got %v", want, names)
		}
	}
}
