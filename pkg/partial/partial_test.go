package partial

import (
	"reflect"
	"testing"

	"github.com/blockberries/shapecraft/internal/pool"
	"github.com/blockberries/shapecraft/pkg/shape"
)

type address struct {
	City string `shape:"city,required"`
	Zip  string `shape:"zip"`
}

type person struct {
	Name    string            `shape:"name,required"`
	Age     int32             `shape:"age"`
	Address *address          `shape:"address"`
	Tags    []string          `shape:"tags"`
	Scores  [2]int32          `shape:"scores"`
	Nick    shape.Option[string] `shape:"nick"`
}

func TestBuildSimpleStruct(t *testing.T) {
	p := New[person]()
	if err := p.BeginField("name"); err != nil {
		t.Fatal(err)
	}
	if err := p.SetScalar("Ada"); err != nil {
		t.Fatal(err)
	}
	if err := p.End(); err != nil {
		t.Fatal(err)
	}

	got, err := BuildTyped[person](p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("expected Name=Ada, got %+v", got)
	}
}

func TestBuildMissingRequiredFails(t *testing.T) {
	p := New[person]()
	if err := p.BeginField("age"); err != nil {
		t.Fatal(err)
	}
	if err := p.SetScalar(int32(5)); err != nil {
		t.Fatal(err)
	}
	if err := p.End(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Build(); err == nil {
		t.Fatal("expected Build to fail on missing required field")
	}
}

func TestBuildNestedPointer(t *testing.T) {
	p := New[person]()
	mustField(t, p, "name")
	mustSet(t, p, "Ada")
	mustEnd(t, p)

	if err := p.BeginField("address"); err != nil {
		t.Fatal(err)
	}
	if err := p.BeginPointee(); err != nil {
		t.Fatal(err)
	}
	mustField(t, p, "city")
	mustSet(t, p, "London")
	mustEnd(t, p)
	mustEnd(t, p) // pointee
	mustEnd(t, p) // address field

	got, err := BuildTyped[person](p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got.Address == nil || got.Address.City != "London" {
		t.Fatalf("expected nested address, got %+v", got)
	}
}

func TestBuildSlicePush(t *testing.T) {
	p := New[person]()
	mustField(t, p, "name")
	mustSet(t, p, "Ada")
	mustEnd(t, p)

	if err := p.BeginField("tags"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.BeginPush(); err != nil {
		t.Fatal(err)
	}
	mustSet(t, p, "admin")
	mustEnd(t, p)
	if _, err := p.BeginPush(); err != nil {
		t.Fatal(err)
	}
	mustSet(t, p, "staff")
	mustEnd(t, p)
	mustEnd(t, p) // tags field

	got, err := BuildTyped[person](p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "admin" || got.Tags[1] != "staff" {
		t.Fatalf("unexpected tags: %+v", got.Tags)
	}
}

func TestBuildArrayRequiresEveryIndex(t *testing.T) {
	p := New[person]()
	mustField(t, p, "name")
	mustSet(t, p, "Ada")
	mustEnd(t, p)

	if err := p.BeginField("scores"); err != nil {
		t.Fatal(err)
	}
	if err := p.BeginIndex(0); err != nil {
		t.Fatal(err)
	}
	mustSet(t, p, int32(10))
	mustEnd(t, p)
	mustEnd(t, p) // scores field, index 1 never set

	if _, err := p.Build(); err == nil {
		t.Fatal("expected Build to fail: array not fully initialized")
	}
}

func TestBuildOptionSome(t *testing.T) {
	p := New[person]()
	mustField(t, p, "name")
	mustSet(t, p, "Ada")
	mustEnd(t, p)

	if err := p.BeginField("nick"); err != nil {
		t.Fatal(err)
	}
	if err := p.BeginSome(); err != nil {
		t.Fatal(err)
	}
	mustSet(t, p, "Ace")
	mustEnd(t, p)
	mustEnd(t, p)

	got, err := BuildTyped[person](p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if v, ok := got.Nick.Get(); !ok || v != "Ace" {
		t.Fatalf("expected Some(Ace), got %+v", got.Nick)
	}
}

func TestDropReleasesPooledBox(t *testing.T) {
	before := pool.Outstanding()

	box := shape.NewBox(42)
	if pool.Outstanding() != before+1 {
		t.Fatalf("expected NewBox to check out a pooled buffer: before=%d now=%d", before, pool.Outstanding())
	}

	p := NewFor(shape.OfType(reflect.TypeOf(box)))
	if err := p.SetScalar(box); err != nil {
		t.Fatal(err)
	}
	p.Drop()

	if pool.Outstanding() != before {
		t.Fatalf("expected pool checkout count to return to baseline %d, got %d", before, pool.Outstanding())
	}
}

func mustField(t *testing.T, p *Partial, name string) {
	t.Helper()
	if err := p.BeginField(name); err != nil {
		t.Fatalf("BeginField(%s): %v", name, err)
	}
}

func mustSet(t *testing.T, p *Partial, v any) {
	t.Helper()
	if err := p.SetScalar(v); err != nil {
		t.Fatalf("SetScalar(%v): %v", v, err)
	}
}

func mustEnd(t *testing.T, p *Partial) {
	t.Helper()
	if err := p.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}
