package wireformat

import (
	"bytes"
	"testing"
)

func TestStreamEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)

	in := []point{
		{X: 1, Y: 2, Z: "a"},
		{X: 3, Y: 4, Z: "b"},
		{X: 5, Y: 6, Z: "c"},
	}
	for _, p := range in {
		if err := Encode(enc, p); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	dec := NewStreamDecoder[point](&buf)
	var got []point
	for {
		v, ok := dec.Next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if err := dec.Err(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if len(got) != len(in) {
		t.Fatalf("got %d values, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("value %d mismatch: got %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestStreamDecodeEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	dec := NewStreamDecoder[point](&buf)
	if _, ok := dec.Next(); ok {
		t.Fatal("expected no values from an empty stream")
	}
	if err := dec.Err(); err != nil {
		t.Fatalf("unexpected error on empty stream: %v", err)
	}
}

func TestStreamEncodeDecodeSingleValue(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	in := point{X: 42, Y: -1, Z: "solo"}
	if err := Encode(enc, in); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	dec := NewStreamDecoder[point](&buf)
	got, ok := dec.Next()
	if !ok {
		t.Fatalf("expected a value, got none (err: %v)", dec.Err())
	}
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}
	if _, ok := dec.Next(); ok {
		t.Fatal("expected stream exhausted after one value")
	}
}
