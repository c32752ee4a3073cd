package plum

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArrayGreedy(t *testing.T) {
	t.Parallel()

	u16s := MustArray(ArrayConfig{Name: "U16s", Elem: UInt16})
	v, err := Unpack(u16s, []byte{1, 0, 2, 0})
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if diff := cmp.Diff([]any{uint64(1), uint64(2)}, v.Native()); diff != "" {
		t.Fatalf("unpack mismatch (-want +got):\n%s", diff)
	}

	_, err = Unpack(u16s, []byte{1, 0, 2})
	var ime *InsufficientMemoryError
	if !errors.As(err, &ime) || ime.Shortage != 1 {
		t.Fatalf("trailing half item: got %v", err)
	}
	if _, ok := CalcSize(u16s); ok {
		t.Fatalf("greedy array should have no declared size")
	}
}

func TestArrayFixedShape(t *testing.T) {
	t.Parallel()

	matrix := MustArray(ArrayConfig{Name: "Matrix", Elem: UInt8, Dims: []int{2, 3}})
	if n, ok := CalcSize(matrix); !ok || n != 6 {
		t.Fatalf("calcsize: got %d,%v want 6,true", n, ok)
	}
	got, err := Pack(matrix, [][]int{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if diff := cmp.Diff([]byte{1, 2, 3, 4, 5, 6}, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
	v, err := Unpack(matrix, got)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3}, v.(*Array).Shape()); diff != "" {
		t.Fatalf("shape (-want +got):\n%s", diff)
	}

	if _, err := matrix.New([][]int{{1, 2, 3}}); !errors.Is(err, ErrWrongLength) {
		t.Fatalf("missing row: got %v, want ErrWrongLength", err)
	}
	if _, err := Pack(matrix, [][]int{{1, 2, 3}, {4, 5}}); !errors.Is(err, ErrPack) {
		t.Fatalf("short row: got %v, want ErrPack", err)
	}
	_, err = Unpack(matrix, []byte{1, 2, 3, 4})
	if !errors.As(err, new(*InsufficientMemoryError)) {
		t.Fatalf("truncated matrix: got %v", err)
	}
}

func TestDimsTouchup(t *testing.T) {
	t.Parallel()

	blob := MustStruct("Blob",
		Dims("count", UInt8, "data"),
		Field("data", ByteArray),
		Field("tail", UInt8, Default(0xff)),
	)
	if _, ok := CalcSize(blob); ok {
		t.Fatalf("dims-sized structure should have no declared size")
	}

	v, err := blob.New(map[string]any{"data": []byte{1, 2, 3, 4, 5}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s := v.(*Struct)
	count, _ := As[Int](s, "count")
	if count.Int64() != 5 {
		t.Fatalf("count: got %v want 5", count)
	}

	got, err := Pack(blob, s)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := []byte{5, 1, 2, 3, 4, 5, 0xff}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
	back, err := Unpack(blob, got)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !back.Equal(s) {
		t.Fatalf("round trip: got %v want %v", back, s)
	}

	// Touchup runs once; later edits leave count stale.
	if err := s.Set("data", []byte{9}); err != nil {
		t.Fatalf("set: %v", err)
	}
	count, _ = As[Int](s, "count")
	if count.Int64() != 5 {
		t.Fatalf("count recomputed after construction: got %v", count)
	}
	_, err = Pack(blob, s)
	if !errors.Is(err, ErrPack) || !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("stale dims: got %v, want PackError wrapping ErrShapeMismatch", err)
	}

	empty, err := blob.New(nil)
	if err != nil {
		t.Fatalf("new empty: %v", err)
	}
	count, _ = As[Int](empty.(*Struct), "count")
	if count.Int64() != 0 {
		t.Fatalf("empty count: got %v", count)
	}
}

func TestDimsShape(t *testing.T) {
	t.Parallel()

	grid := MustStruct("Grid",
		Dims("shape", MustSeq("Shape", UInt8, UInt8), "cells"),
		Field("cells", MustArray(ArrayConfig{Name: "Cells", Elem: UInt8, Dims: []int{Unsized, Unsized}})),
	)
	v, err := grid.New(map[string]any{"cells": [][]int{{1, 2}, {3, 4}, {5, 6}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := Pack(grid, v)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if diff := cmp.Diff([]byte{3, 2, 1, 2, 3, 4, 5, 6}, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
	back, err := Unpack(grid, got)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !back.Equal(v) {
		t.Fatalf("round trip: got %v want %v", back, v)
	}

	_, err = NewStruct("BadRank",
		Dims("n", UInt8, "cells"),
		Field("cells", MustArray(ArrayConfig{Name: "Cells", Elem: UInt8, Dims: []int{Unsized, Unsized}})),
	)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("rank mismatch: got %v, want ErrInvalidConfig", err)
	}
	_, err = NewStruct("AfterArray",
		Field("data", ByteArray),
		Dims("n", UInt8, "data"),
	)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("dims after array: got %v, want ErrInvalidConfig", err)
	}
}

func TestDimsSizedText(t *testing.T) {
	t.Parallel()

	label := MustStruct("Label",
		Dims("len", UInt16, "text"),
		Field("text", Str),
		Field("kind", UInt8),
	)
	got, err := Pack(label, map[string]any{"text": "héllo", "kind": 4})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := append([]byte{6, 0}, append([]byte("héllo"), 4)...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
	v, err := Unpack(label, got)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	text, _ := As[Text](v.(*Struct), "text")
	if text.Value() != "héllo" {
		t.Fatalf("text: got %v", text)
	}
}

func TestSwitchMember(t *testing.T) {
	t.Parallel()

	tagged := MustStruct("Tagged",
		Field("kind", UInt8),
		Switch("value", "kind", map[any]Type{1: UInt32, 2: Float32}),
	)
	if _, ok := CalcSize(tagged); ok {
		t.Fatalf("switch structure should have no declared size")
	}

	v, err := Unpack(tagged, []byte{2, 0, 0, 0xc0, 0x3f})
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	f, err := As[Float](v.(*Struct), "value")
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if f.Float64() != 1.5 {
		t.Fatalf("value: got %v want 1.5", f)
	}

	_, err = Unpack(tagged, []byte{9, 0, 0, 0, 0})
	if !errors.Is(err, ErrUnpack) || !errors.Is(err, ErrUnmapped) {
		t.Fatalf("unmapped: got %v, want UnpackError wrapping ErrUnmapped", err)
	}

	got, err := Pack(tagged, map[string]any{"kind": 1, "value": 7})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if diff := cmp.Diff([]byte{1, 7, 0, 0, 0}, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
	if _, err := tagged.New(map[string]any{"kind": 9, "value": 1}); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("construct unmapped: got %v", err)
	}

	s, _ := tagged.New(map[string]any{"kind": 2, "value": 1})
	if _, err := As[Float](s.(*Struct), "value"); err != nil {
		t.Fatalf("touchup should coerce to Float32: %v", err)
	}

	_, err = NewStruct("Backwards",
		Switch("value", "kind", map[any]Type{1: UInt8}),
		Field("kind", UInt8),
	)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("discriminator after switch: got %v", err)
	}
}

func TestSwitchStaleAfterSet(t *testing.T) {
	t.Parallel()

	tagged := MustStruct("Tagged",
		Field("tag", UInt8),
		Switch("value", "tag", map[any]Type{1: UInt8, 2: Float32}),
	)
	v, err := tagged.New(map[string]any{"tag": 1, "value": 7})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s := v.(*Struct)
	if err := s.Set("tag", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, err = Pack(tagged, s)
	if !errors.Is(err, ErrPack) || !errors.Is(err, ErrSwitchMismatch) {
		t.Fatalf("stale switch: got %v, want PackError wrapping ErrSwitchMismatch", err)
	}

	if err := s.Set("tag", 9); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := Pack(tagged, s); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("unmapped discriminator: got %v, want ErrUnmapped", err)
	}

	if err := s.Set("tag", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("value", 1.5); err != nil {
		t.Fatalf("set value: %v", err)
	}
	got, err := Pack(tagged, s)
	if err != nil {
		t.Fatalf("pack after fixing value: %v", err)
	}
	if diff := cmp.Diff([]byte{2, 0, 0, 0xc0, 0x3f}, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
}

func TestSwitchOnEnumName(t *testing.T) {
	t.Parallel()

	payload := MustStruct("Payload",
		Field("color", color),
		Switch("body", "color", map[any]Type{"RED": UInt8, 2: UInt16}),
	)
	v, err := Unpack(payload, []byte{1, 5})
	if err != nil {
		t.Fatalf("unpack by name: %v", err)
	}
	body, _ := As[Int](v.(*Struct), "body")
	if body.Type() != UInt8 || body.Int64() != 5 {
		t.Fatalf("body: got %v of %s", body, body.Type().Name())
	}
	v, err = Unpack(payload, []byte{2, 1, 1})
	if err != nil {
		t.Fatalf("unpack by value: %v", err)
	}
	body, _ = As[Int](v.(*Struct), "body")
	if body.Int64() != 0x0101 {
		t.Fatalf("body: got %v", body)
	}
}

func TestDimsCountBeyondBuffer(t *testing.T) {
	t.Parallel()

	counted := MustStruct("Counted",
		Dims("n", UInt64, "items"),
		Field("items", MustArray(ArrayConfig{Name: "U32s", Elem: UInt32})),
	)
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f, 1, 0, 0, 0}
	_, err := Unpack(counted, buf)
	var ime *InsufficientMemoryError
	if !errors.As(err, &ime) {
		t.Fatalf("huge count: got %v, want InsufficientMemoryError", err)
	}
	if ime.Available != 4 {
		t.Fatalf("available: got %d want 4", ime.Available)
	}
}

func TestArrayRejectsGreedyElements(t *testing.T) {
	t.Parallel()

	for _, elem := range []Type{
		ByteArray,
		Str,
		MustArray(ArrayConfig{Name: "Rest", Elem: UInt8}),
		MustSeq("Tail", UInt8, ByteArray),
		MustStruct("Open", Field("kind", UInt8), Field("rest", ByteArray)),
		MustStruct("Either",
			Field("kind", UInt8),
			Switch("body", "kind", map[any]Type{1: UInt8, 2: ByteArray}),
		),
	} {
		for _, dims := range [][]int{nil, {2}} {
			_, err := NewArray(ArrayConfig{Name: "Items", Elem: elem, Dims: dims})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("array of %s dims %v: got %v, want ErrInvalidConfig", elem.Name(), dims, err)
			}
		}
	}
}

func TestArrayOfCountedItems(t *testing.T) {
	t.Parallel()

	word := MustStruct("Word",
		Dims("len", UInt8, "text"),
		Field("text", Str),
	)
	words := MustStruct("Words",
		Dims("count", UInt32, "items"),
		Field("items", MustArray(ArrayConfig{Name: "WordList", Elem: word})),
	)
	v, err := words.New(map[string]any{"items": []any{
		map[string]any{"text": "ab"},
		map[string]any{"text": "cd"},
	}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := Pack(words, v)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := []byte{2, 0, 0, 0, 2, 'a', 'b', 2, 'c', 'd'}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}
	back, err := Unpack(words, got)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !back.Equal(v) {
		t.Fatalf("round trip: got %v want %v", back, v)
	}
}

// hollowType is a variable-size type that consumes nothing.
type hollowType struct{}

func (hollowType) Name() string { return "Hollow" }
func (hollowType) Size() int    { return Variable }

func (hollowType) New(any) (Value, error) { return None, nil }

func (hollowType) Unpack(*Cursor, *Record, *Struct) (Value, error) { return None, nil }

func (hollowType) Pack(*bytes.Buffer, any, *Record) error { return nil }

func TestArrayItemWithoutProgress(t *testing.T) {
	t.Parallel()

	counted := MustStruct("Hollows",
		Dims("n", UInt32, "items"),
		Field("items", MustArray(ArrayConfig{Name: "HollowList", Elem: hollowType{}})),
	)
	_, err := Unpack(counted, []byte{0, 0, 0x40, 0, 'x'})
	if !errors.Is(err, ErrUnpack) || !errors.Is(err, ErrNoProgress) {
		t.Fatalf("counted: got %v, want UnpackError wrapping ErrNoProgress", err)
	}

	greedyList := MustArray(ArrayConfig{Name: "HollowRest", Elem: hollowType{}})
	if _, err := Unpack(greedyList, []byte{'x'}); !errors.Is(err, ErrNoProgress) {
		t.Fatalf("greedy: got %v, want ErrNoProgress", err)
	}

	nils := MustArray(ArrayConfig{Name: "ThreeNils", Elem: Nil, Dims: []int{3}})
	v, err := Unpack(nils, []byte{})
	if err != nil {
		t.Fatalf("zero-width items: %v", err)
	}
	items := v.(*Array)
	if items.Len() != 3 {
		t.Fatalf("zero-width items: got %d want 3", items.Len())
	}
}
