package catalog

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samcharles93/plum/pkg/plum"
)

func TestBuiltinSizes(t *testing.T) {
	t.Parallel()

	c := Builtin()
	fixed := map[string]int{
		"mcf.header":       40,
		"mcf.section":      24,
		"mcf.tensor_index": 48,
		"mcf.tensor_entry": 40,
		"gguf.header":      24,
		"wav.header":       44,
		"png.head":         33,
	}
	for name, want := range fixed {
		l, err := c.Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if got, ok := l.Size(); !ok || got != want {
			t.Fatalf("%s size: got %d,%v want %d", name, got, ok, want)
		}
	}
	for _, name := range []string{"gguf.kv", "gguf.metadata", "safetensors.prefix", "png.chunk"} {
		l, err := c.Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if _, ok := l.Size(); ok {
			t.Fatalf("%s should be variable size", name)
		}
	}
}

func TestCatalogRegistry(t *testing.T) {
	t.Parallel()

	c := Builtin()
	names := make([]string, 0)
	for _, l := range c.All() {
		if l.Description == "" {
			t.Fatalf("%s has no description", l.Name)
		}
		names = append(names, l.Name)
	}
	if !slices.IsSorted(names) {
		t.Fatalf("All should be sorted: %v", names)
	}
	if _, err := c.Lookup("elf.header"); !errors.Is(err, ErrUnknownLayout) {
		t.Fatalf("unknown layout: got %v", err)
	}
	if err := c.Register(Layout{Name: "mcf.header", Type: plum.UInt8}); !errors.Is(err, ErrDuplicateLayout) {
		t.Fatalf("duplicate: got %v", err)
	}
	if err := c.Register(Layout{Name: " "}); err == nil {
		t.Fatalf("blank layout should be rejected")
	}
	if err := c.Register(Layout{Name: "u8", Description: "byte", Type: plum.UInt8}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if l, err := c.Lookup("u8"); err != nil || l.Type != plum.UInt8 {
		t.Fatalf("lookup registered: %v, %v", l, err)
	}
	if _, err := Builtin().Lookup("u8"); err == nil {
		t.Fatalf("Builtin should return an independent catalog")
	}
}

func TestMCFHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	got, err := plum.Pack(MCFHeader, map[string]any{
		"section_count":      4,
		"section_dir_offset": 40,
		"file_size":          4096,
		"flags":              "TENSOR_DATA_ALIGNED64",
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := []byte("MCF\x00")
	want = binary.LittleEndian.AppendUint16(want, 1)
	want = binary.LittleEndian.AppendUint16(want, 0)
	want = binary.LittleEndian.AppendUint32(want, 40)
	want = binary.LittleEndian.AppendUint32(want, 4)
	want = binary.LittleEndian.AppendUint64(want, 40)
	want = binary.LittleEndian.AppendUint64(want, 4096)
	want = binary.LittleEndian.AppendUint64(want, 1)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}

	v, err := plum.Unpack(MCFHeader, got)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	s := v.(*plum.Struct)
	magic, _ := plum.As[plum.Text](s, "magic")
	if magic.Value() != "MCF" {
		t.Fatalf("magic: got %v", magic)
	}
	flags, err := plum.As[plum.Flag](s, "flags")
	if err != nil || !flags.Has("TENSOR_DATA_ALIGNED64") {
		t.Fatalf("flags: got %v, %v", flags, err)
	}

	sec := binary.LittleEndian.AppendUint32(nil, 3)
	sec = binary.LittleEndian.AppendUint32(sec, 1)
	sec = binary.LittleEndian.AppendUint64(sec, 128)
	sec = binary.LittleEndian.AppendUint64(sec, 64)
	sv, err := plum.Unpack(MCFSection, sec)
	if err != nil {
		t.Fatalf("unpack section: %v", err)
	}
	typ, _ := plum.As[plum.Enum](sv.(*plum.Struct), "type")
	if typ.Name() != "TENSOR_INDEX" {
		t.Fatalf("section type: got %v", typ)
	}
}

func ggufString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(len(s)))
	return append(b, s...)
}

func sampleGGUF() []byte {
	b := []byte("GGUF")
	b = binary.LittleEndian.AppendUint32(b, 3)
	b = binary.LittleEndian.AppendUint64(b, 1) // tensors
	b = binary.LittleEndian.AppendUint64(b, 2) // kv pairs

	b = ggufString(b, "general.name")
	b = binary.LittleEndian.AppendUint32(b, 8)
	b = ggufString(b, "toy!")

	b = ggufString(b, "llama.dims")
	b = binary.LittleEndian.AppendUint32(b, 9)
	b = binary.LittleEndian.AppendUint32(b, 4)
	b = binary.LittleEndian.AppendUint64(b, 2)
	b = binary.LittleEndian.AppendUint32(b, 7)
	b = binary.LittleEndian.AppendUint32(b, 9)

	b = ggufString(b, "w")
	b = binary.LittleEndian.AppendUint32(b, 2)
	b = binary.LittleEndian.AppendUint64(b, 3)
	b = binary.LittleEndian.AppendUint64(b, 4)
	b = binary.LittleEndian.AppendUint32(b, 1)
	b = binary.LittleEndian.AppendUint64(b, 0)
	return b
}

func TestGGUFMetadata(t *testing.T) {
	t.Parallel()

	meta := sampleGGUF()
	buf := append(slices.Clone(meta), 0, 0, 0, 0) // alignment padding
	v, n, err := plum.UnpackFrom(GGUFMetadata, buf, 0)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if n != len(meta) {
		t.Fatalf("consumed %d want %d", n, len(meta))
	}

	s := v.(*plum.Struct)
	kv, err := plum.As[*plum.Array](s, "kv")
	if err != nil || kv.Len() != 2 {
		t.Fatalf("kv: %v, %v", kv, err)
	}
	name, _ := plum.As[*plum.Struct](kv.At(0).(*plum.Struct), "value")
	text, _ := plum.As[plum.Text](name, "text")
	if text.Value() != "toy!" {
		t.Fatalf("general.name: got %v", name)
	}

	arr, _ := plum.As[*plum.Struct](kv.At(1).(*plum.Struct), "value")
	body, _ := plum.As[*plum.Struct](arr, "body")
	items, _ := plum.As[*plum.Array](body, "items")
	if diff := cmp.Diff([]any{uint64(7), uint64(9)}, items.Native()); diff != "" {
		t.Fatalf("array items (-want +got):\n%s", diff)
	}

	tensors, _ := plum.As[*plum.Array](s, "tensors")
	tensor := tensors.At(0).(*plum.Struct)
	dims, _ := plum.As[*plum.Array](tensor, "dims")
	typ, _ := plum.As[plum.Enum](tensor, "type")
	if diff := cmp.Diff([]int{2}, dims.Shape()); diff != "" || typ.Name() != "F16" {
		t.Fatalf("tensor: %v", tensor)
	}

	repacked, err := plum.Pack(GGUFMetadata, v)
	if err != nil {
		t.Fatalf("repack: %v", err)
	}
	if diff := cmp.Diff(meta, repacked); diff != "" {
		t.Fatalf("repack mismatch (-want +got):\n%s", diff)
	}
}

func TestGGUFKVFromMap(t *testing.T) {
	t.Parallel()

	got, err := plum.Pack(GGUFKV, map[string]any{
		"key":   map[string]any{"text": "a"},
		"type":  "UINT16",
		"value": 513,
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := ggufString(nil, "a")
	want = binary.LittleEndian.AppendUint32(want, 2)
	want = append(want, 0x01, 0x02)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pack mismatch (-want +got):\n%s", diff)
	}

	bad := ggufString(nil, "a")
	bad = binary.LittleEndian.AppendUint32(bad, 77)
	if _, err := plum.Unpack(GGUFKV, bad); !errors.Is(err, plum.ErrUnknownValue) {
		t.Fatalf("unknown value type: got %v", err)
	}
}

func TestSafetensorsPrefix(t *testing.T) {
	t.Parallel()

	header := `{"w":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, 0, 0, 0x80, 0x3f)

	v, n, err := plum.UnpackFrom(SafetensorsPrefix, buf, 0)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if n != 8+len(header) {
		t.Fatalf("consumed %d", n)
	}
	text, _ := plum.As[plum.Text](v.(*plum.Struct), "header")
	if text.Value() != header {
		t.Fatalf("header: got %v", text)
	}
}

func TestWAVHeader(t *testing.T) {
	t.Parallel()

	got, err := plum.Pack(WAVHeader, map[string]any{
		"chunk_size":      36,
		"channels":        2,
		"sample_rate":     44100,
		"byte_rate":       176400,
		"block_align":     4,
		"bits_per_sample": 16,
		"data_size":       0,
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(got) != 44 || string(got[:4]) != "RIFF" || string(got[8:16]) != "WAVEfmt " || string(got[36:40]) != "data" {
		t.Fatalf("header: %q", got)
	}
	if got[20] != 1 || got[21] != 0 {
		t.Fatalf("audio format should default to PCM: % x", got[20:22])
	}
	if _, err := plum.Unpack(WAVHeader, got[:43]); !errors.Is(err, plum.ErrInsufficientMemory) {
		t.Fatalf("truncated: got %v", err)
	}
}

func TestPNGHead(t *testing.T) {
	t.Parallel()

	v, err := PNGHead.New(map[string]any{"width": 1, "height": 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	buf, err := plum.Pack(PNGHead, v)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	crc := ChunkCRC("IHDR", buf[16:29])
	buf = binary.BigEndian.AppendUint32(buf[:29], crc)

	back, err := plum.Unpack(PNGHead, buf)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !back.Equal(v) {
		t.Fatalf("crc is ignored, values should match: %v vs %v", back, v)
	}
	s := back.(*plum.Struct)
	color, _ := plum.As[plum.Enum](s, "color_type")
	stored, _ := plum.As[plum.Int](s, "crc")
	if color.Name() != "RGBA" || uint32(stored.Uint64()) != crc {
		t.Fatalf("head: %v", s)
	}

	chunk, err := plum.Pack(PNGChunk, map[string]any{"type": "IEND", "data": []byte{}, "crc": ChunkCRC("IEND", nil)})
	if err != nil {
		t.Fatalf("pack chunk: %v", err)
	}
	want := []byte{0, 0, 0, 0, 'I', 'E', 'N', 'D', 0xae, 0x42, 0x60, 0x82}
	if diff := cmp.Diff(want, chunk); diff != "" {
		t.Fatalf("IEND chunk (-want +got):\n%s", diff)
	}
}
