package blob

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenMapsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "input.bin")
	want := []byte{1, 2, 3, 4, 5, 6}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	if !bytes.Equal(f.Data, want) {
		t.Fatalf("data mismatch: got %x want %x", f.Data, want)
	}
	w, err := f.Window(2, 3)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if !bytes.Equal(w, []byte{3, 4, 5}) {
		t.Fatalf("window mismatch: got %x", w)
	}
	if _, err := f.Window(4, 5); !errors.Is(err, ErrRange) {
		t.Fatalf("oversized window: got %v, want ErrRange", err)
	}
	tail, err := f.Window(6, -1)
	if err != nil || len(tail) != 0 {
		t.Fatalf("tail at end: got %x, %v", tail, err)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.Mapped() || len(f.Data) != 0 {
		t.Fatalf("empty file: mapped=%v len=%d", f.Mapped(), len(f.Data))
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: got %v", err)
	}
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatalf("directory should not open")
	}
}

func TestReadLimited(t *testing.T) {
	t.Parallel()

	got, err := ReadLimited(strings.NewReader("abcd"), 4)
	if err != nil || string(got) != "abcd" {
		t.Fatalf("at limit: got %q, %v", got, err)
	}
	if _, err := ReadLimited(strings.NewReader("abcde"), 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("over limit: got %v, want ErrTooLarge", err)
	}
	got, err = ReadLimited(strings.NewReader("abcde"), 0)
	if err != nil || len(got) != 5 {
		t.Fatalf("unlimited: got %q, %v", got, err)
	}
}

func TestReadAllAt(t *testing.T) {
	t.Parallel()

	got, err := readAllAt(bytes.NewReader([]byte("hello")), 5)
	if err != nil || string(got) != "hello" {
		t.Fatalf("readAllAt: got %q, %v", got, err)
	}
	if _, err := readAllAt(bytes.NewReader([]byte("hi")), 5); err == nil {
		t.Fatalf("short reader should fail")
	}
}
