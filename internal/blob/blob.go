// Package blob loads the byte buffers that layouts are unpacked from.
package blob

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

var (
	ErrTooLarge = errors.New("blob: input exceeds size limit")
	ErrRange    = errors.New("blob: window outside file")
)

// File is the read-only contents of an input file. Data is memory mapped
// when the platform allows it and copied into memory otherwise.
type File struct {
	Path string
	Data []byte

	mapped bool
}

// Open loads path. Empty files are never mapped.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("blob: %s is a directory", path)
	}
	size64 := st.Size()
	if size64 < 0 || size64 > math.MaxInt {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, size64)
	}
	size := int(size64)
	if size == 0 {
		return &File{Path: path, Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Path: path, Data: data, mapped: true}, nil
	}

	// Pipes, some FUSE mounts and special files refuse mmap.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", path, err)
	}
	return &File{Path: path, Data: data}, nil
}

// Mapped reports whether Data is backed by a memory mapping.
func (f *File) Mapped() bool { return f != nil && f.mapped }

// Window returns length bytes at offset; a negative length means up to the
// end of the file.
func (f *File) Window(offset, length int) ([]byte, error) {
	if offset < 0 || offset > len(f.Data) {
		return nil, fmt.Errorf("%w: offset %d of %d bytes", ErrRange, offset, len(f.Data))
	}
	if length < 0 {
		return f.Data[offset:], nil
	}
	if length > len(f.Data)-offset {
		return nil, fmt.Errorf("%w: %d bytes at %d of %d", ErrRange, length, offset, len(f.Data))
	}
	return f.Data[offset : offset+length], nil
}

// Close releases the mapping. Data must not be used afterwards.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.mapped = false
	return err
}

// ReadLimited reads r to the end, failing once more than limit bytes have
// arrived. A limit of zero or less means no limit.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}
