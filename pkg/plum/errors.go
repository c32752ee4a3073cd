package plum

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds reported by pack and unpack. Match them with errors.Is.
var (
	ErrInsufficientMemory = errors.New("plum: insufficient memory")
	ErrExcessMemory       = errors.New("plum: excess memory")
	ErrSize               = errors.New("plum: size mismatch")
	ErrPack               = errors.New("plum: pack failed")
	ErrUnpack             = errors.New("plum: unpack failed")
)

// Causes wrapped by PackError, UnpackError and the constructors.
var (
	ErrInvalidConfig  = errors.New("invalid type configuration")
	ErrNotConvertible = errors.New("value not convertible")
	ErrOutOfRange     = errors.New("value out of range")
	ErrWrongLength    = errors.New("wrong number of items")
	ErrNoMember       = errors.New("no such member")
	ErrMissingMember  = errors.New("missing member")
	ErrUnmapped       = errors.New("discriminator has no mapping")
	ErrUnknownValue   = errors.New("value not a member")
	ErrShapeMismatch  = errors.New("dims do not match array shape")
	ErrSwitchMismatch = errors.New("switch value does not match discriminator")
	ErrNoProgress     = errors.New("item consumed no bytes")
)

// InsufficientMemoryError reports a buffer that ended before a type was
// fully unpacked.
type InsufficientMemoryError struct {
	TypeName  string
	Shortage  int
	Need      int
	Available int
	Dump      *Record
}

func (e *InsufficientMemoryError) Error() string {
	return report(fmt.Sprintf("%s: %d too few bytes to unpack %s, %d needed, only %d available",
		ErrInsufficientMemory, e.Shortage, e.TypeName, e.Need, e.Available), e.Dump)
}

func (e *InsufficientMemoryError) Is(target error) bool { return target == ErrInsufficientMemory }

// ExcessMemoryError reports bytes left over after a strict unpack.
type ExcessMemoryError struct {
	TypeName string
	Leftover int
	Dump     *Record
}

func (e *ExcessMemoryError) Error() string {
	return report(fmt.Sprintf("%s: %d unconsumed bytes after unpacking %s",
		ErrExcessMemory, e.Leftover, e.TypeName), e.Dump)
}

func (e *ExcessMemoryError) Is(target error) bool { return target == ErrExcessMemory }

// SizeError reports a byte count that disagrees with a fixed declared size.
type SizeError struct {
	TypeName string
	Expected int
	Got      int
	Dump     *Record
}

func (e *SizeError) Error() string {
	return report(fmt.Sprintf("%s: %s expects %d bytes, got %d",
		ErrSize, e.TypeName, e.Expected, e.Got), e.Dump)
}

func (e *SizeError) Is(target error) bool { return target == ErrSize }

// PackError reports a value that cannot be serialized as the target type.
type PackError struct {
	TypeName string
	Err      error
	Dump     *Record
}

func (e *PackError) Error() string {
	return report(fmt.Sprintf("%s: %s: %v", ErrPack, e.TypeName, e.Err), e.Dump)
}

func (e *PackError) Is(target error) bool { return target == ErrPack }

func (e *PackError) Unwrap() error { return e.Err }

// UnpackError reports a structural violation found while decoding.
type UnpackError struct {
	TypeName string
	Err      error
	Dump     *Record
}

func (e *UnpackError) Error() string {
	return report(fmt.Sprintf("%s: %s: %v", ErrUnpack, e.TypeName, e.Err), e.Dump)
}

func (e *UnpackError) Is(target error) bool { return target == ErrUnpack }

func (e *UnpackError) Unwrap() error { return e.Err }

// report renders the one-line summary followed by the dump table.
func report(summary string, dump *Record) string {
	if dump.empty() {
		return summary
	}
	return summary + "\n\n" + dump.String()
}

// attachDump stores dump on any of the five error kinds.
func attachDump(err error, dump *Record) {
	var (
		ime *InsufficientMemoryError
		eme *ExcessMemoryError
		se  *SizeError
		pe  *PackError
		ue  *UnpackError
	)
	switch {
	case errors.As(err, &ime):
		ime.Dump = dump
	case errors.As(err, &eme):
		eme.Dump = dump
	case errors.As(err, &se):
		se.Dump = dump
	case errors.As(err, &pe):
		pe.Dump = dump
	case errors.As(err, &ue):
		ue.Dump = dump
	}
}

// DumpOf returns the dump carried by err, or nil.
func DumpOf(err error) *Record {
	var (
		ime *InsufficientMemoryError
		eme *ExcessMemoryError
		se  *SizeError
		pe  *PackError
		ue  *UnpackError
	)
	switch {
	case errors.As(err, &ime):
		return ime.Dump
	case errors.As(err, &eme):
		return eme.Dump
	case errors.As(err, &se):
		return se.Dump
	case errors.As(err, &pe):
		return pe.Dump
	case errors.As(err, &ue):
		return ue.Dump
	}
	return nil
}

// Summary is the first line of err's report, without the dump table.
func Summary(err error) string {
	head, _, _ := strings.Cut(err.Error(), "\n\n")
	return head
}

// isKind reports whether err is already one of the five reported kinds.
func isKind(err error) bool {
	return errors.Is(err, ErrInsufficientMemory) || errors.Is(err, ErrExcessMemory) ||
		errors.Is(err, ErrSize) || errors.Is(err, ErrPack) || errors.Is(err, ErrUnpack)
}

func packErr(typeName string, err error) error {
	if isKind(err) {
		return err
	}
	return &PackError{TypeName: typeName, Err: err}
}

func unpackErr(typeName string, err error) error {
	if isKind(err) {
		return err
	}
	return &UnpackError{TypeName: typeName, Err: err}
}
