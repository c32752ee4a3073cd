package plum

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// memoryPerRow is the number of bytes shown on one dump row.
const memoryPerRow = 8

// Record is one node of a pack or unpack dump. A nil *Record records
// nothing; every method is safe to call on nil.
type Record struct {
	Offset   int
	Access   string
	Value    string
	Memory   []byte
	Type     string
	Children []*Record

	hasMemory bool
}

// NewRecord returns an empty root record.
func NewRecord() *Record {
	return &Record{}
}

// Add appends a child for access (a member name or "[i]").
func (r *Record) Add(access string) *Record {
	if r == nil {
		return nil
	}
	child := &Record{Access: access}
	r.Children = append(r.Children, child)
	return child
}

// HasMemory reports whether the node consumed or produced bytes itself.
func (r *Record) HasMemory() bool {
	return r != nil && r.hasMemory
}

func (r *Record) setType(name string) {
	if r != nil {
		r.Type = name
	}
}

func (r *Record) setValue(v Value) {
	if r != nil && v != nil {
		r.Value = v.String()
	}
}

func (r *Record) setText(s string) {
	if r != nil {
		r.Value = s
	}
}

func (r *Record) setMemory(offset int, b []byte) {
	if r == nil {
		return
	}
	r.Offset = offset
	r.Memory = append([]byte(nil), b...)
	r.hasMemory = true
}

func (r *Record) empty() bool {
	return r == nil || (r.Type == "" && len(r.Children) == 0 && !r.hasMemory)
}

// Row is one rendered line of the dump table.
type Row struct {
	Offset string
	Access string
	Value  string
	Memory string
	Type   string
}

// Rows flattens the record tree depth first. Access paths are indented two
// spaces per level and memory wider than eight bytes continues on extra rows.
func (r *Record) Rows() []Row {
	if r == nil {
		return nil
	}
	var rows []Row
	r.appendRows(&rows, -1)
	return rows
}

func (r *Record) appendRows(rows *[]Row, depth int) {
	access := r.Access
	if depth > 0 {
		access = strings.Repeat("  ", depth) + access
	}
	row := Row{Access: access, Value: r.Value, Type: r.Type}
	if !r.hasMemory {
		*rows = append(*rows, row)
	} else {
		mem := r.Memory
		off := r.Offset
		for first := true; first || len(mem) > 0; first = false {
			n := min(len(mem), memoryPerRow)
			row.Offset = strconv.Itoa(off)
			row.Memory = spacedHex(mem[:n])
			*rows = append(*rows, row)
			row = Row{}
			mem = mem[n:]
			off += n
		}
	}
	for _, child := range r.Children {
		child.appendRows(rows, depth+1)
	}
}

// String renders the dump as a table.
func (r *Record) String() string {
	rows := r.Rows()
	header := Row{Offset: "Offset", Access: "Access", Value: "Value", Memory: "Memory", Type: "Type"}
	widths := [5]int{}
	measure := func(row Row) {
		for i, cell := range row.cells() {
			widths[i] = max(widths[i], len(cell))
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	var b strings.Builder
	sep := func() {
		b.WriteByte('+')
		for _, w := range widths {
			b.WriteString(strings.Repeat("-", w+2))
			b.WriteByte('+')
		}
		b.WriteByte('\n')
	}
	line := func(row Row) {
		b.WriteByte('|')
		for i, cell := range row.cells() {
			b.WriteByte(' ')
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-len(cell)+1))
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
	sep()
	line(header)
	sep()
	for _, row := range rows {
		line(row)
	}
	sep()
	return strings.TrimSuffix(b.String(), "\n")
}

func (row Row) cells() [5]string {
	return [5]string{row.Offset, row.Access, row.Value, row.Memory, row.Type}
}

func spacedHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	s := hex.EncodeToString(b)
	var out strings.Builder
	out.Grow(len(s) + len(b))
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(s[i : i+2])
	}
	return out.String()
}
