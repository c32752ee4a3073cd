package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// PrettyHandler writes one colored line per record for terminal use.
// String attributes spanning several lines, such as layout dumps, are
// printed below the line as an indented block.
type PrettyHandler struct {
	opts  slog.HandlerOptions
	w     io.Writer
	mu    *sync.Mutex
	color bool
	group string
	attrs []scoped
}

// scoped remembers the group that was open when an attribute was bound.
type scoped struct {
	group string
	attr  slog.Attr
}

// NewPrettyHandler enables color only when w is a terminal.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts:  *opts,
		w:     w,
		mu:    &sync.Mutex{},
		color: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}
	return level >= floor
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = h.paint(buf, colorGray, "["+r.Time.Format(time.TimeOnly)+"]")
	buf = append(buf, ' ')
	buf = h.paint(buf, levelColor(r.Level)+colorBold, fmt.Sprintf("%-5s", r.Level.String()))
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	attrs := make([]scoped, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, scoped{group: h.group, attr: a})
		return true
	})

	var blocks []scoped
	var inline []byte
	for _, sa := range attrs {
		a := sa.attr
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}
		if a.Value.Kind() == slog.KindString && strings.Contains(a.Value.String(), "\n") {
			blocks = append(blocks, scoped{group: sa.group, attr: a})
			continue
		}
		inline = append(inline, ' ')
		inline = appendAttr(inline, a, sa.group)
	}
	if len(inline) > 0 {
		buf = h.paint(buf, colorCyan, string(inline))
	}
	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			buf = append(buf, ' ')
			buf = h.paint(buf, colorGray, fmt.Sprintf("(%s:%d)", shortFile(src.File), src.Line))
		}
	}
	buf = append(buf, '\n')

	for _, b := range blocks {
		buf = append(buf, "  "...)
		buf = h.paint(buf, colorCyan, qualify(b.attr.Key, b.group)+":")
		buf = append(buf, '\n')
		for line := range strings.SplitSeq(strings.TrimRight(b.attr.Value.String(), "\n"), "\n") {
			buf = append(buf, "    "...)
			buf = append(buf, line...)
			buf = append(buf, '\n')
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = make([]scoped, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, scoped{group: h.group, attr: a})
	}
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = qualify(name, h.group)
	return &next
}

func (h *PrettyHandler) paint(buf []byte, color, s string) []byte {
	if !h.color {
		return append(buf, s...)
	}
	buf = append(buf, color...)
	buf = append(buf, s...)
	return append(buf, colorReset...)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorBlue
	default:
		return colorGray
	}
}

func qualify(key, group string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func shortFile(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		if j := strings.LastIndexByte(path[:i], '/'); j >= 0 {
			return path[j+1:]
		}
	}
	return path
}

func appendAttr(buf []byte, a slog.Attr, group string) []byte {
	key := qualify(a.Key, group)
	switch a.Value.Kind() {
	case slog.KindGroup:
		for i, sub := range a.Value.Group() {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, sub, key)
		}
		return buf
	case slog.KindString:
		buf = append(buf, key...)
		buf = append(buf, '=')
		s := a.Value.String()
		if needsQuoting(s) {
			return fmt.Appendf(buf, "%q", s)
		}
		return append(buf, s...)
	case slog.KindTime:
		buf = append(buf, key...)
		buf = append(buf, '=')
		return a.Value.Time().AppendFormat(buf, time.RFC3339)
	default:
		buf = append(buf, key...)
		buf = append(buf, '=')
		return fmt.Append(buf, a.Value.Any())
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, " \t\n\"=")
}
