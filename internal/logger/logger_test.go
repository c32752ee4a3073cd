package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupFormats(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	log, err := Setup(&jsonBuf, Options{Format: "JSON", Level: "info"})
	if err != nil {
		t.Fatalf("setup json: %v", err)
	}
	log.Info("unpacked", "layout", "mcf.header")
	if !strings.Contains(jsonBuf.String(), `"layout":"mcf.header"`) {
		t.Fatalf("json output: %s", jsonBuf.String())
	}

	var textBuf bytes.Buffer
	log, err = Setup(&textBuf, Options{Format: "text"})
	if err != nil {
		t.Fatalf("setup text: %v", err)
	}
	log.Info("packed", "bytes", 40)
	if !strings.Contains(textBuf.String(), "bytes=40") {
		t.Fatalf("text output: %s", textBuf.String())
	}

	if _, err := Setup(&textBuf, Options{Format: "xml"}); err == nil {
		t.Fatalf("unknown format should fail")
	}
	if _, err := Setup(&textBuf, Options{Level: "loud"}); err == nil {
		t.Fatalf("unknown level should fail")
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := Setup(&buf, Options{Format: FormatJSON, Level: "warn"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.Info("hidden")
	log.Debug("hidden too")
	if buf.Len() > 0 {
		t.Fatalf("info and debug should be dropped at warn: %s", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn missing: %s", buf.String())
	}
}

func TestWithAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(slog.NewJSONHandler(&buf, nil))
	log.With("component", "api").WithGroup("req").Info("served", "status", 200)
	out := buf.String()
	if !strings.Contains(out, `"component":"api"`) || !strings.Contains(out, `"req":{"status":200}`) {
		t.Fatalf("output: %s", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without a logger returned nil")
	}
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), New(slog.NewJSONHandler(&buf, nil)))
	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("output: %s", buf.String())
	}
	Discard().Error("nowhere")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
		fails bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{" Info ", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if (err != nil) != tc.fails {
			t.Errorf("ParseLevel(%q): err=%v, want failure=%v", tc.input, err, tc.fails)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q): got %v want %v", tc.input, got, tc.want)
		}
	}
}

func TestPrettyInline(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	slog.New(h).Info("unpacked", "layout", "wav.header", "note", "two words", "size", 44)
	out := buf.String()
	for _, want := range []string{"unpacked", "layout=wav.header", `note="two words"`, "size=44"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("buffer is not a terminal, output should be uncolored: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("want a single line: %q", out)
	}
}

func TestPrettyBlockAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(NewPrettyHandler(&buf, nil))
	log.Warn("unpack failed", "layout", "png.ihdr", "dump", "+---+\n| x |\n+---+")
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{"  dump:", "    +---+", "    | x |", "    +---+"}
	if len(lines) != 1+len(want) {
		t.Fatalf("lines: %q", lines)
	}
	if !strings.Contains(lines[0], "layout=png.ihdr") || strings.Contains(lines[0], "dump=") {
		t.Fatalf("first line: %q", lines[0])
	}
	for i, w := range want {
		if lines[i+1] != w {
			t.Fatalf("line %d: got %q want %q", i+1, lines[i+1], w)
		}
	}
}

func TestPrettyGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	bound := h.WithAttrs([]slog.Attr{slog.String("service", "plum")}).WithGroup("a").WithGroup("b")
	slog.New(bound).Debug("nested", "key", "val")
	out := buf.String()
	if !strings.Contains(out, "service=plum") || !strings.Contains(out, "a.b.key=val") {
		t.Fatalf("output: %q", out)
	}
	if h.WithGroup("") != h {
		t.Fatal("WithGroup with an empty name should return the same handler")
	}
}

func TestPrettyEnabled(t *testing.T) {
	t.Parallel()

	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn")
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]bool{
		"simple":    false,
		"has space": true,
		"k=v":       true,
		`q"uote`:    true,
		"":          true,
	} {
		if got := needsQuoting(input); got != want {
			t.Errorf("needsQuoting(%q): got %v want %v", input, got, want)
		}
	}
}
