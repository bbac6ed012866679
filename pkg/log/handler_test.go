package log

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/slogtest"

	"github.com/fatih/color"
)

func TestLogHandler_Default(t *testing.T) {
	var buf bytes.Buffer
	if err := slogtest.TestHandler(NewHandler(&buf, "test", nil), func() []map[string]any {
		return parseLogEntries(t, buf.Bytes())
	}); err != nil {
		t.Error(err)
	}
}

func TestLogHandler_CustomOptions(t *testing.T) {
	var buf bytes.Buffer
	if err := slogtest.TestHandler(NewHandler(&buf, "test", &HandlerOptions{
		Level: slog.LevelInfo,
	}), func() []map[string]any {
		return parseLogEntries(t, buf.Bytes())
	}); err != nil {
		t.Error(err)
	}
}

func TestLogHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "fetcher", &HandlerOptions{
		Level: slog.LevelDebug,
	}))

	logger.With("provider", "local").Error("Failed to fetch resource", "locator", "1.js",
		"err", errors.New("read file 1.js: no such file"))

	line := buf.String()
	for _, want := range []string{
		"level=ERROR",
		"id=fetcher",
		`msg="Failed to fetch resource"`,
		"provider=local",
		"locator=1.js",
		`err="read file 1.js: no such file"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("Handle() line = %q, want %q", line, want)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("Handle() line = %q, want trailing newline", line)
	}
}

func TestLogHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "host", &HandlerOptions{
		Level:        slog.LevelDebug,
		AppendSource: true,
	}))

	logger.WithGroup("script").With("src", "1.js").Debug("Loading script", "element", "a b",
		slog.Group("fetch", "provider", "local"))

	line := buf.String()
	for _, want := range []string{
		"level=DEBUG",
		"id=host",
		"source=",
		"handler_test.go:",
		"script.src=1.js",
		`script.element="a b"`,
		"script.fetch.provider=local",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("Handle() line = %q, want %q", line, want)
		}
	}
	if strings.HasPrefix(line, " ") {
		t.Errorf("Handle() line = %q, want no leading space", line)
	}
}

func TestLogHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "test", &HandlerOptions{
		Level: slog.LevelWarn,
	}))

	logger.Info("ignored")
	logger.Warn("kept")

	if got := buf.String(); strings.Contains(got, "ignored") || !strings.Contains(got, "kept") {
		t.Errorf("Handle() output = %q", got)
	}
}

func TestLogHandler_Color(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "test", &HandlerOptions{
		Level: slog.LevelInfo,
		Color: true,
	}))
	logger.Error("colored")

	if got := buf.String(); !strings.Contains(got, "\x1b[31mERROR") {
		t.Errorf("Handle() output = %q, want colored level", got)
	}
}

func TestSetDebug(t *testing.T) {
	defer ProgramLevel.Set(ProgramLevel.Level())

	SetDebug(true)
	if got := ProgramLevel.Level(); got != slog.LevelDebug {
		t.Errorf("SetDebug(true) level = %v, want %v", got, slog.LevelDebug)
	}
	SetDebug(false)
	if got := ProgramLevel.Level(); got != slog.LevelInfo {
		t.Errorf("SetDebug(false) level = %v, want %v", got, slog.LevelInfo)
	}
}

func TestNew(t *testing.T) {
	defer func(w io.Writer) { Output = w }(Output)

	var buf bytes.Buffer
	Output = &buf

	New("test").Info("Message", "key", "value")
	if got := buf.String(); !strings.Contains(got, "id=test msg=Message key=value") {
		t.Errorf("New() output = %q", got)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("New() output colored for a non terminal writer")
	}
}

func parseLogEntries(t *testing.T, data []byte) []map[string]any {
	ms := []map[string]any{}
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		for _, field := range splitFields(line) {
			key, value, found := bytes.Cut(field, []byte{'='})
			if !found || len(key) == 0 || len(value) == 0 {
				t.Fatal(fmt.Errorf("failed to parse field '%s' for line '%s'", string(field), string(line)))
			}
			keyItems := bytes.Split(key, []byte{'.'})

			switch i := len(keyItems); {
			case i == 2:
				group := string(keyItems[0])
				if m[group] == nil {
					m[group] = map[string]any{}
				}
				m[group].(map[string]any)[string(keyItems[len(keyItems)-1])] = string(bytes.Trim(value, "\""))
			case i > 2:
				groups := keyItems[:len(keyItems)-1]
				var mg map[string]any = m
				for _, g := range groups {
					group := string(g)
					if mg[group] == nil {
						mg[group] = map[string]any{}
					}
					mg = mg[group].(map[string]any)
				}
				mg[string(keyItems[len(keyItems)-1])] = string(bytes.Trim(value, "\""))
			default:
				m[string(key)] = string(bytes.Trim(value, "\""))
			}
		}
		ms = append(ms, m)
	}
	return ms
}

func splitFields(b []byte) [][]byte {
	var quoted bool
	return bytes.FieldsFunc(b, func(r1 rune) bool {
		if r1 == '"' {
			quoted = !quoted
		}
		return !quoted && r1 == ' '
	})
}
