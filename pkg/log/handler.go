// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Handler implements the log handler.
//
// Records are written as a single line of key=value pairs, starting with the
// time, the level and the component id. Keys of grouped attributes are
// joined with a dot.
type Handler struct {
	id     string
	opts   HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	attrs  []byte
	prefix string
}

// HandlerOptions implements the log handler options.
type HandlerOptions struct {
	// Level is the minimum level logged, ProgramLevel if nil.
	Level slog.Leveler
	// AppendSource adds the source file and line of the call.
	AppendSource bool
	// Color colors the level value. It is ignored when color.NoColor is set.
	Color bool
}

const (
	// IDKey is the key used by the handler for its ID. The associated value is a
	// string.
	IDKey = "id"
)

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgCyan),
	slog.LevelInfo:  color.New(color.FgHiWhite),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

// NewHandler creates a new handler writing to w.
func NewHandler(w io.Writer, id string, opts *HandlerOptions) *Handler {
	h := &Handler{
		id: id,
		w:  w,
		mu: &sync.Mutex{},
	}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = ProgramLevel
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// WithGroup returns a handler prefixing the keys of the following attributes
// with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// WithAttrs returns a handler writing attrs with every record. The attributes
// are formatted once.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		h2.attrs = appendAttr(h2.attrs, h.prefix, a)
	}
	return &h2
}

// Handle writes the record as a single line.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 512)
	if !r.Time.IsZero() {
		buf = appendKey(buf, slog.TimeKey)
		buf = r.Time.AppendFormat(buf, time.RFC3339Nano)
	}
	buf = appendKey(buf, slog.LevelKey)
	if h.opts.Color && !color.NoColor {
		c, ok := levelColors[r.Level]
		if !ok {
			c = levelColors[slog.LevelError]
		}
		buf = append(buf, c.Sprint(r.Level.String())...)
	} else {
		buf = append(buf, r.Level.String()...)
	}
	if h.id != "" {
		buf = appendAttr(buf, "", slog.String(IDKey, h.id))
	}
	if h.opts.AppendSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf = appendAttr(buf, "", slog.String(slog.SourceKey, f.File+":"+strconv.Itoa(f.Line)))
	}
	buf = appendAttr(buf, "", slog.String(slog.MessageKey, r.Message))
	buf = append(buf, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf[1:]); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	return nil
}

// appendAttr appends the attribute as " key=value". Group members are
// appended with their key prefixed by the group name, and empty attributes
// are dropped.
func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, prefix, ga)
		}
	case slog.KindTime:
		buf = appendKey(buf, prefix+a.Key)
		buf = a.Value.Time().AppendFormat(buf, time.RFC3339Nano)
	default:
		buf = appendKey(buf, prefix+a.Key)
		buf = appendString(buf, a.Value.String())
	}

	return buf
}

// appendKey appends " key=".
func appendKey(buf []byte, key string) []byte {
	buf = append(buf, ' ')
	buf = appendString(buf, key)
	return append(buf, '=')
}

// appendString appends s, quoted if it is empty or holds a space, a quote, an
// equal sign or a non printable rune.
func appendString(buf []byte, s string) []byte {
	if s == "" {
		return append(buf, `""`...)
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError || r == '"' || r == '=' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return strconv.AppendQuote(buf, s)
		}
		i += size
	}
	return append(buf, s...)
}

var _ slog.Handler = (*Handler)(nil)
