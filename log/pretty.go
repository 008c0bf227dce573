package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the pretty text handler.
var (
	styleTime  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleTrace = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return styleError
	case level >= slog.LevelWarn:
		return styleWarn
	case level >= slog.LevelInfo:
		return styleInfo
	case level >= slog.LevelDebug:
		return styleDebug
	default:
		return styleTrace
	}
}

// prettyHandler is a colorized text handler: level-colored prefix, plain
// message, gray key=value attributes.
type prettyHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	opts       slog.HandlerOptions
	timeLayout string
	attrs      []slog.Attr
	group      string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	timeLayout string,
) *prettyHandler {
	return &prettyHandler{
		mu:         &sync.Mutex{},
		w:          w,
		opts:       *opts,
		timeLayout: timeLayout,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() && h.timeLayout != "" {
		buf.WriteString(styleTime.Render(r.Time.Format(h.timeLayout)))
		buf.WriteByte(' ')
	}

	label := strings.ToUpper(Level(r.Level).String())
	buf.WriteString(levelStyle(r.Level).Render(label))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(buf, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	buf.WriteByte(' ')
	buf.WriteString(styleKey.Render(key + "="))
	buf.WriteString(fmt.Sprint(a.Value.Resolve().Any()))
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h

	if clone.group == "" {
		clone.group = name
	} else {
		clone.group += "." + name
	}

	return &clone
}
