package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogKind is one of the four console channels.
type LogKind string

const (
	LogKindLog   LogKind = "log"
	LogKindWarn  LogKind = "warn"
	LogKindError LogKind = "error"
	LogKindInfo  LogKind = "info"
)

// LogKinds lists the channels in the order they are installed.
var LogKinds = []LogKind{LogKindLog, LogKindWarn, LogKindError, LogKindInfo}

// LogEntry is one recorded console call.
type LogEntry struct {
	Kind      LogKind   `json:"type"`
	Args      []any     `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// Channel is a console output function.
type Channel func(args ...any)

// Console holds the four output channels. Channels may be swapped by a
// ConsoleRecorder, so they should be installed before the console is
// shared between goroutines.
type Console struct {
	Log   Channel
	Warn  Channel
	Error Channel
	Info  Channel
}

// NewConsole returns a console whose channels write to logger.
func NewConsole(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "console"))
	out := func(level slog.Level, kind LogKind) Channel {
		return func(args ...any) {
			logger.Log(context.Background(), level, Format(args...), slog.String("channel", string(kind)))
		}
	}
	return &Console{
		Log:   out(slog.LevelInfo, LogKindLog),
		Warn:  out(slog.LevelWarn, LogKindWarn),
		Error: out(slog.LevelError, LogKindError),
		Info:  out(slog.LevelInfo, LogKindInfo),
	}
}

// Channel returns the channel for kind, or nil for an unknown kind.
func (c *Console) Channel(kind LogKind) Channel {
	if p := c.slot(kind); p != nil {
		return *p
	}
	return nil
}

// Emit calls the channel for kind.
func (c *Console) Emit(kind LogKind, args ...any) {
	if ch := c.Channel(kind); ch != nil {
		ch(args...)
	}
}

func (c *Console) slot(kind LogKind) *Channel {
	switch kind {
	case LogKindLog:
		return &c.Log
	case LogKindWarn:
		return &c.Warn
	case LogKindError:
		return &c.Error
	case LogKindInfo:
		return &c.Info
	}
	return nil
}

// Format joins console arguments the way a browser console prints them.
func Format(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}

// ErrInstalled is returned when a recorder is installed twice on the same
// console.
var ErrInstalled = errors.New("console recorder is already installed on this console")

// ConsoleRecorder records every call made through the channels of the
// consoles it is installed on.
type ConsoleRecorder struct {
	ring *Ring[LogEntry]
	now  func() time.Time

	mu        sync.Mutex
	installed map[*Console]bool
}

// NewConsoleRecorder returns a recorder keeping the last capacity calls.
func NewConsoleRecorder(capacity int) *ConsoleRecorder {
	return &ConsoleRecorder{
		ring:      NewRing[LogEntry](capacity),
		now:       time.Now,
		installed: map[*Console]bool{},
	}
}

var defaultConsoleRecorder = sync.OnceValue(func() *ConsoleRecorder {
	return NewConsoleRecorder(DefaultCapacity)
})

// DefaultConsoleRecorder returns the process-wide console recorder.
func DefaultConsoleRecorder() *ConsoleRecorder {
	return defaultConsoleRecorder()
}

// Install wraps each channel of c. A wrapped channel records the call and
// then forwards the identical arguments to the original channel. The
// returned func restores the original channels.
func (r *ConsoleRecorder) Install(c *Console) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed[c] {
		return nil, ErrInstalled
	}
	r.installed[c] = true

	originals := make(map[LogKind]Channel, len(LogKinds))
	for _, kind := range LogKinds {
		slot := c.slot(kind)
		orig := *slot
		originals[kind] = orig
		*slot = r.wrap(kind, orig)
	}

	var once sync.Once
	uninstall := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for kind, orig := range originals {
				*c.slot(kind) = orig
			}
			delete(r.installed, c)
		})
	}
	return uninstall, nil
}

func (r *ConsoleRecorder) wrap(kind LogKind, orig Channel) Channel {
	return func(args ...any) {
		r.record(kind, args)
		if orig != nil {
			orig(args...)
		}
	}
}

func (r *ConsoleRecorder) record(kind LogKind, args []any) {
	r.ring.Push(LogEntry{
		Kind:      kind,
		Args:      slices.Clone(args),
		Timestamp: r.now(),
	})
}

// RecentLogs returns the recorded calls, oldest first. The result does not
// share memory with the recorder.
func (r *ConsoleRecorder) RecentLogs() []LogEntry {
	entries := r.ring.Snapshot()
	for i := range entries {
		entries[i].Args = slices.Clone(entries[i].Args)
	}
	return entries
}

// Len returns the number of recorded calls currently kept.
func (r *ConsoleRecorder) Len() int {
	return r.ring.Len()
}
