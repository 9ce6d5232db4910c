// Package logger writes key=value structured log lines for booking events.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger writes one line per event: time, level, message, then fields.
type Logger struct {
	mu     *sync.Mutex
	writer io.Writer
	base   []Field
	now    func() time.Time
}

// New creates a logger writing to stdout.
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a logger with a custom writer.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{mu: &sync.Mutex{}, writer: w, now: time.Now}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard)
}

// With returns a child logger that prefixes every line with fields.
func (l *Logger) With(fields ...Field) *Logger {
	base := make([]Field, 0, len(l.base)+len(fields))
	base = append(base, l.base...)
	base = append(base, fields...)
	return &Logger{mu: l.mu, writer: l.writer, base: base, now: l.now}
}

// Info logs informational messages.
func (l *Logger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log("WARNING", msg, fields...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

// Debug logs debug messages.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log("DEBUG", msg, fields...)
}

func (l *Logger) log(level, msg string, fields ...Field) {
	if l == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TIME=%s LEVEL=%s MESSAGE=%q", l.now().UTC().Format(time.RFC3339), level, msg)
	for _, f := range l.base {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.writer, b.String())
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Fields converts a map into fields sorted by key.
func Fields(m map[string]interface{}) []Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Field, 0, len(m))
	for _, k := range keys {
		out = append(out, F(k, m[k]))
	}
	return out
}

// Common field constructors.
func Booking(id string) Field        { return F("BOOKING", id) }
func Lot(id string) Field            { return F("LOT", id) }
func User(id string) Field           { return F("USER", id) }
func Vehicle(id string) Field        { return F("VEHICLE", id) }
func Status(value string) Field      { return F("STATUS", value) }
func Amount(value float64) Field     { return F("AMOUNT", fmt.Sprintf("%.2f", value)) }
func Occupied(value int) Field       { return F("OCCUPIED", value) }
func Capacity(value int) Field       { return F("CAPACITY", value) }
func Error(err error) Field          { return F("ERROR", err) }
func Duration(d time.Duration) Field { return F("DURATION", d) }
