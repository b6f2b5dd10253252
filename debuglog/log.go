// Package debuglog appends timestamped records to a debug log file.
package debuglog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNoPath is returned when writing to a Logger with no file path.
var ErrNoPath = errors.New("debug log file path not set")

const (
	timeFormat = "2006-01-02 15:04:05"
	separator  = 80
)

// Format returns the log record for msg written at t.
func Format(t time.Time, msg string) string {
	return "[" + t.Format(timeFormat) + "] " + strings.Repeat("=", separator) + "\n" + msg + "\n\n"
}

// Logger appends records to a file. The zero Logger has no path and
// rejects writes.
//
// A Logger is safe for concurrent use. Writes from separate processes
// to the same file are serialized with an advisory lock where the
// platform supports it.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New returns a Logger that appends to the file at path.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// SetPath changes the file the logger appends to.
func (l *Logger) SetPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
}

// Write appends msg to the log file as one record, creating the file
// if needed.
func (l *Logger) Write(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return ErrNoPath
	}
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return write(l.path, Format(now(), msg))
}

// Write appends msg as one record to the file at path.
func Write(path, msg string) error {
	if path == "" {
		return ErrNoPath
	}
	return write(path, Format(time.Now(), msg))
}

func write(path, record string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	if err := lock(f); err != nil {
		f.Close()
		return fmt.Errorf("locking debug log: %w", err)
	}
	_, werr := f.WriteString(record)
	uerr := unlock(f)
	cerr := f.Close()
	return errors.Join(werr, uerr, cerr)
}
