package logbuffer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// maxEntries is the retention cap of the in-memory ring.
const maxEntries = 100

type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Recorder keeps the most recent log entries in memory for the /logs route
// and mirrors every entry to a zerolog console logger. Safe for concurrent
// use; fiber handles requests on multiple goroutines.
type Recorder struct {
	mutex   sync.Mutex
	entries []Entry
	total   int64
	logger  zerolog.Logger
	now     func() time.Time
}

func New() *Recorder {
	return NewWithOutput(os.Stderr)
}

func NewWithOutput(out io.Writer) *Recorder {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	return &Recorder{
		entries: make([]Entry, 0, maxEntries),
		logger:  logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (r *Recorder) Record(level, format string, args ...any) {
	message := fmt.Sprintf(format, args...)

	switch level {
	case LevelWarn:
		r.logger.Warn().Msg(message)
	case LevelError:
		r.logger.Error().Msg(message)
	default:
		level = LevelInfo
		r.logger.Info().Msg(message)
	}

	entry := Entry{
		Timestamp: r.now().Format(time.RFC3339),
		Level:     level,
		Message:   message,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.total++
	r.entries = append(r.entries, entry)
	if len(r.entries) > maxEntries {
		r.entries = r.entries[len(r.entries)-maxEntries:]
	}
}

func (r *Recorder) Infof(format string, args ...any) {
	r.Record(LevelInfo, format, args...)
}

func (r *Recorder) Warnf(format string, args ...any) {
	r.Record(LevelWarn, format, args...)
}

func (r *Recorder) Errorf(format string, args ...any) {
	r.Record(LevelError, format, args...)
}

// Recent returns up to n of the most recent entries, oldest first.
func (r *Recorder) Recent(n int) []Entry {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if n > len(r.entries) {
		n = len(r.entries)
	}
	if n <= 0 {
		return []Entry{}
	}
	recent := make([]Entry, n)
	copy(recent, r.entries[len(r.entries)-n:])
	return recent
}

// Total is the cumulative count of recorded entries, including evicted ones.
func (r *Recorder) Total() int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.total
}
