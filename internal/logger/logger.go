// Package logger provides structured logging with file rotation support.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// asyncWriter wraps an io.Writer to make writes non-blocking.
// A console attached to an interactive service host can stall (Quick Edit
// mode, an unread pipe); the caller's Write returns immediately and a
// background goroutine delivers buffered messages. Full buffer drops.
type asyncWriter struct {
	ch     chan []byte
	w      io.Writer
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func newAsyncWriter(w io.Writer, bufSize int) *asyncWriter {
	aw := &asyncWriter{
		ch:   make(chan []byte, bufSize),
		w:    w,
		done: make(chan struct{}),
	}
	go aw.drain()
	return aw
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	aw.mu.RLock()
	defer aw.mu.RUnlock()
	if aw.closed {
		return len(p), nil
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case aw.ch <- cp:
	default:
	}
	return len(p), nil
}

func (aw *asyncWriter) drain() {
	defer close(aw.done)
	for p := range aw.ch {
		aw.w.Write(p)
	}
}

func (aw *asyncWriter) Close() {
	aw.once.Do(func() {
		aw.mu.Lock()
		aw.closed = true
		aw.mu.Unlock()
		close(aw.ch)
		<-aw.done
	})
}

// Config holds the logger configuration.
type Config struct {
	Level      string `json:"Level"`
	FilePath   string `json:"FilePath"`
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
	MaxAgeDays int    `json:"MaxAgeDays"`
	Compress   bool   `json:"Compress"`
	Console    bool   `json:"Console"`
	Format     string `json:"Format"` // "json" or "fixed" (file output only)
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		FilePath:   "log/ServiceHost/servicehost.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
		Console:    false,
		Format:     "fixed",
	}
}

// switchWriter forwards to the output installed by the latest Init. Every
// logger derived from the global one writes through it, so component loggers
// built before a reload follow the new output.
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lw, ok := s.w.(zerolog.LevelWriter); ok {
		return lw.WriteLevel(l, p)
	}
	return s.w.Write(p)
}

// swap installs w once no write is in flight on the previous output.
func (s *switchWriter) swap(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

var (
	mu               sync.Mutex
	output           = &switchWriter{w: os.Stderr}
	globalLogger     = zerolog.New(output).With().Timestamp().Logger()
	serviceMode      bool
	stdout           io.Writer = os.Stdout
	prevFileWriter   io.Closer
	prevConsoleAsync *asyncWriter
)

// zerolog reads TimeFieldFormat on every event, so it is set once here and
// never while loggers may be running.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// SetServiceMode disables console output. A process started by the SCM has
// no console, and writes to a missing stdout only cost time.
func SetServiceMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	serviceMode = enabled
}

// Init points the global logger at the outputs cfg describes. It may be
// called again to apply a reloaded configuration; loggers obtained earlier
// switch to the new outputs, and the old ones are flushed and closed.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var (
		writers     []io.Writer
		fileWriter  *lumberjack.Logger
		consoleSink *asyncWriter
	)

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}

		fileWriter = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		if strings.EqualFold(cfg.Format, "fixed") {
			writers = append(writers, NewFixedFormatWriter(fileWriter))
		} else {
			writers = append(writers, fileWriter)
		}
	}

	if cfg.Console && !serviceMode {
		consoleSink = newAsyncWriter(zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: time.RFC3339,
		}, 1000)
		writers = append(writers, consoleSink)
	}

	if len(writers) == 0 {
		if serviceMode {
			writers = append(writers, io.Discard)
		} else {
			writers = append(writers, stdout)
		}
	}

	var out io.Writer
	if len(writers) == 1 {
		out = writers[0]
	} else {
		out = zerolog.MultiLevelWriter(writers...)
	}

	output.swap(out)
	closePrevious()
	if fileWriter != nil {
		prevFileWriter = fileWriter
	}
	prevConsoleAsync = consoleSink

	zerolog.SetGlobalLevel(level)
	return nil
}

// closePrevious releases the outputs of the previous Init. Callers hold mu
// and have already swapped them out.
func closePrevious() {
	if prevConsoleAsync != nil {
		prevConsoleAsync.Close()
		prevConsoleAsync = nil
	}
	if prevFileWriter != nil {
		prevFileWriter.Close()
		prevFileWriter = nil
	}
}

// Close flushes and releases the outputs opened by Init and sends the
// global logger back to stderr.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	output.swap(os.Stderr)
	closePrevious()
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return globalLogger
}

// Info logs an info message.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Error logs an error message.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// WithComponent returns a logger with component field.
func WithComponent(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
