package logger

import (
	"io"

	"github.com/rs/zerolog"
)

const fileTimeFormat = "2006-01-02 15:04:05.000 -07:00"

// Sinks holds the three loggers unhandled failures are written to.
type Sinks struct {
	File    *Logger
	Console *Logger
	Debug   *Logger

	file *dailyWriter
}

// NewSinks builds the console, debug and (when enabled) daily rolling file
// sinks from cfg. The console and file sinks honor cfg.Level; the debug
// stream always accepts debug records.
func NewSinks(cfg Config) (*Sinks, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sinks{
		Console: New(&cfg, cfg.ServiceName),
	}

	debugCfg := cfg
	debugCfg.Level = "debug"
	debugCfg.Output = cfg.DebugOutput
	s.Debug = New(&debugCfg, cfg.ServiceName)

	if cfg.File.Enabled {
		s.file = newDailyWriter(cfg.File)
		s.File = newFileLogger(s.file, cfg.Level)
	}
	return s, nil
}

// newFileLogger renders "<timestamp> [INF] message" lines without color.
func newFileLogger(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(consoleWriter(w, true, fileTimeFormat, "")).
		Level(lvl).
		With().Timestamp().Logger()
	return &Logger{logger: zl}
}

// ExceptionLogger returns an ExceptionLogger over the three sinks.
func (s *Sinks) ExceptionLogger() *ExceptionLogger {
	return NewExceptionLogger(s.File, s.Console, s.Debug)
}

// Close closes the log file, if one is open.
func (s *Sinks) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}
