package logger

import (
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// dailyWriter writes to <prefix>-YYYYMMDD<ext>, opening a new file when the
// day changes. Size based rotation within a day is left to lumberjack.
type dailyWriter struct {
	mu      sync.Mutex
	cfg     FileConfig
	now     func() time.Time
	day     string
	current *lumberjack.Logger
}

func newDailyWriter(cfg FileConfig) *dailyWriter {
	return &dailyWriter{cfg: cfg, now: time.Now}
}

// fileName returns the file a record written at t goes to.
func (w *dailyWriter) fileName(t time.Time) string {
	return w.cfg.Path + "-" + t.Format("20060102") + w.cfg.Extension
}

func (w *dailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := w.now()
	if !w.cfg.LocalTime {
		t = t.UTC()
	}
	day := t.Format("20060102")
	if w.current == nil || day != w.day {
		if w.current != nil {
			_ = w.current.Close()
		}
		w.current = &lumberjack.Logger{
			Filename:   w.fileName(t),
			MaxSize:    w.cfg.MaxSize,
			MaxBackups: w.cfg.MaxBackups,
			MaxAge:     w.cfg.MaxAge,
			Compress:   w.cfg.Compress,
			LocalTime:  w.cfg.LocalTime,
		}
		w.day = day
	}
	return w.current.Write(p)
}

// Close closes the file of the current day.
func (w *dailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}
