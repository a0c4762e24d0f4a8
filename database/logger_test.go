package database

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/ecommerce-shared/logger"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLogLevel("SILENT"))
	assert.Equal(t, gormlogger.Info, parseLogLevel(" info "))
	assert.Equal(t, gormlogger.Warn, parseLogLevel("verbose"))
}

func TestQueryLogger_Trace(t *testing.T) {
	stmt := func() (string, int64) { return "SELECT * FROM orders", 3 }
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		want    []string
		empty   bool
	}{
		{name: "failure", level: gormlogger.Warn, err: errors.New("deadlock"),
			want: []string{`"level":"error"`, `"message":"Query failed"`, `"error":"deadlock"`, `"rows":3`}},
		{name: "not found is quiet", level: gormlogger.Warn, err: gorm.ErrRecordNotFound, empty: true},
		{name: "slow", level: gormlogger.Warn, elapsed: time.Second,
			want: []string{`"level":"warn"`, `"message":"Slow query"`, `"sql":"SELECT * FROM orders"`}},
		{name: "fast at warn", level: gormlogger.Warn, empty: true},
		{name: "fast at info", level: gormlogger.Info,
			want: []string{`"level":"debug"`, `"message":"Query"`, `"component":"gorm"`}},
		{name: "silent", level: gormlogger.Silent, err: errors.New("deadlock"), empty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, &buf, "")
			ql := newGormLogger(log, 100*time.Millisecond, gormlogger.Info).LogMode(tt.level)

			ql.Trace(t.Context(), time.Now().Add(-tt.elapsed), stmt, tt.err)

			if tt.empty {
				assert.Empty(t, buf.String())
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestQueryLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, &buf, "")
	ql := newGormLogger(log, 0, gormlogger.Warn)

	ctx := logger.ContextWithRequestID(t.Context(), "req-42")
	ql.Warn(ctx, "pool exhausted: %d waiting", 5)

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), "pool exhausted: 5 waiting")
}
