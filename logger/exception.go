package logger

// ExceptionLogger writes every unhandled failure to three independent sinks:
// the file at info, the console at warning and the debug stream at debug.
// There is no filtering or deduplication. Write failures inside a sink are
// handled by zerolog and never reach the caller.
type ExceptionLogger struct {
	file    *Logger
	console *Logger
	debug   *Logger
}

// NewExceptionLogger creates an ExceptionLogger. A nil sink is skipped.
func NewExceptionLogger(file, console, debug *Logger) *ExceptionLogger {
	return &ExceptionLogger{file: file, console: console, debug: debug}
}

// LogException logs err.Error() to all sinks. A nil error is ignored.
func (e *ExceptionLogger) LogException(err error) {
	if err == nil {
		return
	}
	e.LogMessage(err.Error())
}

// LogMessage logs msg to all sinks.
func (e *ExceptionLogger) LogMessage(msg string) {
	if e == nil {
		return
	}
	e.LogToFile(msg)
	e.LogToConsole(msg)
	e.LogToDebugger(msg)
}

// LogToFile logs msg to the file sink at info level.
func (e *ExceptionLogger) LogToFile(msg string) {
	if e != nil && e.file != nil {
		e.file.Info(msg)
	}
}

// LogToConsole logs msg to the console sink at warning level.
func (e *ExceptionLogger) LogToConsole(msg string) {
	if e != nil && e.console != nil {
		e.console.Warn(msg)
	}
}

// LogToDebugger logs msg to the debug stream at debug level.
func (e *ExceptionLogger) LogToDebugger(msg string) {
	if e != nil && e.debug != nil {
		e.debug.Debug(msg)
	}
}
