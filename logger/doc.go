// Package logger provides structured logging for the shared service library
// using zerolog.
//
// Besides the general purpose Logger it builds the three sinks every service
// writes unhandled failures to (see Sinks and ExceptionLogger):
//
//   - a daily rolling file, named <prefix>-YYYYMMDD.text
//   - the console
//   - a debug stream
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  debug_output: "stderr"
//	  file:
//	    enabled: true
//	    path: "logs/catalog"
//
// # Usage
//
//	sinks, err := logger.NewSinks(cfg)
//	defer sinks.Close()
//	exc := sinks.ExceptionLogger()
//	exc.LogException(err)
package logger
