// Package monitoring carries the resolver's diagnostic logger and its
// prometheus metrics.
package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the resolver core for
// state transitions (target changes, anomaly latches, round resets). It
// defaults to log.Printf; SetLogger redirects or mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// EntityLogf logs a message prefixed with the entity it concerns.
func EntityLogf(entity string, format string, v ...interface{}) {
	Logf("[entity %s] "+format, append([]interface{}{entity}, v...)...)
}
