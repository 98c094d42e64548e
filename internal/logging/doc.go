// Package logging assembles the slog loggers used across slideframe.
//
// It owns the console and JSON handlers, level parsing, and a no-op logger
// for tests and wiring code that cannot fail. Console output is coloured
// only when it goes to a terminal.
package logging
