// Package logging assembles the slog loggers used by the lockbox commands.
//
// It owns the console and JSON handlers, level parsing, and output plumbing
// (stderr plus an optional log file), and exposes small attribute helpers so
// every component tags its lines the same way. Each command run carries a
// run identifier in its context; WithContext copies it onto a logger as the
// correlation_id field.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the tooling.
package logging
