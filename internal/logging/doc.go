// Package logging builds the application's slog loggers: a console
// handler for interactive use, a JSON handler for machine consumption,
// and shared attribute helpers so field names stay consistent across
// modules.
package logging
