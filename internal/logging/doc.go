// Package logging builds the slog loggers used across fieldsync. It provides
// a console handler with key=value output for interactive use, a JSON handler
// for machine consumption, and helper aliases plus standardized field keys so
// every component logs the same attribute names.
package logging
