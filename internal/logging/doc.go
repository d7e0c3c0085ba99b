// Package logging assembles the structured slog loggers used across epasset.
//
// It owns the console/JSON handler selection, level and output plumbing, and
// the attribute helpers shared by pipeline components, plus a no-op logger
// for tests and wiring code that cannot fail. Prefer these constructors over
// hand-rolled slog setup so every component emits the same line shape.
package logging
