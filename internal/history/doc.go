// Package history records export and migration runs in a local SQLite
// database. Recording is best-effort: a broken history store degrades to
// log warnings and never blocks the pipeline.
package history
