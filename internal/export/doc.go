// Package export executes asset export batches: a closed set of task kinds,
// each producing one device asset file, run strictly in order on a
// background goroutine with weighted progress reporting and cooperative
// cancellation.
//
// The Runner is an explicit state machine (idle → running → terminal →
// idle). At most one batch runs per Runner, and a file lock on the output
// directory extends that guarantee across processes. Cancellation is polled
// at task boundaries and frame boundaries only; an external encoder
// invocation that has already started always runs to completion, because
// killing it mid-write could corrupt the output asset.
package export
