// Package ffmpeg wraps the external ffmpeg binary used to encode extracted
// frame sequences into device video assets.
//
// The client executes one fixed invocation shape (image sequence in, single
// compressed stream out, no audio) and surfaces encoder diagnostics as a
// bounded stderr excerpt. Command execution goes through an injectable
// Executor so tests never spawn processes.
package ffmpeg
