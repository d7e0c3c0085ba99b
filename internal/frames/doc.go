// Package frames turns a frame range of a source video into the numbered
// still-image sequence the video encoder consumes.
//
// Each frame goes through a fixed transform pipeline: crop, rotate 180°,
// resize to the device screen, then left-pad with black to the video canvas
// width. Frame decoding is abstracted behind a Source so tests can feed
// synthetic frames; the production source streams raw RGB frames out of an
// ffmpeg child process.
package frames
