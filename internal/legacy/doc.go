// Package legacy migrates asset folders written by the previous toolchain
// into the current schema: epconfig.txt becomes epconfig.json, the raw
// packed logo becomes a PNG, and the loop video is copied verbatim.
package legacy
