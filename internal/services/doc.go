// Package services holds the sentinel error markers shared by pipeline
// components so callers can classify failures without string matching.
package services
