// Package argb implements the headerless packed pixel format consumed by the
// device firmware: 4 bytes per pixel, no header, no compression, dimensions
// carried out of band.
//
// The two directions are deliberately asymmetric. Export packs pixels in
// B,G,R,A order after a 180° rotation (the renderer expects upside-down
// storage); legacy decode reads A,R,G,B tuples as written by the previous
// toolchain. Do not unify the two orders: files produced by either tool
// generation must keep round-tripping bit-for-bit.
package argb
