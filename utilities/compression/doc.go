// Package compression packs boot disk images for storage and unpacks them
// again before they're mounted.
//
// Images are mostly unused sectors full of zeros, so they're run-length
// encoded first and the result is gzipped. The run-length encoding is RLE8: a
// byte that occurs N >= 2 times in a row is written twice followed by N-2 as an
// unsigned byte. Runs longer than 257 bytes are split.
//
//	W XXXXXXXXXXXXXXX Y ZZ
//	W XX 13 Y ZZ 0
//
// Gzip streams are recognized by their magic number, so [OpenImage] accepts
// raw images as well.
package compression
