// Package y4m implements an incremental YUV4MPEG2 stream reader.
//
// Bytes are pushed in chunks of any size and alignment. The stream header line is
// parsed once, after which every frame body is assembled in one of two reusable
// slots. A completed slot is handed to consumers by flipping an index under a
// mutex, so readers never observe a partially written frame and the producer
// never waits for them longer than one copy.
package y4m
