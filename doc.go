// Package fcsd implements an immutable front-coded string dictionary.
//
// # Design
//
// A dictionary is a compact, indexed set of byte strings. The n stored keys
// are assigned the indices 0..n-1 in lexicographic byte order, and the
// structure answers four questions:
//
//	func (*Locator) Locate(key []byte) (uint64, bool)   // key -> index
//	func (*Decoder) Decode(index uint64) ([]byte, bool) // index -> key
//	func (*Dict) Iter() *Iter                           // all keys, in order
//	func (*Dict) PrefixIter(prefix []byte) *Iter        // keys sharing a prefix
//
// # Buckets
//
// Keys are grouped into buckets of a fixed size B (a power of two, chosen at
// build time). The first key of each bucket (the header) is stored verbatim;
// every following key (a tail key) is stored as the length of its longest
// common prefix with the preceding key, followed by the remaining suffix.
// Each key, header or suffix, is terminated by a 0x00 byte, which is why keys
// may not contain 0x00. The prefix length is a vbyte: a self-delimited
// little-endian integer carrying 7 data bits per byte.
//
// All buckets are concatenated into a single byte stream. A pointer table
// records the stream offset of every bucket plus a final sentinel equal to
// the stream length; entries are packed at the minimal byte width that can
// represent the stream length (1 to 8 bytes).
//
// # Querying
//
// Given a key, Locate binary-searches the bucket headers (materializing each
// probed header from the stream), then scans the winning bucket linearly,
// rebuilding one key at a time into a rolling buffer. Decode jumps to bucket
// index/B and rolls forward index%B tail keys. Both cost O(bucket) work; the
// header search adds O(log(n/B)) probes.
//
// # Construction
//
// A Builder consumes keys in presentation order and rejects empty keys, keys
// containing 0x00, and any key not strictly greater than its predecessor.
// Seal packs the pointer table and returns the finished dictionary. The
// result is immutable: there is no update path, callers wanting changes
// rebuild from scratch.
//
// # Serialization
//
// WriteTo and Read exchange a self-describing little-endian format:
//
//	magic          8 bytes  "fcsdict1"
//	version        1 byte
//	n              8 bytes  number of keys
//	B              8 bytes  bucket size
//	|D|            8 bytes  stream length
//	D              |D| bytes
//	num_pointers   8 bytes  ceil(n/B) + 1
//	pointer_width  1 byte   1..8
//	P              num_pointers * pointer_width bytes
//
// The format is bit-exact: two builds from the same input produce identical
// bytes, and SizeInBytes reports the exact encoded length.
//
// # Concurrency
//
// A built dictionary is read-only and safe for any number of concurrent
// readers. Locator, Decoder and Iter handles carry a private scratch buffer
// and are single-reader; create one per goroutine.
package fcsd
