package fcsd

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Dict is an immutable front-coded string dictionary. Build one with a
// Builder (or the Build helper), or load a serialized one with Read.
type Dict struct {
	data       []byte // front-coded key stream, bucket after bucket
	ptrs       []byte // packed pointer table, NumBuckets()+1 entries
	ptrWidth   int    // bytes per pointer entry, 1..8
	numKeys    uint64
	bucketSize uint64
}

// Len returns the number of keys in the dictionary.
func (d *Dict) Len() uint64 { return d.numKeys }

// BucketSize returns the bucket size the dictionary was built with.
func (d *Dict) BucketSize() uint64 { return d.bucketSize }

// NumBuckets returns the number of buckets in the key stream.
func (d *Dict) NumBuckets() uint64 { return numBucketsFor(d.numKeys, d.bucketSize) }

func numBucketsFor(numKeys, bucketSize uint64) uint64 {
	if numKeys == 0 {
		return 0
	}
	return (numKeys + bucketSize - 1) / bucketSize
}

// Checksum returns a xxHash64 fingerprint over the dictionary parameters and
// contents. Two dictionaries with equal checksums serialize identically.
func (d *Dict) Checksum() uint64 {
	var head [16]byte
	binary.LittleEndian.PutUint64(head[0:8], d.numKeys)
	binary.LittleEndian.PutUint64(head[8:16], d.bucketSize)

	var digest xxhash.Digest
	digest.Reset()
	digest.Write(head[:])
	digest.Write(d.data)
	digest.Write(d.ptrs)
	return digest.Sum64()
}

// ptr returns entry i of the pointer table.
func (d *Dict) ptr(i uint64) uint64 {
	off := int(i) * d.ptrWidth
	return uintLe(d.ptrs[off : off+d.ptrWidth])
}

// bucketRange returns the byte range [start, end) of bucket b in the stream.
func (d *Dict) bucketRange(b uint64) (start, end int) {
	return int(d.ptr(b)), int(d.ptr(b + 1))
}

// header returns bucket b's header key as a subslice of the stream, plus the
// cursor positioned at the first tail record (or the bucket end).
func (d *Dict) header(b uint64) (key []byte, cursor int) {
	start, end := d.bucketRange(b)
	i := bytes.IndexByte(d.data[start:end], 0x00)
	if i < 0 {
		return d.data[start:end], end
	}
	return d.data[start : start+i], start + i + 1
}

// headerInto copies bucket b's header into buf and returns the filled buffer,
// the cursor at the first tail record, and the bucket end offset.
func (d *Dict) headerInto(buf []byte, b uint64) ([]byte, int, int) {
	hdr, cursor := d.header(b)
	_, end := d.bucketRange(b)
	return append(buf[:0], hdr...), cursor, end
}

// decodeNext decodes the tail record at cursor into buf, which must hold the
// preceding key of the same bucket. On success it returns the buffer now
// holding the tail key and the cursor past the record. ok is false when the
// cursor has reached end or the record is mangled; buf then holds the
// previous key unchanged.
func (d *Dict) decodeNext(buf []byte, cursor, end int) (_ []byte, _ int, ok bool) {
	if cursor >= end {
		return buf, cursor, false
	}
	lcp, n, ok := decodeVbyte(d.data[cursor:end])
	if !ok || lcp > uint64(len(buf)) {
		return buf, cursor, false
	}
	cursor += n
	i := bytes.IndexByte(d.data[cursor:end], 0x00)
	if i < 0 {
		return buf, cursor, false
	}
	buf = append(buf[:lcp], d.data[cursor:cursor+i]...)
	return buf, cursor + i + 1, true
}

// decodeAt rebuilds the key at index into buf. ok is false when the index is
// out of range.
func (d *Dict) decodeAt(index uint64, buf []byte) (_ []byte, ok bool) {
	if index >= d.numKeys {
		return buf, false
	}
	b := index / d.bucketSize
	var cursor, end int
	buf, cursor, end = d.headerInto(buf, b)
	for j := index % d.bucketSize; j > 0; j-- {
		buf, cursor, ok = d.decodeNext(buf, cursor, end)
		if !ok {
			return buf, false
		}
	}
	return buf, true
}

// uintLe decodes an unsigned little-endian integer of up to 8 bytes;
// out-of-bounds bits are zero.
func uintLe(buf []byte) uint64 {
	var full [8]byte
	copy(full[:], buf)
	return binary.LittleEndian.Uint64(full[:])
}

// putUintLe encodes the low len(buf) bytes of x little-endian into buf.
func putUintLe(buf []byte, x uint64) {
	var full [8]byte
	binary.LittleEndian.PutUint64(full[:], x)
	copy(buf, full[:])
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
