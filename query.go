package fcsd

import (
	"bytes"
	"sort"

	"github.com/valyala/bytebufferpool"
)

// searchBucket returns the greatest bucket whose header compares <= key, or
// -1 when key sorts before the first header. Each probe materializes a
// header straight from the stream; headers are short, so this stays cheap.
func (d *Dict) searchBucket(key []byte) int {
	n := int(d.NumBuckets())
	i := sort.Search(n, func(b int) bool {
		hdr, _ := d.header(uint64(b))
		return bytes.Compare(hdr, key) > 0
	})
	return i - 1
}

// lowerBound returns the index of the first key >= key, decoding through buf.
// exact reports whether that key equals key. The returned index is Len()
// when every key compares below key.
func (d *Dict) lowerBound(key []byte, buf []byte) (index uint64, _ []byte, exact bool) {
	if d.numKeys == 0 {
		return 0, buf, false
	}
	b := d.searchBucket(key)
	if b < 0 {
		return 0, buf, false
	}

	var cursor, end int
	buf, cursor, end = d.headerInto(buf, uint64(b))
	if bytes.Equal(buf, key) {
		return uint64(b) * d.bucketSize, buf, true
	}

	base := uint64(b) * d.bucketSize
	for j := uint64(1); j < d.bucketSize; j++ {
		var ok bool
		buf, cursor, ok = d.decodeNext(buf, cursor, end)
		if !ok {
			// Bucket exhausted: the bound is the first key of the next
			// bucket, if any.
			return base + j, buf, false
		}
		switch c := bytes.Compare(buf, key); {
		case c == 0:
			return base + j, buf, true
		case c > 0:
			return base + j, buf, false
		}
	}
	return base + d.bucketSize, buf, false
}

// Locator maps keys to their indices. It reuses one scratch buffer across
// calls and must not be shared between goroutines.
type Locator struct {
	d   *Dict
	buf []byte
}

// Locator returns a new lookup handle.
func (d *Dict) Locator() *Locator { return &Locator{d: d} }

// Locate returns the index of key, or false when the key is absent.
func (l *Locator) Locate(key []byte) (uint64, bool) {
	index, buf, exact := l.d.lowerBound(key, l.buf[:0])
	l.buf = buf
	if !exact {
		return 0, false
	}
	return index, true
}

// Decoder maps indices to their keys. It reuses one scratch buffer across
// calls and must not be shared between goroutines.
type Decoder struct {
	d   *Dict
	buf []byte
}

// Decoder returns a new decode handle.
func (d *Dict) Decoder() *Decoder { return &Decoder{d: d} }

// Decode returns a copy of the key stored at index, or false when
// index >= Len().
func (dec *Decoder) Decode(index uint64) ([]byte, bool) {
	buf, ok := dec.d.decodeAt(index, dec.buf[:0])
	dec.buf = buf
	if !ok {
		return nil, false
	}
	return cloneBytes(buf), true
}

// Locate is a one-shot lookup backed by pooled scratch space. Callers doing
// many lookups should hold a Locator instead.
func (d *Dict) Locate(key []byte) (uint64, bool) {
	bb := bytebufferpool.Get()
	index, buf, exact := d.lowerBound(key, bb.B[:0])
	bb.B = buf
	bytebufferpool.Put(bb)
	if !exact {
		return 0, false
	}
	return index, true
}

// Decode is a one-shot decode backed by pooled scratch space. Callers doing
// many decodes should hold a Decoder instead.
func (d *Dict) Decode(index uint64) ([]byte, bool) {
	bb := bytebufferpool.Get()
	buf, ok := d.decodeAt(index, bb.B[:0])
	var key []byte
	if ok {
		key = cloneBytes(buf)
	}
	bb.B = buf
	bytebufferpool.Put(bb)
	return key, ok
}
