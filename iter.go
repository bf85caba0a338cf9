package fcsd

import (
	"bytes"
	"fmt"
	"io"
)

// Iter enumerates (index, key) pairs in index order, which is lexicographic
// key order. An iterator is single-pass: once exhausted it stays exhausted,
// and restarting means constructing a fresh one. It must not be shared
// between goroutines.
type Iter struct {
	d      *Dict
	pos    uint64 // index of the next key to produce
	cursor int
	end    int
	buf    []byte
	prefix []byte
}

// Iter returns an iterator over the whole dictionary.
func (d *Dict) Iter() *Iter {
	return &Iter{d: d}
}

// PrefixIter returns an iterator over the keys that begin with prefix, in
// index order. An empty prefix iterates the whole dictionary.
func (d *Dict) PrefixIter(prefix []byte) *Iter {
	it := &Iter{d: d, prefix: cloneBytes(prefix)}
	// Keys carrying the prefix form one contiguous run starting at the
	// lower bound of the prefix itself.
	start, buf, _ := d.lowerBound(prefix, nil)
	it.buf = buf
	it.seek(start)
	return it
}

// seek positions the iterator so that the next decoded key has index start.
func (it *Iter) seek(start uint64) {
	it.pos = start
	if start >= it.d.numKeys {
		return
	}
	j := start % it.d.bucketSize
	if j == 0 {
		// Next loads the bucket header itself.
		return
	}
	b := start / it.d.bucketSize
	it.buf, it.cursor, it.end = it.d.headerInto(it.buf, b)
	for k := uint64(1); k < j; k++ {
		it.buf, it.cursor, _ = it.d.decodeNext(it.buf, it.cursor, it.end)
	}
}

// Next returns the next pair. It returns io.EOF once the sequence is
// exhausted. The key slice aliases the iterator's rolling buffer and is only
// valid until the following call; callers keeping keys must copy them.
func (it *Iter) Next() (uint64, []byte, error) {
	if it.pos >= it.d.numKeys {
		return 0, nil, io.EOF
	}
	if it.pos%it.d.bucketSize == 0 {
		it.buf, it.cursor, it.end = it.d.headerInto(it.buf, it.pos/it.d.bucketSize)
	} else {
		var ok bool
		it.buf, it.cursor, ok = it.d.decodeNext(it.buf, it.cursor, it.end)
		if !ok {
			bad := it.pos
			it.pos = it.d.numKeys
			return 0, nil, fmt.Errorf("%w: truncated record for key %d", ErrCorrupt, bad)
		}
	}
	if len(it.prefix) > 0 && !bytes.HasPrefix(it.buf, it.prefix) {
		it.pos = it.d.numKeys
		return 0, nil, io.EOF
	}
	index := it.pos
	it.pos++
	return index, it.buf, nil
}
