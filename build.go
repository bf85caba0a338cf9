package fcsd

import (
	"bytes"
	"math/bits"
	"time"

	"github.com/dustin/go-humanize"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("fcsd")

// DefaultBucketSize is a reasonable bucket size for textual keys: small
// enough to keep scans cheap, large enough to amortize the headers.
const DefaultBucketSize = 8

// Builder accumulates keys in strictly increasing lexicographic order and
// front-codes them into a dictionary. Keys must be non-empty and free of
// 0x00 bytes. A Builder must not be used after Seal.
type Builder struct {
	bucketSize uint64
	next       uint64   // index the next accepted key will receive
	prev       []byte   // most recently accepted key
	data       []byte   // front-coded stream under construction
	ptrList    []uint64 // start offset of every bucket
	err        error    // first rejection; fatal to the whole build
}

// NewBuilder creates a builder for the given bucket size, which must be a
// non-zero power of two.
func NewBuilder(bucketSize uint64) (*Builder, error) {
	if bucketSize == 0 || bits.OnesCount64(bucketSize) != 1 {
		return nil, ErrInvalidBucketSize
	}
	return &Builder{bucketSize: bucketSize}, nil
}

// Build constructs a dictionary in one call from keys that are already
// sorted, unique, non-empty and NUL-free.
func Build(bucketSize uint64, keys [][]byte) (*Dict, error) {
	b, err := NewBuilder(bucketSize)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := b.Add(key); err != nil {
			return nil, err
		}
	}
	return b.Seal()
}

// Add appends the next key. It fails with ErrEmptyKey, ErrKeyContainsNul, or
// a NotSortedError when the key is not strictly greater than the previous
// one. Any rejection is fatal to the build: every later Add and Seal returns
// the same error.
func (b *Builder) Add(key []byte) error {
	if b.err != nil {
		return b.err
	}
	if len(key) == 0 {
		b.err = ErrEmptyKey
		return b.err
	}
	if bytes.IndexByte(key, 0x00) >= 0 {
		b.err = ErrKeyContainsNul
		return b.err
	}
	if b.next > 0 && bytes.Compare(b.prev, key) >= 0 {
		b.err = &NotSortedError{Index: b.next, Prev: cloneBytes(b.prev), Key: cloneBytes(key)}
		return b.err
	}

	if b.next%b.bucketSize == 0 {
		// Bucket header: stored verbatim.
		b.ptrList = append(b.ptrList, uint64(len(b.data)))
		b.data = append(b.data, key...)
	} else {
		lcp := commonPrefixLen(b.prev, key)
		b.data = appendVbyte(b.data, uint64(lcp))
		b.data = append(b.data, key[lcp:]...)
	}
	b.data = append(b.data, 0x00)

	b.prev = append(b.prev[:0], key...)
	b.next++
	return nil
}

// Len returns the number of keys accepted so far.
func (b *Builder) Len() uint64 { return b.next }

// Seal packs the pointer table and returns the finished dictionary. The
// builder hands its buffers over to the dictionary and must be discarded.
// Seal fails if any Add was rejected.
func (b *Builder) Seal() (*Dict, error) {
	if b.err != nil {
		return nil, b.err
	}
	started := time.Now()

	ptrList := append(b.ptrList, uint64(len(b.data)))
	width := pointerWidth(uint64(len(b.data)))
	packed := make([]byte, len(ptrList)*width)
	for i, p := range ptrList {
		putUintLe(packed[i*width:(i+1)*width], p)
	}

	d := &Dict{
		data:       b.data,
		ptrs:       packed,
		ptrWidth:   width,
		numKeys:    b.next,
		bucketSize: b.bucketSize,
	}
	log.Debugf("sealed dictionary: %d keys in %d buckets, stream %s, total %s, took %s",
		d.numKeys,
		d.NumBuckets(),
		humanize.Bytes(uint64(len(d.data))),
		humanize.Bytes(d.SizeInBytes()),
		time.Since(started),
	)
	return d, nil
}

// pointerWidth returns the minimal number of bytes that can represent
// streamLen, between 1 and 8.
func pointerWidth(streamLen uint64) int {
	if streamLen == 0 {
		return 1
	}
	return (bits.Len64(streamLen) + 7) / 8
}

func commonPrefixLen(a, b []byte) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
