package fcsd

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/bits"
	"time"

	"github.com/dustin/go-humanize"
	bin "github.com/gagliardetto/binary"
)

// Magic are the first eight bytes of a serialized dictionary.
var Magic = [8]byte{'f', 'c', 's', 'd', 'i', 'c', 't', '1'}

const Version = uint8(1)

const (
	// magic + version + numKeys + bucketSize + streamLen
	fixedHeaderLen = 8 + 1 + 8 + 8 + 8
	// numPointers + pointerWidth
	fixedTrailerLen = 8 + 1
)

// SizeInBytes returns the exact number of bytes WriteTo produces.
func (d *Dict) SizeInBytes() uint64 {
	return fixedHeaderLen + uint64(len(d.data)) + fixedTrailerLen + uint64(len(d.ptrs))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// WriteTo serializes the dictionary into w in the bit-exact format described
// in the package documentation. The same dictionary always produces the same
// bytes.
func (d *Dict) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc := bin.NewBorshEncoder(cw)

	if _, err := enc.Write(Magic[:]); err != nil {
		return cw.n, fmt.Errorf("failed to write magic: %w", err)
	}
	if err := enc.WriteUint8(Version); err != nil {
		return cw.n, fmt.Errorf("failed to write version: %w", err)
	}
	if err := enc.WriteUint64(d.numKeys, bin.LE); err != nil {
		return cw.n, fmt.Errorf("failed to write key count: %w", err)
	}
	if err := enc.WriteUint64(d.bucketSize, bin.LE); err != nil {
		return cw.n, fmt.Errorf("failed to write bucket size: %w", err)
	}
	if err := enc.WriteUint64(uint64(len(d.data)), bin.LE); err != nil {
		return cw.n, fmt.Errorf("failed to write stream length: %w", err)
	}
	if _, err := enc.Write(d.data); err != nil {
		return cw.n, fmt.Errorf("failed to write stream: %w", err)
	}
	numPointers := d.NumBuckets() + 1
	if err := enc.WriteUint64(numPointers, bin.LE); err != nil {
		return cw.n, fmt.Errorf("failed to write pointer count: %w", err)
	}
	if err := enc.WriteUint8(uint8(d.ptrWidth)); err != nil {
		return cw.n, fmt.Errorf("failed to write pointer width: %w", err)
	}
	if _, err := enc.Write(d.ptrs); err != nil {
		return cw.n, fmt.Errorf("failed to write pointer table: %w", err)
	}
	return cw.n, nil
}

// Read loads a serialized dictionary from r and validates it. Violations of
// the format are reported as errors matching ErrCorrupt; read failures from
// r are passed through wrapped.
func Read(r io.Reader) (*Dict, error) {
	started := time.Now()

	head := make([]byte, fixedHeaderLen)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	dec := bin.NewBorshDecoder(head)
	magic := make([]byte, 8)
	if _, err := dec.Read(magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, ErrInvalidMagic
	}
	version, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d (want %d)", ErrCorrupt, version, Version)
	}
	numKeys, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("failed to read key count: %w", err)
	}
	bucketSize, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket size: %w", err)
	}
	if bucketSize == 0 || bits.OnesCount64(bucketSize) != 1 {
		return nil, fmt.Errorf("%w: bucket size %d is not a power of two", ErrCorrupt, bucketSize)
	}
	streamLen, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream length: %w", err)
	}
	if streamLen > math.MaxInt {
		return nil, fmt.Errorf("%w: stream length %d does not fit in memory", ErrCorrupt, streamLen)
	}

	data := make([]byte, streamLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	tail := make([]byte, fixedTrailerLen)
	if _, err := io.ReadFull(r, tail); err != nil {
		return nil, fmt.Errorf("failed to read trailer: %w", err)
	}
	dec = bin.NewBorshDecoder(tail)
	numPointers, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("failed to read pointer count: %w", err)
	}
	widthByte, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read pointer width: %w", err)
	}
	width := int(widthByte)
	if width < 1 || width > 8 {
		return nil, fmt.Errorf("%w: pointer width %d out of range [1,8]", ErrCorrupt, width)
	}
	if want := numBucketsFor(numKeys, bucketSize) + 1; numPointers != want {
		return nil, fmt.Errorf("%w: pointer count %d does not match %d keys with bucket size %d (want %d)",
			ErrCorrupt, numPointers, numKeys, bucketSize, want)
	}
	if numPointers > math.MaxInt/uint64(width) {
		return nil, fmt.Errorf("%w: pointer table of %d entries does not fit in memory", ErrCorrupt, numPointers)
	}

	ptrs := make([]byte, int(numPointers)*width)
	if _, err := io.ReadFull(r, ptrs); err != nil {
		return nil, fmt.Errorf("failed to read pointer table: %w", err)
	}

	d := &Dict{
		data:       data,
		ptrs:       ptrs,
		ptrWidth:   width,
		numKeys:    numKeys,
		bucketSize: bucketSize,
	}
	if err := d.validatePointers(numPointers, streamLen); err != nil {
		return nil, err
	}

	log.Debugf("loaded dictionary: %d keys in %d buckets, %s total, took %s",
		d.numKeys, d.NumBuckets(), humanize.Bytes(d.SizeInBytes()), time.Since(started))
	return d, nil
}

// validatePointers checks the pointer-table invariants: first entry zero,
// last entry equal to the stream length, strictly increasing in between.
func (d *Dict) validatePointers(numPointers, streamLen uint64) error {
	if d.ptr(0) != 0 {
		return fmt.Errorf("%w: first pointer is %d, want 0", ErrCorrupt, d.ptr(0))
	}
	if last := d.ptr(numPointers - 1); last != streamLen {
		return fmt.Errorf("%w: last pointer is %d, want stream length %d", ErrCorrupt, last, streamLen)
	}
	for i := uint64(1); i < numPointers; i++ {
		if d.ptr(i) <= d.ptr(i-1) {
			return fmt.Errorf("%w: pointer table not strictly increasing at entry %d", ErrCorrupt, i)
		}
	}
	return nil
}
