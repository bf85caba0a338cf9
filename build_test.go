package fcsd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilderBucketSize(t *testing.T) {
	for _, bad := range []uint64{0, 3, 5, 6, 7, 9, 12, 100} {
		_, err := NewBuilder(bad)
		assert.ErrorIs(t, err, ErrInvalidBucketSize, "bucket size %d", bad)
	}
	for _, good := range []uint64{1, 2, 4, 8, 64, 1024} {
		b, err := NewBuilder(good)
		require.NoError(t, err, "bucket size %d", good)
		require.NotNil(t, b)
	}
}

func TestBuilderRejectsBadKeys(t *testing.T) {
	{
		b, err := NewBuilder(4)
		require.NoError(t, err)
		assert.ErrorIs(t, b.Add(nil), ErrEmptyKey)
		assert.ErrorIs(t, b.Add([]byte{}), ErrEmptyKey)
	}
	{
		b, err := NewBuilder(4)
		require.NoError(t, err)
		assert.ErrorIs(t, b.Add([]byte("a\x00b")), ErrKeyContainsNul)
		assert.ErrorIs(t, b.Add([]byte{0x00}), ErrKeyContainsNul)
	}
	{
		// Reversed order.
		_, err := Build(4, [][]byte{[]byte("b"), []byte("a")})
		assert.ErrorIs(t, err, &NotSortedError{})
	}
	{
		// Duplicate.
		_, err := Build(4, [][]byte{[]byte("a"), []byte("a")})
		assert.ErrorIs(t, err, &NotSortedError{})
	}
}

func TestBuilderErrorDetail(t *testing.T) {
	b, err := NewBuilder(8)
	require.NoError(t, err)
	require.NoError(t, b.Add([]byte("idea")))
	err = b.Add([]byte("idea"))
	var notSorted *NotSortedError
	require.True(t, errors.As(err, &notSorted))
	assert.Equal(t, uint64(1), notSorted.Index)
	assert.Equal(t, []byte("idea"), notSorted.Prev)
	assert.Equal(t, []byte("idea"), notSorted.Key)
}

func TestBuilderErrorIsFatal(t *testing.T) {
	// The first rejection poisons the build: no later Add recovers it, and
	// Seal never hands out a partial dictionary.
	b, err := NewBuilder(4)
	require.NoError(t, err)
	require.NoError(t, b.Add([]byte("deal")))

	first := b.Add([]byte("deal"))
	require.ErrorIs(t, first, &NotSortedError{})

	assert.Equal(t, first, b.Add([]byte("dear")))

	d, err := b.Seal()
	assert.Nil(t, d)
	assert.Equal(t, first, err)
}

func TestBuilderLen(t *testing.T) {
	b, err := NewBuilder(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b.Len())
	require.NoError(t, b.Add([]byte("a")))
	require.NoError(t, b.Add([]byte("b")))
	require.NoError(t, b.Add([]byte("c")))
	assert.Equal(t, uint64(3), b.Len())
}

func TestBuildEmpty(t *testing.T) {
	d, err := Build(8, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), d.Len())
	assert.Equal(t, uint64(0), d.NumBuckets())

	_, ok := d.Locate([]byte("anything"))
	assert.False(t, ok)
	_, ok = d.Decode(0)
	assert.False(t, ok)
}

func TestPointerWidth(t *testing.T) {
	assert.Equal(t, 1, pointerWidth(0))
	assert.Equal(t, 1, pointerWidth(1))
	assert.Equal(t, 1, pointerWidth(255))
	assert.Equal(t, 2, pointerWidth(256))
	assert.Equal(t, 2, pointerWidth(65535))
	assert.Equal(t, 3, pointerWidth(65536))
	assert.Equal(t, 8, pointerWidth(1<<56))
}

func TestCommonPrefixLen(t *testing.T) {
	assert.Equal(t, 0, commonPrefixLen([]byte("abc"), []byte("xyz")))
	assert.Equal(t, 3, commonPrefixLen([]byte("abc"), []byte("abc")))
	assert.Equal(t, 4, commonPrefixLen([]byte("idea"), []byte("ideal")))
	assert.Equal(t, 4, commonPrefixLen([]byte("ideal"), []byte("idea")))
	assert.Equal(t, 0, commonPrefixLen(nil, []byte("a")))
}
