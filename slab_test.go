package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlabInsertGetRemove(t *testing.T) {
	s := NewSlab[string](100, 4)

	tok1, err := s.Insert("a")
	require.NoError(t, err)
	assert.Equal(t, Token(100), tok1)

	tok2, err := s.Insert("b")
	require.NoError(t, err)
	assert.Equal(t, Token(101), tok2)

	v, ok := s.Get(tok1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	assert.True(t, s.Contains(tok2))
	assert.Equal(t, 2, s.Len())

	removed, err := s.Remove(tok1)
	require.NoError(t, err)
	assert.Equal(t, "a", removed)
	assert.False(t, s.Contains(tok1))
	assert.Equal(t, 1, s.Len())
}

func TestSlabFull(t *testing.T) {
	s := NewSlab[int](0, 2)
	_, err := s.Insert(1)
	require.NoError(t, err)
	_, err = s.Insert(2)
	require.NoError(t, err)

	_, err = s.Insert(3)
	assert.ErrorIs(t, err, ErrSlabFull)
	assert.Equal(t, 2, s.Len())
}

func TestSlabTokenReuseAfterRemove(t *testing.T) {
	s := NewSlab[int](0, 1)
	tok, err := s.Insert(42)
	require.NoError(t, err)

	_, err = s.Insert(99)
	assert.ErrorIs(t, err, ErrSlabFull)

	_, err = s.Remove(tok)
	require.NoError(t, err)

	tok2, err := s.Insert(7)
	require.NoError(t, err)
	assert.Equal(t, tok, tok2, "freed token should be reused before growing")
}

func TestSlabReplaceIsVacateAndRestore(t *testing.T) {
	s := NewSlab[string](0, 2)
	tok, err := s.Insert("original")
	require.NoError(t, err)

	prev, err := s.Replace(tok, "vacant-sentinel")
	require.NoError(t, err)
	assert.Equal(t, "original", prev)

	v, ok := s.Get(tok)
	require.True(t, ok)
	assert.Equal(t, "vacant-sentinel", v)

	prev2, err := s.Replace(tok, "original")
	require.NoError(t, err)
	assert.Equal(t, "vacant-sentinel", prev2)
}

func TestSlabOutOfRange(t *testing.T) {
	s := NewSlab[int](50, 10)
	assert.False(t, s.InRange(49))
	assert.True(t, s.InRange(50))
	assert.True(t, s.InRange(59))
	assert.False(t, s.InRange(60))

	_, err := s.Remove(5)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)

	_, err = s.Replace(5, 1)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)
}

func TestSlabGetPtrMutatesInPlace(t *testing.T) {
	type counter struct{ n int }
	s := NewSlab[counter](0, 1)
	tok, err := s.Insert(counter{n: 1})
	require.NoError(t, err)

	p := s.GetPtr(tok)
	require.NotNil(t, p)
	p.n++

	v, _ := s.Get(tok)
	assert.Equal(t, 2, v.n)
}
