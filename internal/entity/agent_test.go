package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOrder(t *testing.T) {
	current := roster("a", "b", "c")

	t.Run("permutation", func(t *testing.T) {
		got, changed, err := ApplyOrder(current, []string{"c", "a", "b"})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "c", got[0].ID)
		assert.Equal(t, 0, got[0].OrderIndex)
		assert.Equal(t, 2, got[2].OrderIndex)
		assert.True(t, IsContiguous(got))
	})

	t.Run("same order is not a change", func(t *testing.T) {
		_, changed, err := ApplyOrder(current, []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("rejects partial lists", func(t *testing.T) {
		_, _, err := ApplyOrder(current, []string{"a", "b"})
		assert.ErrorIs(t, err, ErrInvalidOrder)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, _, err := ApplyOrder(current, []string{"a", "a", "b"})
		assert.ErrorIs(t, err, ErrInvalidOrder)
	})

	t.Run("rejects foreign ids", func(t *testing.T) {
		_, _, err := ApplyOrder(current, []string{"a", "b", "z"})
		assert.ErrorIs(t, err, ErrInvalidOrder)
	})
}

func TestRepack(t *testing.T) {
	agents := []Agent{{ID: "a", OrderIndex: 0}, {ID: "c", OrderIndex: 2}, {ID: "d", OrderIndex: 3}}
	assert.False(t, IsContiguous(agents))

	packed := Repack(agents)
	assert.True(t, IsContiguous(packed))
	assert.Equal(t, 2, agents[1].OrderIndex, "input must not be mutated")
}

func TestNewAgent_Validation(t *testing.T) {
	_, err := NewAgent("co", "  ", "123", 0)
	assert.Error(t, err)

	_, err = NewAgent("co", "Ana", "", 0)
	assert.Error(t, err)

	a, err := NewAgent("co", " Ana ", "123", 4)
	require.NoError(t, err)
	assert.Equal(t, "Ana", a.Name)
	assert.Equal(t, 4, a.OrderIndex)
	assert.NotEmpty(t, a.ID)
}
