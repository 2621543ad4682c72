package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster(names ...string) []Agent {
	out := make([]Agent, len(names))
	for i, n := range names {
		out[i] = Agent{ID: n, Name: n, ChatID: "chat-" + n, OrderIndex: i}
	}
	return out
}

func TestPickNext_Cycles(t *testing.T) {
	agents := roster("a", "b", "c")

	pos := 0
	var got []string
	for i := 0; i < 7; i++ {
		p, err := PickNext(agents, pos)
		require.NoError(t, err)
		got = append(got, p.Agent.ID)
		pos = p.Next
	}

	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, got)
}

func TestPickNext_PositionOutOfRange(t *testing.T) {
	agents := roster("a", "b")

	t.Run("beyond roster size", func(t *testing.T) {
		p, err := PickNext(agents, 5)
		require.NoError(t, err)
		assert.Equal(t, "b", p.Agent.ID)
		assert.Equal(t, 0, p.Next)
	})

	t.Run("negative", func(t *testing.T) {
		p, err := PickNext(agents, -1)
		require.NoError(t, err)
		assert.Equal(t, "b", p.Agent.ID)
		assert.Equal(t, 1, p.Position)
	})
}

func TestPickNext_NoAgents(t *testing.T) {
	_, err := PickNext(nil, 3)
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestCursorAfterRemoval(t *testing.T) {
	tests := []struct {
		name                   string
		next, removed, newSize int
		want                   int
	}{
		{"removed before cursor", 2, 0, 3, 1},
		{"removed at cursor", 1, 1, 2, 1},
		{"removed after cursor", 1, 2, 2, 1},
		{"removed last wraps", 2, 2, 2, 0},
		{"roster emptied", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CursorAfterRemoval(tt.next, tt.removed, tt.newSize))
		})
	}
}
