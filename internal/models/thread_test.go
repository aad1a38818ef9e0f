package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadIDCommutative(t *testing.T) {
	assert.Equal(t, ThreadID("u1", "u2"), ThreadID("u2", "u1"))
	assert.Equal(t, "u1_u2", ThreadID("u1", "u2"))
	assert.Equal(t, "u1_u2", ThreadID("u2", "u1"))
}

func TestThreadIDDeterministic(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"alpha", "beta"},
		{"9f2c", "0a1b"},
		{"b3f1c2d4-0000-4000-8000-000000000001", "a3f1c2d4-0000-4000-8000-000000000002"},
	}
	for _, p := range pairs {
		id1 := ThreadID(p[0], p[1])
		id2 := ThreadID(p[1], p[0])
		assert.Equal(t, id1, id2, "pair %v", p)
		assert.Equal(t, id1, ThreadID(p[0], p[1]))
	}
}

func TestThreadIDDistinctPairs(t *testing.T) {
	assert.NotEqual(t, ThreadID("u1", "u2"), ThreadID("u1", "u3"))
	assert.NotEqual(t, ThreadID("u1", "u2"), ThreadID("u2", "u3"))
}
