package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeOwnership(t *testing.T) {
	peIDs := [][]int{
		{0, 1, 2},
		{1, 2, 3},
		{2, 3, 4},
	}
	ownerOf, offsets, comms := computeOwnership(peIDs)

	// Lowest-rank claimer wins
	assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 0, 3: 1, 4: 2}, ownerOf)
	assert.Equal(t, []int{0, 3, 4}, offsets)

	// Each shared ID appears in exactly one requester entry per non-owning
	// claimer, addressed at the assigning rank
	assert.Empty(t, comms[0])
	assert.Equal(t, map[int][]int{0: {1, 2}}, comms[1])
	assert.Equal(t, map[int][]int{0: {2}, 1: {3}}, comms[2])
}

func TestComputeOwnershipDisjoint(t *testing.T) {
	peIDs := [][]int{{10, 11}, {20, 21, 22}}
	ownerOf, offsets, comms := computeOwnership(peIDs)
	assert.Len(t, ownerOf, 5)
	assert.Equal(t, []int{0, 2}, offsets)
	assert.Empty(t, comms[0])
	assert.Empty(t, comms[1])
}

func TestSharedNodeMatrix(t *testing.T) {
	h := NewHost(3, 3, NewBus(3))
	h.peIDs = [][]int{
		{0, 1, 2},
		{1, 2, 3},
		{2, 3, 4},
	}
	m := h.sharedNodeMatrix()
	assert.Equal(t, 2.0, m.At(0, 1)) // IDs 1, 2
	assert.Equal(t, 1.0, m.At(0, 2)) // ID 2
	assert.Equal(t, 2.0, m.At(1, 2)) // IDs 2, 3
	assert.Equal(t, m.At(1, 0), m.At(0, 1))
	assert.Equal(t, 0.0, m.At(0, 0))
}

func TestReducerFiresOnce(t *testing.T) {
	var fired int
	var result int
	r := NewReducer(3, sumInt, func(sum int) {
		fired++
		result = sum
	})
	r.Contribute(5)
	assert.False(t, r.Done())
	r.Contribute(7)
	r.Contribute(1)
	assert.True(t, r.Done())
	assert.Equal(t, 1, fired)
	assert.Equal(t, 13, result)
}
