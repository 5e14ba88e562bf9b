package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnique(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Unique([]int{3, 1, 2, 1, 3, 3}))
	assert.Equal(t, []int{7}, Unique([]int{7, 7, 7}))
	assert.Empty(t, Unique(nil))
}

func TestSortedKeys(t *testing.T) {
	m := map[int]string{5: "e", 1: "a", 3: "c"}
	assert.Equal(t, []int{1, 3, 5}, SortedKeys(m))
}
