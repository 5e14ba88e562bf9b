package utils

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	getHisto := func(K, Np int) (histo map[int]int) {
		pm := NewPartitionMap(Np, K)
		histo = make(map[int]int)
		for np := 0; np < pm.ParallelDegree; np++ {
			maxK := pm.GetBucketDimension(np)
			histo[maxK]++
		}
		return
	}
	getTotal := func(histo map[int]int) (total int) {
		for key, count := range histo {
			total += key * count
		}
		return
	}
	assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
	assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
	assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
	assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
	assert.Equal(t, 287, getTotal(getHisto(287, 32)))
	for n := 64; n < 2000; n++ {
		var (
			keys   [2]float64
			keyNum int
		)
		histo := getHisto(n, 32)
		for key := range histo {
			keys[keyNum] = float64(key)
			keyNum++
		}
		if keyNum == 2 {
			assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
		}
		assert.Equal(t, n, getTotal(histo))
	}
}

func TestPartitionMapGetBucket(t *testing.T) {
	for maxIndex := 10; maxIndex < 300; maxIndex++ {
		pm := NewPartitionMap(5, maxIndex)
		for k := 0; k < maxIndex; k++ {
			bn, min, max := pm.GetBucket(k)
			mmin, mmax := pm.GetBucketRange(bn)
			assert.True(t, k >= min && k < max && min == mmin && max == mmax)
		}
	}
}

func TestMailboxFIFOPerSender(t *testing.T) {
	mb := NewMailbox[[2]int]() // {sender, seq}
	const nsenders, nmsgs = 4, 200

	var wg sync.WaitGroup
	for s := 0; s < nsenders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < nmsgs; i++ {
				mb.Post([2]int{s, i})
			}
		}(s)
	}

	last := make([]int, nsenders)
	for i := range last {
		last[i] = -1
	}
	for n := 0; n < nsenders*nmsgs; n++ {
		m := mb.Receive()
		assert.Equal(t, last[m[0]]+1, m[1], "out of order from sender %d", m[0])
		last[m[0]] = m[1]
	}
	wg.Wait()
}
