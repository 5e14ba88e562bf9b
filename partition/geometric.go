package partition

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Geometric is a collective Oracle: every rank calls Partition with its own
// element chunk, the last caller computes one global decomposition, and each
// call returns the unit owners for its chunk. This mirrors how parallel
// geometric partitioners are driven: all ranks enter the call together and
// each leaves with its local slice of the answer.
type Geometric struct {
	alg    Algorithm
	nranks int
	nelem  int

	mu      sync.Mutex
	cx      []float64
	cy      []float64
	cz      []float64
	calls   int
	part    []int // unit owner per global element
	partErr error
	done    chan struct{}
}

func NewGeometric(alg Algorithm, nranks, nelem int) *Geometric {
	return &Geometric{
		alg:    alg,
		nranks: nranks,
		nelem:  nelem,
		cx:     make([]float64, nelem),
		cy:     make([]float64, nelem),
		cz:     make([]float64, nelem),
		done:   make(chan struct{}),
	}
}

func (g *Geometric) Partition(centroids [3][]float64, globalElemIDs []int,
	nUnits int) ([]int, error) {
	g.mu.Lock()
	if g.alg.Geometric() {
		for i, ge := range globalElemIDs {
			if ge < 0 || ge >= g.nelem {
				g.mu.Unlock()
				return nil, fmt.Errorf("global element ID %d outside [0,%d)", ge, g.nelem)
			}
			g.cx[ge] = centroids[0][i]
			g.cy[ge] = centroids[1][i]
			g.cz[ge] = centroids[2][i]
		}
	}
	g.calls++
	if g.calls == g.nranks {
		g.part, g.partErr = globalPartition(g.alg, g.cx, g.cy, g.cz, g.nelem, nUnits)
		close(g.done)
	}
	g.mu.Unlock()

	<-g.done
	if g.partErr != nil {
		return nil, g.partErr
	}
	out := make([]int, len(globalElemIDs))
	for i, ge := range globalElemIDs {
		out[i] = g.part[ge]
	}
	return out, nil
}

// globalPartition decomposes all nelem elements into nUnits parts
func globalPartition(alg Algorithm, cx, cy, cz []float64, nelem,
	nUnits int) ([]int, error) {
	if nUnits < 1 {
		return nil, fmt.Errorf("cannot partition into %d units", nUnits)
	}
	part := make([]int, nelem)
	switch alg {
	case Block:
		for e := 0; e < nelem; e++ {
			part[e] = e * nUnits / nelem
		}
	case RCB, RIB:
		idx := make([]int, nelem)
		for i := range idx {
			idx[i] = i
		}
		bisect(alg, cx, cy, cz, idx, 0, nUnits, part)
	default:
		return nil, fmt.Errorf("unsupported algorithm %s", alg)
	}
	return part, nil
}

// bisect recursively assigns units [unitLo, unitHi) to the elements in idx,
// splitting element counts proportionally to the unit counts on either side
// so non-power-of-two unit counts stay balanced
func bisect(alg Algorithm, cx, cy, cz []float64, idx []int, unitLo,
	unitHi int, part []int) {
	nu := unitHi - unitLo
	if nu == 1 {
		for _, e := range idx {
			part[e] = unitLo
		}
		return
	}

	var proj []float64
	switch alg {
	case RCB:
		proj = widestAxisProjection(cx, cy, cz, idx)
	case RIB:
		proj = principalAxisProjection(cx, cy, cz, idx)
	}

	// Sort by projection, ties broken by element ID for determinism
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := idx[a], idx[b]
		if proj[ea] != proj[eb] {
			return proj[ea] < proj[eb]
		}
		return ea < eb
	})

	nl := nu / 2
	cut := len(idx) * nl / nu
	bisect(alg, cx, cy, cz, idx[:cut], unitLo, unitLo+nl, part)
	bisect(alg, cx, cy, cz, idx[cut:], unitLo+nl, unitHi, part)
}

// widestAxisProjection returns projections indexed by global element ID:
// the coordinate along the axis with the largest extent over idx
func widestAxisProjection(cx, cy, cz []float64, idx []int) []float64 {
	axes := [3][]float64{cx, cy, cz}
	best, bestExtent := 0, -1.0
	for d, ax := range axes {
		lo, hi := ax[idx[0]], ax[idx[0]]
		for _, e := range idx {
			if ax[e] < lo {
				lo = ax[e]
			}
			if ax[e] > hi {
				hi = ax[e]
			}
		}
		if hi-lo > bestExtent {
			best, bestExtent = d, hi-lo
		}
	}
	return axes[best]
}

// principalAxisProjection returns projections indexed by global element ID:
// the idx centroids projected onto the principal axis of their inertia
// tensor. Entries outside idx are left zero and never read.
func principalAxisProjection(cx, cy, cz []float64, idx []int) []float64 {
	var mean [3]float64
	for _, e := range idx {
		mean[0] += cx[e]
		mean[1] += cy[e]
		mean[2] += cz[e]
	}
	n := float64(len(idx))
	mean[0] /= n
	mean[1] /= n
	mean[2] /= n

	// Scatter matrix of the centroid cloud
	var s [3][3]float64
	for _, e := range idx {
		d := [3]float64{cx[e] - mean[0], cy[e] - mean[1], cz[e] - mean[2]}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				s[i][j] += d[i] * d[j]
			}
		}
	}
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, s[i][j])
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		// Degenerate cloud, fall back to the widest coordinate axis
		return widestAxisProjection(cx, cy, cz, idx)
	}
	var ev mat.Dense
	eig.VectorsTo(&ev)
	// Eigenvalues are in ascending order, the principal axis is the last
	axis := [3]float64{ev.At(0, 2), ev.At(1, 2), ev.At(2, 2)}

	proj := make([]float64, len(cx))
	for _, e := range idx {
		proj[e] = axis[0]*cx[e] + axis[1]*cy[e] + axis[2]*cz[e]
	}
	return proj
}
