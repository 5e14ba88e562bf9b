package partition

import "fmt"

// Algorithm selects the element partitioning strategy
type Algorithm int

const (
	// RCB is recursive coordinate bisection, geometric
	RCB Algorithm = iota
	// RIB is recursive inertial bisection, geometric
	RIB
	// Block assigns contiguous element blocks, no geometry needed
	Block
)

func (a Algorithm) String() string {
	return [...]string{"RCB", "RIB", "Block"}[a]
}

// Geometric reports whether the algorithm needs element centroids
func (a Algorithm) Geometric() bool {
	return a == RCB || a == RIB
}

func AlgorithmFromString(s string) (Algorithm, error) {
	switch s {
	case "rcb", "RCB":
		return RCB, nil
	case "rib", "RIB":
		return RIB, nil
	case "block", "Block":
		return Block, nil
	}
	return 0, fmt.Errorf("unknown partitioning algorithm %q, want rcb, rib or block", s)
}

// Oracle assigns an owning partition unit to every element of a caller's
// mesh chunk. From the renumbering pipeline's point of view this is a black
// box: a failure is fatal and unrecoverable.
//
// centroids holds x/y/z centroid coordinates per local element; it may be
// nil for non-geometric algorithms. globalElemIDs gives the global element
// ID per local element. The returned slice has one unit ID in [0, nUnits)
// per local element.
type Oracle interface {
	Partition(centroids [3][]float64, globalElemIDs []int, nUnits int) ([]int, error)
}
