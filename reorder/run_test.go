package reorder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"

	"github.com/notargets/tetpart/mesh"
	"github.com/notargets/tetpart/partition"
)

// scenarioMesh is a 20-node, 8-tet chain: rank r's two units reference
// nodes 5r..5r+4 plus, for r > 0, node 5r-1 shared with the previous rank.
// With the identity oracle below and 4 ranks at virtualization 0.5, every
// rank first-claims exactly 5 nodes.
func scenarioMesh() *mesh.Mesh {
	m := mesh.NewMesh()
	for n := 0; n < 20; n++ {
		m.Vertices = append(m.Vertices, []float64{float64(n), 0, 0})
	}
	m.NumVertices = 20
	m.AddTet([4]int{0, 1, 2, 3})
	m.AddTet([4]int{1, 2, 3, 4})
	m.AddTet([4]int{4, 5, 6, 7})
	m.AddTet([4]int{6, 7, 8, 9})
	m.AddTet([4]int{9, 10, 11, 12})
	m.AddTet([4]int{11, 12, 13, 14})
	m.AddTet([4]int{14, 15, 16, 17})
	m.AddTet([4]int{16, 17, 18, 19})
	return m
}

// stubOracle deterministically maps global element e to unit f(e)
type stubOracle struct {
	f func(e int) int
}

func (o stubOracle) Partition(_ [3][]float64, gelem []int, _ int) ([]int, error) {
	out := make([]int, len(gelem))
	for i, e := range gelem {
		out[i] = o.f(e)
	}
	return out, nil
}

// checkGlobalProperties asserts the renumbering invariants that hold for
// every run: full coverage of {0..total-1}, a gapless bounds chain, per-unit
// old/new round-trips and costs in [0,1]
func checkGlobalProperties(t *testing.T, res *Result, nranks int) {
	t.Helper()

	// Coverage and contiguity: the new IDs contributed across all units are
	// exactly {0..TotalNodes-1}
	seen := make(map[int]bool)
	for _, ids := range res.UnitNodes {
		for _, id := range ids {
			assert.True(t, id >= 0 && id < res.TotalNodes, "new ID %d out of range", id)
			seen[id] = true
		}
	}
	assert.Equal(t, res.TotalNodes, len(seen), "new IDs have gaps")

	// Bounds partition [0,total) in rank order with no gaps or overlaps
	assert.Equal(t, 0, res.Bounds[0][0])
	for r := 0; r < nranks-1; r++ {
		assert.Equal(t, res.Bounds[r][1], res.Bounds[r+1][0],
			"bounds gap between rank %d and %d", r, r+1)
	}
	assert.Equal(t, res.TotalNodes, res.Bounds[nranks-1][1])

	// Round-trip: new -> old via the unit inverse map, old -> new via the
	// owning rank's map
	for unit, ids := range res.UnitNodes {
		rank := unitOwner(unit, res.NUnits, nranks)
		for _, newid := range ids {
			old, ok := res.UnitOldID[unit][newid]
			assert.True(t, ok, "unit %d: new ID %d missing from inverse map", unit, newid)
			assert.Equal(t, newid, res.NewID[rank][old])
		}
	}

	// Costs are fractions, and their aggregates match the reductions
	for _, c := range res.Costs {
		assert.True(t, c >= 0 && c <= 1, "cost %g outside [0,1]", c)
	}
	assert.InDelta(t, stat.Mean(res.Costs, nil), res.AvgCost, 1e-12)
	var ss float64
	for _, c := range res.Costs {
		ss += (c - res.AvgCost) * (c - res.AvgCost)
	}
	assert.InDelta(t, math.Sqrt(ss/float64(nranks)), res.StdDevCost, 1e-12)
}

func TestFourRankScenario(t *testing.T) {
	cfg := Config{NumRanks: 4, Virtualization: 0.5, Algorithm: partition.Block}
	assert.Equal(t, 8, cfg.NumUnits())

	res, err := Run(cfg, mesh.NewMeshReader(scenarioMesh()),
		stubOracle{f: func(e int) int { return e }})
	assert.NoError(t, err)

	assert.Equal(t, 8, res.TotalElements)
	assert.Equal(t, 20, res.TotalNodes)
	assert.Equal(t, [][2]int{{0, 5}, {5, 10}, {10, 15}, {15, 20}}, res.Bounds)
	checkGlobalProperties(t, res, 4)

	// The mesh is numbered contiguously by rank already, so the
	// renumbering is the identity
	for rank := 0; rank < 4; rank++ {
		for old, newid := range res.NewID[rank] {
			assert.Equal(t, old, newid)
		}
	}

	// Each shared node is assigned by its lower rank and learned by the
	// higher one
	for _, shared := range []int{4, 9, 14} {
		owner := shared / 5
		assert.Contains(t, res.NewID[owner], shared)
		assert.Contains(t, res.NewID[owner+1], shared)
	}

	// Rank 0 owns every node it references; the others each reach back for
	// exactly one of their six
	assert.Equal(t, 0.0, res.Costs[0])
	for r := 1; r < 4; r++ {
		assert.InDelta(t, 1.0/6.0, res.Costs[r], 1e-12)
	}
}

// TestFourRankScenarioRotated shifts every element two units over, so each
// rank reads elements whose units live on another rank. This exercises the
// cross-rank node distribution, the acknowledgement counting and requests
// flowing in both directions; the global invariants must still hold.
func TestFourRankScenarioRotated(t *testing.T) {
	cfg := Config{NumRanks: 4, Virtualization: 0.5, Algorithm: partition.Block}

	res, err := Run(cfg, mesh.NewMeshReader(scenarioMesh()),
		stubOracle{f: func(e int) int { return (e + 2) % 8 }})
	assert.NoError(t, err)

	assert.Equal(t, 20, res.TotalNodes)
	checkGlobalProperties(t, res, 4)

	// Rank 0's units now hold the tail of the chain, so it first-claims
	// six nodes and the chain shifts accordingly
	assert.Equal(t, [][2]int{{0, 6}, {6, 11}, {11, 16}, {16, 20}}, res.Bounds)
}

func TestSingleRank(t *testing.T) {
	m := mesh.BarMesh(4)
	cfg := Config{NumRanks: 1, Virtualization: 0, Algorithm: partition.RCB}
	oracle := partition.NewGeometric(partition.RCB, 1, m.NumElements)

	res, err := Run(cfg, mesh.NewMeshReader(m), oracle)
	assert.NoError(t, err)

	assert.Equal(t, 20, res.TotalNodes)
	assert.Equal(t, [][2]int{{0, 20}}, res.Bounds)
	checkGlobalProperties(t, res, 1)

	// Everything is owned locally
	assert.Equal(t, 0.0, res.Costs[0])
	assert.Equal(t, 0.0, res.AvgCost)
	assert.Equal(t, 0.0, res.StdDevCost)
}

func TestThreeRanksGeometricOracle(t *testing.T) {
	m := mesh.BarMesh(8)
	cfg := Config{NumRanks: 3, Virtualization: 0.25, Algorithm: partition.RCB}
	assert.Equal(t, 4, cfg.NumUnits())
	oracle := partition.NewGeometric(partition.RCB, 3, m.NumElements)

	res, err := Run(cfg, mesh.NewMeshReader(m), oracle)
	assert.NoError(t, err)

	assert.Equal(t, 48, res.TotalElements)
	assert.Equal(t, 36, res.TotalNodes)
	assert.Equal(t, 4, res.NUnits)
	checkGlobalProperties(t, res, 3)
}

func TestOverdecompositionIsConfigurationError(t *testing.T) {
	m := mesh.BarMesh(1) // 6 elements cannot feed 10 units
	cfg := Config{NumRanks: 1, Virtualization: 0.9, Algorithm: partition.Block}
	oracle := partition.NewGeometric(partition.Block, 1, m.NumElements)

	_, err := Run(cfg, mesh.NewMeshReader(m), oracle)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overdecomposition")
}

func TestMoreRanksThanElements(t *testing.T) {
	m := mesh.SingleTetMesh()
	cfg := Config{NumRanks: 2, Virtualization: 0, Algorithm: partition.Block}
	oracle := partition.NewGeometric(partition.Block, 2, m.NumElements)

	_, err := Run(cfg, mesh.NewMeshReader(m), oracle)
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	_, err := Run(Config{NumRanks: 0}, nil, nil)
	assert.Error(t, err)
	_, err = Run(Config{NumRanks: 2, Virtualization: 1.0}, nil, nil)
	assert.Error(t, err)
	_, err = Run(Config{NumRanks: 2, Virtualization: -0.1}, nil, nil)
	assert.Error(t, err)
}
