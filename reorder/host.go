package reorder

import (
	"fmt"
	"log"
	"math"

	"github.com/james-bowman/sparse"
)

// Host coordinates the worker ranks through the phases of the pipeline:
// load -> partition -> distribute -> flatten -> reorder -> bounds -> cost.
// Each transition fires when a reduction over all ranks completes. The host
// is the only place with a global view, and the only globals it ever holds
// are the per-rank unique ID sets gathered for the ownership computation.
type Host struct {
	nranks int
	nUnits int
	bus    *Bus

	totalElem int
	peIDs     [][]int // unique old node IDs per rank, gathered by the merge
	total     int     // global unique node count
	avgCost   float64

	load        *Reducer[int]
	setup       *Reducer[int]
	distributed *Reducer[int]
	flattened   *Reducer[int]
	nodesLeft   int
	bounds      [][2]int
	boundsLeft  int
	costs       []float64
	costSum     *Reducer[float64]
	varSum      *Reducer[float64]

	result  *Result
	resLeft int
	done    bool
	err     error
}

func NewHost(nranks, nUnits int, bus *Bus) (h *Host) {
	h = &Host{
		nranks:     nranks,
		nUnits:     nUnits,
		bus:        bus,
		peIDs:      make([][]int, nranks),
		nodesLeft:  nranks,
		bounds:     make([][2]int, nranks),
		boundsLeft: nranks,
		costs:      make([]float64, nranks),
		resLeft:    nranks,
	}
	h.load = NewReducer(nranks, sumInt, func(total int) {
		h.totalElem = total
		log.Printf("Mesh graph read: %d tetrahedra across %d ranks", total, nranks)
	})
	h.setup = NewReducer(nranks, sumInt, func(int) {
		log.Printf("Partitioning into %d units", h.nUnits)
		h.bus.ToAllWorkers(partitionMsg{nUnits: h.nUnits})
	})
	h.distributed = NewReducer(nranks, sumInt, func(int) {
		h.bus.ToAllWorkers(flattenMsg{})
	})
	h.flattened = NewReducer(nranks, sumInt, func(int) {
		log.Printf("Unique local node IDs known on all ranks")
	})
	h.costSum = NewReducer(nranks, sumFloat, func(sum float64) {
		h.avgCost = sum / float64(nranks)
		h.bus.ToAllWorkers(avgCostMsg{avg: h.avgCost})
	})
	h.varSum = NewReducer(nranks, sumFloat, func(sum float64) {
		std := math.Sqrt(sum / float64(nranks))
		h.report(std)
		h.result = &Result{
			TotalElements: h.totalElem,
			TotalNodes:    h.total,
			NUnits:        h.nUnits,
			Bounds:        h.bounds,
			NewID:         make([]map[int]int, nranks),
			UnitNodes:     make(map[int][]int),
			UnitOldID:     make(map[int]map[int]int),
			Costs:         h.costs,
			AvgCost:       h.avgCost,
			StdDevCost:    std,
		}
		h.bus.ToAllWorkers(collectMsg{})
	})
	return
}

// Run drives the phases to completion and returns the assembled result
func (h *Host) Run() (*Result, error) {
	for !h.done {
		switch m := h.bus.host.Receive().(type) {
		case loadMsg:
			h.load.Contribute(m.nelem)
		case setupMsg:
			h.setup.Contribute(0)
		case distributedMsg:
			h.distributed.Contribute(0)
		case flattenedMsg:
			h.flattened.Contribute(0)
		case nodesMsg:
			h.mergeNodes(m)
		case boundsMsg:
			h.bounds[m.from] = [2]int{m.lower, m.upper}
			h.boundsLeft--
			if h.boundsLeft == 0 {
				log.Printf("Row bounds ready across %d ranks", h.nranks)
			}
		case costMsg:
			h.costs[m.from] = m.cost
			h.costSum.Contribute(m.cost)
		case varMsg:
			h.varSum.Contribute(m.v)
		case resultMsg:
			h.collect(m)
		case errorMsg:
			h.err = m.err
			h.bus.ToAllWorkers(abortMsg{})
			h.done = true
		default:
			panic(fmt.Sprintf("host: unexpected message %T", m))
		}
	}
	if h.err != nil {
		return nil, h.err
	}
	return h.result, nil
}

// mergeNodes gathers each rank's unique old-ID set; once all are in, it
// computes ID ownership, new-ID offsets and the communication maps, then
// starts the reordering phase on every rank
func (h *Host) mergeNodes(m nodesMsg) {
	h.peIDs[m.from] = m.ids
	h.nodesLeft--
	if h.nodesLeft > 0 {
		return
	}

	ownerOf, offsets, comms := computeOwnership(h.peIDs)
	h.total = len(ownerOf)
	log.Printf("Nodes merged: %d unique mesh nodes", h.total)

	for rank := 0; rank < h.nranks; rank++ {
		h.bus.ToWorker(rank, reorderMsg{
			offset: offsets[rank],
			comm:   comms[rank],
			total:  h.total,
		})
	}
}

// computeOwnership resolves, from the per-rank unique old-ID sets, which
// rank assigns each ID's new value. An old ID is assigned by the first
// rank, in rank order, that contributes it: a global, deterministic
// tie-break that never depends on message arrival order. Returns the
// ID->assigner map, the first new ID each rank hands out, and per rank the
// communication map assigning-peer -> old IDs to request from it. The
// peIDs slices are sorted, so the request sets come out sorted too.
func computeOwnership(peIDs [][]int) (ownerOf map[int]int, offsets []int,
	comms []map[int][]int) {
	nranks := len(peIDs)
	ownerOf = make(map[int]int)
	owned := make([]int, nranks)
	for rank := 0; rank < nranks; rank++ {
		for _, id := range peIDs[rank] {
			if _, claimed := ownerOf[id]; !claimed {
				ownerOf[id] = rank
				owned[rank]++
			}
		}
	}
	// Contiguous new-ID blocks per rank: rank r assigns
	// [offsets[r], offsets[r]+owned[r])
	offsets = make([]int, nranks)
	comms = make([]map[int][]int, nranks)
	offset := 0
	for rank := 0; rank < nranks; rank++ {
		offsets[rank] = offset
		offset += owned[rank]
		comm := make(map[int][]int)
		for _, id := range peIDs[rank] {
			if o := ownerOf[id]; o != rank {
				comm[o] = append(comm[o], id)
			}
		}
		comms[rank] = comm
	}
	return
}

// collect folds one worker's final payload into the result
func (h *Host) collect(m resultMsg) {
	h.result.NewID[m.from] = m.newID
	for unit, ids := range m.unitNodes {
		h.result.UnitNodes[unit] = ids
	}
	for unit, inv := range m.unitOldID {
		h.result.UnitOldID[unit] = inv
	}
	h.resLeft--
	if h.resLeft == 0 {
		h.done = true
	}
}

// report logs the partition quality: per-rank row ranges and costs, the
// mean/stddev of the communication cost, and the rank-to-rank shared-node
// matrix
func (h *Host) report(std float64) {
	log.Printf("Communication cost: mean %.4f, stddev %.4f", h.avgCost, std)
	for rank := 0; rank < h.nranks; rank++ {
		log.Printf("  rank %d: rows [%d,%d), cost %.4f",
			rank, h.bounds[rank][0], h.bounds[rank][1], h.costs[rank])
	}

	shared := h.sharedNodeMatrix()
	for p := 0; p < h.nranks; p++ {
		for q := p + 1; q < h.nranks; q++ {
			if n := shared.At(p, q); n > 0 {
				log.Printf("  rank %d <-> %d: %d shared nodes", p, q, int(n))
			}
		}
	}
}

// sharedNodeMatrix counts boundary nodes shared by each rank pair
func (h *Host) sharedNodeMatrix() *sparse.CSR {
	dok := sparse.NewDOK(h.nranks, h.nranks)
	claimers := make(map[int][]int)
	for rank, ids := range h.peIDs {
		for _, id := range ids {
			claimers[id] = append(claimers[id], rank)
		}
	}
	for _, ranks := range claimers {
		for i := 0; i < len(ranks); i++ {
			for j := i + 1; j < len(ranks); j++ {
				p, q := ranks[i], ranks[j]
				dok.Set(p, q, dok.At(p, q)+1)
				dok.Set(q, p, dok.At(q, p)+1)
			}
		}
	}
	return dok.ToCSR()
}

// Result is the final output of a run: everything a downstream distributed
// linear-system assembly needs to create its work units.
type Result struct {
	TotalElements int
	TotalNodes    int
	NUnits        int
	Bounds        [][2]int            // exclusive row range [lower,upper) per rank
	NewID         []map[int]int       // per rank: old -> new for contributed IDs
	UnitNodes     map[int][]int       // unit -> new node IDs its elements reference
	UnitOldID     map[int]map[int]int // unit -> new -> old
	Costs         []float64
	AvgCost       float64
	StdDevCost    float64
}
