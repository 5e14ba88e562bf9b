package reorder

import (
	"fmt"

	"github.com/notargets/tetpart/mesh"
	"github.com/notargets/tetpart/partition"
	"github.com/notargets/tetpart/utils"
)

// Worker is one rank of the renumbering pipeline. It owns its data
// structures exclusively; all cross-rank effects travel as messages through
// the bus. Handlers run to completion, one message at a time, so there is no
// locking anywhere in here.
type Worker struct {
	rank   int
	nranks int
	bus    *Bus
	inbox  *utils.Mailbox[any]
	reader mesh.GraphReader
	oracle partition.Oracle
	alg    partition.Algorithm

	conn     []int         // tet connectivity of our chunk, flat, 4 per element
	gelem    []int         // global element IDs of our chunk
	centroid [3][]float64  // element centroid coordinates of our chunk
	nUnits   int           // total partition units across all ranks
	pending  int           // outstanding acks for node groups sent to peers
	req      []requestMsg  // queued new-ID requests from peers
	node     map[int][]int // owned unit -> node IDs its elements reference

	ids       []int       // unique old node IDs our units contribute to
	newID     map[int]int // old -> new, for IDs we assign plus IDs learned
	reordered int         // how many of ids have a new ID so far
	ownedDone bool        // local assignment pass has run
	finished  bool        // reordering complete, bounds computed

	unitOldID map[int]map[int]int // owned unit -> new -> old

	total     int // global unique node count
	lower     int
	upper     int
	haveLower bool
	haveUpper bool
	reported  bool // bounds and cost sent to host
	cost      float64
}

func NewWorker(rank, nranks int, bus *Bus, reader mesh.GraphReader,
	oracle partition.Oracle, alg partition.Algorithm) *Worker {
	return &Worker{
		rank:      rank,
		nranks:    nranks,
		bus:       bus,
		inbox:     bus.workers[rank],
		reader:    reader,
		oracle:    oracle,
		alg:       alg,
		node:      make(map[int][]int),
		newID:     make(map[int]int),
		unitOldID: make(map[int]map[int]int),
	}
}

// Run reads this rank's mesh chunk and then serves messages until the host
// collects the result or aborts the run
func (w *Worker) Run() {
	if err := w.setup(); err != nil {
		w.bus.ToHost(errorMsg{from: w.rank, err: err})
		return
	}
	for {
		switch m := w.inbox.Receive().(type) {
		case partitionMsg:
			if err := w.partition(m.nUnits); err != nil {
				w.bus.ToHost(errorMsg{from: w.rank, err: err})
				return
			}
		case addNodesMsg:
			w.add(m)
		case ackMsg:
			w.recvAck()
		case flattenMsg:
			if err := w.flatten(); err != nil {
				w.bus.ToHost(errorMsg{from: w.rank, err: err})
				return
			}
		case reorderMsg:
			w.reorder(m)
		case requestMsg:
			w.request(m)
		case newOrderMsg:
			w.newOrder(m)
		case lowerMsg:
			w.setLower(m.lower)
		case avgCostMsg:
			w.bus.ToHost(varMsg{v: (w.cost - m.avg) * (w.cost - m.avg)})
		case collectMsg:
			w.collect()
			return
		case abortMsg:
			return
		default:
			panic(fmt.Sprintf("rank %d: unexpected message %T", w.rank, m))
		}
	}
}

// setup reads our contiguously-numbered chunk of the mesh graph and, for
// geometric partitioners, the node coordinates needed for element centroids
func (w *Worker) setup() (err error) {
	pm := utils.NewPartitionMap(w.nranks, w.reader.NumElements())
	from, till := pm.GetBucketRange(w.rank)
	if w.conn, err = w.reader.ReadElementRange(from, till); err != nil {
		return fmt.Errorf("rank %d: reading elements [%d,%d): %w",
			w.rank, from, till, err)
	}
	w.gelem = make([]int, till-from)
	for i := range w.gelem {
		w.gelem[i] = from + i
	}
	w.bus.ToHost(loadMsg{nelem: len(w.gelem)})

	if w.alg.Geometric() {
		if err = w.computeCentroids(); err != nil {
			return err
		}
	}
	w.bus.ToHost(setupMsg{})
	return nil
}

// computeCentroids fetches coordinates for the nodes our chunk references
// and averages them per element
func (w *Worker) computeCentroids() error {
	gid := make([]int, len(w.conn))
	copy(gid, w.conn)
	gid = utils.Unique(gid)
	coord, err := w.reader.ReadNodeCoordinates(gid)
	if err != nil {
		return fmt.Errorf("rank %d: reading node coordinates: %w", w.rank, err)
	}
	num := len(w.conn) / mesh.NodesPerTet
	for d := 0; d < 3; d++ {
		w.centroid[d] = make([]float64, num)
	}
	for e := 0; e < num; e++ {
		var c [3]float64
		for n := 0; n < mesh.NodesPerTet; n++ {
			xyz := coord[w.conn[e*mesh.NodesPerTet+n]]
			c[0] += xyz[0]
			c[1] += xyz[1]
			c[2] += xyz[2]
		}
		w.centroid[0][e] = c[0] / mesh.NodesPerTet
		w.centroid[1][e] = c[1] / mesh.NodesPerTet
		w.centroid[2][e] = c[2] / mesh.NodesPerTet
	}
	return nil
}

// partition asks the oracle for unit owners of our elements, groups node IDs
// by unit and routes the groups to their owning ranks
func (w *Worker) partition(nUnits int) error {
	w.nUnits = nUnits
	che, err := w.oracle.Partition(w.centroid, w.gelem, nUnits)
	if err != nil {
		return fmt.Errorf("rank %d: partition oracle: %w", w.rank, err)
	}
	if len(che) != len(w.gelem) {
		panic(fmt.Sprintf("rank %d: ownership array size %d does not equal "+
			"element count %d", w.rank, len(che), len(w.gelem)))
	}
	nodes, err := w.groupNodes(che)
	if err != nil {
		return err
	}
	w.distribute(nodes)
	return nil
}

// groupNodes categorizes the node IDs of our elements by the unit each
// element was assigned to. The unit IDs keyed here are whatever the oracle
// returned; they need not be owned by this rank.
func (w *Worker) groupNodes(che []int) (map[int][]int, error) {
	nodes := make(map[int][]int)
	for e, unit := range che {
		if unit < 0 || unit >= w.nUnits {
			panic(fmt.Sprintf("rank %d: element %d assigned to unit %d outside "+
				"[0,%d)", w.rank, w.gelem[e], unit, w.nUnits))
		}
		nodes[unit] = append(nodes[unit],
			w.conn[e*mesh.NodesPerTet:(e+1)*mesh.NodesPerTet]...)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("rank %d: no mesh elements to group; more ranks "+
			"than elements in the mesh", w.rank)
	}
	return nodes, nil
}

// distribute merges groups for units we own into our accumulator and sends
// the rest, one message per destination rank, counting the acknowledgements
// we now wait for
func (w *Worker) distribute(nodes map[int][]int) {
	exp := make(map[int]map[int][]int)
	for unit, ids := range nodes {
		dst := w.owner(unit)
		if dst == w.rank {
			w.node[unit] = append(w.node[unit], ids...)
		} else {
			if exp[dst] == nil {
				exp[dst] = make(map[int][]int)
			}
			exp[dst][unit] = ids
		}
	}
	w.pending = len(exp)
	for dst, groups := range exp {
		w.bus.ToWorker(dst, addNodesMsg{from: w.rank, groups: groups})
	}
	if w.pending == 0 {
		w.bus.ToHost(distributedMsg{})
	}
}

// add receives node groups for units we own and acknowledges the sender
func (w *Worker) add(m addNodesMsg) {
	for unit, ids := range m.groups {
		if w.owner(unit) != w.rank {
			panic(fmt.Sprintf("rank %d: received unit %d owned by rank %d from "+
				"rank %d", w.rank, unit, w.owner(unit), m.from))
		}
		w.node[unit] = append(w.node[unit], ids...)
	}
	w.bus.ToWorker(m.from, ackMsg{})
}

// recvAck counts down outstanding acknowledgements; when the last one
// arrives our part of the distribution is complete
func (w *Worker) recvAck() {
	w.pending--
	if w.pending == 0 {
		w.bus.ToHost(distributedMsg{})
	}
}

// flatten builds the unique set of old node IDs our units contribute to and
// ships it to the host for the global merge
func (w *Worker) flatten() error {
	if len(w.node) != w.myNumUnits() {
		return fmt.Errorf("rank %d: %d of %d owned partition units have no mesh "+
			"elements to work on: the overdecomposition is too large for this "+
			"mesh; decrease the virtualization parameter u or run with fewer "+
			"ranks", w.rank, w.myNumUnits()-len(w.node), w.myNumUnits())
	}
	for _, ids := range w.node {
		w.ids = append(w.ids, ids...)
	}
	w.ids = utils.Unique(w.ids)
	w.bus.ToHost(flattenedMsg{})
	ids := make([]int, len(w.ids))
	copy(ids, w.ids)
	w.bus.ToHost(nodesMsg{from: w.rank, ids: ids})
	return nil
}

// reorder assigns new contiguous IDs to the old IDs this rank owns, starting
// at the supplied offset, and requests the rest from their assigning peers.
// comm maps peer rank to the old IDs that peer assigns: an ID appears there
// exactly when a lower-priority claim lost, so an ID missing from every
// entry is ours to assign.
func (w *Worker) reorder(m reorderMsg) {
	w.total = m.total

	for _, peer := range utils.SortedKeys(m.comm) {
		w.bus.ToWorker(peer, requestMsg{from: w.rank, ids: m.comm[peer]})
	}

	foreign := make(map[int]bool)
	for _, ids := range m.comm {
		for _, p := range ids {
			foreign[p] = true
		}
	}

	n := m.offset
	for _, p := range w.ids {
		if !foreign[p] {
			w.newID[p] = n
			n++
			w.reordered++
		}
	}
	w.ownedDone = true
	w.drainRequests()
	w.checkReordered()
}

// request queues a peer's ask for new IDs; it is answered as soon as our own
// assignment pass has run, which may be immediately
func (w *Worker) request(m requestMsg) {
	w.req = append(w.req, m)
	if w.ownedDone {
		w.drainRequests()
	}
}

// drainRequests answers every queued request. Safe to call repeatedly and
// from both the assignment-finished and request-arrival paths; all requested
// IDs are owned by us, so after the local pass they all resolve.
func (w *Worker) drainRequests() {
	for _, r := range w.req {
		n := make(map[int]int, len(r.ids))
		for _, p := range r.ids {
			id, ok := w.newID[p]
			if !ok {
				panic(fmt.Sprintf("rank %d: rank %d requested ID %d which this "+
					"rank does not assign", w.rank, r.from, p))
			}
			n[p] = id
		}
		w.bus.ToWorker(r.from, newOrderMsg{ids: n})
	}
	w.req = w.req[:0]
}

// newOrder stores new IDs assigned by a peer
func (w *Worker) newOrder(m newOrderMsg) {
	for p, id := range m.ids {
		w.newID[p] = id
	}
	w.reordered += len(m.ids)
	w.checkReordered()
}

// checkReordered fires the completion path once every contributed ID has a
// new ID; re-evaluated after the local pass and after every peer reply
func (w *Worker) checkReordered() {
	if w.finished || w.reordered != len(w.ids) {
		return
	}
	w.finished = true

	// Per-unit inverse maps: new -> old, the payload downstream work units
	// consume
	for unit, ids := range w.node {
		inv := make(map[int]int, len(ids))
		for _, p := range ids {
			inv[w.lookup(p)] = p
		}
		w.unitOldID[unit] = inv
	}
	// Rewrite unit node lists and our contributed set to the new IDs
	for _, ids := range w.node {
		for i, p := range ids {
			ids[i] = w.lookup(p)
		}
	}
	for i, p := range w.ids {
		w.ids[i] = w.lookup(p)
	}
	w.bounds()
}

func (w *Worker) lookup(old int) int {
	id, ok := w.newID[old]
	if !ok {
		panic(fmt.Sprintf("rank %d: old node ID %d has no new ID", w.rank, old))
	}
	return id
}

// bounds computes the exclusive row range [lower, upper) this rank owns in
// the final numbering. upper is one past the largest new ID our units
// contribute to; the last rank rounds up to the global total to close any
// gap. lower arrives from the predecessor rank, a chain rather than a
// reduction, since bound p+1 depends only on bound p.
func (w *Worker) bounds() {
	w.upper = 0
	for _, p := range w.ids {
		if p+1 > w.upper {
			w.upper = p + 1
		}
	}
	if w.rank == w.nranks-1 {
		w.upper = w.total
	}
	w.haveUpper = true
	if w.rank == 0 {
		w.setLower(0)
	}
	if w.rank < w.nranks-1 {
		w.bus.ToWorker(w.rank+1, lowerMsg{lower: w.upper})
	}
	w.maybeReportBounds()
}

func (w *Worker) setLower(low int) {
	w.lower = low
	w.haveLower = true
	w.maybeReportBounds()
}

// maybeReportBounds sends bounds and communication cost to the host once
// both ends of the range are known, whichever order they became known in
func (w *Worker) maybeReportBounds() {
	if w.reported || !w.haveLower || !w.haveUpper {
		return
	}
	w.reported = true
	w.bus.ToHost(boundsMsg{from: w.rank, lower: w.lower, upper: w.upper})
	w.cost = w.commCost()
	w.bus.ToHost(costMsg{from: w.rank, cost: w.cost})
}

// commCost is the fraction of contributed node IDs outside our own row
// range: points we will have to exchange with other ranks. 0 is best, 1
// worst.
func (w *Worker) commCost() float64 {
	var own, com int
	for _, p := range w.ids {
		if p >= w.lower && p < w.upper {
			own++
		} else {
			com++
		}
	}
	return float64(com) / float64(own+com)
}

// collect hands the final maps to the host
func (w *Worker) collect() {
	w.bus.ToHost(resultMsg{
		from:      w.rank,
		newID:     w.newID,
		unitNodes: w.node,
		unitOldID: w.unitOldID,
		lower:     w.lower,
		upper:     w.upper,
		cost:      w.cost,
	})
}

// owner maps a unit ID to its owning rank: contiguous blocks of
// nUnits/nranks units per rank, the last rank absorbing the remainder
func (w *Worker) owner(unit int) int {
	return unitOwner(unit, w.nUnits, w.nranks)
}

func (w *Worker) myNumUnits() int {
	chunk := w.nUnits / w.nranks
	n := chunk
	if w.rank == w.nranks-1 {
		n += w.nUnits % w.nranks
	}
	return n
}

func unitOwner(unit, nUnits, nranks int) int {
	p := unit / (nUnits / nranks)
	if p >= nranks {
		p = nranks - 1
	}
	return p
}
