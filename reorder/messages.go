package reorder

// Messages are delivered through unbounded per-receiver mailboxes: posting
// never blocks, handlers run to completion, and messages from one sender
// arrive in post order. Nothing here is shared after posting; every payload
// is owned by the receiver once sent.

// Worker-bound messages

// partitionMsg starts the partitioning phase with the global unit count
type partitionMsg struct {
	nUnits int
}

// addNodesMsg carries node groups for units the receiver owns
type addNodesMsg struct {
	from   int
	groups map[int][]int // unit -> old node IDs
}

// ackMsg acknowledges receipt of an addNodesMsg
type ackMsg struct{}

// flattenMsg asks the worker to build its unique contributed-ID set
type flattenMsg struct{}

// reorderMsg starts ID assignment: offset is the first new ID this rank
// hands out, comm maps assigning-peer rank to the old IDs that peer will
// assign and this rank must request, total is the global unique node count
type reorderMsg struct {
	offset int
	comm   map[int][]int
	total  int
}

// requestMsg asks the receiver for the new IDs of old IDs it assigns
type requestMsg struct {
	from int
	ids  []int
}

// newOrderMsg answers a requestMsg with an old->new ID map
type newOrderMsg struct {
	ids map[int]int
}

// lowerMsg propagates the predecessor's upper bound as this rank's lower
type lowerMsg struct {
	lower int
}

// avgCostMsg broadcasts the mean communication cost for the variance pass
type avgCostMsg struct {
	avg float64
}

// collectMsg asks the worker for its final payload and shuts it down
type collectMsg struct{}

// abortMsg shuts the worker down after a fatal error elsewhere
type abortMsg struct{}

// Host-bound messages

// loadMsg contributes this rank's element count to the load reduction
type loadMsg struct {
	nelem int
}

// setupMsg signals readiness for partitioning
type setupMsg struct{}

// distributedMsg signals all sent node groups were acknowledged
type distributedMsg struct{}

// flattenedMsg signals the unique contributed-ID set is built
type flattenedMsg struct{}

// nodesMsg contributes this rank's unique old IDs to the nodes merge
type nodesMsg struct {
	from int
	ids  []int
}

// boundsMsg reports this rank's final row range
type boundsMsg struct {
	from  int
	lower int
	upper int
}

// costMsg contributes this rank's communication cost to the mean reduction
type costMsg struct {
	from int
	cost float64
}

// varMsg contributes this rank's squared deviation to the variance reduction
type varMsg struct {
	v float64
}

// errorMsg reports a fatal configuration error; the host aborts the run
type errorMsg struct {
	from int
	err  error
}

// resultMsg delivers a worker's final maps after collectMsg
type resultMsg struct {
	from      int
	newID     map[int]int         // old -> new for all contributed IDs
	unitNodes map[int][]int       // owned unit -> new node IDs contributed
	unitOldID map[int]map[int]int // owned unit -> new -> old
	lower     int
	upper     int
	cost      float64
}
