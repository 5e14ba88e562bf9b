package reorder

import (
	"fmt"

	"github.com/notargets/tetpart/utils"
)

// Bus connects the host and the worker ranks. Each receiver has one
// unbounded FIFO mailbox, which gives per-sender delivery order and
// non-blocking sends.
type Bus struct {
	workers []*utils.Mailbox[any]
	host    *utils.Mailbox[any]
}

func NewBus(nranks int) (b *Bus) {
	b = &Bus{
		workers: make([]*utils.Mailbox[any], nranks),
		host:    utils.NewMailbox[any](),
	}
	for n := 0; n < nranks; n++ {
		b.workers[n] = utils.NewMailbox[any]()
	}
	return
}

func (b *Bus) ToWorker(dst int, msg any) {
	if dst < 0 || dst >= len(b.workers) {
		panic(fmt.Sprintf("message to nonexistent rank %d of %d", dst, len(b.workers)))
	}
	b.workers[dst].Post(msg)
}

func (b *Bus) ToAllWorkers(msg any) {
	for _, mb := range b.workers {
		mb.Post(msg)
	}
}

func (b *Bus) ToHost(msg any) {
	b.host.Post(msg)
}
