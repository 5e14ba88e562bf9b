package utils

import "sync"

// Mailbox is an unbounded FIFO message queue for one receiver. Posts never
// block, so a sender can never deadlock against a receiver that is itself
// mid-send. Messages from one sender are delivered in post order; no order
// is guaranteed across senders.
type Mailbox[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		notify: make(chan struct{}, 1),
	}
}

func (mb *Mailbox[T]) Post(msg T) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()
	select {
	case mb.notify <- struct{}{}:
	default:
	}
}

// Receive blocks until a message is available and removes it from the queue
func (mb *Mailbox[T]) Receive() (msg T) {
	for {
		mb.mu.Lock()
		if len(mb.queue) > 0 {
			msg = mb.queue[0]
			mb.queue = mb.queue[1:]
			if len(mb.queue) > 0 {
				// Keep the flag raised for the next Receive
				select {
				case mb.notify <- struct{}{}:
				default:
				}
			}
			mb.mu.Unlock()
			return
		}
		mb.mu.Unlock()
		<-mb.notify
	}
}
