package reorder

// Reducer accumulates one contribution per rank and fires a completion
// callback exactly once when the last contribution arrives. It is the
// one-shot aggregate signal the workers use to report phase completion
// upward; the host owns and drives it, so no locking is needed.
type Reducer[T any] struct {
	need     int
	got      int
	acc      T
	merge    func(acc, in T) T
	complete func(T)
}

func NewReducer[T any](need int, merge func(acc, in T) T,
	complete func(T)) *Reducer[T] {
	return &Reducer[T]{need: need, merge: merge, complete: complete}
}

func (r *Reducer[T]) Contribute(in T) {
	r.acc = r.merge(r.acc, in)
	r.got++
	if r.got == r.need {
		r.complete(r.acc)
	}
}

// Done reports whether all contributions have arrived
func (r *Reducer[T]) Done() bool { return r.got >= r.need }

func sumInt(acc, in int) int           { return acc + in }
func sumFloat(acc, in float64) float64 { return acc + in }
