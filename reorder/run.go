package reorder

import (
	"fmt"

	"github.com/notargets/tetpart/mesh"
	"github.com/notargets/tetpart/partition"
)

// Config is the immutable run configuration. Virtualization u in [0,1)
// controls overdecomposition: the mesh is split into
// floor(NumRanks/(1-u)) partition units, so u = 0 means one unit per rank
// and larger u means more, smaller units per rank.
type Config struct {
	NumRanks       int
	Virtualization float64
	Algorithm      partition.Algorithm
}

// NumUnits computes the partition unit count from the rank count and the
// virtualization parameter
func (c Config) NumUnits() int {
	n := int(float64(c.NumRanks) / (1.0 - c.Virtualization))
	if n < c.NumRanks {
		n = c.NumRanks
	}
	return n
}

func (c Config) validate() error {
	if c.NumRanks < 1 {
		return fmt.Errorf("need at least 1 rank, got %d", c.NumRanks)
	}
	if c.Virtualization < 0 || c.Virtualization >= 1 {
		return fmt.Errorf("virtualization must be in [0,1), got %g",
			c.Virtualization)
	}
	return nil
}

// Run partitions the mesh served by reader into units owned by
// cfg.NumRanks cooperating workers, renumbers all mesh nodes into one
// globally contiguous range and returns the maps and row bounds downstream
// work units consume. One goroutine per rank plus a host goroutine; they
// interact only through messages.
func Run(cfg Config, reader mesh.GraphReader, oracle partition.Oracle) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	bus := NewBus(cfg.NumRanks)
	host := NewHost(cfg.NumRanks, cfg.NumUnits(), bus)
	for rank := 0; rank < cfg.NumRanks; rank++ {
		w := NewWorker(rank, cfg.NumRanks, bus, reader, oracle, cfg.Algorithm)
		go w.Run()
	}
	return host.Run()
}
