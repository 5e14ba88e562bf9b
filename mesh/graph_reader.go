package mesh

import "fmt"

// GraphReader is the boundary to mesh storage. Each worker reads only its
// contiguous slice of the element connectivity and the coordinates of the
// nodes it actually references, so no single rank ever needs the whole mesh
// in memory.
type GraphReader interface {
	// NumElements returns the total tetrahedron count in the mesh
	NumElements() int
	// ReadElementRange reads connectivity for global elements [from, till)
	// as a flat array of length 4*(till-from)
	ReadElementRange(from, till int) ([]int, error)
	// ReadNodeCoordinates returns coordinates for the given global node IDs
	ReadNodeCoordinates(ids []int) (map[int][3]float64, error)
}

// MeshReader serves a fully loaded Mesh through the GraphReader interface.
// It stands in for an out-of-core file reader in the CLI and in tests.
type MeshReader struct {
	mesh *Mesh
}

func NewMeshReader(m *Mesh) *MeshReader {
	return &MeshReader{mesh: m}
}

func (mr *MeshReader) NumElements() int { return mr.mesh.NumElements }

func (mr *MeshReader) ReadElementRange(from, till int) ([]int, error) {
	if from < 0 || till > mr.mesh.NumElements || from > till {
		return nil, fmt.Errorf("element range [%d,%d) outside mesh with %d elements",
			from, till, mr.mesh.NumElements)
	}
	conn := make([]int, 0, (till-from)*NodesPerTet)
	for e := from; e < till; e++ {
		conn = append(conn, mr.mesh.EToV[e]...)
	}
	return conn, nil
}

func (mr *MeshReader) ReadNodeCoordinates(ids []int) (map[int][3]float64, error) {
	coord := make(map[int][3]float64, len(ids))
	for _, id := range ids {
		if id < 0 || id >= mr.mesh.NumVertices {
			return nil, fmt.Errorf("node ID %d outside mesh with %d vertices",
				id, mr.mesh.NumVertices)
		}
		v := mr.mesh.Vertices[id]
		coord[id] = [3]float64{v[0], v[1], v[2]}
	}
	return coord, nil
}
