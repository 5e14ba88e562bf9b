package mesh

import "fmt"

// NodesPerTet is the number of vertices of a linear tetrahedron
const NodesPerTet = 4

// Mesh is a tetrahedral unstructured mesh as read from file. Node IDs are the
// "old" IDs: contiguous in the file ordering, before any parallel
// renumbering.
type Mesh struct {
	Vertices [][]float64 // Vertex coordinates [nvertices][3]
	EToV     [][]int     // Element to vertex connectivity [nelems][4]

	NumElements int
	NumVertices int
}

func NewMesh() *Mesh {
	return &Mesh{}
}

// AddTet appends one tetrahedron given its four vertex IDs
func (m *Mesh) AddTet(verts [NodesPerTet]int) {
	m.EToV = append(m.EToV, verts[:])
	m.NumElements++
}

// Validate checks that every element references existing vertices
func (m *Mesh) Validate() error {
	if m.NumElements != len(m.EToV) {
		return fmt.Errorf("element count %d does not match connectivity length %d",
			m.NumElements, len(m.EToV))
	}
	if m.NumVertices != len(m.Vertices) {
		return fmt.Errorf("vertex count %d does not match coordinate table length %d",
			m.NumVertices, len(m.Vertices))
	}
	for e, verts := range m.EToV {
		if len(verts) != NodesPerTet {
			return fmt.Errorf("element %d has %d vertices, expected %d",
				e, len(verts), NodesPerTet)
		}
		for _, v := range verts {
			if v < 0 || v >= m.NumVertices {
				return fmt.Errorf("element %d references vertex %d outside [0,%d)",
					e, v, m.NumVertices)
			}
		}
	}
	return nil
}

// Centroid returns the centroid coordinates of element e
func (m *Mesh) Centroid(e int) (c [3]float64) {
	for _, v := range m.EToV[e] {
		c[0] += m.Vertices[v][0]
		c[1] += m.Vertices[v][1]
		c[2] += m.Vertices[v][2]
	}
	c[0] /= NodesPerTet
	c[1] /= NodesPerTet
	c[2] /= NodesPerTet
	return
}
