package mesh

// Standard test meshes shared by mesh, partition and reorder tests.

// SingleTetMesh is one unit tetrahedron
func SingleTetMesh() *Mesh {
	m := NewMesh()
	m.Vertices = [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	m.NumVertices = 4
	m.AddTet([4]int{0, 1, 2, 3})
	return m
}

// TwoTetMesh is two tetrahedra sharing the face {1,2,3}
func TwoTetMesh() *Mesh {
	m := NewMesh()
	m.Vertices = [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 1},
	}
	m.NumVertices = 5
	m.AddTet([4]int{0, 1, 2, 3})
	m.AddTet([4]int{1, 2, 3, 4})
	return m
}

// CubeMesh splits the unit cube into six tetrahedra around the main diagonal
// 0-6
func CubeMesh() *Mesh {
	m := NewMesh()
	m.Vertices = [][]float64{
		{0, 0, 0}, // 0
		{1, 0, 0}, // 1
		{1, 1, 0}, // 2
		{0, 1, 0}, // 3
		{0, 0, 1}, // 4
		{1, 0, 1}, // 5
		{1, 1, 1}, // 6
		{0, 1, 1}, // 7
	}
	m.NumVertices = 8
	m.AddTet([4]int{0, 1, 2, 6})
	m.AddTet([4]int{0, 2, 3, 6})
	m.AddTet([4]int{0, 3, 7, 6})
	m.AddTet([4]int{0, 7, 4, 6})
	m.AddTet([4]int{0, 4, 5, 6})
	m.AddTet([4]int{0, 5, 1, 6})
	return m
}

// BarMesh builds a bar of nx unit cubes along x, each split into six tets.
// Node IDs increase with x, so contiguous element ranges have localized node
// footprints, the shape parallel renumbering cares about.
func BarMesh(nx int) *Mesh {
	m := NewMesh()
	vid := func(i, j, k int) int { return i*4 + k*2 + j }
	for i := 0; i <= nx; i++ {
		for k := 0; k <= 1; k++ {
			for j := 0; j <= 1; j++ {
				m.Vertices = append(m.Vertices, []float64{float64(i), float64(j), float64(k)})
			}
		}
	}
	m.NumVertices = len(m.Vertices)
	for i := 0; i < nx; i++ {
		// Cube corners in CubeMesh ordering
		c := [8]int{
			vid(i, 0, 0), vid(i+1, 0, 0), vid(i+1, 1, 0), vid(i, 1, 0),
			vid(i, 0, 1), vid(i+1, 0, 1), vid(i+1, 1, 1), vid(i, 1, 1),
		}
		m.AddTet([4]int{c[0], c[1], c[2], c[6]})
		m.AddTet([4]int{c[0], c[2], c[3], c[6]})
		m.AddTet([4]int{c[0], c[3], c[7], c[6]})
		m.AddTet([4]int{c[0], c[7], c[4], c[6]})
		m.AddTet([4]int{c[0], c[4], c[5], c[6]})
		m.AddTet([4]int{c[0], c[5], c[1], c[6]})
	}
	return m
}
