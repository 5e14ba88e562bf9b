package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeshReaderElementRange(t *testing.T) {
	m := TwoTetMesh()
	mr := NewMeshReader(m)

	assert.Equal(t, 2, mr.NumElements())

	conn, err := mr.ReadElementRange(0, 2)
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 1, 2, 3, 4}, conn)

	conn, err = mr.ReadElementRange(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, conn)

	// Empty range is legal: a rank can own zero elements
	conn, err = mr.ReadElementRange(2, 2)
	assert.NoError(t, err)
	assert.Empty(t, conn)

	_, err = mr.ReadElementRange(0, 3)
	assert.Error(t, err)
	_, err = mr.ReadElementRange(-1, 1)
	assert.Error(t, err)
}

func TestMeshReaderNodeCoordinates(t *testing.T) {
	mr := NewMeshReader(TwoTetMesh())

	coord, err := mr.ReadNodeCoordinates([]int{0, 4})
	assert.NoError(t, err)
	assert.Equal(t, [3]float64{0, 0, 0}, coord[0])
	assert.Equal(t, [3]float64{1, 1, 1}, coord[4])

	_, err = mr.ReadNodeCoordinates([]int{5})
	assert.Error(t, err)
}

func TestCentroid(t *testing.T) {
	m := SingleTetMesh()
	c := m.Centroid(0)
	assert.InDelta(t, 0.25, c[0], 1e-14)
	assert.InDelta(t, 0.25, c[1], 1e-14)
	assert.InDelta(t, 0.25, c[2], 1e-14)
}

func TestValidate(t *testing.T) {
	m := TwoTetMesh()
	assert.NoError(t, m.Validate())

	m.EToV[1][3] = 99
	assert.Error(t, m.Validate())
}

func TestBarMeshShape(t *testing.T) {
	m := BarMesh(4)
	assert.Equal(t, 20, m.NumVertices)
	assert.Equal(t, 24, m.NumElements)
	assert.NoError(t, m.Validate())
}
