package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SU2 volume element type codes (VTK convention)
const (
	su2Tet = 10
)

// ReadSU2 reads an SU2 native format file, keeping tetrahedra only. Lower
// dimensional elements (boundary markers and such) are skipped; non-tet
// volume elements are an error since the renumbering pipeline is tet only.
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mesh := NewMesh()
	scanner := bufio.NewScanner(file)

	var ndime int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments
		if strings.HasPrefix(line, "%") || line == "" {
			continue
		}

		if strings.HasPrefix(line, "NDIME=") {
			fmt.Sscanf(line, "NDIME=%d", &ndime)
			if ndime != 3 {
				return nil, fmt.Errorf("only 3D meshes are supported, got NDIME=%d", ndime)
			}

		} else if strings.HasPrefix(line, "NELEM=") {
			var nelem int
			fmt.Sscanf(line, "NELEM=%d", &nelem)

			mesh.EToV = make([][]int, 0, nelem)

			for i := 0; i < nelem; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("unexpected EOF reading element %d of %d", i, nelem)
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) < 1 {
					continue
				}

				su2Type, _ := strconv.Atoi(fields[0])
				switch su2Type {
				case su2Tet:
					if len(fields) < 1+NodesPerTet {
						return nil, fmt.Errorf("element %d: expected %d vertices, got %d fields",
							i, NodesPerTet, len(fields)-1)
					}
					var verts [NodesPerTet]int
					for j := 0; j < NodesPerTet; j++ {
						verts[j], err = strconv.Atoi(fields[1+j])
						if err != nil {
							return nil, fmt.Errorf("element %d: bad vertex index %q", i, fields[1+j])
						}
					}
					mesh.AddTet(verts)
				default:
					return nil, fmt.Errorf("element %d: unsupported SU2 element type %d, tet meshes only",
						i, su2Type)
				}
			}

		} else if strings.HasPrefix(line, "NPOIN=") {
			var npoin int
			fmt.Sscanf(line, "NPOIN=%d", &npoin)

			mesh.Vertices = make([][]float64, 0, npoin)

			for i := 0; i < npoin; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("unexpected EOF reading point %d of %d", i, npoin)
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) < 3 {
					return nil, fmt.Errorf("point %d: expected 3 coordinates, got %d fields",
						i, len(fields))
				}
				coord := make([]float64, 3)
				for j := 0; j < 3; j++ {
					coord[j], err = strconv.ParseFloat(fields[j], 64)
					if err != nil {
						return nil, fmt.Errorf("point %d: bad coordinate %q", i, fields[j])
					}
				}
				mesh.Vertices = append(mesh.Vertices, coord)
			}
			mesh.NumVertices = npoin

		} else if strings.HasPrefix(line, "NMARK=") {
			// Boundary markers carry no volume connectivity; the renumbering
			// pipeline does not consume them
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mesh in %s: %w", filename, err)
	}
	return mesh, nil
}
