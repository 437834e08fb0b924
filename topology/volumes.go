package topology

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// hexSubTets splits a hexahedron (bottom face 0-1-2-3, top face 4-5-6-7)
// into four corner tetrahedra and one central tetrahedron, each positively
// oriented for a right-handed hex.
var hexSubTets = [5][4]int{
	{0, 1, 3, 4},
	{1, 2, 3, 6},
	{1, 4, 5, 6},
	{3, 4, 6, 7},
	{1, 3, 4, 6},
}

// tetDeterminant is det[v1-v0, v2-v0, v3-v0]
func tetDeterminant(v0, v1, v2, v3 r3.Vec) float64 {
	return r3.Dot(r3.Sub(v1, v0), r3.Cross(r3.Sub(v2, v0), r3.Sub(v3, v0)))
}

func tetCorners(elems []int64, verts []float32, e int) (r3.Vec, r3.Vec, r3.Vec, r3.Vec) {
	t := elems[4*e : 4*e+4]
	return vertex(verts, t[0]), vertex(verts, t[1]), vertex(verts, t[2]), vertex(verts, t[3])
}

// TetVolumes returns the signed volume of each tetrahedron, det/6.
func TetVolumes(elems []int64, verts []float32) ([]float32, error) {
	numElems, err := checkMesh(elems, 4, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, numElems)
	for e := 0; e < numElems; e++ {
		out[e] = float32(tetDeterminant(tetCorners(elems, verts, e)) / 6)
	}
	return out, nil
}

// TetJacobians returns the undivided edge-vector determinant of each
// tetrahedron.
func TetJacobians(elems []int64, verts []float32) ([]float32, error) {
	numElems, err := checkMesh(elems, 4, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, numElems)
	for e := 0; e < numElems; e++ {
		out[e] = float32(tetDeterminant(tetCorners(elems, verts, e)))
	}
	return out, nil
}

// HexVolumes returns the volume of each hexahedron as the sum of its five
// signed sub-tetrahedron volumes.
func HexVolumes(elems []int64, verts []float32) ([]float32, error) {
	numElems, err := checkMesh(elems, 8, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, numElems)
	for e := 0; e < numElems; e++ {
		hex := elems[8*e : 8*e+8]
		volume := 0.0
		for _, sub := range hexSubTets {
			volume += tetDeterminant(
				vertex(verts, hex[sub[0]]), vertex(verts, hex[sub[1]]),
				vertex(verts, hex[sub[2]]), vertex(verts, hex[sub[3]])) / 6
		}
		out[e] = float32(volume)
	}
	return out, nil
}

// TetMinDihedralAngles returns the smallest interior dihedral angle of each
// tetrahedron in degrees. Face normals are built from edge cross products
// with a common orientation; the interior angle between two faces has cosine
// -n_i·n_j, so the largest such cosine gives the smallest angle. Degenerate
// tetrahedra report 0.
func TetMinDihedralAngles(elems []int64, verts []float32) ([]float32, error) {
	numElems, err := checkMesh(elems, 4, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, numElems)
	for e := 0; e < numElems; e++ {
		v0, v1, v2, v3 := tetCorners(elems, verts, e)
		v10, v20, v30 := r3.Sub(v1, v0), r3.Sub(v2, v0), r3.Sub(v3, v0)
		v21, v31 := r3.Sub(v2, v1), r3.Sub(v3, v1)
		normals := [4]r3.Vec{
			r3.Cross(v10, v20), // face 0-1-2
			r3.Cross(v30, v10), // face 0-1-3
			r3.Cross(v20, v30), // face 0-2-3
			r3.Cross(v31, v21), // face 1-2-3
		}
		degenerate := false
		for i := range normals {
			if r3.Norm(normals[i]) == 0 {
				degenerate = true
				break
			}
			normals[i] = r3.Unit(normals[i])
		}
		if degenerate {
			out[e] = 0
			continue
		}
		maxCos := -1.0
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				maxCos = math.Max(maxCos, -r3.Dot(normals[i], normals[j]))
			}
		}
		maxCos = math.Min(1, maxCos)
		out[e] = float32(math.Acos(maxCos) * 180 / math.Pi)
	}
	return out, nil
}
