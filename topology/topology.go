// Package topology computes per-element metrics (centroids, lengths, areas,
// volumes, Jacobians, dihedral angles) over vertex and index lists.
//
// Vertex lists are flat float32 triples. Index lists are flat int64 tuples of
// fixed arity. Results are float32, one value (or triple) per element.
package topology

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// checkMesh validates the index list against the vertex list and returns the
// element count.
func checkMesh(elems []int64, arity int, verts []float32) (int, error) {
	if arity <= 0 {
		return 0, fmt.Errorf("invalid arity %d", arity)
	}
	if len(elems)%arity != 0 {
		return 0, fmt.Errorf("index list length %d is not a multiple of arity %d", len(elems), arity)
	}
	if len(verts)%3 != 0 {
		return 0, fmt.Errorf("vertex list length %d is not a multiple of 3", len(verts))
	}
	numVerts := int64(len(verts) / 3)
	for i, v := range elems {
		if v < 0 || v >= numVerts {
			return 0, fmt.Errorf("element %d references vertex %d, vertex count is %d", i/arity, v, numVerts)
		}
	}
	return len(elems) / arity, nil
}

func vertex(verts []float32, i int64) r3.Vec {
	return r3.Vec{X: float64(verts[3*i]), Y: float64(verts[3*i+1]), Z: float64(verts[3*i+2])}
}

// Centroids returns the arithmetic mean of each element's vertices as a flat
// list of triples.
func Centroids(elems []int64, arity int, verts []float32) ([]float32, error) {
	numElems, err := checkMesh(elems, arity, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 3*numElems)
	for e := 0; e < numElems; e++ {
		var sum r3.Vec
		for _, v := range elems[e*arity : (e+1)*arity] {
			sum = r3.Add(sum, vertex(verts, v))
		}
		c := r3.Scale(1/float64(arity), sum)
		out[3*e], out[3*e+1], out[3*e+2] = float32(c.X), float32(c.Y), float32(c.Z)
	}
	return out, nil
}

// EdgeLengths returns the length of each two-vertex element.
func EdgeLengths(elems []int64, verts []float32) ([]float32, error) {
	numElems, err := checkMesh(elems, 2, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, numElems)
	for e := 0; e < numElems; e++ {
		out[e] = float32(r3.Norm(r3.Sub(vertex(verts, elems[2*e+1]), vertex(verts, elems[2*e]))))
	}
	return out, nil
}

// polygonNormal is the Newell normal of a closed polygon
func polygonNormal(pts []r3.Vec) r3.Vec {
	var n r3.Vec
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// Areas2D returns the area of each planar polygon element (arity >= 3). The
// polygon is projected onto the coordinate plane most aligned with its
// normal, the shoelace sum is taken there, and the result is scaled back by
// the dominant normal component.
func Areas2D(elems []int64, arity int, verts []float32) ([]float32, error) {
	if arity < 3 {
		return nil, fmt.Errorf("area requires at least 3 vertices per element, got %d", arity)
	}
	numElems, err := checkMesh(elems, arity, verts)
	if err != nil {
		return nil, err
	}
	out := make([]float32, numElems)
	pts := make([]r3.Vec, arity)
	for e := 0; e < numElems; e++ {
		for j, v := range elems[e*arity : (e+1)*arity] {
			pts[j] = vertex(verts, v)
		}
		normal := polygonNormal(pts)
		if r3.Norm(normal) == 0 {
			out[e] = 0
			continue
		}
		normal = r3.Unit(normal)
		nx, ny, nz := math.Abs(normal.X), math.Abs(normal.Y), math.Abs(normal.Z)

		// coordinates kept in the projection plane
		var u, w func(r3.Vec) float64
		var dominant float64
		switch {
		case nx > ny && nx > nz:
			u, w, dominant = func(p r3.Vec) float64 { return p.Y }, func(p r3.Vec) float64 { return p.Z }, nx
		case ny > nz:
			u, w, dominant = func(p r3.Vec) float64 { return p.X }, func(p r3.Vec) float64 { return p.Z }, ny
		default:
			u, w, dominant = func(p r3.Vec) float64 { return p.X }, func(p r3.Vec) float64 { return p.Y }, nz
		}

		area := 0.0
		for j := 0; j < arity; j++ {
			area += u(pts[(j+1)%arity]) * (w(pts[(j+2)%arity]) - w(pts[j]))
		}
		out[e] = float32(math.Abs(area / (2 * dominant)))
	}
	return out, nil
}
