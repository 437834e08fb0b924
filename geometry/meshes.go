package geometry

import (
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geomio"
	"github.com/notargets/GeomKernel/topology"
	"github.com/pkg/errors"
)

// Vertex is a point cloud; each vertex is its own element
type Vertex struct {
	mesh
}

func newVertex(name string) *Vertex {
	return &Vertex{mesh: newMesh(element.Vertex, name, "")}
}

func NewVertex(name string, verts []float32, mode CopyMode) (*Vertex, error) {
	if name == "" {
		return nil, errors.Errorf("%s requires a name", element.Vertex)
	}
	v := newVertex(name)
	if err := v.SetVertices(verts, mode); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vertex) DeepCopy(copyData bool) Geometry {
	return &Vertex{mesh: v.cloneMesh(copyData)}
}

// Edge is a mesh of two-vertex line elements
type Edge struct {
	mesh
}

func newEdge(name string) *Edge {
	return &Edge{mesh: newMesh(element.Edge, name, geomio.SharedEdgeList)}
}

func NewEdge(name string, verts []float32, edges []int64, mode CopyMode) (*Edge, error) {
	e := newEdge(name)
	if err := initMesh(&e.mesh, verts, edges, mode); err != nil {
		return nil, err
	}
	return e, nil
}

// SetElements replaces the edge list and clears every derived cache
func (e *Edge) SetElements(edges []int64, mode CopyMode) error { return e.setElements(edges, mode) }

func (e *Edge) DeepCopy(copyData bool) Geometry {
	return &Edge{mesh: e.cloneMesh(copyData)}
}

// Triangle is a surface mesh of triangles
type Triangle struct {
	mesh
	edgeOps
}

func newTriangle(name string) *Triangle {
	t := &Triangle{mesh: newMesh(element.Triangle, name, geomio.SharedTriList)}
	t.edgeOps = edgeOps{&t.mesh}
	return t
}

func NewTriangle(name string, verts []float32, tris []int64, mode CopyMode) (*Triangle, error) {
	t := newTriangle(name)
	if err := initMesh(&t.mesh, verts, tris, mode); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Triangle) SetElements(tris []int64, mode CopyMode) error { return t.setElements(tris, mode) }

func (t *Triangle) DeepCopy(copyData bool) Geometry {
	c := &Triangle{mesh: t.cloneMesh(copyData)}
	c.edgeOps = edgeOps{&c.mesh}
	return c
}

// Quad is a surface mesh of quadrilaterals
type Quad struct {
	mesh
	edgeOps
}

func newQuad(name string) *Quad {
	q := &Quad{mesh: newMesh(element.Quad, name, geomio.SharedQuadList)}
	q.edgeOps = edgeOps{&q.mesh}
	return q
}

func NewQuad(name string, verts []float32, quads []int64, mode CopyMode) (*Quad, error) {
	q := newQuad(name)
	if err := initMesh(&q.mesh, verts, quads, mode); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Quad) SetElements(quads []int64, mode CopyMode) error { return q.setElements(quads, mode) }

func (q *Quad) DeepCopy(copyData bool) Geometry {
	c := &Quad{mesh: q.cloneMesh(copyData)}
	c.edgeOps = edgeOps{&c.mesh}
	return c
}

// Tetrahedral is a volume mesh of linear tetrahedra
type Tetrahedral struct {
	mesh
	edgeOps
	faceOps
}

func newTetrahedral(name string) *Tetrahedral {
	t := &Tetrahedral{mesh: newMesh(element.Tetrahedral, name, geomio.SharedTetList)}
	t.edgeOps, t.faceOps = edgeOps{&t.mesh}, faceOps{&t.mesh}
	return t
}

func NewTetrahedral(name string, verts []float32, tets []int64, mode CopyMode) (*Tetrahedral, error) {
	t := newTetrahedral(name)
	if err := initMesh(&t.mesh, verts, tets, mode); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tetrahedral) SetElements(tets []int64, mode CopyMode) error { return t.setElements(tets, mode) }

func (t *Tetrahedral) DeepCopy(copyData bool) Geometry {
	c := &Tetrahedral{mesh: t.cloneMesh(copyData)}
	c.edgeOps, c.faceOps = edgeOps{&c.mesh}, faceOps{&c.mesh}
	return c
}

// FindJacobians returns the edge-vector determinant of every tetrahedron
func (t *Tetrahedral) FindJacobians() ([]float32, error) {
	if err := t.requireData(); err != nil {
		return nil, err
	}
	return topology.TetJacobians(t.elems, t.verts)
}

// FindMinDihedralAngles returns the smallest dihedral angle of every
// tetrahedron in degrees
func (t *Tetrahedral) FindMinDihedralAngles() ([]float32, error) {
	if err := t.requireData(); err != nil {
		return nil, err
	}
	return topology.TetMinDihedralAngles(t.elems, t.verts)
}

// Hexahedral is a volume mesh of trilinear hexahedra
type Hexahedral struct {
	mesh
	edgeOps
	faceOps
}

func newHexahedral(name string) *Hexahedral {
	h := &Hexahedral{mesh: newMesh(element.Hexahedral, name, geomio.SharedHexList)}
	h.edgeOps, h.faceOps = edgeOps{&h.mesh}, faceOps{&h.mesh}
	return h
}

func NewHexahedral(name string, verts []float32, hexes []int64, mode CopyMode) (*Hexahedral, error) {
	h := newHexahedral(name)
	if err := initMesh(&h.mesh, verts, hexes, mode); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hexahedral) SetElements(hexes []int64, mode CopyMode) error { return h.setElements(hexes, mode) }

func (h *Hexahedral) DeepCopy(copyData bool) Geometry {
	c := &Hexahedral{mesh: h.cloneMesh(copyData)}
	c.edgeOps, c.faceOps = edgeOps{&c.mesh}, faceOps{&c.mesh}
	return c
}

func initMesh(m *mesh, verts []float32, elems []int64, mode CopyMode) error {
	if m.name == "" {
		return errors.Errorf("%s requires a name", m.kind)
	}
	if err := m.SetVertices(verts, mode); err != nil {
		return err
	}
	return m.setElements(elems, mode)
}
