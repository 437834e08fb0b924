package geometry

import (
	"context"

	"github.com/notargets/GeomKernel/connectivity"
	"github.com/notargets/GeomKernel/derivatives"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/progress"
	"github.com/notargets/GeomKernel/topology"
	"github.com/pkg/errors"
)

// mesh is the state shared by the index-list kinds. verts and elems are nil
// in shape-only copies while numVerts and numElems keep the counts.
type mesh struct {
	base
	props     element.ElementProperties
	indexName string

	numVerts int
	verts    []float32
	numElems int
	elems    []int64

	edges, unsharedEdges []int64
	faces, unsharedFaces []int64
}

func newMesh(kind element.Kind, name, indexName string) mesh {
	return mesh{base: newBase(kind, name), props: element.Properties(kind), indexName: indexName}
}

func (m *mesh) NumberOfVertices() int { return m.numVerts }
func (m *mesh) Vertices() []float32   { return m.verts }

func (m *mesh) NumberOfElements() int {
	if m.kind == element.Vertex {
		return m.numVerts
	}
	return m.numElems
}

// Elements returns the flat index list; nil for Vertex geometries
func (m *mesh) Elements() []int64 { return m.elems }

// Arity is the number of vertices per element
func (m *mesh) Arity() int { return m.props.NVp }

func (m *mesh) invalidate() {
	m.base.invalidate()
	m.edges, m.unsharedEdges, m.faces, m.unsharedFaces = nil, nil, nil, nil
}

// SetVertices replaces the vertex list and clears every derived cache
func (m *mesh) SetVertices(verts []float32, mode CopyMode) error {
	if len(verts)%3 != 0 {
		return errors.Errorf("%s %q: vertex list length %d is not a multiple of 3", m.kind, m.name, len(verts))
	}
	m.verts = adopt(verts, mode)
	m.numVerts = len(verts) / 3
	m.invalidate()
	return nil
}

func (m *mesh) setElements(elems []int64, mode CopyMode) error {
	arity := m.props.NVp
	if len(elems)%arity != 0 {
		return errors.Errorf("%s %q: index list length %d is not a multiple of arity %d",
			m.kind, m.name, len(elems), arity)
	}
	m.elems = adopt(elems, mode)
	m.numElems = len(elems) / arity
	m.invalidate()
	return nil
}

// requireData rejects operations on shape-only copies
func (m *mesh) indexDataset() string { return m.indexName }

func (m *mesh) requireData() error {
	if (m.verts == nil && m.numVerts > 0) || (m.elems == nil && m.numElems > 0) {
		return errors.Errorf("%s %q holds shapes only", m.kind, m.name)
	}
	return nil
}

func (m *mesh) FindElementSizes() error {
	if err := m.requireData(); err != nil {
		return err
	}
	var (
		sizes []float32
		err   error
	)
	switch m.kind {
	case element.Vertex:
		sizes = make([]float32, m.numVerts)
	case element.Edge:
		sizes, err = topology.EdgeLengths(m.elems, m.verts)
	case element.Triangle, element.Quad:
		sizes, err = topology.Areas2D(m.elems, m.props.NVp, m.verts)
	case element.Tetrahedral:
		sizes, err = topology.TetVolumes(m.elems, m.verts)
	case element.Hexahedral:
		sizes, err = topology.HexVolumes(m.elems, m.verts)
	default:
		err = errors.Wrapf(ErrUnsupported, "element sizes for %s", m.kind)
	}
	if err != nil {
		return errors.Wrapf(err, "%s %q", m.kind, m.name)
	}
	m.sizes = sizes
	return nil
}

func (m *mesh) FindElementCentroids() error {
	if err := m.requireData(); err != nil {
		return err
	}
	if m.kind == element.Vertex {
		m.centroids = adopt(m.verts, Copy)
		return nil
	}
	c, err := topology.Centroids(m.elems, m.props.NVp, m.verts)
	if err != nil {
		return errors.Wrapf(err, "%s %q", m.kind, m.name)
	}
	m.centroids = c
	return nil
}

func (m *mesh) FindElementsContainingVert() error {
	if m.kind == element.Vertex {
		return errors.Wrapf(ErrUnsupported, "elements containing vertex for %s", m.kind)
	}
	if err := m.requireData(); err != nil {
		return err
	}
	l, err := connectivity.ElementsContainingVert(m.elems, m.props.NVp, m.numVerts)
	if err != nil {
		return errors.Wrapf(err, "%s %q", m.kind, m.name)
	}
	m.containing = l
	return nil
}

// FindElementNeighbors builds the element adjacency, computing the
// vertex-to-element cache first when it is absent.
func (m *mesh) FindElementNeighbors() error {
	if m.kind == element.Vertex {
		return errors.Wrapf(ErrUnsupported, "element neighbors for %s", m.kind)
	}
	if m.containing == nil {
		if err := m.FindElementsContainingVert(); err != nil {
			return err
		}
	}
	l, err := connectivity.ElementNeighbors(m.elems, m.kind, m.containing)
	if err != nil {
		return errors.Wrapf(err, "%s %q", m.kind, m.name)
	}
	m.neighbors = l
	return nil
}

// FindDerivatives differentiates a vertex field of comps components. out
// receives one gradient triple per element and component, evaluated at the
// element's parametric center.
func (m *mesh) FindDerivatives(_ context.Context, field []float64, comps int, out []float64, obs progress.Observer) error {
	if m.kind == element.Vertex {
		return errors.Wrapf(ErrUnsupported, "derivatives for %s", m.kind)
	}
	if err := m.requireData(); err != nil {
		return err
	}
	counter := progress.NewCounter(obs, int64(m.numElems))
	if err := derivatives.Unstructured(m.kind, m.elems, m.verts, field, comps, out); err != nil {
		return errors.Wrapf(err, "%s %q", m.kind, m.name)
	}
	counter.Add(int64(m.numElems))
	counter.Done()
	return nil
}

// AverageVertexArrayValues interpolates a vertex field to the elements. The
// weighted form uses inverse distance to the element centroids, computing
// them first when absent.
func (m *mesh) AverageVertexArrayValues(in []float64, comps int, weighted bool) ([]float64, error) {
	if m.kind == element.Vertex {
		return nil, errors.Wrapf(ErrUnsupported, "vertex averaging for %s", m.kind)
	}
	if err := m.requireData(); err != nil {
		return nil, err
	}
	if !weighted {
		return topology.AverageVertexArrayValues(m.elems, m.props.NVp, in, comps)
	}
	if m.centroids == nil {
		if err := m.FindElementCentroids(); err != nil {
			return nil, err
		}
	}
	return topology.WeightedAverageVertexArrayValues(m.elems, m.props.NVp, m.verts, m.centroids, in, comps)
}

// AverageCellArrayValues interpolates an element field to the vertices,
// computing the vertex-to-element cache first when absent.
func (m *mesh) AverageCellArrayValues(in []float64, comps int) ([]float64, error) {
	if m.containing == nil {
		if err := m.FindElementsContainingVert(); err != nil {
			return nil, err
		}
	}
	return topology.AverageCellArrayValues(m.containing, in, comps)
}

// cloneMesh copies shapes, and arrays and caches when copyData is set
func (m *mesh) cloneMesh(copyData bool) mesh {
	c := mesh{
		base:      m.base.clone(copyData),
		props:     m.props,
		indexName: m.indexName,
		numVerts:  m.numVerts,
		numElems:  m.numElems,
	}
	if copyData {
		c.verts = adopt(m.verts, Copy)
		c.elems = adopt(m.elems, Copy)
		c.edges = adopt(m.edges, Copy)
		c.unsharedEdges = adopt(m.unsharedEdges, Copy)
		c.faces = adopt(m.faces, Copy)
		c.unsharedFaces = adopt(m.unsharedFaces, Copy)
	}
	return c
}

// edgeOps adds edge extraction to a mesh
type edgeOps struct{ m *mesh }

func (o edgeOps) Edges() []int64         { return o.m.edges }
func (o edgeOps) DeleteEdges()           { o.m.edges = nil }
func (o edgeOps) UnsharedEdges() []int64 { return o.m.unsharedEdges }
func (o edgeOps) DeleteUnsharedEdges()   { o.m.unsharedEdges = nil }

// FindEdges collects the unique edges as sorted vertex pairs
func (o edgeOps) FindEdges() error {
	if err := o.m.requireData(); err != nil {
		return err
	}
	edges, err := connectivity.Edges(o.m.elems, o.m.kind)
	if err != nil {
		return errors.Wrapf(err, "%s %q", o.m.kind, o.m.name)
	}
	o.m.edges = edges
	return nil
}

// FindUnsharedEdges collects the edges owned by exactly one element
func (o edgeOps) FindUnsharedEdges() error {
	if err := o.m.requireData(); err != nil {
		return err
	}
	edges, err := connectivity.UnsharedEdges(o.m.elems, o.m.kind)
	if err != nil {
		return errors.Wrapf(err, "%s %q", o.m.kind, o.m.name)
	}
	o.m.unsharedEdges = edges
	return nil
}

// faceOps adds face extraction to a volume mesh
type faceOps struct{ m *mesh }

func (o faceOps) Faces() []int64         { return o.m.faces }
func (o faceOps) DeleteFaces()           { o.m.faces = nil }
func (o faceOps) UnsharedFaces() []int64 { return o.m.unsharedFaces }
func (o faceOps) DeleteUnsharedFaces()   { o.m.unsharedFaces = nil }

func (o faceOps) FindFaces() error {
	if err := o.m.requireData(); err != nil {
		return err
	}
	faces, err := connectivity.Faces(o.m.elems, o.m.kind)
	if err != nil {
		return errors.Wrapf(err, "%s %q", o.m.kind, o.m.name)
	}
	o.m.faces = faces
	return nil
}

func (o faceOps) FindUnsharedFaces() error {
	if err := o.m.requireData(); err != nil {
		return err
	}
	faces, err := connectivity.UnsharedFaces(o.m.elems, o.m.kind)
	if err != nil {
		return errors.Wrapf(err, "%s %q", o.m.kind, o.m.name)
	}
	o.m.unsharedFaces = faces
	return nil
}

// FindFacePairs pairs every element face with the face of the neighbor
// sharing it. A face shared by more than two elements fails with
// connectivity.ErrNonManifold.
func (o faceOps) FindFacePairs() (*connectivity.FaceConnector, error) {
	if err := o.m.requireData(); err != nil {
		return nil, err
	}
	fc, err := connectivity.NewFaceConnector(o.m.elems, o.m.kind)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %q", o.m.kind, o.m.name)
	}
	return fc, nil
}

// CountBoundaryFaces returns the number of faces without a neighbor
func (o faceOps) CountBoundaryFaces() (int, error) {
	fc, err := o.FindFacePairs()
	if err != nil {
		return 0, err
	}
	return fc.BoundaryFaces(), nil
}

// faceWidth is the vertex count of one face of the kind
func (o faceOps) faceWidth() int {
	if len(o.m.props.Faces) == 0 {
		return 0
	}
	return len(o.m.props.Faces[0])
}
