// Package geometry implements the eight geometry kinds: two structured grids
// (Image, RectGrid) and six index-list meshes (Vertex, Edge, Triangle, Quad,
// Tetrahedral, Hexahedral).
//
// Every geometry owns its coordinate and index arrays plus a set of derived
// caches. A cache is nil until its Find method runs, the paired Delete clears
// it, and replacing an index or vertex list clears all of them. Capabilities
// beyond the base contract are expressed as interfaces: Grid for structured
// grids, Mesh for index-list meshes, Mesh2D for meshes with edges and Mesh3D
// for meshes with faces.
package geometry

import (
	"context"

	"github.com/notargets/GeomKernel/connectivity"
	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/dynlist"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/progress"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupported marks an operation the geometry kind does not provide
	ErrUnsupported = element.ErrUnsupported
	// ErrStructural marks malformed geometric input found by Validate
	ErrStructural = errors.New("structural validation failed")
)

// ElementList is the ragged adjacency type used for vertex-to-element and
// element-to-element caches
type ElementList = dynlist.List[uint16, int64]

// CopyMode selects whether constructors copy caller arrays or take them over
type CopyMode int

const (
	Copy CopyMode = iota
	Move
)

func adopt[T any](src []T, mode CopyMode) []T {
	if mode == Move || src == nil {
		return src
	}
	return append(make([]T, 0, len(src)), src...)
}

// Geometry is the contract shared by every kind
type Geometry interface {
	Kind() element.Kind
	Name() string
	SetName(name string)
	Units() string
	SetUnits(units string)
	SpatialDimensionality() uint32
	NumberOfElements() int

	// Worker count for derivative runs; 0 means GOMAXPROCS
	SetThreads(n int)

	FindElementSizes() error
	ElementSizes() []float32
	DeleteElementSizes()

	FindElementCentroids() error
	ElementCentroids() []float32
	DeleteElementCentroids()

	FindElementsContainingVert() error
	ElementsContainingVert() *ElementList
	DeleteElementsContainingVert()

	FindElementNeighbors() error
	ElementNeighbors() *ElementList
	DeleteElementNeighbors()

	// FindDerivatives writes the gradient of field into out. Grids take a
	// cell field and meshes a vertex field; see the concrete types.
	FindDerivatives(ctx context.Context, field []float64, comps int, out []float64, obs progress.Observer) error

	// DeepCopy returns an independent geometry. With copyData false only
	// shapes (dimensions and counts) are preserved.
	DeepCopy(copyData bool) Geometry

	WriteTo(g *container.Group) error
	ReadFrom(g *container.Group, preflight bool) error

	String() string
}

// Grid is the structured-grid capability. Cells are indexed
// z*ny*nx + y*nx + x.
type Grid interface {
	Geometry
	Dimensions() [3]int
	// Coords returns the center of cell (x, y, z)
	Coords(x, y, z int) [3]float64
	CoordsAt(idx int) [3]float64
	// PlaneCoords returns the grid-line intersection at the low corner of
	// cell (x, y, z)
	PlaneCoords(x, y, z int) [3]float64
	PlaneCoordsAt(idx int) [3]float64
	// BoundingBox returns xmin, xmax, ymin, ymax, zmin, zmax
	BoundingBox() [6]float64
}

// Mesh is the index-list capability
type Mesh interface {
	Geometry
	NumberOfVertices() int
	Vertices() []float32
	Elements() []int64
	SetVertices(verts []float32, mode CopyMode) error
}

// Mesh2D is a mesh with edge extraction
type Mesh2D interface {
	Mesh
	FindEdges() error
	Edges() []int64
	DeleteEdges()
	FindUnsharedEdges() error
	UnsharedEdges() []int64
	DeleteUnsharedEdges()
}

// Mesh3D is a mesh with face extraction
type Mesh3D interface {
	Mesh2D
	FindFaces() error
	Faces() []int64
	DeleteFaces()
	FindUnsharedFaces() error
	UnsharedFaces() []int64
	DeleteUnsharedFaces()
	FindFacePairs() (*connectivity.FaceConnector, error)
	CountBoundaryFaces() (int, error)
}

// StatusCode maps an error onto the legacy integer status: 0 for success,
// -2 for missing data and -1 for every other failure.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, container.ErrNotFound):
		return -2
	}
	return -1
}

// Create returns an empty geometry of kind named name. An empty name or an
// unknown kind returns nil.
func Create(kind element.Kind, name string) Geometry {
	if name == "" {
		return nil
	}
	switch kind {
	case element.Image:
		return &Image{grid: grid{base: newBase(kind, name)}}
	case element.RectGrid:
		return &RectGrid{grid: grid{base: newBase(kind, name)}}
	case element.Vertex:
		return newVertex(name)
	case element.Edge:
		return newEdge(name)
	case element.Triangle:
		return newTriangle(name)
	case element.Quad:
		return newQuad(name)
	case element.Tetrahedral:
		return newTetrahedral(name)
	case element.Hexahedral:
		return newHexahedral(name)
	}
	return nil
}

// base carries the fields and caches common to every kind
type base struct {
	kind        element.Kind
	name        string
	units       string
	spatialDims uint32
	threads     int

	sizes      []float32
	centroids  []float32
	containing *ElementList
	neighbors  *ElementList
}

func newBase(kind element.Kind, name string) base {
	return base{kind: kind, name: name, spatialDims: 3}
}

func (b *base) Kind() element.Kind            { return b.kind }
func (b *base) Name() string                  { return b.name }
func (b *base) SetName(name string)           { b.name = name }
func (b *base) Units() string                 { return b.units }
func (b *base) SetUnits(units string)         { b.units = units }
func (b *base) SpatialDimensionality() uint32 { return b.spatialDims }
func (b *base) SetThreads(n int)              { b.threads = n }

func (b *base) ElementSizes() []float32              { return b.sizes }
func (b *base) DeleteElementSizes()                  { b.sizes = nil }
func (b *base) ElementCentroids() []float32          { return b.centroids }
func (b *base) DeleteElementCentroids()              { b.centroids = nil }
func (b *base) ElementsContainingVert() *ElementList { return b.containing }
func (b *base) DeleteElementsContainingVert()        { b.containing = nil }
func (b *base) ElementNeighbors() *ElementList       { return b.neighbors }
func (b *base) DeleteElementNeighbors()              { b.neighbors = nil }

// invalidate drops every derived cache
func (b *base) invalidate() {
	b.sizes, b.centroids, b.containing, b.neighbors = nil, nil, nil, nil
}

// clone copies the base fields; caches are deep copied only with copyData
func (b *base) clone(copyData bool) base {
	c := base{kind: b.kind, name: b.name, units: b.units, spatialDims: b.spatialDims, threads: b.threads}
	if copyData {
		c.sizes = adopt(b.sizes, Copy)
		c.centroids = adopt(b.centroids, Copy)
		c.containing = b.containing.DeepCopy()
		c.neighbors = b.neighbors.DeepCopy()
	}
	return c
}
