package geometry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/notargets/GeomKernel/connectivity"
	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/dynlist"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geomio"
	"github.com/notargets/GeomKernel/progress"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	squareVerts = []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	twoTris     = []int64{0, 1, 2, 0, 2, 3}

	tetVerts = []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1}

	cubeVerts = []float32{
		0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
		0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
	}
)

func newRoot(t *testing.T) *container.Group {
	f, err := container.Open(container.NewMemStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f.Root()
}

func TestCreate(t *testing.T) {
	for _, k := range element.Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			g := Create(k, "geom")
			require.NotNil(t, g)
			assert.Equal(t, k, g.Kind())
			assert.Equal(t, "geom", g.Name())
			assert.Equal(t, uint32(3), g.SpatialDimensionality())
			assert.Equal(t, 0, g.NumberOfElements())
			assert.Nil(t, Create(k, ""))
		})
	}
	assert.Nil(t, Create(element.Unknown, "geom"))

	_, isGrid := Create(element.RectGrid, "g").(Grid)
	assert.True(t, isGrid)
	_, is3D := Create(element.Hexahedral, "h").(Mesh3D)
	assert.True(t, is3D)
	_, is3D = Create(element.Quad, "q").(Mesh3D)
	assert.False(t, is3D)
	_, is2D := Create(element.Quad, "q").(Mesh2D)
	assert.True(t, is2D)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, -2, StatusCode(errors.Wrap(container.ErrNotFound, "SharedVertexList")))
	assert.Equal(t, -1, StatusCode(errors.Wrap(ErrUnsupported, "neighbors")))
	assert.Equal(t, -1, StatusCode(errors.New("boom")))
}

func TestTwoTriangles(t *testing.T) {
	tri, err := NewTriangle("tris", squareVerts, twoTris, Copy)
	require.NoError(t, err)
	assert.Equal(t, 4, tri.NumberOfVertices())
	assert.Equal(t, 2, tri.NumberOfElements())

	require.NoError(t, tri.FindElementSizes())
	assert.InDeltaSlice(t, []float32{0.5, 0.5}, tri.ElementSizes(), 1e-6)

	require.NoError(t, tri.FindElementNeighbors())
	require.NotNil(t, tri.ElementsContainingVert())
	assert.Equal(t, uint16(2), tri.ElementsContainingVert().Count(0))
	assert.Equal(t, uint16(1), tri.ElementsContainingVert().Count(1))
	n := tri.ElementNeighbors()
	require.NotNil(t, n)
	assert.Equal(t, []int64{1}, n.List(0))
	assert.Equal(t, []int64{0}, n.List(1))

	require.NoError(t, tri.FindEdges())
	require.NoError(t, tri.FindUnsharedEdges())
	assert.Len(t, tri.Edges(), 10)
	assert.Len(t, tri.UnsharedEdges(), 8)

	require.NoError(t, tri.FindElementCentroids())
	assert.InDeltaSlice(t, []float32{2. / 3, 1. / 3, 0, 1. / 3, 2. / 3, 0}, tri.ElementCentroids(), 1e-6)
}

func TestVolumeMeshes(t *testing.T) {
	tet, err := NewTetrahedral("tet", tetVerts, []int64{0, 1, 2, 3}, Copy)
	require.NoError(t, err)
	require.NoError(t, tet.FindElementSizes())
	assert.InDelta(t, 1./6, tet.ElementSizes()[0], 1e-6)
	jac, err := tet.FindJacobians()
	require.NoError(t, err)
	assert.InDelta(t, 1, jac[0], 1e-6)
	angles, err := tet.FindMinDihedralAngles()
	require.NoError(t, err)
	assert.InDelta(t, 54.7356, angles[0], 1e-3)
	require.NoError(t, tet.FindFaces())
	assert.Len(t, tet.Faces(), 12)

	hex, err := NewHexahedral("hex", cubeVerts, []int64{0, 1, 2, 3, 4, 5, 6, 7}, Copy)
	require.NoError(t, err)
	require.NoError(t, hex.FindElementSizes())
	assert.InDelta(t, 1, hex.ElementSizes()[0], 1e-6)
	require.NoError(t, hex.FindEdges())
	require.NoError(t, hex.FindUnsharedFaces())
	assert.Len(t, hex.Edges(), 24)
	assert.Len(t, hex.UnsharedFaces(), 24)
	n, err := hex.CountBoundaryFaces()
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestVertexGeometry(t *testing.T) {
	v, err := NewVertex("points", tetVerts, Copy)
	require.NoError(t, err)
	assert.Equal(t, 4, v.NumberOfElements())
	require.NoError(t, v.FindElementSizes())
	assert.Equal(t, make([]float32, 4), v.ElementSizes())
	require.NoError(t, v.FindElementCentroids())
	assert.Equal(t, tetVerts, v.ElementCentroids())

	err = v.FindElementNeighbors()
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Equal(t, -1, StatusCode(err))
	assert.Nil(t, v.ElementNeighbors())
}

func TestConstructorErrors(t *testing.T) {
	_, err := NewTriangle("", squareVerts, twoTris, Copy)
	assert.Error(t, err)
	_, err = NewTriangle("t", squareVerts[:5], twoTris, Copy)
	assert.Error(t, err)
	_, err = NewQuad("q", squareVerts, twoTris, Copy)
	assert.Error(t, err)
	_, err = NewRectGrid("r", []float32{0}, []float32{0, 1}, []float32{0, 1}, Copy)
	assert.Error(t, err)
	_, err = NewImage("i", [3]int{0, 1, 1}, [3]float32{1, 1, 1}, [3]float32{})
	assert.Error(t, err)
}

func TestCopyModes(t *testing.T) {
	verts := append([]float32(nil), squareVerts...)
	moved, err := NewTriangle("moved", verts, twoTris, Move)
	require.NoError(t, err)
	assert.Same(t, &verts[0], &moved.Vertices()[0])

	copied, err := NewTriangle("copied", verts, twoTris, Copy)
	require.NoError(t, err)
	assert.NotSame(t, &verts[0], &copied.Vertices()[0])
	assert.Equal(t, verts, copied.Vertices())
}

func TestCacheInvalidation(t *testing.T) {
	tri, err := NewTriangle("tris", squareVerts, twoTris, Copy)
	require.NoError(t, err)
	require.NoError(t, tri.FindElementSizes())
	require.NoError(t, tri.FindElementNeighbors())
	require.NoError(t, tri.FindEdges())

	require.NoError(t, tri.SetElements([]int64{0, 1, 2}, Copy))
	assert.Nil(t, tri.ElementSizes())
	assert.Nil(t, tri.ElementsContainingVert())
	assert.Nil(t, tri.ElementNeighbors())
	assert.Nil(t, tri.Edges())
	assert.Equal(t, 1, tri.NumberOfElements())

	require.NoError(t, tri.FindElementCentroids())
	tri.DeleteElementCentroids()
	assert.Nil(t, tri.ElementCentroids())
}

func TestDeepCopy(t *testing.T) {
	tri, err := NewTriangle("tris", squareVerts, twoTris, Copy)
	require.NoError(t, err)
	require.NoError(t, tri.FindElementSizes())
	require.NoError(t, tri.FindEdges())

	shape := tri.DeepCopy(false).(*Triangle)
	assert.Equal(t, 4, shape.NumberOfVertices())
	assert.Equal(t, 2, shape.NumberOfElements())
	assert.Nil(t, shape.Vertices())
	assert.Nil(t, shape.ElementSizes())
	assert.Error(t, shape.FindElementSizes())

	full := tri.DeepCopy(true).(*Triangle)
	assert.Equal(t, tri.Vertices(), full.Vertices())
	assert.Equal(t, tri.ElementSizes(), full.ElementSizes())
	tri.Vertices()[0] = 42
	tri.ElementSizes()[0] = 42
	assert.Equal(t, float32(0), full.Vertices()[0])
	assert.Equal(t, float32(0.5), full.ElementSizes()[0])

	// the copy's edge methods act on the copy
	full.DeleteEdges()
	assert.Nil(t, full.Edges())
	assert.NotNil(t, tri.Edges())

	r, err := NewRectGrid("r", []float32{0, 1, 2}, []float32{0, 1}, []float32{0, 1}, Copy)
	require.NoError(t, err)
	rs := r.DeepCopy(false).(*RectGrid)
	assert.Equal(t, [3]int{2, 1, 1}, rs.Dimensions())
	assert.Nil(t, rs.Bounds(0))
	assert.Error(t, rs.FindElementSizes())
	assert.Equal(t, [3]float64{}, rs.CoordsAt(0))
	assert.Equal(t, [3]float64{}, rs.Coords(1, 0, 0))
	assert.Equal(t, [3]float64{}, rs.PlaneCoordsAt(1))
	assert.Equal(t, [3]float64{}, rs.PlaneCoords(2, 1, 1))
	assert.Equal(t, [3]float64{1.5, 0.5, 0.5}, r.CoordsAt(1))
	assert.Equal(t, [3]float64{}, r.Coords(2, 0, 0))

	empty := Create(element.RectGrid, "empty").(Grid)
	assert.Equal(t, [3]float64{}, empty.CoordsAt(0))
}

func TestImage(t *testing.T) {
	img, err := NewImage("img", [3]int{4, 3, 2}, [3]float32{0.5, 1, 2}, [3]float32{1, 0, -2})
	require.NoError(t, err)
	assert.Equal(t, 24, img.NumberOfElements())
	assert.Equal(t, [3]float64{1.25, 0.5, -1}, img.Coords(0, 0, 0))
	assert.Equal(t, [3]float64{1, 0, -2}, img.PlaneCoords(0, 0, 0))
	assert.Equal(t, img.Coords(1, 2, 1), img.CoordsAt(21))
	assert.Equal(t, [6]float64{1, 3, 0, 3, -2, 2}, img.BoundingBox())

	tests := []struct {
		p    [3]float64
		idx  int
		fail bool
	}{
		{[3]float64{1.6, 2.5, 1}, 21, false},
		{[3]float64{1, 0, -2}, 0, false},
		{[3]float64{3, 3, 2}, 23, false},
		{[3]float64{0.9, 0, 0}, 0, true},
		{[3]float64{1, 3.1, 0}, 0, true},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("cell %v", tc.p), func(t *testing.T) {
			idx, err := img.ComputeCellIndex(tc.p)
			if tc.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.idx, idx)
		})
	}

	require.NoError(t, img.FindElementSizes())
	for _, s := range img.ElementSizes() {
		assert.Equal(t, float32(1), s)
	}
	require.NoError(t, img.FindElementCentroids())
	assert.Equal(t, []float32{1.25, 0.5, -1}, img.ElementCentroids()[:3])

	assert.True(t, errors.Is(img.FindElementsContainingVert(), ErrUnsupported))
	assert.True(t, errors.Is(img.FindElementNeighbors(), ErrUnsupported))

	for _, spacing := range [][3]float32{{0, 1, 2}, {0.5, -1, 2}} {
		img.SetSpacing(spacing)
		_, err = img.ComputeCellIndex([3]float64{1, 0, -2})
		assert.Error(t, err, "spacing %v", spacing)
	}
}

func TestRectGridSizes(t *testing.T) {
	r, err := NewRectGrid("r", []float32{0, 1, 3}, []float32{0, 2}, []float32{1, 4}, Copy)
	require.NoError(t, err)
	require.NoError(t, r.FindElementSizes())
	assert.Equal(t, []float32{6, 12}, r.ElementSizes())
	assert.Equal(t, [3]float64{2, 1, 2.5}, r.Coords(1, 0, 0))
	assert.Equal(t, [3]float64{1, 0, 1}, r.PlaneCoords(1, 0, 0))
	assert.Equal(t, [6]float64{0, 3, 0, 2, 1, 4}, r.BoundingBox())

	require.NoError(t, r.SetBounds([]float32{0, 1, 1}, []float32{0, 2}, []float32{1, 4}, Copy))
	require.NoError(t, r.FindElementCentroids())
	err = r.FindElementSizes()
	assert.Error(t, err)
	assert.Equal(t, -1, StatusCode(err))
	assert.Nil(t, r.ElementSizes())
}

func TestRectGridDerivatives(t *testing.T) {
	r, err := NewRectGrid("r",
		[]float32{0, 1, 3, 6}, []float32{0, 2, 3}, []float32{0, 1, 2, 4, 5}, Copy)
	require.NoError(t, err)
	n := r.NumberOfElements()

	for _, threads := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			r.SetThreads(threads)

			constant := make([]float64, n)
			for i := range constant {
				constant[i] = 7
			}
			out := make([]float64, 3*n)
			require.NoError(t, r.FindDerivatives(context.Background(), constant, 1, out, nil))
			for _, d := range out {
				assert.InDelta(t, 0, d, 1e-12)
			}

			linear := make([]float64, n)
			for i := range linear {
				p := r.CoordsAt(i)
				linear[i] = 2*p[0] + 3*p[2]
			}
			var (
				mu      sync.Mutex
				reports int
			)
			obs := progress.Func(func(done, total int64) {
				mu.Lock()
				reports++
				mu.Unlock()
			})
			require.NoError(t, r.FindDerivatives(context.Background(), linear, 1, out, obs))
			for i := 0; i < n; i++ {
				assert.InDeltaSlice(t, []float64{2, 0, 3}, out[3*i:3*i+3], 1e-9)
			}
			assert.Positive(t, reports)
		})
	}

	err = r.FindDerivatives(context.Background(), make([]float64, n-1), 1, make([]float64, 3*n), nil)
	assert.Error(t, err)
}

func TestMeshDerivatives(t *testing.T) {
	tet, err := NewTetrahedral("tet", tetVerts, []int64{0, 1, 2, 3}, Copy)
	require.NoError(t, err)
	field := make([]float64, 4)
	for i := range field {
		field[i] = float64(tetVerts[3*i]) + 2*float64(tetVerts[3*i+1]) + 3*float64(tetVerts[3*i+2])
	}
	out := make([]float64, 3)
	var final bool
	obs := progress.Func(func(done, total int64) { final = final || done == total })
	require.NoError(t, tet.FindDerivatives(context.Background(), field, 1, out, obs))
	assert.InDeltaSlice(t, []float64{1, 2, 3}, out, 1e-9)
	assert.True(t, final)

	v, err := NewVertex("points", tetVerts, Copy)
	require.NoError(t, err)
	assert.True(t, errors.Is(v.FindDerivatives(context.Background(), field, 1, out, nil), ErrUnsupported))
}

func TestFieldAveraging(t *testing.T) {
	tri, err := NewTriangle("tris", squareVerts, twoTris, Copy)
	require.NoError(t, err)
	vertexField := []float64{0, 3, 6, 9}

	cells, err := tri.AverageVertexArrayValues(vertexField, 1, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 5}, cells, 1e-12)

	back, err := tri.AverageCellArrayValues([]float64{3, 5}, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 3, 4, 5}, back, 1e-12)

	weighted, err := tri.AverageVertexArrayValues(vertexField, 1, true)
	require.NoError(t, err)
	assert.NotNil(t, tri.ElementCentroids())
	assert.Len(t, weighted, 2)
}

// populated builds every kind with all of its caches computed
func populated(t *testing.T) []Geometry {
	t.Helper()
	img, err := NewImage("image", [3]int{3, 2, 2}, [3]float32{0.25, 0.5, 1}, [3]float32{-1, 0, 1})
	require.NoError(t, err)
	rect, err := NewRectGrid("rect", []float32{0, 0.1, 0.3}, []float32{0, 1}, []float32{-1, 0, 2.5}, Copy)
	require.NoError(t, err)
	verts, err := NewVertex("vertex", tetVerts, Copy)
	require.NoError(t, err)
	edge, err := NewEdge("edge", squareVerts, []int64{0, 1, 1, 2, 2, 3}, Copy)
	require.NoError(t, err)
	tri, err := NewTriangle("triangle", squareVerts, twoTris, Copy)
	require.NoError(t, err)
	quad, err := NewQuad("quad", squareVerts, []int64{0, 1, 2, 3}, Copy)
	require.NoError(t, err)
	tet, err := NewTetrahedral("tet", append(append([]float32(nil), tetVerts...), 1, 1, 1),
		[]int64{0, 1, 2, 3, 1, 2, 3, 4}, Copy)
	require.NoError(t, err)
	hex, err := NewHexahedral("hex", cubeVerts, []int64{0, 1, 2, 3, 4, 5, 6, 7}, Copy)
	require.NoError(t, err)
	tri.SetUnits("mm")

	geoms := []Geometry{img, rect, verts, edge, tri, quad, tet, hex}
	for _, g := range geoms {
		require.NoError(t, g.FindElementSizes(), g.Name())
		require.NoError(t, g.FindElementCentroids(), g.Name())
		if m, ok := g.(Mesh); ok && m.Kind() != element.Vertex {
			require.NoError(t, g.FindElementNeighbors(), g.Name())
		}
		if m, ok := g.(Mesh2D); ok {
			require.NoError(t, m.FindEdges())
			require.NoError(t, m.FindUnsharedEdges())
		}
		if m, ok := g.(Mesh3D); ok {
			require.NoError(t, m.FindFaces())
			require.NoError(t, m.FindUnsharedFaces())
		}
	}
	return geoms
}

func TestRoundTrip(t *testing.T) {
	root := newRoot(t)
	for _, g := range populated(t) {
		t.Run(g.Kind().String(), func(t *testing.T) {
			grp, err := Write(root, g)
			require.NoError(t, err)

			back, err := Read(grp, false)
			require.NoError(t, err)
			assert.Equal(t, g.Kind(), back.Kind())
			assert.Equal(t, g.Name(), back.Name())
			assert.Equal(t, g.Units(), back.Units())
			assert.Equal(t, g.NumberOfElements(), back.NumberOfElements())
			assert.Equal(t, g.ElementSizes(), back.ElementSizes())
			assert.Equal(t, g.ElementCentroids(), back.ElementCentroids())
			if g.ElementNeighbors() != nil {
				assert.Equal(t, g.ElementNeighbors().Serialize(), back.ElementNeighbors().Serialize())
				assert.Equal(t, g.ElementsContainingVert().Serialize(), back.ElementsContainingVert().Serialize())
			}

			switch want := g.(type) {
			case *Image:
				got := back.(*Image)
				assert.Equal(t, want.Dimensions(), got.Dimensions())
				assert.Equal(t, want.Spacing(), got.Spacing())
				assert.Equal(t, want.Origin(), got.Origin())
			case *RectGrid:
				got := back.(*RectGrid)
				for axis := 0; axis < 3; axis++ {
					assert.Equal(t, want.Bounds(axis), got.Bounds(axis))
				}
			case Mesh:
				got := back.(Mesh)
				assert.Equal(t, want.Vertices(), got.Vertices())
				assert.Equal(t, want.Elements(), got.Elements())
			}
			if want, ok := g.(Mesh2D); ok {
				got := back.(Mesh2D)
				assert.Equal(t, want.Edges(), got.Edges())
				assert.Equal(t, want.UnsharedEdges(), got.UnsharedEdges())
			}
			if want, ok := g.(Mesh3D); ok {
				got := back.(Mesh3D)
				assert.Equal(t, want.Faces(), got.Faces())
				assert.Equal(t, want.UnsharedFaces(), got.UnsharedFaces())
			}
		})
	}
}

func TestPreflightRead(t *testing.T) {
	root := newRoot(t)
	for _, g := range populated(t) {
		t.Run(g.Kind().String(), func(t *testing.T) {
			grp, err := Write(root, g)
			require.NoError(t, err)
			back, err := Read(grp, true)
			require.NoError(t, err)
			assert.Equal(t, g.NumberOfElements(), back.NumberOfElements())
			assert.Nil(t, back.ElementSizes())
			if m, ok := back.(Mesh); ok {
				assert.Equal(t, g.(Mesh).NumberOfVertices(), m.NumberOfVertices())
				assert.Nil(t, m.Vertices())
			}
		})
	}
}

func TestReadErrors(t *testing.T) {
	root := newRoot(t)
	empty, err := root.CreateGroup("empty")
	require.NoError(t, err)
	_, err = Read(empty, false)
	assert.Equal(t, -2, StatusCode(err))

	tri, err := NewTriangle("tris", squareVerts, twoTris, Copy)
	require.NoError(t, err)
	grp, err := Write(root, tri)
	require.NoError(t, err)
	quad := Create(element.Quad, "q")
	assert.Error(t, quad.ReadFrom(grp, false))

	require.NoError(t, grp.DeleteDataset("SharedVertexList"))
	_, err = Read(grp, false)
	assert.Equal(t, -2, StatusCode(err))
}

func TestReadCorruptAdjacency(t *testing.T) {
	tests := []struct {
		dataset string
		ids     []int64
	}{
		{geomio.ElementsContainingVert, []int64{7, 7, 7, 7}},
		{geomio.ElementNeighbors, []int64{-1, 7}},
	}
	for _, tc := range tests {
		t.Run(tc.dataset, func(t *testing.T) {
			tri, err := NewTriangle("tris", squareVerts, twoTris, Copy)
			require.NoError(t, err)
			require.NoError(t, tri.FindElementNeighbors())
			grp, err := Write(newRoot(t), tri)
			require.NoError(t, err)

			l := dynlist.New[uint16, int64](len(tc.ids))
			counts := make([]uint16, len(tc.ids))
			for i := range counts {
				counts[i] = 1
			}
			require.NoError(t, l.Allocate(counts))
			for i, id := range tc.ids {
				require.NoError(t, l.Append(i, id))
			}
			require.NoError(t, geomio.WriteDynamicList(grp, tc.dataset, l))

			_, err = Read(grp, false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, container.ErrCorrupt))
			assert.Equal(t, -1, StatusCode(err))
		})
	}
}

func TestValidate(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	r, err := NewRectGrid("r", []float32{0, 2, 1}, []float32{0, 1}, []float32{0, 1}, Copy)
	require.NoError(t, err)
	issues, err := Validate(r, Policy{Logger: logger})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, Warning, issues[0].Severity)
	assert.Equal(t, 0, issues[0].Index)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	_, err = Validate(r, Policy{TreatWarningsAsErrors: true, Logger: logger})
	assert.True(t, errors.Is(err, ErrStructural))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	tri, err := NewTriangle("tris", squareVerts, []int64{0, 1, 7}, Copy)
	require.NoError(t, err)
	issues, err = Validate(tri, Policy{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "vertex 7")

	img := Create(element.Image, "img")
	issues, err = Validate(img, Policy{})
	assert.True(t, errors.Is(err, ErrStructural))
	assert.Equal(t, Error, issues[0].Severity)

	clean, err := NewHexahedral("hex", cubeVerts, []int64{0, 1, 2, 3, 4, 5, 6, 7}, Copy)
	require.NoError(t, err)
	issues, err = Validate(clean, Policy{})
	assert.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateZeroWidthCell(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r, err := NewRectGrid("r", []float32{0, 1}, []float32{0, 1, 1}, []float32{0, 1}, Copy)
	require.NoError(t, err)
	issues, err := Validate(r, Policy{Logger: zap.New(core)})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.Contains(t, issues[0].Message, "zero width")
	assert.NotContains(t, issues[0].Message, "decrease")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, geomio.YBounds, logs.All()[0].ContextMap()["dataset"])
}

func TestValidateFaces(t *testing.T) {
	// three tets on the face (0,1,2)
	verts := append(append([]float32(nil), tetVerts...), 0, 0, -1, 1, 1, 1)
	fan, err := NewTetrahedral("fan", verts, []int64{0, 1, 2, 3, 0, 1, 2, 4, 0, 1, 2, 5}, Copy)
	require.NoError(t, err)
	_, err = fan.FindFacePairs()
	assert.True(t, errors.Is(err, connectivity.ErrNonManifold))

	core, logs := observer.New(zapcore.WarnLevel)
	issues, err := Validate(fan, Policy{Logger: zap.New(core)})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, Warning, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "non-manifold")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, geomio.SharedTetList, logs.All()[0].ContextMap()["dataset"])

	_, err = Validate(fan, Policy{TreatWarningsAsErrors: true})
	assert.True(t, errors.Is(err, ErrStructural))

	pair, err := NewTetrahedral("pair", verts, []int64{0, 1, 2, 3, 0, 1, 2, 4}, Copy)
	require.NoError(t, err)
	issues, err = Validate(pair, Policy{})
	require.NoError(t, err)
	assert.Empty(t, issues)
	n, err := pair.CountBoundaryFaces()
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestString(t *testing.T) {
	for _, g := range populated(t) {
		t.Run(g.Kind().String(), func(t *testing.T) {
			s := g.String()
			assert.Contains(t, s, fmt.Sprintf("=== %s Summary ===", g.Kind()))
			assert.Contains(t, s, "--- Derived Caches ---")
			assert.Contains(t, s, g.Name())
			assert.NotContains(t, s, "not computed")
		})
	}
	assert.Contains(t, Create(element.Tetrahedral, "t").String(), "not computed")
}
