package geomio

import (
	"math"
	"testing"

	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/dynlist"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newGroup(t *testing.T) *container.Group {
	t.Helper()
	f, err := container.Open(container.NewMemStore())
	require.NoError(t, err)
	g, err := f.Root().CreateGroup("geom")
	require.NoError(t, err)
	return g
}

func TestMetadata(t *testing.T) {
	g := newGroup(t)
	md := Metadata{Kind: "TriangleGeometry", SpatialDimensionality: 3, Name: "surface", Units: "Micrometer"}
	require.NoError(t, WriteMetadata(g, md))
	back, err := ReadMetadata(g)
	require.NoError(t, err)
	assert.Equal(t, md, back)

	_, err = ReadMetadata(newGroup(t))
	assert.True(t, errors.Is(err, container.ErrNotFound))
}

func TestGridDescriptors(t *testing.T) {
	g := newGroup(t)
	require.NoError(t, WriteDimensions(g, [3]int64{4, 5, 1}))
	require.NoError(t, WriteFloatTuple(g, Spacing, [3]float32{0.5, 0.25, 1}))
	require.NoError(t, WriteFloatList(g, XBounds, []float32{0, 1, 3}, 1))

	dims, err := ReadDimensions(g)
	require.NoError(t, err)
	assert.Equal(t, [3]int64{4, 5, 1}, dims)
	sp, err := ReadFloatTuple(g, Spacing)
	require.NoError(t, err)
	assert.Equal(t, [3]float32{0.5, 0.25, 1}, sp)

	b, n, err := ReadFloatList(g, XBounds, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{0, 1, 3}, b)

	_, err = ReadFloatTuple(g, XBounds)
	assert.Error(t, err)
	_, err = ReadFloatTuple(g, Origin)
	assert.True(t, errors.Is(err, container.ErrNotFound))
	assert.NoError(t, Optional(err))
}

func TestVertexAndIndexLists(t *testing.T) {
	g := newGroup(t)
	verts := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, float32(math.Pi)}
	tris := []int64{0, 1, 2, 1, 3, 2}
	require.NoError(t, WriteVertexList(g, verts))
	require.NoError(t, WriteIndexList(g, SharedTriList, tris, 3))

	v, n, err := ReadVertexList(g, false)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for i := range verts {
		assert.Equal(t, math.Float32bits(verts[i]), math.Float32bits(v[i]))
	}

	ids, m, err := ReadIndexList(g, SharedTriList, 3, false)
	require.NoError(t, err)
	assert.Equal(t, 2, m)
	assert.Equal(t, tris, ids)

	// preflight returns the shape only
	ids, m, err = ReadIndexList(g, SharedTriList, 3, true)
	require.NoError(t, err)
	assert.Equal(t, 2, m)
	assert.Nil(t, ids)

	_, _, err = ReadIndexList(g, SharedTriList, 4, false)
	assert.Error(t, err)
	assert.Error(t, WriteIndexList(g, SharedQuadList, tris, 4))
}

func TestIndexListUnsignedFallback(t *testing.T) {
	g := newGroup(t)
	ds, err := container.NewDataset(SharedTetList, []uint64{2, 4}, []uint64{0, 1, 2, 3, 1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, g.WriteDataset(ds))

	ids, n, err := ReadIndexList(g, SharedTetList, 4, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{0, 1, 2, 3, 1, 2, 3, 4}, ids)

	huge, err := container.NewDataset(SharedEdgeList, []uint64{1, 2}, []uint64{0, math.MaxUint64})
	require.NoError(t, err)
	require.NoError(t, g.WriteDataset(huge))
	_, _, err = ReadIndexList(g, SharedEdgeList, 2, false)
	assert.True(t, errors.Is(err, container.ErrCorrupt))

	floats, err := container.NewDataset(SharedHexList, []uint64{1, 8}, make([]float32, 8))
	require.NoError(t, err)
	require.NoError(t, g.WriteDataset(floats))
	_, _, err = ReadIndexList(g, SharedHexList, 8, false)
	assert.True(t, errors.Is(err, container.ErrTypeMismatch))
}

func TestDynamicList(t *testing.T) {
	g := newGroup(t)
	l := dynlist.New[uint16, int64](3)
	require.NoError(t, l.Allocate([]uint16{2, 0, 1}))
	require.NoError(t, l.SetList(0, []int64{4, 7}))
	require.NoError(t, l.SetList(2, []int64{1}))
	require.NoError(t, WriteDynamicList(g, ElementNeighbors, l))

	back, err := ReadDynamicList(g, ElementNeighbors, 3, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 7}, back.List(0))
	assert.Empty(t, back.List(1))
	assert.Equal(t, []int64{1}, back.List(2))

	pre, err := ReadDynamicList(g, ElementNeighbors, 3, true)
	require.NoError(t, err)
	assert.Nil(t, pre)

	_, err = ReadDynamicList(g, ElementNeighbors, 4, false)
	assert.True(t, errors.Is(err, container.ErrCorrupt))
	_, err = ReadDynamicList(g, ElementsContainingVert, 3, false)
	assert.True(t, errors.Is(err, container.ErrNotFound))
}

func TestReadsAreQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f, err := container.Open(container.NewMemStore(), container.WithLogger(zap.New(core)))
	require.NoError(t, err)
	g := f.Root()
	_, _, _ = ReadVertexList(g, false)
	_, _, _ = ReadIndexList(g, SharedTriList, 3, true)
	_, _ = ReadDynamicList(g, ElementNeighbors, 2, false)
	_, _ = ReadMetadata(g)
	assert.Equal(t, 0, logs.Len())
	assert.True(t, f.ReportingErrors())

	_, err = g.ReadDataset(SharedVertexList)
	require.Error(t, err)
	assert.Equal(t, 1, logs.Len())
}
