package container

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func stores(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"mem": func() Store { return NewMemStore() },
		"badger": func() Store {
			s, err := OpenBadger(BadgerOptions{InMemory: true})
			require.NoError(t, err)
			return s
		},
	}
}

func TestDatasetEncoding(t *testing.T) {
	ds, err := NewDataset("verts", []uint64{2, 3}, []float32{0, 1, 2, 3.5, -4, 5})
	require.NoError(t, err)
	assert.Equal(t, Float32, ds.Type)
	assert.Len(t, ds.Data, 24)
	assert.Equal(t, uint64(2), ds.Tuples())

	got, err := ds.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 2, 3.5, -4, 5}, got)

	_, err = ds.Int64s()
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = NewDataset("bad", []uint64{4}, []int64{1, 2})
	assert.Error(t, err)

	empty, err := NewDataset("empty", []uint64{0, 3}, []int64{})
	require.NoError(t, err)
	vals, err := empty.Int64s()
	require.NoError(t, err)
	assert.Empty(t, vals)

	back, err := decodeDataset("verts", ds.encode(), true)
	require.NoError(t, err)
	assert.Equal(t, ds, back)

	_, err = decodeDataset("verts", ds.encode()[:10], true)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestGroupsAndDatasets(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			f, err := Open(open(), WithCache(1<<20))
			require.NoError(t, err)
			defer f.Close()

			dc, err := f.Root().CreateGroup("DataContainers/dc")
			require.NoError(t, err)
			assert.Equal(t, "/DataContainers/dc", dc.Path())
			assert.Equal(t, "dc", dc.Name())
			_, err = dc.CreateGroup("geom")
			require.NoError(t, err)
			_, err = dc.CreateGroup("attr")
			require.NoError(t, err)

			groups, err := dc.Groups()
			require.NoError(t, err)
			assert.Equal(t, []string{"attr", "geom"}, groups)
			top, err := f.Root().Groups()
			require.NoError(t, err)
			assert.Equal(t, []string{"DataContainers"}, top)

			geom, err := f.Root().OpenGroup("/DataContainers/dc/geom")
			require.NoError(t, err)
			ids, err := NewDataset("SharedTriList", []uint64{2, 3}, []int64{0, 1, 2, 1, 3, 2})
			require.NoError(t, err)
			require.NoError(t, geom.WriteDataset(ids))
			for i := 0; i < 2; i++ { // second read may come from the cache
				back, err := geom.ReadDataset("SharedTriList")
				require.NoError(t, err)
				assert.Equal(t, ids, back)
			}

			info, err := geom.DatasetInfo("SharedTriList")
			require.NoError(t, err)
			assert.Equal(t, []uint64{2, 3}, info.Dims)
			assert.Equal(t, Int64, info.Type)
			assert.Nil(t, info.Data)

			// overwrite with a different type
			uids, err := NewDataset("SharedTriList", []uint64{1, 3}, []uint64{4, 5, 6})
			require.NoError(t, err)
			require.NoError(t, geom.WriteDataset(uids))
			back, err := geom.ReadDataset("SharedTriList")
			require.NoError(t, err)
			assert.Equal(t, Uint64, back.Type)

			names, err := geom.Datasets()
			require.NoError(t, err)
			assert.Equal(t, []string{"SharedTriList"}, names)
			assert.True(t, geom.HasDataset("SharedTriList"))

			require.NoError(t, geom.DeleteDataset("SharedTriList"))
			assert.False(t, geom.HasDataset("SharedTriList"))
			_, err = geom.ReadDataset("SharedTriList")
			assert.True(t, errors.Is(err, ErrNotFound))

			_, err = dc.OpenGroup("missing")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestAttributes(t *testing.T) {
	f, err := Open(NewMemStore())
	require.NoError(t, err)
	g := f.Root()
	require.NoError(t, g.SetAttribute("kind", StringAttribute("TriangleGeometry")))
	require.NoError(t, g.SetAttribute("spatialDimensionality", Uint32Attribute(3)))

	a, err := g.Attribute("kind")
	require.NoError(t, err)
	s, err := a.AsString()
	require.NoError(t, err)
	assert.Equal(t, "TriangleGeometry", s)
	_, err = a.AsUint32()
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	a, err = g.Attribute("spatialDimensionality")
	require.NoError(t, err)
	v, err := a.AsUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	names, err := g.Attributes()
	require.NoError(t, err)
	assert.Equal(t, []string{"kind", "spatialDimensionality"}, names)

	_, err = g.Attribute("units")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSuppressErrorReporting(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f, err := Open(NewMemStore(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = f.Root().ReadDataset("nope")
	require.Error(t, err)
	assert.Equal(t, 1, logs.Len())

	outer := f.SuppressErrorReporting()
	inner := f.SuppressErrorReporting()
	_, _ = f.Root().ReadDataset("nope")
	inner()
	inner() // idempotent
	assert.False(t, f.ReportingErrors())
	_, _ = f.Root().Attribute("nope")
	outer()
	assert.True(t, f.ReportingErrors())
	assert.Equal(t, 1, logs.Len())

	_, _ = f.Root().OpenGroup("nope")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, "/nope", logs.All()[1].ContextMap()["path"])
}

func TestQuietGroup(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f, err := Open(NewMemStore(), WithLogger(zap.New(core)))
	require.NoError(t, err)
	root := f.Root()
	_, err = root.CreateGroup("a")
	require.NoError(t, err)

	quiet := root.Quiet()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = quiet.ReadDataset("nope")
			_, _ = quiet.Attribute("nope")
			a, err := quiet.OpenGroup("a")
			if assert.NoError(t, err) {
				_, _ = a.ReadDataset("nope")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, logs.Len())
	assert.True(t, f.ReportingErrors())

	_, err = root.ReadDataset("nope")
	require.Error(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestArchiveRoundTrip(t *testing.T) {
	f, err := Open(NewMemStore())
	require.NoError(t, err)
	g, err := f.Root().CreateGroup("a/b")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		ds, err := NewDataset(fmt.Sprintf("list%d", i), []uint64{uint64(i)}, make([]float64, i))
		require.NoError(t, err)
		require.NoError(t, g.WriteDataset(ds))
	}
	require.NoError(t, g.SetAttribute("kind", StringAttribute("VertexGeometry")))

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, f))

	restored, err := OpenBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	n, err := ReadArchive(bytes.NewReader(buf.Bytes()), restored)
	require.NoError(t, err)
	assert.Equal(t, 8, n) // 2 groups, 5 datasets, 1 attribute

	want, err := f.Store().Keys("")
	require.NoError(t, err)
	got, err := restored.Keys("")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	for _, k := range want {
		a, err := f.Store().Get(k)
		require.NoError(t, err)
		b, err := restored.Get(k)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), k)
	}
	require.NoError(t, restored.Close())

	_, err = ReadArchive(bytes.NewReader(buf.Bytes()[:buf.Len()/2]), NewMemStore())
	assert.Error(t, err)
}
