// Package geomio reads and writes the persisted form of geometries: metadata
// attributes, grid descriptors, vertex lists, fixed-arity index lists and
// ragged adjacency lists, each as a typed dataset in a container group.
//
// Every read goes through a quiet view of the group; failures are returned,
// not logged, and other readers of the container keep their reporting. A missing dataset yields an error wrapping
// container.ErrNotFound so callers can treat optional data as absent.
// Preflight reads return shapes only.
package geomio

import (
	"math"
	"unsafe"

	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/dynlist"
	"github.com/pkg/errors"
)

// Dataset and attribute names of the persisted layout
const (
	KindAttr                  = "kind"
	SpatialDimensionalityAttr = "spatialDimensionality"
	NameAttr                  = "name"
	UnitsAttr                 = "units"

	Dimensions = "Dimensions"
	Spacing    = "Spacing"
	Origin     = "Origin"
	XBounds    = "xBoundsList"
	YBounds    = "yBoundsList"
	ZBounds    = "zBoundsList"

	SharedVertexList = "SharedVertexList"
	SharedEdgeList   = "SharedEdgeList"
	SharedTriList    = "SharedTriList"
	SharedQuadList   = "SharedQuadList"
	SharedTetList    = "SharedTetList"
	SharedHexList    = "SharedHexList"
	UnsharedEdgeList = "UnsharedEdgeList"
	UnsharedFaceList = "UnsharedFaceList"

	VoxelSizes             = "VoxelSizes"
	ElementSizes           = "ElementSizes"
	ElementCentroids       = "ElementCentroids"
	ElementsContainingVert = "ElementsContainingVert"
	ElementNeighbors       = "ElementNeighbors"
)

// ElementList is the ragged adjacency type persisted by geometries
type ElementList = dynlist.List[uint16, int64]

// Metadata is the attribute set identifying a geometry group
type Metadata struct {
	Kind                  string
	SpatialDimensionality uint32
	Name                  string
	Units                 string
}

func WriteMetadata(g *container.Group, md Metadata) error {
	attrs := []struct {
		name string
		a    container.Attribute
	}{
		{KindAttr, container.StringAttribute(md.Kind)},
		{SpatialDimensionalityAttr, container.Uint32Attribute(md.SpatialDimensionality)},
		{NameAttr, container.StringAttribute(md.Name)},
		{UnitsAttr, container.StringAttribute(md.Units)},
	}
	for _, at := range attrs {
		if err := g.SetAttribute(at.name, at.a); err != nil {
			return errors.Wrapf(err, "writing attribute %s of %s", at.name, g.Path())
		}
	}
	return nil
}

// ReadMetadata reads the geometry attributes. kind and spatialDimensionality
// are required; name and units default to empty.
func ReadMetadata(g *container.Group) (Metadata, error) {
	g = g.Quiet()
	var md Metadata
	a, err := g.Attribute(KindAttr)
	if err != nil {
		return md, err
	}
	if md.Kind, err = a.AsString(); err != nil {
		return md, errors.Wrapf(err, "%s attribute %s", g.Path(), KindAttr)
	}
	if a, err = g.Attribute(SpatialDimensionalityAttr); err != nil {
		return md, err
	}
	if md.SpatialDimensionality, err = a.AsUint32(); err != nil {
		return md, errors.Wrapf(err, "%s attribute %s", g.Path(), SpatialDimensionalityAttr)
	}
	for name, dst := range map[string]*string{NameAttr: &md.Name, UnitsAttr: &md.Units} {
		if a, err = g.Attribute(name); err == nil {
			*dst, _ = a.AsString()
		}
	}
	return md, nil
}

// shape checks a dataset's dims against [tuples, comps] and returns tuples
func shape(ds *container.Dataset, comps int) (int, error) {
	switch {
	case len(ds.Dims) == 1 && comps == 1:
	case len(ds.Dims) == 2 && ds.Dims[1] == uint64(comps):
	default:
		return 0, errors.Errorf("dataset %q has shape %v, expected [n %d]", ds.Name, ds.Dims, comps)
	}
	return int(ds.Dims[0]), nil
}

func writeList[T container.Element](g *container.Group, name string, vals []T, comps int) error {
	if comps <= 0 || len(vals)%comps != 0 {
		return errors.Errorf("%s: %d values are not a multiple of %d components", name, len(vals), comps)
	}
	dims := []uint64{uint64(len(vals) / comps), uint64(comps)}
	if comps == 1 {
		dims = dims[:1]
	}
	ds, err := container.NewDataset(name, dims, vals)
	if err != nil {
		return err
	}
	return errors.Wrapf(g.WriteDataset(ds), "writing %s/%s", g.Path(), name)
}

func readList[T container.Element](g *container.Group, name string, comps int, preflight bool) ([]T, int, error) {
	g = g.Quiet()
	info, err := g.DatasetInfo(name)
	if err != nil {
		return nil, 0, err
	}
	tuples, err := shape(info, comps)
	if err != nil || preflight {
		return nil, tuples, err
	}
	if want := container.TypeOf[T](); info.Type != want {
		return nil, 0, errors.Wrapf(container.ErrTypeMismatch, "%s holds %s, expected %s", name, info.Type, want)
	}
	ds, err := g.ReadDataset(name)
	if err != nil {
		return nil, 0, err
	}
	vals, err := container.Values[T](ds)
	return vals, tuples, err
}

func WriteDimensions(g *container.Group, dims [3]int64) error {
	return writeList(g, Dimensions, dims[:], 1)
}

func ReadDimensions(g *container.Group) ([3]int64, error) {
	var dims [3]int64
	vals, n, err := readList[int64](g, Dimensions, 1, false)
	if err != nil {
		return dims, err
	}
	if n != 3 {
		return dims, errors.Errorf("%s holds %d values, expected 3", Dimensions, n)
	}
	copy(dims[:], vals)
	return dims, nil
}

// WriteFloatTuple writes a float32[3] such as Spacing or Origin
func WriteFloatTuple(g *container.Group, name string, v [3]float32) error {
	return writeList(g, name, v[:], 1)
}

func ReadFloatTuple(g *container.Group, name string) ([3]float32, error) {
	var out [3]float32
	vals, n, err := readList[float32](g, name, 1, false)
	if err != nil {
		return out, err
	}
	if n != 3 {
		return out, errors.Errorf("%s holds %d values, expected 3", name, n)
	}
	copy(out[:], vals)
	return out, nil
}

// WriteFloatList writes a float32[n][comps] list
func WriteFloatList(g *container.Group, name string, vals []float32, comps int) error {
	return writeList(g, name, vals, comps)
}

// ReadFloatList returns the values and tuple count of a float32[n][comps]
// list; preflight returns the tuple count only.
func ReadFloatList(g *container.Group, name string, comps int, preflight bool) ([]float32, int, error) {
	return readList[float32](g, name, comps, preflight)
}

func WriteVertexList(g *container.Group, verts []float32) error {
	return writeList(g, SharedVertexList, verts, 3)
}

func ReadVertexList(g *container.Group, preflight bool) ([]float32, int, error) {
	return readList[float32](g, SharedVertexList, 3, preflight)
}

func WriteIndexList(g *container.Group, name string, ids []int64, arity int) error {
	return writeList(g, name, ids, arity)
}

// ReadIndexList reads an [n][arity] index list stored as int64, or as
// uint64 by newer writers. A uint64 buffer is reinterpreted in place.
func ReadIndexList(g *container.Group, name string, arity int, preflight bool) ([]int64, int, error) {
	g = g.Quiet()
	ids, n, err := readList[int64](g, name, arity, preflight)
	if !errors.Is(err, container.ErrTypeMismatch) {
		return ids, n, err
	}
	uids, n, err := readList[uint64](g, name, arity, preflight)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "%s is neither int64 nor uint64", name)
	}
	for i, v := range uids {
		if v > math.MaxInt64 {
			return nil, 0, errors.Wrapf(container.ErrCorrupt, "%s entry %d: index %d overflows int64", name, i, v)
		}
	}
	if len(uids) == 0 {
		return []int64{}, n, nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(unsafe.SliceData(uids))), len(uids)), n, nil
}

// WriteDynamicList writes l as a flat byte dataset of (uint16 count,
// int64 ids[count]) records in owner order.
func WriteDynamicList(g *container.Group, name string, l *ElementList) error {
	if l == nil {
		return errors.Errorf("%s: nil list", name)
	}
	buf := l.Serialize()
	ds, err := container.NewDataset(name, []uint64{uint64(len(buf))}, buf)
	if err != nil {
		return err
	}
	return errors.Wrapf(g.WriteDataset(ds), "writing %s/%s", g.Path(), name)
}

// ReadDynamicList parses the records of a ragged list for a known owner
// count. Preflight checks presence only and returns nil.
func ReadDynamicList(g *container.Group, name string, owners int, preflight bool) (*ElementList, error) {
	g = g.Quiet()
	if _, err := g.DatasetInfo(name); err != nil || preflight {
		return nil, err
	}
	ds, err := g.ReadDataset(name)
	if err != nil {
		return nil, err
	}
	buf, err := ds.Bytes()
	if err != nil {
		return nil, err
	}
	l, err := dynlist.Deserialize[uint16, int64](buf, owners)
	if err != nil {
		return nil, errors.Wrapf(container.ErrCorrupt, "%s: %v", name, err)
	}
	return l, nil
}

// Optional maps a not-found error to nil so absent optional datasets are
// skipped
func Optional(err error) error {
	if errors.Is(err, container.ErrNotFound) {
		return nil
	}
	return err
}
