package geometry

import (
	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geomio"
	"github.com/pkg/errors"
)

// faceListName is the dataset holding the unique faces of a volume kind
func faceListName(kind element.Kind) string {
	if kind == element.Hexahedral {
		return geomio.SharedQuadList
	}
	return geomio.SharedTriList
}

func (m *mesh) metadata() geomio.Metadata {
	return geomio.Metadata{Kind: m.kind.String(), SpatialDimensionality: m.spatialDims, Name: m.name, Units: m.units}
}

// WriteTo stores the mesh and every populated cache in g
func (m *mesh) WriteTo(g *container.Group) error {
	if err := m.requireData(); err != nil {
		return err
	}
	if err := geomio.WriteMetadata(g, m.metadata()); err != nil {
		return err
	}
	if err := geomio.WriteVertexList(g, m.verts); err != nil {
		return err
	}
	if m.kind != element.Vertex {
		if err := geomio.WriteIndexList(g, m.indexName, m.elems, m.props.NVp); err != nil {
			return err
		}
	}
	return m.writeCaches(g)
}

func (m *mesh) writeCaches(g *container.Group) error {
	if m.sizes != nil {
		if err := geomio.WriteFloatList(g, geomio.ElementSizes, m.sizes, 1); err != nil {
			return err
		}
	}
	if m.centroids != nil {
		if err := geomio.WriteFloatList(g, geomio.ElementCentroids, m.centroids, 3); err != nil {
			return err
		}
	}
	if m.containing != nil {
		if err := geomio.WriteDynamicList(g, geomio.ElementsContainingVert, m.containing); err != nil {
			return err
		}
	}
	if m.neighbors != nil {
		if err := geomio.WriteDynamicList(g, geomio.ElementNeighbors, m.neighbors); err != nil {
			return err
		}
	}
	for _, l := range m.subElementLists() {
		if *l.ids == nil {
			continue
		}
		if err := geomio.WriteIndexList(g, l.name, *l.ids, l.width); err != nil {
			return err
		}
	}
	return nil
}

func (m *mesh) readMetadata(g *container.Group) error {
	md, err := geomio.ReadMetadata(g)
	if err != nil {
		return err
	}
	if md.Kind != m.kind.String() {
		return errors.Errorf("%s holds a %s, expected %s", g.Path(), md.Kind, m.kind)
	}
	if md.Name != "" {
		m.name = md.Name
	}
	m.units, m.spatialDims = md.Units, md.SpatialDimensionality
	return nil
}

// ReadFrom loads the mesh from g. Preflight reads only the vertex and element
// counts. Cached arrays absent from g stay nil.
func (m *mesh) ReadFrom(g *container.Group, preflight bool) error {
	if err := m.readMetadata(g); err != nil {
		return err
	}
	verts, numVerts, err := geomio.ReadVertexList(g, preflight)
	if err != nil {
		return errors.Wrapf(err, "%s %q", m.kind, m.name)
	}
	var (
		elems    []int64
		numElems int
	)
	if m.kind != element.Vertex {
		elems, numElems, err = geomio.ReadIndexList(g, m.indexName, m.props.NVp, preflight)
		if err != nil {
			return errors.Wrapf(err, "%s %q", m.kind, m.name)
		}
	}
	m.invalidate()
	m.verts, m.numVerts = verts, numVerts
	m.elems, m.numElems = elems, numElems
	if preflight {
		return nil
	}
	return errors.Wrapf(m.readCaches(g), "%s %q", m.kind, m.name)
}

func (m *mesh) readCaches(g *container.Group) error {
	var err error
	numElems := m.NumberOfElements()
	if m.sizes, err = readOptionalFloats(g, geomio.ElementSizes, 1, numElems); err != nil {
		return err
	}
	if m.centroids, err = readOptionalFloats(g, geomio.ElementCentroids, 3, numElems); err != nil {
		return err
	}
	if m.kind == element.Vertex {
		return nil
	}
	if m.containing, err = readElementList(g, geomio.ElementsContainingVert, m.numVerts, m.numElems); err != nil {
		return err
	}
	if m.neighbors, err = readElementList(g, geomio.ElementNeighbors, m.numElems, m.numElems); err != nil {
		return err
	}
	for _, l := range m.subElementLists() {
		ids, _, err := geomio.ReadIndexList(g, l.name, l.width, false)
		if geomio.Optional(err) != nil {
			return err
		}
		*l.ids = ids
	}
	return nil
}

// readElementList loads an optional ragged list and rejects element ids
// outside [0, numElems)
func readElementList(g *container.Group, name string, owners, numElems int) (*ElementList, error) {
	l, err := geomio.ReadDynamicList(g, name, owners, false)
	if err != nil {
		return nil, geomio.Optional(err)
	}
	if err := l.Verify(numElems); err != nil {
		return nil, errors.Wrapf(container.ErrCorrupt, "%s: %v", name, err)
	}
	return l, nil
}

// subElementList binds a cached edge or face list to its dataset
type subElementList struct {
	name  string
	ids   *[]int64
	width int
}

func (m *mesh) subElementLists() []subElementList {
	switch m.kind {
	case element.Vertex, element.Edge:
		return nil
	}
	lists := []subElementList{
		{geomio.SharedEdgeList, &m.edges, 2},
		{geomio.UnsharedEdgeList, &m.unsharedEdges, 2},
	}
	if w := (faceOps{m}).faceWidth(); w > 0 {
		lists = append(lists,
			subElementList{faceListName(m.kind), &m.faces, w},
			subElementList{geomio.UnsharedFaceList, &m.unsharedFaces, w})
	}
	return lists
}

// readOptionalFloats reads a cached float list, checking its tuple count;
// an absent list yields nil
func readOptionalFloats(g *container.Group, name string, comps, tuples int) ([]float32, error) {
	vals, n, err := geomio.ReadFloatList(g, name, comps, false)
	if err != nil {
		return nil, geomio.Optional(err)
	}
	if n != tuples {
		return nil, errors.Errorf("%s holds %d tuples, expected %d", name, n, tuples)
	}
	return vals, nil
}
