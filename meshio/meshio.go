// Package meshio imports unstructured meshes from Gambit, Gmsh and SU2 files
// into geometries.
package meshio

import (
	"path/filepath"
	"strings"

	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geometry"
	"github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"github.com/notargets/gocfd/utils"
	"github.com/pkg/errors"
)

// ReadMeshFile reads meshfile and keeps the elements of kind. The geometry
// is named after the file's base name.
func ReadMeshFile(meshfile string, kind element.Kind) (geometry.Mesh, error) {
	msh, err := readers.ReadMeshFile(meshfile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", meshfile)
	}
	name := strings.TrimSuffix(filepath.Base(meshfile), filepath.Ext(meshfile))
	return FromMesh(msh, kind, name)
}

// cellTypes maps each importable kind to the reader's linear element type
var cellTypes = map[element.Kind]utils.ElementType{
	element.Edge:        utils.Line,
	element.Triangle:    utils.Triangle,
	element.Quad:        utils.Quad,
	element.Tetrahedral: utils.Tet,
	element.Hexahedral:  utils.Hex,
}

// FromMesh converts msh into a geometry of kind. An element is kept when its
// recorded type is the kind's linear type; elements without a recorded type
// are kept when their vertex count matches the kind's arity. Vertices no
// kept element references are dropped and the survivors are renumbered in
// first-use order.
func FromMesh(msh *mesh.Mesh, kind element.Kind, name string) (geometry.Mesh, error) {
	if msh == nil {
		return nil, errors.New("nil mesh")
	}
	if kind.IsGrid() || kind == element.Vertex {
		return nil, errors.Wrapf(geometry.ErrUnsupported, "importing %s", kind)
	}
	arity := element.Properties(kind).NVp
	want := cellTypes[kind]
	typed := len(msh.ElementTypes) == len(msh.EtoV)

	remap := make(map[int]int64)
	var (
		verts []float32
		elems []int64
	)
	for k, ev := range msh.EtoV {
		if typed && msh.ElementTypes[k] != utils.Unknown && msh.ElementTypes[k] != want {
			continue
		}
		if !keep(ev, arity, len(msh.Vertices)) {
			continue
		}
		for _, v := range ev {
			id, ok := remap[v]
			if !ok {
				id = int64(len(remap))
				remap[v] = id
				p := msh.Vertices[v]
				if len(p) < 3 {
					return nil, errors.Errorf("vertex %d of element %d has %d coordinates", v, k, len(p))
				}
				verts = append(verts, float32(p[0]), float32(p[1]), float32(p[2]))
			}
			elems = append(elems, id)
		}
	}
	if len(elems) == 0 {
		return nil, errors.Errorf("mesh %q holds no %s elements", name, kind)
	}

	switch kind {
	case element.Edge:
		return geometry.NewEdge(name, verts, elems, geometry.Move)
	case element.Triangle:
		return geometry.NewTriangle(name, verts, elems, geometry.Move)
	case element.Quad:
		return geometry.NewQuad(name, verts, elems, geometry.Move)
	case element.Tetrahedral:
		return geometry.NewTetrahedral(name, verts, elems, geometry.Move)
	case element.Hexahedral:
		return geometry.NewHexahedral(name, verts, elems, geometry.Move)
	}
	return nil, errors.Wrapf(geometry.ErrUnsupported, "importing %s", kind)
}

// keep reports whether ev is a complete element of the requested arity
func keep(ev []int, arity, numVerts int) bool {
	if len(ev) != arity {
		return false
	}
	for _, v := range ev {
		if v < 0 || v >= numVerts {
			return false
		}
	}
	return true
}
