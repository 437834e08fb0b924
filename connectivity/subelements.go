package connectivity

import (
	"slices"

	"github.com/notargets/GeomKernel/element"
	"github.com/pkg/errors"
)

// tuple is a sorted sub-element key; only the first n slots are used
type tuple [4]int64

func compareTuples(n int) func(a, b tuple) int {
	return func(a, b tuple) int {
		for i := 0; i < n; i++ {
			switch {
			case a[i] < b[i]:
				return -1
			case a[i] > b[i]:
				return 1
			}
		}
		return 0
	}
}

// collect enumerates the local sub-elements of every element as sorted vertex
// tuples and returns them in lexicographic order as a flat list of width n.
// With unsharedOnly set, only tuples occurring exactly once are kept.
func collect(elems []int64, arity int, local [][]int, unsharedOnly bool) ([]int64, error) {
	numElems, err := checkIndexList(elems, arity)
	if err != nil {
		return nil, err
	}
	if len(local) == 0 {
		return nil, nil
	}
	n := len(local[0])
	occurrences := make(map[tuple]int, numElems*len(local))
	for e := 0; e < numElems; e++ {
		verts := elems[e*arity : (e+1)*arity]
		for _, sub := range local {
			var key tuple
			for i, lv := range sub {
				key[i] = verts[lv]
			}
			slices.Sort(key[:n])
			occurrences[key]++
		}
	}

	keys := make([]tuple, 0, len(occurrences))
	for k, c := range occurrences {
		if unsharedOnly && c != 1 {
			continue
		}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareTuples(n))

	out := make([]int64, 0, len(keys)*n)
	for _, k := range keys {
		out = append(out, k[:n]...)
	}
	return out, nil
}

func edgeTable(kind element.Kind) ([][]int, int, error) {
	props := element.Properties(kind)
	switch kind {
	case element.Triangle, element.Quad, element.Tetrahedral, element.Hexahedral:
	default:
		return nil, 0, errors.Wrapf(element.ErrUnsupported, "edge extraction for %v", kind)
	}
	local := make([][]int, len(props.Edges))
	for i, e := range props.Edges {
		local[i] = []int{e[0], e[1]}
	}
	return local, props.NVp, nil
}

func faceTable(kind element.Kind) ([][]int, int, error) {
	switch kind {
	case element.Tetrahedral, element.Hexahedral:
	default:
		return nil, 0, errors.Wrapf(element.ErrUnsupported, "face extraction for %v", kind)
	}
	props := element.Properties(kind)
	return props.Faces, props.NVp, nil
}

// Edges returns the unique edges of a Triangle, Quad, Tetrahedral or
// Hexahedral index list as sorted vertex pairs in lexicographic order.
func Edges(elems []int64, kind element.Kind) ([]int64, error) {
	local, arity, err := edgeTable(kind)
	if err != nil {
		return nil, err
	}
	return collect(elems, arity, local, false)
}

// UnsharedEdges returns the edges used by exactly one element.
func UnsharedEdges(elems []int64, kind element.Kind) ([]int64, error) {
	local, arity, err := edgeTable(kind)
	if err != nil {
		return nil, err
	}
	return collect(elems, arity, local, true)
}

// Faces returns the unique faces of a Tetrahedral (width 3) or Hexahedral
// (width 4) index list as sorted vertex tuples in lexicographic order.
func Faces(elems []int64, kind element.Kind) ([]int64, error) {
	local, arity, err := faceTable(kind)
	if err != nil {
		return nil, err
	}
	return collect(elems, arity, local, false)
}

// UnsharedFaces returns the faces used by exactly one element, the boundary
// of the mesh.
func UnsharedFaces(elems []int64, kind element.Kind) ([]int64, error) {
	local, arity, err := faceTable(kind)
	if err != nil {
		return nil, err
	}
	return collect(elems, arity, local, true)
}
