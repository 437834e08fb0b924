// Package connectivity builds adjacency structures over element index lists:
// vertex to element lists, element neighbor graphs, and unique or unshared
// edges and faces.
package connectivity

import (
	"math"

	"github.com/notargets/GeomKernel/dynlist"
	"github.com/notargets/GeomKernel/element"
	"github.com/pkg/errors"
)

// ElementList is the ragged array type used for every adjacency result:
// uint16 counts and int64 element ids, the persisted layout.
type ElementList = dynlist.List[uint16, int64]

func checkIndexList(elems []int64, arity int) (int, error) {
	if arity <= 0 {
		return 0, errors.Errorf("invalid arity %d", arity)
	}
	if len(elems)%arity != 0 {
		return 0, errors.Errorf("index list length %d is not a multiple of arity %d", len(elems), arity)
	}
	return len(elems) / arity, nil
}

// ElementsContainingVert maps every vertex to the elements that reference it.
// Pass one counts occurrences per vertex, storage is allocated once, and pass
// two fills each vertex's run through its own cursor.
func ElementsContainingVert(elems []int64, arity, numVerts int) (*ElementList, error) {
	numElems, err := checkIndexList(elems, arity)
	if err != nil {
		return nil, err
	}

	counts := make([]uint16, numVerts)
	for e := 0; e < numElems; e++ {
		for _, v := range elems[e*arity : (e+1)*arity] {
			if v < 0 || v >= int64(numVerts) {
				return nil, errors.Errorf("element %d references vertex %d, vertex count is %d", e, v, numVerts)
			}
			if counts[v] == math.MaxUint16 {
				return nil, errors.Errorf("vertex %d is shared by more than %d elements", v, math.MaxUint16)
			}
			counts[v]++
		}
	}

	list := dynlist.New[uint16, int64](numVerts)
	if err = list.Allocate(counts); err != nil {
		return nil, err
	}
	for e := 0; e < numElems; e++ {
		for _, v := range elems[e*arity : (e+1)*arity] {
			if err = list.Append(int(v), int64(e)); err != nil {
				return nil, err
			}
		}
	}
	return list, nil
}

// ElementNeighbors finds, for every element, the elements sharing exactly the
// kind's threshold number of vertices with it (Edge 1, Triangle and Quad 2,
// Tetrahedral 3, Hexahedral 4). containing must be the result of
// ElementsContainingVert for the same index list.
func ElementNeighbors(elems []int64, kind element.Kind, containing *ElementList) (*ElementList, error) {
	props := element.Properties(kind)
	if props.SharedVerts == 0 {
		return nil, errors.Wrapf(element.ErrUnsupported, "element neighbors for %v", kind)
	}
	arity := props.NVp
	numElems, err := checkIndexList(elems, arity)
	if err != nil {
		return nil, err
	}
	if containing == nil {
		return nil, errors.New("vertex to element list is required")
	}

	visited := make([]bool, numElems)
	counts := make([]uint16, numElems)
	found := make([]int64, 0, numElems*props.NFaces()+numElems)
	starts := make([]int, numElems+1)
	loop := make([]int64, 0, 32)

	for t := 0; t < numElems; t++ {
		seed := elems[t*arity : (t+1)*arity]
		loop = loop[:0]
		for _, v := range seed {
			if v < 0 || int(v) >= containing.Owners() {
				return nil, errors.Errorf("element %d vertex %d outside vertex list of %d owners", t, v, containing.Owners())
			}
			for _, cand := range containing.List(int(v)) {
				if cand < 0 || int(cand) >= numElems {
					return nil, errors.Errorf("vertex %d lists element %d, element count is %d", v, cand, numElems)
				}
				if cand == int64(t) || visited[cand] {
					continue
				}
				other := elems[int(cand)*arity : (int(cand)+1)*arity]
				shared := 0
				for _, a := range seed {
					for _, b := range other {
						if a == b {
							shared++
						}
					}
				}
				if shared == props.SharedVerts {
					loop = append(loop, cand)
					visited[cand] = true
				}
			}
		}
		for _, n := range loop {
			visited[n] = false
		}
		if len(loop) > math.MaxUint16 {
			return nil, errors.Errorf("element %d has %d neighbors", t, len(loop))
		}
		counts[t] = uint16(len(loop))
		starts[t] = len(found)
		found = append(found, loop...)
	}
	starts[numElems] = len(found)

	list := dynlist.New[uint16, int64](numElems)
	if err = list.Allocate(counts); err != nil {
		return nil, err
	}
	for t := 0; t < numElems; t++ {
		if err = list.SetList(t, found[starts[t]:starts[t+1]]); err != nil {
			return nil, err
		}
	}
	return list, nil
}
