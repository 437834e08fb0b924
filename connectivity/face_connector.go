package connectivity

import (
	"slices"

	"github.com/notargets/GeomKernel/element"
	"github.com/pkg/errors"
)

// ErrNonManifold reports a face shared by more than two elements
var ErrNonManifold = errors.New("non-manifold face")

// FaceConnector pairs the local faces of a 3D element mesh
type FaceConnector struct {
	// Mesh dimensions
	K      int // Total elements
	Nfaces int // Faces per element
	Nfv    int // Vertices per face
	Nv     int // Vertices per element

	// Input connectivity
	EToV []int64 // Flat element → vertex list, Nv entries per element

	// Face pairing. A boundary face points back to its own element and face.
	EToE [][]int // [elem][face] → neighbor element
	EToF [][]int // [elem][face] → neighbor's local face

	faces [][]int
}

type faceOwner struct {
	elem, face int
	owners     int
}

// NewFaceConnector pairs the faces of a Tetrahedral or Hexahedral index list
func NewFaceConnector(elems []int64, kind element.Kind) (*FaceConnector, error) {
	local, arity, err := faceTable(kind)
	if err != nil {
		return nil, err
	}
	K, err := checkIndexList(elems, arity)
	if err != nil {
		return nil, err
	}
	if K == 0 {
		return nil, errors.Errorf("invalid dimensions: K=%d", K)
	}

	fc := &FaceConnector{
		K:      K,
		Nfaces: len(local),
		Nfv:    len(local[0]),
		Nv:     arity,
		EToV:   elems,
		faces:  local,
	}
	if err := fc.buildPairs(); err != nil {
		return nil, err
	}
	return fc, nil
}

// faceKey returns the sorted vertex tuple of local face f of element e
func (fc *FaceConnector) faceKey(e, f int) tuple {
	var key tuple
	for i, lv := range fc.faces[f] {
		key[i] = fc.EToV[e*fc.Nv+lv]
	}
	slices.Sort(key[:fc.Nfv])
	return key
}

// buildPairs matches faces by their sorted vertex keys
func (fc *FaceConnector) buildPairs() error {
	fc.EToE = make([][]int, fc.K)
	fc.EToF = make([][]int, fc.K)
	for e := 0; e < fc.K; e++ {
		fc.EToE[e] = make([]int, fc.Nfaces)
		fc.EToF[e] = make([]int, fc.Nfaces)
		for f := 0; f < fc.Nfaces; f++ {
			fc.EToE[e][f] = e // Self-connection by default
			fc.EToF[e][f] = f
		}
	}

	faceMap := make(map[tuple]*faceOwner, fc.K*fc.Nfaces)
	for e := 0; e < fc.K; e++ {
		for f := 0; f < fc.Nfaces; f++ {
			key := fc.faceKey(e, f)
			existing, found := faceMap[key]
			if !found {
				faceMap[key] = &faceOwner{elem: e, face: f, owners: 1}
				continue
			}
			existing.owners++
			if existing.owners > 2 {
				return errors.Wrapf(ErrNonManifold, "face %v of element %d is shared by %d elements", key[:fc.Nfv], e, existing.owners)
			}
			fc.EToE[e][f] = existing.elem
			fc.EToF[e][f] = existing.face
			fc.EToE[existing.elem][existing.face] = e
			fc.EToF[existing.elem][existing.face] = f
		}
	}
	return nil
}

// IsBoundary reports whether face f of element e has no neighbor
func (fc *FaceConnector) IsBoundary(e, f int) bool {
	return fc.EToE[e][f] == e && fc.EToF[e][f] == f
}

// BoundaryFaces returns the number of unpaired faces
func (fc *FaceConnector) BoundaryFaces() int {
	n := 0
	for e := 0; e < fc.K; e++ {
		for f := 0; f < fc.Nfaces; f++ {
			if fc.IsBoundary(e, f) {
				n++
			}
		}
	}
	return n
}

// Verify checks index validity and pairing consistency
func (fc *FaceConnector) Verify() error {
	// Verify 1: Local validity - all neighbor indices are within bounds
	for e := 0; e < fc.K; e++ {
		for f := 0; f < fc.Nfaces; f++ {
			n, nf := fc.EToE[e][f], fc.EToF[e][f]
			if n < 0 || n >= fc.K || nf < 0 || nf >= fc.Nfaces {
				return errors.Errorf("invalid pairing (%d,%d) for element %d face %d", n, nf, e, f)
			}
		}
	}

	// Verify 2: Symmetry - the neighbor's face points back at us
	for e := 0; e < fc.K; e++ {
		for f := 0; f < fc.Nfaces; f++ {
			n, nf := fc.EToE[e][f], fc.EToF[e][f]
			if fc.EToE[n][nf] != e || fc.EToF[n][nf] != f {
				return errors.Errorf("asymmetric pairing: (%d,%d)->(%d,%d)->(%d,%d)",
					e, f, n, nf, fc.EToE[n][nf], fc.EToF[n][nf])
			}
		}
	}

	// Verify 3: Matching - paired faces carry the same vertex set
	for e := 0; e < fc.K; e++ {
		for f := 0; f < fc.Nfaces; f++ {
			n, nf := fc.EToE[e][f], fc.EToF[e][f]
			if fc.faceKey(e, f) != fc.faceKey(n, nf) {
				return errors.Errorf("vertex mismatch: element %d face %d vs element %d face %d", e, f, n, nf)
			}
		}
	}

	return nil
}
