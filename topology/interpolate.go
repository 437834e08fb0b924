package topology

import (
	"fmt"

	"github.com/notargets/GeomKernel/dynlist"
	"gonum.org/v1/gonum/spatial/r3"
)

// Number is any numeric field component type
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func checkField[T Number](in []T, tuples, comps int) error {
	if comps <= 0 {
		return fmt.Errorf("invalid component count %d", comps)
	}
	if len(in) != tuples*comps {
		return fmt.Errorf("field holds %d values, expected %d tuples x %d components = %d",
			len(in), tuples, comps, tuples*comps)
	}
	return nil
}

// AverageVertexArrayValues computes an element-centered field as the
// unweighted mean of each element's vertex values.
func AverageVertexArrayValues[T Number](elems []int64, arity int, in []T, comps int) ([]float64, error) {
	if arity <= 0 || len(elems)%arity != 0 {
		return nil, fmt.Errorf("index list length %d is not a multiple of arity %d", len(elems), arity)
	}
	if comps <= 0 || len(in)%comps != 0 {
		return nil, fmt.Errorf("vertex field length %d is not a multiple of %d components", len(in), comps)
	}
	numElems, numVerts := len(elems)/arity, int64(len(in)/comps)
	out := make([]float64, numElems*comps)
	for e := 0; e < numElems; e++ {
		for _, v := range elems[e*arity : (e+1)*arity] {
			if v < 0 || v >= numVerts {
				return nil, fmt.Errorf("element %d references vertex %d, field has %d tuples", e, v, numVerts)
			}
			for c := 0; c < comps; c++ {
				out[e*comps+c] += float64(in[int(v)*comps+c])
			}
		}
		for c := 0; c < comps; c++ {
			out[e*comps+c] /= float64(arity)
		}
	}
	return out, nil
}

// WeightedAverageVertexArrayValues computes an element-centered field
// weighting each vertex value by the inverse of its distance to the element
// centroid. A vertex coinciding with the centroid supplies the value alone.
func WeightedAverageVertexArrayValues[T Number](elems []int64, arity int, verts, centroids []float32, in []T, comps int) ([]float64, error) {
	numElems, err := checkMesh(elems, arity, verts)
	if err != nil {
		return nil, err
	}
	if err = checkField(in, len(verts)/3, comps); err != nil {
		return nil, err
	}
	if len(centroids) != 3*numElems {
		return nil, fmt.Errorf("centroid list holds %d values, expected %d", len(centroids), 3*numElems)
	}

	out := make([]float64, numElems*comps)
	weights := make([]float64, arity)
	for e := 0; e < numElems; e++ {
		ids := elems[e*arity : (e+1)*arity]
		center := vertex(centroids, int64(e))
		coincident := -1
		sum := 0.0
		for j, v := range ids {
			d := r3.Norm(r3.Sub(vertex(verts, v), center))
			if d == 0 {
				coincident = j
				break
			}
			weights[j] = 1 / d
			sum += weights[j]
		}
		for c := 0; c < comps; c++ {
			if coincident >= 0 {
				out[e*comps+c] = float64(in[int(ids[coincident])*comps+c])
				continue
			}
			value := 0.0
			for j, v := range ids {
				value += weights[j] * float64(in[int(v)*comps+c])
			}
			out[e*comps+c] = value / sum
		}
	}
	return out, nil
}

// AverageCellArrayValues computes a vertex-centered field from an
// element-centered one, giving each incident element weight 1/owner-count.
// Vertices referenced by no element receive zero.
func AverageCellArrayValues[T Number](containing *dynlist.List[uint16, int64], in []T, comps int) ([]float64, error) {
	if containing == nil {
		return nil, fmt.Errorf("vertex to element list is required")
	}
	if comps <= 0 || len(in)%comps != 0 {
		return nil, fmt.Errorf("element field length %d is not a multiple of %d components", len(in), comps)
	}
	numElems := int64(len(in) / comps)
	numVerts := containing.Owners()
	out := make([]float64, numVerts*comps)
	for v := 0; v < numVerts; v++ {
		owners := containing.List(v)
		if len(owners) == 0 {
			continue
		}
		weight := 1.0 / float64(len(owners))
		for _, e := range owners {
			if e < 0 || e >= numElems {
				return nil, fmt.Errorf("vertex %d lists element %d, field has %d tuples", v, e, numElems)
			}
			for c := 0; c < comps; c++ {
				out[v*comps+c] += float64(in[int(e)*comps+c]) * weight
			}
		}
	}
	return out, nil
}
