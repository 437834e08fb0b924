package derivatives

import (
	"math"

	"github.com/notargets/GeomKernel/element"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transforms evaluates the inverse Jacobian of every element of kind at its
// parametric center. Surface elements complete the Jacobian with their unit
// normal and line elements with two unit vectors orthogonal to the edge, so
// the completed directions carry no field variation. Degenerate elements get
// all-zero metric terms.
func Transforms(kind element.Kind, elems []int64, verts []float32) (*element.GeometricTransform, error) {
	props := element.Properties(kind)
	if props.Dimensions == element.D0 || kind.IsGrid() || props.NVp == 0 {
		return nil, errors.Wrapf(element.ErrUnsupported, "shape-function derivatives for %s", kind)
	}
	numElems, err := checkElements(elems, props.NVp, verts)
	if err != nil {
		return nil, err
	}
	dims := int(props.Dimensions)
	dN := element.ShapeFunctionDerivatives(kind, element.ParametricCenter(kind))
	gt := element.NewGeometricTransform(numElems)

	var jac [9]float64
	for e := 0; e < numElems; e++ {
		ids := elems[e*props.NVp : (e+1)*props.NVp]
		jac = [9]float64{}
		for a := 0; a < dims; a++ {
			for n, v := range ids {
				w := dN[a*props.NVp+n]
				for i := 0; i < 3; i++ {
					jac[3*a+i] += w * float64(verts[3*v+int64(i)])
				}
			}
		}
		if !complete(&jac, dims) {
			continue
		}
		m := mat.NewDense(3, 3, jac[:])
		det := mat.Det(m)
		if det == 0 {
			continue
		}
		var inv mat.Dense
		if err := inv.Inverse(m); err != nil {
			continue
		}
		var flat [9]float64
		for i := 0; i < 3; i++ {
			for a := 0; a < 3; a++ {
				flat[3*i+a] = inv.At(i, a)
			}
		}
		gt.SetInverse(e, flat, det)
	}
	return gt, nil
}

// complete fills the Jacobian rows beyond the element dimension with unit
// vectors orthogonal to the existing rows. It reports false when the
// existing rows are degenerate.
func complete(jac *[9]float64, dims int) bool {
	row := func(a int) r3.Vec { return r3.Vec{X: jac[3*a], Y: jac[3*a+1], Z: jac[3*a+2]} }
	set := func(a int, v r3.Vec) { jac[3*a], jac[3*a+1], jac[3*a+2] = v.X, v.Y, v.Z }
	switch dims {
	case 2:
		n := r3.Cross(row(0), row(1))
		if r3.Norm(n) == 0 {
			return false
		}
		set(2, r3.Unit(n))
	case 1:
		d := row(0)
		if r3.Norm(d) == 0 {
			return false
		}
		// the coordinate axis least aligned with the edge
		var axis r3.Vec
		switch ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z); {
		case ax <= ay && ax <= az:
			axis.X = 1
		case ay <= az:
			axis.Y = 1
		default:
			axis.Z = 1
		}
		u := r3.Unit(r3.Cross(d, axis))
		set(1, u)
		set(2, r3.Unit(r3.Cross(d, u)))
	}
	return true
}

// Unstructured differentiates a vertex field of comps components over the
// elements of kind. out receives one gradient triple per element and
// component at out[e*comps*3 + c*3].
func Unstructured(kind element.Kind, elems []int64, verts []float32, field []float64, comps int, out []float64) error {
	if comps <= 0 {
		return errors.Errorf("invalid component count %d", comps)
	}
	numVerts := len(verts) / 3
	if len(field) != numVerts*comps {
		return errors.Errorf("field holds %d values, expected %d vertices x %d components = %d",
			len(field), numVerts, comps, numVerts*comps)
	}
	gt, err := Transforms(kind, elems, verts)
	if err != nil {
		return err
	}
	props := element.Properties(kind)
	if len(out) != gt.K()*comps*3 {
		return errors.Errorf("output holds %d values, expected %d", len(out), gt.K()*comps*3)
	}
	dims := int(props.Dimensions)
	dN := element.ShapeFunctionDerivatives(kind, element.ParametricCenter(kind))
	for e := 0; e < gt.K(); e++ {
		ids := elems[e*props.NVp : (e+1)*props.NVp]
		for c := 0; c < comps; c++ {
			var d [3]float64
			for a := 0; a < dims; a++ {
				for n, v := range ids {
					d[a] += dN[a*props.NVp+n] * field[int(v)*comps+c]
				}
			}
			g := gt.Gradient(e, d[0], d[1], d[2])
			copy(out[(e*comps+c)*3:], g[:])
		}
	}
	return nil
}

func checkElements(elems []int64, arity int, verts []float32) (int, error) {
	if len(elems)%arity != 0 {
		return 0, errors.Errorf("index list length %d is not a multiple of arity %d", len(elems), arity)
	}
	if len(verts)%3 != 0 {
		return 0, errors.Errorf("vertex list length %d is not a multiple of 3", len(verts))
	}
	numVerts := int64(len(verts) / 3)
	for i, v := range elems {
		if v < 0 || v >= numVerts {
			return 0, errors.Errorf("element %d references vertex %d, vertex count is %d", i/arity, v, numVerts)
		}
	}
	return len(elems) / arity, nil
}
