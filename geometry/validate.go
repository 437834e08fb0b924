package geometry

import (
	"fmt"
	"math"

	"github.com/notargets/GeomKernel/connectivity"
	"github.com/notargets/GeomKernel/geomio"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Severity grades a structural issue
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Issue is one structural finding. Index is the offending element, vertex
// or axis, or -1 when the issue concerns the whole geometry.
type Issue struct {
	Severity Severity
	Index    int
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// Policy controls Validate
type Policy struct {
	TreatWarningsAsErrors bool
	Logger                *zap.Logger
}

type validator struct {
	policy Policy
	logger *zap.Logger
	issues []Issue
}

func (v *validator) add(sev Severity, dataset string, index int, msg string, fields ...zap.Field) {
	if sev == Warning && v.policy.TreatWarningsAsErrors {
		sev = Error
	}
	v.issues = append(v.issues, Issue{Severity: sev, Index: index, Message: msg})
	fields = append(fields, zap.String("dataset", dataset), zap.Int("index", index))
	if sev == Warning {
		v.logger.Warn(msg, fields...)
	} else {
		v.logger.Error(msg, fields...)
	}
}

// Validate checks g for structural problems. Non-positive grid dimensions,
// short bounds arrays and inconsistent face pairings are errors. Decreasing
// bounds, zero-width cells, out of range vertex indices, non-finite
// coordinates and faces shared by more than two elements are warnings. The
// error wraps ErrStructural with the first error found; every issue is
// returned.
func Validate(g Geometry, policy Policy) ([]Issue, error) {
	logger := policy.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &validator{policy: policy, logger: logger.With(zap.Stringer("kind", g.Kind()), zap.String("name", g.Name()))}

	switch t := g.(type) {
	case *Image:
		v.image(t)
	case *RectGrid:
		v.rectGrid(t)
	case Mesh:
		v.mesh(t)
	}

	for _, is := range v.issues {
		if is.Severity == Error {
			return v.issues, errors.Wrapf(ErrStructural, "%s %q: %s", g.Kind(), g.Name(), is.Message)
		}
	}
	return v.issues, nil
}

func (v *validator) dims(d [3]int) bool {
	ok := true
	for i, n := range d {
		if n <= 0 {
			v.add(Error, geomio.Dimensions, i, fmt.Sprintf("dimension %d is %d", i, n), zap.Int("actual", n))
			ok = false
		}
	}
	return ok
}

func (v *validator) image(img *Image) {
	v.dims(img.dims)
	for i := 0; i < 3; i++ {
		if s := img.spacing[i]; !(s > 0) || math.IsInf(float64(s), 0) {
			v.add(Warning, geomio.Spacing, i, fmt.Sprintf("spacing %d is %g", i, s))
		}
		if o := float64(img.origin[i]); math.IsNaN(o) || math.IsInf(o, 0) {
			v.add(Warning, geomio.Origin, i, fmt.Sprintf("origin %d is %g", i, o))
		}
	}
}

func (v *validator) rectGrid(r *RectGrid) {
	for i, b := range r.bounds {
		ds := boundsNames[i]
		if len(b) < 2 {
			v.add(Error, ds, i, fmt.Sprintf("axis %d has %d bounds, need at least 2", i, len(b)),
				zap.Int("expected", r.dims[i]+1), zap.Int("actual", len(b)))
			continue
		}
		for j, x := range b {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				v.add(Warning, ds, i, fmt.Sprintf("axis %d bound %d is %g", i, j, f))
				continue
			}
			if j == 0 {
				continue
			}
			switch {
			case x == b[j-1]:
				v.add(Warning, ds, i, fmt.Sprintf("axis %d cell %d has zero width", i, j-1))
			case x < b[j-1]:
				v.add(Warning, ds, i, fmt.Sprintf("axis %d bounds decrease at %d", i, j))
			}
		}
	}
	v.dims(r.dims)
}

func (v *validator) mesh(m Mesh) {
	verts := m.Vertices()
	if verts == nil && m.NumberOfVertices() > 0 {
		v.add(Error, geomio.SharedVertexList, -1, "vertex list holds shapes only")
		return
	}
	for i, x := range verts {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			v.add(Warning, geomio.SharedVertexList, i/3, fmt.Sprintf("vertex %d has non-finite coordinate %g", i/3, f))
		}
	}
	elems := m.Elements()
	if m.Kind().IsGrid() || elems == nil {
		return
	}
	ds := ""
	if d, ok := m.(interface{ indexDataset() string }); ok {
		ds = d.indexDataset()
	}
	nv := int64(m.NumberOfVertices())
	arity := len(elems) / max(1, m.NumberOfElements())
	inRange := true
	for i, id := range elems {
		if id < 0 || id >= nv {
			inRange = false
			v.add(Warning, ds, i/arity, fmt.Sprintf("element %d references vertex %d of %d", i/arity, id, nv),
				zap.Int64("expected", nv-1), zap.Int64("actual", id))
		}
	}
	if m3, ok := m.(Mesh3D); ok && inRange && m.NumberOfElements() > 0 {
		v.faces(m3, ds)
	}
}

// faces checks that every face is shared by at most two elements and that
// the pairing is symmetric
func (v *validator) faces(m Mesh3D, ds string) {
	fc, err := m.FindFacePairs()
	switch {
	case errors.Is(err, connectivity.ErrNonManifold):
		v.add(Warning, ds, -1, err.Error())
		return
	case err != nil:
		v.add(Error, ds, -1, err.Error())
		return
	}
	if err := fc.Verify(); err != nil {
		v.add(Error, ds, -1, err.Error())
	}
}
