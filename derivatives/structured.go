// Package derivatives computes spatial derivatives of cell fields.
//
// Structured grids use finite differences in index space mapped to physical
// space through the inverse of the 3x3 coordinate Jacobian. Unstructured
// meshes use the derivatives of the linear shape functions at each element's
// parametric center.
package derivatives

import (
	"context"
	"runtime"

	"github.com/notargets/GeomKernel/partitions"
	"github.com/notargets/GeomKernel/progress"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CoordinateGrid is a structured grid addressed by cell index. Coords
// returns the physical center of cell (x, y, z).
type CoordinateGrid interface {
	Dimensions() [3]int
	Coords(x, y, z int) [3]float64
}

// Options controls a derivative run
type Options struct {
	Threads  int // worker count; 0 means GOMAXPROCS
	Observer progress.Observer
	Logger   *zap.Logger
}

func (o Options) threads() int {
	if o.Threads > 0 {
		return o.Threads
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Structured differentiates a cell-centered field of comps components over
// grid. out receives, for cell idx and component c, the triple
// (d/dx, d/dy, d/dz) at out[idx*comps*3 + c*3]. Cells are indexed
// z*ny*nx + y*nx + x.
//
// The z range is split into slabs that run in parallel; ctx is checked once
// per slab.
func Structured(ctx context.Context, grid CoordinateGrid, field []float64, comps int,
	out []float64, opts Options) error {
	dims := grid.Dimensions()
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return errors.Errorf("invalid grid dimensions %v", dims)
	}
	if comps <= 0 {
		return errors.Errorf("invalid component count %d", comps)
	}
	numCells := dims[0] * dims[1] * dims[2]
	if len(field) != numCells*comps {
		return errors.Errorf("field holds %d values, expected %d cells x %d components = %d",
			len(field), numCells, comps, numCells*comps)
	}
	if len(out) != 3*len(field) {
		return errors.Errorf("output holds %d values, expected %d", len(out), 3*len(field))
	}

	threads := opts.threads()
	slabs, err := partitions.SlabLayout(dims[2], threads)
	if err != nil {
		return err
	}
	opts.logger().Debug("structured derivatives",
		zap.Ints("dims", dims[:]), zap.Int("components", comps),
		zap.Int("threads", threads), zap.Int("slabs", len(slabs)))

	counter := progress.NewCounter(opts.Observer, int64(numCells))
	s := &stencil{grid: grid, dims: dims, field: field, comps: comps, out: out}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for _, slab := range slabs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for z := slab.Start; z < slab.End; z++ {
				for y := 0; y < dims[1]; y++ {
					for x := 0; x < dims[0]; x++ {
						s.cell(x, y, z)
					}
					counter.Add(int64(dims[0]))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	counter.Done()
	return nil
}

type stencil struct {
	grid  CoordinateGrid
	dims  [3]int
	field []float64
	comps int
	out   []float64
}

func (s *stencil) index(p [3]int) int {
	return (p[2]*s.dims[1]+p[1])*s.dims[0] + p[0]
}

// axisDerivative returns the index-space derivative of the coordinates and of
// every field component along axis. Interior cells use centered differences,
// boundary cells one-sided ones, and an axis of extent 1 contributes the unit
// tangent with zero field variation.
func (s *stencil) axisDerivative(pos [3]int, axis int, dv []float64) (dx [3]float64) {
	n := s.dims[axis]
	if n == 1 {
		dx[axis] = 1
		for c := range dv {
			dv[c] = 0
		}
		return dx
	}
	plus, minus := pos, pos
	factor := 1.0
	switch pos[axis] {
	case 0:
		plus[axis]++
	case n - 1:
		minus[axis]--
	default:
		plus[axis]++
		minus[axis]--
		factor = 0.5
	}
	xp := s.grid.Coords(plus[0], plus[1], plus[2])
	xm := s.grid.Coords(minus[0], minus[1], minus[2])
	for i := range dx {
		dx[i] = factor * (xp[i] - xm[i])
	}
	ip, im := s.index(plus)*s.comps, s.index(minus)*s.comps
	for c := range dv {
		dv[c] = factor * (s.field[ip+c] - s.field[im+c])
	}
	return dx
}

func (s *stencil) cell(x, y, z int) {
	pos := [3]int{x, y, z}
	dv := make([]float64, 3*s.comps)
	dXi, dEta, dZeta := dv[:s.comps], dv[s.comps:2*s.comps], dv[2*s.comps:]
	xi := s.axisDerivative(pos, 0, dXi)
	eta := s.axisDerivative(pos, 1, dEta)
	zeta := s.axisDerivative(pos, 2, dZeta)

	m := invertMetrics(xi, eta, zeta)
	base := s.index(pos) * s.comps * 3
	for c := 0; c < s.comps; c++ {
		for i := 0; i < 3; i++ {
			s.out[base+3*c+i] = m[0][i]*dXi[c] + m[1][i]*dEta[c] + m[2][i]*dZeta[c]
		}
	}
}

// invertMetrics returns m[a][i] = ∂ξ_a/∂x_i from the index-space coordinate
// derivatives of the three axes. A singular Jacobian yields all zeros.
func invertMetrics(xi, eta, zeta [3]float64) (m [3][3]float64) {
	xxi, yxi, zxi := xi[0], xi[1], xi[2]
	xeta, yeta, zeta_ := eta[0], eta[1], eta[2]
	xzeta, yzeta, zzeta := zeta[0], zeta[1], zeta[2]

	aj := xxi*yeta*zzeta + yxi*zeta_*xzeta + zxi*xeta*yzeta -
		zxi*yeta*xzeta - yxi*xeta*zzeta - xxi*zeta_*yzeta
	if aj != 0 {
		aj = 1 / aj
	}

	m[0] = [3]float64{
		aj * (yeta*zzeta - zeta_*yzeta),
		-aj * (xeta*zzeta - zeta_*xzeta),
		aj * (xeta*yzeta - yeta*xzeta),
	}
	m[1] = [3]float64{
		-aj * (yxi*zzeta - zxi*yzeta),
		aj * (xxi*zzeta - zxi*xzeta),
		-aj * (xxi*yzeta - yxi*xzeta),
	}
	m[2] = [3]float64{
		aj * (yxi*zeta_ - zxi*yeta),
		-aj * (xxi*zeta_ - zxi*xeta),
		aj * (xxi*yeta - yxi*xeta),
	}
	return m
}
