package geometry

import (
	"context"
	"math"

	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/derivatives"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geomio"
	"github.com/notargets/GeomKernel/progress"
	"github.com/pkg/errors"
)

// grid holds the cell counts shared by Image and RectGrid
type grid struct {
	base
	dims [3]int
}

func (g *grid) Dimensions() [3]int { return g.dims }

func (g *grid) NumberOfElements() int { return g.dims[0] * g.dims[1] * g.dims[2] }

// unravel splits a cell index into (x, y, z)
func (g *grid) unravel(idx int) (x, y, z int) {
	nx, ny := g.dims[0], g.dims[1]
	if nx <= 0 || ny <= 0 {
		return -1, -1, -1
	}
	return idx % nx, (idx / nx) % ny, idx / (nx * ny)
}

func (g *grid) checkDims() error {
	for i, n := range g.dims {
		if n <= 0 {
			return errors.Errorf("%s %q: dimension %d is %d", g.kind, g.name, i, n)
		}
	}
	return nil
}

func (g *grid) FindElementsContainingVert() error {
	return errors.Wrapf(ErrUnsupported, "elements containing vertex for %s", g.kind)
}

func (g *grid) FindElementNeighbors() error {
	return errors.Wrapf(ErrUnsupported, "element neighbors for %s", g.kind)
}

func (g *grid) metadata() geomio.Metadata {
	return geomio.Metadata{Kind: g.kind.String(), SpatialDimensionality: g.spatialDims, Name: g.name, Units: g.units}
}

func (g *grid) readMetadata(grp *container.Group) error {
	md, err := geomio.ReadMetadata(grp)
	if err != nil {
		return err
	}
	if md.Kind != g.kind.String() {
		return errors.Errorf("%s holds a %s, expected %s", grp.Path(), md.Kind, g.kind)
	}
	if md.Name != "" {
		g.name = md.Name
	}
	g.units, g.spatialDims = md.Units, md.SpatialDimensionality
	return nil
}

func (g *grid) readDimensions(grp *container.Group) error {
	d, err := geomio.ReadDimensions(grp)
	if err != nil {
		return err
	}
	for i := range d {
		if d[i] < 0 || d[i] > math.MaxInt32 {
			return errors.Wrapf(container.ErrCorrupt, "dimension %d is %d", i, d[i])
		}
		g.dims[i] = int(d[i])
	}
	return nil
}

func (g *grid) writeCaches(grp *container.Group, sizesName string) error {
	if g.sizes != nil {
		if err := geomio.WriteFloatList(grp, sizesName, g.sizes, 1); err != nil {
			return err
		}
	}
	if g.centroids != nil {
		return geomio.WriteFloatList(grp, geomio.ElementCentroids, g.centroids, 3)
	}
	return nil
}

func (g *grid) readCaches(grp *container.Group, sizesName string) error {
	var err error
	n := g.NumberOfElements()
	if g.sizes, err = readOptionalFloats(grp, sizesName, 1, n); err != nil {
		return err
	}
	g.centroids, err = readOptionalFloats(grp, geomio.ElementCentroids, 3, n)
	return err
}

// centroidsOf evaluates cell centers over every cell of c
func centroidsOf(c Grid) []float32 {
	n := c.NumberOfElements()
	out := make([]float32, 3*n)
	for i := 0; i < n; i++ {
		p := c.CoordsAt(i)
		out[3*i], out[3*i+1], out[3*i+2] = float32(p[0]), float32(p[1]), float32(p[2])
	}
	return out
}

// structuredDerivatives runs the finite-difference engine over c
func structuredDerivatives(ctx context.Context, c Grid, threads int, field []float64, comps int,
	out []float64, obs progress.Observer) error {
	err := derivatives.Structured(ctx, c, field, comps, out, derivatives.Options{Threads: threads, Observer: obs})
	return errors.Wrapf(err, "%s %q", c.Kind(), c.Name())
}

// Image is a uniform grid described by dimensions, spacing and origin.
// Origin is the low corner of cell (0, 0, 0).
type Image struct {
	grid
	spacing [3]float32
	origin  [3]float32
}

func NewImage(name string, dims [3]int, spacing, origin [3]float32) (*Image, error) {
	if name == "" {
		return nil, errors.Errorf("%s requires a name", element.Image)
	}
	img := &Image{grid: grid{base: newBase(element.Image, name), dims: dims}, spacing: spacing, origin: origin}
	if err := img.checkDims(); err != nil {
		return nil, err
	}
	return img, nil
}

func (img *Image) Spacing() [3]float32 { return img.spacing }
func (img *Image) Origin() [3]float32  { return img.origin }

// SetDimensions replaces the cell counts and clears every derived cache
func (img *Image) SetDimensions(dims [3]int) {
	img.dims = dims
	img.invalidate()
}

func (img *Image) SetSpacing(spacing [3]float32) {
	img.spacing = spacing
	img.invalidate()
}

func (img *Image) SetOrigin(origin [3]float32) {
	img.origin = origin
	img.invalidate()
}

func (img *Image) Coords(x, y, z int) [3]float64 {
	p := img.PlaneCoords(x, y, z)
	for i := range p {
		p[i] += 0.5 * float64(img.spacing[i])
	}
	return p
}

func (img *Image) CoordsAt(idx int) [3]float64 { return img.Coords(img.unravel(idx)) }

func (img *Image) PlaneCoords(x, y, z int) [3]float64 {
	ijk := [3]int{x, y, z}
	var p [3]float64
	for i := range p {
		p[i] = float64(ijk[i])*float64(img.spacing[i]) + float64(img.origin[i])
	}
	return p
}

func (img *Image) PlaneCoordsAt(idx int) [3]float64 { return img.PlaneCoords(img.unravel(idx)) }

func (img *Image) BoundingBox() [6]float64 {
	var bb [6]float64
	for i := 0; i < 3; i++ {
		o := float64(img.origin[i])
		bb[2*i], bb[2*i+1] = o, o+float64(img.dims[i])*float64(img.spacing[i])
	}
	return bb
}

// ComputeCellIndex returns the index of the cell holding p. Points on the
// upper face of the grid belong to the last cell. Every spacing component
// must be positive.
func (img *Image) ComputeCellIndex(p [3]float64) (int, error) {
	var cell [3]int
	for i := 0; i < 3; i++ {
		if !(img.spacing[i] > 0) {
			return 0, errors.Errorf("%s %q: spacing %d is %g", img.kind, img.name, i, img.spacing[i])
		}
		o := float64(img.origin[i])
		hi := o + float64(img.dims[i])*float64(img.spacing[i])
		if p[i] < o || p[i] > hi || math.IsNaN(p[i]) {
			return 0, errors.Errorf("coordinate %d = %g outside [%g, %g]", i, p[i], o, hi)
		}
		c := int((p[i] - o) / float64(img.spacing[i]))
		if c >= img.dims[i] {
			c = img.dims[i] - 1
		}
		cell[i] = c
	}
	return (cell[2]*img.dims[1]+cell[1])*img.dims[0] + cell[0], nil
}

// FindElementSizes fills every cell with the voxel volume
func (img *Image) FindElementSizes() error {
	if err := img.checkDims(); err != nil {
		return err
	}
	v := img.spacing[0] * img.spacing[1] * img.spacing[2]
	sizes := make([]float32, img.NumberOfElements())
	for i := range sizes {
		sizes[i] = v
	}
	img.sizes = sizes
	return nil
}

func (img *Image) FindElementCentroids() error {
	if err := img.checkDims(); err != nil {
		return err
	}
	img.centroids = centroidsOf(img)
	return nil
}

// FindDerivatives differentiates a cell field of comps components
func (img *Image) FindDerivatives(ctx context.Context, field []float64, comps int, out []float64, obs progress.Observer) error {
	return structuredDerivatives(ctx, img, img.threads, field, comps, out, obs)
}

func (img *Image) DeepCopy(copyData bool) Geometry {
	return &Image{
		grid:    grid{base: img.base.clone(copyData), dims: img.dims},
		spacing: img.spacing,
		origin:  img.origin,
	}
}

func (img *Image) WriteTo(g *container.Group) error {
	if err := geomio.WriteMetadata(g, img.metadata()); err != nil {
		return err
	}
	dims := [3]int64{int64(img.dims[0]), int64(img.dims[1]), int64(img.dims[2])}
	if err := geomio.WriteDimensions(g, dims); err != nil {
		return err
	}
	if err := geomio.WriteFloatTuple(g, geomio.Spacing, img.spacing); err != nil {
		return err
	}
	if err := geomio.WriteFloatTuple(g, geomio.Origin, img.origin); err != nil {
		return err
	}
	return img.writeCaches(g, geomio.VoxelSizes)
}

func (img *Image) ReadFrom(g *container.Group, preflight bool) error {
	if err := img.readMetadata(g); err != nil {
		return err
	}
	img.invalidate()
	if err := img.readDimensions(g); err != nil {
		return errors.Wrapf(err, "%s %q", img.kind, img.name)
	}
	var err error
	if img.spacing, err = geomio.ReadFloatTuple(g, geomio.Spacing); err != nil {
		return errors.Wrapf(err, "%s %q", img.kind, img.name)
	}
	if img.origin, err = geomio.ReadFloatTuple(g, geomio.Origin); err != nil {
		return errors.Wrapf(err, "%s %q", img.kind, img.name)
	}
	if preflight {
		return nil
	}
	return errors.Wrapf(img.readCaches(g, geomio.VoxelSizes), "%s %q", img.kind, img.name)
}

// RectGrid is a rectilinear grid: per-axis plane positions with n+1 bounds
// for n cells.
type RectGrid struct {
	grid
	bounds [3][]float32
}

func NewRectGrid(name string, x, y, z []float32, mode CopyMode) (*RectGrid, error) {
	if name == "" {
		return nil, errors.Errorf("%s requires a name", element.RectGrid)
	}
	r := &RectGrid{grid: grid{base: newBase(element.RectGrid, name)}}
	if err := r.SetBounds(x, y, z, mode); err != nil {
		return nil, err
	}
	return r, nil
}

// SetBounds replaces the plane positions and clears every derived cache.
// Each axis needs at least two values.
func (r *RectGrid) SetBounds(x, y, z []float32, mode CopyMode) error {
	in := [3][]float32{x, y, z}
	for i, b := range in {
		if len(b) < 2 {
			return errors.Errorf("%s %q: axis %d has %d bounds, need at least 2", r.kind, r.name, i, len(b))
		}
	}
	for i, b := range in {
		r.bounds[i] = adopt(b, mode)
		r.dims[i] = len(b) - 1
	}
	r.invalidate()
	return nil
}

// Bounds returns the plane positions of axis 0, 1 or 2
func (r *RectGrid) Bounds(axis int) []float32 { return r.bounds[axis] }

func (r *RectGrid) requireBounds() error {
	for i, b := range r.bounds {
		if len(b) != r.dims[i]+1 {
			return errors.Errorf("%s %q holds shapes only", r.kind, r.name)
		}
	}
	return nil
}

// plane returns bound j of axis i, and false for a shape-only grid or an
// index outside the axis
func (r *RectGrid) plane(i, j int) (float64, bool) {
	b := r.bounds[i]
	if len(b) != r.dims[i]+1 || j < 0 || j >= len(b) {
		return 0, false
	}
	return float64(b[j]), true
}

// Coords returns the midpoint of cell (x, y, z). A shape-only grid or an
// index outside the grid yields the zero point.
func (r *RectGrid) Coords(x, y, z int) [3]float64 {
	ijk := [3]int{x, y, z}
	var p [3]float64
	for i := range p {
		lo, ok := r.plane(i, ijk[i])
		hi, ok2 := r.plane(i, ijk[i]+1)
		if !ok || !ok2 {
			return [3]float64{}
		}
		p[i] = 0.5 * (lo + hi)
	}
	return p
}

func (r *RectGrid) CoordsAt(idx int) [3]float64 { return r.Coords(r.unravel(idx)) }

// PlaneCoords returns the lower corner of cell (x, y, z), with the same
// zero point fallback as Coords
func (r *RectGrid) PlaneCoords(x, y, z int) [3]float64 {
	ijk := [3]int{x, y, z}
	var p [3]float64
	for i := range p {
		v, ok := r.plane(i, ijk[i])
		if !ok {
			return [3]float64{}
		}
		p[i] = v
	}
	return p
}

func (r *RectGrid) PlaneCoordsAt(idx int) [3]float64 { return r.PlaneCoords(r.unravel(idx)) }

func (r *RectGrid) BoundingBox() [6]float64 {
	var bb [6]float64
	for i, b := range r.bounds {
		if len(b) == 0 {
			continue
		}
		bb[2*i], bb[2*i+1] = float64(b[0]), float64(b[len(b)-1])
	}
	return bb
}

// FindElementSizes computes cell volumes from the bound differences. A
// non-positive resolution on any axis clears the cache and fails.
func (r *RectGrid) FindElementSizes() error {
	if err := r.requireBounds(); err != nil {
		return err
	}
	nx, ny, nz := r.dims[0], r.dims[1], r.dims[2]
	sizes := make([]float32, r.NumberOfElements())
	for z := 0; z < nz; z++ {
		dz := r.bounds[2][z+1] - r.bounds[2][z]
		for y := 0; y < ny; y++ {
			dy := r.bounds[1][y+1] - r.bounds[1][y]
			for x := 0; x < nx; x++ {
				dx := r.bounds[0][x+1] - r.bounds[0][x]
				if dx <= 0 || dy <= 0 || dz <= 0 {
					r.sizes = nil
					return errors.Errorf("%s %q: non-positive resolution at cell (%d, %d, %d)", r.kind, r.name, x, y, z)
				}
				sizes[(z*ny+y)*nx+x] = dx * dy * dz
			}
		}
	}
	r.sizes = sizes
	return nil
}

func (r *RectGrid) FindElementCentroids() error {
	if err := r.requireBounds(); err != nil {
		return err
	}
	r.centroids = centroidsOf(r)
	return nil
}

// FindDerivatives differentiates a cell field of comps components
func (r *RectGrid) FindDerivatives(ctx context.Context, field []float64, comps int, out []float64, obs progress.Observer) error {
	if err := r.requireBounds(); err != nil {
		return err
	}
	return structuredDerivatives(ctx, r, r.threads, field, comps, out, obs)
}

func (r *RectGrid) DeepCopy(copyData bool) Geometry {
	c := &RectGrid{grid: grid{base: r.base.clone(copyData), dims: r.dims}}
	if copyData {
		for i, b := range r.bounds {
			c.bounds[i] = adopt(b, Copy)
		}
	}
	return c
}

var boundsNames = [3]string{geomio.XBounds, geomio.YBounds, geomio.ZBounds}

func (r *RectGrid) WriteTo(g *container.Group) error {
	if err := r.requireBounds(); err != nil {
		return err
	}
	if err := geomio.WriteMetadata(g, r.metadata()); err != nil {
		return err
	}
	dims := [3]int64{int64(r.dims[0]), int64(r.dims[1]), int64(r.dims[2])}
	if err := geomio.WriteDimensions(g, dims); err != nil {
		return err
	}
	for i, name := range boundsNames {
		if err := geomio.WriteFloatList(g, name, r.bounds[i], 1); err != nil {
			return err
		}
	}
	return r.writeCaches(g, geomio.VoxelSizes)
}

// ReadFrom loads the grid from g. Preflight reads dimensions and checks the
// bounds counts without decoding them.
func (r *RectGrid) ReadFrom(g *container.Group, preflight bool) error {
	if err := r.readMetadata(g); err != nil {
		return err
	}
	r.invalidate()
	r.bounds = [3][]float32{}
	if err := r.readDimensions(g); err != nil {
		return errors.Wrapf(err, "%s %q", r.kind, r.name)
	}
	var bounds [3][]float32
	for i, name := range boundsNames {
		b, n, err := geomio.ReadFloatList(g, name, 1, preflight)
		if err != nil {
			return errors.Wrapf(err, "%s %q", r.kind, r.name)
		}
		if n != r.dims[i]+1 {
			return errors.Errorf("%s %q: %s holds %d values for %d cells", r.kind, r.name, name, n, r.dims[i])
		}
		bounds[i] = b
	}
	if preflight {
		return nil
	}
	r.bounds = bounds
	return errors.Wrapf(r.readCaches(g, geomio.VoxelSizes), "%s %q", r.kind, r.name)
}
