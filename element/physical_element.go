package element

// GeometricTransform holds the inverse Jacobian terms and the Jacobian
// determinant evaluated at one parametric point of each of K elements.
// Element k's metric terms live at index k of every slice.
type GeometricTransform struct {
	Rx, Ry, Rz []float64 // ∂r/∂x, ∂r/∂y, ∂r/∂z
	Sx, Sy, Sz []float64 // ∂s/∂x, ∂s/∂y, ∂s/∂z
	Tx, Ty, Tz []float64 // ∂t/∂x, ∂t/∂y, ∂t/∂z

	// Jacobian determinant of the (possibly completed) 3x3 map; zero marks a
	// degenerate element whose metric terms are all zero
	J []float64
}

// NewGeometricTransform allocates metric storage for K elements
func NewGeometricTransform(K int) *GeometricTransform {
	alloc := func() []float64 { return make([]float64, K) }
	return &GeometricTransform{
		Rx: alloc(), Ry: alloc(), Rz: alloc(),
		Sx: alloc(), Sy: alloc(), Sz: alloc(),
		Tx: alloc(), Ty: alloc(), Tz: alloc(),
		J: alloc(),
	}
}

// K returns the number of elements covered
func (g *GeometricTransform) K() int { return len(g.J) }

// SetInverse stores the row-major inverse Jacobian inv for element k, where
// inv[3*i+a] = ∂a/∂x_i.
func (g *GeometricTransform) SetInverse(k int, inv [9]float64, det float64) {
	g.Rx[k], g.Sx[k], g.Tx[k] = inv[0], inv[1], inv[2]
	g.Ry[k], g.Sy[k], g.Ty[k] = inv[3], inv[4], inv[5]
	g.Rz[k], g.Sz[k], g.Tz[k] = inv[6], inv[7], inv[8]
	g.J[k] = det
}

// Gradient applies the chain rule for element k to parametric derivatives
// (dr, ds, dt) and returns the Cartesian gradient.
func (g *GeometricTransform) Gradient(k int, dr, ds, dt float64) [3]float64 {
	return [3]float64{
		g.Rx[k]*dr + g.Sx[k]*ds + g.Tx[k]*dt,
		g.Ry[k]*dr + g.Sy[k]*ds + g.Ty[k]*dt,
		g.Rz[k]*dr + g.Sz[k]*ds + g.Tz[k]*dt,
	}
}
