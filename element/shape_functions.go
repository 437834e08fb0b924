package element

// Parametric corner positions in [0,1]^3, one per local vertex
var (
	hexCorners = [8][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	voxelCorners = [8][3]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	quadCorners = [4][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
)

// ParametricCenter returns the parametric coordinates of the element center
func ParametricCenter(k Kind) [3]float64 {
	switch k {
	case Edge:
		return [3]float64{0.5, 0, 0}
	case Triangle:
		return [3]float64{1.0 / 3.0, 1.0 / 3.0, 0}
	case Quad:
		return [3]float64{0.5, 0.5, 0}
	case Tetrahedral:
		return [3]float64{0.25, 0.25, 0.25}
	case Hexahedral, Image, RectGrid:
		return [3]float64{0.5, 0.5, 0.5}
	}
	return [3]float64{}
}

// ShapeFunctionDerivatives evaluates the derivatives of the linear shape
// functions of kind k at pc. The result is laid out as [Dimensions][NVp]:
// all d/dr values first, then d/ds, then d/dt. Vertex and Unknown kinds
// return nil.
func ShapeFunctionDerivatives(k Kind, pc [3]float64) []float64 {
	switch k {
	case Edge:
		return []float64{-1, 1}
	case Triangle:
		return []float64{
			-1, 1, 0,
			-1, 0, 1,
		}
	case Quad:
		return multilinearDerivatives(quadCorners[:], pc, 2)
	case Tetrahedral:
		return []float64{
			-1, 1, 0, 0,
			-1, 0, 1, 0,
			-1, 0, 0, 1,
		}
	case Hexahedral:
		return multilinearDerivatives(hexCorners[:], pc, 3)
	case Image, RectGrid:
		return multilinearDerivatives(voxelCorners[:], pc, 3)
	}
	return nil
}

// multilinearDerivatives differentiates the tensor-product shape functions
// N_i = Π_d (c_id ? p_d : 1-p_d) over the first dims parametric directions.
func multilinearDerivatives(corners [][3]float64, pc [3]float64, dims int) []float64 {
	n := len(corners)
	out := make([]float64, dims*n)
	factor := func(c, p float64) (f, df float64) {
		if c == 1 {
			return p, 1
		}
		return 1 - p, -1
	}
	for i, c := range corners {
		var f, df [3]float64
		for d := 0; d < dims; d++ {
			f[d], df[d] = factor(c[d], pc[d])
		}
		for d := 0; d < dims; d++ {
			v := df[d]
			for e := 0; e < dims; e++ {
				if e != d {
					v *= f[e]
				}
			}
			out[d*n+i] = v
		}
	}
	return out
}
