package element

// Dimensionality represents the topological dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
	D3                       // 3D elements (tetrahedra, hexahedra, voxels)
)

// ElementProperties describes the reference topology of one kind
type ElementProperties struct {
	Name        string         // Full descriptive name (e.g., "Linear Tetrahedron")
	ShortName   string         // Abbreviated name (e.g., "Tet")
	Type        Kind           // Geometry kind
	NVp         int            // Vertices per element (index list arity)
	SharedVerts int            // Shared vertices that make two elements neighbors; 0 when unsupported
	Dimensions  Dimensionality // Topological dimension of the element
	Edges       [][2]int       // Local vertex pairs of each edge
	Faces       [][]int        // Local vertex tuples of each face (3D only)
}

// NEdges returns the number of edges per element
func (p ElementProperties) NEdges() int { return len(p.Edges) }

// NFaces returns the number of faces per element
func (p ElementProperties) NFaces() int { return len(p.Faces) }

var (
	tetEdges = [][2]int{{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3}}
	tetFaces = [][]int{{0, 1, 2}, {1, 2, 3}, {0, 2, 3}, {0, 1, 3}}

	hexEdges = [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
	}
	hexFaces = [][]int{
		{0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6},
		{3, 0, 4, 7}, {0, 1, 2, 3}, {4, 5, 6, 7},
	}

	// voxel ordering: x fastest, then y, then z
	voxelEdges = [][2]int{
		{0, 1}, {1, 3}, {2, 3}, {0, 2},
		{4, 5}, {5, 7}, {6, 7}, {4, 6},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	voxelFaces = [][]int{
		{0, 2, 6, 4}, {1, 3, 7, 5}, {0, 1, 5, 4},
		{2, 3, 7, 6}, {0, 1, 3, 2}, {4, 5, 7, 6},
	}
)

// cyclicEdges returns the closed polygon edges of an n-gon
func cyclicEdges(n int) [][2]int {
	edges := make([][2]int, n)
	for i := 0; i < n; i++ {
		edges[i] = [2]int{i, (i + 1) % n}
	}
	return edges
}

// Properties returns the reference topology of kind k
func Properties(k Kind) ElementProperties {
	switch k {
	case Vertex:
		return ElementProperties{Name: "Point", ShortName: "Vert", Type: k, NVp: 1, Dimensions: D0}
	case Edge:
		return ElementProperties{Name: "Linear Edge", ShortName: "Edge", Type: k, NVp: 2, SharedVerts: 1,
			Dimensions: D1, Edges: [][2]int{{0, 1}}}
	case Triangle:
		return ElementProperties{Name: "Linear Triangle", ShortName: "Tri", Type: k, NVp: 3, SharedVerts: 2,
			Dimensions: D2, Edges: cyclicEdges(3)}
	case Quad:
		return ElementProperties{Name: "Bilinear Quadrilateral", ShortName: "Quad", Type: k, NVp: 4, SharedVerts: 2,
			Dimensions: D2, Edges: cyclicEdges(4)}
	case Tetrahedral:
		return ElementProperties{Name: "Linear Tetrahedron", ShortName: "Tet", Type: k, NVp: 4, SharedVerts: 3,
			Dimensions: D3, Edges: tetEdges, Faces: tetFaces}
	case Hexahedral:
		return ElementProperties{Name: "Trilinear Hexahedron", ShortName: "Hex", Type: k, NVp: 8, SharedVerts: 4,
			Dimensions: D3, Edges: hexEdges, Faces: hexFaces}
	case Image, RectGrid:
		return ElementProperties{Name: "Voxel", ShortName: "Vox", Type: k, NVp: 8,
			Dimensions: D3, Edges: voxelEdges, Faces: voxelFaces}
	}
	return ElementProperties{Name: "Unknown", ShortName: "?", Type: Unknown}
}
