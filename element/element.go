package element

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the supported geometry topologies
type Kind uint8

const (
	Unknown Kind = iota
	Image        // Uniform structured grid
	RectGrid     // Rectilinear structured grid
	Vertex       // Point cloud
	Edge         // Line segments
	Triangle     // Triangles
	Quad         // Quadrilaterals
	Tetrahedral  // Tetrahedra
	Hexahedral   // Hexahedra
)

var kindNames = map[Kind]string{
	Image:       "ImageGeometry",
	RectGrid:    "RectGridGeometry",
	Vertex:      "VertexGeometry",
	Edge:        "EdgeGeometry",
	Triangle:    "TriangleGeometry",
	Quad:        "QuadrilateralGeometry",
	Tetrahedral: "TetrahedralGeometry",
	Hexahedral:  "HexahedralGeometry",
}

// String returns the persisted type name of the kind
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UnknownGeometry"
}

// ParseKind maps a persisted type name back to its Kind
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("unknown geometry kind %q", s)
}

// IsGrid reports whether k is a structured grid
func (k Kind) IsGrid() bool { return k == Image || k == RectGrid }

// Kinds lists every supported kind in declaration order
func Kinds() []Kind {
	return []Kind{Image, RectGrid, Vertex, Edge, Triangle, Quad, Tetrahedral, Hexahedral}
}

// ErrUnsupported marks an operation invoked on a kind that does not support it
var ErrUnsupported = errors.New("operation not supported for geometry kind")
