package geometry

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/notargets/GeomKernel/element"
)

func writeHeader(sb *strings.Builder, b *base) {
	sb.WriteString(fmt.Sprintf("=== %s Summary ===\n", b.kind))
	sb.WriteString(fmt.Sprintf("  Name: %s\n", b.name))
	if b.units != "" {
		sb.WriteString(fmt.Sprintf("  Units: %s\n", b.units))
	}
	sb.WriteString(fmt.Sprintf("  Spatial dimensionality: %d\n", b.spatialDims))
}

// floatLine reports a float32 cache, or that it has not been computed
func floatLine(sb *strings.Builder, label string, vals []float32, comps int) {
	if vals == nil {
		sb.WriteString(fmt.Sprintf("  %s: not computed\n", label))
		return
	}
	sb.WriteString(fmt.Sprintf("  %s: %s tuples (%s)\n", label,
		humanize.Comma(int64(len(vals)/comps)), humanize.IBytes(uint64(4*len(vals)))))
}

func indexLine(sb *strings.Builder, label string, ids []int64, width int) {
	if ids == nil {
		sb.WriteString(fmt.Sprintf("  %s: not computed\n", label))
		return
	}
	sb.WriteString(fmt.Sprintf("  %s: %s (%s)\n", label,
		humanize.Comma(int64(len(ids)/width)), humanize.IBytes(uint64(8*len(ids)))))
}

func listLine(sb *strings.Builder, label string, l *ElementList) {
	if l == nil {
		sb.WriteString(fmt.Sprintf("  %s: not computed\n", label))
		return
	}
	sb.WriteString(fmt.Sprintf("  %s: %s owners, %s entries\n", label,
		humanize.Comma(int64(l.Owners())), humanize.Comma(int64(l.Len()))))
}

func writeCaches(sb *strings.Builder, b *base) {
	sb.WriteString("\n--- Derived Caches ---\n")
	floatLine(sb, "Element sizes", b.sizes, 1)
	floatLine(sb, "Element centroids", b.centroids, 3)
	if b.kind.IsGrid() || b.kind == element.Vertex {
		return
	}
	listLine(sb, "Elements containing vertex", b.containing)
	listLine(sb, "Element neighbors", b.neighbors)
}

// String returns a summary of the mesh and its caches
func (m *mesh) String() string {
	var sb strings.Builder
	writeHeader(&sb, &m.base)

	sb.WriteString("\n--- Topology ---\n")
	sb.WriteString(fmt.Sprintf("  Element: %s (%s), %d vertices each\n", m.props.Name, m.props.ShortName, m.props.NVp))
	sb.WriteString(fmt.Sprintf("  Vertices: %s\n", humanize.Comma(int64(m.numVerts))))
	sb.WriteString(fmt.Sprintf("  Elements: %s\n", humanize.Comma(int64(m.NumberOfElements()))))
	if m.verts == nil && m.numVerts > 0 {
		sb.WriteString("  Arrays: shapes only\n")
	} else {
		sb.WriteString(fmt.Sprintf("  Arrays: %s\n", humanize.IBytes(uint64(4*len(m.verts)+8*len(m.elems)))))
	}

	writeCaches(&sb, &m.base)
	for _, l := range m.subElementLists() {
		indexLine(&sb, l.name, *l.ids, l.width)
	}
	return sb.String()
}

func writeGrid(sb *strings.Builder, g *grid, bb [6]float64) {
	sb.WriteString("\n--- Grid ---\n")
	sb.WriteString(fmt.Sprintf("  Dimensions: %d x %d x %d\n", g.dims[0], g.dims[1], g.dims[2]))
	sb.WriteString(fmt.Sprintf("  Cells: %s\n", humanize.Comma(int64(g.NumberOfElements()))))
	sb.WriteString(fmt.Sprintf("  Bounding box: x [%.4g, %.4g] y [%.4g, %.4g] z [%.4g, %.4g]\n",
		bb[0], bb[1], bb[2], bb[3], bb[4], bb[5]))
}

func (img *Image) String() string {
	var sb strings.Builder
	writeHeader(&sb, &img.base)
	writeGrid(&sb, &img.grid, img.BoundingBox())
	sb.WriteString(fmt.Sprintf("  Spacing: %v\n", img.spacing))
	sb.WriteString(fmt.Sprintf("  Origin: %v\n", img.origin))
	writeCaches(&sb, &img.base)
	return sb.String()
}

func (r *RectGrid) String() string {
	var sb strings.Builder
	writeHeader(&sb, &r.base)
	writeGrid(&sb, &r.grid, r.BoundingBox())
	if r.requireBounds() != nil {
		sb.WriteString("  Bounds: shapes only\n")
	}
	writeCaches(&sb, &r.base)
	return sb.String()
}
