package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geometry"
	"github.com/notargets/GeomKernel/meshio"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) importCmd() *cobra.Command {
	var kind, group string
	cmd := &cobra.Command{
		Use:   "import <meshfile>",
		Short: "Import the elements of one kind from a Gambit, Gmsh or SU2 mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			geom, err := meshio.ReadMeshFile(args[0], k)
			if err != nil {
				return err
			}
			g, err := a.group(group, true)
			if err != nil {
				return err
			}
			if err := geom.WriteTo(g); err != nil {
				return err
			}
			a.logger.Info("imported mesh", zap.String("path", g.Path()), zap.Stringer("kind", k),
				zap.Int("elements", geom.NumberOfElements()))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s %s elements into %s\n",
				humanize.Comma(int64(geom.NumberOfElements())), k, g.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "tet", "Element kind to keep: edge, tri, quad, tet or hex")
	cmd.Flags().StringVar(&group, "group", "", "Destination group path")
	return cmd
}

func (a *app) imageCmd() *cobra.Command {
	var (
		group           string
		dims            []int
		spacing, origin []float32
	)
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Create a uniform image grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(dims) != 3 || len(spacing) != 3 || len(origin) != 3 {
				return errors.New("--dims, --spacing and --origin take three values each")
			}
			g, err := a.group(group, true)
			if err != nil {
				return err
			}
			img, err := geometry.NewImage(g.Name(), [3]int(dims), [3]float32(spacing), [3]float32(origin))
			if err != nil {
				return err
			}
			if err := img.WriteTo(g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s with %s cells at %s\n",
				img.Kind(), humanize.Comma(int64(img.NumberOfElements())), g.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Destination group path")
	cmd.Flags().IntSliceVar(&dims, "dims", []int{8, 8, 8}, "Cell counts")
	cmd.Flags().Float32SliceVar(&spacing, "spacing", []float32{1, 1, 1}, "Cell spacing")
	cmd.Flags().Float32SliceVar(&origin, "origin", []float32{0, 0, 0}, "Low corner")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print a geometry summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			geom, _, err := a.readGeometry(group)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, geom.String())
			if m, ok := geom.(geometry.Mesh3D); ok && m.NumberOfElements() > 0 {
				n, err := m.CountBoundaryFaces()
				if err != nil {
					a.logger.Warn("face pairing failed", zap.String("path", group), zap.Error(err))
					fmt.Fprintf(out, "  Boundary faces: unavailable (%v)\n", err)
				} else {
					fmt.Fprintf(out, "  Boundary faces: %s\n", humanize.Comma(int64(n)))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Geometry group path")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	var (
		group  string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a geometry for structural problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// read failures are reported as the command's error
			defer a.file.SuppressErrorReporting()()
			geom, _, err := a.readGeometry(group)
			if err != nil {
				return err
			}
			issues, err := geometry.Validate(geom, geometry.Policy{
				TreatWarningsAsErrors: strict || a.opts.TreatWarningsAsErrors,
				Logger:                a.logger,
			})
			out := cmd.OutOrStdout()
			for _, is := range issues {
				fmt.Fprintln(out, is)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d issues\n", geom.Name(), len(issues))
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Geometry group path")
	cmd.Flags().BoolVar(&strict, "warnings-as-errors", false, "Fail on warnings")
	return cmd
}

func (a *app) metricsCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute element sizes and centroids and store them with the geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			geom, g, err := a.readGeometry(group)
			if err != nil {
				return err
			}
			if err := geom.FindElementSizes(); err != nil {
				return err
			}
			if err := geom.FindElementCentroids(); err != nil {
				return err
			}
			if err := geom.WriteTo(g); err != nil {
				return err
			}
			var total float64
			for _, s := range geom.ElementSizes() {
				total += float64(s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s elements, total size %g\n",
				geom.Name(), humanize.Comma(int64(geom.NumberOfElements())), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Geometry group path")
	return cmd
}

// coordinateField samples the x coordinate where geom takes its field:
// cell centers for grids, vertices for meshes
func coordinateField(geom geometry.Geometry) ([]float64, int, error) {
	switch g := geom.(type) {
	case geometry.Grid:
		field := make([]float64, g.NumberOfElements())
		for i := range field {
			field[i] = g.CoordsAt(i)[0]
		}
		return field, len(field), nil
	case geometry.Mesh:
		if g.Kind() == element.Vertex {
			break
		}
		verts := g.Vertices()
		field := make([]float64, g.NumberOfVertices())
		for i := range field {
			field[i] = float64(verts[3*i])
		}
		return field, g.NumberOfElements(), nil
	}
	return nil, 0, errors.Wrapf(geometry.ErrUnsupported, "derivatives for %s", geom.Kind())
}

func (a *app) gradCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "grad",
		Short: "Differentiate the x coordinate over a geometry and print a sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			geom, _, err := a.readGeometry(group)
			if err != nil {
				return err
			}
			field, n, err := coordinateField(geom)
			if err != nil {
				return err
			}
			obs, err := a.observer("grad")
			if err != nil {
				return err
			}
			out := make([]float64, 3*n)
			if err := geom.FindDerivatives(context.Background(), field, 1, out, obs); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: d(x)/d(x,y,z) at element 0 = (%.6g, %.6g, %.6g)\n", geom.Name(), out[0], out[1], out[2])
			if n > 1 {
				k := 3 * (n - 1)
				fmt.Fprintf(w, "%s: d(x)/d(x,y,z) at element %d = (%.6g, %.6g, %.6g)\n",
					geom.Name(), n-1, out[k], out[k+1], out[k+2])
			}
			return a.printMetrics(w)
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Geometry group path")
	return cmd
}

// printMetrics writes the gathered gauges and counters when metrics are on
func (a *app) printMetrics(w io.Writer) error {
	if a.reg == nil {
		return nil
	}
	families, err := a.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetGauge().GetValue() + m.GetCounter().GetValue()
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), labels, value)
		}
	}
	return nil
}

func (a *app) exportCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole store to a compressed archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return errors.New("--out is required")
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := container.WriteArchive(f, a.file); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			st, err := os.Stat(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.IBytes(uint64(st.Size())))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "out", "", "Archive file")
	return cmd
}

func (a *app) loadCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an archive written by export into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return errors.New("--in is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			n, err := container.ReadArchive(f, a.file.Store())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s records from %s\n", humanize.Comma(int64(n)), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "in", "", "Archive file")
	return cmd
}
