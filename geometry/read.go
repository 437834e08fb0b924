package geometry

import (
	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geomio"
	"github.com/pkg/errors"
)

// Read loads the geometry stored in g, dispatching on its kind attribute.
// A geometry saved without a name takes the group's name.
func Read(g *container.Group, preflight bool) (Geometry, error) {
	md, err := geomio.ReadMetadata(g)
	if err != nil {
		return nil, errors.Wrapf(err, "reading geometry at %s", g.Path())
	}
	kind, err := element.ParseKind(md.Kind)
	if err != nil {
		return nil, errors.Wrapf(err, "reading geometry at %s", g.Path())
	}
	name := md.Name
	if name == "" {
		name = g.Name()
	}
	geom := Create(kind, name)
	if geom == nil {
		return nil, errors.Errorf("cannot create %s geometry at %s", kind, g.Path())
	}
	if err := geom.ReadFrom(g, preflight); err != nil {
		return nil, err
	}
	return geom, nil
}

// Write stores geom in a child group of parent named after the geometry
func Write(parent *container.Group, geom Geometry) (*container.Group, error) {
	g, err := parent.CreateGroup(geom.Name())
	if err != nil {
		return nil, err
	}
	return g, geom.WriteTo(g)
}
