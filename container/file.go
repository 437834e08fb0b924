// Package container implements a hierarchical binary container of groups,
// typed n-dimensional datasets and scalar attributes over a flat key-value
// Store.
//
// Records are keyed by kind and path:
//
//	g/<group path>           group marker
//	d/<group path>/<name>    dataset (header plus little-endian payload)
//	a/<group path>/<name>    attribute
package container

import (
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	groupPrefix     = "g/"
	datasetPrefix   = "d/"
	attributePrefix = "a/"
)

// File is an open container
type File struct {
	store    Store
	logger   *zap.Logger
	cache    *ristretto.Cache[string, *Dataset]
	suppress atomic.Int32
}

// Option configures Open
type Option func(*File) error

func WithLogger(l *zap.Logger) Option {
	return func(f *File) error {
		if l != nil {
			f.logger = l
		}
		return nil
	}
}

// WithCache keeps up to maxBytes of decoded datasets in memory
func WithCache(maxBytes int64) Option {
	return func(f *File) error {
		if maxBytes <= 0 {
			return nil
		}
		cache, err := ristretto.NewCache(&ristretto.Config[string, *Dataset]{
			NumCounters: max(1000, maxBytes/100),
			MaxCost:     maxBytes,
			BufferItems: 64,
		})
		if err != nil {
			return errors.Wrap(err, "creating dataset cache")
		}
		f.cache = cache
		return nil
	}
}

// Open wraps store in a container. The File takes ownership of the store.
func Open(store Store, opts ...Option) (*File, error) {
	f := &File{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Root returns the top-level group
func (f *File) Root() *Group {
	return &Group{file: f}
}

// Store returns the underlying record store
func (f *File) Store() Store { return f.store }

// SuppressErrorReporting silences read-failure logging for every reader of
// the file until the returned restore function is called. Calls nest; each
// restore undoes one call and is safe to call more than once. Concurrent
// readers share the switch, so use Group.Quiet to silence one caller only.
func (f *File) SuppressErrorReporting() (restore func()) {
	f.suppress.Add(1)
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			f.suppress.Add(-1)
		}
	}
}

// ReportingErrors is false while any suppression is active
func (f *File) ReportingErrors() bool { return f.suppress.Load() == 0 }

func (g *Group) readFailed(err error, path string) error {
	if !g.quiet && g.file.ReportingErrors() {
		g.file.logger.Error("container read failed", zap.String("path", path), zap.Error(err))
	}
	return err
}

// Close releases the cache and closes the store
func (f *File) Close() error {
	if f.cache != nil {
		f.cache.Close()
	}
	return f.store.Close()
}

func (f *File) cachedDataset(key string) (*Dataset, bool) {
	if f.cache == nil {
		return nil, false
	}
	ds, ok := f.cache.Get(key)
	if !ok {
		return nil, false
	}
	return ds.Clone(), true
}

func (f *File) cacheDataset(key string, ds *Dataset, wait bool) {
	if f.cache == nil {
		return
	}
	f.cache.Set(key, ds.Clone(), int64(len(ds.Data))+1)
	if wait {
		f.cache.Wait()
	}
}

func (f *File) evict(key string) {
	if f.cache != nil {
		f.cache.Del(key)
		f.cache.Wait()
	}
}

// Group is a named node of the container hierarchy
type Group struct {
	file  *File
	path  string // slash separated, "" for the root
	quiet bool
}

// Path returns the absolute path of the group
func (g *Group) Path() string { return "/" + g.path }

// Name returns the last path element, "/" for the root
func (g *Group) Name() string {
	if g.path == "" {
		return "/"
	}
	return g.path[strings.LastIndex(g.path, "/")+1:]
}

// File returns the container holding g
func (g *Group) File() *File { return g.file }

// Quiet returns a view of g whose failed reads are returned without being
// logged. Groups opened through the view are quiet too; g is unchanged.
func (g *Group) Quiet() *Group {
	q := *g
	q.quiet = true
	return &q
}

func (g *Group) child(name string) string {
	if g.path == "" {
		return name
	}
	return g.path + "/" + name
}

func (g *Group) childPrefix() string {
	if g.path == "" {
		return ""
	}
	return g.path + "/"
}

func checkName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return errors.Errorf("invalid name %q", name)
	}
	return nil
}

// CreateGroup creates the named child group, or opens it if it exists.
// Names containing '/' create each missing level.
func (g *Group) CreateGroup(name string) (*Group, error) {
	cur := g
	for _, part := range strings.Split(strings.Trim(name, "/"), "/") {
		if err := checkName(part); err != nil {
			return nil, err
		}
		next := &Group{file: g.file, path: cur.child(part), quiet: g.quiet}
		if err := g.file.store.Put(groupPrefix+next.path, nil); err != nil {
			return nil, errors.Wrapf(err, "creating group %s", next.Path())
		}
		cur = next
	}
	return cur, nil
}

// OpenGroup opens an existing child group; the name may be a relative path
func (g *Group) OpenGroup(name string) (*Group, error) {
	path := g.child(strings.Trim(name, "/"))
	if _, err := g.file.store.Get(groupPrefix + path); err != nil {
		return nil, g.readFailed(errors.Wrapf(err, "opening group /%s", path), "/"+path)
	}
	return &Group{file: g.file, path: path, quiet: g.quiet}, nil
}

// HasGroup reports whether the named child group exists
func (g *Group) HasGroup(name string) bool {
	_, err := g.file.store.Get(groupPrefix + g.child(strings.Trim(name, "/")))
	return err == nil
}

// directChildren lists the names directly below g under a key prefix
func (g *Group) directChildren(kind string) ([]string, error) {
	prefix := kind + g.childPrefix()
	keys, err := g.file.store.Keys(prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", g.Path())
	}
	var names []string
	for _, k := range keys {
		rest := k[len(prefix):]
		if rest != "" && !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	return names, nil
}

// Groups lists the child group names in sorted order
func (g *Group) Groups() ([]string, error) { return g.directChildren(groupPrefix) }

// Datasets lists the dataset names in sorted order
func (g *Group) Datasets() ([]string, error) { return g.directChildren(datasetPrefix) }

// Attributes lists the attribute names in sorted order
func (g *Group) Attributes() ([]string, error) { return g.directChildren(attributePrefix) }

// WriteDataset stores ds under ds.Name, replacing any previous dataset
func (g *Group) WriteDataset(ds *Dataset) error {
	if err := checkName(ds.Name); err != nil {
		return err
	}
	if ds.Type.Size() == 0 {
		return errors.Errorf("dataset %q: unsupported type %s", ds.Name, ds.Type)
	}
	if uint64(len(ds.Data)) != ds.NumElements()*uint64(ds.Type.Size()) {
		return errors.Errorf("dataset %q: %d bytes for shape %v of %s",
			ds.Name, len(ds.Data), ds.Dims, ds.Type)
	}
	key := datasetPrefix + g.child(ds.Name)
	g.file.evict(key)
	if err := g.file.store.Put(key, ds.encode()); err != nil {
		return errors.Wrapf(err, "writing dataset %s/%s", g.Path(), ds.Name)
	}
	g.file.cacheDataset(key, ds, true)
	return nil
}

// ReadDataset loads the named dataset
func (g *Group) ReadDataset(name string) (*Dataset, error) {
	key := datasetPrefix + g.child(name)
	if ds, ok := g.file.cachedDataset(key); ok {
		return ds, nil
	}
	buf, err := g.file.store.Get(key)
	if err != nil {
		return nil, g.readFailed(errors.Wrapf(err, "reading dataset %q", name), g.Path())
	}
	ds, err := decodeDataset(name, buf, true)
	if err != nil {
		return nil, g.readFailed(err, g.Path())
	}
	g.file.cacheDataset(key, ds, false)
	return ds, nil
}

// DatasetInfo returns the shape and type of the named dataset without its
// payload
func (g *Group) DatasetInfo(name string) (*Dataset, error) {
	key := datasetPrefix + g.child(name)
	if ds, ok := g.file.cachedDataset(key); ok {
		ds.Data = nil
		return ds, nil
	}
	buf, err := g.file.store.Get(key)
	if err != nil {
		return nil, g.readFailed(errors.Wrapf(err, "reading dataset %q", name), g.Path())
	}
	ds, err := decodeDataset(name, buf, false)
	if err != nil {
		return nil, g.readFailed(err, g.Path())
	}
	return ds, nil
}

// HasDataset reports whether the named dataset exists
func (g *Group) HasDataset(name string) bool {
	_, err := g.file.store.Get(datasetPrefix + g.child(name))
	return err == nil
}

// DeleteDataset removes the named dataset; a missing dataset is not an error
func (g *Group) DeleteDataset(name string) error {
	key := datasetPrefix + g.child(name)
	g.file.evict(key)
	return g.file.store.Delete(key)
}

func (g *Group) SetAttribute(name string, a Attribute) error {
	if err := checkName(name); err != nil {
		return err
	}
	if a.Type != String && a.Type != Uint32 {
		return errors.Errorf("attribute %q: unsupported type %s", name, a.Type)
	}
	return g.file.store.Put(attributePrefix+g.child(name), a.encode())
}

func (g *Group) Attribute(name string) (Attribute, error) {
	buf, err := g.file.store.Get(attributePrefix + g.child(name))
	if err != nil {
		return Attribute{}, g.readFailed(errors.Wrapf(err, "reading attribute %q", name), g.Path())
	}
	a, err := decodeAttribute(name, buf)
	if err != nil {
		return Attribute{}, g.readFailed(err, g.Path())
	}
	return a, nil
}
