package main

import (
	"strings"

	"github.com/notargets/GeomKernel/config"
	"github.com/notargets/GeomKernel/container"
	"github.com/notargets/GeomKernel/element"
	"github.com/notargets/GeomKernel/geometry"
	"github.com/notargets/GeomKernel/progress"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app is the state shared by every subcommand for one invocation
type app struct {
	conf   *viper.Viper
	opts   config.Options
	logger *zap.Logger
	file   *container.File
	reg    *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{conf: config.NewViper()}
	root := &cobra.Command{
		Use:           "geomtool",
		Short:         "Import, inspect and process mesh and grid geometries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Configuration file. Environment variables and flags override it.")
	flags.String("store", "", "Directory of the badger store")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Int("threads", 0, "Worker count for derivative runs; 0 means GOMAXPROCS")
	flags.Bool("metrics", false, "Print prometheus progress metrics after the command")
	bindFlags(a.conf, flags, map[string]string{
		"config":          "config",
		"store.dir":       "store",
		"logging.level":   "log-level",
		"threads":         "threads",
		"metrics.enabled": "metrics",
	})

	root.AddCommand(
		a.importCmd(),
		a.imageCmd(),
		a.infoCmd(),
		a.validateCmd(),
		a.metricsCmd(),
		a.gradCmd(),
		a.exportCmd(),
		a.loadCmd(),
	)
	return root
}

// bindFlags maps config keys onto flags so a set flag overrides the config
// file and the environment
func bindFlags(v *viper.Viper, fs *flag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func (a *app) open() error {
	if path := a.conf.GetString("config"); path != "" {
		a.conf.SetConfigFile(path)
		if err := a.conf.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", path)
		}
	}
	opts, err := config.FromViper(a.conf)
	if err != nil {
		return err
	}
	a.opts = opts
	if a.logger, err = config.NewLogger(opts.Logging); err != nil {
		return err
	}
	store, err := container.OpenBadger(container.BadgerOptions{
		Dir:      opts.Store.Dir,
		InMemory: opts.Store.InMemory,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	a.file, err = container.Open(store, container.WithLogger(a.logger), container.WithCache(opts.Store.CacheBytes))
	if err != nil {
		_ = store.Close()
		return err
	}
	if opts.Metrics.Enabled {
		a.reg = prometheus.NewRegistry()
	}
	return nil
}

func (a *app) close() error {
	var err error
	if a.file != nil {
		err = a.file.Close()
		a.file = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// group resolves a slash separated path below the root
func (a *app) group(path string, create bool) (*container.Group, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, errors.New("--group is required")
	}
	if create {
		return a.file.Root().CreateGroup(path)
	}
	return a.file.Root().OpenGroup(path)
}

// readGeometry loads the geometry stored at path
func (a *app) readGeometry(path string) (geometry.Geometry, *container.Group, error) {
	g, err := a.group(path, false)
	if err != nil {
		return nil, nil, err
	}
	geom, err := geometry.Read(g, false)
	if err != nil {
		return nil, nil, err
	}
	geom.SetThreads(a.opts.Threads)
	return geom, g, nil
}

// observer reports progress through the log and, when enabled, prometheus
func (a *app) observer(operation string) (progress.Observer, error) {
	obs := []progress.Observer{progress.NewZapObserver(a.logger, operation)}
	if a.reg != nil {
		p, err := progress.NewPrometheusObserver(a.reg, a.opts.Metrics.Namespace, operation)
		if err != nil {
			return nil, err
		}
		obs = append(obs, p)
	}
	return progress.Multi(obs...), nil
}

// parseKind accepts a persisted kind name or an element short name
func parseKind(s string) (element.Kind, error) {
	if k, err := element.ParseKind(s); err == nil {
		return k, nil
	}
	for _, k := range element.Kinds() {
		if strings.EqualFold(element.Properties(k).ShortName, s) {
			return k, nil
		}
	}
	return element.Unknown, errors.Errorf("unknown kind %q", s)
}
