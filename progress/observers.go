package progress

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ZapObserver logs each report at info level
type ZapObserver struct {
	logger    *zap.Logger
	operation string
}

func NewZapObserver(logger *zap.Logger, operation string) *ZapObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapObserver{logger: logger, operation: operation}
}

func (z *ZapObserver) Progress(done, total int64) {
	percent := 100.0
	if total > 0 {
		percent = 100 * float64(done) / float64(total)
	}
	z.logger.Info("progress",
		zap.String("operation", z.operation),
		zap.Int64("done", done),
		zap.Int64("total", total),
		zap.Float64("percent", percent))
}

// PrometheusObserver exports the completed fraction of an operation as a
// gauge and counts finished runs.
type PrometheusObserver struct {
	ratio     prometheus.Gauge
	completed prometheus.Counter
}

// NewPrometheusObserver registers (or reuses) the progress collectors on reg
// and binds them to operation.
func NewPrometheusObserver(reg prometheus.Registerer, namespace, operation string) (*PrometheusObserver, error) {
	ratio := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_ratio",
			Help:      "Completed fraction of the running operation",
		},
		[]string{"operation"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of completed operations",
		},
		[]string{"operation"},
	)
	if err := register(reg, &ratio); err != nil {
		return nil, err
	}
	if err := register(reg, &runs); err != nil {
		return nil, err
	}
	return &PrometheusObserver{
		ratio:     ratio.WithLabelValues(operation),
		completed: runs.WithLabelValues(operation),
	}, nil
}

// register swaps *c for the already registered collector of the same shape
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			*c = existing
			return nil
		}
	}
	return errors.Wrap(err, "registering progress metrics")
}

func (p *PrometheusObserver) Progress(done, total int64) {
	if total <= 0 {
		p.ratio.Set(1)
	} else {
		p.ratio.Set(float64(done) / float64(total))
	}
	if done >= total {
		p.completed.Inc()
	}
}
