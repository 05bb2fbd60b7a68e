package metrics

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
)

// Config selects the registerer, the metric name prefix and constant labels.
type Config struct {
	// Enabled turns collection on for components that accept a Config.
	Enabled bool

	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace defaults to DefaultNamespace.
	Namespace string

	// Labels are added to every collector, for example {"instance": "east"}.
	Labels prometheus.Labels
}

// DefaultConfig returns an enabled Config on the default registerer.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidNamespace reports whether ns can prefix a Prometheus metric name.
func ValidNamespace(ns string) bool { return metricName.MatchString(ns) }

// Validate checks Namespace and label names. Registering collectors with an
// invalid name panics, so callers validate configuration first.
func (c Config) Validate() error {
	if c.Namespace != "" && !ValidNamespace(c.Namespace) {
		return gferrors.NewValidationError("metrics", "Namespace", c.Namespace, "is not a valid metric name prefix").
			WithHint("use letters, digits and underscores, not starting with a digit")
	}
	for name := range c.Labels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return gferrors.NewValidationError("metrics", "Labels", name, "is not a valid label name")
		}
	}
	return nil
}

// Instrumentable is implemented by components whose metrics can be toggled at runtime.
type Instrumentable interface {
	EnableMetrics(config Config) error
	DisableMetrics()
	MetricsEnabled() bool
}
