// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"errors"
	"fmt"
	"time"
)

// Config enables the otlp exporters. A nil Metrics or Traces section leaves
// that signal on a noop provider.
type Config struct {
	Metrics *MetricsConfig
	Traces  *TracesConfig
}

type MetricsConfig struct {
	Endpoint string
	// CollectionInterval between metric exports. Defaults to 60s.
	CollectionInterval time.Duration
}

type TracesConfig struct {
	Endpoint string
	// SampleRatio of the pipeline runs whose traces are exported, between 0
	// and 1. Transformer spans follow their parent run.
	SampleRatio float64
}

var (
	ErrInvalidConfig      = errors.New("invalid instrumentation config")
	ErrInvalidSampleRatio = errors.New("trace sample ratio must be between 0 and 1")

	errMissingEndpoint          = errors.New("otlp endpoint is required")
	errNegativeCollectionPeriod = errors.New("metrics collection interval must not be negative")
)

const defaultCollectionInterval = 60 * time.Second

// IsValid checks the enabled sections of the config.
func (c *Config) IsValid() error {
	if m := c.Metrics; m != nil {
		switch {
		case m.CollectionInterval < 0:
			return fmt.Errorf("%w: %w", ErrInvalidConfig, errNegativeCollectionPeriod)
		case m.Endpoint == "":
			return fmt.Errorf("%w: metrics: %w", ErrInvalidConfig, errMissingEndpoint)
		}
	}

	if tr := c.Traces; tr != nil {
		switch {
		case tr.SampleRatio < 0 || tr.SampleRatio > 1:
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidSampleRatio)
		case tr.Endpoint == "":
			return fmt.Errorf("%w: traces: %w", ErrInvalidConfig, errMissingEndpoint)
		}
	}

	return nil
}

func (c *MetricsConfig) collectionInterval() time.Duration {
	if c.CollectionInterval != 0 {
		return c.CollectionInterval
	}
	return defaultCollectionInterval
}
