// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentationProvider interface {
	NewInstrumentation(name string) *Instrumentation
	Close() error
}

type Instrumentation struct {
	Meter  metric.Meter
	Tracer trace.Tracer
}

func (i *Instrumentation) IsEnabled() bool {
	return i != nil && (i.Meter != nil || i.Tracer != nil)
}

// SpanTracer returns the tracer, or nil when the instrumentation is nil, so
// that callers can pass it straight to StartSpan.
func (i *Instrumentation) SpanTracer() trace.Tracer {
	if i == nil {
		return nil
	}
	return i.Tracer
}

type noopProvider struct{}

func (p *noopProvider) NewInstrumentation(name string) *Instrumentation {
	return nil
}

func (p *noopProvider) Close() error {
	return nil
}

func NewInstrumentationProvider(cfg *Config) (InstrumentationProvider, error) {
	// neither metrics nor traces configured: instrumentation disabled
	if cfg.Metrics == nil && cfg.Traces == nil {
		return &noopProvider{}, nil
	}
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	return NewProvider(cfg)
}
