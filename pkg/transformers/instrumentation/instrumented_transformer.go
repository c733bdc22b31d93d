// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/tabprep/pkg/dataset"
	"github.com/xataio/tabprep/pkg/otel"
	"github.com/xataio/tabprep/pkg/transformers"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Transformer struct {
	inner   transformers.Transformer
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics
}

type metrics struct {
	fitLatency       metric.Int64Histogram
	transformLatency metric.Int64Histogram
	rows             metric.Int64Counter
}

func NewTransformer(t transformers.Transformer, instrumentation *otel.Instrumentation) (transformers.Transformer, error) {
	if !instrumentation.IsEnabled() {
		return t, nil
	}

	transformer := &Transformer{
		inner:   t,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &metrics{},
	}

	if err := transformer.initMetrics(); err != nil {
		return nil, fmt.Errorf("initialising transformer metrics: %w", err)
	}

	return transformer, nil
}

func (i *Transformer) Fit(ctx context.Context, t *dataset.Table) (err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "transformer.Fit", trace.WithAttributes(i.typeAttribute()))
	defer func() { otel.CloseSpan(span, err) }()

	if i.meter != nil {
		startTime := time.Now()
		defer func() {
			i.metrics.fitLatency.Record(ctx, time.Since(startTime).Milliseconds(), metric.WithAttributes(i.typeAttribute()))
		}()
	}
	return i.inner.Fit(ctx, t)
}

func (i *Transformer) Transform(ctx context.Context, t *dataset.Table) (out *dataset.Table, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "transformer.Transform", trace.WithAttributes(i.typeAttribute()))
	defer func() { otel.CloseSpan(span, err) }()

	if i.meter != nil {
		startTime := time.Now()
		defer func() {
			i.metrics.transformLatency.Record(ctx, time.Since(startTime).Milliseconds(), metric.WithAttributes(i.typeAttribute()))
			if err == nil {
				i.metrics.rows.Add(ctx, int64(t.NumRows()), metric.WithAttributes(i.typeAttribute()))
			}
		}()
	}
	return i.inner.Transform(ctx, t)
}

// FitTransform goes through the instrumented Fit and Transform so both
// phases are recorded separately.
func (i *Transformer) FitTransform(ctx context.Context, t *dataset.Table) (out *dataset.Table, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "transformer.FitTransform", trace.WithAttributes(i.typeAttribute()))
	defer func() { otel.CloseSpan(span, err) }()

	if err := i.Fit(ctx, t); err != nil {
		return nil, err
	}
	return i.Transform(ctx, t)
}

func (i *Transformer) Type() transformers.ColumnType {
	return i.inner.Type()
}

func (i *Transformer) Columns() []string {
	return i.inner.Columns()
}

func (i *Transformer) ValidateInput(t *dataset.Table) error {
	return i.inner.ValidateInput(t)
}

func (i *Transformer) FittedState() transformers.FittedState {
	return i.inner.FittedState()
}

// Unwrap returns the decorated transformer.
func (i *Transformer) Unwrap() transformers.Transformer {
	return i.inner
}

func (i *Transformer) initMetrics() error {
	if i.meter == nil {
		return nil
	}

	var err error
	i.metrics.fitLatency, err = i.meter.Int64Histogram("tabprep.transformer.fit.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken to fit the transformer"))
	if err != nil {
		return err
	}

	i.metrics.transformLatency, err = i.meter.Int64Histogram("tabprep.transformer.transform.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken to transform a table"))
	if err != nil {
		return err
	}

	i.metrics.rows, err = i.meter.Int64Counter("tabprep.transformer.rows",
		metric.WithUnit("{row}"),
		metric.WithDescription("Number of rows transformed"))
	if err != nil {
		return err
	}

	return nil
}

func (i *Transformer) typeAttribute() attribute.KeyValue {
	return otel.ColumnTypeKey.String(string(i.inner.Type()))
}
