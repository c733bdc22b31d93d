// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/tabprep/pkg/dataset"
	"github.com/xataio/tabprep/pkg/otel"
	"github.com/xataio/tabprep/pkg/transformers"
	"github.com/xataio/tabprep/pkg/transformers/mocks"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewTransformer_Disabled(t *testing.T) {
	t.Parallel()

	inner := &mocks.Transformer{}
	got, err := NewTransformer(inner, nil)
	require.NoError(t, err)
	require.Same(t, inner, got)

	got, err = NewTransformer(inner, &otel.Instrumentation{})
	require.NoError(t, err)
	require.Same(t, inner, got)
}

func TestTransformer_FitTransform(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")
	table, err := dataset.New(dataset.Column{Name: "age", Values: []any{1, 2, 3}})
	require.NoError(t, err)

	tests := []struct {
		name   string
		fitErr error

		wantErr        error
		wantSpans      []string
		wantErrorSpans []string
		wantRows       int64
	}{
		{
			name:      "ok",
			wantSpans: []string{"transformer.Fit", "transformer.Transform", "transformer.FitTransform"},
			wantRows:  3,
		},
		{
			name:           "error - fit failure",
			fitErr:         errTest,
			wantErr:        errTest,
			wantSpans:      []string{"transformer.Fit", "transformer.FitTransform"},
			wantErrorSpans: []string{"transformer.Fit", "transformer.FitTransform"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			spanRecorder := tracetest.NewSpanRecorder()
			tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
			reader := sdkmetric.NewManualReader()
			meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

			inner := &mocks.Transformer{
				TypeFn: func() transformers.ColumnType { return transformers.Numeric },
				FitFn: func(context.Context, *dataset.Table) error {
					return tc.fitErr
				},
				TransformFn: func(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
					return t.Clone(), nil
				},
			}

			tr, err := NewTransformer(inner, &otel.Instrumentation{
				Meter:  meterProvider.Meter("test"),
				Tracer: tracerProvider.Tracer("test"),
			})
			require.NoError(t, err)
			require.Equal(t, transformers.Numeric, tr.Type())

			_, err = tr.FitTransform(context.Background(), table)
			require.ErrorIs(t, err, tc.wantErr)

			spanNames := []string{}
			errorSpans := []string{}
			for _, s := range spanRecorder.Ended() {
				spanNames = append(spanNames, s.Name())
				if s.Status().Code == codes.Error {
					errorSpans = append(errorSpans, s.Name())
				}
			}
			require.Equal(t, tc.wantSpans, spanNames)
			if tc.wantErrorSpans == nil {
				require.Empty(t, errorSpans)
			} else {
				require.Equal(t, tc.wantErrorSpans, errorSpans)
			}

			rm := metricdata.ResourceMetrics{}
			require.NoError(t, reader.Collect(context.Background(), &rm))
			require.Equal(t, tc.wantRows, collectedRows(rm))
			require.Contains(t, metricNames(rm), "tabprep.transformer.fit.latency")
		})
	}
}

func metricNames(rm metricdata.ResourceMetrics) []string {
	names := []string{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}

func collectedRows(rm metricdata.ResourceMetrics) int64 {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tabprep.transformer.rows" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				return -1
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}
