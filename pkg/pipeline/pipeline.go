// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/trace"

	"github.com/xataio/tabprep/pkg/dataset"
	"github.com/xataio/tabprep/pkg/dataset/csv"
	pgdataset "github.com/xataio/tabprep/pkg/dataset/postgres"
	"github.com/xataio/tabprep/pkg/engine"
	loglib "github.com/xataio/tabprep/pkg/log"
	"github.com/xataio/tabprep/pkg/otel"
)

// Pipeline loads a dataset, preprocesses it with the engine, splits it into
// train and test partitions and saves them.
type Pipeline struct {
	config          *Config
	logger          loglib.Logger
	clock           clockwork.Clock
	instrumentation *otel.Instrumentation
	csvWriter       *csv.Writer

	newPostgresSource func(ctx context.Context, cfg *pgdataset.SourceConfig) (tableReader, error)
	newPostgresSink   func(ctx context.Context, cfg *pgdataset.SinkConfig) (tableWriter, error)
}

type Result struct {
	RunID         string
	Train         *dataset.Table
	Test          *dataset.Table
	OutputColumns []string
	TrainPath     string
	TestPath      string
	Duration      time.Duration
	Engine        *engine.Engine
}

type tableReader interface {
	Read(ctx context.Context) (*dataset.Table, error)
	Close(ctx context.Context) error
}

type tableWriter interface {
	Write(ctx context.Context, tableName string, t *dataset.Table) error
	Close(ctx context.Context) error
}

type Option func(p *Pipeline)

// Run builds and runs a pipeline for the configuration. This call is
// blocking.
func Run(ctx context.Context, logger loglib.Logger, config *Config, instrumentation *otel.Instrumentation) (*Result, error) {
	p, err := New(config, WithLogger(logger), WithInstrumentation(instrumentation))
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func New(config *Config, opts ...Option) (*Pipeline, error) {
	if err := config.IsValid(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:    config,
		logger:    loglib.NewNoopLogger(),
		clock:     clockwork.NewRealClock(),
		csvWriter: csv.NewWriter(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.newPostgresSource = func(ctx context.Context, cfg *pgdataset.SourceConfig) (tableReader, error) {
		return pgdataset.NewSource(ctx, cfg, pgdataset.WithLogger(p.logger))
	}
	p.newPostgresSink = func(ctx context.Context, cfg *pgdataset.SinkConfig) (tableWriter, error) {
		return pgdataset.NewSink(ctx, cfg.URL, pgdataset.WithLogger(p.logger))
	}

	return p, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(p *Pipeline) {
		p.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "pipeline",
		})
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(p *Pipeline) {
		p.instrumentation = i
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithProgressTracking displays a progress bar while the output files are
// written.
func WithProgressTracking() Option {
	return func(p *Pipeline) {
		p.csvWriter = csv.NewWriter(csv.WithProgressTracking())
	}
}

func (p *Pipeline) Run(ctx context.Context) (_ *Result, err error) {
	runID := xid.New().String()
	logger := p.logger.WithFields(loglib.Fields{loglib.RunIDField: runID})
	start := p.clock.Now()

	ctx, span := otel.StartSpan(ctx, p.instrumentation.SpanTracer(), "pipeline.Run",
		trace.WithAttributes(otel.RunIDKey.String(runID)))
	defer func() { otel.CloseSpan(span, err) }()

	table, err := p.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	logger.Info("dataset loaded", loglib.Fields{
		loglib.RowsField:     table.NumRows(),
		loglib.ColumnsField:  table.NumColumns(),
		loglib.DurationField: p.clock.Since(start),
	})

	e, err := p.newEngine(logger)
	if err != nil {
		return nil, err
	}

	stageStart := p.clock.Now()
	train, test, err := p.preprocess(ctx, e, table)
	if err != nil {
		return nil, err
	}
	outputColumns, err := e.OutputColumns()
	if err != nil {
		return nil, err
	}
	logger.Info("dataset preprocessed", loglib.Fields{
		"fit_on":             string(p.config.fitOn()),
		"train_rows":         train.NumRows(),
		"test_rows":          test.NumRows(),
		"output_columns":     outputColumns,
		loglib.DurationField: p.clock.Since(stageStart),
	})

	result := &Result{
		RunID:         runID,
		Train:         train,
		Test:          test,
		OutputColumns: outputColumns,
		Engine:        e,
	}

	stageStart = p.clock.Now()
	if result.TrainPath, result.TestPath, err = p.save(train, test); err != nil {
		return nil, err
	}
	logger.Info("splits saved", loglib.Fields{
		"train_path":         result.TrainPath,
		"test_path":          result.TestPath,
		loglib.DurationField: p.clock.Since(stageStart),
	})

	if p.config.Sink.Postgres != nil {
		stageStart = p.clock.Now()
		if err := p.sink(ctx, train, test); err != nil {
			return nil, fmt.Errorf("writing postgres sink: %w", err)
		}
		logger.Info("splits written to postgres", loglib.Fields{loglib.DurationField: p.clock.Since(stageStart)})
	}

	result.Duration = p.clock.Since(start)
	logger.Info("pipeline completed", loglib.Fields{loglib.DurationField: result.Duration})
	return result, nil
}

// Fit loads the dataset and fits an engine on the rows selected by fit_on,
// without transforming or saving anything.
func (p *Pipeline) Fit(ctx context.Context) (*engine.Engine, error) {
	table, err := p.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	e, err := p.newEngine(p.logger)
	if err != nil {
		return nil, err
	}

	fitRows := table
	if p.config.fitOn() == FitOnTrain {
		if fitRows, _, err = dataset.Split(table, p.config.Split.TestSize, p.config.Split.Seed); err != nil {
			return nil, err
		}
	}
	if err := e.Fit(ctx, fitRows); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Pipeline) newEngine(logger loglib.Logger) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(logger)}
	if p.instrumentation.IsEnabled() {
		opts = append(opts, engine.WithInstrumentation(p.instrumentation))
	}
	e, err := engine.New(&p.config.Engine, opts...)
	if err != nil {
		return nil, fmt.Errorf("building preprocessing engine: %w", err)
	}
	return e, nil
}

func (p *Pipeline) load(ctx context.Context) (*dataset.Table, error) {
	if p.config.Source.CSV != nil {
		opts := []csv.ReaderOption{}
		if len(p.config.Source.CSV.NAValues) > 0 {
			opts = append(opts, csv.WithNAValues(p.config.Source.CSV.NAValues...))
		}
		return csv.NewReader(opts...).ReadFile(p.config.Source.CSV.Path)
	}

	source, err := p.newPostgresSource(ctx, p.config.Source.Postgres)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := source.Close(ctx); err != nil {
			p.logger.Warn(err, "closing postgres source")
		}
	}()
	return source.Read(ctx)
}

func (p *Pipeline) preprocess(ctx context.Context, e *engine.Engine, table *dataset.Table) (train, test *dataset.Table, err error) {
	if p.config.fitOn() == FitOnAll {
		processed, err := e.FitTransform(ctx, table)
		if err != nil {
			return nil, nil, fmt.Errorf("preprocessing dataset: %w", err)
		}
		return dataset.Split(processed, p.config.Split.TestSize, p.config.Split.Seed)
	}

	train, test, err = dataset.Split(table, p.config.Split.TestSize, p.config.Split.Seed)
	if err != nil {
		return nil, nil, err
	}
	if err := e.Fit(ctx, train); err != nil {
		return nil, nil, fmt.Errorf("fitting on train rows: %w", err)
	}
	if train, err = e.Transform(ctx, train); err != nil {
		return nil, nil, fmt.Errorf("transforming train rows: %w", err)
	}
	if test, err = e.Transform(ctx, test); err != nil {
		return nil, nil, fmt.Errorf("transforming test rows: %w", err)
	}
	return train, test, nil
}

func (p *Pipeline) save(train, test *dataset.Table) (string, string, error) {
	if err := os.MkdirAll(p.config.OutputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	trainPath := filepath.Join(p.config.OutputDir, TrainFileName)
	testPath := filepath.Join(p.config.OutputDir, TestFileName)
	if err := p.csvWriter.WriteFile(trainPath, train); err != nil {
		return "", "", fmt.Errorf("saving train split: %w", err)
	}
	if err := p.csvWriter.WriteFile(testPath, test); err != nil {
		return "", "", fmt.Errorf("saving test split: %w", err)
	}
	return trainPath, testPath, nil
}

func (p *Pipeline) sink(ctx context.Context, train, test *dataset.Table) error {
	cfg := p.config.Sink.Postgres
	sink, err := p.newPostgresSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(ctx); err != nil {
			p.logger.Warn(err, "closing postgres sink")
		}
	}()

	if err := sink.Write(ctx, cfg.TrainTable, train); err != nil {
		return err
	}
	return sink.Write(ctx, cfg.TestTable, test)
}
