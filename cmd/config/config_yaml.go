// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pgdataset "github.com/xataio/tabprep/pkg/dataset/postgres"
	"github.com/xataio/tabprep/pkg/engine"
	"github.com/xataio/tabprep/pkg/otel"
	"github.com/xataio/tabprep/pkg/pipeline"
	"github.com/xataio/tabprep/pkg/transformers"
)

type YAMLConfig struct {
	DataPath        string                `mapstructure:"data_path" yaml:"data_path"`
	OutputDir       string                `mapstructure:"output_dir" yaml:"output_dir"`
	Dataset         DatasetConfig         `mapstructure:"dataset" yaml:"dataset"`
	Preprocessing   PreprocessingConfig   `mapstructure:"preprocessing" yaml:"preprocessing"`
	Source          *SourceConfig         `mapstructure:"source" yaml:"source"`
	Sink            *SinkConfig           `mapstructure:"sink" yaml:"sink"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type DatasetConfig struct {
	InputColumns []ColumnConfig `mapstructure:"input_columns" yaml:"input_columns"`
	TestSize     float64        `mapstructure:"test_size" yaml:"test_size"`
	RandomState  uint64         `mapstructure:"random_state" yaml:"random_state"`
	FitOn        string         `mapstructure:"fit_on" yaml:"fit_on"`
	NAValues     []string       `mapstructure:"na_values" yaml:"na_values"`
}

type ColumnConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Type string `mapstructure:"type" yaml:"type"`
}

type PreprocessingConfig struct {
	Concurrent  bool           `mapstructure:"concurrent" yaml:"concurrent"`
	Text        map[string]any `mapstructure:"text" yaml:"text"`
	Numeric     map[string]any `mapstructure:"numeric" yaml:"numeric"`
	Categorical map[string]any `mapstructure:"categorical" yaml:"categorical"`
}

type SourceConfig struct {
	Postgres *PostgresSourceConfig `mapstructure:"postgres" yaml:"postgres"`
}

type PostgresSourceConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Query string `mapstructure:"query" yaml:"query"`
}

type SinkConfig struct {
	Postgres *PostgresSinkConfig `mapstructure:"postgres" yaml:"postgres"`
}

type PostgresSinkConfig struct {
	URL        string `mapstructure:"url" yaml:"url"`
	TrainTable string `mapstructure:"train_table" yaml:"train_table"`
	TestTable  string `mapstructure:"test_table" yaml:"test_table"`
}

type InstrumentationConfig struct {
	Metrics *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces  *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// seconds
	CollectionInterval int `mapstructure:"collection_interval" yaml:"collection_interval"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

const (
	defaultTestSize  = 0.2
	defaultOutputDir = "data/processed"
)

var (
	errMissingDataSource      = errors.New("either data_path or source.postgres must be provided")
	errInvalidPostgresSource  = errors.New("postgres source requires a url and a query")
	errInvalidPostgresSink    = errors.New("postgres sink requires a url, a train_table and a test_table")
	errMissingDatasetColumns  = errors.New("dataset file must declare input_columns")
	errInvalidCollectionValue = errors.New("metrics collection interval must not be negative")
)

func (c *YAMLConfig) toPipelineConfig() (*pipeline.Config, error) {
	source, err := c.parseSourceConfig()
	if err != nil {
		return nil, err
	}

	sink, err := c.parseSinkConfig()
	if err != nil {
		return nil, err
	}

	outputDir := c.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	return &pipeline.Config{
		Engine:    c.parseEngineConfig(),
		Source:    source,
		Split:     c.Dataset.parseSplitConfig(),
		OutputDir: outputDir,
		Sink:      sink,
	}, nil
}

func (c *YAMLConfig) parseEngineConfig() engine.Config {
	return engine.Config{
		Dataset:     c.Dataset.parseDatasetConfig(),
		Text:        transformers.Parameters(c.Preprocessing.Text),
		Numeric:     transformers.Parameters(c.Preprocessing.Numeric),
		Categorical: transformers.Parameters(c.Preprocessing.Categorical),
		Concurrent:  c.Preprocessing.Concurrent,
	}
}

// parseSourceConfig prefers the postgres source over data_path when both are
// set.
func (c *YAMLConfig) parseSourceConfig() (pipeline.SourceConfig, error) {
	if c.Source != nil && c.Source.Postgres != nil {
		pg := c.Source.Postgres
		if pg.URL == "" || pg.Query == "" {
			return pipeline.SourceConfig{}, errInvalidPostgresSource
		}
		return pipeline.SourceConfig{
			Postgres: &pgdataset.SourceConfig{URL: pg.URL, Query: pg.Query},
		}, nil
	}

	if c.DataPath == "" {
		return pipeline.SourceConfig{}, errMissingDataSource
	}
	return pipeline.SourceConfig{
		CSV: &pipeline.CSVSourceConfig{
			Path:     c.DataPath,
			NAValues: c.Dataset.NAValues,
		},
	}, nil
}

func (c *YAMLConfig) parseSinkConfig() (pipeline.SinkConfig, error) {
	if c.Sink == nil || c.Sink.Postgres == nil {
		return pipeline.SinkConfig{}, nil
	}
	pg := c.Sink.Postgres
	if pg.URL == "" || pg.TrainTable == "" || pg.TestTable == "" {
		return pipeline.SinkConfig{}, errInvalidPostgresSink
	}
	return pipeline.SinkConfig{
		Postgres: &pgdataset.SinkConfig{
			URL:        pg.URL,
			TrainTable: pg.TrainTable,
			TestTable:  pg.TestTable,
		},
	}, nil
}

func (c *DatasetConfig) parseDatasetConfig() transformers.DatasetConfig {
	columns := make([]transformers.ColumnSpec, 0, len(c.InputColumns))
	for _, col := range c.InputColumns {
		columns = append(columns, transformers.ColumnSpec{
			Name: col.Name,
			Type: transformers.ColumnType(col.Type),
		})
	}
	return transformers.DatasetConfig{Columns: columns}
}

func (c *DatasetConfig) parseSplitConfig() pipeline.SplitConfig {
	testSize := c.TestSize
	if testSize == 0 {
		testSize = defaultTestSize
	}
	return pipeline.SplitConfig{
		TestSize: testSize,
		Seed:     c.RandomState,
		FitOn:    pipeline.FitOn(c.FitOn),
	}
}

func (c *InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}
	if c.Metrics != nil {
		if c.Metrics.CollectionInterval < 0 {
			return nil, errInvalidCollectionValue
		}
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
		}
	}
	if c.Traces != nil {
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDatasetFile reads a standalone yaml file holding the dataset section
// of the configuration.
func ParseDatasetFile(path string) (*DatasetConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}

	file := struct {
		Dataset *DatasetConfig `yaml:"dataset"`
	}{}
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parsing dataset file: %w", err)
	}

	// the dataset section can also be the top level document
	dataset := file.Dataset
	if dataset == nil {
		dataset = &DatasetConfig{}
		if err := yaml.Unmarshal(content, dataset); err != nil {
			return nil, fmt.Errorf("parsing dataset file: %w", err)
		}
	}

	if len(dataset.InputColumns) == 0 {
		return nil, errMissingDatasetColumns
	}
	return dataset, nil
}

// EngineConfig returns the engine configuration for the dataset with
// default transformer parameters.
func (c *DatasetConfig) EngineConfig() *engine.Config {
	return &engine.Config{Dataset: c.parseDatasetConfig()}
}
