// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	pgdataset "github.com/xataio/tabprep/pkg/dataset/postgres"
	"github.com/xataio/tabprep/pkg/engine"
	"github.com/xataio/tabprep/pkg/otel"
	"github.com/xataio/tabprep/pkg/pipeline"
	"github.com/xataio/tabprep/pkg/transformers"
)

var errMissingDatasetFile = errors.New("TABPREP_DATASET_FILE must point to a dataset yaml file when no yaml config is provided")

func envConfigToPipelineConfig() (*pipeline.Config, error) {
	datasetFile := viper.GetString("TABPREP_DATASET_FILE")
	if datasetFile == "" {
		return nil, errMissingDatasetFile
	}
	dataset, err := ParseDatasetFile(datasetFile)
	if err != nil {
		return nil, err
	}

	if testSize := viper.GetFloat64("TABPREP_TEST_SIZE"); testSize != 0 {
		dataset.TestSize = testSize
	}
	if viper.IsSet("TABPREP_RANDOM_STATE") {
		dataset.RandomState = viper.GetUint64("TABPREP_RANDOM_STATE")
	}
	if fitOn := viper.GetString("TABPREP_FIT_ON"); fitOn != "" {
		dataset.FitOn = fitOn
	}

	source, err := parseEnvSourceConfig(dataset)
	if err != nil {
		return nil, err
	}

	outputDir := viper.GetString("TABPREP_OUTPUT_DIR")
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	return &pipeline.Config{
		Engine: engine.Config{
			Dataset:     dataset.parseDatasetConfig(),
			Text:        parseEnvParameters("TABPREP_TEXT_", "lowercase", "remove_punctuation", "remove_stopwords", "stemming"),
			Numeric:     parseEnvParameters("TABPREP_NUMERIC_", "handle_missing", "scaling"),
			Categorical: parseEnvParameters("TABPREP_CATEGORICAL_", "handle_missing", "encoding", "sentinel"),
			Concurrent:  viper.GetBool("TABPREP_CONCURRENT"),
		},
		Source:    source,
		Split:     dataset.parseSplitConfig(),
		OutputDir: outputDir,
		Sink:      parseEnvSinkConfig(),
	}, nil
}

func parseEnvSourceConfig(dataset *DatasetConfig) (pipeline.SourceConfig, error) {
	if url := viper.GetString("TABPREP_POSTGRES_SOURCE_URL"); url != "" {
		query := viper.GetString("TABPREP_POSTGRES_SOURCE_QUERY")
		if query == "" {
			return pipeline.SourceConfig{}, errInvalidPostgresSource
		}
		return pipeline.SourceConfig{
			Postgres: &pgdataset.SourceConfig{URL: url, Query: query},
		}, nil
	}

	dataPath := viper.GetString("TABPREP_DATA_PATH")
	if dataPath == "" {
		return pipeline.SourceConfig{}, errMissingDataSource
	}
	return pipeline.SourceConfig{
		CSV: &pipeline.CSVSourceConfig{Path: dataPath, NAValues: dataset.NAValues},
	}, nil
}

func parseEnvSinkConfig() pipeline.SinkConfig {
	url := viper.GetString("TABPREP_POSTGRES_SINK_URL")
	if url == "" {
		return pipeline.SinkConfig{}
	}
	return pipeline.SinkConfig{
		Postgres: &pgdataset.SinkConfig{
			URL:        url,
			TrainTable: viper.GetString("TABPREP_POSTGRES_SINK_TRAIN_TABLE"),
			TestTable:  viper.GetString("TABPREP_POSTGRES_SINK_TEST_TABLE"),
		},
	}
}

// parseEnvParameters collects the transformer parameters set through
// environment variables with the given prefix. true and false are parsed
// as booleans.
func parseEnvParameters(prefix string, names ...string) transformers.Parameters {
	var params transformers.Parameters
	for _, name := range names {
		key := prefix + strings.ToUpper(name)
		if !viper.IsSet(key) {
			continue
		}
		if params == nil {
			params = transformers.Parameters{}
		}
		switch value := viper.GetString(key); value {
		case "true", "false":
			params[name] = cast.ToBool(value)
		default:
			params[name] = value
		}
	}
	return params
}

func envToOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}
	if endpoint := viper.GetString("TABPREP_METRICS_ENDPOINT"); endpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           endpoint,
			CollectionInterval: viper.GetDuration("TABPREP_METRICS_COLLECTION_INTERVAL"),
		}
	}
	if endpoint := viper.GetString("TABPREP_TRACES_ENDPOINT"); endpoint != "" {
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    endpoint,
			SampleRatio: viper.GetFloat64("TABPREP_TRACES_SAMPLE_RATIO"),
		}
	}
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	return cfg, nil
}
