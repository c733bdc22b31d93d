// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"

	pgdataset "github.com/xataio/tabprep/pkg/dataset/postgres"
	"github.com/xataio/tabprep/pkg/engine"
)

type Config struct {
	Engine    engine.Config
	Source    SourceConfig
	Split     SplitConfig
	OutputDir string
	Sink      SinkConfig
}

// SourceConfig holds exactly one configured source.
type SourceConfig struct {
	CSV      *CSVSourceConfig
	Postgres *pgdataset.SourceConfig
}

type CSVSourceConfig struct {
	Path string
	// NAValues overrides the default missing value markers when not empty.
	NAValues []string
}

type SplitConfig struct {
	TestSize float64
	Seed     uint64
	FitOn    FitOn
}

type SinkConfig struct {
	Postgres *pgdataset.SinkConfig
}

// FitOn selects the rows the engine is fitted on.
type FitOn string

const (
	// FitOnAll fits on the full dataset before splitting.
	FitOnAll FitOn = "all"
	// FitOnTrain splits first and fits on the train rows only.
	FitOnTrain FitOn = "train"
)

const (
	TrainFileName = "train.csv"
	TestFileName  = "test.csv"
)

var (
	ErrInvalidConfig = errors.New("invalid pipeline configuration")

	errNoSource        = errors.New("need a csv or postgres source configured")
	errMultipleSources = errors.New("only one source can be configured")
	errNoOutputDir     = errors.New("output directory is required")
	errSinkTables      = errors.New("postgres sink requires train and test table names")
)

func (c *Config) IsValid() error {
	switch {
	case c.Source.CSV == nil && c.Source.Postgres == nil:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errNoSource)
	case c.Source.CSV != nil && c.Source.Postgres != nil:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errMultipleSources)
	case c.OutputDir == "":
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errNoOutputDir)
	}

	switch c.fitOn() {
	case FitOnAll, FitOnTrain:
	default:
		return fmt.Errorf("%w: unsupported fit_on %q", ErrInvalidConfig, c.Split.FitOn)
	}

	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return fmt.Errorf("%w: test size %v must be in the open interval (0, 1)", ErrInvalidConfig, c.Split.TestSize)
	}

	if pg := c.Sink.Postgres; pg != nil && (pg.TrainTable == "" || pg.TestTable == "") {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errSinkTables)
	}

	return c.Engine.Dataset.Validate()
}

func (c *Config) fitOn() FitOn {
	if c.Split.FitOn == "" {
		return FitOnAll
	}
	return c.Split.FitOn
}
