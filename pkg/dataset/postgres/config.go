// SPDX-License-Identifier: Apache-2.0

package postgres

type SourceConfig struct {
	URL   string
	Query string
}

type SinkConfig struct {
	URL        string
	TrainTable string
	TestTable  string
}
