// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xataio/tabprep/internal/testcontainers"
	"github.com/xataio/tabprep/pkg/dataset"
)

var pgurl string

func TestMain(m *testing.M) {
	if os.Getenv("TABPREP_INTEGRATION_TESTS") != "" {
		ctx := context.Background()
		pgcleanup, err := testcontainers.SetupPostgresContainer(ctx, &pgurl, testcontainers.Postgres17)
		if err != nil {
			log.Fatal(err)
		}
		code := m.Run()
		if err := pgcleanup(); err != nil {
			log.Printf("cleaning up postgres container: %v", err)
		}
		os.Exit(code)
	}
	os.Exit(m.Run())
}

func Test_SinkSourceRoundTrip(t *testing.T) {
	if os.Getenv("TABPREP_INTEGRATION_TESTS") == "" {
		t.Skip("skipping integration test...")
	}

	ctx := context.Background()

	table, err := dataset.New(
		dataset.Column{Name: "age", Values: []any{-1.5, nil, 0.25}},
		dataset.Column{Name: "city", Values: []any{0, 1, 2}},
		dataset.Column{Name: "review", Values: []any{"good", "bad", nil}},
	)
	require.NoError(t, err)

	sink, err := NewSink(ctx, pgurl)
	require.NoError(t, err)
	defer sink.Close(ctx)

	require.NoError(t, sink.Write(ctx, "public.train", table))
	// writing twice recreates the table
	require.NoError(t, sink.Write(ctx, "public.train", table))

	source, err := NewSource(ctx, &SourceConfig{
		URL:   pgurl,
		Query: "SELECT age, city, review FROM public.train ORDER BY city",
	})
	require.NoError(t, err)
	defer source.Close(ctx)

	got, err := source.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"age", "city", "review"}, got.ColumnNames())
	require.Equal(t, []any{-1.5, int64(0), "good"}, got.Row(0))
	require.Equal(t, []any{nil, int64(1), "bad"}, got.Row(1))
	require.Equal(t, []any{0.25, int64(2), nil}, got.Row(2))
}
