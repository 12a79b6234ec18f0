package crosswalk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-warehouse/internal/model"
)

func expectCrosswalkUpsert(mock pgxmock.PgxPoolIface, n int64) {
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_reference_crosswalk"},
		[]string{"category", "raw_value", "canonical_value", "source"}).WillReturnResult(n)
	mock.ExpectExec(`INSERT INTO "reference"."crosswalk"`).WillReturnResult(pgxmock.NewResult("INSERT", n))
	mock.ExpectCommit()
}

func TestLoadEntries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectCrosswalkUpsert(mock, 2)

	n, err := LoadEntries(context.Background(), mock, []model.CrosswalkEntry{
		{Category: "location", RawValue: "nyc", CanonicalValue: "New York, NY", Source: "seed"},
		{Category: "location", RawValue: "sf", CanonicalValue: "San Francisco, CA", Source: "seed"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadEntries_IncompleteEntryRejected(t *testing.T) {
	_, err := LoadEntries(context.Background(), nil, []model.CrosswalkEntry{
		{Category: "location", RawValue: "", CanonicalValue: "x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete entry")
}

func TestLoadSeedFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	seed := `
location:
  - raw: "nyc"
    canonical: "New York, NY"
industry:
  - raw: "fintech"
    canonical: "Financial Services"
    source: "curated"
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	expectCrosswalkUpsert(mock, 2)

	n, err := LoadSeedFile(context.Background(), mock, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLoadSeedFile_MissingFile(t *testing.T) {
	_, err := LoadSeedFile(context.Background(), nil, "/nope/seed.yaml")
	require.Error(t, err)
}
