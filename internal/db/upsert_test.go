package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "reference.crosswalk",
		Columns:      []string{"category", "raw_value", "canonical_value"},
		ConflictKeys: []string{"category", "raw_value"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "reference.crosswalk",
		ConflictKeys: []string{"raw_value"},
	}, [][]any{{"location", "nyc", "New York, NY"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "reference.crosswalk",
		Columns: []string{"category", "raw_value"},
	}, [][]any{{"location", "nyc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_reference_crosswalk"}, []string{"category", "raw_value", "canonical_value", "source"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "reference"."crosswalk"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "reference.crosswalk",
		Columns:      []string{"category", "raw_value", "canonical_value", "source"},
		ConflictKeys: []string{"category", "raw_value"},
	}, [][]any{
		{"location", "nyc", "New York, NY", "seed"},
		{"location", "sf", "San Francisco, CA", "seed"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"reference.crosswalk", `"reference"."crosswalk"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"category", "raw_value", "canonical_value"})
	assert.Equal(t, `"category", "raw_value", "canonical_value"`, result)
}
