package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/repolake/internal/types"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func sampleTable() types.Table {
	return types.Table{
		Name: "base_languages",
		Columns: []types.Column{
			{Name: "id", Type: types.TypeText},
			{Name: "repository_id", Type: types.TypeText},
			{Name: "name", Type: types.TypeText},
			{Name: "size_bytes", Type: types.TypeInteger},
		},
		Rows: [][]any{
			{"r1/Go", "r1", "Go", int64(1024)},
			{"r1/SQL", "r1", "SQL", int64(256)},
		},
	}
}

func TestTableExists(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?")).
		WithArgs("base_repositories").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := store.TableExists(context.Background(), "base_repositories")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableExists_Missing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?")).
		WithArgs("base_missing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := store.TableExists(context.Background(), "base_missing")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnExists(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM information_schema.columns WHERE table_name = ? AND column_name = ?")).
		WithArgs("base_workflows", "raw_text").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := store.ColumnExists(context.Background(), "base_workflows", "raw_text")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "base_topics"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := store.RowCount(context.Background(), "base_topics")
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowCount_InvalidIdentifier(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.RowCount(context.Background(), "bad;table")
	require.Error(t, err)
}

func TestListTables(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"table_name"}).
		AddRow("base_languages").
		AddRow("base_repositories")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT table_name FROM information_schema.tables WHERE table_name LIKE ? ESCAPE '\' ORDER BY table_name`)).
		WithArgs(`base\_%`).
		WillReturnRows(rows)

	names, err := store.ListTables(context.Background(), "base_")
	require.NoError(t, err)
	assert.Equal(t, []string{"base_languages", "base_repositories"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `base\_`, escapeLikePattern("base_"))
	assert.Equal(t, `100\%\\\_`, escapeLikePattern(`100%\_`))
	assert.Equal(t, "plain", escapeLikePattern("plain"))
}

func TestReplaceTable(t *testing.T) {
	store, mock := newMockStore(t)
	table := sampleTable()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "base_languages"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "base_languages" ("id" VARCHAR, "repository_id" VARCHAR, "name" VARCHAR, "size_bytes" BIGINT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "base_languages" ("id", "repository_id", "name", "size_bytes") VALUES (?, ?, ?, ?)`))
	prep.ExpectExec().WithArgs("r1/Go", "r1", "Go", int64(1024)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("r1/SQL", "r1", "SQL", int64(256)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.ReplaceTable(context.Background(), table)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTable_EmptyRows(t *testing.T) {
	store, mock := newMockStore(t)
	table := sampleTable()
	table.Rows = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "base_languages"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "base_languages"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.ReplaceTable(context.Background(), table)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTable_CreateFails(t *testing.T) {
	store, mock := newMockStore(t)
	table := sampleTable()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "base_languages"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "base_languages"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.ReplaceTable(context.Background(), table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create table base_languages")
}

func TestAppendRows(t *testing.T) {
	store, mock := newMockStore(t)
	table := types.Table{
		Name: "raw_responses",
		Columns: []types.Column{
			{Name: "id", Type: types.TypeText},
			{Name: "query_type", Type: types.TypeText},
			{Name: "payload", Type: types.TypeText},
		},
		Rows: [][]any{
			{"run-1/0", "repository", `{"data":{}}`},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "raw_responses" ("id" VARCHAR, "query_type" VARCHAR, "payload" VARCHAR)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "raw_responses" ("id", "query_type", "payload") VALUES (?, ?, ?)`))
	prep.ExpectExec().WithArgs("run-1/0", "repository", `{"data":{}}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.AppendRows(context.Background(), table)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSearchIndex(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("PRAGMA create_fts_index('base_repositories', 'id', 'description', overwrite = 1)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.CreateSearchIndex(context.Background(), "base_repositories", "description")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSearchIndex_InvalidIdentifiers(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.CreateSearchIndex(context.Background(), "bad table", "description")
	require.Error(t, err)

	err = store.CreateSearchIndex(context.Background(), "base_repositories", "bad;column")
	require.Error(t, err)
}

func TestExportParquet(t *testing.T) {
	store, mock := newMockStore(t)

	metadata := map[string]string{
		"query_type":   "repository",
		"row_count":    "42",
		"column:topic": "Applied topic name",
	}
	expected := `COPY (SELECT * FROM "base_topics") TO '/tmp/exports/base_topics.parquet' ` +
		`(FORMAT PARQUET, COMPRESSION zstd, KV_METADATA {'column:topic': 'Applied topic name', 'query_type': 'repository', 'row_count': '42'})`
	mock.ExpectExec(regexp.QuoteMeta(expected)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.ExportParquet(context.Background(), "base_topics", "/tmp/exports/base_topics.parquet", "zstd", metadata)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportParquet_Uncompressed(t *testing.T) {
	store, mock := newMockStore(t)

	expected := `COPY (SELECT * FROM "base_topics") TO '/tmp/base_topics.parquet' (FORMAT PARQUET)`
	mock.ExpectExec(regexp.QuoteMeta(expected)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.ExportParquet(context.Background(), "base_topics", "/tmp/base_topics.parquet", "uncompressed", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecScript(t *testing.T) {
	store, mock := newMockStore(t)

	script := `CREATE OR REPLACE TABLE agg_language_share AS SELECT name FROM base_languages`
	mock.ExpectExec(regexp.QuoteMeta(script)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.ExecScript(context.Background(), script)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildKVMetadata_StableOrder(t *testing.T) {
	metadata := map[string]string{
		"source":       "repolake",
		"query_type":   "repository",
		"note":         "it's escaped",
		"column:topic": "Applied topic name",
	}

	rendered := buildKVMetadata(metadata)
	assert.Equal(t, "{'column:topic': 'Applied topic name', 'note': 'it''s escaped', 'query_type': 'repository', 'source': 'repolake'}", rendered)
}

func TestBuildCreateTable_NoColumns(t *testing.T) {
	_, err := buildCreateTable(types.Table{Name: "empty"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no columns")
}
