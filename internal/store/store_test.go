package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSQLite(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawl.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, q := range stmts {
		_, err := db.Exec(q)
		require.NoError(t, err, q)
	}
	return path
}

func TestSQLite_ReadTableOrderAndLimit(t *testing.T) {
	path := seedSQLite(t,
		`CREATE TABLE posts (id TEXT, title TEXT, liked_count INTEGER, create_time INTEGER)`,
		`INSERT INTO posts VALUES ('a', 'old', 1, 100), ('b', 'new', 2, 300), ('c', 'mid', 3, 200)`,
	)
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.ReadTable(context.Background(), "posts", "create_time", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["id"])
	assert.Equal(t, "c", rows[1]["id"])
	assert.EqualValues(t, 3, rows[1]["liked_count"])
	assert.Equal(t, "sqlite", s.Driver())
}

func TestSQLite_MissingTableIsError(t *testing.T) {
	path := seedSQLite(t, `CREATE TABLE notes (id TEXT)`)
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadTable(context.Background(), "videos", "create_time", 10)
	assert.Error(t, err)
}

func TestSQLite_ReadOnly(t *testing.T) {
	path := seedSQLite(t, `CREATE TABLE posts (id TEXT)`)
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`INSERT INTO posts VALUES ('x')`)
	assert.Error(t, err)
}

func TestReadTable_RejectsOddIdentifiers(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, "postgres")

	_, err = s.ReadTable(context.Background(), `posts"; DROP TABLE x; --`, "", 10)
	assert.Error(t, err)
	_, err = s.ReadTable(context.Background(), "posts", "create_time desc", 10)
	assert.Error(t, err)
}

func TestPostgres_ReadTableScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, "postgres")

	rows := sqlmock.NewRows([]string{"aweme_id", "desc", "digg_count"}).
		AddRow([]byte("7301"), "抖音视频", int64(42)).
		AddRow([]byte("7302"), nil, int64(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "dy" ORDER BY "create_time" DESC LIMIT 100`)).
		WillReturnRows(rows)

	got, err := s.ReadTable(context.Background(), "dy", "create_time", 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "7301", got[0]["aweme_id"])
	assert.Equal(t, "抖音视频", got[0]["desc"])
	assert.EqualValues(t, 42, got[0]["digg_count"])
	assert.Nil(t, got[1]["desc"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, "postgres")

	boom := errors.New("relation \"ks\" does not exist")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ks"`)).WillReturnError(boom)

	_, err = s.ReadTable(context.Background(), "ks", "", 0)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
