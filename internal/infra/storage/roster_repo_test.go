package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRosterRepo(t *testing.T) (*RosterRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRosterRepo(db), mock
}

func TestRosterRepoList(t *testing.T) {
	repo, mock := setupRosterRepo(t)
	mock.ExpectQuery(`SELECT member_id\s+FROM roster_sets`).
		WithArgs(ListLFT).
		WillReturnRows(sqlmock.NewRows([]string{"member_id"}).AddRow("m1").AddRow("m2"))

	got, err := repo.List(context.Background(), ListLFT)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"m1": {}, "m2": {}}, got)
}

func TestRosterRepoAddMany(t *testing.T) {
	t.Run("unión con ON CONFLICT", func(t *testing.T) {
		repo, mock := setupRosterRepo(t)
		ids := []string{"m1", "m2"}
		mock.ExpectExec(`INSERT INTO roster_sets .+ON CONFLICT \(list_name, member_id\) DO NOTHING`).
			WithArgs(ListClan, pq.Array(ids)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.AddMany(context.Background(), ListClan, ids))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("slice vacío no toca la base", func(t *testing.T) {
		repo, mock := setupRosterRepo(t)
		require.NoError(t, repo.AddMany(context.Background(), ListClan, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRosterRepoRemoveMany(t *testing.T) {
	repo, mock := setupRosterRepo(t)
	ids := []string{"m1"}
	mock.ExpectExec(`DELETE FROM roster_sets`).
		WithArgs(ListLFT, pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RemoveMany(context.Background(), ListLFT, ids))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepoReplaceAll(t *testing.T) {
	t.Run("pisa el set en una transacción", func(t *testing.T) {
		repo, mock := setupRosterRepo(t)
		ids := []string{"m1", "m2"}

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM roster_sets`).
			WithArgs(ListLFT).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`INSERT INTO roster_sets`).
			WithArgs(ListLFT, pq.Array(ids)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		require.NoError(t, repo.ReplaceAll(context.Background(), ListLFT, ids))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set vacío: sólo delete", func(t *testing.T) {
		repo, mock := setupRosterRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM roster_sets`).
			WithArgs(ListClan).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.ReplaceAll(context.Background(), ListClan, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
