package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retitle mirrors the locked PUT flow: lock the owner's row, then write it.
func retitle(id, ownerID uuid.UUID, title string) TxFn {
	return func(ctx context.Context, tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, ownerID,
		).Scan(&status)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET title = $1 WHERE id = $2 AND user_id = $3`,
			title, id, ownerID,
		)
		return err
	}
}

func TestSQLTransactor_LockedTaskUpdate(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	errBegin := errors.New("too many connections")
	errWrite := errors.New("deadlock detected")
	errCommit := errors.New("could not serialize access")
	errRollback := errors.New("connection closed")

	lockRow := func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(`SELECT status FROM tasks WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
			WithArgs(id.String(), owner.String()).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Pending"))
	}

	tests := []struct {
		name      string
		expect    func(mock sqlmock.Sqlmock)
		wantErr   error
		wantInMsg string
	}{
		{
			name: "commits after locking and writing",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				lockRow(mock)
				mock.ExpectExec(`UPDATE tasks SET title`).
					WithArgs("Quarterly report", id.String(), owner.String()).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "missing task rolls back and keeps the error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WithArgs(id.String(), owner.String()).WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: sql.ErrNoRows,
		},
		{
			name: "write failure rolls back",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				lockRow(mock)
				mock.ExpectExec(`UPDATE tasks SET title`).WillReturnError(errWrite)
				mock.ExpectRollback()
			},
			wantErr: errWrite,
		},
		{
			name: "begin failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errBegin)
			},
			wantErr:   errBegin,
			wantInMsg: "failed to begin transaction",
		},
		{
			name: "commit failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				lockRow(mock)
				mock.ExpectExec(`UPDATE tasks SET title`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit().WillReturnError(errCommit)
			},
			wantErr:   errCommit,
			wantInMsg: "failed to commit transaction",
		},
		{
			name: "rollback failure reports both errors",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				lockRow(mock)
				mock.ExpectExec(`UPDATE tasks SET title`).WillReturnError(errWrite)
				mock.ExpectRollback().WillReturnError(errRollback)
			},
			wantErr:   errWrite,
			wantInMsg: errRollback.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.expect(mock)

			err = NewSQLTransactor(db).WithinTransaction(context.Background(), retitle(id, owner, "Quarterly report"))

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantInMsg != "" {
				assert.ErrorContains(t, err, tt.wantInMsg)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	for _, rollbackErr := range []error{nil, errors.New("connection closed")} {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(rollbackErr)

		assert.PanicsWithValue(t, "nil task", func() {
			_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
				panic("nil task")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	}
}
