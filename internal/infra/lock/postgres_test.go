package lock

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tryLockQuery = regexp.QuoteMeta(`SELECT pg_try_advisory_lock($1)`)
	unlockQuery  = regexp.QuoteMeta(`SELECT pg_advisory_unlock($1)`)
)

func TestPostgresLocker_AcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPostgresLocker(db, "vaccine_slot_notifier.cycle")

	mock.ExpectQuery(tryLockQuery).WithArgs(l.key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(unlockQuery).WithArgs(l.key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	unlock, acquired, err := l.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, unlock(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocker_HeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPostgresLocker(db, "vaccine_slot_notifier.cycle")
	mock.ExpectQuery(tryLockQuery).WithArgs(l.key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	unlock, acquired, err := l.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Nil(t, unlock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocker_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPostgresLocker(db, "vaccine_slot_notifier.cycle")
	mock.ExpectQuery(tryLockQuery).WithArgs(l.key).WillReturnError(errors.New("connection reset"))

	_, acquired, err := l.TryLock(context.Background())
	require.Error(t, err)
	assert.False(t, acquired)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresLocker_StableKey(t *testing.T) {
	a := NewPostgresLocker(nil, "vaccine_slot_notifier.cycle")
	b := NewPostgresLocker(nil, "vaccine_slot_notifier.cycle")
	c := NewPostgresLocker(nil, "other")
	assert.Equal(t, a.key, b.key)
	assert.NotEqual(t, a.key, c.key)
}
