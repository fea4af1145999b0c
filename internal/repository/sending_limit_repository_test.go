package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped pgx unique violation", fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pq unique violation", &pq.Error{Code: "23505"}, true},
		{"pgx other code", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateKeyError(tt.err))
		})
	}
}

func TestEnsureForUser_ReturnsExistingRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSendingLimitRepository(gdb)

	mock.ExpectQuery(`SELECT (.+) FROM "email_sending_limits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "tier_name", "daily_limit", "hourly_limit"}).
			AddRow("eslim_abc", "user-1", "pro", 500, 100))

	row, err := repo.EnsureForUser(context.Background(), "user-1", models.SendingTier{Name: "free", DailyLimit: 50, HourlyLimit: 10})
	require.NoError(t, err)

	assert.Equal(t, "pro", row.TierName)
	assert.Equal(t, 500, row.DailyLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureForUser_LostInsertRaceFallsBackToRead(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSendingLimitRepository(gdb)

	// first read misses, the insert loses the race on the user_id unique
	// index, and the winner's row is read back
	mock.ExpectQuery(`SELECT (.+) FROM "email_sending_limits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "email_sending_limits"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(`SELECT (.+) FROM "email_sending_limits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "tier_name", "daily_limit", "hourly_limit"}).
			AddRow("eslim_winner", "user-1", "free", 50, 10))

	row, err := repo.EnsureForUser(context.Background(), "user-1", models.SendingTier{Name: "free", DailyLimit: 50, HourlyLimit: 10})
	require.NoError(t, err)

	assert.Equal(t, "eslim_winner", row.ID)
	assert.Equal(t, "user-1", row.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureForUser_NonDuplicateInsertErrorSurfaces(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSendingLimitRepository(gdb)

	mock.ExpectQuery(`SELECT (.+) FROM "email_sending_limits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "email_sending_limits"`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.EnsureForUser(context.Background(), "user-1", models.SendingTier{Name: "free", DailyLimit: 50, HourlyLimit: 10})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
