package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/db/dbtest"
	"github.com/oggyb/engagement-engine/internal/domain"
)

func TestIsRetryable(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	assert.True(t, db.IsRetryable(deadlock))
	assert.True(t, db.IsRetryable(fmt.Errorf("create match: %w", deadlock)))
	assert.True(t, db.IsRetryable(&mysql.MySQLError{Number: 1205}))
	assert.False(t, db.IsRetryable(&mysql.MySQLError{Number: 1062}))
	assert.False(t, db.IsRetryable(errors.New("boom")))
}

func TestTransactionRetriesDeadlockVictim(t *testing.T) {
	database := dbtest.New(t)

	attempts := 0
	err := db.Transaction(context.Background(), database, func(tx *gorm.DB) error {
		attempts++
		if err := tx.Create(&db.Balance{UserID: "u1", Amount: domain.NewAmount(1)}).Error; err != nil {
			return err
		}
		if attempts == 1 {
			return &mysql.MySQLError{Number: 1213}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	// the aborted attempt rolled back, only the retry's row remains
	var n int64
	require.NoError(t, database.Model(&db.Balance{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestTransactionDoesNotRetryOtherErrors(t *testing.T) {
	database := dbtest.New(t)
	boom := errors.New("boom")

	attempts := 0
	err := db.Transaction(context.Background(), database, func(tx *gorm.DB) error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}
