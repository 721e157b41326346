package db

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	txAttempts = 4
	txBackoff  = 10 * time.Millisecond

	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// IsRetryable reports whether err aborted a transaction that can simply be
// run again: an InnoDB deadlock victim or a lock wait timeout.
func IsRetryable(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDeadlock || mysqlErr.Number == mysqlLockWaitTimeout
	}
	return false
}

// Transaction runs fn in a transaction, re-running it from scratch when the
// database aborts it with a retryable error. fn must not have side effects
// outside tx.
func Transaction(ctx context.Context, database *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = database.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryable(err) || attempt == txAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txBackoff):
		}
	}
	return err
}
