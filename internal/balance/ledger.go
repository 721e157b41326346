// Package balance is the token-balance capability the engines call for
// escrow and payouts. Bookkeeping itself belongs to the token service; Store
// is a minimal adapter for local and single-node deployments.
package balance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/utils/keylock"
)

// Ledger debits and credits token balances. Each call is atomic on its own;
// callers compose them with compensation, never with a shared transaction.
type Ledger interface {
	// Debit fails with domain.ErrInsufficientBalance and changes nothing
	// when the balance is below amount.
	Debit(ctx context.Context, user domain.UserID, amount domain.Amount) error
	Credit(ctx context.Context, user domain.UserID, amount domain.Amount) error
	Balance(ctx context.Context, user domain.UserID) (domain.Amount, error)
}

// Store keeps balances in the balances table.
type Store struct {
	db     *gorm.DB
	clock  domain.Clock
	locks  *keylock.Locker
	logger *slog.Logger
}

var _ Ledger = (*Store)(nil)

func NewStore(database *gorm.DB, clock domain.Clock, logger *slog.Logger) *Store {
	return &Store{db: database, clock: clock, locks: keylock.New(), logger: logger}
}

func (s *Store) Balance(ctx context.Context, user domain.UserID) (domain.Amount, error) {
	row, err := s.get(ctx, user)
	if err != nil {
		return domain.Amount{}, err
	}
	return row.Amount, nil
}

func (s *Store) Debit(ctx context.Context, user domain.UserID, amount domain.Amount) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative debit", domain.ErrInvalidAmount)
	}
	unlock := s.locks.Lock(string(user))
	defer unlock()

	row, err := s.get(ctx, user)
	if err != nil {
		return err
	}
	if row.Amount.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", domain.ErrInsufficientBalance, row.Amount, amount)
	}
	if err := s.put(ctx, user, row.Amount.Sub(amount)); err != nil {
		return err
	}
	s.logger.Debug("balance debited", "user", user, "amount", amount.String())
	return nil
}

func (s *Store) Credit(ctx context.Context, user domain.UserID, amount domain.Amount) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative credit", domain.ErrInvalidAmount)
	}
	unlock := s.locks.Lock(string(user))
	defer unlock()

	row, err := s.get(ctx, user)
	if err != nil {
		return err
	}
	if err := s.put(ctx, user, row.Amount.Add(amount)); err != nil {
		return err
	}
	s.logger.Debug("balance credited", "user", user, "amount", amount.String())
	return nil
}

func (s *Store) get(ctx context.Context, user domain.UserID) (db.Balance, error) {
	var row db.Balance
	err := s.db.WithContext(ctx).Where("user_id = ?", string(user)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Balance{UserID: string(user)}, nil
	}
	return row, err
}

func (s *Store) put(ctx context.Context, user domain.UserID, amount domain.Amount) error {
	row := db.Balance{UserID: string(user), Amount: amount, UpdatedAt: domain.Nanos(s.clock.Now())}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&row).Error
}
