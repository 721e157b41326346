package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
)

// StakeRepository is the append-only stake ledger.
type StakeRepository struct {
	db *gorm.DB
}

func NewStakeRepository(database *gorm.DB) *StakeRepository {
	return &StakeRepository{db: database}
}

// NextIndex returns the per-owner index the next stake will take.
func (r *StakeRepository) NextIndex(ctx context.Context, ownerID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Stake{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return int(n), err
}

func (r *StakeRepository) Create(ctx context.Context, s *db.Stake) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ListByOwner returns the owner's stakes in creation order.
func (r *StakeRepository) ListByOwner(ctx context.Context, ownerID string) ([]db.Stake, error) {
	var stakes []db.Stake
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("idx ASC").Find(&stakes).Error
	return stakes, err
}

func (r *StakeRepository) GetByOwnerIndex(ctx context.Context, ownerID string, idx int) (db.Stake, error) {
	var s db.Stake
	err := r.db.WithContext(ctx).Where("owner_id = ? AND idx = ?", ownerID, idx).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Stake{}, domain.ErrNotFound
	}
	return s, err
}

func (r *StakeRepository) GetByID(ctx context.Context, id string) (db.Stake, error) {
	var s db.Stake
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Stake{}, domain.ErrNotFound
	}
	return s, err
}

// MarkClaimed flips claimed false→true. It reports false if the stake was
// already claimed, which makes a second unstake lose the race cleanly.
func (r *StakeRepository) MarkClaimed(ctx context.Context, id string, at int64, payout domain.Amount) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Stake{}).
		Where("id = ? AND claimed = ?", id, false).
		Updates(map[string]any{"claimed": true, "claimed_at": at, "payout": payout})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RevertClaim undoes MarkClaimed when the payout credit failed.
func (r *StakeRepository) RevertClaim(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&db.Stake{}).
		Where("id = ?", id).
		Updates(map[string]any{"claimed": false, "claimed_at": 0, "payout": domain.Amount{}}).Error
}
