package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/db"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(database *gorm.DB) *RewardRepository {
	return &RewardRepository{db: database}
}

func (r *RewardRepository) Get(ctx context.Context, userID string) (state db.RewardState, found bool, err error) {
	err = r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.RewardState{}, false, nil
	}
	if err != nil {
		return db.RewardState{}, false, err
	}
	return state, true, nil
}

func (r *RewardRepository) Save(ctx context.Context, state *db.RewardState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_reward_time", "day", "daily_rewards", "total_rewards"}),
		}).
		Create(state).Error
}
