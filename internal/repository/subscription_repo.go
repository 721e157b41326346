package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/db"
)

// SubscriptionRepository stores one subscription row per user.
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(database *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: database}
}

// Get returns the stored subscription; found is false for users who never
// subscribed.
func (r *SubscriptionRepository) Get(ctx context.Context, userID string) (sub db.Subscription, found bool, err error) {
	err = r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Subscription{}, false, nil
	}
	if err != nil {
		return db.Subscription{}, false, err
	}
	return sub, true, nil
}

// Save writes the full row, replacing any previous subscription.
func (r *SubscriptionRepository) Save(ctx context.Context, sub *db.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier", "start_time", "end_time", "auto_renew", "updated_at"}),
		}).
		Create(sub).Error
}

func (r *SubscriptionRepository) SetAutoRenew(ctx context.Context, userID string, on bool, at int64) error {
	return r.db.WithContext(ctx).
		Model(&db.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"auto_renew": on, "updated_at": at}).Error
}

// ListRenewable returns auto-renewing subscriptions whose end lies in (from, to].
func (r *SubscriptionRepository) ListRenewable(ctx context.Context, from, to int64) ([]db.Subscription, error) {
	var subs []db.Subscription
	err := r.db.WithContext(ctx).
		Where("auto_renew = ? AND end_time > ? AND end_time <= ?", true, from, to).
		Order("end_time ASC").
		Find(&subs).Error
	return subs, err
}
