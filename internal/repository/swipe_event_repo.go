package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/db"
)

// SwipeEventRepository appends to and reads the swipe audit log.
// There is deliberately no update or delete method.
type SwipeEventRepository struct {
	db *gorm.DB
}

func NewSwipeEventRepository(database *gorm.DB) *SwipeEventRepository {
	return &SwipeEventRepository{db: database}
}

func (r *SwipeEventRepository) WithTx(tx *gorm.DB) *SwipeEventRepository {
	return &SwipeEventRepository{db: tx}
}

func (r *SwipeEventRepository) Append(ctx context.Context, ev *db.SwipeEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

// ListByActor returns the actor's swipes, newest first.
func (r *SwipeEventRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]db.SwipeEvent, error) {
	var events []db.SwipeEvent
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
