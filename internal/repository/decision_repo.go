package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/utils/pagination"
)

// DecisionRepository provides data access methods for the Decision model.
// It encapsulates all queries related to likes/passes between users.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// WithTx returns a copy bound to an open transaction.
func (r *DecisionRepository) WithTx(tx *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: tx}
}

// Get returns the current decision of actor on recipient.
// found is false when the actor never swiped the recipient.
func (r *DecisionRepository) Get(
	ctx context.Context,
	actorID, recipientID string,
) (decision db.Decision, found bool, err error) {
	err = r.db.WithContext(ctx).
		Where("actor_id = ? AND recipient_id = ?", actorID, recipientID).
		Take(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Decision{}, false, nil
	}
	if err != nil {
		return db.Decision{}, false, err
	}
	return decision, true, nil
}

// CreateOrUpdateDecision inserts or updates a decision made by actor -> recipient.
//
// Behavior:
//   - If (actor_id, recipient_id) pair exists → liked and updated_at are overwritten.
//   - If it doesn’t exist → a new row is inserted with created_at = at.
//   - Composite PK ensures overwrite guarantee.
//
// Example:
//
//	repo.CreateOrUpdateDecision(ctx, "u1", "u2", true, now) // u1 liked u2
func (r *DecisionRepository) CreateOrUpdateDecision(
	ctx context.Context,
	actorID, recipientID string,
	liked bool,
	at int64,
) error {
	decision := db.Decision{
		ActorID:     actorID,
		RecipientID: recipientID,
		Liked:       liked,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).
		Create(&decision).Error
}

// GetLikers returns users who liked the given recipient.
//
// Behavior:
//   - Only decisions where recipient_id = X and liked = true are returned.
//   - Excludes users that the recipient explicitly passed (liked = false).
//   - newOnly additionally excludes mutual likes (recipient liked them back).
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, "u42", false, "", 20) // first 20 people who liked u42
func (r *DecisionRepository) GetLikers(
	ctx context.Context,
	recipientID string,
	newOnly bool,
	paginationToken string,
	limit int,
) ([]db.Decision, string, error) {
	var decisions []db.Decision

	// decode cursor if provided
	cursor, err := pagination.Decode(paginationToken)
	if err != nil {
		return nil, "", err
	}

	query := r.likersQuery(ctx, recipientID).
		Order("d.updated_at DESC, d.actor_id DESC").
		Limit(limit + 1)

	if newOnly {
		// subquery to exclude mutual likes
		mutual := r.db.
			Table("decisions").
			Select("1").
			Where("actor_id = d.recipient_id AND recipient_id = d.actor_id AND liked = ?", true)
		query = query.Where("NOT EXISTS (?)", mutual)
	}

	// apply cursor
	if !cursor.IsZero() {
		query = query.Where(
			"(d.updated_at < ? OR (d.updated_at = ? AND d.actor_id < ?))",
			cursor.UpdatedAt, cursor.UpdatedAt, cursor.ActorID,
		)
	}

	if err := query.Find(&decisions).Error; err != nil {
		return nil, "", err
	}

	// pagination: build next cursor if needed
	var nextToken string
	if len(decisions) > limit {
		last := decisions[limit-1]
		nextToken, err = pagination.Encode(pagination.Cursor{
			ActorID:   last.ActorID,
			UpdatedAt: last.UpdatedAt,
		})
		if err != nil {
			return nil, "", err
		}
		decisions = decisions[:limit]
	}

	return decisions, nextToken, nil
}

// CountLikers returns how many users liked the given recipient.
//
// Behavior:
//   - Counts only decisions where recipient_id = X and liked = true.
//   - Excludes users that recipient explicitly passed.
//   - Used in conjunction with Redis cache (DB is fallback).
func (r *DecisionRepository) CountLikers(
	ctx context.Context,
	recipientID string,
) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, recipientID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasLiked checks whether an actor has liked a recipient.
// Used for the reciprocal check during match formation.
func (r *DecisionRepository) HasLiked(
	ctx context.Context,
	actorID, recipientID string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.actor_id = ? AND d.recipient_id = ? AND d.liked = ?", actorID, recipientID, true).
		Count(&count).Error
	return count > 0, err
}

// HasLikedForUpdate is HasLiked as a locking read, for use inside the
// match-forming transaction. On MySQL it waits for an uncommitted write of
// the same row, so two crossing likes either see each other or one of them
// is chosen as deadlock victim and retried. sqlite drops the clause.
func (r *DecisionRepository) HasLikedForUpdate(
	ctx context.Context,
	actorID, recipientID string,
) (bool, error) {
	var d db.Decision
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("actor_id = ? AND recipient_id = ?", actorID, recipientID).
		Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.Liked, nil
}

// SwipedRecipients returns every user the actor has liked or passed.
func (r *DecisionRepository) SwipedRecipients(ctx context.Context, actorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Where("actor_id = ?", actorID).
		Pluck("recipient_id", &ids).Error
	return ids, err
}

// LikedBy returns the subset of actorIDs that currently like recipientID.
func (r *DecisionRepository) LikedBy(
	ctx context.Context,
	recipientID string,
	actorIDs []string,
) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(actorIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Where("recipient_id = ? AND liked = ? AND actor_id IN ?", recipientID, true, actorIDs).
		Pluck("actor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *DecisionRepository) likersQuery(ctx context.Context, recipientID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.recipient_id = ? AND d.liked = ?", recipientID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM decisions d2
				WHERE d2.actor_id = ?
				  AND d2.recipient_id = d.actor_id
				  AND d2.liked = ?
			)`, recipientID, false)
}
