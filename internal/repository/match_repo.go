package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
)

// MatchRepository persists materialized matches.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// CreateIfAbsent inserts m unless a row with the same id already exists.
// created reports whether this call wrote the row. Because the id is a pure
// function of the pair, retries and races can never produce a second row.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, m *db.Match) (created bool, err error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Get returns the match by id, or domain.ErrNotFound.
func (r *MatchRepository) Get(ctx context.Context, id string) (db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Match{}, domain.ErrNotFound
	}
	return m, err
}

// ListMatched returns every live match the user takes part in, newest first.
func (r *MatchRepository) ListMatched(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("status = ? AND (user1_id = ? OR user2_id = ?)", db.MatchStatusMatched, userID, userID).
		Order("created_at DESC, id").
		Find(&matches).Error
	return matches, err
}

// Unmatch moves a matched row to unmatched. It reports false when the row
// was not in the matched state (already unmatched).
func (r *MatchRepository) Unmatch(ctx context.Context, id, by string, at int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND status = ?", id, db.MatchStatusMatched).
		Updates(map[string]any{
			"status":       db.MatchStatusUnmatched,
			"unmatched_at": at,
			"unmatched_by": by,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountForPair is used by tests and diagnostics to assert uniqueness.
func (r *MatchRepository) CountForPair(ctx context.Context, a, b domain.UserID) (int64, error) {
	lo, hi := domain.SortPair(a, b)
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user1_id = ? AND user2_id = ?", string(lo), string(hi)).
		Count(&n).Error
	return n, err
}
