package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
)

// ProfileRepository is the read-mostly profile directory.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Upsert supersedes the stored profile with p.
func (r *ProfileRepository) Upsert(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// Get returns the profile or domain.ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Profile{}, domain.ErrNotFound
	}
	return p, err
}

func (r *ProfileRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}

// TouchLastActive bumps last_active, never moving it backwards.
func (r *ProfileRepository) TouchLastActive(ctx context.Context, userID string, at int64) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ? AND last_active < ?", userID, at).
		Update("last_active", at).Error
}

// CandidateFilter narrows the SQL prefetch of the discovery pool. The final
// mutual-compatibility check happens in the matching engine.
type CandidateFilter struct {
	ExcludeUserID string
	MinAge        int
	MaxAge        int
	// Gender restricts candidates to one gender; empty means any.
	Gender string
	// AcceptsAge/AcceptsGender restrict to candidates whose own preferences
	// admit the requester.
	AcceptsAge    int
	AcceptsGender string
}

// ListCandidates returns profiles matching f, most recently active first.
func (r *ProfileRepository) ListCandidates(ctx context.Context, f CandidateFilter) ([]db.Profile, error) {
	q := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id <> ?", f.ExcludeUserID)

	if f.MinAge > 0 {
		q = q.Where("age >= ?", f.MinAge)
	}
	if f.MaxAge > 0 {
		q = q.Where("age <= ?", f.MaxAge)
	}
	if f.Gender != "" {
		q = q.Where("gender = ?", f.Gender)
	}
	if f.AcceptsAge > 0 {
		q = q.Where("(pref_min_age = 0 OR pref_min_age <= ?) AND (pref_max_age = 0 OR pref_max_age >= ?)",
			f.AcceptsAge, f.AcceptsAge)
	}
	if f.AcceptsGender != "" {
		q = q.Where("(pref_gender = '' OR pref_gender = 'any' OR pref_gender = ?)", f.AcceptsGender)
	}

	var profiles []db.Profile
	err := q.Order("last_active DESC, user_id ASC").Find(&profiles).Error
	return profiles, err
}
