package database

import (
	"context"

	"gorm.io/gorm/clause"
)

// UpsertUser inserts the user or refreshes its profile fields.
func (db *DB) UpsertUser(ctx context.Context, u *User) (*User, error) {
	if u.ID == "" {
		return nil, ErrInvalidInput
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return db.GetUser(ctx, u.ID)
}

// EnsureUser creates a bare user row if none exists for id.
func (db *DB) EnsureUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		return ErrInvalidInput
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(u).Error
}

func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserPreferences returns ErrNotFound until preferences are first saved.
func (db *DB) GetUserPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	var p UserPreferences
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpsertUserPreferences replaces the user's preferences in place.
func (db *DB) UpsertUserPreferences(ctx context.Context, p *UserPreferences) (*UserPreferences, error) {
	if p.UserID == "" {
		return nil, ErrInvalidInput
	}
	if p.DailyReadingGoal <= 0 {
		p.DailyReadingGoal = DefaultDailyReadingGoal
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Sources == nil {
		p.Sources = []string{}
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"categories", "sources", "daily_reading_goal", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return nil, err
	}
	return db.GetUserPreferences(ctx, p.UserID)
}
