package database

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"
)

// ListActiveSources returns active sources ordered by display name.
func (db *DB) ListActiveSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_name").
		Find(&sources).Error
	return sources, err
}

func (db *DB) ListAllSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	err := db.WithContext(ctx).Order("display_name").Find(&sources).Error
	return sources, err
}

func (db *DB) GetSource(ctx context.Context, id int64) (*Source, error) {
	var s Source
	if err := db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// CreateSource inserts a source. A taken name yields ErrDuplicate.
func (db *DB) CreateSource(ctx context.Context, s *Source) error {
	if s.Name == "" || s.RSSURL == "" || s.Category == "" {
		return ErrInvalidInput
	}
	if s.DisplayName == "" {
		s.DisplayName = s.Name
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("source %q: %w", s.Name, ErrDuplicate)
		}
		return err
	}
	return nil
}

// SeedSources fills an empty source table and returns how many rows were
// added. Once any source exists, nothing is inserted, so sources an admin
// removed are not brought back on restart.
func (db *DB) SeedSources(ctx context.Context, sources []Source) (int, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&Source{}).Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("counting sources: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	added := 0
	for i := range sources {
		s := sources[i]
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&s)
		if res.Error != nil && !IsUniqueViolation(res.Error) {
			return added, fmt.Errorf("seeding source %q: %w", s.Name, res.Error)
		}
		if res.Error == nil && res.RowsAffected > 0 {
			added++
		}
	}
	return added, nil
}

// SetSourceActive toggles whether a source takes part in ingestion.
func (db *DB) SetSourceActive(ctx context.Context, id int64, active bool) (*Source, error) {
	res := db.WithContext(ctx).Model(&Source{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	s, err := db.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}
