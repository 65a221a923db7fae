package database

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ArticleFilter selects a page of articles. Empty Category (or "all") and an
// empty SourceIDs set disable the respective filter.
type ArticleFilter struct {
	Limit     int
	Offset    int
	Category  string
	SourceIDs []int64
}

// ListArticles returns articles newest first with their Source embedded.
func (db *DB) ListArticles(ctx context.Context, f ArticleFilter) ([]Article, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := db.WithContext(ctx).Model(&Article{}).Preload("Source")
	if f.Category != "" && f.Category != "all" {
		q = q.Where("category = ?", f.Category)
	}
	if len(f.SourceIDs) > 0 {
		q = q.Where("source_id IN ?", f.SourceIDs)
	}

	articles := make([]Article, 0, f.Limit)
	err := q.Order("published_at DESC").Order("id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&articles).Error
	return articles, err
}

func (db *DB) GetArticle(ctx context.Context, id int64) (*Article, error) {
	var a Article
	if err := db.WithContext(ctx).Preload("Source").First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// InsertArticle stores a new article keyed by URL. It reports false without
// error when the URL is already present.
func (db *DB) InsertArticle(ctx context.Context, a *Article) (bool, error) {
	if a.URL == "" || a.Title == "" {
		return false, ErrInvalidInput
	}
	a.PublishedAt = a.PublishedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "url"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(a)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Enhancement is the AI-generated annotation stored on an article.
type Enhancement struct {
	Summary     string
	Enhancement string
	KeyPoints   []string
	Sentiment   string
}

// UpdateArticleEnhancement persists an enhancement and marks the article processed.
func (db *DB) UpdateArticleEnhancement(ctx context.Context, id int64, e Enhancement) (*Article, error) {
	res := db.WithContext(ctx).Model(&Article{}).Where("id = ?", id).Updates(map[string]interface{}{
		"ai_summary":     e.Summary,
		"ai_enhancement": e.Enhancement,
		"ai_key_points":  datatypes.JSONSlice[string](e.KeyPoints),
		"ai_sentiment":   e.Sentiment,
		"is_processed":   true,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("updating article %d: %w", id, res.Error)
	}
	// A missing id surfaces as ErrNotFound here. RowsAffected is not used
	// since an identical re-enhancement may report zero changed rows.
	return db.GetArticle(ctx, id)
}

// CountArticles returns the total number of stored articles.
func (db *DB) CountArticles(ctx context.Context) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&Article{}).Count(&n).Error
	return n, err
}
