package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// UserArticleFields carries the interaction fields to write. Nil fields keep
// their stored value.
type UserArticleFields struct {
	IsRead          *bool
	IsBookmarked    *bool
	ReadAt          *time.Time
	ReadingProgress *float64
}

// UpsertUserArticle merges the provided fields into the (user, article) row
// with a single conflict-aware insert.
func (db *DB) UpsertUserArticle(ctx context.Context, userID string, articleID int64, f UserArticleFields) (*UserArticle, error) {
	if userID == "" || articleID <= 0 {
		return nil, ErrInvalidInput
	}
	if f.ReadingProgress != nil && (*f.ReadingProgress < 0 || *f.ReadingProgress > 100) {
		return nil, ErrInvalidInput
	}
	if f.IsRead != nil && *f.IsRead && f.ReadAt == nil {
		now := time.Now().UTC()
		f.ReadAt = &now
	}

	row := UserArticle{UserID: userID, ArticleID: articleID}
	update := []string{"updated_at"}
	if f.IsRead != nil {
		row.IsRead = *f.IsRead
		update = append(update, "is_read")
	}
	if f.IsBookmarked != nil {
		row.IsBookmarked = *f.IsBookmarked
		update = append(update, "is_bookmarked")
	}
	if f.ReadAt != nil {
		t := f.ReadAt.UTC()
		row.ReadAt = &t
		update = append(update, "read_at")
	}
	if f.ReadingProgress != nil {
		row.ReadingProgress = *f.ReadingProgress
		update = append(update, "reading_progress")
	}

	err := db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "article_id"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return db.GetUserArticle(ctx, userID, articleID)
}

func (db *DB) GetUserArticle(ctx context.Context, userID string, articleID int64) (*UserArticle, error) {
	var ua UserArticle
	err := db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		First(&ua).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ua, nil
}

// ListBookmarked returns bookmarked articles, most recently touched first.
func (db *DB) ListBookmarked(ctx context.Context, userID string) ([]ArticleWithState, error) {
	var rows []UserArticle
	err := db.WithContext(ctx).
		Preload("Article.Source").
		Where("user_id = ? AND is_bookmarked = ?", userID, true).
		Order("updated_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return withState(rows), nil
}

// ListRead returns read articles, most recently read first.
func (db *DB) ListRead(ctx context.Context, userID string, limit int) ([]ArticleWithState, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	var rows []UserArticle
	err := db.WithContext(ctx).
		Preload("Article.Source").
		Where("user_id = ? AND is_read = ?", userID, true).
		Order("read_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return withState(rows), nil
}

func withState(rows []UserArticle) []ArticleWithState {
	out := make([]ArticleWithState, 0, len(rows))
	for _, ua := range rows {
		if ua.Article == nil {
			continue
		}
		a := *ua.Article
		ua.Article = nil
		out = append(out, ArticleWithState{Article: a, UserArticle: ua})
	}
	return out
}
