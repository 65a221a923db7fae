package database

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/clause"
)

// ListNotes returns the user's notes, optionally for one article, newest first.
func (db *DB) ListNotes(ctx context.Context, userID string, articleID *int64) ([]UserNote, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if articleID != nil {
		q = q.Where("article_id = ?", *articleID)
	}
	notes := []UserNote{}
	err := q.Order("created_at DESC").Order("id DESC").Find(&notes).Error
	return notes, err
}

func (db *DB) CreateNote(ctx context.Context, n *UserNote) error {
	if n.UserID == "" || n.ArticleID <= 0 || strings.TrimSpace(n.Content) == "" {
		return ErrInvalidInput
	}
	if _, err := db.GetArticle(ctx, n.ArticleID); err != nil {
		return err
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(n).Error
}

// UpdateNote replaces the content of a note owned by userID. Notes owned by
// anyone else are reported as ErrNotFound.
func (db *DB) UpdateNote(ctx context.Context, userID string, id int64, content string) (*UserNote, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}
	var n UserNote
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, notFound(err)
	}
	n.Content = content
	n.UpdatedAt = time.Now().UTC()
	err := db.WithContext(ctx).Model(&UserNote{}).Where("id = ?", n.ID).Updates(map[string]interface{}{
		"content":    n.Content,
		"updated_at": n.UpdatedAt,
	}).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNote removes a note owned by userID.
func (db *DB) DeleteNote(ctx context.Context, userID string, id int64) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&UserNote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
