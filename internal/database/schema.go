// internal/database/schema.go
// Persistent models for the newsflow store
package database

import (
	"time"

	"gorm.io/datatypes"
)

// Source is a configured RSS/Atom feed origin.
type Source struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	DisplayName string    `gorm:"size:255;not null" json:"displayName"`
	URL         string    `gorm:"size:500" json:"url"`
	RSSURL      string    `gorm:"column:rss_url;size:500;not null" json:"rssUrl"`
	Category    string    `gorm:"size:100;not null" json:"category"`
	IsActive    bool      `gorm:"not null;index" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Source) TableName() string { return "news_sources" }

// Article is a single ingested feed item.
type Article struct {
	ID            int64                       `gorm:"primaryKey" json:"id"`
	Title         string                      `gorm:"type:text;not null" json:"title"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	Summary       string                      `gorm:"type:text" json:"summary"`
	AISummary     *string                     `gorm:"column:ai_summary;type:text" json:"aiSummary"`
	AIEnhancement *string                     `gorm:"column:ai_enhancement;type:text" json:"aiEnhancement"`
	AIKeyPoints   datatypes.JSONSlice[string] `gorm:"column:ai_key_points" json:"aiKeyPoints"`
	AISentiment   *string                     `gorm:"column:ai_sentiment;size:50" json:"aiSentiment"`
	URL           string                      `gorm:"size:500;uniqueIndex;not null" json:"url"`
	ImageURL      *string                     `gorm:"column:image_url;size:500" json:"imageUrl"`
	SourceID      int64                       `gorm:"index;not null" json:"sourceId"`
	Source        *Source                     `gorm:"foreignKey:SourceID" json:"source,omitempty"`
	Category      string                      `gorm:"size:100;index;not null" json:"category"`
	PublishedAt   time.Time                   `gorm:"index;not null" json:"publishedAt"`
	ReadingTime   int                         `gorm:"not null" json:"readingTime"`
	IsProcessed   bool                        `gorm:"not null" json:"isProcessed"`
	CreatedAt     time.Time                   `gorm:"index" json:"createdAt"`
}

func (Article) TableName() string { return "articles" }

// User mirrors an account held by the external identity provider.
type User struct {
	ID              string    `gorm:"primaryKey;size:191" json:"id"`
	Email           *string   `gorm:"size:255" json:"email"`
	FirstName       *string   `gorm:"size:255" json:"firstName"`
	LastName        *string   `gorm:"size:255" json:"lastName"`
	ProfileImageURL *string   `gorm:"column:profile_image_url;size:500" json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

const DefaultDailyReadingGoal = 15

type UserPreferences struct {
	ID               int64                       `gorm:"primaryKey" json:"id"`
	UserID           string                      `gorm:"size:191;uniqueIndex;not null" json:"userId"`
	Categories       datatypes.JSONSlice[string] `json:"categories"`
	Sources          datatypes.JSONSlice[string] `json:"sources"`
	DailyReadingGoal int                         `gorm:"not null" json:"dailyReadingGoal"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

func (UserPreferences) TableName() string { return "user_preferences" }

// UserArticle holds per-user state for an article. One row per pair.
type UserArticle struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	UserID          string     `gorm:"size:191;not null;uniqueIndex:idx_user_article" json:"userId"`
	ArticleID       int64      `gorm:"not null;uniqueIndex:idx_user_article;index" json:"articleId"`
	Article         *Article   `gorm:"foreignKey:ArticleID" json:"-"`
	IsRead          bool       `gorm:"not null" json:"isRead"`
	IsBookmarked    bool       `gorm:"not null" json:"isBookmarked"`
	ReadAt          *time.Time `json:"readAt"`
	ReadingProgress float64    `gorm:"not null" json:"readingProgress"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (UserArticle) TableName() string { return "user_articles" }

type UserNote struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:191;not null;index" json:"userId"`
	ArticleID int64     `gorm:"not null;index" json:"articleId"`
	Article   *Article  `gorm:"foreignKey:ArticleID" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserNote) TableName() string { return "user_notes" }

// ReadingHistoryEntry is an append-only record of time spent on an article.
type ReadingHistoryEntry struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:191;not null;index:idx_history_user_date" json:"userId"`
	ArticleID   int64     `gorm:"not null;index" json:"articleId"`
	Article     *Article  `gorm:"foreignKey:ArticleID" json:"-"`
	ReadingTime int       `gorm:"not null" json:"readingTime"`
	Date        time.Time `gorm:"not null;index:idx_history_user_date" json:"date"`
}

func (ReadingHistoryEntry) TableName() string { return "reading_history" }

// ArticleWithState is an article joined with the caller's interaction row.
type ArticleWithState struct {
	Article
	UserArticle UserArticle `json:"userArticle"`
}

// ReadingStats aggregates a user's reading history over a trailing window.
type ReadingStats struct {
	ArticlesRead     int64 `json:"articlesRead"`
	TotalReadingTime int64 `json:"totalReadingTime"`
	Streak           int   `json:"streak"`
}

func allModels() []interface{} {
	return []interface{}{
		&Source{},
		&Article{},
		&User{},
		&UserPreferences{},
		&UserArticle{},
		&UserNote{},
		&ReadingHistoryEntry{},
	}
}
