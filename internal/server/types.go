// internal/server/types.go
package server

import "time"

type preferencesRequest struct {
	Categories       []string `json:"categories"`
	Sources          []string `json:"sources"`
	DailyReadingGoal *int     `json:"dailyReadingGoal" binding:"omitempty,min=1,max=500"`
}

type userArticleRequest struct {
	ArticleID       int64      `json:"articleId" binding:"required,min=1"`
	IsRead          *bool      `json:"isRead"`
	IsBookmarked    *bool      `json:"isBookmarked"`
	ReadAt          *time.Time `json:"readAt"`
	ReadingProgress *float64   `json:"readingProgress" binding:"omitempty,min=0,max=100"`
}

type createNoteRequest struct {
	ArticleID int64  `json:"articleId" binding:"required,min=1"`
	Content   string `json:"content" binding:"required,max=10000"`
}

type updateNoteRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type readingHistoryRequest struct {
	ArticleID   int64      `json:"articleId" binding:"required,min=1"`
	ReadingTime int        `json:"readingTime" binding:"min=0,max=1440"`
	Date        *time.Time `json:"date"`
}

type createSourceRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	DisplayName string `json:"displayName" binding:"max=255"`
	URL         string `json:"url" binding:"omitempty,url,max=500"`
	RSSURL      string `json:"rssUrl" binding:"required,url,max=500"`
	Category    string `json:"category" binding:"max=100"`
}

type toggleSourceRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type enhanceResponse struct {
	Summary     string   `json:"summary"`
	Enhancement string   `json:"enhancement"`
	KeyPoints   []string `json:"keyPoints"`
	Sentiment   string   `json:"sentiment"`
}
