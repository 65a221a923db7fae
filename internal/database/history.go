package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

const (
	DefaultStatsWindowDays = 30
	streakLookbackDays     = 30
)

// CreateReadingHistory appends a reading-history row. A zero Date is stamped
// with the current time.
func (db *DB) CreateReadingHistory(ctx context.Context, h *ReadingHistoryEntry) error {
	if h.UserID == "" || h.ArticleID <= 0 || h.ReadingTime < 0 {
		return ErrInvalidInput
	}
	if h.Date.IsZero() {
		h.Date = time.Now()
	}
	h.Date = h.Date.UTC()
	if _, err := db.GetArticle(ctx, h.ArticleID); err != nil {
		return err
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(h).Error
}

// GetUserReadingStats aggregates history over the trailing windowDays and
// computes the current day streak.
func (db *DB) GetUserReadingStats(ctx context.Context, userID string, windowDays int) (ReadingStats, error) {
	if windowDays <= 0 {
		windowDays = DefaultStatsWindowDays
	}
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -windowDays)

	var stats ReadingStats
	err := db.WithContext(ctx).Model(&ReadingHistoryEntry{}).
		Select("COUNT(id) AS articles_read, COALESCE(SUM(reading_time), 0) AS total_reading_time").
		Where("user_id = ? AND date >= ?", userID, since).
		Scan(&stats).Error
	if err != nil {
		return ReadingStats{}, err
	}

	var dates []time.Time
	err = db.WithContext(ctx).Model(&ReadingHistoryEntry{}).
		Where("user_id = ? AND date >= ?", userID, startOfDay(now).AddDate(0, 0, -(streakLookbackDays-1))).
		Pluck("date", &dates).Error
	if err != nil {
		return ReadingStats{}, err
	}
	stats.Streak = ComputeStreak(dates, now)
	return stats, nil
}

// ComputeStreak counts consecutive UTC calendar days with activity, starting
// at the day of now and walking backwards until the first day without any.
// Only the most recent streakLookbackDays days count.
func ComputeStreak(dates []time.Time, now time.Time) int {
	days := make(map[string]bool, len(dates))
	for _, d := range dates {
		days[d.UTC().Format(time.DateOnly)] = true
	}

	streak := 0
	day := startOfDay(now.UTC())
	for streak < streakLookbackDays && days[day.Format(time.DateOnly)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
