// Package housekeeping enforces the article retention window.
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"newsflow/internal/database"
	"newsflow/internal/logger"
	"newsflow/internal/metrics"
)

const deleteChunkSize = 500

const unreferenced = "NOT EXISTS (SELECT 1 FROM user_articles ua WHERE ua.article_id = articles.id)"

// SweepReport describes one retention pass.
type SweepReport struct {
	Cutoff          time.Time `json:"cutoff"`
	Old             int64     `json:"old"`
	Protected       int64     `json:"protected"`
	DeletedArticles int64     `json:"deletedArticles"`
	DeletedNotes    int64     `json:"deletedNotes"`
	DeletedHistory  int64     `json:"deletedHistory"`
}

// RetentionStats is a read-only view of what a sweep would touch.
type RetentionStats struct {
	RetentionDays        int       `json:"retentionDays"`
	Cutoff               time.Time `json:"cutoff"`
	TotalArticles        int64     `json:"totalArticles"`
	OldArticles          int64     `json:"oldArticles"`
	ArticlesWithUserData int64     `json:"articlesWithUserData"`
	EligibleForDeletion  int64     `json:"eligibleForDeletion"`
}

type Sweeper struct {
	db            *database.DB
	retentionDays int
	log           *logger.Logger
	now           func() time.Time
}

func NewSweeper(db *database.DB, retentionDays int, log *logger.Logger) *Sweeper {
	if retentionDays < 1 {
		retentionDays = 1
	}
	return &Sweeper{
		db:            db,
		retentionDays: retentionDays,
		log:           log.With("component", "housekeeping"),
		now:           time.Now,
	}
}

func (s *Sweeper) cutoff() time.Time {
	return s.now().UTC().AddDate(0, 0, -s.retentionDays)
}

// Sweep deletes articles created before the retention cutoff that no user
// has interacted with, together with their notes and history rows. All
// deletes happen in one transaction.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{Cutoff: s.cutoff()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.Article{}).
			Where("created_at < ?", report.Cutoff).
			Count(&report.Old).Error; err != nil {
			return fmt.Errorf("counting old articles: %w", err)
		}

		var ids []int64
		if err := tx.Model(&database.Article{}).
			Where("created_at < ?", report.Cutoff).
			Where(unreferenced).
			Order("id").
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("selecting retention candidates: %w", err)
		}
		report.Protected = report.Old - int64(len(ids))
		if len(ids) == 0 {
			return nil
		}

		for start := 0; start < len(ids); start += deleteChunkSize {
			chunk := ids[start:min(start+deleteChunkSize, len(ids))]

			res := tx.Where("article_id IN ?", chunk).Delete(&database.UserNote{})
			if res.Error != nil {
				return fmt.Errorf("deleting notes: %w", res.Error)
			}
			report.DeletedNotes += res.RowsAffected

			res = tx.Where("article_id IN ?", chunk).Delete(&database.ReadingHistoryEntry{})
			if res.Error != nil {
				return fmt.Errorf("deleting reading history: %w", res.Error)
			}
			report.DeletedHistory += res.RowsAffected

			res = tx.Where("id IN ?", chunk).Where(unreferenced).Delete(&database.Article{})
			if res.Error != nil {
				return fmt.Errorf("deleting articles: %w", res.Error)
			}
			report.DeletedArticles += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		s.log.Error("retention sweep failed", "error", err)
		return SweepReport{Cutoff: report.Cutoff}, err
	}

	metrics.RetentionDeleted.WithLabelValues("articles").Add(float64(report.DeletedArticles))
	metrics.RetentionDeleted.WithLabelValues("notes").Add(float64(report.DeletedNotes))
	metrics.RetentionDeleted.WithLabelValues("history").Add(float64(report.DeletedHistory))

	s.log.Info("retention sweep completed",
		"cutoff", report.Cutoff,
		"old", report.Old,
		"protected", report.Protected,
		"deleted_articles", report.DeletedArticles,
		"deleted_notes", report.DeletedNotes,
		"deleted_history", report.DeletedHistory,
	)
	return report, nil
}

// Stats reports article counts relative to the current cutoff.
func (s *Sweeper) Stats(ctx context.Context) (RetentionStats, error) {
	stats := RetentionStats{RetentionDays: s.retentionDays, Cutoff: s.cutoff()}
	db := s.db.WithContext(ctx)

	if err := db.Model(&database.Article{}).Count(&stats.TotalArticles).Error; err != nil {
		return stats, fmt.Errorf("counting articles: %w", err)
	}
	if err := db.Model(&database.Article{}).
		Where("created_at < ?", stats.Cutoff).
		Count(&stats.OldArticles).Error; err != nil {
		return stats, fmt.Errorf("counting old articles: %w", err)
	}
	if err := db.Model(&database.UserArticle{}).
		Distinct("article_id").
		Count(&stats.ArticlesWithUserData).Error; err != nil {
		return stats, fmt.Errorf("counting referenced articles: %w", err)
	}
	if err := db.Model(&database.Article{}).
		Where("created_at < ?", stats.Cutoff).
		Where(unreferenced).
		Count(&stats.EligibleForDeletion).Error; err != nil {
		return stats, fmt.Errorf("counting eligible articles: %w", err)
	}
	return stats, nil
}
