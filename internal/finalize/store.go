package finalize

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inacomp/contest-live-service/internal/models"
)

// GormStore is the production Store over the platform's relational schema.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByTeamAndID(ctx context.Context, teamID, contestID string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).
		Preload("SubmissionProblems").
		Preload("Batch.Problems").
		Where("id = ? AND team_id = ?", contestID, teamID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) FindUnfinishedByBatch(ctx context.Context, batchID string) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Preload("SubmissionProblems").
		Preload("Batch.Problems").
		Where("batch_id = ? AND is_finish = ?", batchID, false).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ApplyResult seals the row with one conditional UPDATE. The is_finish guard
// in the WHERE clause is what prevents a TOCTOU double-finalization: the
// loser of a race matches zero rows and applied comes back false.
func (s *GormStore) ApplyResult(ctx context.Context, submissionID string, res Result) (bool, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND is_finish = ?", submissionID, false).
		Updates(map[string]interface{}{
			"is_finish":             true,
			"total_problems_solved": res.TotalProblemsSolved,
			"completion_time":       res.CompletionTime,
			"submitted_at":          res.SubmittedAt,
			"score":                 res.Score,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
