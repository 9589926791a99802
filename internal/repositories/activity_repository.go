package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

// ActivityRepository stores the timeline projection of interaction events.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	GetByTargetUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Activity, int64, error)
}

// PostgresActivityRepository keeps activities in the relational store.
type PostgresActivityRepository struct {
	db *gorm.DB
}

func NewPostgresActivityRepository(db *gorm.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *PostgresActivityRepository) GetByTargetUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Activity, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Activity{}).Where("target_user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []models.Activity
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&activities).Error
	return activities, total, err
}

var _ ActivityRepository = (*PostgresActivityRepository)(nil)
