package repositories

import (
	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

// AutoMigrate creates or updates every relational table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.SavedPost{},
		&models.Notification{},
		&models.Activity{},
	)
}
