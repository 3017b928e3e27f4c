package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medimate-go/internal/model"
)

// SettingsRepository 管理用户的通知偏好。
type SettingsRepository interface {
	// GetPreferences 返回用户的通知偏好，没有记录时写入并返回默认值。
	GetPreferences(userID uint) (*model.NotificationPreferences, error)
	SavePreferences(prefs *model.NotificationPreferences) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetPreferences(userID uint) (*model.NotificationPreferences, error) {
	prefs := model.DefaultNotificationPreferences(userID)
	// 布尔字段的 false 是合法值，不能用 FirstOrCreate 的零值条件
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&prefs).Error
	if err != nil {
		return nil, err
	}
	var stored model.NotificationPreferences
	if err := r.db.First(&stored, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

func (r *settingsRepository) SavePreferences(prefs *model.NotificationPreferences) error {
	return r.db.Save(prefs).Error
}
