package model

import "time"

// User 对应 users 表，同时承载个人资料与紧急联系人。
type User struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	Username                 string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password                 string    `gorm:"type:varchar(255);not null" json:"-"`
	Role                     string    `gorm:"type:varchar(16);not null;default:USER" json:"role"`
	FullName                 string    `gorm:"type:varchar(100)" json:"fullName"`
	Email                    string    `gorm:"type:varchar(255)" json:"email"`
	Phone                    string    `gorm:"type:varchar(32)" json:"phone"`
	EmergencyContactName     string    `gorm:"type:varchar(100)" json:"emergencyContactName"`
	EmergencyContactPhone    string    `gorm:"type:varchar(32)" json:"emergencyContactPhone"`
	EmergencyContactRelation string    `gorm:"type:varchar(50)" json:"emergencyContactRelation"`
	CreatedAt                time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// NotificationPreferences 对应 notification_preferences 表，每个用户一行。
type NotificationPreferences struct {
	UserID       uint      `gorm:"primaryKey" json:"-"`
	Email        bool      `json:"email"`
	Push         bool      `json:"push"`
	SMS          bool      `json:"sms"`
	Appointments bool      `json:"appointments"`
	Reminders    bool      `json:"reminders"`
	Marketing    bool      `json:"marketing"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

// DefaultNotificationPreferences 返回新用户的默认通知设置。
func DefaultNotificationPreferences(userID uint) NotificationPreferences {
	return NotificationPreferences{
		UserID:       userID,
		Email:        true,
		Push:         true,
		SMS:          false,
		Appointments: true,
		Reminders:    true,
		Marketing:    false,
	}
}
