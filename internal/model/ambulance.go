package model

import "time"

// 救护车请求状态
const (
	AmbulanceStatusPending    = "pending"
	AmbulanceStatusDispatched = "dispatched"
	AmbulanceStatusCancelled  = "cancelled"
)

// AmbulanceRequest 对应 ambulance_requests 表，ID 形如 AMB-123456。
type AmbulanceRequest struct {
	ID             string     `gorm:"type:varchar(16);primaryKey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"-"`
	Address        string     `gorm:"type:varchar(255);not null" json:"address"`
	Lat            *float64   `json:"lat,omitempty"`
	Lng            *float64   `json:"lng,omitempty"`
	AdditionalInfo string     `gorm:"type:text" json:"additionalInfo"`
	Status         string     `gorm:"type:varchar(16);not null" json:"status"`
	ETA            string     `gorm:"type:varchar(32)" json:"eta"`
	Destination    string     `gorm:"type:varchar(255)" json:"destination"`
	DispatchedAt   *time.Time `json:"dispatchedAt,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (AmbulanceRequest) TableName() string {
	return "ambulance_requests"
}
