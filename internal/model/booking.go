package model

import "time"

// Booking 对应 bookings 表，代表一次预约的体检或就诊。
type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Date      time.Time `gorm:"index;not null" json:"-"`
	Time      string    `gorm:"type:varchar(20);not null" json:"time"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	Doctor    string    `gorm:"type:varchar(100)" json:"doctor"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BookingView 是返回给前端的预约结构，日期按 YYYY-MM-DD 输出。
type BookingView struct {
	Booking
	Date Date `json:"date"`
}

// NewBookingView 把 Booking 转为对外结构。
func NewBookingView(b Booking) BookingView {
	return BookingView{Booking: b, Date: Date(b.Date)}
}
