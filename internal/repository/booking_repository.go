package repository

import (
	"time"

	"gorm.io/gorm"

	"medimate-go/internal/model"
)

// BookingRepository 定义了预约记录的持久化操作，所有查询都限定在所属用户内。
type BookingRepository interface {
	Create(booking *model.Booking) error
	FindByID(id, userID uint) (*model.Booking, error)
	// ListUpcoming 返回 from 当天及之后的预约，按日期、时间升序。
	ListUpcoming(userID uint, from time.Time) ([]model.Booking, error)
	Update(booking *model.Booking) error
	Delete(id, userID uint) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(booking *model.Booking) error {
	return r.db.Create(booking).Error
}

func (r *bookingRepository) FindByID(id, userID uint) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) ListUpcoming(userID uint, from time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.Where("user_id = ? AND date >= ?", userID, from).
		Order("date ASC").Order("time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) Update(booking *model.Booking) error {
	return r.db.Save(booking).Error
}

// Delete 删除预约，不存在或不属于该用户时返回 ErrNotFound。
func (r *bookingRepository) Delete(id, userID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Booking{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
