package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
)

// BookingInput 是创建预约的请求。Doctor 与 Location 可选。
type BookingInput struct {
	Name     string     `json:"name"`
	Date     model.Date `json:"date"`
	Time     string     `json:"time"`
	Reason   string     `json:"reason"`
	Doctor   string     `json:"doctor"`
	Location string     `json:"location"`
}

// RescheduleInput 修改预约的日期与时间。
type RescheduleInput struct {
	Date model.Date `json:"date"`
	Time string     `json:"time"`
}

// BookingService 管理体检与就诊预约。
type BookingService interface {
	Create(userID uint, in BookingInput) (*model.Booking, error)
	ListUpcoming(userID uint) ([]model.Booking, error)
	Reschedule(userID, bookingID uint, in RescheduleInput) (*model.Booking, error)
	Cancel(userID, bookingID uint) error
}

type bookingService struct {
	repo repository.BookingRepository
	now  func() time.Time
}

func NewBookingService(repo repository.BookingRepository) BookingService {
	return &bookingService{repo: repo, now: time.Now}
}

// 接受 24 小时制或带 AM/PM 的时间，统一存储为 HH:MM 以便排序。
var timeLayouts = []string{"15:04", "3:04 PM", "3:04PM", "03:04 PM"}

func normalizeTime(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: time must look like 14:30 or 2:30 PM", ErrInvalidInput)
}

func (s *bookingService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func (s *bookingService) validateSlot(date model.Date, tm string) (time.Time, string, error) {
	if date.IsZero() {
		return time.Time{}, "", fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	normalized, err := normalizeTime(tm)
	if err != nil {
		return time.Time{}, "", err
	}
	y, m, d := date.Time().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	if day.Before(s.today()) {
		return time.Time{}, "", ErrDateInPast
	}
	return day, normalized, nil
}

func (s *bookingService) Create(userID uint, in BookingInput) (*model.Booking, error) {
	name := strings.TrimSpace(in.Name)
	reason := strings.TrimSpace(in.Reason)
	if name == "" || reason == "" {
		return nil, fmt.Errorf("%w: name and reason are required", ErrInvalidInput)
	}
	day, tm, err := s.validateSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		UserID:   userID,
		Name:     name,
		Date:     day,
		Time:     tm,
		Reason:   reason,
		Doctor:   strings.TrimSpace(in.Doctor),
		Location: strings.TrimSpace(in.Location),
	}
	if err := s.repo.Create(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) ListUpcoming(userID uint) ([]model.Booking, error) {
	return s.repo.ListUpcoming(userID, s.today())
}

func (s *bookingService) Reschedule(userID, bookingID uint, in RescheduleInput) (*model.Booking, error) {
	b, err := s.repo.FindByID(bookingID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	day, tm, err := s.validateSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	b.Date = day
	b.Time = tm
	if err := s.repo.Update(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) Cancel(userID, bookingID uint) error {
	err := s.repo.Delete(bookingID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookingNotFound
	}
	return err
}
