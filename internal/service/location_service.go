package service

import (
	"context"
	"time"

	"medimate-go/internal/location"
	"medimate-go/internal/repository"
)

// LocationService 驱动用户位置上下文的状态流转。坐标由客户端提供。
type LocationService interface {
	Get(ctx context.Context, userID uint) (location.Context, error)
	Request(ctx context.Context, userID uint) (location.Context, error)
	Resolve(ctx context.Context, userID uint, lat, lng float64, address string) (location.Context, error)
	Fail(ctx context.Context, userID uint, reason string) (location.Context, error)
}

type locationService struct {
	repo repository.LocationRepository
	now  func() time.Time
}

func NewLocationService(repo repository.LocationRepository) LocationService {
	return &locationService{repo: repo, now: time.Now}
}

func (s *locationService) Get(ctx context.Context, userID uint) (location.Context, error) {
	return s.repo.Get(ctx, userID)
}

func (s *locationService) Request(ctx context.Context, userID uint) (location.Context, error) {
	return s.update(ctx, userID, func(c location.Context) (location.Context, error) {
		return c.Request(s.now()), nil
	})
}

func (s *locationService) Resolve(ctx context.Context, userID uint, lat, lng float64, address string) (location.Context, error) {
	return s.update(ctx, userID, func(c location.Context) (location.Context, error) {
		return c.Resolve(lat, lng, address, s.now())
	})
}

func (s *locationService) Fail(ctx context.Context, userID uint, reason string) (location.Context, error) {
	return s.update(ctx, userID, func(c location.Context) (location.Context, error) {
		return c.Fail(reason, s.now())
	})
}

func (s *locationService) update(ctx context.Context, userID uint, next func(location.Context) (location.Context, error)) (location.Context, error) {
	cur, err := s.repo.Get(ctx, userID)
	if err != nil {
		return location.Context{}, err
	}
	updated, err := next(cur)
	if err != nil {
		return cur, err
	}
	if err := s.repo.Save(ctx, userID, updated); err != nil {
		return location.Context{}, err
	}
	return updated, nil
}
