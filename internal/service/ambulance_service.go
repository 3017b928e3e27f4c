package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/pkg/geo"
	"medimate-go/pkg/log"
	"medimate-go/pkg/tasks"
)

// DispatchQueue 接收待调度的救护车请求，Kafka 生产者实现了该接口。
type DispatchQueue interface {
	PublishDispatch(ctx context.Context, task tasks.DispatchTask) error
}

// AmbulanceInput 是呼叫救护车的请求。Lat/Lng 可选。
type AmbulanceInput struct {
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	AdditionalInfo string   `json:"additionalInfo"`
}

// AmbulanceService 管理救护车请求。
type AmbulanceService interface {
	Request(ctx context.Context, userID uint, in AmbulanceInput) (*model.AmbulanceRequest, error)
	Get(userID uint, id string) (*model.AmbulanceRequest, error)
	List(userID uint) ([]model.AmbulanceRequest, error)
	Cancel(userID uint, id string) (*model.AmbulanceRequest, error)
}

type ambulanceService struct {
	repo  repository.AmbulanceRepository
	queue DispatchQueue
	newID func() string
}

func NewAmbulanceService(repo repository.AmbulanceRepository, queue DispatchQueue) AmbulanceService {
	return &ambulanceService{repo: repo, queue: queue, newID: newRequestID}
}

// maxIDAttempts 是请求编号冲突时的最大生成次数。
const maxIDAttempts = 5

// newRequestID 生成 AMB- 加六位数字的请求编号。
func newRequestID() string {
	return fmt.Sprintf("AMB-%d", 100000+rand.IntN(900000))
}

// Request 记录请求并投递调度任务。投递失败时请求保持 pending 并返回错误。
func (s *ambulanceService) Request(ctx context.Context, userID uint, in AmbulanceInput) (*model.AmbulanceRequest, error) {
	address := strings.TrimSpace(in.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if (in.Lat == nil) != (in.Lng == nil) || (in.Lat != nil && !geo.Valid(*in.Lat, *in.Lng)) {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrInvalidInput)
	}

	req := &model.AmbulanceRequest{
		UserID:         userID,
		Address:        address,
		Lat:            in.Lat,
		Lng:            in.Lng,
		AdditionalInfo: strings.TrimSpace(in.AdditionalInfo),
		Status:         model.AmbulanceStatusPending,
	}
	if err := s.create(req); err != nil {
		return nil, err
	}
	log.Infow("ambulance requested", "request_id", req.ID, "user_id", userID)

	task := tasks.DispatchTask{RequestID: req.ID, UserID: userID, Address: address, Lat: in.Lat, Lng: in.Lng}
	if err := s.queue.PublishDispatch(ctx, task); err != nil {
		log.Errorw("failed to enqueue ambulance dispatch", "request_id", req.ID, "error", err)
		return req, fmt.Errorf("enqueue dispatch: %w", err)
	}
	return req, nil
}

// create 只有六位随机数，编号冲突时换一个重试。
func (s *ambulanceService) create(req *model.AmbulanceRequest) error {
	var err error
	for i := 0; i < maxIDAttempts; i++ {
		req.ID = s.newID()
		err = s.repo.Create(req)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return err
		}
		log.Warnw("ambulance request id collision", "request_id", req.ID)
	}
	return fmt.Errorf("allocate request id: %w", err)
}

func (s *ambulanceService) Get(userID uint, id string) (*model.AmbulanceRequest, error) {
	req, err := s.repo.FindForUser(id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

func (s *ambulanceService) List(userID uint) ([]model.AmbulanceRequest, error) {
	return s.repo.ListByUser(userID)
}

// Cancel 只允许取消 pending 或 dispatched 的请求。
func (s *ambulanceService) Cancel(userID uint, id string) (*model.AmbulanceRequest, error) {
	ok, err := s.repo.Cancel(id, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.Get(userID, id); err != nil {
			return nil, err
		}
		return nil, ErrNotCancellable
	}
	log.Infow("ambulance request cancelled", "request_id", id, "user_id", userID)
	return s.Get(userID, id)
}
