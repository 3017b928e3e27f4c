package repository

import (
	"time"

	"gorm.io/gorm"

	"medimate-go/internal/model"
)

// AmbulanceRepository 定义了救护车请求的持久化操作。
type AmbulanceRepository interface {
	Create(req *model.AmbulanceRequest) error
	FindByID(id string) (*model.AmbulanceRequest, error)
	FindForUser(id string, userID uint) (*model.AmbulanceRequest, error)
	ListByUser(userID uint) ([]model.AmbulanceRequest, error)
	// MarkDispatched 仅把 pending 状态的请求置为 dispatched，返回是否更新。
	MarkDispatched(id, eta, destination string, at time.Time) (bool, error)
	// Cancel 仅取消 pending 或 dispatched 状态的请求，返回是否更新。
	Cancel(id string, userID uint) (bool, error)
}

type ambulanceRepository struct {
	db *gorm.DB
}

func NewAmbulanceRepository(db *gorm.DB) AmbulanceRepository {
	return &ambulanceRepository{db: db}
}

// Create 编号冲突时返回 ErrDuplicateKey。
func (r *ambulanceRepository) Create(req *model.AmbulanceRequest) error {
	return translate(r.db.Create(req).Error)
}

func (r *ambulanceRepository) FindByID(id string) (*model.AmbulanceRequest, error) {
	var req model.AmbulanceRequest
	if err := r.db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *ambulanceRepository) FindForUser(id string, userID uint) (*model.AmbulanceRequest, error) {
	var req model.AmbulanceRequest
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *ambulanceRepository) ListByUser(userID uint) ([]model.AmbulanceRequest, error) {
	var reqs []model.AmbulanceRequest
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *ambulanceRepository) MarkDispatched(id, eta, destination string, at time.Time) (bool, error) {
	res := r.db.Model(&model.AmbulanceRequest{}).
		Where("id = ? AND status = ?", id, model.AmbulanceStatusPending).
		Updates(map[string]interface{}{
			"status":        model.AmbulanceStatusDispatched,
			"eta":           eta,
			"destination":   destination,
			"dispatched_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ambulanceRepository) Cancel(id string, userID uint) (bool, error) {
	res := r.db.Model(&model.AmbulanceRequest{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID,
			[]string{model.AmbulanceStatusPending, model.AmbulanceStatusDispatched}).
		Update("status", model.AmbulanceStatusCancelled)
	return res.RowsAffected > 0, res.Error
}
