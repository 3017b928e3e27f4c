package service

import (
	"context"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []model.User `json:"content"`
	TotalElements int64        `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
	Size          int          `json:"size"`
	Number        int          `json:"number"`
}

// 分页参数的上限
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// AdminService 定义了管理员操作：查看用户、维护机构目录。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	IndexFacility(ctx context.Context, in FacilityInput) error
}

type adminService struct {
	userRepo   repository.UserRepository
	facilities FacilityService
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, facilities FacilityService) AdminService {
	return &adminService{userRepo: userRepo, facilities: facilities}
}

// ListUsers 以分页的形式返回用户列表，page 从 1 开始。
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	users, total, err := s.userRepo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserListResponse{
		Content:       users,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
		Size:          size,
		Number:        page,
	}, nil
}

func (s *adminService) IndexFacility(ctx context.Context, in FacilityInput) error {
	return s.facilities.Index(ctx, in)
}
