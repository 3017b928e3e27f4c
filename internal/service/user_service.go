package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/pkg/hash"
	"medimate-go/pkg/log"
	"medimate-go/pkg/token"
)

// MinPasswordLength 是注册与修改密码时的最小长度。
const MinPasswordLength = 8

// UserService 接口定义了账户与认证相关的业务操作。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	// Logout 吊销 access token，refreshToken 非空时一并吊销。
	Logout(ctx context.Context, accessToken, refreshToken string) error
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	// IssueSocketTicket 为 WebSocket 连接签发一次性票据，避免把 JWT 放进 URL。
	IssueSocketTicket(ctx context.Context, userID uint) (string, error)
	RedeemSocketTicket(ctx context.Context, ticket string) (*model.User, error)
}

// SocketTicketTTL 是 WebSocket 票据的有效期。
const SocketTicketTTL = time.Minute

type userService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, jwtManager *token.JWTManager) UserService {
	return &userService{userRepo: userRepo, tokenRepo: tokenRepo, jwtManager: jwtManager}
}

// Register 校验用户名与密码后创建普通用户。
func (s *userService) Register(username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, Password: hashed, Role: "USER"}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	log.Infow("user registered", "user_id", user.ID)
	return user, nil
}

// Login 校验密码并签发 access token 与 refresh token。
func (s *userService) Login(username, password string) (string, string, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}
	return s.issue(user)
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Logout 将 token 加入黑名单，有效期为 token 的剩余寿命。
// refresh token 只有属于同一用户时才会被吊销。
func (s *userService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := s.jwtManager.VerifyToken(accessToken)
	if err != nil {
		return err
	}
	if err := s.tokenRepo.Blacklist(ctx, accessToken, s.jwtManager.Remaining(claims)); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	refreshClaims, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if refreshClaims.UserID != claims.UserID {
		return token.ErrInvalidToken
	}
	return s.tokenRepo.Blacklist(ctx, refreshToken, s.jwtManager.Remaining(refreshClaims))
}

func (s *userService) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.tokenRepo.IsBlacklisted(ctx, tokenString)
}

// RefreshToken 验证 refresh token 并签发新的一对 token，旧 refresh token 随即作废。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	claims, err := s.jwtManager.VerifyRefreshToken(refreshTokenString)
	if err != nil {
		return "", "", err
	}
	revoked, err := s.tokenRepo.IsBlacklisted(ctx, refreshTokenString)
	if err != nil {
		return "", "", err
	}
	if revoked {
		return "", "", token.ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", ErrUserNotFound
	}
	if err != nil {
		return "", "", err
	}
	access, refresh, err := s.issue(user)
	if err != nil {
		return "", "", err
	}
	if err := s.tokenRepo.Blacklist(ctx, refreshTokenString, s.jwtManager.Remaining(claims)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *userService) issue(user *model.User) (string, string, error) {
	access, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *userService) IssueSocketTicket(ctx context.Context, userID uint) (string, error) {
	ticket := token.GenerateRandomString(24)
	if err := s.tokenRepo.SaveSocketTicket(ctx, ticket, userID, SocketTicketTTL); err != nil {
		return "", err
	}
	return ticket, nil
}

func (s *userService) RedeemSocketTicket(ctx context.Context, ticket string) (*model.User, error) {
	userID, err := s.tokenRepo.TakeSocketTicket(ctx, ticket)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, token.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
