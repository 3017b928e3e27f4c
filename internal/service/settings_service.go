package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/pkg/hash"
)

// ProfileUpdate 是个人资料的可修改字段。
type ProfileUpdate struct {
	FullName                 string `json:"fullName"`
	Email                    string `json:"email"`
	Phone                    string `json:"phone"`
	EmergencyContactName     string `json:"emergencyContactName"`
	EmergencyContactPhone    string `json:"emergencyContactPhone"`
	EmergencyContactRelation string `json:"emergencyContactRelation"`
}

// PasswordChange 是修改密码的请求。
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PreferencesUpdate 只更新非 nil 的开关。
type PreferencesUpdate struct {
	Email        *bool `json:"email"`
	Push         *bool `json:"push"`
	SMS          *bool `json:"sms"`
	Appointments *bool `json:"appointments"`
	Reminders    *bool `json:"reminders"`
	Marketing    *bool `json:"marketing"`
}

// SettingsService 管理个人资料、密码与通知偏好。
type SettingsService interface {
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error)
	ChangePassword(userID uint, change PasswordChange) error
	GetPreferences(userID uint) (*model.NotificationPreferences, error)
	UpdatePreferences(userID uint, update PreferencesUpdate) (*model.NotificationPreferences, error)
}

type settingsService struct {
	userRepo     repository.UserRepository
	settingsRepo repository.SettingsRepository
}

func NewSettingsService(userRepo repository.UserRepository, settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{userRepo: userRepo, settingsRepo: settingsRepo}
}

func (s *settingsService) GetProfile(userID uint) (*model.User, error) {
	return s.findUser(userID)
}

// findUser 只把记录不存在映射为 ErrUserNotFound，数据库故障原样返回。
func (s *settingsService) findUser(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *settingsService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(update.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
		}
	}

	user.FullName = strings.TrimSpace(update.FullName)
	user.Email = email
	user.Phone = strings.TrimSpace(update.Phone)
	user.EmergencyContactName = strings.TrimSpace(update.EmergencyContactName)
	user.EmergencyContactPhone = strings.TrimSpace(update.EmergencyContactPhone)
	user.EmergencyContactRelation = strings.TrimSpace(update.EmergencyContactRelation)
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 校验当前密码，并要求新密码与确认一致。
func (s *settingsService) ChangePassword(userID uint, change PasswordChange) error {
	if change.NewPassword != change.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(change.NewPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.findUser(userID)
	if err != nil {
		return err
	}
	if !hash.CheckPasswordHash(change.CurrentPassword, user.Password) {
		return ErrWrongPassword
	}
	hashed, err := hash.HashPassword(change.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.userRepo.Update(user)
}

func (s *settingsService) GetPreferences(userID uint) (*model.NotificationPreferences, error) {
	return s.settingsRepo.GetPreferences(userID)
}

func (s *settingsService) UpdatePreferences(userID uint, update PreferencesUpdate) (*model.NotificationPreferences, error) {
	prefs, err := s.settingsRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&prefs.Email, update.Email)
	apply(&prefs.Push, update.Push)
	apply(&prefs.SMS, update.SMS)
	apply(&prefs.Appointments, update.Appointments)
	apply(&prefs.Reminders, update.Reminders)
	apply(&prefs.Marketing, update.Marketing)
	if err := s.settingsRepo.SavePreferences(prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
