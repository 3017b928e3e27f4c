// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务层哨兵错误，由 handler 映射为 HTTP 状态码。
var (
	ErrEmptyMessage        = errors.New("message is empty")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrUserNotFound        = errors.New("user not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrDateInPast          = errors.New("date must not be in the past")
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrRequestNotFound     = errors.New("ambulance request not found")
	ErrNotCancellable      = errors.New("ambulance request cannot be cancelled")
	ErrDirectoryNotReady   = errors.New("facility directory not configured")
)
