// Package location 保存每个用户的位置上下文，供附近机构查询与呼叫救护车使用。
// 坐标由客户端上报。
package location

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"medimate-go/pkg/geo"
)

// State 是位置上下文的状态。
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateResolved   State = "resolved"
	StateFailed     State = "failed"
)

var (
	ErrInvalidTransition  = errors.New("location: invalid state transition")
	ErrInvalidCoordinates = errors.New("location: coordinates out of range")
)

// DefaultFailureReason 是客户端未给出失败原因时的默认文案。
const DefaultFailureReason = "Unable to retrieve your location"

// Context 的生命周期为 idle -> requesting -> resolved | failed。
// resolved 与 failed 可以重新回到 requesting 刷新位置。
type Context struct {
	State     State     `json:"state"`
	Lat       float64   `json:"lat,omitempty"`
	Lng       float64   `json:"lng,omitempty"`
	Address   string    `json:"address,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New 返回 idle 状态的上下文。
func New() Context {
	return Context{State: StateIdle}
}

// Resolved 表示坐标是否可用。
func (c Context) Resolved() bool {
	return c.State == StateResolved
}

// Request 进入 requesting 并清除之前的错误。已在 requesting 时只刷新时间戳。
func (c Context) Request(now time.Time) Context {
	c.State = StateRequesting
	c.Error = ""
	c.UpdatedAt = now
	return c
}

// Resolve 记录坐标。地址为空时用保留四位小数的 "lat, lng" 代替。
func (c Context) Resolve(lat, lng float64, address string, now time.Time) (Context, error) {
	if c.State != StateRequesting {
		return c, fmt.Errorf("%w: resolve from %s", ErrInvalidTransition, c.State)
	}
	if !geo.Valid(lat, lng) {
		return c, ErrInvalidCoordinates
	}
	address = strings.TrimSpace(address)
	if address == "" {
		address = fmt.Sprintf("%.4f, %.4f", lat, lng)
	}
	return Context{
		State:     StateResolved,
		Lat:       lat,
		Lng:       lng,
		Address:   address,
		UpdatedAt: now,
	}, nil
}

// Fail 记录定位失败，之前解析的坐标一并丢弃。
func (c Context) Fail(reason string, now time.Time) (Context, error) {
	if c.State != StateRequesting {
		return c, fmt.Errorf("%w: fail from %s", ErrInvalidTransition, c.State)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultFailureReason
	}
	return Context{State: StateFailed, Error: reason, UpdatedAt: now}, nil
}
