package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// LocationHandler 管理用户的位置状态。
type LocationHandler struct {
	locationService service.LocationService
}

func NewLocationHandler(locationService service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// ResolveLocationRequest 是客户端上报的定位结果。
type ResolveLocationRequest struct {
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
	Address string   `json:"address"`
}

// FailLocationRequest 是客户端上报的定位失败原因。
type FailLocationRequest struct {
	Reason string `json:"reason"`
}

func (h *LocationHandler) Get(c *gin.Context) {
	lc, err := h.locationService.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, "get location", err)
		return
	}
	respondOK(c, "success", lc)
}

// Request 进入 requesting 状态，客户端随后上报 resolve 或 fail。
func (h *LocationHandler) Request(c *gin.Context) {
	lc, err := h.locationService.Request(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, "request location", err)
		return
	}
	respondOK(c, "success", lc)
}

func (h *LocationHandler) Resolve(c *gin.Context) {
	var req ResolveLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("ResolveLocation: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	lc, err := h.locationService.Resolve(c.Request.Context(), currentUser(c).ID, *req.Lat, *req.Lng, req.Address)
	if err != nil {
		respondError(c, "resolve location", err)
		return
	}
	respondOK(c, "success", lc)
}

func (h *LocationHandler) Fail(c *gin.Context) {
	var req FailLocationRequest
	// 请求体可以为空，原因缺省时使用默认文案
	_ = c.ShouldBindJSON(&req)
	lc, err := h.locationService.Fail(c.Request.Context(), currentUser(c).ID, req.Reason)
	if err != nil {
		respondError(c, "fail location", err)
		return
	}
	respondOK(c, "success", lc)
}
