package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/model"
	"medimate-go/internal/service"
)

// FacilityHandler 处理附近医疗机构查询与目录维护。
type FacilityHandler struct {
	facilityService service.FacilityService
	locationService service.LocationService
}

func NewFacilityHandler(facilityService service.FacilityService, locationService service.LocationService) *FacilityHandler {
	return &FacilityHandler{facilityService: facilityService, locationService: locationService}
}

// Nearby 以用户当前位置查询附近机构，支持 ?type=all|hospital|pharmacy&radius=米。
func (h *FacilityHandler) Nearby(c *gin.Context) {
	category := c.DefaultQuery("type", model.FacilityAll)
	radius := 0
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.Atoi(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "radius must be an integer")
			return
		}
		radius = r
	}

	ctx := c.Request.Context()
	loc, err := h.locationService.Get(ctx, currentUser(c).ID)
	if err != nil {
		respondError(c, "load location", err)
		return
	}
	list, err := h.facilityService.Nearby(ctx, loc, category, radius)
	if err != nil {
		respondError(c, "nearby facilities", err)
		return
	}
	respondOK(c, "success", list)
}
