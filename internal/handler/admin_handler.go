package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// AdminHandler 负责处理所有与管理员相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers 分页返回用户列表，?page=1&size=10。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	userList, err := h.adminService.ListUsers(page, size)
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	respondOK(c, "success", userList)
}

// IndexFacility 向机构目录写入一条记录。
func (h *AdminHandler) IndexFacility(c *gin.Context) {
	var req service.FacilityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("IndexFacility: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.adminService.IndexFacility(c.Request.Context(), req); err != nil {
		respondError(c, "index facility", err)
		return
	}
	respondCreated(c, "Facility indexed", nil)
}
