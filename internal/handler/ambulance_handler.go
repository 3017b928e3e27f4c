package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// AmbulanceHandler 处理救护车呼叫。
type AmbulanceHandler struct {
	ambulanceService service.AmbulanceService
}

func NewAmbulanceHandler(ambulanceService service.AmbulanceService) *AmbulanceHandler {
	return &AmbulanceHandler{ambulanceService: ambulanceService}
}

// Request 创建救护车请求，调度由后台队列完成，返回时状态为 pending。
func (h *AmbulanceHandler) Request(c *gin.Context) {
	var req service.AmbulanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("RequestAmbulance: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	ar, err := h.ambulanceService.Request(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, "request ambulance", err)
		return
	}
	respondCreated(c, "Ambulance requested", ar)
}

func (h *AmbulanceHandler) List(c *gin.Context) {
	list, err := h.ambulanceService.List(currentUser(c).ID)
	if err != nil {
		respondError(c, "list ambulance requests", err)
		return
	}
	respondOK(c, "success", list)
}

func (h *AmbulanceHandler) Get(c *gin.Context) {
	ar, err := h.ambulanceService.Get(currentUser(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, "get ambulance request", err)
		return
	}
	respondOK(c, "success", ar)
}

func (h *AmbulanceHandler) Cancel(c *gin.Context) {
	ar, err := h.ambulanceService.Cancel(currentUser(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, "cancel ambulance request", err)
		return
	}
	respondOK(c, "Ambulance request cancelled", ar)
}
