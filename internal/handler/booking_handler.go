package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/model"
	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// BookingHandler 处理体检与就诊预约。
type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// uintParam 解析路径中的数字 ID，失败时直接写出 400。
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func (h *BookingHandler) List(c *gin.Context) {
	bookings, err := h.bookingService.ListUpcoming(currentUser(c).ID)
	if err != nil {
		respondError(c, "list bookings", err)
		return
	}
	views := make([]model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, model.NewBookingView(b))
	}
	respondOK(c, "success", views)
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req service.BookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateBooking: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.bookingService.Create(currentUser(c).ID, req)
	if err != nil {
		respondError(c, "create booking", err)
		return
	}
	respondCreated(c, "Booking created", model.NewBookingView(*b))
}

// Reschedule 修改预约的日期和时间。
func (h *BookingHandler) Reschedule(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req service.RescheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("RescheduleBooking: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.bookingService.Reschedule(currentUser(c).ID, id, req)
	if err != nil {
		respondError(c, "reschedule booking", err)
		return
	}
	respondOK(c, "Booking rescheduled", model.NewBookingView(*b))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.bookingService.Cancel(currentUser(c).ID, id); err != nil {
		respondError(c, "cancel booking", err)
		return
	}
	respondOK(c, "Booking cancelled", nil)
}
