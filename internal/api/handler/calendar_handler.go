package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/service"
	"attend-ease/backend/pkg/response"
)

// CalendarHandler 日历例外 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// ListHolidays 节假日列表
// GET /api/v1/calendar/holidays
func (h *CalendarHandler) ListHolidays(c *gin.Context) {
	list, err := h.calendarSvc.ListHolidays(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListExams 考试周列表
// GET /api/v1/calendar/exams
func (h *CalendarHandler) ListExams(c *gin.Context) {
	list, err := h.calendarSvc.ListExams(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Classify 日期分类
// GET /api/v1/calendar/classify?date=2024-03-04
func (h *CalendarHandler) Classify(c *gin.Context) {
	result, err := h.calendarSvc.Classify(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// ReplaceHolidays 整体替换节假日（管理员）
// PUT /api/v1/admin/holidays
func (h *CalendarHandler) ReplaceHolidays(c *gin.Context) {
	var table dto.HolidayTable
	if err := c.ShouldBindJSON(&table); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.calendarSvc.ReplaceHolidays(c.Request.Context(), &table, callerID); err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, gin.H{"count": len(table.Holidays)})
}

// ReplaceExams 整体替换考试周（管理员）
// PUT /api/v1/admin/exams
func (h *CalendarHandler) ReplaceExams(c *gin.Context) {
	var table dto.ExamTable
	if err := c.ShouldBindJSON(&table); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.calendarSvc.ReplaceExams(c.Request.Context(), &table, callerID); err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, gin.H{"count": len(table.Periods)})
}

// handleCalendarError 统一处理日历模块业务错误
func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCalendarDateInvalid):
		response.BadRequest(c, 21001, "日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrCalendarRangeInvalid):
		response.BadRequest(c, 21002, "考试周结束日期不能早于开始日期")
	case errors.Is(err, service.ErrCalendarDuplicate):
		response.BadRequest(c, 21003, "同一日期存在多个节假日")
	case errors.Is(err, service.ErrCalendarTableInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21004, "例外表格式无效", err.Error())
	default:
		response.InternalError(c)
	}
}
