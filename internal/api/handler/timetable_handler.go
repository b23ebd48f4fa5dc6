package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/service"
	"attend-ease/backend/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// GetSchedule 获取完整课表文档
// GET /api/v1/schedule
func (h *TimetableHandler) GetSchedule(c *gin.Context) {
	doc, err := h.timetableSvc.GetDocument(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, doc)
}

// GetWeekly 获取本人所在分组的周课表
// GET /api/v1/schedule/weekly
func (h *TimetableHandler) GetWeekly(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	week, err := h.timetableSvc.WeeklySchedule(c.Request.Context(), userID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, week)
}

// GetICS 订阅本人课表（iCalendar）
// GET /api/v1/schedule/ics
func (h *TimetableHandler) GetICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	raw, err := h.timetableSvc.ExportICS(c.Request.Context(), userID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=timetable.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", raw)
}

// ReplaceSchedule 整体替换课表（管理员）
// PUT /api/v1/admin/schedule
func (h *TimetableHandler) ReplaceSchedule(c *gin.Context) {
	var doc dto.TimetableDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.timetableSvc.ReplaceDocument(c.Request.Context(), &doc, callerID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// handleTimetableError 统一处理课表模块业务错误
func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	if handleProfileRequired(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrTimetableDayInvalid):
		response.BadRequest(c, 20002, err.Error())
	case errors.Is(err, service.ErrTimetableTimeInvalid):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrTimetableWindowInvalid):
		response.BadRequest(c, 20004, "学期结束日期不能早于开始日期")
	case errors.Is(err, service.ErrTimetableInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "课表文档格式无效", err.Error())
	default:
		response.InternalError(c)
	}
}
