package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/service"
	"attend-ease/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// ListMarks 本人全部考勤记录
// GET /api/v1/attendance
func (h *AttendanceHandler) ListMarks(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ListMarks(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Mark 设置考勤状态；status 为 null 表示取消标记
// POST /api/v1/attendance
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.attendanceSvc.Mark(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleWriteError(c, record, err)
		return
	}

	response.OK(c, record)
}

// Toggle 点击状态按钮
// POST /api/v1/attendance/toggle
func (h *AttendanceHandler) Toggle(c *gin.Context) {
	var req dto.ToggleAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.attendanceSvc.Toggle(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleWriteError(c, record, err)
		return
	}

	response.OK(c, record)
}

// Summary 总览与预警
// GET /api/v1/attendance/summary
func (h *AttendanceHandler) Summary(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	summary, err := h.attendanceSvc.Summary(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

// Subjects 课程统计表
// GET /api/v1/attendance/subjects
func (h *AttendanceHandler) Subjects(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rows, err := h.attendanceSvc.Subjects(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

// SubjectDetail 课程详情
// GET /api/v1/attendance/subjects/:code
func (h *AttendanceHandler) SubjectDetail(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "课程代码不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	detail, err := h.attendanceSvc.SubjectDetail(c.Request.Context(), userID, code)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, detail)
}

// DayStatuses 日历着色数据
// GET /api/v1/attendance/day-statuses
func (h *AttendanceHandler) DayStatuses(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	statuses, err := h.attendanceSvc.DayStatuses(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, statuses)
}

// Daily 某日课表及考勤状态
// GET /api/v1/schedule/daily?date=2024-03-11
func (h *AttendanceHandler) Daily(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	daily, err := h.attendanceSvc.Daily(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, daily)
}

// handleWriteError 写入失败时把未同步的乐观记录放进 503 响应
func (h *AttendanceHandler) handleWriteError(c *gin.Context, record *dto.AttendanceRecordResponse, err error) {
	if record != nil && errors.Is(err, service.ErrAttendanceSyncFailed) {
		response.ErrorWithData(c, http.StatusServiceUnavailable, 22007, "考勤记录保存失败，请稍后重试", record)
		return
	}
	h.handleAttendanceError(c, err)
}

// handleAttendanceError 统一处理考勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	if handleProfileRequired(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAttendanceStatusInvalid):
		response.BadRequest(c, 22001, "考勤状态无效")
	case errors.Is(err, service.ErrAttendanceDateInvalid):
		response.BadRequest(c, 22002, "上课日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrAttendanceTimeInvalid):
		response.BadRequest(c, 22003, "上课时间格式无效，应为 HH:MM")
	case errors.Is(err, service.ErrAttendanceStampInvalid):
		response.BadRequest(c, 22004, "标记时间格式无效")
	case errors.Is(err, service.ErrAttendanceBreak):
		response.BadRequest(c, 22005, "非教学时段不能标记考勤")
	case errors.Is(err, service.ErrAttendanceStale):
		response.Conflict(c, 22006, "已有更新的考勤记录")
	case errors.Is(err, service.ErrAttendanceSyncFailed):
		response.Error(c, http.StatusServiceUnavailable, 22007, "考勤记录保存失败，请稍后重试")
	default:
		response.InternalError(c)
	}
}
