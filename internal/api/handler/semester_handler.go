package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/service"
	"attend-ease/backend/pkg/response"
)

// SemesterHandler 学期与学期窗口
// 读接口对所有登录用户开放，写接口由路由层限制为管理员。
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// List GET /api/v1/semesters
func (h *SemesterHandler) List(c *gin.Context) {
	semesters, err := h.semesterSvc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"list": semesters})
}

// Get GET /api/v1/semesters/:id
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.semesterSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, semester)
}

// Current 当前生效的学期窗口（激活学期或课表 semesterConfig）
// GET /api/v1/semesters/current
func (h *SemesterHandler) Current(c *gin.Context) {
	window, err := h.semesterSvc.Window(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, window)
}

// Create POST /api/v1/semesters
func (h *SemesterHandler) Create(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, semester)
}

// Update PUT /api/v1/semesters/:id
func (h *SemesterHandler) Update(c *gin.Context) {
	var req dto.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, semester)
}

// Activate 设为当前学期，起止日期须与课表 semesterConfig 一致
// PUT /api/v1/semesters/:id/activate
func (h *SemesterHandler) Activate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.semesterSvc.Activate(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.fail(c, err)
		return
	}

	// 激活后返回新的学期窗口，客户端无需再查一次
	window, err := h.semesterSvc.Window(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, window)
}

// Delete DELETE /api/v1/semesters/:id
func (h *SemesterHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.semesterSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

// fail 学期模块错误码 24xxx
func (h *SemesterHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 24001, "学期不存在")
	case errors.Is(err, service.ErrSemesterDateInvalid):
		response.BadRequest(c, 24002, err.Error())
	case errors.Is(err, service.ErrSemesterDateOverlap):
		response.Conflict(c, 24003, err.Error())
	case errors.Is(err, service.ErrSemesterTimetableMismatch):
		response.Conflict(c, 24004, err.Error())
	default:
		response.InternalError(c)
	}
}
