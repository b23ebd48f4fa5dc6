package handler

import "attend-ease/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Timetable  *TimetableHandler
	Calendar   *CalendarHandler
	Attendance *AttendanceHandler
	Profile    *ProfileHandler
	Semester   *SemesterHandler
	Export     *ExportHandler
	Admin      *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Timetable:  NewTimetableHandler(svc.Timetable),
		Calendar:   NewCalendarHandler(svc.Calendar),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Profile:    NewProfileHandler(svc.Profile),
		Semester:   NewSemesterHandler(svc.Semester),
		Export:     NewExportHandler(svc.Export),
		Admin:      NewAdminHandler(svc.Admin),
	}
}
