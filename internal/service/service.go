package service

import (
	"time"

	"go.uber.org/zap"

	"attend-ease/backend/config"
	"attend-ease/backend/internal/repository"
	"attend-ease/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Calendar   CalendarService
	Timetable  TimetableService
	Profile    ProfileService
	Attendance AttendanceService
	Semester   SemesterService
	Export     ExportService
	Admin      AdminService
}

// NewService 创建 Service 聚合
// rdb 可以为 nil：课表缓存降级为直接查库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	weekend, _ := cfg.Calendar.Weekend() // 已在 config.Validate 中校验
	loc, _ := cfg.Calendar.Location()
	if loc == nil {
		loc = time.UTC
	}

	cache := newTimetableCache(rdb, cfg.Cache.TimetableTTL, logger)

	calendarSvc := NewCalendarService(repo, weekend, loc, logger)
	timetableSvc := NewTimetableService(repo, calendarSvc, cache, loc, logger)
	profileSvc := NewProfileService(repo, logger)
	attendanceSvc := NewAttendanceService(repo, calendarSvc, timetableSvc, loc, logger)

	return &Service{
		Calendar:   calendarSvc,
		Timetable:  timetableSvc,
		Profile:    profileSvc,
		Attendance: attendanceSvc,
		Semester:   NewSemesterService(repo, cache, logger),
		Export:     NewExportService(attendanceSvc, profileSvc, logger),
		Admin:      NewAdminService(repo, logger),
	}
}
