package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attend-ease/backend/internal/attendance"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/repository"
	pkgerrors "attend-ease/backend/pkg/errors"
)

// ── 考勤模块业务错误 ──

var (
	ErrAttendanceStatusInvalid = errors.New("考勤状态无效")
	ErrAttendanceDateInvalid   = errors.New("上课日期格式无效，应为 YYYY-MM-DD")
	ErrAttendanceTimeInvalid   = errors.New("上课时间格式无效，应为 HH:MM")
	ErrAttendanceStampInvalid  = errors.New("标记时间格式无效，应为 RFC3339")
	ErrAttendanceBreak         = errors.New("非教学时段不能标记考勤")
	ErrAttendanceStale         = errors.New("已有更新的考勤记录，本次写入被忽略")
	ErrAttendanceSyncFailed    = errors.New("考勤记录保存失败，请稍后重试")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	ListMarks(ctx context.Context, userID string) ([]dto.AttendanceRecordResponse, error)
	// Mark 直接设置状态；status 为 nil 表示取消标记
	// 写入失败时同时返回未同步的乐观记录与 ErrAttendanceSyncFailed
	Mark(ctx context.Context, userID string, req *dto.MarkAttendanceRequest) (*dto.AttendanceRecordResponse, error)
	// Toggle 按点击规则切换状态：再次点击当前状态即取消标记
	// 写入失败时同时返回未同步的乐观记录与 ErrAttendanceSyncFailed
	Toggle(ctx context.Context, userID string, req *dto.ToggleAttendanceRequest) (*dto.AttendanceRecordResponse, error)
	Summary(ctx context.Context, userID string) (*dto.AttendanceSummaryResponse, error)
	Subjects(ctx context.Context, userID string) ([]dto.SubjectStatResponse, error)
	SubjectDetail(ctx context.Context, userID, code string) (*dto.CourseDetailResponse, error)
	// DayStatuses 日期 → 当日聚合状态，用于日历着色
	DayStatuses(ctx context.Context, userID string) (map[string]string, error)
	// Daily 某日课表及每节课的考勤状态；date 为空表示今天
	Daily(ctx context.Context, userID, date string) (*dto.DailyScheduleResponse, error)
	// Report 导出报表所需的全部数据
	Report(ctx context.Context, userID string) (*AttendanceReport, error)
}

// AttendanceReport 单个学生的考勤报表数据
type AttendanceReport struct {
	Cohort  attendance.Cohort
	Summary dto.AttendanceSummaryResponse
	Courses []dto.SubjectStatResponse
	Records []dto.AttendanceRecordResponse
}

type attendanceService struct {
	repo      *repository.Repository
	calendar  CalendarService
	timetable TimetableService
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	calendar CalendarService,
	timetable TimetableService,
	loc *time.Location,
	logger *zap.Logger,
) AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceService{
		repo:      repo,
		calendar:  calendar,
		timetable: timetable,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// ────────────────────── ListMarks ──────────────────────

func (s *attendanceService) ListMarks(ctx context.Context, userID string) ([]dto.AttendanceRecordResponse, error) {
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return recordResponses(userID, ms.Marks()), nil
}

// ────────────────────── Mark ──────────────────────

func (s *attendanceService) Mark(ctx context.Context, userID string, req *dto.MarkAttendanceRequest) (*dto.AttendanceRecordResponse, error) {
	status := attendance.StatusUnmarked
	if req.Status != nil {
		status = attendance.Status(*req.Status)
	}
	if !status.Valid() {
		return nil, ErrAttendanceStatusInvalid
	}

	key, classDate, err := s.buildKey(req.SubjectCode, req.ClassDate, req.TimeStart)
	if err != nil {
		return nil, err
	}

	markedAt := s.now().UTC()
	if req.Timestamp != "" {
		if markedAt, err = time.Parse(time.RFC3339, req.Timestamp); err != nil {
			return nil, ErrAttendanceStampInvalid
		}
	}

	ms := attendance.NewMarkSet(nil)
	ms.Set(attendance.Mark{Key: key, Status: status, MarkedAt: markedAt})
	return s.sync(ctx, userID, ms, key, classDate)
}

// ────────────────────── Toggle ──────────────────────

func (s *attendanceService) Toggle(ctx context.Context, userID string, req *dto.ToggleAttendanceRequest) (*dto.AttendanceRecordResponse, error) {
	clicked := attendance.Status(req.Status)
	if !clicked.Valid() || !clicked.Marked() {
		return nil, ErrAttendanceStatusInvalid
	}

	key, classDate, err := s.buildKey(req.SubjectCode, req.ClassDate, req.TimeStart)
	if err != nil {
		return nil, err
	}

	var existing []attendance.Mark
	rec, err := s.repo.Attendance.Get(ctx, userID, key.RecordID())
	switch {
	case err == nil:
		existing = append(existing, markFromRecord(*rec))
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.logger.Error("查询考勤记录失败", zap.String("user_id", userID), zap.String("record_id", key.RecordID()), zap.Error(err))
		return nil, err
	}

	// 标记时间必须晚于已存记录（已存记录可能带有偏快的客户端时钟）
	at := s.now().UTC()
	if len(existing) > 0 && !at.After(existing[0].MarkedAt) {
		at = existing[0].MarkedAt.Add(time.Microsecond)
	}

	ms := attendance.NewMarkSet(existing)
	ms.Toggle(key, clicked, at)
	return s.sync(ctx, userID, ms, key, classDate)
}

// sync 将乐观更新写入存储
// 过期写入直接返回错误；其他写入失败保留乐观状态，连同未同步标记一起返回给调用方。
func (s *attendanceService) sync(ctx context.Context, userID string, ms *attendance.MarkSet, key attendance.MarkKey, classDate time.Time) (*dto.AttendanceRecordResponse, error) {
	m, ok := ms.Get(key)
	if !ok {
		m = attendance.Mark{Key: key, Status: attendance.StatusUnmarked, MarkedAt: ms.RemovedAt(key)}
	}

	err := s.persist(ctx, userID, m, classDate)
	switch {
	case err == nil:
		ms.MarkSynced(key)
	case errors.Is(err, ErrAttendanceSyncFailed):
		ms.MarkFailed(key)
	default:
		return nil, err
	}

	resp := recordResponse(userID, m)
	resp.Unsynced = ms.IsUnsynced(key)
	return &resp, err
}

// ────────────────────── 统计视图 ──────────────────────

func (s *attendanceService) Summary(ctx context.Context, userID string) (*dto.AttendanceSummaryResponse, error) {
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.timetable.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	return summaryResponse(ms.Marks(), resolver.SubjectNames()), nil
}

func (s *attendanceService) Subjects(ctx context.Context, userID string) ([]dto.SubjectStatResponse, error) {
	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.reconciler(ctx)
	if err != nil {
		return nil, err
	}

	rows := rec.CourseTable(ms.Marks(), cohort)
	out := make([]dto.SubjectStatResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, subjectStatResponse(row))
	}
	return out, nil
}

func (s *attendanceService) SubjectDetail(ctx context.Context, userID, code string) (*dto.CourseDetailResponse, error) {
	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.timetable.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	marks := ms.Marks()
	stat := attendance.SubjectStats(marks)[code]
	name, known := resolver.SubjectNames()[code]
	if !known {
		name = attendance.UnknownCourseName
	}

	return &dto.CourseDetailResponse{
		Stat: subjectStatResponse(attendance.CourseRow{
			SubjectCode: code,
			Name:        name,
			Known:       known,
			Stat:        stat,
			Percentage:  attendance.Percentage(stat),
		}),
		Schedule: slotResponses(resolver.SlotsForSubject(code, cohort)),
		History:  recordResponses(userID, attendance.SubjectHistory(marks, code)),
	}, nil
}

func (s *attendanceService) DayStatuses(ctx context.Context, userID string) (map[string]string, error) {
	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.reconciler(ctx)
	if err != nil {
		return nil, err
	}

	statuses := rec.DayStatuses(ms.Marks(), cohort)
	out := make(map[string]string, len(statuses))
	for date, st := range statuses {
		out[date] = string(st)
	}
	return out, nil
}

// ────────────────────── Daily ──────────────────────

func (s *attendanceService) Daily(ctx context.Context, userID, date string) (*dto.DailyScheduleResponse, error) {
	day := todayIn(s.loc)
	if date != "" {
		d, err := attendance.ParseDate(date)
		if err != nil {
			return nil, ErrAttendanceDateInvalid
		}
		day = d
	}

	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.reconciler(ctx)
	if err != nil {
		return nil, err
	}

	ds := attendance.FormatDate(day)
	resp := &dto.DailyScheduleResponse{
		Date:       ds,
		Day:        day.Weekday().String(),
		InSemester: attendance.IsWithinSemester(day, rec.Window()),
		Slots:      make([]dto.DailySlotResponse, 0),
	}

	// 节假日 > 考试周 > 周末，命中任一例外时不展示课程
	c := rec.Calendar().Classify(day)
	if c.Excluded() {
		kind, label := c.Label()
		resp.Exception = string(kind)
		resp.ExceptionLabel = label
		return resp, nil
	}
	if !resp.InSemester {
		return resp, nil
	}

	for _, slot := range rec.Resolver().WeeklyGrid(cohort)[day.Weekday()] {
		row := dto.DailySlotResponse{SlotResponse: slotResponse(slot)}
		if !slot.IsBreak() {
			if m, ok := ms.Lookup(ds, slot.Key()); ok {
				row.Status = statusPtr(m.Status)
			}
		}
		resp.Slots = append(resp.Slots, row)
	}

	expected := rec.Resolver().ExpectedOn(day, cohort)
	if st, ok := rec.DayStatus(day, ms.OnDate(ds), expected); ok {
		v := string(st)
		resp.DayStatus = &v
	}
	return resp, nil
}

// ────────────────────── Report ──────────────────────

func (s *attendanceService) Report(ctx context.Context, userID string) (*AttendanceReport, error) {
	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	ms, err := s.loadMarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.reconciler(ctx)
	if err != nil {
		return nil, err
	}

	marks := ms.Marks()
	rows := rec.CourseTable(marks, cohort)
	courses := make([]dto.SubjectStatResponse, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, subjectStatResponse(row))
	}

	return &AttendanceReport{
		Cohort:  cohort,
		Summary: *summaryResponse(marks, rec.Resolver().SubjectNames()),
		Courses: courses,
		Records: recordResponses(userID, marks),
	}, nil
}

// ── 内部辅助方法 ──

func (s *attendanceService) loadMarks(ctx context.Context, userID string) (*attendance.MarkSet, error) {
	records, err := s.repo.Attendance.ListByStudent(ctx, userID)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return attendance.NewMarkSet(marksFromRecords(records)), nil
}

func (s *attendanceService) reconciler(ctx context.Context) (*attendance.Reconciler, error) {
	idx, err := s.calendar.Index(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := s.timetable.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	window, err := loadSemesterWindow(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}
	return attendance.NewReconciler(idx, resolver, window), nil
}

// buildKey 校验并构建记录身份；时间统一为 HH:MM
func (s *attendanceService) buildKey(code, date, timeStart string) (attendance.MarkKey, time.Time, error) {
	if code == attendance.BreakCode {
		return attendance.MarkKey{}, time.Time{}, ErrAttendanceBreak
	}
	classDate, err := attendance.ParseDate(date)
	if err != nil {
		return attendance.MarkKey{}, time.Time{}, ErrAttendanceDateInvalid
	}
	if timeStart != "" {
		t, err := attendance.ParseClock(timeStart)
		if err != nil {
			return attendance.MarkKey{}, time.Time{}, ErrAttendanceTimeInvalid
		}
		timeStart = t.Format(attendance.ClockLayout)
	}
	key := attendance.MarkKey{
		SubjectCode: code,
		ClassDate:   attendance.FormatDate(classDate),
		TimeStart:   timeStart,
	}
	return key, classDate, nil
}

// persist 写入存储：已标记则 upsert，未标记则删除
func (s *attendanceService) persist(ctx context.Context, userID string, m attendance.Mark, classDate time.Time) error {
	var err error
	if m.Status.Marked() {
		err = s.repo.Attendance.Upsert(ctx, recordFromMark(userID, m, classDate))
	} else {
		err = s.repo.Attendance.Delete(ctx, userID, m.Key.RecordID(), m.MarkedAt)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, pkgerrors.ErrStaleMark) {
		return ErrAttendanceStale
	}
	s.logger.Error("保存考勤记录失败",
		zap.String("user_id", userID),
		zap.String("record_id", m.Key.RecordID()),
		zap.Error(err),
	)
	return ErrAttendanceSyncFailed
}

func recordResponses(userID string, marks []attendance.Mark) []dto.AttendanceRecordResponse {
	out := make([]dto.AttendanceRecordResponse, 0, len(marks))
	for _, m := range marks {
		out = append(out, recordResponse(userID, m))
	}
	return out
}

func summaryResponse(marks []attendance.Mark, names map[string]string) *dto.AttendanceSummaryResponse {
	total := attendance.Overall(marks)
	alerts := attendance.Alerts(attendance.SubjectStats(marks))

	resp := &dto.AttendanceSummaryResponse{
		Present:    total.Present,
		Absent:     total.Absent,
		Cancelled:  total.Cancelled,
		Percentage: total.Percentage,
		Alerts:     make([]dto.AlertResponse, 0, len(alerts)),
	}
	for _, a := range alerts {
		name, ok := names[a.SubjectCode]
		if !ok {
			name = attendance.UnknownCourseName
		}
		resp.Alerts = append(resp.Alerts, dto.AlertResponse{
			SubjectCode: a.SubjectCode,
			Name:        name,
			Percentage:  a.Percentage,
			Severity:    string(a.Severity),
		})
	}
	return resp
}
