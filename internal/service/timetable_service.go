package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"attend-ease/backend/internal/attendance"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableInvalid       = errors.New("课表文档格式无效")
	ErrTimetableDayInvalid    = errors.New("课表中存在无效的星期")
	ErrTimetableTimeInvalid   = errors.New("课程结束时间必须晚于开始时间")
	ErrTimetableWindowInvalid = errors.New("学期结束日期不能早于开始日期")
	ErrTimetableICSFail       = errors.New("生成日历文件失败")
)

const icsUntilLayout = "20060102T150405Z"

// TimetableService 课表业务接口
type TimetableService interface {
	// GetDocument 当前课表文档（优先读缓存）
	GetDocument(ctx context.Context) (*dto.TimetableDocument, error)
	// ReplaceDocument 管理员整体替换课表，并保存一份修订快照
	ReplaceDocument(ctx context.Context, doc *dto.TimetableDocument, callerID string) (*dto.ReplaceTimetableResponse, error)
	// Resolver 基于当前课表构建时段解析器
	Resolver(ctx context.Context) (*attendance.ScheduleResolver, error)
	// WeeklySchedule 学生所在专业 / 分组的周课表（含午休行）
	WeeklySchedule(ctx context.Context, userID string) (*dto.WeeklyScheduleResponse, error)
	// ExportICS 学生课表的 iCalendar 订阅，节假日 / 考试周以 EXDATE 排除
	ExportICS(ctx context.Context, userID string) ([]byte, error)
}

type timetableService struct {
	repo     *repository.Repository
	calendar CalendarService
	cache    *timetableCache
	loc      *time.Location
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(
	repo *repository.Repository,
	calendar CalendarService,
	cache *timetableCache,
	loc *time.Location,
	logger *zap.Logger,
) TimetableService {
	if loc == nil {
		loc = time.UTC
	}
	return &timetableService{
		repo:     repo,
		calendar: calendar,
		cache:    cache,
		loc:      loc,
		validate: validator.New(),
		logger:   logger,
	}
}

// ────────────────────── GetDocument ──────────────────────

func (s *timetableService) GetDocument(ctx context.Context) (*dto.TimetableDocument, error) {
	if doc, ok := s.cache.get(ctx); ok {
		return doc, nil
	}

	rows, err := s.repo.ClassSlot.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, err
	}
	window, err := loadSemesterWindow(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}

	doc := &dto.TimetableDocument{Classes: make([]dto.ClassSlotDTO, 0, len(rows))}
	if window != nil {
		doc.SemesterConfig = &dto.SemesterConfig{
			Start: attendance.FormatDate(window.Start),
			End:   attendance.FormatDate(window.End),
		}
	}
	for _, r := range rows {
		doc.Classes = append(doc.Classes, dto.ClassSlotDTO{
			Semester:    r.Semester,
			Branch:      r.Branch,
			ClassName:   r.ClassName,
			SubjectCode: r.SubjectCode,
			Classroom:   r.Classroom,
			TimeStart:   r.TimeStart,
			TimeEnd:     r.TimeEnd,
			Day:         time.Weekday(r.DayOfWeek).String(),
			Group:       r.Group,
		})
	}

	s.cache.set(ctx, doc)
	return doc, nil
}

// ────────────────────── ReplaceDocument ──────────────────────

func (s *timetableService) ReplaceDocument(ctx context.Context, doc *dto.TimetableDocument, callerID string) (*dto.ReplaceTimetableResponse, error) {
	if err := s.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimetableInvalid, err)
	}
	if doc.SemesterConfig != nil {
		if err := s.validate.Struct(doc.SemesterConfig); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimetableInvalid, err)
		}
		if windowFromConfig(doc.SemesterConfig) == nil {
			return nil, ErrTimetableWindowInvalid
		}
		if doc.SemesterConfig.End < doc.SemesterConfig.Start {
			return nil, ErrTimetableWindowInvalid
		}
	}

	slots := make([]model.ClassSlot, 0, len(doc.Classes))
	for i := range doc.Classes {
		c := &doc.Classes[i]
		day, err := attendance.ParseWeekday(c.Day)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTimetableDayInvalid, c.Day)
		}
		start, err := attendance.ParseClock(c.TimeStart)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimetableInvalid, err)
		}
		end, err := attendance.ParseClock(c.TimeEnd)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimetableInvalid, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: %s %s-%s", ErrTimetableTimeInvalid, c.SubjectCode, c.TimeStart, c.TimeEnd)
		}

		// 统一为 HH:MM，记录 ID 与课表时段身份依赖该格式
		c.TimeStart = start.Format(attendance.ClockLayout)
		c.TimeEnd = end.Format(attendance.ClockLayout)
		c.Day = day.String()

		slot := model.ClassSlot{
			Position:    i,
			Semester:    c.Semester,
			Branch:      c.Branch,
			ClassName:   c.ClassName,
			SubjectCode: c.SubjectCode,
			Classroom:   c.Classroom,
			DayOfWeek:   int(day),
			TimeStart:   c.TimeStart,
			TimeEnd:     c.TimeEnd,
			Group:       c.Group,
		}
		slot.CreatedBy = &callerID
		slot.UpdatedBy = &callerID
		slots = append(slots, slot)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimetableInvalid, err)
	}
	rev := &model.TimetableRevision{
		Document:   datatypes.JSON(raw),
		ClassCount: len(slots),
	}
	rev.CreatedBy = &callerID
	rev.UpdatedBy = &callerID

	// 课表替换与修订快照在同一事务中完成
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.ClassSlot.ReplaceAll(ctx, slots); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("替换课表失败", zap.Error(err))
		return nil, err
	}
	if err := txRepo.Revision.Create(ctx, rev); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("保存课表修订失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.cache.invalidate(ctx)
	s.logger.Info("课表已替换",
		zap.String("revision_id", rev.RevisionID),
		zap.Int("classes", len(slots)),
		zap.String("by", callerID),
	)

	return &dto.ReplaceTimetableResponse{RevisionID: rev.RevisionID, ClassCount: len(slots)}, nil
}

// ────────────────────── Resolver ──────────────────────

func (s *timetableService) Resolver(ctx context.Context) (*attendance.ScheduleResolver, error) {
	doc, err := s.GetDocument(ctx)
	if err != nil {
		return nil, err
	}

	slots := make([]attendance.ClassSlot, 0, len(doc.Classes))
	for _, c := range doc.Classes {
		day, err := attendance.ParseWeekday(c.Day)
		if err != nil {
			// 入库前已校验；缓存中的脏数据直接跳过
			s.logger.Warn("忽略无效星期的课表时段", zap.String("subject_code", c.SubjectCode), zap.String("day", c.Day))
			continue
		}
		slots = append(slots, attendance.ClassSlot{
			SubjectCode: c.SubjectCode,
			DisplayName: c.ClassName,
			Room:        c.Classroom,
			Weekday:     day,
			StartTime:   c.TimeStart,
			EndTime:     c.TimeEnd,
			Branch:      c.Branch,
			Group:       c.Group,
			Semester:    c.Semester,
		})
	}
	return attendance.NewScheduleResolver(slots), nil
}

// ────────────────────── WeeklySchedule ──────────────────────

func (s *timetableService) WeeklySchedule(ctx context.Context, userID string) (*dto.WeeklyScheduleResponse, error) {
	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	grid := resolver.WeeklyGrid(cohort)
	resp := &dto.WeeklyScheduleResponse{
		Branch: cohort.Branch,
		Group:  cohort.Group,
		Days:   make([]dto.WeeklyDay, 0, 7),
	}
	for _, day := range mondayFirst() {
		resp.Days = append(resp.Days, dto.WeeklyDay{
			Day:   day.String(),
			Slots: slotResponses(grid[day]),
		})
	}
	return resp, nil
}

// ────────────────────── ExportICS ──────────────────────

func (s *timetableService) ExportICS(ctx context.Context, userID string) ([]byte, error) {
	cohort, err := loadCohort(ctx, s.repo, s.logger, userID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := s.calendar.Index(ctx)
	if err != nil {
		return nil, err
	}
	window, err := loadSemesterWindow(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}

	// 无学期窗口时从本周一开始，不设结束日期
	from := startOfWeek(todayIn(s.loc))
	var until time.Time
	if window != nil {
		from, until = window.Start, window.End
	} else {
		until = lastExceptionDate(idx)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//attend-ease//timetable//CN")
	cal.SetXWRCalName(fmt.Sprintf("课表 %s-%s", cohort.Branch, cohort.Group))
	cal.SetXWRTimezone(s.loc.String())

	stamp := time.Now().UTC()
	events := 0
	for _, day := range mondayFirst() {
		for _, slot := range resolver.ExpectedSlots(day, cohort) {
			first := nextWeekday(from, day)
			if idx.Classify(first).IsWeekend {
				// 休息日不会有课，整条时段不导出
				break
			}
			if window != nil && first.After(until) {
				continue
			}

			start, end, err := s.slotTimes(first, slot)
			if err != nil {
				s.logger.Warn("忽略时间格式无效的时段", zap.String("subject_code", slot.SubjectCode), zap.Error(err))
				continue
			}

			evt := cal.AddEvent(uuid.NewString() + "@attend-ease")
			evt.SetDtStampTime(stamp)
			evt.SetSummary(slot.DisplayName + " (" + slot.SubjectCode + ")")
			if slot.Room != "" {
				evt.SetLocation(slot.Room)
			}
			evt.SetStartAt(start)
			evt.SetEndAt(end)

			rule := "FREQ=WEEKLY"
			if window != nil {
				lastMoment := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, s.loc)
				rule += ";UNTIL=" + lastMoment.UTC().Format(icsUntilLayout)
			}
			evt.AddProperty(ics.ComponentPropertyRrule, rule)

			for d := first; !d.After(until); d = d.AddDate(0, 0, 7) {
				if idx.Classify(d).Excluded() {
					exStart, _, err := s.slotTimes(d, slot)
					if err != nil {
						continue
					}
					evt.AddProperty(ics.ComponentPropertyExdate, exStart.UTC().Format(icsUntilLayout))
				}
			}
			events++
		}
	}

	out := cal.Serialize()
	if out == "" {
		return nil, ErrTimetableICSFail
	}
	s.logger.Debug("已生成课表日历", zap.String("user_id", userID), zap.Int("events", events))
	return []byte(out), nil
}

// slotTimes 某日该时段在本地时区的起止时刻
func (s *timetableService) slotTimes(date time.Time, slot attendance.ClassSlot) (time.Time, time.Time, error) {
	st, err := attendance.ParseClock(slot.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	et, err := attendance.ParseClock(slot.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, st.Hour(), st.Minute(), 0, 0, s.loc)
	end := time.Date(y, m, d, et.Hour(), et.Minute(), 0, 0, s.loc)
	return start, end, nil
}

// ── 日期辅助 ──

func mondayFirst() []time.Weekday {
	return []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
}

// nextWeekday from 当天或之后第一个指定星期
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	diff := (int(day) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, diff)
}

func startOfWeek(d time.Time) time.Time {
	diff := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -diff)
}

// lastExceptionDate 例外表中最晚的日期，用于无学期窗口时限定 EXDATE 范围
func lastExceptionDate(idx *attendance.CalendarIndex) time.Time {
	dates := make([]time.Time, 0)
	for _, h := range idx.Holidays() {
		dates = append(dates, h.Date)
	}
	for _, e := range idx.Exams() {
		dates = append(dates, e.End)
	}
	if len(dates) == 0 {
		return time.Time{}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates[len(dates)-1]
}
