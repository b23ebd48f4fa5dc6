package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"attend-ease/backend/internal/attendance"
	"attend-ease/backend/internal/dto"
	"attend-ease/backend/internal/model"
	"attend-ease/backend/internal/repository"
)

// ── 日历模块业务错误 ──

var (
	ErrCalendarDateInvalid  = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrCalendarRangeInvalid = errors.New("考试周结束日期不能早于开始日期")
	ErrCalendarDuplicate    = errors.New("同一日期存在多个节假日")
	ErrCalendarTableInvalid = errors.New("例外表格式无效")
)

// CalendarService 日历例外业务接口
//
// 节假日与考试周以快照形式缓存在内存中，由定时任务或管理员更新后重新加载。
type CalendarService interface {
	// Reload 从数据库重新加载快照
	Reload(ctx context.Context) error
	// Index 当前快照的例外索引（首次调用时加载）
	Index(ctx context.Context) (*attendance.CalendarIndex, error)
	ListHolidays(ctx context.Context) ([]dto.HolidayDTO, error)
	ListExams(ctx context.Context) ([]dto.ExamPeriodDTO, error)
	Classify(ctx context.Context, date string) (*dto.ClassifyResponse, error)
	ReplaceHolidays(ctx context.Context, table *dto.HolidayTable, callerID string) error
	ReplaceExams(ctx context.Context, table *dto.ExamTable, callerID string) error
}

type calendarService struct {
	repo     *repository.Repository
	weekend  []time.Weekday
	loc      *time.Location
	validate *validator.Validate
	logger   *zap.Logger

	mu    sync.RWMutex
	index *attendance.CalendarIndex
}

// NewCalendarService 创建 CalendarService 实例，weekend 为空时使用周六、周日
func NewCalendarService(repo *repository.Repository, weekend []time.Weekday, loc *time.Location, logger *zap.Logger) CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{
		repo:     repo,
		weekend:  weekend,
		loc:      loc,
		validate: validator.New(),
		logger:   logger,
	}
}

// ────────────────────── Reload / Index ──────────────────────

func (s *calendarService) Reload(ctx context.Context) error {
	holidays, err := s.repo.Calendar.ListHolidays(ctx)
	if err != nil {
		s.logger.Error("加载节假日失败", zap.Error(err))
		return err
	}
	exams, err := s.repo.Calendar.ListExamPeriods(ctx)
	if err != nil {
		s.logger.Error("加载考试周失败", zap.Error(err))
		return err
	}

	hs := make([]attendance.Holiday, 0, len(holidays))
	for _, h := range holidays {
		hs = append(hs, attendance.Holiday{Date: h.Date, Name: h.Name})
	}
	es := make([]attendance.ExamPeriod, 0, len(exams))
	for _, e := range exams {
		es = append(es, attendance.ExamPeriod{Start: e.StartDate, End: e.EndDate, Label: e.Type})
	}

	idx := attendance.NewCalendarIndex(hs, es, s.weekend...)

	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()

	s.logger.Debug("日历例外已加载", zap.Int("holidays", len(hs)), zap.Int("exams", len(es)))
	return nil
}

func (s *calendarService) Index(ctx context.Context) (*attendance.CalendarIndex, error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *calendarService) ListHolidays(ctx context.Context) ([]dto.HolidayDTO, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HolidayDTO, 0)
	for _, h := range idx.Holidays() {
		out = append(out, dto.HolidayDTO{Date: attendance.FormatDate(h.Date), Name: h.Name})
	}
	return out, nil
}

func (s *calendarService) ListExams(ctx context.Context) ([]dto.ExamPeriodDTO, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExamPeriodDTO, 0)
	for _, e := range idx.Exams() {
		out = append(out, dto.ExamPeriodDTO{
			Start: attendance.FormatDate(e.Start),
			End:   attendance.FormatDate(e.End),
			Type:  e.Label,
		})
	}
	return out, nil
}

func (s *calendarService) Classify(ctx context.Context, date string) (*dto.ClassifyResponse, error) {
	var (
		day time.Time
		err error
	)
	if date == "" {
		day = todayIn(s.loc)
	} else if day, err = attendance.ParseDate(date); err != nil {
		return nil, ErrCalendarDateInvalid
	}

	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	window, err := loadSemesterWindow(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}

	c := idx.Classify(day)
	_, label := c.Label()
	kind, _ := c.Label()
	if kind == attendance.ExceptionWeekend {
		label = day.Weekday().String()
	}
	return &dto.ClassifyResponse{
		Date:        attendance.FormatDate(day),
		IsHoliday:   c.IsHoliday,
		HolidayName: c.HolidayName,
		IsExam:      c.IsExam,
		ExamLabel:   c.ExamLabel,
		IsWeekend:   c.IsWeekend,
		Label:       label,
		InSemester:  attendance.IsWithinSemester(day, window),
	}, nil
}

// ────────────────────── 管理员替换 ──────────────────────

func (s *calendarService) ReplaceHolidays(ctx context.Context, table *dto.HolidayTable, callerID string) error {
	if err := s.validate.Struct(table); err != nil {
		return fmt.Errorf("%w: %v", ErrCalendarTableInvalid, err)
	}

	seen := make(map[string]bool, len(table.Holidays))
	rows := make([]model.Holiday, 0, len(table.Holidays))
	for _, h := range table.Holidays {
		d, err := attendance.ParseDate(h.Date)
		if err != nil {
			return ErrCalendarDateInvalid
		}
		if seen[h.Date] {
			return ErrCalendarDuplicate
		}
		seen[h.Date] = true

		row := model.Holiday{Date: d, Name: h.Name}
		row.CreatedBy = &callerID
		row.UpdatedBy = &callerID
		rows = append(rows, row)
	}

	if err := s.repo.Calendar.ReplaceHolidays(ctx, rows); err != nil {
		s.logger.Error("替换节假日失败", zap.Error(err))
		return err
	}
	s.logger.Info("节假日已替换", zap.Int("count", len(rows)), zap.String("by", callerID))
	return s.Reload(ctx)
}

func (s *calendarService) ReplaceExams(ctx context.Context, table *dto.ExamTable, callerID string) error {
	if err := s.validate.Struct(table); err != nil {
		return fmt.Errorf("%w: %v", ErrCalendarTableInvalid, err)
	}

	rows := make([]model.ExamPeriod, 0, len(table.Periods))
	for _, p := range table.Periods {
		start, err := attendance.ParseDate(p.Start)
		if err != nil {
			return ErrCalendarDateInvalid
		}
		end, err := attendance.ParseDate(p.End)
		if err != nil {
			return ErrCalendarDateInvalid
		}
		if end.Before(start) {
			return ErrCalendarRangeInvalid
		}

		row := model.ExamPeriod{StartDate: start, EndDate: end, Type: p.Type}
		row.CreatedBy = &callerID
		row.UpdatedBy = &callerID
		rows = append(rows, row)
	}

	if err := s.repo.Calendar.ReplaceExamPeriods(ctx, rows); err != nil {
		s.logger.Error("替换考试周失败", zap.Error(err))
		return err
	}
	s.logger.Info("考试周已替换", zap.Int("count", len(rows)), zap.String("by", callerID))
	return s.Reload(ctx)
}

// todayIn 指定时区的今天（UTC 零点表示）
func todayIn(loc *time.Location) time.Time {
	y, m, d := time.Now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
